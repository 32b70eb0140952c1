package tui

import (
	"fmt"
	"strings"

	"github.com/mkell/tradewire/internal/entitlement"
	"github.com/mkell/tradewire/internal/service"
)

func (a *App) View() string {
	var body string
	switch a.gate() {
	case viewSplash:
		body = a.renderSplash()
	case viewLogin:
		body = a.renderLogin()
	case viewPaywall:
		body = a.renderPaywall()
	case viewTrades:
		body = a.renderTrades()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tradewire"))
	b.WriteString("\n\n")
	b.WriteString(body)
	if a.status != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(a.status))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderSplash() string {
	return dimStyle.Render("Connecting…")
}

func (a *App) renderLogin() string {
	var b strings.Builder
	b.WriteString("Sign in to TradeWire\n\n")
	if a.inputMode == inputEmail {
		b.WriteString("email: " + a.input + "▌\n")
		b.WriteString(dimStyle.Render("enter to sign in, esc to cancel"))
	} else {
		b.WriteString(dimStyle.Render("enter: sign in  r: retry connection  q: quit"))
	}
	if a.sess.LastError != "" {
		b.WriteString("\n\n" + errStyle.Render(a.sess.LastError))
	}
	return b.String()
}

func (a *App) renderPaywall() string {
	var b strings.Builder
	b.WriteString("TradeWire Pro\n")
	b.WriteString(dimStyle.Render("A subscription is required to view market signals.") + "\n\n")

	if a.ent.IsLoading && len(a.ent.Offers) == 0 {
		b.WriteString(dimStyle.Render("Loading subscriptions…") + "\n")
	}
	for i, offer := range a.ent.Offers {
		line := fmt.Sprintf("%-14s %10s  %s", offer.DisplayName, offer.DisplayPrice, formatPeriod(offer.Period))
		if i == a.offerCursor {
			line = selStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("enter: subscribe  s: restore purchases  o: reload  l: sign out"))
	if a.ent.ErrorMessage != "" {
		b.WriteString("\n\n" + errStyle.Render(a.ent.ErrorMessage))
	}
	return b.String()
}

func (a *App) renderTrades() string {
	var b strings.Builder
	who := a.sess.User
	if who == "" {
		who = "dev mode"
	}
	b.WriteString(okStyle.Render("● "+who) + "\n\n")

	if a.inputMode == inputFilter {
		b.WriteString("ticker filter: " + a.input + "▌\n\n")
	} else if a.inputMode == inputWatch {
		b.WriteString("watch ticker: " + a.input + "▌\n\n")
	} else if a.filter != "" {
		b.WriteString(dimStyle.Render("filter: "+a.filter) + "\n\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-6s %-22s %-10s %-12s %-14s", "TICKER", "PERSON", "TYPE", "DATE", "AMOUNT")) + "\n")
	if len(a.page.Items) == 0 {
		b.WriteString(dimStyle.Render("no trades") + "\n")
		if a.suggestion != "" {
			b.WriteString(dimStyle.Render("did you mean "+a.suggestion+"?") + "\n")
		}
	}
	for i, tr := range a.page.Items {
		line := formatTradeRow(tr)
		if i == a.trCursor {
			line = selStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d of %d trades", len(a.page.Items), a.page.Total)) + "\n")

	if len(a.watchlist) > 0 {
		b.WriteString("\n" + headerStyle.Render("WATCHLIST") + "\n")
		for _, item := range a.watchlist {
			b.WriteString(fmt.Sprintf("%s %s\n", dimStyle.Render(item.Kind), item.Value))
		}
	}

	b.WriteString("\n" + dimStyle.Render("r: refresh  /: filter  a: watch  x: export csv  l: sign out  q: quit"))
	return b.String()
}

func formatTradeRow(tr service.Trade) string {
	return fmt.Sprintf("%-6s %-22s %-10s %-12s %-14s",
		deref(tr.Ticker),
		truncate(deref(tr.PersonName), 22),
		deref(tr.TransactionType),
		deref(tr.TransactionDate),
		formatAmount(tr.AmountUsdLow, tr.AmountUsdHigh),
	)
}

func formatAmount(low, high *int64) string {
	switch {
	case low != nil && high != nil:
		return fmt.Sprintf("$%d–$%d", *low, *high)
	case low != nil:
		return fmt.Sprintf("$%d", *low)
	case high != nil:
		return fmt.Sprintf("up to $%d", *high)
	default:
		return "—"
	}
}

func formatPeriod(p *entitlement.Period) string {
	if p == nil {
		return ""
	}
	unit := p.Unit
	if p.Count != 1 {
		unit = fmt.Sprintf("%d %ss", p.Count, p.Unit)
		return "every " + unit
	}
	return "per " + unit
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
