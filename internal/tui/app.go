package tui

import (
	"context"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkell/tradewire/internal/config"
	"github.com/mkell/tradewire/internal/entitlement"
	"github.com/mkell/tradewire/internal/secrets"
	"github.com/mkell/tradewire/internal/service"
	"github.com/mkell/tradewire/internal/session"
)

// App gates the views on the two coordinators: unauthenticated users see the
// login view, authenticated-but-unsubscribed users see the paywall, and only
// subscribed users reach the trades dashboard. Views read snapshots and
// issue coordinator operations as commands; they never mutate state
// directly.
type App struct {
	ctx          context.Context
	cfg          config.Config
	session      *session.Coordinator
	entitlements *entitlement.Reconciler
	services     Services

	sess session.Snapshot
	ent  entitlement.Snapshot

	page       service.TradePage
	watchlist  []service.WatchlistItem
	loadedOnce bool

	trCursor    int
	offerCursor int
	inputMode   inputMode
	input       string
	filter      string
	suggestion  string
	status      string
	width       int
}

// Services bundles the data operations the dashboard needs.
type Services struct {
	Trades    *service.TradesService
	Watchlist *service.WatchlistService
}

type gateView string

const (
	viewSplash  gateView = "splash"
	viewLogin   gateView = "login"
	viewPaywall gateView = "paywall"
	viewTrades  gateView = "trades"
)

type inputMode string

const (
	inputNone   inputMode = ""
	inputEmail  inputMode = "email"
	inputFilter inputMode = "filter"
	inputWatch  inputMode = "watch"
)

type (
	sessionMsg   session.Snapshot
	entMsg       entitlement.Snapshot
	tradesMsg    service.TradePage
	watchlistMsg []service.WatchlistItem
	exportedMsg  string
	errMsg       struct{ err error }
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	selStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("71"))
)

// New wires the app. Both coordinators are refreshed concurrently from
// Init; neither waits for the other.
func New(ctx context.Context, cfg config.Config, sess *session.Coordinator, ent *entitlement.Reconciler, services Services) *App {
	return &App{
		ctx:          ctx,
		cfg:          cfg,
		session:      sess,
		entitlements: ent,
		services:     services,
		sess:         sess.Snapshot(),
		ent:          ent.Snapshot(),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.refreshSessionCmd(), a.bootstrapEntitlementsCmd())
}

func (a *App) refreshSessionCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.Refresh(a.ctx)
		return sessionMsg(a.session.Snapshot())
	}
}

func (a *App) loginCmd(email string) tea.Cmd {
	return func() tea.Msg {
		token, err := secrets.FetchIdentityToken()
		if err != nil || token == "" {
			token = os.Getenv("TRADEWIRE_IDENTITY_TOKEN")
		}
		a.session.LoginWithIdentity(a.ctx, token, email, "")
		return sessionMsg(a.session.Snapshot())
	}
}

func (a *App) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		a.session.Logout(a.ctx)
		_ = secrets.DeleteIdentityToken()
		return sessionMsg(a.session.Snapshot())
	}
}

func (a *App) bootstrapEntitlementsCmd() tea.Cmd {
	return func() tea.Msg {
		a.entitlements.LoadOffers(a.ctx)
		a.entitlements.Reconcile(a.ctx)
		return entMsg(a.entitlements.Snapshot())
	}
}

func (a *App) purchaseCmd(offer entitlement.Offer) tea.Cmd {
	return func() tea.Msg {
		a.entitlements.Purchase(a.ctx, offer)
		return entMsg(a.entitlements.Snapshot())
	}
}

func (a *App) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		a.entitlements.Restore(a.ctx)
		return entMsg(a.entitlements.Snapshot())
	}
}

func (a *App) loadTradesCmd() tea.Cmd {
	filter := a.filter
	return func() tea.Msg {
		page, err := a.services.Trades.List(a.ctx, service.TradeFilters{Ticker: filter, Limit: 50})
		if err != nil {
			return errMsg{err}
		}
		return tradesMsg(page)
	}
}

func (a *App) loadWatchlistCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := a.services.Watchlist.List(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return watchlistMsg(items)
	}
}

func (a *App) addWatchCmd(ticker string) tea.Cmd {
	return func() tea.Msg {
		item := service.WatchlistItem{Kind: service.WatchTicker, Value: strings.ToUpper(ticker)}
		if err := a.services.Watchlist.Add(a.ctx, item); err != nil {
			return errMsg{err}
		}
		items, err := a.services.Watchlist.List(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return watchlistMsg(items)
	}
}

func (a *App) exportCmd() tea.Cmd {
	filter := a.filter
	return func() tea.Msg {
		data, err := a.services.Trades.ExportCSV(a.ctx, service.TradeFilters{Ticker: filter})
		if err != nil {
			return errMsg{err}
		}
		path := "tradewire-trades.csv"
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errMsg{err}
		}
		return exportedMsg(path)
	}
}

// gate picks the visible view purely from the two published snapshots.
func (a *App) gate() gateView {
	switch {
	case a.sess.State == session.StateUnknown || a.sess.State == session.StateLoading:
		return viewSplash
	case !a.sess.Authenticated():
		return viewLogin
	case a.ent.IsSubscribed:
		return viewTrades
	default:
		return viewPaywall
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
	case sessionMsg:
		wasAuthed := a.sess.Authenticated()
		a.sess = session.Snapshot(m)
		if a.sess.Authenticated() && !wasAuthed {
			a.loadedOnce = false
		}
		if a.sess.Authenticated() && !a.loadedOnce {
			a.loadedOnce = true
			return a, tea.Batch(a.loadTradesCmd(), a.loadWatchlistCmd())
		}
	case entMsg:
		a.ent = entitlement.Snapshot(m)
	case tradesMsg:
		a.page = service.TradePage(m)
		a.trCursor = 0
		a.suggestion = ""
		if a.filter != "" && len(a.page.Items) == 0 {
			a.suggestion = service.SuggestTicker(a.filter, a.watchTickers())
		}
	case watchlistMsg:
		a.watchlist = m
	case exportedMsg:
		a.status = "Exported " + string(m)
	case errMsg:
		a.status = m.err.Error()
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.inputMode != inputNone {
		return a.handleInputKey(m)
	}

	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	}

	switch a.gate() {
	case viewLogin:
		return a.handleLoginKey(m)
	case viewPaywall:
		return a.handlePaywallKey(m)
	case viewTrades:
		return a.handleTradesKey(m)
	}
	return a, nil
}

func (a *App) handleInputKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.inputMode = inputNone
		a.input = ""
	case "enter":
		mode, value := a.inputMode, strings.TrimSpace(a.input)
		a.inputMode = inputNone
		a.input = ""
		switch mode {
		case inputEmail:
			if value != "" {
				a.status = ""
				return a, a.loginCmd(value)
			}
		case inputFilter:
			a.filter = value
			return a, a.loadTradesCmd()
		case inputWatch:
			if value != "" {
				return a, a.addWatchCmd(value)
			}
		}
	case "backspace":
		if len(a.input) > 0 {
			a.input = a.input[:len(a.input)-1]
		}
	default:
		if len(m.Runes) > 0 {
			a.input += string(m.Runes)
		}
	}
	return a, nil
}

func (a *App) handleLoginKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "enter", "i":
		a.inputMode = inputEmail
		a.input = ""
	case "r":
		return a, a.refreshSessionCmd()
	}
	return a, nil
}

func (a *App) handlePaywallKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "up", "k":
		if a.offerCursor > 0 {
			a.offerCursor--
		}
	case "down", "j":
		if a.offerCursor < len(a.ent.Offers)-1 {
			a.offerCursor++
		}
	case "enter":
		if a.offerCursor < len(a.ent.Offers) {
			return a, a.purchaseCmd(a.ent.Offers[a.offerCursor])
		}
	case "s":
		return a, a.restoreCmd()
	case "o":
		return a, a.bootstrapEntitlementsCmd()
	case "l":
		return a, a.logoutCmd()
	}
	return a, nil
}

func (a *App) handleTradesKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "up", "k":
		if a.trCursor > 0 {
			a.trCursor--
		}
	case "down", "j":
		if a.trCursor < len(a.page.Items)-1 {
			a.trCursor++
		}
	case "r":
		return a, a.loadTradesCmd()
	case "/":
		a.inputMode = inputFilter
		a.input = a.filter
	case "a":
		a.inputMode = inputWatch
		a.input = ""
	case "x":
		return a, a.exportCmd()
	case "l":
		return a, a.logoutCmd()
	}
	return a, nil
}

func (a *App) watchTickers() []string {
	var out []string
	for _, item := range a.watchlist {
		if item.Kind == service.WatchTicker {
			out = append(out, item.Value)
		}
	}
	return out
}
