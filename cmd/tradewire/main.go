package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkell/tradewire/internal/api"
	"github.com/mkell/tradewire/internal/config"
	"github.com/mkell/tradewire/internal/entitlement"
	"github.com/mkell/tradewire/internal/service"
	"github.com/mkell/tradewire/internal/session"
	"github.com/mkell/tradewire/internal/storefront"
	"github.com/mkell/tradewire/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := openLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer closeLog()

	// one cookie jar for the whole process; both clients share it
	httpClient, err := api.SharedHTTPClient()
	if err != nil {
		log.Fatalf("http client: %v", err)
	}

	backend, err := api.New(cfg.API.BaseURL, api.WithHTTPClient(httpClient), api.WithLogger(logger))
	if err != nil {
		log.Fatalf("api client: %v", err)
	}
	store, err := api.New(cfg.Storefront.BaseURL, api.WithHTTPClient(httpClient), api.WithLogger(logger))
	if err != nil {
		log.Fatalf("storefront client: %v", err)
	}

	trustKey, err := entitlement.ParseTrustKey(loadTrustKeyPEM(cfg.Storefront))
	if err != nil {
		log.Fatalf("trust key: %v", err)
	}

	sess := session.New(backend, logger)
	ent := entitlement.New(
		storefront.New(store),
		entitlement.NewJWSVerifier(trustKey),
		entitlement.KnownOfferIDs(),
		logger,
	)

	services := tui.Services{
		Trades:    &service.TradesService{API: backend},
		Watchlist: &service.WatchlistService{API: backend},
	}

	p := tea.NewProgram(tui.New(ctx, cfg, sess, ent, services), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// openLogger writes structured logs to the configured file. The TUI owns
// the terminal, so stdout is never an option.
func openLogger(cfg config.LoggingConfig) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: parseLevel(cfg.Level)}))
	return logger, func() { _ = f.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadTrustKeyPEM(cfg config.StorefrontConfig) []byte {
	if cfg.TrustKeyFile == "" {
		return []byte(entitlement.DefaultTrustKeyPEM)
	}
	pemBytes, err := os.ReadFile(cfg.TrustKeyFile)
	if err != nil {
		log.Fatalf("trust key file: %v", err)
	}
	return pemBytes
}
