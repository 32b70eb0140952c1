package service

import (
	"context"
	"net/http"

	"github.com/mkell/tradewire/internal/api"
)

// Watchlist item kinds.
const (
	WatchTicker = "ticker"
	WatchPerson = "person"
)

// WatchlistItem is one watched ticker or person.
type WatchlistItem struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type watchlistReply struct {
	Items []WatchlistItem `json:"items"`
}

type okReply struct {
	OK bool `json:"ok"`
}

// WatchlistService manages the user's watchlist; all calls require an
// authenticated session.
type WatchlistService struct {
	API *api.Client
}

// List returns the current watchlist.
func (s *WatchlistService) List(ctx context.Context) ([]WatchlistItem, error) {
	reply, err := api.Do[watchlistReply](ctx, s.API, api.Request{Path: "/api/watchlist"})
	if err != nil {
		return nil, err
	}
	return reply.Items, nil
}

// Add registers a new item.
func (s *WatchlistService) Add(ctx context.Context, item WatchlistItem) error {
	_, err := api.Do[okReply](ctx, s.API, api.Request{
		Path:   "/api/watchlist",
		Method: http.MethodPost,
		Body:   item,
	})
	return err
}

// Remove deletes an item.
func (s *WatchlistService) Remove(ctx context.Context, item WatchlistItem) error {
	_, err := api.Do[okReply](ctx, s.API, api.Request{
		Path:   "/api/watchlist",
		Method: http.MethodDelete,
		Query:  map[string]string{"kind": item.Kind, "value": item.Value},
	})
	return err
}
