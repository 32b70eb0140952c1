package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatchlistList(t *testing.T) {
	t.Parallel()

	svc := &WatchlistService{API: newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `{"items": [{"kind": "ticker", "value": "ACME"}, {"kind": "person", "value": "jane-roe"}]}`)
	})}

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []WatchlistItem{
		{Kind: WatchTicker, Value: "ACME"},
		{Kind: WatchPerson, Value: "jane-roe"},
	}, items)
}

func TestWatchlistAdd(t *testing.T) {
	t.Parallel()

	var body map[string]any
	svc := &WatchlistService{API: newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, `{"ok": true}`)
	})}

	require.NoError(t, svc.Add(context.Background(), WatchlistItem{Kind: WatchTicker, Value: "ACME"}))
	require.Equal(t, "ticker", body["kind"])
	require.Equal(t, "ACME", body["value"])
}

func TestWatchlistRemove(t *testing.T) {
	t.Parallel()

	svc := &WatchlistService{API: newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "person", r.URL.Query().Get("kind"))
		require.Equal(t, "jane-roe", r.URL.Query().Get("value"))
		io.WriteString(w, `{"ok": true}`)
	})}

	require.NoError(t, svc.Remove(context.Background(), WatchlistItem{Kind: WatchPerson, Value: "jane-roe"}))
}
