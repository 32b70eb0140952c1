// Package service exposes the market-data operations the views render:
// trade listings, watchlist management and ticker suggestions. Everything
// rides the typed pipeline and therefore the shared session cookie.
package service

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mkell/tradewire/internal/api"
)

// Trade mirrors one backend trade row. Optional columns stay pointers so a
// missing value renders as blank rather than zero.
type Trade struct {
	ExternalID      string  `json:"externalId"`
	Ticker          *string `json:"ticker"`
	CompanyName     *string `json:"companyName"`
	PersonName      *string `json:"personName"`
	PersonSlug      *string `json:"personSlug"`
	TransactionType *string `json:"transactionType"`
	Form            *string `json:"form"`
	TransactionDate *string `json:"transactionDate"`
	FiledAt         *string `json:"filedAt"`
	AmountUsdLow    *int64  `json:"amountUsdLow"`
	AmountUsdHigh   *int64  `json:"amountUsdHigh"`
	Shares          *int64  `json:"shares"`
	PriceUsd        *string `json:"priceUsd"`
	URL             *string `json:"url"`
}

// TradeFilters narrows a listing. Zero values are omitted from the wire.
type TradeFilters struct {
	Form   string
	Ticker string
	Person string
	Type   string
	From   string // ISO date
	To     string // ISO date
	Limit  int
	Offset int
}

func (f TradeFilters) query() map[string]string {
	q := map[string]string{
		"form":   f.Form,
		"ticker": f.Ticker,
		"person": f.Person,
		"type":   f.Type,
		"from":   f.From,
		"to":     f.To,
	}
	if f.Limit > 0 {
		q["limit"] = strconv.Itoa(f.Limit)
	}
	if f.Offset > 0 {
		q["offset"] = strconv.Itoa(f.Offset)
	}
	return q
}

// TradePage is one page of results.
type TradePage struct {
	Items  []Trade `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type healthReply struct {
	OK bool `json:"ok"`
}

// TradesService lists and exports trades.
type TradesService struct {
	API *api.Client
}

// List fetches one page of trades matching the filters.
func (s *TradesService) List(ctx context.Context, f TradeFilters) (TradePage, error) {
	return api.Do[TradePage](ctx, s.API, api.Request{
		Path:  "/api/trades",
		Query: f.query(),
	})
}

// ExportCSV fetches the raw CSV export for the same filters.
func (s *TradesService) ExportCSV(ctx context.Context, f TradeFilters) ([]byte, error) {
	return s.API.Raw(ctx, api.Request{
		Path:  "/api/trades.csv",
		Query: f.query(),
	})
}

// Health probes the backend; useful as a cheap reachability check before
// the first session refresh.
func (s *TradesService) Health(ctx context.Context) error {
	_, err := api.Do[healthReply](ctx, s.API, api.Request{Path: "/api/health", Method: http.MethodGet})
	return err
}
