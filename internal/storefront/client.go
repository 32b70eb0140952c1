// Package storefront is the HTTP client for the purchase platform. It
// implements entitlement.Platform; the records it hands back stay untrusted
// until the reconciler's verifier has checked them.
package storefront

import (
	"context"
	"net/http"
	"strings"

	"github.com/mkell/tradewire/internal/api"
	"github.com/mkell/tradewire/internal/entitlement"
)

// Client talks to the storefront service through its own pipeline instance
// (distinct base URL, same typed request machinery and cookie store).
type Client struct {
	api *api.Client
}

// New wraps a pipeline pointed at the storefront base URL.
func New(pipeline *api.Client) *Client {
	return &Client{api: pipeline}
}

var _ entitlement.Platform = (*Client)(nil)

type productPayload struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"displayName"`
	DisplayPrice string         `json:"displayPrice"`
	Period       *periodPayload `json:"period"`
}

type periodPayload struct {
	Unit  string `json:"unit"`
	Count int    `json:"count"`
}

type productsReply struct {
	Products []productPayload `json:"products"`
}

type purchaseRequest struct {
	ProductID string `json:"productId"`
}

type purchaseReply struct {
	Outcome       string `json:"outcome"`
	Record        string `json:"record"`
	TransactionID string `json:"transactionId"`
}

type finalizeRequest struct {
	TransactionID string `json:"transactionId"`
}

type entitlementsReply struct {
	Records []string `json:"records"`
}

type okReply struct {
	OK bool `json:"ok"`
}

// Products looks up the catalog for the given fixed product ids.
func (c *Client) Products(ctx context.Context, ids []string) ([]entitlement.Offer, error) {
	reply, err := api.Do[productsReply](ctx, c.api, api.Request{
		Path:  "/v1/products",
		Query: map[string]string{"ids": strings.Join(ids, ",")},
	})
	if err != nil {
		return nil, err
	}
	offers := make([]entitlement.Offer, 0, len(reply.Products))
	for _, p := range reply.Products {
		offer := entitlement.Offer{
			ID:           p.ID,
			DisplayName:  p.DisplayName,
			DisplayPrice: p.DisplayPrice,
		}
		if p.Period != nil {
			offer.Period = &entitlement.Period{Unit: p.Period.Unit, Count: p.Period.Count}
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// Purchase submits a purchase intent and maps the platform's outcome string
// onto the closed outcome set. Anything unrecognized is OutcomeUnknown.
func (c *Client) Purchase(ctx context.Context, productID string) (entitlement.PurchaseResult, error) {
	reply, err := api.Do[purchaseReply](ctx, c.api, api.Request{
		Path:   "/v1/purchase",
		Method: http.MethodPost,
		Body:   purchaseRequest{ProductID: productID},
	})
	if err != nil {
		return entitlement.PurchaseResult{}, err
	}
	result := entitlement.PurchaseResult{
		Record:        entitlement.SignedRecord(reply.Record),
		TransactionID: reply.TransactionID,
	}
	switch reply.Outcome {
	case "success":
		result.Outcome = entitlement.OutcomeSuccess
	case "cancelled":
		result.Outcome = entitlement.OutcomeCancelled
	case "pending":
		result.Outcome = entitlement.OutcomePending
	default:
		result.Outcome = entitlement.OutcomeUnknown
	}
	return result, nil
}

// Finalize acknowledges a completed transaction with the platform.
func (c *Client) Finalize(ctx context.Context, transactionID string) error {
	_, err := api.Do[okReply](ctx, c.api, api.Request{
		Path:   "/v1/finalize",
		Method: http.MethodPost,
		Body:   finalizeRequest{TransactionID: transactionID},
	})
	return err
}

// Entitlements fetches the current signed-record snapshot.
func (c *Client) Entitlements(ctx context.Context) ([]entitlement.SignedRecord, error) {
	reply, err := api.Do[entitlementsReply](ctx, c.api, api.Request{Path: "/v1/entitlements"})
	if err != nil {
		return nil, err
	}
	records := make([]entitlement.SignedRecord, 0, len(reply.Records))
	for _, r := range reply.Records {
		records = append(records, entitlement.SignedRecord(r))
	}
	return records, nil
}

// Sync asks the platform to resynchronize purchase history for the current
// identity.
func (c *Client) Sync(ctx context.Context) error {
	_, err := api.Do[okReply](ctx, c.api, api.Request{Path: "/v1/sync", Method: http.MethodPost})
	return err
}
