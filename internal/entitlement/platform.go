// Package entitlement owns the subscription state machine. It reconciles
// the purchase platform's signed entitlement records into a single
// IsSubscribed projection that gates the paid views.
package entitlement

import "context"

// Offer identifiers are fixed configuration; the catalog is looked up for
// these ids, never discovered from network data.
const (
	OfferMonthly = "tradewire.pro.monthly"
	OfferYearly  = "tradewire.pro.yearly"
)

// KnownOfferIDs lists the purchasable tiers in display order.
func KnownOfferIDs() []string {
	return []string{OfferMonthly, OfferYearly}
}

// Offer is a purchasable subscription tier.
type Offer struct {
	ID           string
	DisplayName  string
	DisplayPrice string
	Period       *Period
}

// Period is a billing interval, e.g. {Unit: "month", Count: 1}.
type Period struct {
	Unit  string
	Count int
}

// SignedRecord is an opaque signed entitlement token as issued by the
// platform. It is untrusted until a Verifier has checked it.
type SignedRecord string

// Record is the claim set extracted from a record that passed verification.
type Record struct {
	ProductID     string
	TransactionID string
}

// PurchaseOutcome is the closed set of results a purchase intent can have.
// Switches over it are exhaustive on purpose; a new platform outcome should
// fail loudly, not fall into a default arm.
type PurchaseOutcome int

const (
	OutcomeUnknown PurchaseOutcome = iota
	OutcomeSuccess
	OutcomeCancelled
	OutcomePending
)

// PurchaseResult carries the outcome plus, on success, the signed record and
// the transaction to finalize.
type PurchaseResult struct {
	Outcome       PurchaseOutcome
	Record        SignedRecord
	TransactionID string
}

// Platform is the purchase-platform boundary: catalog lookup by fixed ids, a
// purchase intent, the current entitlement snapshot, and a restore sync. It
// is a trusted oracle only after per-record verification.
type Platform interface {
	Products(ctx context.Context, ids []string) ([]Offer, error)
	Purchase(ctx context.Context, productID string) (PurchaseResult, error)
	Finalize(ctx context.Context, transactionID string) error
	Entitlements(ctx context.Context) ([]SignedRecord, error)
	Sync(ctx context.Context) error
}

// Verifier checks a signed record against the platform trust chain. A
// verification failure means the record is treated as absent, never as a
// user-visible error.
type Verifier interface {
	Verify(rec SignedRecord) (Record, error)
}
