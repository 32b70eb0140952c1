package entitlement

import (
	"context"
	"log/slog"
	"sync"
)

// User-facing messages. Backend/platform detail never leaks through these.
const (
	msgLoadOffers = "Unable to load subscriptions."
	msgPending    = "Purchase pending approval."
	msgPurchase   = "Purchase failed."
	msgRestore    = "Restore failed."
)

// Snapshot is the read-only subscription state published to listeners.
type Snapshot struct {
	Offers       []Offer
	IsSubscribed bool
	IsLoading    bool
	ErrorMessage string
}

// Reconciler serializes all subscription-state transitions behind one mutex,
// independent of the session coordinator. IsSubscribed is always recomputed
// from the full entitlement snapshot, never patched incrementally, so a
// cancellation is reflected on the next reconcile without removal logic.
type Reconciler struct {
	platform Platform
	verifier Verifier
	known    map[string]bool
	order    []string
	log      *slog.Logger

	mu        sync.Mutex
	snap      Snapshot
	offersGen uint64
	reconGen  uint64
	listeners map[int]func(Snapshot)
	nextID    int
}

// New builds a reconciler over the platform boundary. knownIDs is the fixed
// offer-id configuration; records for any other product never count.
func New(platform Platform, verifier Verifier, knownIDs []string, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	known := make(map[string]bool, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = true
	}
	return &Reconciler{
		platform:  platform,
		verifier:  verifier,
		known:     known,
		order:     append([]string(nil), knownIDs...),
		log:       log,
		listeners: map[int]func(Snapshot){},
	}
}

// Snapshot returns the current published state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Subscribe registers fn for every committed transition and returns a cancel
// function. Listeners run outside the state lock.
func (r *Reconciler) Subscribe(fn func(Snapshot)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// LoadOffers fetches the catalog for the known offer ids. A failure keeps
// any previously loaded offers; a transient outage must not blank the
// paywall.
func (r *Reconciler) LoadOffers(ctx context.Context) {
	r.mu.Lock()
	r.offersGen++
	myGen := r.offersGen
	r.snap.IsLoading = true
	r.publishLocked()

	offers, err := r.platform.Products(ctx, KnownOfferIDs())

	r.mu.Lock()
	if r.offersGen != myGen {
		r.mu.Unlock()
		return
	}
	r.snap.IsLoading = false
	if err != nil {
		r.log.Debug("entitlement: catalog fetch failed", "err", err)
		r.snap.ErrorMessage = msgLoadOffers
		r.publishLocked()
		return
	}
	r.snap.Offers = sortByKnownOrder(offers, r.order)
	r.snap.ErrorMessage = ""
	r.publishLocked()
}

// Purchase submits a purchase intent and handles each platform outcome
// distinctly. Cancellation is silent; pending is informational; success
// verifies the signed record, finalizes the transaction, then re-runs
// reconciliation.
func (r *Reconciler) Purchase(ctx context.Context, offer Offer) {
	result, err := r.platform.Purchase(ctx, offer.ID)
	if err != nil {
		r.setError(msgPurchase)
		return
	}

	switch result.Outcome {
	case OutcomeSuccess:
		if _, err := r.verifier.Verify(result.Record); err != nil {
			// Trust boundary: a purchase we cannot verify is a failure, not
			// an entitlement.
			r.log.Warn("entitlement: purchase record unverified", "err", err)
			r.setError(msgPurchase)
			return
		}
		if err := r.platform.Finalize(ctx, result.TransactionID); err != nil {
			r.log.Warn("entitlement: finalize failed", "transaction", result.TransactionID, "err", err)
		}
		r.setError("")
		r.Reconcile(ctx)
	case OutcomeCancelled:
		// User backed out; not an error.
		r.setError("")
	case OutcomePending:
		r.setError(msgPending)
	case OutcomeUnknown:
		r.setError(msgPurchase)
	}
}

// Restore asks the platform to resynchronize purchase history, then
// reconciles the refreshed snapshot.
func (r *Reconciler) Restore(ctx context.Context) {
	if err := r.platform.Sync(ctx); err != nil {
		r.log.Debug("entitlement: sync failed", "err", err)
		r.setError(msgRestore)
		return
	}
	r.setError("")
	r.Reconcile(ctx)
}

// Reconcile recomputes IsSubscribed from the platform's full current
// entitlement snapshot. Records that fail verification are skipped without
// surfacing anything; an unknown product id never counts. A fetch failure
// leaves the previous projection untouched.
func (r *Reconciler) Reconcile(ctx context.Context) {
	r.mu.Lock()
	r.reconGen++
	myGen := r.reconGen
	r.mu.Unlock()

	records, err := r.platform.Entitlements(ctx)
	if err != nil {
		r.log.Debug("entitlement: snapshot fetch failed", "err", err)
		return
	}

	active := map[string]bool{}
	for _, raw := range records {
		rec, err := r.verifier.Verify(raw)
		if err != nil {
			r.log.Debug("entitlement: record skipped", "err", err)
			continue
		}
		if r.known[rec.ProductID] {
			active[rec.ProductID] = true
		}
	}

	r.mu.Lock()
	if r.reconGen != myGen {
		r.mu.Unlock()
		return
	}
	r.snap.IsSubscribed = len(active) > 0
	r.publishLocked()
}

// ActiveProductIDs re-runs verification over the current snapshot and
// returns the verified known ids in display order. Used by the settings view
// to show which tier is active.
func (r *Reconciler) ActiveProductIDs(ctx context.Context) []string {
	records, err := r.platform.Entitlements(ctx)
	if err != nil {
		return nil
	}
	active := map[string]bool{}
	for _, raw := range records {
		rec, err := r.verifier.Verify(raw)
		if err != nil {
			continue
		}
		if r.known[rec.ProductID] {
			active[rec.ProductID] = true
		}
	}
	out := make([]string, 0, len(active))
	for _, id := range r.order {
		if active[id] {
			out = append(out, id)
		}
	}
	return out
}

func (r *Reconciler) setError(msg string) {
	r.mu.Lock()
	r.snap.ErrorMessage = msg
	r.publishLocked()
}

func (r *Reconciler) publishLocked() {
	snap := r.snap
	fns := make([]func(Snapshot), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// sortByKnownOrder orders catalog results by the fixed id order; anything
// the platform returns beyond the known set is dropped.
func sortByKnownOrder(offers []Offer, order []string) []Offer {
	byID := make(map[string]Offer, len(offers))
	for _, o := range offers {
		byID[o.ID] = o
	}
	out := make([]Offer, 0, len(order))
	for _, id := range order {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out
}
