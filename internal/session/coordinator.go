// Package session owns the authenticated-session state machine. Views read
// published snapshots; only the coordinator mutates them.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mkell/tradewire/internal/api"
)

// State is the authentication projection. Transitions are atomic from the
// consumer's viewpoint; Loading is the only mid-flight state ever visible.
type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is the read-only view of the session published to listeners.
type Snapshot struct {
	State        State
	User         string
	AuthDisabled bool
	LastError    string
}

// Authenticated reports the boolean gate the views care about.
func (s Snapshot) Authenticated() bool { return s.State == StateAuthenticated }

// unreachableMessage is the fail-closed error recorded whenever the probe
// cannot complete; any ambiguity about reachability downgrades the session.
const unreachableMessage = "Unable to reach the TradeWire API."

// Coordinator serializes all session transitions behind one mutex. A
// monotonic generation counter discards responses that arrive after a newer
// operation has started, so overlapping refreshes can never commit a mixed
// snapshot.
type Coordinator struct {
	client *api.Client
	log    *slog.Logger

	mu        sync.Mutex
	snap      Snapshot
	gen       uint64
	listeners map[int]func(Snapshot)
	nextID    int
}

// New builds a coordinator over the shared pipeline.
func New(client *api.Client, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		client:    client,
		log:       log,
		snap:      Snapshot{State: StateUnknown},
		listeners: map[int]func(Snapshot){},
	}
}

// Snapshot returns the current published state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn for every committed transition and returns a cancel
// function. Listeners run outside the state lock.
func (c *Coordinator) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

type meReply struct {
	AuthDisabled bool    `json:"authDisabled"`
	User         *string `json:"user"`
}

type loginRequest struct {
	IdentityToken string `json:"identityToken"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
}

type loginReply struct {
	OK           bool    `json:"ok"`
	User         *string `json:"user"`
	AuthDisabled *bool   `json:"authDisabled"`
}

type logoutReply struct {
	OK bool `json:"ok"`
}

// Refresh probes GET /api/me and recomputes the projection. Authenticated
// iff the backend asserts authDisabled or reports a user; every failure is
// fail-closed to Unauthenticated and retryable by calling Refresh again.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	myGen := c.gen
	c.snap.State = StateLoading
	c.publishLocked()

	reply, err := api.Do[meReply](ctx, c.client, api.Request{Path: "/api/me"})

	c.mu.Lock()
	if c.gen != myGen {
		// A newer operation started while this probe was in flight.
		c.mu.Unlock()
		c.log.Debug("session: stale refresh discarded")
		return
	}
	if err != nil {
		c.snap = Snapshot{State: StateUnauthenticated, LastError: unreachableMessage}
		c.publishLocked()
		return
	}
	snap := Snapshot{AuthDisabled: reply.AuthDisabled}
	if reply.User != nil {
		snap.User = *reply.User
	}
	if reply.AuthDisabled || reply.User != nil {
		snap.State = StateAuthenticated
	} else {
		snap.State = StateUnauthenticated
	}
	c.snap = snap
	c.publishLocked()
}

// LoginWithIdentity posts the identity assertion. On success the session
// becomes Authenticated; on failure only LastError changes, so a failed
// re-login never downgrades an existing session.
func (c *Coordinator) LoginWithIdentity(ctx context.Context, identityToken, email, fullName string) bool {
	reply, err := api.Do[loginReply](ctx, c.client, api.Request{
		Path:   "/api/auth/apple",
		Method: http.MethodPost,
		Body:   loginRequest{IdentityToken: identityToken, Email: email, FullName: fullName},
	})

	c.mu.Lock()
	if err != nil {
		c.snap.LastError = api.AsError(err).Message
		c.publishLocked()
		return false
	}
	c.gen++ // invalidate in-flight refreshes
	snap := Snapshot{State: StateAuthenticated}
	if reply.User != nil {
		snap.User = *reply.User
	} else {
		snap.User = email
	}
	if reply.AuthDisabled != nil {
		snap.AuthDisabled = *reply.AuthDisabled
	}
	c.snap = snap
	c.publishLocked()
	return true
}

// Logout ends the session. The backend call is best-effort: the credential
// store may already be invalid, so failures are swallowed and local state is
// cleared regardless.
func (c *Coordinator) Logout(ctx context.Context) {
	if _, err := api.Do[logoutReply](ctx, c.client, api.Request{Path: "/api/logout", Method: http.MethodPost}); err != nil {
		c.log.Debug("session: logout call failed", "err", err)
	}

	c.mu.Lock()
	c.gen++
	c.snap = Snapshot{State: StateUnauthenticated}
	c.publishLocked()
}

// publishLocked snapshots the listener set and releases the lock before
// invoking callbacks.
func (c *Coordinator) publishLocked() {
	snap := c.snap
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
