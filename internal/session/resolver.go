// Package session resolves the authenticated caller and the effective
// viewing owner. The effective owner may be another tenant, in which case
// the session is a read-only cross-owner view; this state gates every
// mutating operation in the engine.
//
// All state lives on the Resolver instance (no package globals) so the
// engine can be constructed and tested without shared state.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mbx/modelbox/internal/common"
	"github.com/mbx/modelbox/internal/logging"
	"github.com/mbx/modelbox/internal/prefs"
)

// Resolver tracks the authenticated caller and the persisted effective-owner
// selection. Safe for concurrent use.
type Resolver struct {
	mu       sync.Mutex
	caller   string // authenticated user id, "" when signed out
	store    prefs.Store
	logger   logging.Logger
	onChange func() // fired after the effective owner changes
}

func NewResolver(store prefs.Store, logger logging.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// OnChange registers a callback fired after SetEffectiveOwner updates the
// selection (and after sign-in/sign-out). Used to trigger a data refresh.
func (r *Resolver) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// SetSession records the authenticated caller. Passing "" signs out.
func (r *Resolver) SetSession(userID string) {
	r.mu.Lock()
	r.caller = userID
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Caller returns the authenticated user id, or "" when signed out.
func (r *Resolver) Caller() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caller
}

// EffectiveOwner returns the owner whose catalog is being viewed. The
// persisted selection is validated against the identifier syntax on every
// read; an invalid or absent value falls back to the caller's own id.
func (r *Resolver) EffectiveOwner(ctx context.Context) string {
	r.mu.Lock()
	caller := r.caller
	r.mu.Unlock()

	stored, err := r.store.Get(ctx, prefs.KeyEffectiveOwner)
	if err != nil {
		r.logger.Warn(ctx, "failed to read owner selection", "error", err)
		return caller
	}
	if stored == "" || !ValidOwnerID(stored) {
		return caller
	}
	return stored
}

// IsReadOnlyView reports whether mutating operations must be rejected:
// true when the effective owner differs from the caller, or when no caller
// is authenticated.
func (r *Resolver) IsReadOnlyView(ctx context.Context) bool {
	r.mu.Lock()
	caller := r.caller
	r.mu.Unlock()

	if caller == "" {
		return true
	}
	return r.EffectiveOwner(ctx) != caller
}

// SetEffectiveOwner persists a new owner selection and fires the change
// callback. Passing "" clears the selection, returning the view to the
// caller's own catalog.
func (r *Resolver) SetEffectiveOwner(ctx context.Context, ownerID string) error {
	if ownerID != "" && !ValidOwnerID(ownerID) {
		return fmt.Errorf("%w: %s", common.ErrorInvalidOwnerID, ownerID)
	}

	var err error
	if ownerID == "" {
		err = r.store.Delete(ctx, prefs.KeyEffectiveOwner)
	} else {
		err = r.store.Set(ctx, prefs.KeyEffectiveOwner, ownerID)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// ValidOwnerID reports whether s is a syntactically valid tenant identifier.
func ValidOwnerID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
