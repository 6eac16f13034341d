// Package records wraps the remote record store operations for catalog
// entries: paginated listing, full deletion, conflict-keyed upsert, and
// counting, all scoped to a single owner.
package records

import (
	"context"

	"github.com/mbx/modelbox/internal/models"
)

// Repository is the record store client contract. All operations surface
// network/API errors verbatim to the caller; retries are a caller policy,
// not built in here.
type Repository interface {
	// ListEntries returns all of the owner's entries ordered by code,
	// reading page by page until a short page is returned.
	ListEntries(ctx context.Context, ownerID string) ([]models.Entry, error)

	// ListRefs returns the (id, image path) projection of the owner's
	// current rows, paged the same way as ListEntries.
	ListRefs(ctx context.Context, ownerID string) ([]models.EntryRef, error)

	// DeleteAll removes every row belonging to the owner.
	DeleteAll(ctx context.Context, ownerID string) error

	// Upsert writes rows keyed by the (owner, image path) conflict target.
	Upsert(ctx context.Context, rows []models.Entry) error

	// Count returns the owner's current row count.
	Count(ctx context.Context, ownerID string) (int, error)

	// DistinctOwners lists every owner id observed on the entries table.
	DistinctOwners(ctx context.Context) ([]string, error)

	// SelectByCodes returns rows of all owners except excludeOwner whose
	// normalized code is in codes (already lowercased by the caller).
	SelectByCodes(ctx context.Context, codes []string, excludeOwner string) ([]models.Entry, error)
}
