// Package profiles provides access to the remote profile directory mapping
// tenant ids to display labels (emails) and credential hashes.
package profiles

import (
	"context"

	"github.com/mbx/modelbox/internal/models"
)

type Repository interface {
	// GetByEmail returns the profile for a sign-in email, or
	// common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)

	// EmailsByIDs resolves display labels for the given tenant ids.
	// Unknown ids are simply absent from the result map. Callers chunk
	// the id list to respect remote API limits.
	EmailsByIDs(ctx context.Context, ids []string) (map[string]string, error)

	// ListAll returns every profile in the directory.
	ListAll(ctx context.Context) ([]models.Profile, error)
}
