// Package owners maintains the list of known tenants for the owner picker:
// ids with display labels, refreshed from the profile directory with a
// fallback to owners observed on the entries table. A failed refresh keeps
// the previous list so a transient outage never empties the picker.
package owners

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mbx/modelbox/internal/logging"
	"github.com/mbx/modelbox/internal/models"
	"github.com/mbx/modelbox/internal/profiles"
	"github.com/mbx/modelbox/internal/records"
	"github.com/mbx/modelbox/internal/session"
)

// refreshTimeout bounds every remote directory query.
const refreshTimeout = 7 * time.Second

// Directory caches the known owner list. Safe for concurrent use.
type Directory struct {
	mu       sync.Mutex
	profiles profiles.Repository
	records  records.Repository
	session  *session.Resolver
	logger   logging.Logger
	last     []models.OwnerOption
}

func NewDirectory(profiles profiles.Repository, records records.Repository, sess *session.Resolver, logger logging.Logger) *Directory {
	return &Directory{profiles: profiles, records: records, session: sess, logger: logger}
}

// Refresh reloads the owner list. The profile directory is authoritative;
// when it is empty the entries table's distinct owners fill in with bare
// ids as labels. On error or timeout the previous result is kept and
// returned.
func (d *Directory) Refresh(ctx context.Context) []models.OwnerOption {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	options, err := d.load(ctx)
	if err != nil {
		d.logger.Warn(ctx, "owner list refresh failed, keeping previous", "error", err)
		return d.Options()
	}

	options = d.orderWithCallerFirst(options)

	d.mu.Lock()
	d.last = options
	d.mu.Unlock()

	return options
}

// Options returns the last successfully loaded owner list.
func (d *Directory) Options() []models.OwnerOption {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.OwnerOption, len(d.last))
	copy(out, d.last)
	return out
}

// Label returns the display label for an owner id, falling back to the id
// itself when the directory has no entry for it.
func (d *Directory) Label(ownerID string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, opt := range d.last {
		if opt.ID == ownerID {
			return opt.Label
		}
	}
	return ownerID
}

func (d *Directory) load(ctx context.Context) ([]models.OwnerOption, error) {
	list, err := d.profiles.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]models.OwnerOption, 0, len(list))
	for _, p := range list {
		options = append(options, models.OwnerOption{ID: p.UserID, Label: p.Email})
	}
	if len(options) > 0 {
		return options, nil
	}

	ids, err := d.records.DistinctOwners(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		options = append(options, models.OwnerOption{ID: id, Label: id})
	}
	return options, nil
}

// orderWithCallerFirst sorts options by label and moves the authenticated
// caller to the front, inserting the caller when the directory missed it.
func (d *Directory) orderWithCallerFirst(options []models.OwnerOption) []models.OwnerOption {
	caller := d.session.Caller()

	sort.Slice(options, func(i, j int) bool {
		if options[i].Label != options[j].Label {
			return options[i].Label < options[j].Label
		}
		return options[i].ID < options[j].ID
	})

	if caller == "" {
		return options
	}

	out := make([]models.OwnerOption, 0, len(options)+1)
	var self *models.OwnerOption
	for i := range options {
		if options[i].ID == caller {
			self = &options[i]
			break
		}
	}
	if self != nil {
		out = append(out, *self)
	} else {
		out = append(out, models.OwnerOption{ID: caller, Label: caller})
	}
	for _, opt := range options {
		if opt.ID != caller {
			out = append(out, opt)
		}
	}
	return out
}
