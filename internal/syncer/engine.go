// Package syncer implements the full-replace save that reconciles the
// remote catalog with a submitted entry list: validate, resolve image
// paths into owner-scoped storage, replace the owner's rows in one
// transaction, sweep orphaned blobs, and verify the final row count.
package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mbx/modelbox/internal/assets"
	"github.com/mbx/modelbox/internal/common"
	"github.com/mbx/modelbox/internal/dbx"
	"github.com/mbx/modelbox/internal/logging"
	"github.com/mbx/modelbox/internal/models"
	"github.com/mbx/modelbox/internal/records"
	"github.com/mbx/modelbox/internal/session"
)

// Engine owns the reconciliation algorithm. Record repositories are built
// per handle so the delete and upsert of a save share one transaction.
type Engine struct {
	db       *sql.DB
	records  func(dbx.DBTX) records.Repository
	store    assets.Store
	resolver assets.PathResolver
	session  *session.Resolver
	logger   logging.Logger
}

func NewEngine(db *sql.DB, store assets.Store, resolver assets.PathResolver, sess *session.Resolver, logger logging.Logger) *Engine {
	return &Engine{
		db:       db,
		records:  func(h dbx.DBTX) records.Repository { return records.NewPostgresRepository(h) },
		store:    store,
		resolver: resolver,
		session:  sess,
		logger:   logger,
	}
}

// List returns the effective owner's entries.
func (e *Engine) List(ctx context.Context) ([]models.Entry, error) {
	owner := e.session.EffectiveOwner(ctx)
	if owner == "" {
		return nil, common.ErrorNotAuthenticated
	}
	return e.records(e.db).ListEntries(ctx, owner)
}

// ListOwner returns an arbitrary owner's entries, used for catalog
// comparison regardless of the current view.
func (e *Engine) ListOwner(ctx context.Context, ownerID string) ([]models.Entry, error) {
	return e.records(e.db).ListEntries(ctx, ownerID)
}

// ImageURL returns the public URL for a stored image path. Unscoped legacy
// names have no stored object and yield an empty URL.
func (e *Engine) ImageURL(path string) string {
	if path == "" || !strings.Contains(path, "/") {
		return ""
	}
	return e.store.ObjectURL(path)
}

// Save makes the remote state of the caller's catalog exactly match the
// submitted list. Entries missing any of name, year, code or image are
// dropped after trimming; everything else is all-or-nothing. onProgress
// may be nil.
func (e *Engine) Save(ctx context.Context, entries []models.Entry, onProgress models.ProgressFunc) (*models.SaveResult, error) {
	owner := e.session.Caller()
	if owner == "" {
		return nil, common.ErrorNotAuthenticated
	}
	if e.session.IsReadOnlyView(ctx) {
		return nil, common.ErrorReadOnlyView
	}

	report := func(p models.Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	report(models.Progress{Stage: models.StagePrepareStart, Total: len(entries)})

	prepared := make([]models.Entry, 0, len(entries))
	for _, entry := range entries {
		entry = entry.Trimmed()
		if entry.Valid() {
			prepared = append(prepared, entry)
		}
	}
	if len(prepared) == 0 {
		return nil, common.ErrorNoValidRows
	}

	// Resolution is strictly sequential: a failure aborts the save before
	// any remote rows change, leaving at worst some freshly uploaded blobs
	// that the next successful save's sweep removes.
	seen := make(map[string]struct{}, len(prepared))
	for i := range prepared {
		report(models.Progress{Stage: models.StagePrepare, Current: i + 1, Total: len(prepared), Image: prepared[i].Image})

		path, err := e.resolver.Resolve(ctx, prepared[i].Image, owner)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[path]; dup {
			return nil, fmt.Errorf("%w: %s", common.ErrorDuplicateImage, path)
		}
		seen[path] = struct{}{}

		prepared[i].Image = path
		prepared[i].Owner = owner
	}

	report(models.Progress{Stage: models.StageCleanupScan})

	stale, err := e.records(e.db).ListRefs(ctx, owner)
	if err != nil {
		return nil, err
	}

	// Delete and upsert share one transaction so readers never observe the
	// window between the owner's rows disappearing and reappearing.
	err = dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := e.records(tx)

		report(models.Progress{Stage: models.StageCleanup, Total: len(stale)})
		if err := repo.DeleteAll(ctx, owner); err != nil {
			return err
		}

		report(models.Progress{Stage: models.StageUpsert, Total: len(prepared)})
		return repo.Upsert(ctx, prepared)
	})
	if err != nil {
		return nil, err
	}

	if err := e.cleanupStorage(ctx, owner, seen, stale, report); err != nil {
		return nil, err
	}

	finalCount, err := e.records(e.db).Count(ctx, owner)
	if err != nil {
		return nil, err
	}
	if finalCount != len(prepared) {
		return nil, fmt.Errorf("%w: saved %d rows but counted %d", common.ErrorCountMismatch, len(prepared), finalCount)
	}

	report(models.Progress{Stage: models.StageDone, Current: finalCount, Total: finalCount})
	e.logger.Info(ctx, "save finished", "owner", owner, "rows", finalCount)

	return &models.SaveResult{SavedCount: len(prepared), FinalCount: finalCount}, nil
}

// cleanupStorage deletes every blob under the owner's prefix that the
// saved set no longer references: first the paths captured from the
// pre-save rows, then an authoritative sweep of the whole folder that
// also catches orphans left by earlier partial failures.
func (e *Engine) cleanupStorage(ctx context.Context, owner string, keep map[string]struct{}, stale []models.EntryRef, report models.ProgressFunc) error {
	orphans := make([]string, 0)
	orphanSet := make(map[string]struct{})

	add := func(path string) {
		if _, kept := keep[path]; kept {
			return
		}
		if _, dup := orphanSet[path]; dup {
			return
		}
		orphanSet[path] = struct{}{}
		orphans = append(orphans, path)
	}

	for _, ref := range stale {
		if strings.Contains(ref.Image, "/") {
			add(ref.Image)
		}
	}

	report(models.Progress{Stage: models.StageCleanupStorageScan})

	listed, err := e.store.List(ctx, owner+"/")
	if err != nil {
		return err
	}
	for _, key := range listed {
		add(key)
	}

	if len(orphans) == 0 {
		return nil
	}

	report(models.Progress{Stage: models.StageCleanupStorage, Total: len(orphans)})
	return e.store.Delete(ctx, orphans)
}
