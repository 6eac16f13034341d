package records

import (
	"context"
	"fmt"

	"github.com/mbx/modelbox/internal/dbx"
	"github.com/mbx/modelbox/internal/models"
)

// pageSize is the fixed window for paginated reads. The remote API caps
// rows per call, so listings loop until a short page comes back.
const pageSize = 1000

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListEntries(ctx context.Context, ownerID string) ([]models.Entry, error) {
	var result []models.Entry
	for offset := 0; ; offset += pageSize {
		page, err := r.selectEntryPage(ctx, ownerID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		result = append(result, page...)
		if len(page) < pageSize {
			return result, nil
		}
	}
}

func (r *PostgresRepository) selectEntryPage(ctx context.Context, ownerID string, limit, offset int) ([]models.Entry, error) {
	query := `
		SELECT id, name, year, code, image_file, COALESCE(source_link, ''), created_by, updated_at
		FROM models
		WHERE created_by = $1
		ORDER BY code, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Year, &item.Code, &item.Image,
			&item.Link, &item.Owner, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListRefs(ctx context.Context, ownerID string) ([]models.EntryRef, error) {
	var result []models.EntryRef
	for offset := 0; ; offset += pageSize {
		page, err := r.selectRefPage(ctx, ownerID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		result = append(result, page...)
		if len(page) < pageSize {
			return result, nil
		}
	}
}

func (r *PostgresRepository) selectRefPage(ctx context.Context, ownerID string, limit, offset int) ([]models.EntryRef, error) {
	query := `
		SELECT id, image_file
		FROM models
		WHERE created_by = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry refs: %w", err)
	}
	defer rows.Close()

	var result []models.EntryRef
	for rows.Next() {
		var item models.EntryRef
		if err := rows.Scan(&item.ID, &item.Image); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM models WHERE created_by = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

// Upsert writes rows one by one; a save is sequential by design so that a
// failure leaves a well-defined prefix, and the enclosing transaction makes
// the whole write atomic anyway.
func (r *PostgresRepository) Upsert(ctx context.Context, rows []models.Entry) error {
	query := `
		INSERT INTO models (name, year, code, image_file, source_link, created_by, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, now())
		ON CONFLICT (created_by, image_file)
		DO UPDATE SET
			name = EXCLUDED.name,
			year = EXCLUDED.year,
			code = EXCLUDED.code,
			source_link = EXCLUDED.source_link,
			updated_at = now()
	`
	for _, row := range rows {
		_, err := r.db.ExecContext(ctx, query,
			row.Name, row.Year, row.Code, row.Image, row.Link, row.Owner)
		if err != nil {
			return fmt.Errorf("failed to upsert entry %q: %w", row.Image, err)
		}
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM models WHERE created_by = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) DistinctOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT created_by FROM models ORDER BY created_by`)
	if err != nil {
		return nil, fmt.Errorf("failed to select owners: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		result = append(result, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SelectByCodes(ctx context.Context, codes []string, excludeOwner string) ([]models.Entry, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, name, year, code, image_file, COALESCE(source_link, ''), created_by, updated_at
		FROM models
		WHERE lower(code) = ANY($1) AND created_by <> $2
		ORDER BY created_by, code, id
	`
	rows, err := r.db.QueryContext(ctx, query, codes, excludeOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries by codes: %w", err)
	}
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Year, &item.Code, &item.Image,
			&item.Link, &item.Owner, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
