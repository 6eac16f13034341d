package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mbx/modelbox/internal/common"
	"github.com/mbx/modelbox/internal/dbx"
	"github.com/mbx/modelbox/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT user_id, email, password_hash FROM profiles WHERE email = $1`

	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&profile.UserID, &profile.Email, &profile.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

func (r *PostgresRepository) EmailsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT user_id, email FROM profiles WHERE user_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to select profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		result[id] = email
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Profile, error) {
	query := `SELECT user_id, email FROM profiles ORDER BY email`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var result []models.Profile
	for rows.Next() {
		var item models.Profile
		if err := rows.Scan(&item.UserID, &item.Email); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
