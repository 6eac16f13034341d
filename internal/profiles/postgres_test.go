package profiles

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbx/modelbox/internal/common"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"user_id", "email", "password_hash"}).
		AddRow("u1", "u1@example.com", "$2a$hash")
	mock.ExpectQuery(`SELECT user_id, email, password_hash FROM profiles`).
		WithArgs("u1@example.com").
		WillReturnRows(rows)

	p, err := repo.GetByEmail(context.Background(), "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "$2a$hash", p.PasswordHash)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT user_id, email, password_hash FROM profiles`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "password_hash"}))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestEmailsByIDs_EmptyInput(t *testing.T) {
	repo, mock := newMockRepo(t)

	got, err := repo.EmailsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"user_id", "email"}).
		AddRow("u1", "u1@example.com").
		AddRow("u2", "u2@example.com")
	mock.ExpectQuery(`SELECT user_id, email FROM profiles`).WillReturnRows(rows)

	got, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u2@example.com", got[1].Email)
}
