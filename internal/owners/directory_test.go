package owners

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbx/modelbox/internal/logging"
	"github.com/mbx/modelbox/internal/models"
	"github.com/mbx/modelbox/internal/session"
)

const (
	ownerA = "11111111-1111-1111-1111-111111111111"
	ownerB = "22222222-2222-2222-2222-222222222222"
	ownerC = "33333333-3333-3333-3333-333333333333"
)

type fakeProfiles struct {
	list []models.Profile
	err  error
}

func (f *fakeProfiles) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return nil, nil
}
func (f *fakeProfiles) EmailsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	return nil, nil
}
func (f *fakeProfiles) ListAll(ctx context.Context) ([]models.Profile, error) {
	return f.list, f.err
}

type fakeRecords struct {
	owners []string
	err    error
}

func (f *fakeRecords) ListEntries(ctx context.Context, ownerID string) ([]models.Entry, error) {
	return nil, nil
}
func (f *fakeRecords) ListRefs(ctx context.Context, ownerID string) ([]models.EntryRef, error) {
	return nil, nil
}
func (f *fakeRecords) DeleteAll(ctx context.Context, ownerID string) error   { return nil }
func (f *fakeRecords) Upsert(ctx context.Context, rows []models.Entry) error { return nil }
func (f *fakeRecords) Count(ctx context.Context, ownerID string) (int, error) {
	return 0, nil
}
func (f *fakeRecords) DistinctOwners(ctx context.Context) ([]string, error) {
	return f.owners, f.err
}
func (f *fakeRecords) SelectByCodes(ctx context.Context, codes []string, excludeOwner string) ([]models.Entry, error) {
	return nil, nil
}

type memPrefs struct{ m map[string]string }

func (p *memPrefs) Get(ctx context.Context, key string) (string, error) { return p.m[key], nil }
func (p *memPrefs) Set(ctx context.Context, key, value string) error {
	p.m[key] = value
	return nil
}
func (p *memPrefs) Delete(ctx context.Context, key string) error {
	delete(p.m, key)
	return nil
}

func newDirectory(profs *fakeProfiles, recs *fakeRecords, caller string) *Directory {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sess := session.NewResolver(&memPrefs{m: map[string]string{}}, logger)
	if caller != "" {
		sess.SetSession(caller)
	}
	return NewDirectory(profs, recs, sess, logger)
}

func TestRefresh_CallerFirstThenByLabel(t *testing.T) {
	profs := &fakeProfiles{list: []models.Profile{
		{UserID: ownerC, Email: "zoe@example.com"},
		{UserID: ownerA, Email: "me@example.com"},
		{UserID: ownerB, Email: "ann@example.com"},
	}}
	d := newDirectory(profs, &fakeRecords{}, ownerA)

	got := d.Refresh(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, ownerA, got[0].ID)
	assert.Equal(t, "ann@example.com", got[1].Label)
	assert.Equal(t, "zoe@example.com", got[2].Label)
}

func TestRefresh_CallerMissingFromDirectory(t *testing.T) {
	profs := &fakeProfiles{list: []models.Profile{
		{UserID: ownerB, Email: "ann@example.com"},
	}}
	d := newDirectory(profs, &fakeRecords{}, ownerA)

	got := d.Refresh(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, models.OwnerOption{ID: ownerA, Label: ownerA}, got[0])
}

func TestRefresh_FallsBackToDistinctOwners(t *testing.T) {
	recs := &fakeRecords{owners: []string{ownerB, ownerA}}
	d := newDirectory(&fakeProfiles{}, recs, ownerA)

	got := d.Refresh(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, ownerA, got[0].ID)
	assert.Equal(t, models.OwnerOption{ID: ownerB, Label: ownerB}, got[1])
}

func TestRefresh_ErrorKeepsPreviousList(t *testing.T) {
	profs := &fakeProfiles{list: []models.Profile{
		{UserID: ownerA, Email: "me@example.com"},
		{UserID: ownerB, Email: "ann@example.com"},
	}}
	d := newDirectory(profs, &fakeRecords{}, ownerA)

	first := d.Refresh(context.Background())
	require.Len(t, first, 2)

	profs.err = errors.New("boom")
	second := d.Refresh(context.Background())
	assert.Equal(t, first, second)
	assert.Equal(t, first, d.Options())
}

func TestRefresh_AnonymousCaller(t *testing.T) {
	profs := &fakeProfiles{list: []models.Profile{
		{UserID: ownerB, Email: "ann@example.com"},
	}}
	d := newDirectory(profs, &fakeRecords{}, "")

	got := d.Refresh(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, ownerB, got[0].ID)
}

func TestLabel(t *testing.T) {
	profs := &fakeProfiles{list: []models.Profile{
		{UserID: ownerB, Email: "ann@example.com"},
	}}
	d := newDirectory(profs, &fakeRecords{}, "")
	d.Refresh(context.Background())

	assert.Equal(t, "ann@example.com", d.Label(ownerB))
	assert.Equal(t, ownerC, d.Label(ownerC))
}
