package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbx/modelbox/internal/common"
	"github.com/mbx/modelbox/internal/dbx"
	"github.com/mbx/modelbox/internal/logging"
	"github.com/mbx/modelbox/internal/models"
	"github.com/mbx/modelbox/internal/records"
	"github.com/mbx/modelbox/internal/session"
)

const (
	ownerA = "11111111-1111-1111-1111-111111111111"
	ownerB = "22222222-2222-2222-2222-222222222222"
)

type memPrefs struct {
	m map[string]string
}

func (p *memPrefs) Get(ctx context.Context, key string) (string, error) { return p.m[key], nil }
func (p *memPrefs) Set(ctx context.Context, key, value string) error {
	p.m[key] = value
	return nil
}
func (p *memPrefs) Delete(ctx context.Context, key string) error {
	delete(p.m, key)
	return nil
}

type fakeRecords struct {
	refs       []models.EntryRef
	count      int
	countErr   error
	deleted    []string
	upserted   []models.Entry
	deleteErr  error
	upsertErr  error
	refsErr    error
	countCalls int
}

func (f *fakeRecords) ListEntries(ctx context.Context, ownerID string) ([]models.Entry, error) {
	return nil, nil
}

func (f *fakeRecords) ListRefs(ctx context.Context, ownerID string) ([]models.EntryRef, error) {
	return f.refs, f.refsErr
}

func (f *fakeRecords) DeleteAll(ctx context.Context, ownerID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, ownerID)
	return nil
}

func (f *fakeRecords) Upsert(ctx context.Context, rows []models.Entry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, rows...)
	return nil
}

func (f *fakeRecords) Count(ctx context.Context, ownerID string) (int, error) {
	f.countCalls++
	return f.count, f.countErr
}

func (f *fakeRecords) DistinctOwners(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeRecords) SelectByCodes(ctx context.Context, codes []string, excludeOwner string) ([]models.Entry, error) {
	return nil, nil
}

type fakeBlobStore struct {
	uploads map[string][]byte
	listed  []string
	listErr error
	deleted [][]string
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[key] = body
	return nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, keys []string) error {
	f.deleted = append(f.deleted, keys)
	return nil
}

func (f *fakeBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	return f.listed, f.listErr
}

func (f *fakeBlobStore) ObjectURL(key string) string { return "http://test/" + key }

// scopingResolver mimics the real chain: scoped refs pass through, bare
// names become "{owner}/{name}", names in missing fail.
type scopingResolver struct {
	missing  map[string]bool
	resolved []string
}

func (r *scopingResolver) Resolve(ctx context.Context, imageRef string, owner string) (string, error) {
	if r.missing[imageRef] {
		return "", common.ErrorAssetNotFound
	}
	r.resolved = append(r.resolved, imageRef)
	for _, c := range imageRef {
		if c == '/' {
			return imageRef, nil
		}
	}
	return owner + "/" + imageRef, nil
}

type fixture struct {
	engine   *Engine
	records  *fakeRecords
	store    *fakeBlobStore
	resolver *scopingResolver
	session  *session.Resolver
	mock     sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sess := session.NewResolver(&memPrefs{m: map[string]string{}}, logger)

	recs := &fakeRecords{}
	store := &fakeBlobStore{}
	resolver := &scopingResolver{}

	engine := NewEngine(db, store, resolver, sess, logger)
	engine.records = func(h dbx.DBTX) records.Repository { return recs }

	return &fixture{engine: engine, records: recs, store: store, resolver: resolver, session: sess, mock: mock}
}

func entry(name, year, code, image string) models.Entry {
	return models.Entry{Name: name, Year: year, Code: code, Image: image}
}

func TestSave_NotAuthenticated(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Save(context.Background(), []models.Entry{entry("Beetle", "1967", "K02", "beetle.jpg")}, nil)
	require.ErrorIs(t, err, common.ErrorNotAuthenticated)
	assert.Empty(t, f.records.deleted)
	assert.Empty(t, f.resolver.resolved)
}

func TestSave_ReadOnlyView(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)
	require.NoError(t, f.session.SetEffectiveOwner(context.Background(), ownerB))

	_, err := f.engine.Save(context.Background(), []models.Entry{entry("Beetle", "1967", "K02", "beetle.jpg")}, nil)
	require.ErrorIs(t, err, common.ErrorReadOnlyView)
	assert.Empty(t, f.records.deleted)
	assert.Empty(t, f.resolver.resolved)
}

func TestSave_NoValidRows(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)

	_, err := f.engine.Save(context.Background(), []models.Entry{
		entry("  ", "1967", "K02", "beetle.jpg"),
		entry("Beetle", "", "K02", "beetle.jpg"),
	}, nil)
	require.ErrorIs(t, err, common.ErrorNoValidRows)
}

func TestSave_Success(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)
	f.records.refs = []models.EntryRef{
		{ID: 1, Image: ownerA + "/old.jpg"},
		{ID: 2, Image: ownerA + "/beetle.jpg"},
	}
	f.records.count = 2
	f.store.listed = []string{ownerA + "/beetle.jpg", ownerA + "/bus.jpg", ownerA + "/forgotten.jpg"}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	var stages []models.Stage
	res, err := f.engine.Save(context.Background(), []models.Entry{
		entry("Beetle", "1967", "K02", "beetle.jpg"),
		entry("Bus", "1962", "K05", "bus.jpg"),
		entry("", "", "", ""), // dropped by validation
	}, func(p models.Progress) { stages = append(stages, p.Stage) })
	require.NoError(t, err)

	assert.Equal(t, 2, res.SavedCount)
	assert.Equal(t, 2, res.FinalCount)

	require.Len(t, f.records.upserted, 2)
	assert.Equal(t, ownerA+"/beetle.jpg", f.records.upserted[0].Image)
	assert.Equal(t, ownerA, f.records.upserted[0].Owner)
	assert.Equal(t, []string{ownerA}, f.records.deleted)

	// Only the save's predecessors and sweep leftovers go, kept paths stay.
	require.Len(t, f.store.deleted, 1)
	assert.ElementsMatch(t, []string{ownerA + "/old.jpg", ownerA + "/forgotten.jpg"}, f.store.deleted[0])

	assert.Equal(t, []models.Stage{
		models.StagePrepareStart,
		models.StagePrepare,
		models.StagePrepare,
		models.StageCleanupScan,
		models.StageCleanup,
		models.StageUpsert,
		models.StageCleanupStorageScan,
		models.StageCleanupStorage,
		models.StageDone,
	}, stages)

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSave_ScopedPathsPassThrough(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)
	f.records.count = 1
	f.store.listed = []string{ownerA + "/beetle.jpg"}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.engine.Save(context.Background(), []models.Entry{
		entry("Beetle", "1967", "K02", ownerA+"/beetle.jpg"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FinalCount)
	assert.Empty(t, f.store.deleted)
}

func TestSave_AssetNotFoundAborts(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)
	f.resolver.missing = map[string]bool{"gone.jpg": true}

	_, err := f.engine.Save(context.Background(), []models.Entry{
		entry("Beetle", "1967", "K02", "beetle.jpg"),
		entry("Ghost", "1970", "K09", "gone.jpg"),
	}, nil)
	require.ErrorIs(t, err, common.ErrorAssetNotFound)
	assert.Empty(t, f.records.deleted)
	assert.Empty(t, f.records.upserted)
}

func TestSave_DuplicateImageRejectedBeforeMutation(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)

	_, err := f.engine.Save(context.Background(), []models.Entry{
		entry("Beetle", "1967", "K02", "beetle.jpg"),
		entry("Beetle reissue", "1997", "K02b", "beetle.jpg"),
	}, nil)
	require.ErrorIs(t, err, common.ErrorDuplicateImage)
	assert.Contains(t, err.Error(), ownerA+"/beetle.jpg")
	assert.Empty(t, f.records.deleted)
	assert.Empty(t, f.records.upserted)
}

func TestSave_UpsertErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)
	f.records.upsertErr = errors.New("boom")

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.engine.Save(context.Background(), []models.Entry{
		entry("Beetle", "1967", "K02", "beetle.jpg"),
	}, nil)
	require.ErrorContains(t, err, "boom")
	assert.Empty(t, f.store.deleted)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSave_CountMismatch(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)
	f.records.count = 5

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.engine.Save(context.Background(), []models.Entry{
		entry("Beetle", "1967", "K02", "beetle.jpg"),
	}, nil)
	require.ErrorIs(t, err, common.ErrorCountMismatch)
}

func TestSave_SecondSaveDeletesNothing(t *testing.T) {
	f := newFixture(t)
	f.session.SetSession(ownerA)
	f.records.count = 1
	f.records.refs = []models.EntryRef{{ID: 1, Image: ownerA + "/beetle.jpg"}}
	f.store.listed = []string{ownerA + "/beetle.jpg"}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.engine.Save(context.Background(), []models.Entry{
		entry("Beetle", "1967", "K02", ownerA+"/beetle.jpg"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FinalCount)
	assert.Empty(t, f.store.deleted)
}

func TestImageURL(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "http://test/"+ownerA+"/beetle.jpg", f.engine.ImageURL(ownerA+"/beetle.jpg"))
	assert.Empty(t, f.engine.ImageURL("beetle.jpg"))
	assert.Empty(t, f.engine.ImageURL(""))
}
