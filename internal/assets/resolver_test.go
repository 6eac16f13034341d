package assets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbx/modelbox/internal/common"
	"github.com/mbx/modelbox/internal/logging"
)

type fakeStore struct {
	uploads map[string][]byte
	deleted []string
	listed  []string
	failUp  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, key string, body []byte, _ string) error {
	if f.failUp != nil {
		return f.failUp
	}
	f.uploads[key] = body
	return nil
}

func (f *fakeStore) Delete(_ context.Context, keys []string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ string) ([]string, error) {
	return f.listed, nil
}

func (f *fakeStore) ObjectURL(key string) string {
	return "http://test/" + key
}

type fakeCache struct {
	blobs map[string][]byte
}

func (f *fakeCache) GetLocalBlobByName(name string) ([]byte, bool) {
	b, ok := f.blobs[name]
	return b, ok
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"beetle.jpg", "beetle.jpg"},
		{"my car (front).jpg", "my_car__front_.jpg"},
		{"höhe#1.png", "h_he_1.png"},
		{"a-b_c.d", "a-b_c.d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in))
	}
}

func TestResolver_ScopedPathPassthrough(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, nil, t.TempDir(), testLogger())

	got, err := r.Resolve(context.Background(), "u1/beetle.jpg", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1/beetle.jpg", got)
	assert.Empty(t, store.uploads)
}

func TestResolver_LocalCacheFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beetle.jpg"), []byte("bundled"), 0o600))

	store := newFakeStore()
	cache := &fakeCache{blobs: map[string][]byte{"beetle.jpg": []byte("imported")}}
	r := NewResolver(store, cache, dir, testLogger())

	got, err := r.Resolve(context.Background(), "beetle.jpg", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1/beetle.jpg", got)
	assert.Equal(t, []byte("imported"), store.uploads["u1/beetle.jpg"])
}

func TestResolver_BundledFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beetle.jpg"), []byte("bundled"), 0o600))

	store := newFakeStore()
	cache := &fakeCache{blobs: map[string][]byte{}}
	r := NewResolver(store, cache, dir, testLogger())

	got, err := r.Resolve(context.Background(), "beetle.jpg", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1/beetle.jpg", got)
	assert.Equal(t, []byte("bundled"), store.uploads["u1/beetle.jpg"])
}

func TestResolver_NotFound(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, nil, t.TempDir(), testLogger())

	_, err := r.Resolve(context.Background(), "missing.jpg", "u1")
	require.ErrorIs(t, err, common.ErrorAssetNotFound)
	assert.Contains(t, err.Error(), "missing.jpg")
	assert.Empty(t, store.uploads)
}

func TestResolver_SanitizesKey(t *testing.T) {
	store := newFakeStore()
	cache := &fakeCache{blobs: map[string][]byte{"my car.jpg": []byte("x")}}
	r := NewResolver(store, cache, t.TempDir(), testLogger())

	got, err := r.Resolve(context.Background(), "my car.jpg", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1/my_car.jpg", got)
}

func TestResolver_UploadErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.failUp = errors.New("boom")
	cache := &fakeCache{blobs: map[string][]byte{"beetle.jpg": []byte("x")}}
	r := NewResolver(store, cache, t.TempDir(), testLogger())

	_, err := r.Resolve(context.Background(), "beetle.jpg", "u1")
	require.ErrorContains(t, err, "boom")
}
