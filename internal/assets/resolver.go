package assets

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbx/modelbox/internal/common"
	"github.com/mbx/modelbox/internal/logging"
)

// LocalBlobCache supplies image bytes imported on this machine but not
// yet uploaded. Optional collaborator; may be nil.
type LocalBlobCache interface {
	GetLocalBlobByName(name string) ([]byte, bool)
}

// PathResolver turns an entry's image reference into an owner-scoped
// storage key, uploading the blob when needed.
type PathResolver interface {
	Resolve(ctx context.Context, imageRef string, owner string) (string, error)
}

// Strategy is one named source in the resolution chain. Fetch returns
// the blob bytes and whether the source had the name at all; an error
// means the source failed, not that the name was absent.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context, name string) ([]byte, bool, error)
}

// Resolver migrates bare image names into owner-scoped storage paths by
// trying an ordered list of sources and uploading from the first hit.
type Resolver struct {
	store      Store
	strategies []Strategy
	logger     logging.Logger
}

// NewResolver builds the resolution chain: the local import cache first
// when available, then the bundled asset directory.
func NewResolver(store Store, cache LocalBlobCache, assetDir string, logger logging.Logger) *Resolver {
	var strategies []Strategy

	if cache != nil {
		strategies = append(strategies, Strategy{
			Name: "local-import",
			Fetch: func(_ context.Context, name string) ([]byte, bool, error) {
				body, ok := cache.GetLocalBlobByName(name)
				return body, ok, nil
			},
		})
	}

	strategies = append(strategies, Strategy{
		Name: "bundled",
		Fetch: func(_ context.Context, name string) ([]byte, bool, error) {
			body, err := os.ReadFile(filepath.Join(assetDir, name))
			if err != nil {
				if os.IsNotExist(err) {
					return nil, false, nil
				}
				return nil, false, err
			}
			return body, true, nil
		},
	})

	return &Resolver{store: store, strategies: strategies, logger: logger}
}

// Resolve returns imageRef unchanged when it already contains a path
// separator. Otherwise it walks the strategy chain, uploads the first
// blob found to "{owner}/{sanitized name}" and returns that key. If no
// source has the name it fails with ErrorAssetNotFound; resolution
// failures never silently fall back to an unscoped path.
func (r *Resolver) Resolve(ctx context.Context, imageRef string, owner string) (string, error) {
	if strings.Contains(imageRef, "/") {
		return imageRef, nil
	}

	key := owner + "/" + SanitizeFilename(imageRef)

	for _, s := range r.strategies {
		body, ok, err := s.Fetch(ctx, imageRef)
		if err != nil {
			r.logger.Warn(ctx, "asset source failed", "source", s.Name, "image", imageRef, "error", err)
			continue
		}
		if !ok {
			continue
		}

		if err := r.store.Upload(ctx, key, body, contentTypeFor(imageRef)); err != nil {
			return "", err
		}
		r.logger.Info(ctx, "asset uploaded", "source", s.Name, "key", key)
		return key, nil
	}

	return "", fmt.Errorf("%w: %s", common.ErrorAssetNotFound, imageRef)
}

func contentTypeFor(name string) string {
	return mime.TypeByExtension(filepath.Ext(name))
}
