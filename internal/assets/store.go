// Package assets manages binary image objects for catalog entries: an
// S3-backed object store and the resolver that migrates bare image names
// into owner-scoped storage paths.
package assets

import (
	"context"
	"regexp"
)

// Store is the blob storage contract. Keys are "{ownerId}/{filename}"
// scoped paths; listing is recursive per owner prefix.
type Store interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, keys []string) error
	List(ctx context.Context, prefix string) ([]string, error)
	ObjectURL(key string) string
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename replaces characters outside [a-zA-Z0-9._-] with '_'
// so that any local filename becomes a safe storage key segment.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
