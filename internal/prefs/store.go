// Package prefs implements the local key-value preference cache used to
// persist the effective-owner selection (and other small settings) across
// sessions. It is backed by a SQLite file.
package prefs

import "context"

// Preference keys.
const (
	KeyEffectiveOwner = "cloud_owner"
)

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
