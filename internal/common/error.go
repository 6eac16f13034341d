// Package common defines shared sentinel errors used across the catalog
// sync engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Session / permission errors. Mutating operations fail with these
	// before any remote call is issued.
	ErrorNotAuthenticated = errors.New("not authenticated")
	ErrorReadOnlyView     = errors.New("read-only view")

	// Save pipeline errors.
	ErrorNoValidRows    = errors.New("no valid rows to save")
	ErrorAssetNotFound  = errors.New("asset not found")
	ErrorDuplicateImage = errors.New("duplicate image path in payload")
	ErrorCountMismatch  = errors.New("row count mismatch after save")

	// Auth errors (invalid or malformed token, bad credentials).
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid email/password")

	// Tenant identifier validation.
	ErrorInvalidOwnerID = errors.New("invalid owner id")
)
