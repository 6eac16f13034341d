package models

// Profile is a row in the remote profile directory.
type Profile struct {
	UserID       string
	Email        string
	PasswordHash string
}

// OwnerOption is a directory item offered to the UI for viewing/comparison.
type OwnerOption struct {
	ID    string
	Label string // profile email, or the id itself when unknown
}
