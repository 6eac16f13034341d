// Package models defines the domain types shared by the catalog sync engine:
// catalog entries, owner profiles, and save progress reporting.
package models

import (
	"strings"
	"time"
)

// Entry is one catalog record. Local (unsaved) entries lack ID and Owner;
// both are assigned by the record store on save.
type Entry struct {
	ID        int64
	Name      string
	Year      string // free text, single year or a range ("1965-1970")
	Code      string // model identifier, not unique
	Image     string // flat filename or "{owner}/{name}" scoped path
	Link      string // optional source URL
	Owner     string // tenant id (created_by)
	UpdatedAt time.Time
}

// Trimmed returns a copy with all user-editable string fields trimmed.
func (e Entry) Trimmed() Entry {
	e.Name = strings.TrimSpace(e.Name)
	e.Year = strings.TrimSpace(e.Year)
	e.Code = strings.TrimSpace(e.Code)
	e.Image = strings.TrimSpace(e.Image)
	e.Link = strings.TrimSpace(e.Link)
	return e
}

// Valid reports whether the entry has all four required fields.
// Link is optional.
func (e Entry) Valid() bool {
	return e.Name != "" && e.Year != "" && e.Code != "" && e.Image != ""
}

// EntryRef is the (id, image path) projection used for the pre-save
// snapshot of existing remote rows.
type EntryRef struct {
	ID    int64
	Image string
}
