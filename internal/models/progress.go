package models

// Stage identifies a phase of the full-replace save. Callers map stages to
// user-facing busy text; no stage is optional but callers may ignore any.
type Stage string

const (
	StagePrepareStart       Stage = "prepare_start"
	StagePrepare            Stage = "prepare"
	StageCleanupScan        Stage = "cleanup_scan"
	StageCleanup            Stage = "cleanup"
	StageUpsert             Stage = "upsert"
	StageCleanupStorageScan Stage = "cleanup_storage_scan"
	StageCleanupStorage     Stage = "cleanup_storage"
	StageDone               Stage = "done"
)

// Progress is one save progress report.
type Progress struct {
	Stage   Stage
	Current int
	Total   int
	Image   string
}

// ProgressFunc receives progress reports during a save. It is called
// synchronously and must not block; a nil ProgressFunc disables reporting.
type ProgressFunc func(Progress)

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	SavedCount int // rows submitted after validation
	FinalCount int // rows counted remotely after the save
}
