package models

import "time"

// UploadMode selects which review endpoint a submission targets.
type UploadMode string

const (
	// UploadModeSingle submits one source file immediately on selection.
	UploadModeSingle UploadMode = "single"
	// UploadModeMultiple accumulates a staged selection and submits on an
	// explicit action.
	UploadModeMultiple UploadMode = "multiple"
	// UploadModeArchive submits one zip archive immediately on selection.
	UploadModeArchive UploadMode = "archive"
)

// StagedFile is one entry in the multiple-mode staged selection.
type StagedFile struct {
	ID       string    `json:"id"` // ULID, assigned by the store
	Path     string    `json:"path"`
	Filename string    `json:"filename"`
	StagedAt time.Time `json:"staged_at"`
}

// HistoryRecord is one past review as returned by the history endpoint.
// Records are read-only; the list is replaced wholesale on every fetch and
// kept in the order the server returned it.
type HistoryRecord struct {
	UploadType string       `json:"upload_type"`
	Timestamp  time.Time    `json:"timestamp"`
	Result     ReviewResult `json:"result"`
}
