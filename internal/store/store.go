package store

import (
	"context"

	"github.com/crview/crview/internal/models"
)

// ViewState is the controller's persisted presentation snapshot. It lets a
// short-lived CLI invocation pick up where the previous one left off, the way
// a long-running app keeps its screen state across user actions.
type ViewState struct {
	View        string
	Historical  bool
	HistoryOpen bool
	LastError   string
	Result      *models.ReviewResult
}

// Store defines the persistence interface for crview client state.
type Store interface {
	// Session identity. The persisted state is two scalar fields; the epoch
	// counts session generations so late request completions can be matched
	// against the session they were submitted under.
	GetSession(ctx context.Context) (models.Session, error)
	SaveSession(ctx context.Context, sess models.Session) error
	ClearSession(ctx context.Context) error
	Epoch(ctx context.Context) (int64, error)
	BumpEpoch(ctx context.Context) (int64, error)

	// Staged multi-file selection, in staging order.
	AppendStaged(ctx context.Context, files []*models.StagedFile) error
	ListStaged(ctx context.Context) ([]*models.StagedFile, error)
	DeleteStaged(ctx context.Context, id string) error
	ClearStaged(ctx context.Context) error

	// Controller view snapshot.
	GetViewState(ctx context.Context) (ViewState, error)
	SaveViewState(ctx context.Context, vs ViewState) error

	// Fetched history, replaced wholesale on every fetch, server order kept.
	ReplaceHistory(ctx context.Context, records []models.HistoryRecord) error
	ListHistory(ctx context.Context) ([]models.HistoryRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
