// Package history fetches and browses a user's past review records.
package history

import (
	"context"
	"sync"

	"github.com/crview/crview/internal/client"
	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/store"
)

// Browser holds the fetched record list. Records are read-only and the list
// is replaced wholesale on every fetch; the server's most-recent-first order
// is kept as-is.
type Browser struct {
	store store.Store
	svc   client.Service

	mu       sync.Mutex
	fetching bool
}

// NewBrowser creates a history browser.
func NewBrowser(s store.Store, svc client.Service) *Browser {
	return &Browser{store: s, svc: svc}
}

// Fetch retrieves the user's past reviews and replaces the held list. An
// absent user id fails locally with ErrUnauthenticated; a successful-but-empty
// response is ErrNoHistory, distinct from a transport failure. At most one
// fetch is in flight at a time.
func (b *Browser) Fetch(ctx context.Context, sess models.Session) ([]models.HistoryRecord, error) {
	if !sess.Authenticated() {
		return nil, client.ErrUnauthenticated
	}

	b.mu.Lock()
	if b.fetching {
		b.mu.Unlock()
		return nil, client.ErrBusy
	}
	b.fetching = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.fetching = false
		b.mu.Unlock()
	}()

	records, err := b.svc.FetchHistory(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, client.ErrNoHistory
	}

	if err := b.store.ReplaceHistory(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Records returns the list from the last successful fetch.
func (b *Browser) Records(ctx context.Context) ([]models.HistoryRecord, error) {
	return b.store.ListHistory(ctx)
}

// Select returns the record at the given position of the last fetched list.
// The embedded result is handed out unchanged; marking the presentation as
// historical is the controller's job.
func (b *Browser) Select(ctx context.Context, index int) (models.HistoryRecord, error) {
	records, err := b.store.ListHistory(ctx)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	if index < 0 || index >= len(records) {
		return models.HistoryRecord{}, client.Validationf("no history record at position %d", index)
	}
	return records[index], nil
}
