package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crview/crview/internal/client"
	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/store"
)

var authed = models.Session{UserID: "u1", Username: "alice"}

type fakeService struct {
	client.Service

	fetchCalls int
	records    []models.HistoryRecord
	err        error
}

func (f *fakeService) FetchHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	f.fetchCalls++
	return f.records, f.err
}

func newBrowser(t *testing.T, svc client.Service) (*Browser, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return NewBrowser(s, svc), s
}

func record(uploadType string, day int, score float64) models.HistoryRecord {
	return models.HistoryRecord{
		UploadType: uploadType,
		Timestamp:  time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC),
		Result:     models.ReviewResult{Summary: models.ReviewSummary{AverageScore: score}},
	}
}

func TestFetch_RequiresUserID(t *testing.T) {
	svc := &fakeService{records: []models.HistoryRecord{record("file", 20, 80)}}
	b, _ := newBrowser(t, svc)

	_, err := b.Fetch(context.Background(), models.Session{})
	require.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Zero(t, svc.fetchCalls, "no request may be sent without a user id")
}

func TestFetch_ReplacesListWholesale(t *testing.T) {
	svc := &fakeService{records: []models.HistoryRecord{record("file", 20, 80), record("archive", 10, 60)}}
	b, _ := newBrowser(t, svc)
	ctx := context.Background()

	records, err := b.Fetch(ctx, authed)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "file", records[0].UploadType, "server order kept, no client resort")

	// Second fetch supersedes the first list entirely.
	svc.records = []models.HistoryRecord{record("file", 25, 95)}
	records, err = b.Fetch(ctx, authed)
	require.NoError(t, err)
	require.Len(t, records, 1)

	held, err := b.Records(ctx)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 95.0, held[0].Result.Summary.AverageScore)
}

func TestFetch_EmptyIsNotFound(t *testing.T) {
	svc := &fakeService{}
	b, _ := newBrowser(t, svc)

	_, err := b.Fetch(context.Background(), authed)
	require.ErrorIs(t, err, client.ErrNoHistory)
	assert.Equal(t, 1, svc.fetchCalls, "the request was made; the empty result is the server's answer")
}

func TestFetch_TransportFailureKeepsOldList(t *testing.T) {
	svc := &fakeService{records: []models.HistoryRecord{record("file", 20, 80)}}
	b, _ := newBrowser(t, svc)
	ctx := context.Background()

	_, err := b.Fetch(ctx, authed)
	require.NoError(t, err)

	svc.err = &client.TransportError{Message: "boom"}
	_, err = b.Fetch(ctx, authed)
	require.Error(t, err)

	held, err := b.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, held, 1, "a failed fetch must not clobber the held list")
}

func TestSelect(t *testing.T) {
	svc := &fakeService{records: []models.HistoryRecord{record("file", 20, 80), record("archive", 10, 60)}}
	b, _ := newBrowser(t, svc)
	ctx := context.Background()

	_, err := b.Fetch(ctx, authed)
	require.NoError(t, err)

	rec, err := b.Select(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "archive", rec.UploadType)
	assert.Equal(t, 60.0, rec.Result.Summary.AverageScore)

	_, err = b.Select(ctx, 2)
	require.Error(t, err)
	assert.True(t, client.IsValidation(err))

	_, err = b.Select(ctx, -1)
	require.Error(t, err)
}
