package workflow

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crview/crview/internal/client"
	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/store"
)

var authed = models.Session{UserID: "u1", Username: "alice"}

// fakeService records uploads and can block to simulate a pending request.
type fakeService struct {
	client.Service

	mu          sync.Mutex
	fileCalls   int
	filesCalls  int
	folderCalls int
	gotFiles    []client.FilePayload

	block  chan struct{} // when set, Upload* waits until closed
	result *models.ReviewResult
	err    error
}

func (f *fakeService) respond() (*models.ReviewResult, error) {
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeService) UploadFile(ctx context.Context, userID string, file client.FilePayload) (*models.ReviewResult, error) {
	f.mu.Lock()
	f.fileCalls++
	f.gotFiles = []client.FilePayload{file}
	f.mu.Unlock()
	return f.respond()
}

func (f *fakeService) UploadFiles(ctx context.Context, userID string, files []client.FilePayload) (*models.ReviewResult, error) {
	f.mu.Lock()
	f.filesCalls++
	f.gotFiles = files
	f.mu.Unlock()
	return f.respond()
}

func (f *fakeService) UploadArchive(ctx context.Context, userID string, archive client.FilePayload) (*models.ReviewResult, error) {
	f.mu.Lock()
	f.folderCalls++
	f.gotFiles = []client.FilePayload{archive}
	f.mu.Unlock()
	return f.respond()
}

func newWorkflow(t *testing.T, svc client.Service) *Workflow {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return New(s, svc)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func someResult() *models.ReviewResult {
	return &models.ReviewResult{Summary: models.ReviewSummary{TotalFiles: 1, AverageScore: 72}}
}

func TestSelectSingle(t *testing.T) {
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)

	result, err := w.SelectSingle(context.Background(), authed, writeFile(t, "a.py", "print(1)"))
	require.NoError(t, err)
	assert.Equal(t, 72.0, result.Summary.AverageScore)
	assert.Equal(t, 1, svc.fileCalls)
	require.Len(t, svc.gotFiles, 1)
	assert.Equal(t, "a.py", svc.gotFiles[0].Filename)
	assert.Equal(t, "print(1)", string(svc.gotFiles[0].Content))
}

func TestSelectSingle_RejectsUnsupportedExtension(t *testing.T) {
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)

	_, err := w.SelectSingle(context.Background(), authed, writeFile(t, "a.zip", "PK"))
	require.Error(t, err)
	assert.True(t, client.IsValidation(err))
	assert.Zero(t, svc.fileCalls)
}

func TestSelectArchive_RequiresZip(t *testing.T) {
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)
	ctx := context.Background()

	_, err := w.SelectArchive(ctx, authed, writeFile(t, "proj.tar", "x"))
	require.Error(t, err)
	assert.True(t, client.IsValidation(err))
	assert.Zero(t, svc.folderCalls)

	_, err = w.SelectArchive(ctx, authed, writeFile(t, "proj.zip", "PK"))
	require.NoError(t, err)
	assert.Equal(t, 1, svc.folderCalls)
}

func TestSubmit_RequiresSession(t *testing.T) {
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)

	_, err := w.SelectSingle(context.Background(), models.Session{}, writeFile(t, "a.py", "x"))
	require.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Zero(t, svc.fileCalls, "unauthenticated check happens before the network call")
}

func TestStagingLifecycle(t *testing.T) {
	// Stage two files, remove position 0 twice: selection empty, state Idle.
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)
	ctx := context.Background()

	a := writeFile(t, "a.py", "a")
	b := writeFile(t, "b.py", "b")
	require.NoError(t, w.SelectMultiple(ctx, []string{a, b}))

	state, err := w.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSelecting, state)

	require.NoError(t, w.RemoveStaged(ctx, 0))
	staged, err := w.Staged(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "b.py", staged[0].Filename)

	require.NoError(t, w.RemoveStaged(ctx, 0))
	staged, err = w.Staged(ctx)
	require.NoError(t, err)
	assert.Empty(t, staged)

	state, err = w.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)
}

func TestRemoveStaged_OutOfRange(t *testing.T) {
	w := newWorkflow(t, &fakeService{})
	err := w.RemoveStaged(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, client.IsValidation(err))
}

func TestSubmitStaged(t *testing.T) {
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)
	ctx := context.Background()

	require.NoError(t, w.SelectMultiple(ctx, []string{writeFile(t, "a.py", "a"), writeFile(t, "b.py", "b")}))

	result, err := w.SubmitStaged(ctx, authed)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 1, svc.filesCalls)
	require.Len(t, svc.gotFiles, 2)
	assert.Equal(t, "a.py", svc.gotFiles[0].Filename)
	assert.Equal(t, "b.py", svc.gotFiles[1].Filename)

	// Success clears the staged selection.
	staged, err := w.Staged(ctx)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestSubmitStaged_EmptySelection(t *testing.T) {
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)

	_, err := w.SubmitStaged(context.Background(), authed)
	require.ErrorIs(t, err, ErrNoFilesSelected)
	assert.Zero(t, svc.filesCalls)
}

func TestSubmitStaged_Unauthenticated(t *testing.T) {
	svc := &fakeService{result: someResult()}
	w := newWorkflow(t, svc)
	ctx := context.Background()

	require.NoError(t, w.SelectMultiple(ctx, []string{writeFile(t, "a.py", "a")}))

	_, err := w.SubmitStaged(ctx, models.Session{})
	require.ErrorIs(t, err, client.ErrUnauthenticated)
	assert.Zero(t, svc.filesCalls)

	// Failure preserves the staged selection.
	staged, err := w.Staged(ctx)
	require.NoError(t, err)
	assert.Len(t, staged, 1)
}

func TestSubmitStaged_FailureKeepsSelection(t *testing.T) {
	svc := &fakeService{err: &client.TransportError{Message: "boom"}}
	w := newWorkflow(t, svc)
	ctx := context.Background()

	require.NoError(t, w.SelectMultiple(ctx, []string{writeFile(t, "a.py", "a")}))

	_, err := w.SubmitStaged(ctx, authed)
	require.Error(t, err)
	assert.True(t, client.IsTransport(err))

	staged, err := w.Staged(ctx)
	require.NoError(t, err)
	assert.Len(t, staged, 1, "selection is only cleared on success")
}

func TestSecondSubmitWhilePendingIsRejected(t *testing.T) {
	block := make(chan struct{})
	svc := &fakeService{result: someResult(), block: block}
	w := newWorkflow(t, svc)
	ctx := context.Background()

	path := writeFile(t, "a.py", "a")

	done := make(chan error, 1)
	go func() {
		_, err := w.SelectSingle(ctx, authed, path)
		done <- err
	}()

	// Wait until the first request is in flight.
	require.Eventually(t, func() bool {
		state, err := w.State(ctx)
		return err == nil && state == StateSubmitting
	}, time.Second, 5*time.Millisecond)

	_, err := w.SelectSingle(ctx, authed, path)
	require.ErrorIs(t, err, ErrBusy)

	close(block)
	require.NoError(t, <-done)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, 1, svc.fileCalls, "only the first submission reaches the service")
}
