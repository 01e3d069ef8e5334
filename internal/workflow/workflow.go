// Package workflow drives the three-mode upload state machine: single file
// and archive submit immediately on selection, multiple mode stages files
// until an explicit submit.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crview/crview/internal/client"
	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/store"
)

// State of the workflow. Selecting only occurs in multiple mode; the other
// two modes go straight from Idle to Submitting.
type State string

const (
	StateIdle       State = "idle"
	StateSelecting  State = "selecting"
	StateSubmitting State = "submitting"
)

// ErrBusy rejects a submission attempted while another upload is pending.
var ErrBusy = client.ErrBusy

// ErrNoFilesSelected rejects a staged submit with an empty selection.
var ErrNoFilesSelected = errors.New("no files selected")

// sourceExts mirrors the dashboard's single-file picker accept list.
var sourceExts = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".cpp": true, ".c": true, ".go": true, ".rb": true,
	".php": true, ".cs": true,
}

// Workflow is the upload state machine. The staged selection persists in the
// store so it survives across CLI invocations; the submitting flag is
// in-process only, since a request never outlives the process.
type Workflow struct {
	store store.Store
	svc   client.Service

	mu         sync.Mutex
	submitting bool
}

// New creates an upload workflow.
func New(s store.Store, svc client.Service) *Workflow {
	return &Workflow{store: s, svc: svc}
}

// State derives the current workflow state: Submitting while a request is in
// flight, Selecting while files are staged, Idle otherwise.
func (w *Workflow) State(ctx context.Context) (State, error) {
	w.mu.Lock()
	submitting := w.submitting
	w.mu.Unlock()
	if submitting {
		return StateSubmitting, nil
	}

	staged, err := w.store.ListStaged(ctx)
	if err != nil {
		return StateIdle, err
	}
	if len(staged) > 0 {
		return StateSelecting, nil
	}
	return StateIdle, nil
}

// SelectSingle submits one source file immediately; there is no staging step.
func (w *Workflow) SelectSingle(ctx context.Context, sess models.Session, path string) (*models.ReviewResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !sourceExts[ext] {
		return nil, client.Validationf("unsupported file type %q", ext)
	}
	payload, err := readPayload(path)
	if err != nil {
		return nil, err
	}
	return w.submit(ctx, sess, func(ctx context.Context) (*models.ReviewResult, error) {
		return w.svc.UploadFile(ctx, sess.UserID, payload)
	})
}

// SelectArchive submits one zip archive immediately. The service rejects
// anything but .zip, so the same rule is checked locally first.
func (w *Workflow) SelectArchive(ctx context.Context, sess models.Session, path string) (*models.ReviewResult, error) {
	if strings.ToLower(filepath.Ext(path)) != ".zip" {
		return nil, client.Validationf("please select a .zip file")
	}
	payload, err := readPayload(path)
	if err != nil {
		return nil, err
	}
	return w.submit(ctx, sess, func(ctx context.Context) (*models.ReviewResult, error) {
		return w.svc.UploadArchive(ctx, sess.UserID, payload)
	})
}

// SelectMultiple appends files to the staged selection. It never submits;
// repeated selections accumulate until SubmitStaged.
func (w *Workflow) SelectMultiple(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return client.Validationf("no files given")
	}

	files := make([]*models.StagedFile, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return client.Validationf("bad path %q: %v", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return client.Validationf("cannot read %q: %v", path, err)
		}
		if info.IsDir() {
			return client.Validationf("%q is a directory; stage files or upload an archive", path)
		}
		files = append(files, &models.StagedFile{Path: abs, Filename: filepath.Base(abs)})
	}
	return w.store.AppendStaged(ctx, files)
}

// Staged returns the current staged selection in staging order.
func (w *Workflow) Staged(ctx context.Context) ([]*models.StagedFile, error) {
	return w.store.ListStaged(ctx)
}

// RemoveStaged removes one staged file by position. Removing the last file
// empties the selection and the workflow is Idle again.
func (w *Workflow) RemoveStaged(ctx context.Context, index int) error {
	staged, err := w.store.ListStaged(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(staged) {
		return client.Validationf("no staged file at position %d", index)
	}
	return w.store.DeleteStaged(ctx, staged[index].ID)
}

// SubmitStaged submits the staged selection as one multi-file request. Both
// failure modes here are local, pre-network checks; the staged selection is
// cleared only on success.
func (w *Workflow) SubmitStaged(ctx context.Context, sess models.Session) (*models.ReviewResult, error) {
	staged, err := w.store.ListStaged(ctx)
	if err != nil {
		return nil, err
	}
	if len(staged) == 0 {
		return nil, ErrNoFilesSelected
	}

	payloads := make([]client.FilePayload, 0, len(staged))
	for _, f := range staged {
		payload, err := readPayload(f.Path)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}

	result, err := w.submit(ctx, sess, func(ctx context.Context) (*models.ReviewResult, error) {
		return w.svc.UploadFiles(ctx, sess.UserID, payloads)
	})
	if err != nil {
		return nil, err
	}

	if err := w.store.ClearStaged(ctx); err != nil {
		return nil, fmt.Errorf("clear staged selection: %w", err)
	}
	return result, nil
}

// submit runs one request under the single-flight guard. The session check
// happens before the network call on every mode.
func (w *Workflow) submit(ctx context.Context, sess models.Session, send func(context.Context) (*models.ReviewResult, error)) (*models.ReviewResult, error) {
	if !sess.Authenticated() {
		return nil, client.ErrUnauthenticated
	}

	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	return send(ctx)
}

func readPayload(path string) (client.FilePayload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return client.FilePayload{}, client.Validationf("cannot read %q: %v", path, err)
	}
	return client.FilePayload{Filename: filepath.Base(path), Content: content}, nil
}
