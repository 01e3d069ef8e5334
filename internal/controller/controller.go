// Package controller orchestrates the review session: it composes the
// session manager, upload workflow, and history browser, and owns the
// transitions between the unauthenticated, uploading, showing-result, and
// history-browsing views.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/crview/crview/internal/client"
	"github.com/crview/crview/internal/history"
	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/session"
	"github.com/crview/crview/internal/store"
	"github.com/crview/crview/internal/workflow"
)

// View is the mutually exclusive top-level presentation state.
type View string

const (
	ViewUnauthenticated View = "unauthenticated"
	ViewUploading       View = "uploading"
	ViewShowingResult   View = "showing_result"
)

// ErrStale marks an outcome that completed after the session it was submitted
// under ended. The outcome is discarded without touching any state.
var ErrStale = errors.New("session ended while the request was in flight")

// State is the controller's full presentation state.
type State struct {
	Session     models.Session       `json:"session"`
	View        View                 `json:"view"`
	Historical  bool                 `json:"historical"`
	HistoryOpen bool                 `json:"history_open"`
	LastError   string               `json:"last_error,omitempty"`
	Result      *models.ReviewResult `json:"result,omitempty"`
}

// Controller is the single owner of mutable presentation state. All state
// lives behind one mutex; the aggregator it feeds is pure and needs none.
type Controller struct {
	mu       sync.Mutex
	store    store.Store
	sessions *session.Manager
	uploads  *workflow.Workflow
	browser  *history.Browser
}

// New wires a controller over the given store and service client.
func New(s store.Store, svc client.Service) *Controller {
	return &Controller{
		store:    s,
		sessions: session.NewManager(s, svc),
		uploads:  workflow.New(s, svc),
		browser:  history.NewBrowser(s, svc),
	}
}

// State loads the current presentation state. An unauthenticated session
// forces the Unauthenticated view no matter what snapshot is stored.
func (c *Controller) State(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadState(ctx)
}

func (c *Controller) loadState(ctx context.Context) (State, error) {
	sess, err := c.sessions.Restore(ctx)
	if err != nil {
		return State{}, err
	}
	if !sess.Authenticated() {
		// Only the last error survives on the login screen; a failed
		// login is reported there.
		vs, err := c.store.GetViewState(ctx)
		if err != nil {
			return State{}, err
		}
		return State{Session: sess, View: ViewUnauthenticated, LastError: vs.LastError}, nil
	}

	vs, err := c.store.GetViewState(ctx)
	if err != nil {
		return State{}, err
	}

	st := State{
		Session:     sess,
		View:        View(vs.View),
		Historical:  vs.Historical,
		HistoryOpen: vs.HistoryOpen,
		LastError:   vs.LastError,
		Result:      vs.Result,
	}
	if st.View != ViewShowingResult || st.Result == nil {
		st.View = ViewUploading
		st.Result = nil
		st.Historical = false
	}
	return st, nil
}

func (c *Controller) saveState(ctx context.Context, st State) error {
	return c.store.SaveViewState(ctx, store.ViewState{
		View:        string(st.View),
		Historical:  st.Historical,
		HistoryOpen: st.HistoryOpen,
		LastError:   st.LastError,
		Result:      st.Result,
	})
}

// Staged exposes the upload workflow's staged selection for rendering.
func (c *Controller) Staged(ctx context.Context) ([]*models.StagedFile, error) {
	return c.uploads.Staged(ctx)
}

// History exposes the last fetched record list for rendering.
func (c *Controller) History(ctx context.Context) ([]models.HistoryRecord, error) {
	return c.browser.Records(ctx)
}

// --- Auth transitions ---

// Login authenticates and, on success, enters the Uploading view.
func (c *Controller) Login(ctx context.Context, username, password string) (models.Session, error) {
	return c.authenticate(ctx, username, password, c.sessions.Login)
}

// Register creates an account with the same transition as Login.
func (c *Controller) Register(ctx context.Context, username, password string) (models.Session, error) {
	return c.authenticate(ctx, username, password, c.sessions.Register)
}

func (c *Controller) authenticate(ctx context.Context, username, password string,
	do func(context.Context, string, string) (models.Session, error)) (models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := do(ctx, username, password)
	if err != nil {
		return models.Session{}, c.fail(ctx, err)
	}

	// A fresh login starts a clean browsing session.
	if err := c.saveState(ctx, State{View: ViewUploading}); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// Logout ends the session from any state, discarding the current result,
// the fetched history, the staged selection, and all error state. It always
// succeeds from the user's point of view.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sessions.Logout(ctx); err != nil {
		return err
	}
	if err := c.store.ClearStaged(ctx); err != nil {
		return err
	}
	if err := c.store.ReplaceHistory(ctx, nil); err != nil {
		return err
	}
	return c.saveState(ctx, State{View: ViewUnauthenticated})
}

// --- Upload transitions ---

// UploadSingle reviews one source file and shows the fresh result.
func (c *Controller) UploadSingle(ctx context.Context, path string) (*models.ReviewResult, error) {
	return c.runUpload(ctx, func(ctx context.Context, sess models.Session) (*models.ReviewResult, error) {
		return c.uploads.SelectSingle(ctx, sess, path)
	})
}

// UploadArchive reviews one zip archive and shows the fresh result.
func (c *Controller) UploadArchive(ctx context.Context, path string) (*models.ReviewResult, error) {
	return c.runUpload(ctx, func(ctx context.Context, sess models.Session) (*models.ReviewResult, error) {
		return c.uploads.SelectArchive(ctx, sess, path)
	})
}

// SubmitStaged reviews the staged multi-file selection.
func (c *Controller) SubmitStaged(ctx context.Context) (*models.ReviewResult, error) {
	return c.runUpload(ctx, func(ctx context.Context, sess models.Session) (*models.ReviewResult, error) {
		return c.uploads.SubmitStaged(ctx, sess)
	})
}

// StageFiles appends to the staged selection without submitting.
func (c *Controller) StageFiles(ctx context.Context, paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.uploads.SelectMultiple(ctx, paths); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// Unstage removes one staged file by position.
func (c *Controller) Unstage(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.uploads.RemoveStaged(ctx, index); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// runUpload submits through the workflow with the session epoch captured at
// submission time. The controller lock is released for the duration of the
// network call: the workflow's own single-flight guard rejects a second
// trigger while the first is pending, instead of queueing it behind the lock.
// If the epoch moved while the request was in flight (a logout intervened),
// the outcome is discarded and no state changes.
func (c *Controller) runUpload(ctx context.Context, submit func(context.Context, models.Session) (*models.ReviewResult, error)) (*models.ReviewResult, error) {
	sess, epoch, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result, submitErr := submit(ctx, sess)

	c.mu.Lock()
	defer c.mu.Unlock()

	now, err := c.sessions.Epoch(ctx)
	if err != nil {
		return nil, err
	}
	if now != epoch {
		return nil, ErrStale
	}

	if submitErr != nil {
		return nil, c.fail(ctx, submitErr)
	}

	// Success replaces the shown result wholesale and clears any error.
	if err := c.saveState(ctx, State{View: ViewShowingResult, Result: result}); err != nil {
		return nil, err
	}
	return result, nil
}

// snapshot reads the session and its epoch under the lock, tagging a request
// with the generation it was submitted under.
func (c *Controller) snapshot(ctx context.Context) (models.Session, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.sessions.Restore(ctx)
	if err != nil {
		return models.Session{}, 0, err
	}
	epoch, err := c.sessions.Epoch(ctx)
	if err != nil {
		return models.Session{}, 0, err
	}
	return sess, epoch, nil
}

// --- History transitions ---

// FetchHistory retrieves past reviews and opens the history view on success.
// The current result view is untouched either way.
func (c *Controller) FetchHistory(ctx context.Context) ([]models.HistoryRecord, error) {
	sess, epoch, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	records, fetchErr := c.browser.Fetch(ctx, sess)

	c.mu.Lock()
	defer c.mu.Unlock()

	now, err := c.sessions.Epoch(ctx)
	if err != nil {
		return nil, err
	}
	if now != epoch {
		// The fetch already stored its records; a logout in between means
		// they belong to an ended session and must not linger.
		_ = c.store.ReplaceHistory(ctx, nil)
		return nil, ErrStale
	}

	if fetchErr != nil {
		return nil, c.fail(ctx, fetchErr)
	}

	st, err := c.loadState(ctx)
	if err != nil {
		return nil, err
	}
	st.HistoryOpen = true
	st.LastError = ""
	if err := c.saveState(ctx, st); err != nil {
		return nil, err
	}
	return records, nil
}

// SelectHistory shows a past record's result as the current view, marked
// historical, and closes the history list.
func (c *Controller) SelectHistory(ctx context.Context, index int) (*models.ReviewResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.browser.Select(ctx, index)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	result := rec.Result
	err = c.saveState(ctx, State{
		View:       ViewShowingResult,
		Historical: true,
		Result:     &result,
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Presentation actions ---

// Reset returns from the result view to Uploading, dropping the shown result.
// Calling it again is a no-op, not an error.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	if st.View == ViewUnauthenticated {
		return client.ErrUnauthenticated
	}
	return c.saveState(ctx, State{View: ViewUploading, HistoryOpen: st.HistoryOpen})
}

// DismissError clears the last error without any other transition.
func (c *Controller) DismissError(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	st.LastError = ""
	return c.saveState(ctx, st)
}

// fail records err as the last error and hands it back. The stored view is
// untouched, so the user returns to exactly the pre-operation state. A busy
// rejection is not recorded (the first request is still in progress and its
// outcome will land), and an empty history is an empty-state, not an error.
func (c *Controller) fail(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrBusy) || errors.Is(err, client.ErrNoHistory) {
		return err
	}

	st, loadErr := c.loadState(ctx)
	if loadErr != nil {
		return fmt.Errorf("%w (and loading state failed: %v)", err, loadErr)
	}
	st.LastError = err.Error()
	if saveErr := c.saveState(ctx, st); saveErr != nil {
		return fmt.Errorf("%w (and saving state failed: %v)", err, saveErr)
	}
	return err
}
