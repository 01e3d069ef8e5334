// Package session owns the client's identity state: login, registration,
// logout, and restoring a persisted identity at startup.
package session

import (
	"context"
	"fmt"

	"github.com/crview/crview/internal/client"
	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/store"
)

// Manager holds identity against the auth endpoints and the state store.
// Components never read ambient storage for identity; they take the Session
// value this manager hands out.
type Manager struct {
	store store.Store
	svc   client.Service
}

// NewManager creates a session manager.
func NewManager(s store.Store, svc client.Service) *Manager {
	return &Manager{store: s, svc: svc}
}

// Login authenticates against the service and persists the identity. Empty
// fields fail locally, before any network call. A successful login starts a
// new session generation.
func (m *Manager) Login(ctx context.Context, username, password string) (models.Session, error) {
	if username == "" || password == "" {
		return models.Session{}, client.Validationf("please fill in all fields")
	}

	sess, err := m.svc.Login(ctx, username, password)
	if err != nil {
		return models.Session{}, err
	}
	return sess, m.begin(ctx, sess)
}

// Register creates an account with the same contract as Login. There is no
// client-side password-strength rule; the server decides what it accepts.
func (m *Manager) Register(ctx context.Context, username, password string) (models.Session, error) {
	if username == "" || password == "" {
		return models.Session{}, client.Validationf("please fill in all fields")
	}

	sess, err := m.svc.Register(ctx, username, password)
	if err != nil {
		return models.Session{}, err
	}
	return sess, m.begin(ctx, sess)
}

func (m *Manager) begin(ctx context.Context, sess models.Session) error {
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if _, err := m.store.BumpEpoch(ctx); err != nil {
		return fmt.Errorf("advance session epoch: %w", err)
	}
	return nil
}

// Logout clears the persisted identity and advances the epoch so that any
// outcome still in flight is discarded on completion. Idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if _, err := m.store.BumpEpoch(ctx); err != nil {
		return fmt.Errorf("advance session epoch: %w", err)
	}
	return nil
}

// Restore re-derives the session from the persisted identity without
// re-validating against the server. A stored user id alone counts as
// authenticated for the rest of the browsing session; no token or expiry is
// modeled.
func (m *Manager) Restore(ctx context.Context) (models.Session, error) {
	sess, err := m.store.GetSession(ctx)
	if err != nil {
		return models.Session{}, fmt.Errorf("restore session: %w", err)
	}
	return sess, nil
}

// Epoch returns the current session generation.
func (m *Manager) Epoch(ctx context.Context) (int64, error) {
	return m.store.Epoch(ctx)
}
