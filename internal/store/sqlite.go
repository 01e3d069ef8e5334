package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/crview/crview/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool, so the
	// serve command's concurrent reads never hit "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Session ---

func (s *SQLiteStore) GetSession(ctx context.Context) (models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username FROM session WHERE id = 1`,
	).Scan(&sess.UserID, &sess.Username)
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE session SET user_id = ?, username = ?, updated_at = datetime('now') WHERE id = 1`,
		sess.UserID, sess.Username,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE session SET user_id = '', username = '', updated_at = datetime('now') WHERE id = 1`,
	)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Epoch(ctx context.Context) (int64, error) {
	var epoch int64
	err := s.db.QueryRowContext(ctx, `SELECT epoch FROM session WHERE id = 1`).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("get epoch: %w", err)
	}
	return epoch, nil
}

func (s *SQLiteStore) BumpEpoch(ctx context.Context) (int64, error) {
	var epoch int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE session SET epoch = epoch + 1, updated_at = datetime('now') WHERE id = 1 RETURNING epoch`,
	).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("bump epoch: %w", err)
	}
	return epoch, nil
}

// --- Staged files ---

func (s *SQLiteStore) AppendStaged(ctx context.Context, files []*models.StagedFile) error {
	var maxPos sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM staged_files`).Scan(&maxPos); err != nil {
		return fmt.Errorf("append staged: %w", err)
	}
	pos := maxPos.Int64

	for _, f := range files {
		pos++
		if f.ID == "" {
			f.ID = newULID()
		}
		if f.StagedAt.IsZero() {
			f.StagedAt = time.Now().UTC()
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO staged_files (id, position, path, filename, staged_at) VALUES (?, ?, ?, ?, ?)`,
			f.ID, pos, f.Path, f.Filename, f.StagedAt,
		)
		if err != nil {
			return fmt.Errorf("append staged: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListStaged(ctx context.Context) ([]*models.StagedFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, filename, staged_at FROM staged_files ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("list staged: %w", err)
	}
	defer rows.Close()

	var files []*models.StagedFile
	for rows.Next() {
		f := &models.StagedFile{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Filename, &f.StagedAt); err != nil {
			return nil, fmt.Errorf("scan staged file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *SQLiteStore) DeleteStaged(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM staged_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete staged: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("staged file not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) ClearStaged(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM staged_files`); err != nil {
		return fmt.Errorf("clear staged: %w", err)
	}
	return nil
}

// --- View state ---

func (s *SQLiteStore) GetViewState(ctx context.Context) (ViewState, error) {
	var (
		vs         ViewState
		historical int
		open       int
		resultJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT view, historical, history_open, last_error, result_json FROM view_state WHERE id = 1`,
	).Scan(&vs.View, &historical, &open, &vs.LastError, &resultJSON)
	if err != nil {
		return ViewState{}, fmt.Errorf("get view state: %w", err)
	}
	vs.Historical = historical != 0
	vs.HistoryOpen = open != 0

	if resultJSON != "" {
		var result models.ReviewResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return ViewState{}, fmt.Errorf("decode stored result: %w", err)
		}
		vs.Result = &result
	}
	return vs, nil
}

func (s *SQLiteStore) SaveViewState(ctx context.Context, vs ViewState) error {
	resultJSON := ""
	if vs.Result != nil {
		data, err := json.Marshal(vs.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		resultJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE view_state SET view = ?, historical = ?, history_open = ?, last_error = ?, result_json = ?, updated_at = datetime('now') WHERE id = 1`,
		vs.View, boolToInt(vs.Historical), boolToInt(vs.HistoryOpen), vs.LastError, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

// --- History ---

func (s *SQLiteStore) ReplaceHistory(ctx context.Context, records []models.HistoryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_records`); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}

	for i, r := range records {
		data, err := json.Marshal(r.Result)
		if err != nil {
			return fmt.Errorf("encode history result: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO history_records (id, position, upload_type, timestamp, result_json) VALUES (?, ?, ?, ?, ?)`,
			newULID(), i, r.UploadType, r.Timestamp, string(data),
		)
		if err != nil {
			return fmt.Errorf("insert history record: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListHistory(ctx context.Context) ([]models.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT upload_type, timestamp, result_json FROM history_records ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var (
			r          models.HistoryRecord
			resultJSON string
		)
		if err := rows.Scan(&r.UploadType, &r.Timestamp, &resultJSON); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
			return nil, fmt.Errorf("decode history result: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
