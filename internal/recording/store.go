// Package recording keeps a local library of simulation recordings.
//
// Recordings arrive from the server as opaque JSON arrays of states. The
// library stores them in SQLite, exports them to files and loads files back
// for playback.
package recording

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"grimm.is/swarmctl/internal/clock"
)

var (
	// ErrNotFound is returned when no recording matches an id.
	ErrNotFound = errors.New("recording not found")

	// ErrAmbiguous is returned when an id prefix matches several recordings.
	ErrAmbiguous = errors.New("recording id prefix is ambiguous")
)

// Recording is one stored recording. Payload is omitted by List.
type Recording struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	Frames    int             `json:"frames"`
	Size      int             `json:"size"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Options configures the store.
type Options struct {
	// Path is the database file, or ":memory:".
	Path  string
	Clock clock.Clock
}

// Store is the SQLite-backed recording library.
type Store struct {
	db    *sql.DB
	clock clock.Clock
}

// Open opens or creates the library.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("recording store path is required")
	}

	dsn := opts.Path
	if opts.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0750); err != nil {
			return nil, fmt.Errorf("create recordings dir: %w", err)
		}
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.Path == ":memory:" {
		// Each pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.Default()
	}

	s := &Store{db: db, clock: clk}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS recordings (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			frames     INTEGER NOT NULL,
			payload    BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_recordings_created ON recordings(created_at);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores payload under a new id. An empty name is derived from the
// creation time.
func (s *Store) Save(ctx context.Context, name string, payload json.RawMessage) (Recording, error) {
	frames, err := Inspect(payload)
	if err != nil {
		return Recording{}, err
	}

	now := s.clock.Now().UTC()
	if name == "" {
		name = "swarm-" + now.Format("20060102-150405")
	}
	rec := Recording{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		Frames:    frames,
		Size:      len(payload),
		Payload:   payload,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recordings (id, name, created_at, frames, payload) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, now.UnixNano(), rec.Frames, []byte(payload))
	if err != nil {
		return Recording{}, fmt.Errorf("save recording: %w", err)
	}
	return rec, nil
}

// List returns all recordings, newest first, without payloads.
func (s *Store) List(ctx context.Context) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, frames, length(payload) FROM recordings ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		var (
			r  Recording
			ts int64
		)
		if err := rows.Scan(&r.ID, &r.Name, &ts, &r.Frames, &r.Size); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		r.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one recording with its payload. id may be a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (Recording, error) {
	full, err := s.resolve(ctx, id)
	if err != nil {
		return Recording{}, err
	}

	var (
		r       Recording
		ts      int64
		payload []byte
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, frames, payload FROM recordings WHERE id = ?`, full).
		Scan(&r.ID, &r.Name, &ts, &r.Frames, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Recording{}, ErrNotFound
	}
	if err != nil {
		return Recording{}, fmt.Errorf("get recording: %w", err)
	}
	r.CreatedAt = time.Unix(0, ts).UTC()
	r.Payload = json.RawMessage(payload)
	r.Size = len(payload)
	return r, nil
}

// Delete removes a recording. id may be a unique prefix.
func (s *Store) Delete(ctx context.Context, id string) error {
	full, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, full)
	if err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) resolve(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNotFound
	}
	if _, err := uuid.Parse(id); err == nil {
		return id, nil
	}

	prefix := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(id)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM recordings WHERE id LIKE ? ESCAPE '\' LIMIT 2`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("resolve recording: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return "", err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}
