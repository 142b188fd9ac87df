package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"roachrace/engine"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const tableName = "snapshots"

var ErrNotFound = errors.New("snapshot not found")

// Store keeps race snapshots in a sqlite database, one row per race.
type Store struct {
	db *sql.DB
}

type Entry struct {
	ID          string
	RunFinished bool
	Cockroaches int
	CreatedAt   time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTable() error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		id TEXT PRIMARY KEY,
		run_finished INTEGER NOT NULL,
		cockroaches INTEGER NOT NULL,
		data TEXT NOT NULL,
		origin TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	_, err := s.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("failed to execute CREATE TABLE: %w", err)
	}
	log.Debug().Msg("snapshots table ensured")
	return nil
}

// Save stores a snapshot under a new id and returns it.
func (s *Store) Save(ctx context.Context, snapshot engine.Snapshot) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, id, snapshot); err != nil {
		return "", err
	}
	return id, nil
}

// SaveRace stores the result of a race together with the snapshot it
// started from, so that the race can be replayed later.
func (s *Store) SaveRace(ctx context.Context, origin, result engine.Snapshot) (string, error) {
	if origin.World == nil {
		return "", fmt.Errorf("race origin has no world")
	}
	data, err := json.Marshal(origin)
	if err != nil {
		return "", fmt.Errorf("failed to encode race origin: %w", err)
	}
	id := uuid.NewString()
	if err := s.put(ctx, id, result, sql.NullString{String: string(data), Valid: true}); err != nil {
		return "", err
	}
	return id, nil
}

// Put stores a snapshot under id, replacing any previous one.
func (s *Store) Put(ctx context.Context, id string, snapshot engine.Snapshot) error {
	return s.put(ctx, id, snapshot, sql.NullString{})
}

func (s *Store) put(ctx context.Context, id string, snapshot engine.Snapshot, origin sql.NullString) error {
	if snapshot.World == nil {
		return fmt.Errorf("snapshot %s has no world", id)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", id, err)
	}

	const upsertSQL = `
	INSERT INTO ` + tableName + ` (id, run_finished, cockroaches, data, origin)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		run_finished = excluded.run_finished,
		cockroaches = excluded.cockroaches,
		data = excluded.data,
		origin = excluded.origin;`

	_, err = s.db.ExecContext(ctx, upsertSQL, id, snapshot.RunFinished, snapshot.World.Len(), string(data), origin)
	if err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", id, err)
	}
	return nil
}

// Raw returns the serialized snapshot stored under id.
func (s *Store) Raw(ctx context.Context, id string) ([]byte, error) {
	const selectSQL = `SELECT data FROM ` + tableName + ` WHERE id = ?;`

	var data string
	err := s.db.QueryRowContext(ctx, selectSQL, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	return []byte(data), nil
}

// Origin returns the serialized snapshot the race stored under id started
// from. Snapshots stored with Put have no origin, and their own data is
// returned instead.
func (s *Store) Origin(ctx context.Context, id string) ([]byte, error) {
	const selectSQL = `SELECT data, origin FROM ` + tableName + ` WHERE id = ?;`

	var data string
	var origin sql.NullString
	err := s.db.QueryRowContext(ctx, selectSQL, id).Scan(&data, &origin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load origin of %s: %w", id, err)
	}
	if !origin.Valid {
		return []byte(data), nil
	}
	return []byte(origin.String), nil
}

// Load restores the track stored under id.
func (s *Store) Load(ctx context.Context, id string, options ...engine.Option) (*engine.Track, error) {
	data, err := s.Raw(ctx, id)
	if err != nil {
		return nil, err
	}
	return engine.Restore(data, options...)
}

// List returns every stored race, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	const selectSQL = `
	SELECT id, run_finished, cockroaches, created_at
	FROM ` + tableName + `
	ORDER BY created_at DESC, id;`

	rows, err := s.db.QueryContext(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunFinished, &e.Cockroaches, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return entries, nil
}

// Delete removes the snapshot stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	const deleteSQL = `DELETE FROM ` + tableName + ` WHERE id = ?;`

	res, err := s.db.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
