//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, c Checkpoint) (Checkpoint, error) {
	db, err := s.getDB()
	if err != nil {
		return Checkpoint{}, err
	}

	c = prepare(c)
	payload, err := EncodeParams(c.Params)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("encode checkpoint %s: %w", c.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, network, step, created_at, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			network = excluded.network,
			step = excluded.step,
			created_at = excluded.created_at,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, c.ID, c.Network, c.Step, c.Created.UnixNano(), CurrentCodecVersion, payload)
	if err != nil {
		return Checkpoint{}, err
	}
	return c, nil
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context, id string) (Checkpoint, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Checkpoint{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, network, step, created_at, payload
		FROM checkpoints WHERE id = ?
	`, id)
	c, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) LatestCheckpoint(ctx context.Context, net string) (Checkpoint, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Checkpoint{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, network, step, created_at, payload
		FROM checkpoints WHERE network = ?
		ORDER BY step DESC, created_at DESC
		LIMIT 1
	`, net)
	c, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) ListCheckpoints(ctx context.Context, net string) ([]Checkpoint, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, network, step, created_at, payload
		FROM checkpoints WHERE network = ?
		ORDER BY step ASC, created_at ASC
	`, net)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []Checkpoint
	for rows.Next() {
		c, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, c)
	}
	return checkpoints, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row scanner) (Checkpoint, error) {
	var (
		c       Checkpoint
		created int64
		payload []byte
	)
	if err := row.Scan(&c.ID, &c.Network, &c.Step, &created, &payload); err != nil {
		return Checkpoint{}, err
	}

	params, err := DecodeParams(payload)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint %s: %w", c.ID, err)
	}
	c.Params = params
	c.Created = time.Unix(0, created).UTC()
	return c, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			network TEXT NOT NULL,
			step INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS checkpoints_network_step
			ON checkpoints (network, step);
	`)
	return err
}
