// Package sqlite provides a SQLite-backed persistent store. It snapshots
// the in-memory graph state to a single table as JSON buckets after every
// successful transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"metacore/internal/infra/persistence/memory"
	"metacore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists the in-memory state to SQLite. The memory store remains
// the transactional engine; this layer only adds durability.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.InvariantEngine) (*Store, error) {
	if path == "" {
		path = "metacore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

type bucketTarget struct {
	name   string
	target any
}

func bucketTargets(snap *memory.Snapshot) []bucketTarget {
	return []bucketTarget{
		{"scene_types", &snap.SceneTypes},
		{"classes", &snap.Classes},
		{"relation_classes", &snap.RelationClasses},
		{"attributes", &snap.Attributes},
		{"attribute_types", &snap.AttributeTypes},
		{"ports", &snap.Ports},
		{"roles", &snap.Roles},
		{"rules", &snap.Rules},
		{"procedures", &snap.Procedures},
		{"users", &snap.Users},
		{"user_groups", &snap.UserGroups},
		{"associations", &snap.Associations},
		{"rights", &snap.Rights},
	}
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := map[string][]byte{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}
	var snapshot memory.Snapshot
	for _, bt := range bucketTargets(&snapshot) {
		payload, ok := payloads[bt.name]
		if !ok || len(payload) == 0 {
			continue
		}
		if err := json.Unmarshal(payload, bt.target); err != nil {
			return fmt.Errorf("decode %s: %w", bt.name, err)
		}
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bt := range bucketTargets(&snapshot) {
		data, err := json.Marshal(bt.target)
		if err != nil {
			retErr = fmt.Errorf("encode %s: %w", bt.name, err)
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bt.name, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bt.name, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite if the commit succeeded.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, domain.StoreError{Op: "snapshot", Err: pErr}
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
