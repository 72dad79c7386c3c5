/*
Package sqlite provides the SQLite-backed persistence for the bridge.

PURPOSE:
  Two concerns live here, each behind its interface:
  - outbox tasks (outbox.Store): webhook work survives restarts
  - machines (machines.Repository): the CNC tracker state

KEY TABLES:
  outbox_tasks: queued/retried/parked synchronization work
  machines:     CNC machine status records

WAL MODE:
  The database is opened with WAL so the worker's writes never block
  handler reads.

CONCURRENCY:
  sync.RWMutex around all access, the same discipline as the rest of
  the codebase. SQLite serializes writers anyway; the mutex keeps the
  error surface simple.

USAGE:
  store, err := sqlite.New("./bridge.db")   // ":memory:" for tests
  defer store.Close()
  worker := outbox.NewWorker(store.Outbox(), log)
  repo := store.Machines()

SEE ALSO:
  - outbox/outbox.go, machines/machines.go: Interface definitions
  - outbox/memory.go, machines/memory.go: In-memory counterparts
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-bridge/machines"
	"github.com/warp/leave-bridge/outbox"
)

// timeFormat is a fixed-width RFC3339 variant. RFC3339Nano strips
// trailing fractional-second zeros, which breaks lexical ordering of
// the TEXT timestamp columns within a second (".15" sorts before
// ".1"); nine fixed digits keep string comparison chronological.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store owns the database handle. Use Outbox() and Machines() for the
// interface views.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at path. Use ":memory:" for an
// in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outbox_tasks (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		key TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		next_run_at TEXT NOT NULL,
		last_error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: the worker's due-task poll
	CREATE INDEX IF NOT EXISTS idx_outbox_due
		ON outbox_tasks(status, next_run_at);
	CREATE INDEX IF NOT EXISTS idx_outbox_key
		ON outbox_tasks(key);

	CREATE TABLE IF NOT EXISTS machines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'idle',
		current_job TEXT NOT NULL DEFAULT '',
		uptime REAL NOT NULL DEFAULT 0,
		last_update TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Outbox returns the outbox.Store view.
func (s *Store) Outbox() outbox.Store { return &taskStore{s} }

// Machines returns the machines.Repository view.
func (s *Store) Machines() machines.Repository { return &machineRepo{s} }

// =============================================================================
// OUTBOX TASKS
// =============================================================================

type taskStore struct {
	s *Store
}

func (t *taskStore) Enqueue(ctx context.Context, task outbox.Task) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	query := `
		INSERT INTO outbox_tasks
			(id, kind, key, payload, status, attempts, next_run_at, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := t.s.db.ExecContext(ctx, query,
		task.ID, task.Kind, task.Key, task.Payload,
		string(task.Status), task.Attempts,
		task.NextRunAt.UTC().Format(timeFormat),
		task.LastError,
		task.CreatedAt.UTC().Format(timeFormat),
		task.UpdatedAt.UTC().Format(timeFormat),
	)
	return err
}

func (t *taskStore) Due(ctx context.Context, now time.Time, limit int) ([]outbox.Task, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	query := `
		SELECT id, kind, key, payload, status, attempts, next_run_at, last_error, created_at, updated_at
		FROM outbox_tasks
		WHERE status = 'pending' AND next_run_at <= ?
		ORDER BY created_at, id
		LIMIT ?
	`
	rows, err := t.s.db.QueryContext(ctx, query,
		now.UTC().Format(timeFormat), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []outbox.Task
	for rows.Next() {
		var task outbox.Task
		var status, nextRun, createdAt, updatedAt string
		if err := rows.Scan(&task.ID, &task.Kind, &task.Key, &task.Payload,
			&status, &task.Attempts, &nextRun, &task.LastError,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		task.Status = outbox.Status(status)
		task.NextRunAt, _ = time.Parse(time.RFC3339Nano, nextRun)
		task.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		task.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (t *taskStore) Update(ctx context.Context, task outbox.Task) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	query := `
		UPDATE outbox_tasks
		SET status = ?, attempts = ?, next_run_at = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := t.s.db.ExecContext(ctx, query,
		string(task.Status), task.Attempts,
		task.NextRunAt.UTC().Format(timeFormat),
		task.LastError,
		time.Now().UTC().Format(timeFormat),
		task.ID,
	)
	return err
}

func (t *taskStore) Counts(ctx context.Context) (map[outbox.Status]int, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	rows, err := t.s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM outbox_tasks GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[outbox.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[outbox.Status(status)] = n
	}
	return counts, rows.Err()
}

// =============================================================================
// MACHINES
// =============================================================================

type machineRepo struct {
	s *Store
}

func (r *machineRepo) List(ctx context.Context) ([]machines.Machine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows, err := r.s.db.QueryContext(ctx,
		"SELECT id, name, status, current_job, uptime, last_update FROM machines ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []machines.Machine
	for rows.Next() {
		m, err := scanMachine(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *machineRepo) Get(ctx context.Context, id string) (*machines.Machine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row := r.s.db.QueryRowContext(ctx,
		"SELECT id, name, status, current_job, uptime, last_update FROM machines WHERE id = ?", id)
	m, err := scanMachine(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *machineRepo) Create(ctx context.Context, m machines.Machine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var exists int
	err := r.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM machines WHERE id = ?", m.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return machines.ErrExists
	}

	_, err = r.s.db.ExecContext(ctx, `
		INSERT INTO machines (id, name, status, current_job, uptime, last_update)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Status, m.CurrentJob, m.Uptime,
		m.LastUpdate.UTC().Format(timeFormat),
	)
	return err
}

func (r *machineRepo) Update(ctx context.Context, m machines.Machine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, `
		UPDATE machines
		SET name = ?, status = ?, current_job = ?, uptime = ?, last_update = ?
		WHERE id = ?`,
		m.Name, m.Status, m.CurrentJob, m.Uptime,
		m.LastUpdate.UTC().Format(timeFormat),
		m.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return machines.ErrNotFound
	}
	return nil
}

func scanMachine(scan func(...any) error) (machines.Machine, error) {
	var m machines.Machine
	var lastUpdate string
	err := scan(&m.ID, &m.Name, &m.Status, &m.CurrentJob, &m.Uptime, &lastUpdate)
	if err != nil {
		return machines.Machine{}, err
	}
	m.LastUpdate, _ = time.Parse(time.RFC3339Nano, lastUpdate)
	return m, nil
}
