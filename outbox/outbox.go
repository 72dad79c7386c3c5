/*
outbox.go - Durable task queue between webhook acknowledgment and side effects

PURPOSE:
  Webhook handlers must respond before the upstream sender times out, so
  the actual synchronization runs afterwards. Instead of firing an
  unsupervised goroutine, handlers enqueue a task here; a worker loop
  (worker.go) leases due tasks and executes them with retry and capped
  backoff. An unobserved failure mode becomes an observable, retryable
  one, while the caller-visible contract is unchanged: the webhook
  sender only ever learns "accepted".

STORES:
  Store is an interface with two implementations:
  - memory.go:           for tests and credential-less dev runs
  - store/sqlite:        durable, survives restarts

SEE ALSO:
  - worker.go: The processing loop
  - api/handlers.go: Producers
*/
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed" // attempts exhausted
)

// Task is one unit of deferred work. Payload is an opaque JSON blob
// interpreted by the handler registered for Kind. Key groups tasks that
// belong to the same upstream object (the Rework request id) so logs
// and inspection line up.
type Task struct {
	ID        string
	Kind      string
	Key       string
	Payload   []byte
	Status    Status
	Attempts  int
	NextRunAt time.Time
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTask builds a pending task due immediately.
func NewTask(kind, key string, payload []byte) Task {
	now := time.Now().UTC()
	return Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		Key:       key,
		Payload:   payload,
		Status:    StatusPending,
		NextRunAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store persists tasks. Implementations must be safe for concurrent use.
type Store interface {
	// Enqueue persists a new task.
	Enqueue(ctx context.Context, t Task) error

	// Due returns up to limit pending tasks whose NextRunAt is at or
	// before now, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]Task, error)

	// Update rewrites a task's mutable fields (status, attempts,
	// schedule, error) keyed by ID.
	Update(ctx context.Context, t Task) error

	// Counts returns the number of tasks per status.
	Counts(ctx context.Context) (map[Status]int, error)
}

// Handler executes one task. A nil return marks the task done; an error
// schedules a retry until attempts are exhausted, unless it is wrapped
// with Permanent.
type Handler func(ctx context.Context, t Task) error

// PermanentError marks a task failure that no retry can cure (bad
// payload, unparseable dates). The worker parks the task immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable.
func Permanent(err error) error { return &PermanentError{Err: err} }
