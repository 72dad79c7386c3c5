/*
worker.go - Outbox processing loop

PURPOSE:
  Polls the store for due tasks and executes them through registered
  handlers. Failed tasks are rescheduled with doubling backoff until
  MaxAttempts, then parked as failed.

DESIGN:
  - Single goroutine, ticker-driven, Start/Stop lifecycle
  - Tasks run sequentially in creation order, so two events for the
    same request never race inside one process
  - No handler for a task's kind parks it as failed immediately, as
    does a PermanentError from a handler

USAGE:
  worker := outbox.NewWorker(store, log)
  worker.Handle(bridge.TaskKindSync, bridge.TaskHandler(sync, log))
  worker.Start()
  // ... later
  worker.Stop()
*/
package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Worker drains the outbox.
type Worker struct {
	Store        Store
	PollInterval time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	BatchSize    int

	handlers map[string]Handler
	log      *logrus.Entry

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a worker with default tuning.
func NewWorker(store Store, log *logrus.Logger) *Worker {
	return &Worker{
		Store:        store,
		PollInterval: 2 * time.Second,
		MaxAttempts:  5,
		BaseBackoff:  30 * time.Second,
		BatchSize:    20,
		handlers:     make(map[string]Handler),
		log:          log.WithField("component", "outbox"),
		stop:         make(chan struct{}),
	}
}

// Handle registers the handler for a task kind. Not safe to call after
// Start.
func (w *Worker) Handle(kind string, h Handler) {
	w.handlers[kind] = h
}

// Start begins polling.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ticker = time.NewTicker(w.PollInterval)
	w.wg.Add(1)
	go w.run()
	w.log.WithField("interval", w.PollInterval).Info("worker started")
}

// Stop halts polling and waits for the in-flight batch.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ticker != nil {
		w.ticker.Stop()
		close(w.stop)
		w.wg.Wait()
		w.log.Info("worker stopped")
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	// Drain anything left over from a previous run immediately.
	w.RunNow()

	for {
		select {
		case <-w.ticker.C:
			w.RunNow()
		case <-w.stop:
			return
		}
	}
}

// RunNow processes one batch of due tasks. Exported for tests and for
// import endpoints that want prompt processing.
func (w *Worker) RunNow() {
	ctx := context.Background()

	tasks, err := w.Store.Due(ctx, time.Now().UTC(), w.BatchSize)
	if err != nil {
		w.log.WithError(err).Error("could not load due tasks")
		return
	}

	for _, t := range tasks {
		w.process(ctx, t)
	}
}

func (w *Worker) process(ctx context.Context, t Task) {
	handler, ok := w.handlers[t.Kind]
	if !ok {
		t.Status = StatusFailed
		t.LastError = "no handler for kind " + t.Kind
		w.update(ctx, t)
		w.log.WithFields(logrus.Fields{"task": t.ID, "kind": t.Kind}).Error("no handler registered")
		return
	}

	err := handler(ctx, t)
	if err == nil {
		t.Status = StatusDone
		t.LastError = ""
		w.update(ctx, t)
		return
	}

	t.Attempts++
	t.LastError = err.Error()

	var perm *PermanentError
	if errors.As(err, &perm) {
		t.Status = StatusFailed
		w.log.WithError(err).WithFields(logrus.Fields{
			"task": t.ID, "kind": t.Kind, "key": t.Key,
		}).Error("task failed permanently")
	} else if t.Attempts >= w.MaxAttempts {
		t.Status = StatusFailed
		w.log.WithError(err).WithFields(logrus.Fields{
			"task": t.ID, "kind": t.Kind, "key": t.Key, "attempts": t.Attempts,
		}).Error("task exhausted retries")
	} else {
		t.NextRunAt = time.Now().UTC().Add(w.backoff(t.Attempts))
		w.log.WithError(err).WithFields(logrus.Fields{
			"task": t.ID, "kind": t.Kind, "key": t.Key, "attempts": t.Attempts,
			"next_run": t.NextRunAt,
		}).Warn("task failed, rescheduled")
	}
	w.update(ctx, t)
}

// backoff doubles per attempt: base, 2x, 4x, ... capped at one hour.
func (w *Worker) backoff(attempts int) time.Duration {
	d := w.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= time.Hour {
			return time.Hour
		}
	}
	return d
}

func (w *Worker) update(ctx context.Context, t Task) {
	if err := w.Store.Update(ctx, t); err != nil {
		w.log.WithError(err).WithField("task", t.ID).Error("could not update task")
	}
}
