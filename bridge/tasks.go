/*
tasks.go - Outbox task payloads for the synchronizer

PURPOSE:
  The webhook layer enqueues synchronization work; the outbox worker
  executes it here. One task kind covers both directions, discriminated
  by Action, so create and destroy for the same request stay ordered in
  the queue.
*/
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-bridge/outbox"
)

// TaskKindSync is the outbox kind for synchronization tasks.
const TaskKindSync = "rework_sync"

// Task actions.
const (
	ActionCreate  = "create"
	ActionDestroy = "destroy"
)

// SyncTask is the payload of a TaskKindSync outbox task.
type SyncTask struct {
	Action  string       `json:"action"`
	Request LeaveRequest `json:"request"`
}

// NewSyncTask builds an outbox task for one request event.
func NewSyncTask(action string, req LeaveRequest) (outbox.Task, error) {
	payload, err := json.Marshal(SyncTask{Action: action, Request: req})
	if err != nil {
		return outbox.Task{}, err
	}
	return outbox.NewTask(TaskKindSync, string(req.ID), payload), nil
}

// TaskHandler adapts a synchronizer to the outbox. A nil synchronizer
// (scheduling API not configured) logs and drops the task without
// error, so a credential-less deployment still acknowledges webhooks.
func TaskHandler(s *Synchronizer, log *logrus.Logger) outbox.Handler {
	return func(ctx context.Context, t outbox.Task) error {
		var task SyncTask
		if err := json.Unmarshal(t.Payload, &task); err != nil {
			return outbox.Permanent(fmt.Errorf("decode sync task: %w", err))
		}

		if s == nil {
			log.WithField("request", task.Request.ID).
				Warn("scheduling API not configured, dropping sync task")
			return nil
		}

		switch task.Action {
		case ActionCreate:
			_, err := s.Create(ctx, task.Request)
			return wrapPermanent(err)
		case ActionDestroy:
			_, err := s.Destroy(ctx, task.Request)
			return wrapPermanent(err)
		default:
			return outbox.Permanent(fmt.Errorf("unknown sync action %q", task.Action))
		}
	}
}

// wrapPermanent marks failures no retry can cure, so the outbox parks
// them instead of burning attempts on a bad payload.
func wrapPermanent(err error) error {
	if errors.Is(err, ErrInvalidDateRange) || errors.Is(err, ErrMissingRequestID) {
		return outbox.Permanent(err)
	}
	return err
}
