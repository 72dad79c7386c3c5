package machines

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-bridge/outbox"
)

// TaskKindEvent is the outbox kind for machine webhook events. The
// machine webhook acknowledges immediately and processes here.
const TaskKindEvent = "machine_event"

// NewEventTask wraps a machine event for the outbox.
func NewEventTask(ev Event) (outbox.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return outbox.Task{}, err
	}
	return outbox.NewTask(TaskKindEvent, ev.MachineID, payload), nil
}

// EventHandler adapts Apply to the outbox.
func EventHandler(repo Repository, log *logrus.Logger) outbox.Handler {
	return func(ctx context.Context, t outbox.Task) error {
		var ev Event
		if err := json.Unmarshal(t.Payload, &ev); err != nil {
			return outbox.Permanent(fmt.Errorf("decode machine event: %w", err))
		}
		return Apply(ctx, repo, ev, log)
	}
}
