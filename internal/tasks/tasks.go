// Package tasks runs periodic maintenance work (e.g. sweeping expired
// login challenges) and keeps a short log history per task for inspection.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/latsic/idbridge/internal/logging"
)

const maxLogsPerTask = 1000

// Func is the unit of work. The logger both writes to the process log and is
// captured in the task's log history.
type Func func(ctx context.Context, logger logging.InternalLogger) error

type Status struct {
	Name       string    `json:"name,omitempty"`
	Running    bool      `json:"running,omitempty"`
	LastRun    time.Time `json:"last_run"`
	LastResult string    `json:"last_result,omitempty"`
	NextRun    time.Time `json:"next_run"`
}

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level,omitempty"`
	Message string    `json:"message,omitempty"`
}

type NotFoundError struct {
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("task '%s' not found", e.Name)
}
