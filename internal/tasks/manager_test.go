package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/latsic/idbridge/internal/logging"
)

func TestTriggerRunsTask(t *testing.T) {
	m := NewManager()

	var ran atomic.Int32
	m.Register("sweep", 0, func(ctx context.Context, logger logging.InternalLogger) error {
		ran.Add(1)
		logger.Info("swept %d entries", 3)
		return nil
	})

	if err := m.Trigger("sweep"); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for ran.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("task never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	logs, err := m.Logs("sweep")
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	found := false
	for _, e := range logs {
		if e.Message == "swept 3 entries" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected captured log line, got %+v", logs)
	}
}

func TestTriggerUnknownTask(t *testing.T) {
	m := NewManager()
	err := m.Trigger("nope")
	var nfe NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStatusesRecordResult(t *testing.T) {
	m := NewManager()
	m.Register("failing", 0, func(ctx context.Context, logger logging.InternalLogger) error {
		return fmt.Errorf("boom")
	})

	if err := m.Trigger("failing"); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		statuses := m.Statuses()
		if len(statuses) == 1 && statuses[0].LastResult != "" {
			if statuses[0].LastResult != "failed: boom" {
				t.Fatalf("unexpected result: %q", statuses[0].LastResult)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("task result never recorded")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
