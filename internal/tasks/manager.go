package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/latsic/idbridge/internal/logging"
)

const runTimeout = 5 * time.Minute

// Manager registers tasks, schedules the periodic ones and serves status and
// log queries. Schedulers stop when the context given to Start is cancelled.
type Manager struct {
	mu    sync.RWMutex
	tasks map[string]*task
}

func NewManager() *Manager {
	return &Manager{tasks: make(map[string]*task)}
}

// Register adds a task. A zero interval registers a trigger-only task.
func (m *Manager) Register(name string, interval time.Duration, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[name] = &task{
		name:         name,
		interval:     interval,
		fn:           fn,
		registeredAt: time.Now(),
	}
}

// Start launches a scheduler goroutine per periodic task.
func (m *Manager) Start(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.interval > 0 {
			go m.schedule(ctx, t)
		}
	}
}

// Trigger runs the named task once, asynchronously.
func (m *Manager) Trigger(name string) error {
	m.mu.RLock()
	t, ok := m.tasks[name]
	m.mu.RUnlock()
	if !ok {
		return NotFoundError{Name: name}
	}
	go t.run()
	return nil
}

func (m *Manager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]Status, 0, len(m.tasks))
	for _, t := range m.tasks {
		list = append(list, t.status())
	}
	return list
}

func (m *Manager) Logs(name string) ([]LogEntry, error) {
	m.mu.RLock()
	t, ok := m.tasks[name]
	m.mu.RUnlock()
	if !ok {
		return nil, NotFoundError{Name: name}
	}
	return t.logs(), nil
}

func (m *Manager) schedule(ctx context.Context, t *task) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.run()
		}
	}
}

type task struct {
	name         string
	interval     time.Duration
	fn           Func
	registeredAt time.Time

	mu         sync.RWMutex
	running    bool
	lastRun    time.Time
	lastResult string
	history    []LogEntry
}

func (t *task) run() {
	zlog := log.With().Str("task", t.name).Logger()

	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		zlog.Warn().Msg("task is already running, skipping execution")
		return
	}
	t.running = true
	t.history = t.history[:0]
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.running = false
		t.lastRun = time.Now()
		t.mu.Unlock()
	}()

	logger := logging.NewFanoutLogger(logging.NewZerologSink(zlog), &captureLogger{task: t})
	logger.Info("starting task execution")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	err := t.fn(ctx, logger)
	duration := time.Since(start)

	t.mu.Lock()
	if err != nil {
		t.lastResult = fmt.Sprintf("failed: %v", err)
	} else {
		t.lastResult = "success"
	}
	t.mu.Unlock()

	if err != nil {
		logger.Error("task failed after %s: %v", duration, err)
	} else {
		logger.Info("task completed successfully in %s", duration)
	}
}

func (t *task) status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var next time.Time
	if t.interval > 0 {
		if !t.lastRun.IsZero() {
			next = t.lastRun.Add(t.interval)
		} else {
			next = t.registeredAt.Add(t.interval)
		}
	}

	return Status{
		Name:       t.name,
		Running:    t.running,
		LastRun:    t.lastRun,
		LastResult: t.lastResult,
		NextRun:    next,
	}
}

func (t *task) logs() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cpy := make([]LogEntry, len(t.history))
	copy(cpy, t.history)
	return cpy
}

func (t *task) appendLog(level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, LogEntry{Time: time.Now(), Level: level, Message: msg})
	if len(t.history) > maxLogsPerTask {
		t.history = t.history[1:]
	}
}

var _ logging.InternalLogger = (*captureLogger)(nil)

// captureLogger stores log lines in the task's history.
type captureLogger struct {
	task *task
}

func (c *captureLogger) Info(format string, args ...any) {
	c.task.appendLog("info", fmt.Sprintf(format, args...))
}

func (c *captureLogger) Warn(format string, args ...any) {
	c.task.appendLog("warn", fmt.Sprintf(format, args...))
}

func (c *captureLogger) Error(format string, args ...any) {
	c.task.appendLog("error", fmt.Sprintf(format, args...))
}
