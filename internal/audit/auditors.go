// Package audit records security-relevant login events.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/latsic/idbridge/internal/core"
)

// FileAuditor appends login events to a file as JSON lines.
type FileAuditor struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

var _ core.Auditor = (*FileAuditor)(nil)

func NewFileAuditor(filePath string) (*FileAuditor, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	return &FileAuditor{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (f *FileAuditor) Log(entry core.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(entry); err != nil {
		return fmt.Errorf("writing audit log entry: %w", err)
	}
	return nil
}

func (f *FileAuditor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

// InMemoryAuditor keeps login events in memory. Used by the admin audit API
// when no file path is configured, and by tests.
type InMemoryAuditor struct {
	mu      sync.Mutex
	entries []core.AuditEntry
}

var _ core.Auditor = (*InMemoryAuditor)(nil)

func NewInMemoryAuditor() *InMemoryAuditor {
	return &InMemoryAuditor{
		entries: make([]core.AuditEntry, 0),
	}
}

func (i *InMemoryAuditor) Log(entry core.AuditEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries = append(i.entries, entry)
	return nil
}

// Recent returns up to limit most recent entries, oldest first.
func (i *InMemoryAuditor) Recent(limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limit > len(i.entries) {
		limit = len(i.entries)
	}
	start := len(i.entries) - limit
	entries := make([]core.AuditEntry, limit)
	copy(entries, i.entries[start:])

	return entries, nil
}

func (i *InMemoryAuditor) Close() error {
	return nil
}

// Reader serves recent-entry queries. The in-memory auditor is the only
// implementation; the admin API reads through it.
type Reader interface {
	Recent(limit int) ([]core.AuditEntry, error)
}

var _ Reader = (*InMemoryAuditor)(nil)

// MultiAuditor fans every entry out to all wrapped auditors. Used to pair the
// durable file log with the in-memory window the admin API reads from.
type MultiAuditor struct {
	auditors []core.Auditor
}

var _ core.Auditor = (*MultiAuditor)(nil)

func NewMultiAuditor(auditors ...core.Auditor) *MultiAuditor {
	return &MultiAuditor{auditors: auditors}
}

func (m *MultiAuditor) Log(entry core.AuditEntry) error {
	for _, a := range m.auditors {
		if err := a.Log(entry); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiAuditor) Close() error {
	var firstErr error
	for _, a := range m.auditors {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NoopAuditor discards all events.
type NoopAuditor struct{}

var _ core.Auditor = (*NoopAuditor)(nil)

func NewNoopAuditor() *NoopAuditor {
	return &NoopAuditor{}
}

func (n *NoopAuditor) Log(core.AuditEntry) error {
	return nil
}

func (n *NoopAuditor) Close() error {
	return nil
}
