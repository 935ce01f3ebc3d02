package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperjump/venturelens/internal/models"
)

// JSONAuditLog keeps the log as one JSON array file. Every append reads the whole
// array and rewrites it through a temp file and rename.
type JSONAuditLog struct {
	path string
	mu   sync.Mutex
}

// NewJSONAuditLog returns a log backed by path. The file is created on first append.
func NewJSONAuditLog(path string) *JSONAuditLog {
	return &JSONAuditLog{path: path}
}

// Append adds rec to the end of the array.
func (l *JSONAuditLog) Append(_ context.Context, rec *models.AuditRecord) error {
	if rec == nil {
		return errors.New("nil audit record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return err
	}
	records = append(records, rec)
	return l.write(records)
}

// List returns all records.
func (l *JSONAuditLog) List(_ context.Context) ([]*models.AuditRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Count returns the number of records.
func (l *JSONAuditLog) Count(ctx context.Context) (int64, error) {
	records, err := l.List(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// Path returns the log file path.
func (l *JSONAuditLog) Path() string { return l.path }

// Close is a no-op; the file is not held open.
func (l *JSONAuditLog) Close() error { return nil }

func (l *JSONAuditLog) read() ([]*models.AuditRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.AuditRecord{}, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	records := []*models.AuditRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse audit log %s: %w", l.path, err)
	}
	return records, nil
}

func (l *JSONAuditLog) write(records []*models.AuditRecord) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create audit log directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace audit log: %w", err)
	}
	return nil
}
