// Package storage persists the feedback/analysis audit log and locally saved analyses.
package storage

import (
	"context"
	"fmt"

	"github.com/hyperjump/venturelens/internal/models"
	"go.uber.org/zap"
)

// Audit log backends.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// AuditLog is the append-only record of feedback and analyses.
type AuditLog interface {
	// Append adds one record. A zero Timestamp is set to the current time.
	Append(ctx context.Context, rec *models.AuditRecord) error
	// List returns every record in append order.
	List(ctx context.Context) ([]*models.AuditRecord, error)
	Count(ctx context.Context) (int64, error)
	// Path is the file backing the log, used for size reporting.
	Path() string
	Close() error
}

// Options selects and locates the audit log backend.
type Options struct {
	Driver       string
	AuditLogPath string
	DatabasePath string
}

// Open returns the audit log for opts.Driver. An empty driver means JSON.
func Open(opts Options, logger *zap.Logger) (AuditLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Driver {
	case "", DriverJSON:
		logger.Debug("using JSON audit log", zap.String("path", opts.AuditLogPath))
		return NewJSONAuditLog(opts.AuditLogPath), nil
	case DriverSQLite:
		logger.Debug("using SQLite audit log", zap.String("path", opts.DatabasePath))
		return NewSQLiteAuditLog(opts.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
