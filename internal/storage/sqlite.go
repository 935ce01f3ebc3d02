package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/venturelens/internal/models"
)

// SQLiteAuditLog stores audit records in a SQLite table.
type SQLiteAuditLog struct {
	db   *sql.DB
	path string
}

// NewSQLiteAuditLog opens or creates the database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteAuditLog(dbPath string) (*SQLiteAuditLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteAuditLog{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id TEXT,
		rating INTEGER,
		comments TEXT,
		analysis TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_analysis_id ON audit_records(analysis_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Append inserts rec.
func (s *SQLiteAuditLog) Append(ctx context.Context, rec *models.AuditRecord) error {
	if rec == nil {
		return errors.New("nil audit record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	var (
		analysisID, comments, analysis sql.NullString
		rating                         sql.NullInt64
	)
	if fb := rec.Feedback; fb != nil {
		analysisID = sql.NullString{String: fb.AnalysisID, Valid: true}
		comments = sql.NullString{String: fb.Comments, Valid: true}
		rating = sql.NullInt64{Int64: int64(fb.Rating), Valid: true}
	}
	if len(rec.Analysis) > 0 {
		analysis = sql.NullString{String: string(rec.Analysis), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_records (analysis_id, rating, comments, analysis, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		analysisID, rating, comments, analysis, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// List returns every record ordered by insertion.
func (s *SQLiteAuditLog) List(ctx context.Context) ([]*models.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT analysis_id, rating, comments, analysis, created_at
		 FROM audit_records ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*models.AuditRecord{}
	for rows.Next() {
		var (
			analysisID, comments, analysis sql.NullString
			rating                         sql.NullInt64
			rec                            models.AuditRecord
		)
		if err := rows.Scan(&analysisID, &rating, &comments, &analysis, &rec.Timestamp); err != nil {
			return nil, err
		}
		if analysisID.Valid {
			rec.Feedback = &models.Feedback{
				AnalysisID: analysisID.String,
				Rating:     int(rating.Int64),
				Comments:   comments.String,
			}
		}
		if analysis.Valid && json.Valid([]byte(analysis.String)) {
			rec.Analysis = json.RawMessage(analysis.String)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Count returns the number of records.
func (s *SQLiteAuditLog) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_records`).Scan(&count)
	return count, err
}

// Path returns the database file path.
func (s *SQLiteAuditLog) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteAuditLog) Close() error {
	return s.db.Close()
}
