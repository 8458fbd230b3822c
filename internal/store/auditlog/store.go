// Package auditlog keeps a local record of every ingest outcome. A logical
// trade write is several independent remote writes; when one fails partway
// the sheet row is inconsistent, and this log holds the ticket, row and
// failing field needed for manual reconciliation.
package auditlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// EventRecord is one ingest attempt and its outcome.
type EventRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Ticket    string         `gorm:"index" json:"ticket"`
	Action    string         `json:"action"`
	Row       int            `json:"row"`
	Outcome   string         `json:"outcome"`
	Detail    string         `json:"detail,omitempty"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (EventRecord) TableName() string { return "ingest_events" }

// Outcomes recorded per event.
const (
	OutcomeOK        = "ok"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// Store wraps the sqlite-backed audit table.
type Store struct {
	db *gorm.DB
}

// NewStore opens (and migrates) the audit database at path.
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit store requires a path")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening audit store failed: %w", err)
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("migrating audit store failed: %w", err)
	}
	return &Store{db: db}, nil
}

// Append persists one event. A nil store is a no-op so callers can treat
// auditing as optional.
func (s *Store) Append(ctx context.Context, rec EventRecord) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// Recent returns the newest limit events.
func (s *Store) Recent(ctx context.Context, limit int) ([]EventRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var recs []EventRecord
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
