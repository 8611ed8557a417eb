// Package history persists one row per processed file so past runs can be
// inspected through the status server.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Status is the outcome of one file.
type Status string

const (
	StatusEncoded Status = "encoded"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry_run"
	StatusSkipped Status = "skipped"
)

// Stage names the step a failed file stopped at.
type Stage string

const (
	StageNone   Stage = ""
	StageProbe  Stage = "probe"
	StageEncode Stage = "encode"
)

// maxDiagnostic caps the stored stderr tail.
const maxDiagnostic = 4096

// Record is one processed input file.
type Record struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RunID       string    `gorm:"size:36;index" json:"run_id"`
	InputPath   string    `json:"input_path"`
	OutputPath  string    `json:"output_path"`
	Status      Status    `gorm:"size:16;index" json:"status"`
	Stage       Stage     `gorm:"size:16" json:"stage,omitempty"`
	DurationSec float64   `json:"duration_sec"`
	VideoKbps   int       `json:"video_kbps"`
	AudioKbps   int       `json:"audio_kbps"`
	Clamped     bool      `json:"clamped"`
	OutputBytes int64     `json:"output_bytes"`
	Diagnostic  string    `gorm:"type:text" json:"diagnostic,omitempty"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the table name regardless of gorm's pluralization rules.
func (Record) TableName() string { return "encode_history" }

// ErrNoDSN is returned by Open when dsn is empty.
var ErrNoDSN = errors.New("history: empty dsn")

// Store is a gorm-backed history store.
type Store struct {
	db     *gorm.DB
	log    hclog.Logger
	driver string
}

// Open connects to dsn and migrates the schema. DSNs starting with
// postgres:// or postgresql:// use PostgreSQL; anything else is a SQLite
// file path (its parent directory is created).
func Open(dsn string, log hclog.Logger) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoDSN
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	var (
		dialector gorm.Dialector
		driver    string
	)
	if isPostgres(dsn) {
		dialector, driver = postgres.Open(dsn), "postgres"
	} else {
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("history: create dir: %w", err)
			}
		}
		dialector, driver = sqlite.Open(dsn), "sqlite"
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}

	log.Debug("history store ready", "driver", driver)
	return &Store{db: db, log: log, driver: driver}, nil
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// Driver returns "sqlite" or "postgres".
func (s *Store) Driver() string { return s.driver }

// Record inserts r, assigning its ID and CreatedAt.
func (s *Store) Record(ctx context.Context, r *Record) error {
	if len(r.Diagnostic) > maxDiagnostic {
		r.Diagnostic = r.Diagnostic[len(r.Diagnostic)-maxDiagnostic:]
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("history: invalid limit %d", limit)
	}
	var out []Record
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	return out, nil
}

// CountByStatus returns the number of records per status for runID, or for
// all runs when runID is empty.
func (s *Store) CountByStatus(ctx context.Context, runID string) (map[Status]int64, error) {
	type row struct {
		Status Status
		N      int64
	}
	var rows []row
	q := s.db.WithContext(ctx).Model(&Record{}).Select("status, count(*) as n").Group("status")
	if runID != "" {
		q = q.Where("run_id = ?", runID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("history: count: %w", err)
	}
	out := make(map[Status]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
