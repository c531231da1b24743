//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "salami.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Run is one stored evaluation with its aggregate score.
type Run struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Source       string `gorm:"index:idx_run_source"`
	Granularity  string
	Selection    string
	Tolerance    float64
	EstimateHits int
	TruthHits    int
	Estimates    int
	Truths       int
	Precision    float64
	Recall       float64
	FMeasure     float64
	MeanF        float64
	StdDevF      float64
	TrackCount   int
	Skipped      []int         `gorm:"serializer:json"`
	Tracks       []TrackResult `gorm:"foreignKey:RunID"`
	CreatedAt    time.Time     `gorm:"index:idx_run_created"`
}

// TrackResult is the single-track score of one track within a run.
type TrackResult struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"type:varchar(36);index:idx_track_run"`
	TrackID      int    `gorm:"index:idx_track_id"`
	EstimateHits int
	TruthHits    int
	Estimates    int
	Truths       int
	Precision    float64
	Recall       float64
	FMeasure     float64
	Degenerate   bool
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SALAMI_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Run{}, &TrackResult{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// CreateRun stores run and its track results in one transaction. An empty
// run ID is replaced with a new UUID.
func (c *DBClient) CreateRun(run *Run) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	for i := range run.Tracks {
		run.Tracks[i].RunID = run.ID
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tracks").Create(run).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		if len(run.Tracks) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(run.Tracks, 500).Error; err != nil {
			return fmt.Errorf("batch insert track results: %w", err)
		}
		return nil
	})
}

// GetRun loads a run with its track results ordered by track ID.
func (c *DBClient) GetRun(runID string) (*Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var run Run
	err := c.DB.Preload("Tracks", func(db *gorm.DB) *gorm.DB {
		return db.Order("track_id ASC")
	}).Where("id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all runs without track results, newest first.
func (c *DBClient) ListRuns() ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var runs []Run
	if err := c.DB.Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// TrackHistory returns every stored result for one SALAMI track.
func (c *DBClient) TrackHistory(trackID int) ([]TrackResult, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []TrackResult
	if err := c.DB.Where("track_id = ?", trackID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying track results: %w", err)
	}
	return rows, nil
}

// DeleteRun removes a run and its track results. gorm.ErrRecordNotFound is
// returned when no such run exists.
func (c *DBClient) DeleteRun(runID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&TrackResult{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", runID).Delete(&Run{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
