package sink

import (
	"context"

	"github.com/glebarez/sqlite"
	"github.com/itohio/voltlog/pkg/sample"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var _ Sink = (*SQLite)(nil)

// Reading is one logged sample.
type Reading struct {
	ID      uint    `gorm:"primaryKey"`
	RunID   int64   `gorm:"index;not null"`
	Time    float64 `gorm:"not null"`
	Voltage float64
}

// SQLite is a durable log that keeps every run in one database, keyed by run id.
type SQLite struct {
	db    *gorm.DB
	runID int64
}

// NewSQLite opens (or creates) the database and migrates the schema.
func NewSQLite(filename string, runID int64) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	if err := db.AutoMigrate(&Reading{}); err != nil {
		return nil, errors.Wrap(err, "migrate readings")
	}

	return &SQLite{db: db, runID: runID}, nil
}

func (s *SQLite) Name() string {
	return "sqlite"
}

// RunID returns the id rows of this run are stored under.
func (s *SQLite) RunID() int64 {
	return s.runID
}

// Write inserts one row.
func (s *SQLite) Write(ctx context.Context, smp sample.Sample) error {
	tx := s.db.WithContext(ctx).Create(&Reading{
		RunID:   s.runID,
		Time:    smp.Time,
		Voltage: smp.Value,
	})
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "insert reading")
	}
	return nil
}

// Readings returns the rows of a run ordered by time.
func (s *SQLite) Readings(runID int64) ([]Reading, error) {
	var rows []Reading
	tx := s.db.Where("run_id = ?", runID).Order("time asc, id asc").Find(&rows)
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "find")
	}
	return rows, nil
}

// Runs returns the distinct run ids in the database.
func (s *SQLite) Runs() ([]int64, error) {
	var result []int64
	tx := s.db.Model(&Reading{}).Distinct("run_id").Order("run_id asc").Pluck("run_id", &result)
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "get distinct run ids")
	}
	return result, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get connection")
	}
	return sqlDB.Close()
}
