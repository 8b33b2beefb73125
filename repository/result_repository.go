package repository

import (
	"strings"

	"gorm.io/gorm"

	"autolrc/model"
)

// ResultRepository persists per-job outcomes for cross-run reporting.
// A nil *ResultRepository is a no-op.
type ResultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates the repository and migrates its table.
// Returns nil when the database is disabled.
func NewResultRepository(gdb *gorm.DB) (*ResultRepository, error) {
	if gdb == nil {
		return nil, nil
	}
	if err := gdb.AutoMigrate(&model.JobRecord{}); err != nil {
		return nil, err
	}
	return &ResultRepository{db: gdb}, nil
}

// Save stores one pipeline result.
func (r *ResultRepository) Save(result model.PipelineResult) error {
	if r == nil || r.db == nil {
		return nil
	}

	record := model.JobRecord{
		JobID:        result.JobID,
		SourcePath:   result.SourcePath,
		Status:       string(result.Status),
		FailedStage:  string(result.FailedStage),
		Reason:       result.Reason,
		OutputPaths:  strings.Join(result.OutputPaths, "\n"),
		Degradations: strings.Join(result.Degradations, "\n"),
		DurationMs:   result.Duration.Milliseconds(),
	}
	return r.db.Create(&record).Error
}

// RecentFailures returns the most recent failed records, newest first.
func (r *ResultRepository) RecentFailures(limit int) ([]model.JobRecord, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	var records []model.JobRecord
	err := r.db.
		Where("status = ?", string(model.StatusFailed)).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
