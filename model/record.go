package model

import "time"

// JobRecord is the persisted form of a PipelineResult, one row per processed
// file. Only written when the optional job-history database is configured.
type JobRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	JobID        string    `gorm:"type:varchar(36);index"`
	SourcePath   string    `gorm:"type:varchar(512)"`
	Status       string    `gorm:"type:varchar(32);index"`
	FailedStage  string    `gorm:"type:varchar(32)"`
	Reason       string    `gorm:"type:text"`
	OutputPaths  string    `gorm:"type:text"` // newline-joined
	Degradations string    `gorm:"type:text"` // newline-joined
	DurationMs   int64     `gorm:"column:duration_ms"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName pins the table name regardless of gorm pluralization settings.
func (JobRecord) TableName() string { return "job_records" }
