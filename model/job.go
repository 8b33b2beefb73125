package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the stage a job currently occupies in the pipeline.
type JobStatus string

const (
	StatusQueued        JobStatus = "queued"
	StatusPreprocessing JobStatus = "preprocessing"
	StatusTranscribing  JobStatus = "transcribing"
	StatusAligning      JobStatus = "aligning"
	StatusAssembling    JobStatus = "assembling"
	StatusWriting       JobStatus = "writing"
	StatusDone          JobStatus = "done"
	StatusPartialDone   JobStatus = "partial_done"
	StatusFailed        JobStatus = "failed"
)

// Terminal reports whether a status ends the job.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusDone, StatusPartialDone, StatusFailed:
		return true
	default:
		return false
	}
}

// AudioJob is one input file under processing. Immutable after creation.
type AudioJob struct {
	ID                string
	SourcePath        string
	Language          string
	CreateLRC         bool
	CreateTXT         bool
	CreateELRC        bool
	UseVocalIsolation bool
	CreatedAt         time.Time
}

// NewAudioJob creates a job for one source file.
func NewAudioJob(sourcePath, language string, createLRC, createTXT, createELRC, useVocalIsolation bool) AudioJob {
	return AudioJob{
		ID:                uuid.NewString(),
		SourcePath:        sourcePath,
		Language:          language,
		CreateLRC:         createLRC,
		CreateTXT:         createTXT,
		CreateELRC:        createELRC,
		UseVocalIsolation: useVocalIsolation,
		CreatedAt:         time.Now().UTC(),
	}
}
