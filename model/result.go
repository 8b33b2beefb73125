package model

import "time"

// PipelineResult is the per-job outcome consumed by the batch summary.
type PipelineResult struct {
	JobID        string
	SourcePath   string
	Status       JobStatus // one of the terminal statuses
	FailedStage  JobStatus // stage where a fatal error occurred, if any
	Reason       string
	OutputPaths  []string
	Degradations []string // non-fatal warnings (isolation fallback, uniform timing)
	Duration     time.Duration
}

// Failed reports whether the job ended in the failure sink.
func (r PipelineResult) Failed() bool {
	return r.Status == StatusFailed
}

// BatchSummary aggregates results across one batch run.
type BatchSummary struct {
	Total       int
	Done        int
	PartialDone int
	Failed      int
}

// Add folds one result into the summary.
func (s *BatchSummary) Add(r PipelineResult) {
	s.Total++
	switch r.Status {
	case StatusDone:
		s.Done++
	case StatusPartialDone:
		s.PartialDone++
	case StatusFailed:
		s.Failed++
	}
}
