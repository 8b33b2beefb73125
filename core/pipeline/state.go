package pipeline

import (
	"fmt"

	"autolrc/model"
)

// ValidTransition enforces the allowed job state machine edges. Stages are
// strictly sequential except the empty-transcript short circuit
// (Transcribing -> Writing) and the failure sink reachable from any
// non-terminal state.
func ValidTransition(from, to model.JobStatus) bool {
	if to == model.StatusFailed {
		return !from.Terminal()
	}
	switch from {
	case model.StatusQueued:
		return to == model.StatusPreprocessing
	case model.StatusPreprocessing:
		return to == model.StatusTranscribing
	case model.StatusTranscribing:
		return to == model.StatusAligning || to == model.StatusWriting
	case model.StatusAligning:
		return to == model.StatusAssembling || to == model.StatusPartialDone
	case model.StatusAssembling:
		return to == model.StatusWriting || to == model.StatusPartialDone
	case model.StatusWriting:
		return to == model.StatusDone || to == model.StatusPartialDone
	default:
		return false
	}
}

// jobState tracks one job's position in the machine.
type jobState struct {
	status model.JobStatus
}

func newJobState() *jobState {
	return &jobState{status: model.StatusQueued}
}

// advance applies a transition, rejecting illegal edges.
func (s *jobState) advance(to model.JobStatus) error {
	if !ValidTransition(s.status, to) {
		return fmt.Errorf("invalid transition: %s -> %s", s.status, to)
	}
	s.status = to
	return nil
}
