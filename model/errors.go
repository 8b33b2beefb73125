package model

import "fmt"

// DecodeError marks an input file the preprocessor could not decode.
// Fatal for the job.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TranscriptionErrorKind distinguishes failure modes of the remote
// transcription service.
type TranscriptionErrorKind string

const (
	TranscriptionAuth            TranscriptionErrorKind = "auth"
	TranscriptionRateLimit       TranscriptionErrorKind = "rate-limit"
	TranscriptionTimeout         TranscriptionErrorKind = "timeout"
	TranscriptionUnsupportedLang TranscriptionErrorKind = "unsupported-language"
	TranscriptionPayloadTooLarge TranscriptionErrorKind = "payload-too-large"
	TranscriptionMalformed       TranscriptionErrorKind = "malformed-response"
	TranscriptionNetwork         TranscriptionErrorKind = "network"
	TranscriptionServer          TranscriptionErrorKind = "server"
)

// Transient reports whether this kind of failure is worth retrying.
func (k TranscriptionErrorKind) Transient() bool {
	switch k {
	case TranscriptionRateLimit, TranscriptionTimeout, TranscriptionMalformed,
		TranscriptionNetwork, TranscriptionServer:
		return true
	default:
		return false
	}
}

// TranscriptionError is a classified remote transcription failure.
type TranscriptionError struct {
	Kind TranscriptionErrorKind
	Err  error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription (%s): %v", e.Kind, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Transient reports whether the error should be retried.
func (e *TranscriptionError) Transient() bool { return e.Kind.Transient() }

// AlignmentDegraded signals that forced alignment could not produce a
// confident result and timing fell back to uniform distribution. Non-fatal:
// the job completes as PartialDone.
type AlignmentDegraded struct {
	Reason string
}

func (e *AlignmentDegraded) Error() string {
	return fmt.Sprintf("alignment degraded: %s", e.Reason)
}

// OutputError marks a failed write of one output format. Other requested
// formats for the same job are still attempted.
type OutputError struct {
	Format string
	Path   string
	Err    error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write %s output %s: %v", e.Format, e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
