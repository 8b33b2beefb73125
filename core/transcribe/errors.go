package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"autolrc/model"
)

// classifyStatus maps an HTTP failure status to a transcription error kind.
func classifyStatus(status int, body string) *model.TranscriptionError {
	var kind model.TranscriptionErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = model.TranscriptionAuth
	case status == http.StatusTooManyRequests:
		kind = model.TranscriptionRateLimit
	case status == http.StatusRequestEntityTooLarge:
		kind = model.TranscriptionPayloadTooLarge
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(body), "language"):
		kind = model.TranscriptionUnsupportedLang
	case status >= 500:
		kind = model.TranscriptionServer
	default:
		kind = model.TranscriptionMalformed
	}

	return &model.TranscriptionError{
		Kind: kind,
		Err:  fmt.Errorf("http %d: %s", status, truncate(body, 512)),
	}
}

// classifyTransport maps a transport-level failure to a transcription error
// kind. Deadline expiry counts as a timeout, everything else as network.
func classifyTransport(err error) *model.TranscriptionError {
	kind := model.TranscriptionNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = model.TranscriptionTimeout
	}
	return &model.TranscriptionError{Kind: kind, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
