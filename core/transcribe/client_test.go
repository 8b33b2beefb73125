package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autolrc/model"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio payload"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func textResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func newTestClient(serverURL string) *Client {
	return NewClient(
		WithKey("test-key"),
		WithBaseURL(serverURL),
		WithRetry(3, time.Millisecond),
	)
}

// TestTranscribeRetriesTransientFailures checks two server errors followed
// by a success produce the transcript after exactly three calls.
func TestTranscribeRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "internal", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, textResponse("hello world\nsecond line"))
	}))
	defer srv.Close()

	transcript, err := newTestClient(srv.URL).Transcribe(context.Background(), writeTestAudio(t), 30, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if transcript.Text != "hello world\nsecond line" {
		t.Fatalf("text = %q", transcript.Text)
	}
}

// TestTranscribeAuthFailureIsFinal checks a 401 is surfaced immediately
// without retries.
func TestTranscribeAuthFailureIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transcribe(context.Background(), writeTestAudio(t), 30, "en")
	if err == nil {
		t.Fatal("expected error")
	}
	var terr *model.TranscriptionError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T", err)
	}
	if terr.Kind != model.TranscriptionAuth {
		t.Fatalf("kind = %q, want auth", terr.Kind)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on auth failure)", got)
	}
}

// TestTranscribeExhaustsRetries checks a persistent server failure returns
// the last transient error after the attempt budget.
func TestTranscribeExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transcribe(context.Background(), writeTestAudio(t), 30, "en")
	if err == nil {
		t.Fatal("expected error")
	}
	var terr *model.TranscriptionError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T", err)
	}
	if terr.Kind != model.TranscriptionServer {
		t.Fatalf("kind = %q, want server", terr.Kind)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

// TestTranscribeNoSpeech checks the marker response maps to an empty
// transcript and a nil error.
func TestTranscribeNoSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse("NO_SPEECH"))
	}))
	defer srv.Close()

	transcript, err := newTestClient(srv.URL).Transcribe(context.Background(), writeTestAudio(t), 30, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !transcript.Empty() {
		t.Fatalf("transcript = %q, want empty", transcript.Text)
	}
}

// TestTranscribeMissingKey checks the client fails fast with an auth error
// before any request is sent.
func TestTranscribeMissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	client := NewClient(WithBaseURL("http://127.0.0.1:1"))

	_, err := client.Transcribe(context.Background(), writeTestAudio(t), 30, "en")
	var terr *model.TranscriptionError
	if !errors.As(err, &terr) || terr.Kind != model.TranscriptionAuth {
		t.Fatalf("err = %v, want auth TranscriptionError", err)
	}
}

// TestTranscribeRequestShape checks the request carries the API key header,
// the language prompt and the base64 audio payload.
func TestTranscribeRequestShape(t *testing.T) {
	var gotKey, gotPath string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, textResponse("la la"))
	}))
	defer srv.Close()

	client := NewClient(
		WithKey("secret"),
		WithBaseURL(srv.URL),
		WithModel("test-model"),
		WithRetry(1, time.Millisecond),
	)
	if _, err := client.Transcribe(context.Background(), writeTestAudio(t), 30, "ja"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if gotKey != "secret" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if !strings.Contains(gotPath, "test-model:generateContent") {
		t.Fatalf("path = %q", gotPath)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 2 {
		t.Fatalf("request shape = %+v", gotBody)
	}
	if !strings.Contains(gotBody.Contents[0].Parts[0].Text, `"ja"`) {
		t.Fatalf("prompt missing language: %q", gotBody.Contents[0].Parts[0].Text)
	}
	if gotBody.Contents[0].Parts[1].InlineData == nil ||
		gotBody.Contents[0].Parts[1].InlineData.MimeType != "audio/wav" {
		t.Fatalf("inline audio missing: %+v", gotBody.Contents[0].Parts[1])
	}
}

// TestTranscribeEmptyResponseIsMalformed checks a blank transcript (as
// opposed to the no-speech marker) is treated as a malformed response.
func TestTranscribeEmptyResponseIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse("  "))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Transcribe(context.Background(), writeTestAudio(t), 30, "en")
	var terr *model.TranscriptionError
	if !errors.As(err, &terr) || terr.Kind != model.TranscriptionMalformed {
		t.Fatalf("err = %v, want malformed TranscriptionError", err)
	}
}
