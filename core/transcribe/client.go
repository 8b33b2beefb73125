package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autolrc/core/audio"
	"autolrc/logger"
	"autolrc/model"
)

const (
	// DefaultBaseURL is the generative language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is the transcription model used when none is configured.
	DefaultModel = "gemini-2.0-flash"

	// noSpeechMarker is what the model is instructed to return for audio
	// without any vocals. Mapped to an empty transcript, not an error.
	noSpeechMarker = "NO_SPEECH"
)

// Client sends audio to the remote transcription service and returns the
// transcript text, retrying transient failures with exponential backoff.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration

	// Chunking support for audio longer than the service accepts.
	processor       audio.Processor
	maxChunkSeconds float64
	tempDir         string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithKey sets the API key.
func WithKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithModel sets the transcription model name.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRetry sets the maximum attempt count and the base backoff delay.
func WithRetry(maxRetries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// WithChunking enables splitting of oversized audio using the given
// processor for silence detection and slicing.
func WithChunking(processor audio.Processor, maxSeconds float64, tempDir string) ClientOption {
	return func(c *Client) {
		c.processor = processor
		c.maxChunkSeconds = maxSeconds
		c.tempDir = tempDir
	}
}

// NewClient creates a transcription client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		model:           DefaultModel,
		maxRetries:      3,
		retryDelay:      5 * time.Second,
		maxChunkSeconds: 600,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return c
}

// Transcribe returns the transcript text for the canonical WAV at audioPath.
// Audio longer than the configured chunk limit is split at detected-silence
// boundaries and the per-chunk texts are concatenated in temporal order.
// "No speech detected" yields an empty transcript and a nil error.
func (c *Client) Transcribe(ctx context.Context, audioPath string, durationSec float64, language string) (model.Transcript, error) {
	if c.apiKey == "" {
		return model.Transcript{}, &model.TranscriptionError{
			Kind: model.TranscriptionAuth,
			Err:  fmt.Errorf("missing API key"),
		}
	}

	if c.processor == nil || durationSec <= c.maxChunkSeconds {
		text, err := c.transcribeOnce(ctx, audioPath, language)
		if err != nil {
			return model.Transcript{}, err
		}
		return model.Transcript{Text: text}, nil
	}

	silences, err := c.processor.DetectSilences(ctx, audioPath, 0.5)
	if err != nil {
		logger.Warn("silence detection failed, cutting chunks at the duration limit",
			logger.ErrorField(err))
		silences = nil
	}

	chunks := PlanChunks(durationSec, c.maxChunkSeconds, silences)
	logger.Info("audio exceeds single-request limit, transcribing in chunks",
		logger.String("file", audioPath),
		logger.Int("chunks", len(chunks)))

	var parts []string
	for i, chunk := range chunks {
		chunkPath := filepath.Join(c.tempDir,
			fmt.Sprintf("%s_chunk%02d.wav", strings.TrimSuffix(filepath.Base(audioPath), ".wav"), i))
		if err := c.processor.Slice(ctx, audioPath, chunkPath, chunk.From, chunk.To); err != nil {
			return model.Transcript{}, &model.TranscriptionError{
				Kind: model.TranscriptionMalformed,
				Err:  fmt.Errorf("slice chunk %d: %w", i, err),
			}
		}

		text, err := c.transcribeOnce(ctx, chunkPath, language)
		_ = os.Remove(chunkPath)
		if err != nil {
			return model.Transcript{}, err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return model.Transcript{Text: strings.Join(parts, "\n")}, nil
}

// transcribeOnce performs one transcription request with bounded retries.
func (c *Client) transcribeOnce(ctx context.Context, audioPath, language string) (string, error) {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return "", &model.TranscriptionError{Kind: model.TranscriptionMalformed, Err: err}
	}

	var lastErr *model.TranscriptionError
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * (1 << (attempt - 1))
			logger.Info("retrying transcription",
				logger.Int("attempt", attempt+1),
				logger.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", &model.TranscriptionError{Kind: model.TranscriptionTimeout, Err: ctx.Err()}
			}
		}

		text, terr := c.request(ctx, audioData, language)
		if terr == nil {
			return text, nil
		}
		if !terr.Transient() {
			return "", terr
		}
		lastErr = terr
		logger.Warn("transient transcription failure",
			logger.String("kind", string(terr.Kind)),
			logger.Int("attempt", attempt+1),
			logger.ErrorField(terr))
	}

	return "", lastErr
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// request performs exactly one generateContent call.
func (c *Client) request(ctx context.Context, audioData []byte, language string) (string, *model.TranscriptionError) {
	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: transcriptionPrompt(language)},
				{InlineData: &inlineData{
					MimeType: "audio/wav",
					Data:     base64.StdEncoding.EncodeToString(audioData),
				}},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &model.TranscriptionError{Kind: model.TranscriptionMalformed, Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.baseURL, "/"), c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &model.TranscriptionError{Kind: model.TranscriptionMalformed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", classifyStatus(resp.StatusCode, string(b))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", &model.TranscriptionError{Kind: model.TranscriptionMalformed, Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", &model.TranscriptionError{
			Kind: model.TranscriptionMalformed,
			Err:  fmt.Errorf("response contains no candidates"),
		}
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())

	if text == noSpeechMarker {
		return "", nil
	}
	if text == "" {
		return "", &model.TranscriptionError{
			Kind: model.TranscriptionMalformed,
			Err:  fmt.Errorf("response contains empty transcript"),
		}
	}
	return text, nil
}

// transcriptionPrompt builds the instruction block sent alongside the audio.
func transcriptionPrompt(language string) string {
	return fmt.Sprintf(`You are a highly skilled and meticulous transcription specialist, fluent in the language with ISO 639-1 code %q. Your sole task is to transcribe the sung or spoken lyrics in the audio.
Transcription: Carefully listen to the audio and create a complete and accurate transcription of the lyrics, one line per lyric line.
Output: You will ONLY provide the complete plain text transcript. Do not include any introductory text, timestamps, explanations, or markdown formatting.
If the audio contains no singing or speech at all, output exactly %s and nothing else.
Double-check for spelling errors and accurate script.
Begin!`, language, noSpeechMarker)
}
