package config

import (
	"strings"
	"testing"
	"time"
)

// clearPipelineEnv blanks the variables Load reads so host environments
// cannot leak into the assertions.
func clearPipelineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "LANGUAGE",
		"MAX_RETRIES", "RETRY_DELAY", "REQUEST_TIMEOUT", "MAX_CHUNK_SECONDS",
		"USE_VOCAL_ISOLATION", "CREATE_LRC", "CREATE_TXT", "CREATE_ELRC",
		"WORKERS", "INPUT_PATH", "OUTPUT_PATH", "REDIS_HOST", "DB_HOST",
		"MINIO_ENDPOINT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearPipelineEnv(t)
	// Empty-string env values still exist, so string fields resolve to "".
	// The typed helpers fall back on parse failure.
	cfg := Load()

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 5*time.Second {
		t.Errorf("RetryDelay = %v, want 5s", cfg.RetryDelay)
	}
	if cfg.MaxChunkSeconds != 600 {
		t.Errorf("MaxChunkSeconds = %v, want 600", cfg.MaxChunkSeconds)
	}
	if !cfg.UseVocalIsolation || !cfg.CreateLRC || !cfg.CreateTXT || cfg.CreateELRC {
		t.Errorf("format defaults = lrc:%v txt:%v elrc:%v isolation:%v",
			cfg.CreateLRC, cfg.CreateTXT, cfg.CreateELRC, cfg.UseVocalIsolation)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	// Blank LANGUAGE is unsupported and falls back to English.
	if cfg.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.Language)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("GEMINI_API_KEY", "key123")
	t.Setenv("LANGUAGE", "Japanese")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("WORKERS", "4")
	t.Setenv("CREATE_ELRC", "true")
	t.Setenv("USE_VOCAL_ISOLATION", "false")

	cfg := Load()
	if cfg.GeminiAPIKey != "key123" {
		t.Errorf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
	if cfg.Language != "ja" {
		t.Errorf("Language = %q, want ja", cfg.Language)
	}
	if cfg.MaxRetries != 5 || cfg.Workers != 4 {
		t.Errorf("MaxRetries = %d, Workers = %d", cfg.MaxRetries, cfg.Workers)
	}
	if !cfg.CreateELRC || cfg.UseVocalIsolation {
		t.Errorf("CreateELRC = %v, UseVocalIsolation = %v", cfg.CreateELRC, cfg.UseVocalIsolation)
	}
}

func TestLoadClampsWorkers(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("WORKERS", "-3")

	if cfg := Load(); cfg.Workers != 1 {
		t.Errorf("Workers = %d, want clamped to 1", cfg.Workers)
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		GeminiAPIKey:    "key",
		MaxRetries:      3,
		MaxChunkSeconds: 600,
		CreateLRC:       true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	missingKey := *valid
	missingKey.GeminiAPIKey = ""
	if err := missingKey.Validate(); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("missing key err = %v", err)
	}

	noFormats := *valid
	noFormats.CreateLRC = false
	if err := noFormats.Validate(); err == nil {
		t.Fatal("expected error with no output formats enabled")
	}

	badRetries := *valid
	badRetries.MaxRetries = 0
	if err := badRetries.Validate(); err == nil {
		t.Fatal("expected error for zero retries")
	}

	badChunk := *valid
	badChunk.MaxChunkSeconds = 0
	if err := badChunk.Validate(); err == nil {
		t.Fatal("expected error for non-positive chunk limit")
	}
}

func TestValidateLanguage(t *testing.T) {
	cases := []struct {
		in   string
		code string
		ok   bool
	}{
		{"English", "en", true},
		{"english", "en", true},
		{"en", "en", true},
		{"Japanese", "ja", true},
		{"ja", "ja", true},
		{"Klingon", "en", false},
		{"", "en", false},
	}
	for _, tc := range cases {
		code, ok := ValidateLanguage(tc.in)
		if code != tc.code || ok != tc.ok {
			t.Errorf("ValidateLanguage(%q) = (%q, %v), want (%q, %v)", tc.in, code, ok, tc.code, tc.ok)
		}
	}
}
