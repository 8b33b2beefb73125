package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally seeded by a .env file) with sensible defaults.
type Config struct {
	// Transcription service
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	Language       string // ISO code, validated against SupportedLanguages
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	// Audio longer than this is split into sequential sub-requests.
	MaxChunkSeconds float64

	// Pipeline behavior
	UseVocalIsolation bool
	CreateLRC         bool
	CreateTXT         bool
	CreateELRC        bool
	Workers           int
	AlignTimeout      time.Duration

	// Paths and external binaries
	InputPath         string
	OutputPath        string
	LogsPath          string
	TempDir           string
	FFmpegPath        string
	DemucsPath        string
	EmissionModelPath string // helper binary producing acoustic emissions

	// Optional transcript cache (enabled when RedisHost is set)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Optional artifact publication (enabled when MinioEndpoint is set)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Logging
	LogLevel string

	// Optional job history (enabled when DBHost is set)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	cfg := &Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		Language:        getEnv("LANGUAGE", "English"),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		RetryDelay:      time.Duration(getEnvInt("RETRY_DELAY", 5)) * time.Second,
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT", 300)) * time.Second,
		MaxChunkSeconds: getEnvFloat("MAX_CHUNK_SECONDS", 600),

		UseVocalIsolation: getEnvBool("USE_VOCAL_ISOLATION", true),
		CreateLRC:         getEnvBool("CREATE_LRC", true),
		CreateTXT:         getEnvBool("CREATE_TXT", true),
		CreateELRC:        getEnvBool("CREATE_ELRC", false),
		Workers:           getEnvInt("WORKERS", 1),
		AlignTimeout:      time.Duration(getEnvInt("ALIGN_TIMEOUT", 600)) * time.Second,

		InputPath:         getEnv("INPUT_PATH", "./input"),
		OutputPath:        getEnv("OUTPUT_PATH", "./output"),
		LogsPath:          getEnv("LOGS_PATH", "./logs"),
		TempDir:           getEnv("TEMP_DIR", os.TempDir()),
		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		DemucsPath:        getEnv("DEMUCS_PATH", "demucs"),
		EmissionModelPath: getEnv("EMISSION_MODEL_PATH", "w2v2-emissions"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_HOURS", 720)) * time.Hour,

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "autolrc"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "autolrc"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "autolrc"),
	}

	code, ok := ValidateLanguage(cfg.Language)
	if !ok {
		log.Printf("Unsupported language %q, defaulting to English.", cfg.Language)
	}
	cfg.Language = code

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg
}

// Validate checks settings that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set; create a .env file with GEMINI_API_KEY=your_api_key")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	if c.MaxChunkSeconds <= 0 {
		return fmt.Errorf("MAX_CHUNK_SECONDS must be positive, got %v", c.MaxChunkSeconds)
	}
	if !c.CreateLRC && !c.CreateTXT && !c.CreateELRC {
		return fmt.Errorf("at least one of CREATE_LRC, CREATE_TXT, CREATE_ELRC must be enabled")
	}
	return nil
}
