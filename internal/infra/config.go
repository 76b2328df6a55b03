package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	DatabaseURL       string
	DBMaxConns        int
	DBMinConns        int
	StorageBackend    string
	StoragePath       string
	StorageBaseURL    string
	SupabaseURL       string
	SupabaseKey       string
	SupabaseBucket    string
	GeminiAPIKey      string
	GeminiModelFlash  string
	GeminiModelPro    string
	GeminiModelUltra  string
	ReferenceTimeout  time.Duration
	DispatchWorkers   int
	DispatchQueueSize int
	StaleJobAge       time.Duration
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 1),
		StorageBackend:    getEnv("STORAGE_BACKEND", "filesystem"),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:    getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseKey:       os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:    getEnv("SUPABASE_BUCKET", "generated-assets"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModelFlash:  getEnv("GEMINI_MODEL_FLASH", "gemini-2.5-flash-image"),
		GeminiModelPro:    getEnv("GEMINI_MODEL_PRO", "gemini-2.5-pro"),
		GeminiModelUltra:  getEnv("GEMINI_MODEL_ULTRA", "gemini-2.5-pro"),
		ReferenceTimeout:  time.Second * time.Duration(getEnvInt("REFERENCE_FETCH_TIMEOUT_SECONDS", 10)),
		DispatchWorkers:   getEnvInt("DISPATCH_WORKERS", 4),
		DispatchQueueSize: getEnvInt("DISPATCH_QUEUE_SIZE", 64),
		StaleJobAge:       time.Minute * time.Duration(getEnvInt("STALE_JOB_AGE_MINUTES", 10)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.StorageBackend == "supabase" && (cfg.SupabaseURL == "" || cfg.SupabaseKey == "") {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for supabase storage")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
