package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.StorageBackend != "filesystem" {
		t.Fatalf("StorageBackend mismatch: got %q", cfg.StorageBackend)
	}
	if cfg.DispatchWorkers != 4 || cfg.DispatchQueueSize != 64 {
		t.Fatalf("dispatch defaults mismatch: %d workers, queue %d", cfg.DispatchWorkers, cfg.DispatchQueueSize)
	}
	if cfg.StaleJobAge != 10*time.Minute {
		t.Fatalf("StaleJobAge mismatch: %v", cfg.StaleJobAge)
	}
	if cfg.DBMaxConns != 10 || cfg.DBMinConns != 1 {
		t.Fatalf("pool defaults mismatch: max %d min %d", cfg.DBMaxConns, cfg.DBMinConns)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig should fail without DATABASE_URL")
	}
}

func TestLoadConfigSupabaseRequiresCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("STORAGE_BACKEND", "supabase")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig should fail for supabase storage without credentials")
	}

	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.SupabaseBucket != "generated-assets" {
		t.Fatalf("SupabaseBucket mismatch: got %q", cfg.SupabaseBucket)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("DISPATCH_WORKERS", "8")
	t.Setenv("REFERENCE_FETCH_TIMEOUT_SECONDS", "3")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DispatchWorkers != 8 {
		t.Fatalf("DispatchWorkers mismatch: %d", cfg.DispatchWorkers)
	}
	if cfg.ReferenceTimeout != 3*time.Second {
		t.Fatalf("ReferenceTimeout mismatch: %v", cfg.ReferenceTimeout)
	}
	if cfg.RateLimitPerMin != 120 {
		t.Fatalf("RateLimitPerMin mismatch: %d", cfg.RateLimitPerMin)
	}
}
