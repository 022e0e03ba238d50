package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks variables the tests assert on. Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "STORAGE_BACKEND", "STORAGE_FALLBACK", "DATABASE_URL",
		"FIRESTORE_PROJECT_ID", "FIRESTORE_COLLECTION", "NATS_KV_BUCKET", "LLM_PROVIDER",
		"OPENAI_API_KEY", "GENERATION_TIMEOUT", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.ServerPort)
	}
	if cfg.StorageBackend != StorageMemory || !cfg.StorageFallback {
		t.Errorf("unexpected storage defaults: %q fallback=%v", cfg.StorageBackend, cfg.StorageFallback)
	}
	if cfg.LLMProvider != "gemini" || cfg.GenerationTimeout != 30*time.Second {
		t.Errorf("unexpected LLM defaults: %q %v", cfg.LLMProvider, cfg.GenerationTimeout)
	}
	if cfg.RateLimitRequests != 60 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("unexpected rate limit defaults: %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.FirestoreCollection != "chatSessions" || cfg.NATSKVBucket != "chat_sessions" {
		t.Errorf("unexpected collection defaults: %q %q", cfg.FirestoreCollection, cfg.NATSKVBucket)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "9090" || cfg.StorageBackend != StorageRedis {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.APIKey() != "sk-test" {
		t.Errorf("expected openai key, got %q", cfg.APIKey())
	}
	if cfg.GenerationTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.GenerationTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: \"7070\"\nllm_provider: anthropic\nrate_limit_requests: 5\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RATE_LIMIT_REQUESTS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "7070" || cfg.LLMProvider != "anthropic" {
		t.Errorf("file not applied: port=%q provider=%q", cfg.ServerPort, cfg.LLMProvider)
	}
	if cfg.RateLimitRequests != 7 {
		t.Errorf("expected env to win over file, got %d", cfg.RateLimitRequests)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown backend":  {"STORAGE_BACKEND": "cassandra"},
		"unknown provider": {"LLM_PROVIDER": "palm"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// Missing backend credentials are left to the store opener so the
// in-memory fallback can take over.
func TestLoadLeavesBackendCredentialsToOpener(t *testing.T) {
	for _, backend := range []string{StoragePostgres, StorageFirestore} {
		t.Run(backend, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STORAGE_BACKEND", backend)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.StorageBackend != backend {
				t.Errorf("expected backend %q, got %q", backend, cfg.StorageBackend)
			}
		})
	}
}
