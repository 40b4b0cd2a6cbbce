package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_EXPIRE_HOURS", "")
	t.Setenv("SEED_PRODUCTS", "")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("default addr %q, want :8080", cfg.Addr)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Fatalf("default token TTL %v, want 168h", cfg.TokenTTL)
	}
	if cfg.SeedProducts {
		t.Fatalf("seeding must be off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRE_HOURS", "24")
	t.Setenv("SEED_PRODUCTS", "1")

	cfg := Load()
	if cfg.Addr != ":9000" {
		t.Fatalf("addr %q, want :9000", cfg.Addr)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("token TTL %v, want 24h", cfg.TokenTTL)
	}
	if !cfg.SeedProducts {
		t.Fatalf("seeding flag not read")
	}
}
