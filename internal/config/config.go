package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr         string
	DatabaseURL  string
	JWTSecret    string
	TokenTTL     time.Duration
	SeedProducts bool
	StaticDir    string
}

// Load reads configuration from environment variables.
func Load() Config {
	addr := os.Getenv("PORT")
	if addr == "" {
		addr = "8080"
	}

	ttlHours := 168 // 7 days, the lifetime the frontend expects for its stored token
	if v := os.Getenv("JWT_EXPIRE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttlHours = n
		}
	}

	return Config{
		Addr:         ":" + addr,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TokenTTL:     time.Duration(ttlHours) * time.Hour,
		SeedProducts: os.Getenv("SEED_PRODUCTS") == "1",
		StaticDir:    os.Getenv("STATIC_DIR"),
	}
}
