package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the portal service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	SimulatedLatency time.Duration
	SeedFile         string
	UnlockTTL        time.Duration
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is folded in first when present.
//
// Every field has a sensible default; values that are present but unparsable
// are reported rather than silently replaced.
func Load() (Config, error) {
	// Missing .env is the common case and not an error.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:portal.db?_foreign_keys=on",
		SimulatedLatency: 500 * time.Millisecond,
		UnlockTTL:        15 * time.Minute,
	}

	invalid := make([]string, 0, 3)

	if portValue := strings.TrimSpace(os.Getenv("PORTAL_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PORTAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PORTAL_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if latencyValue := strings.TrimSpace(os.Getenv("PORTAL_SIMULATED_LATENCY")); latencyValue != "" {
		latency, err := time.ParseDuration(latencyValue)
		if err != nil || latency < 0 {
			invalid = append(invalid, "PORTAL_SIMULATED_LATENCY")
		} else {
			cfg.SimulatedLatency = latency
		}
	}

	if seedFile := strings.TrimSpace(os.Getenv("PORTAL_SEED_FILE")); seedFile != "" {
		cfg.SeedFile = seedFile
	}

	if ttlValue := strings.TrimSpace(os.Getenv("PORTAL_UNLOCK_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "PORTAL_UNLOCK_TTL")
		} else {
			cfg.UnlockTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
