// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/pkordes/fahrtenbuch/internal/allowance"
	"github.com/pkordes/fahrtenbuch/internal/service"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFormat selects the slog handler: "json" (default) or "text".
	LogFormat string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// ActiveTripPolicy decides what starting a trip does to the vehicle's
	// current active trip. Defaults to supersede.
	ActiveTripPolicy service.ActiveTripPolicy

	// MigrateOnStart applies pending migrations before serving. Defaults to true.
	MigrateOnStart bool

	// ShutdownTimeout bounds the graceful shutdown. Defaults to 15s.
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// Allowance holds the commuter allowance rates. Defaults to
	// allowance.DefaultRates.
	Allowance allowance.Rates
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is read first when present; variables
// already set in the environment win. Returns an error listing any required
// variables that are not set and any values that do not parse.
func Load() (Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MigrateOnStart:  p.bool("MIGRATE_ON_START", true),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		MaxBodyBytes:    int64(p.int("MAX_BODY_BYTES", 1<<20)),
		Allowance: allowance.Rates{
			StandardRate:       p.decimal("ALLOWANCE_STANDARD_RATE", allowance.DefaultRates.StandardRate),
			ExtendedRate:       p.decimal("ALLOWANCE_EXTENDED_RATE", allowance.DefaultRates.ExtendedRate),
			ThresholdKm:        p.decimal("ALLOWANCE_THRESHOLD_KM", allowance.DefaultRates.ThresholdKm),
			DefaultWorkingDays: p.int("ALLOWANCE_WORKING_DAYS", allowance.DefaultRates.DefaultWorkingDays),
		},
	}

	policy, err := service.ParseActiveTripPolicy(os.Getenv("ACTIVE_TRIP_POLICY"))
	if err != nil {
		p.invalid = append(p.invalid, "ACTIVE_TRIP_POLICY")
	}
	cfg.ActiveTripPolicy = policy

	switch cfg.LogFormat {
	case "json", "text":
	default:
		p.invalid = append(p.invalid, "LOG_FORMAT")
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}
	if len(p.invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", ")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser reads typed variables, falling back when unset and remembering the
// names of set variables that fail to parse.
type parser struct {
	invalid []string
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return n
}

func (p *parser) decimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		p.invalid = append(p.invalid, key)
		return fallback
	}
	return d
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
