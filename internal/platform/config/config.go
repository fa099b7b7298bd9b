// Package config builds per-service configuration from environment
// variables. Each service reads its struct once in main and passes it by
// reference; nothing looks up the environment past startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Gateway configures the orchestration gateway.
type Gateway struct {
	Addr        string
	IdentityURL string
	EvidenceURL string
	LedgerURL   string
	// DatabaseURL is optional; when set the gateway persists its audit
	// trail, otherwise events stay in memory.
	DatabaseURL string
}

// GatewayFromEnv builds the gateway config.
func GatewayFromEnv() (*Gateway, error) {
	cfg := &Gateway{
		Addr:        getEnv("GATEWAY_ADDR", ":8080"),
		IdentityURL: os.Getenv("IDENTITY_URL"),
		EvidenceURL: os.Getenv("EVIDENCE_URL"),
		LedgerURL:   os.Getenv("LEDGER_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	if err := required(map[string]string{
		"IDENTITY_URL": cfg.IdentityURL,
		"EVIDENCE_URL": cfg.EvidenceURL,
		"LEDGER_URL":   cfg.LedgerURL,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Identity configures the identity authority.
type Identity struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	TokenTTL      time.Duration
	// Login throttle: above MaxFailures within Window, logins for that
	// email are refused before any credential comparison.
	LoginMaxFailures   int
	LoginFailureWindow time.Duration
}

// IdentityFromEnv builds the identity service config.
func IdentityFromEnv() (*Identity, error) {
	cfg := &Identity{
		Addr:               getEnv("IDENTITY_ADDR", ":8081"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		TokenTTL:           getEnvDuration("IDENTITY_TOKEN_TTL", 60*time.Minute),
		LoginMaxFailures:   getEnvInt("LOGIN_MAX_FAILURES", 10),
		LoginFailureWindow: getEnvDuration("LOGIN_FAILURE_WINDOW", 15*time.Minute),
	}
	if err := required(map[string]string{
		"DATABASE_URL":    cfg.DatabaseURL,
		"JWT_SIGNING_KEY": cfg.JWTSigningKey,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Evidence configures the evidence store gateway.
type Evidence struct {
	Addr           string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// EvidenceFromEnv builds the evidence service config.
func EvidenceFromEnv() (*Evidence, error) {
	cfg := &Evidence{
		Addr:           getEnv("EVIDENCE_ADDR", ":8082"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "attendance-evidence"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
	}
	if err := required(map[string]string{
		"MINIO_ENDPOINT":   cfg.MinioEndpoint,
		"MINIO_ACCESS_KEY": cfg.MinioAccessKey,
		"MINIO_SECRET_KEY": cfg.MinioSecretKey,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Ledger configures the attendance ledger service.
type Ledger struct {
	Addr        string
	DatabaseURL string
	// IdentityURL is needed only when EnforceGeofence is on: the ledger
	// resolves the caller's designated area before committing a check-in.
	IdentityURL     string
	EnforceGeofence bool
	GeofenceRadiusM float64
}

// LedgerFromEnv builds the ledger service config.
func LedgerFromEnv() (*Ledger, error) {
	cfg := &Ledger{
		Addr:            getEnv("LEDGER_ADDR", ":8083"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		IdentityURL:     os.Getenv("IDENTITY_URL"),
		EnforceGeofence: getEnvBool("LEDGER_ENFORCE_GEOFENCE", true),
		GeofenceRadiusM: getEnvFloat("GEOFENCE_RADIUS_M", 100),
	}
	if err := required(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
	}); err != nil {
		return nil, err
	}
	if cfg.EnforceGeofence && cfg.IdentityURL == "" {
		return nil, fmt.Errorf("IDENTITY_URL is required when LEDGER_ENFORCE_GEOFENCE is on")
	}
	return cfg, nil
}

func required(vars map[string]string) error {
	var missing []string
	for name, value := range vars {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
