// Package config provides configuration management for the tpaconsole service.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by the console.
const EnvPrefix = "TPA"

// ConsoleConfig holds configuration for the console HTTP and gRPC surfaces.
type ConsoleConfig struct {
	Host           string
	Port           int
	GRPCPort       int
	RequestTimeout time.Duration
	Currency       string
	CORSOrigins    []string
	DatabaseURL    string

	Upstream  UpstreamConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// UpstreamConfig locates the backend API the console fronts.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig configures the rate limiter store. Empty Addr disables rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig bounds requests per client per window.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimitEnabled reports whether rate limiting should be installed.
func (c *ConsoleConfig) RateLimitEnabled() bool {
	return c.Redis.Addr != "" && c.RateLimit.Requests > 0
}

// HTTPAddr returns the host:port the HTTP API binds.
func (c *ConsoleConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCAddr returns the host:port the gRPC rule service binds.
func (c *ConsoleConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// DefaultConsoleConfig returns configuration with default values.
// Upstream.BaseURL has no default; LoadConfig rejects an empty one.
func DefaultConsoleConfig() *ConsoleConfig {
	return &ConsoleConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		GRPCPort:       50051,
		RequestTimeout: 30 * time.Second,
		Currency:       "USD",
		CORSOrigins:    []string{"*"},
		DatabaseURL:    "sqlite://./data/tpaconsole.db",
		Upstream: UpstreamConfig{
			Timeout: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
	}
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports TPA_HMAC_SECRET (single) and TPA_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
// Secret IDs are UUIDv7 (32 hex chars without hyphens) matching API key format.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(name, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check %s_HMAC_SECRET and %s_HMAC_SECRET_* for conflicts)", secretID, EnvPrefix, EnvPrefix)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	single := EnvPrefix + "_HMAC_SECRET"
	if val := os.Getenv(single); val != "" {
		if err := add(single, val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation.
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s_HMAC_SECRET_%d", EnvPrefix, i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecret decodes base64-encoded HMAC secret from environment variable.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}

	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(parts[1])
	if err != nil {
		return "", nil, err
	}

	return secretID, secret, nil
}
