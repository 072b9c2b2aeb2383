package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestAcceptanceCriteria verifies the configuration contract end to end.
func TestAcceptanceCriteria(t *testing.T) {
	t.Run("AC1: Environment variable TPA_HMAC_SECRET accessible via HMACSecrets", func(t *testing.T) {
		t.Setenv("TPA_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("AC1 FAIL: HMACSecrets error: %v", err)
		}
		if _, ok := secrets["0123456789abcdef0123456789abcdef"]; !ok {
			t.Fatal("AC1 FAIL: Secret not accessible")
		}
	})

	t.Run("AC2: Config file with hmac_secret rejected with clear error", func(t *testing.T) {
		path := writeConfig(t, `console:
  host: "localhost"
  port: 8080
  hmac_secret: "should_be_rejected"
upstream:
  base_url: "https://backend.example.com"
`)

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("AC2 FAIL: Expected error for secret in config file")
		}
		if err.Error() != "HMAC secrets not allowed in config files (use TPA_HMAC_SECRET environment variable)" {
			t.Fatalf("AC2 FAIL: Wrong error message: %v", err)
		}
	})

	t.Run("AC2b: HMAC secret in environment does not trip the config file check", func(t *testing.T) {
		t.Setenv("TPA_HMAC_SECRET", "0123456789abcdef0123456789abcdef:dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")
		t.Setenv("TPA_UPSTREAM_BASE_URL", "https://backend.example.com")

		if _, err := LoadConfig(""); err != nil {
			t.Fatalf("AC2b FAIL: LoadConfig error: %v", err)
		}
	})

	t.Run("AC3: Environment overrides config file", func(t *testing.T) {
		path := writeConfig(t, `console:
  port: 9090
  currency: EUR
upstream:
  base_url: "https://file.example.com"
  timeout: 5s
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("AC3 FAIL: LoadConfig error: %v", err)
		}
		if cfg.Port != 9090 || cfg.Currency != "EUR" || cfg.Upstream.BaseURL != "https://file.example.com" {
			t.Fatalf("AC3 FAIL: file values not applied: %+v", cfg)
		}

		t.Setenv("TPA_CONSOLE_PORT", "8081")
		t.Setenv("TPA_UPSTREAM_BASE_URL", "https://env.example.com")

		cfg, err = LoadConfig(path)
		if err != nil {
			t.Fatalf("AC3 FAIL: LoadConfig error: %v", err)
		}
		if cfg.Port != 8081 {
			t.Fatalf("AC3 FAIL: Environment should override config file. Expected 8081, got %d", cfg.Port)
		}
		if cfg.Upstream.BaseURL != "https://env.example.com" {
			t.Fatalf("AC3 FAIL: Expected env upstream, got %s", cfg.Upstream.BaseURL)
		}
		if cfg.Currency != "EUR" {
			t.Fatalf("AC3 FAIL: Unset env must keep file value, got %s", cfg.Currency)
		}
	})

	t.Run("AC4: Unreadable config file is a load error", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatal("AC4 FAIL: Expected error for missing config file")
		}
	})
}
