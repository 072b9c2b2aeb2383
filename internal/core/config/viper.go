package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ConsoleConfig, error) {
	v := viper.New()

	// Defaults match DefaultConsoleConfig
	def := DefaultConsoleConfig()
	v.SetDefault("console.host", def.Host)
	v.SetDefault("console.port", def.Port)
	v.SetDefault("console.grpc_port", def.GRPCPort)
	v.SetDefault("console.request_timeout", def.RequestTimeout.String())
	v.SetDefault("console.currency", def.Currency)
	v.SetDefault("console.cors_origins", def.CORSOrigins)
	v.SetDefault("database.url", def.DatabaseURL)
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.timeout", def.Upstream.Timeout.String())
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.requests", def.RateLimit.Requests)
	v.SetDefault("rate_limit.window", def.RateLimit.Window.String())

	// Bind environment variables with TPA_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ConsoleConfig{
		Host:           v.GetString("console.host"),
		Port:           v.GetInt("console.port"),
		GRPCPort:       v.GetInt("console.grpc_port"),
		RequestTimeout: v.GetDuration("console.request_timeout"),
		Currency:       strings.ToUpper(strings.TrimSpace(v.GetString("console.currency"))),
		CORSOrigins:    splitList(v.GetStringSlice("console.cors_origins")),
		DatabaseURL:    v.GetString("database.url"),
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("upstream.base_url")), "/"),
			Timeout: v.GetDuration("upstream.timeout"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList flattens comma-separated entries; env values arrive as one string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig checks port ranges, positive durations and the upstream URL.
func validateConfig(cfg *ConsoleConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.GRPCPort <= 0 || cfg.GRPCPort > 65535 {
		return fmt.Errorf("grpc_port must be between 1 and 65535, got %d", cfg.GRPCPort)
	}
	if cfg.GRPCPort == cfg.Port {
		return fmt.Errorf("grpc_port must differ from port, both are %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if len(cfg.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", cfg.Currency)
	}
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required (set %s_UPSTREAM_BASE_URL)", EnvPrefix)
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute http(s) URL, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %v", cfg.Upstream.Timeout)
	}
	if cfg.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit.requests must not be negative, got %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %v", cfg.RateLimit.Window)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
// InConfig only inspects the file; IsSet would also match TPA_HMAC_SECRET itself.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("console.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use %s_HMAC_SECRET environment variable)", EnvPrefix)
	}
	return nil
}
