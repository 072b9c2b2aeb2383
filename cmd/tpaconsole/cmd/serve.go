package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/solatis/tpaconsole/internal/core/api"
	"github.com/solatis/tpaconsole/internal/core/auth"
	"github.com/solatis/tpaconsole/internal/core/config"
	"github.com/solatis/tpaconsole/internal/core/db"
	"github.com/solatis/tpaconsole/internal/core/metrics"
	"github.com/solatis/tpaconsole/internal/core/server"
	"github.com/solatis/tpaconsole/internal/core/upstream"
	"github.com/solatis/tpaconsole/internal/factors"
	"github.com/solatis/tpaconsole/internal/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and gRPC rule service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8080, "HTTP port")
	serveCmd.Flags().Int("grpc-port", 50051, "gRPC port")
	serveCmd.Flags().String("upstream", "", "rules backend base URL (overrides upstream.base_url)")
}

// applyServeFlags lets explicitly set flags win over config.
func applyServeFlags(cmd *cobra.Command, cfg *config.ConsoleConfig) {
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("grpc-port") {
		cfg.GRPCPort, _ = cmd.Flags().GetInt("grpc-port")
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// upstream.base_url is required, so a flag value must be visible to LoadConfig
	if cmd.Flags().Changed("upstream") {
		base, _ := cmd.Flags().GetString("upstream")
		if err := os.Setenv(config.EnvPrefix+"_UPSTREAM_BASE_URL", base); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyServeFlags(cmd, cfg)

	if err := ensureSQLiteDir(cfg.DatabaseURL); err != nil {
		return err
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	if pending := db.Pending(statuses); len(pending) > 0 {
		return fmt.Errorf("%d migration(s) not applied (%s) - run 'tpaconsole migrate up' first", len(pending), pending[0])
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	catalog := factors.Default()
	if dups := catalog.Duplicates(); len(dups) > 0 {
		logger.Warn().Strs("keys", dups).Msg("factor catalog has duplicate keys, last definition wins")
	}
	compiler := rules.NewCompiler(catalog, cfg.Currency)
	backend := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	service, err := api.NewService(catalog, compiler, backend, db.NewJournal(queries), logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	proxy, err := api.NewProxy(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create proxy: %w", err)
	}

	m := metrics.New()
	routerCfg := api.RouterConfig{
		Service:     service,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Proxy:       proxy,
		Metrics:     m,
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	var authenticator *auth.Authenticator
	if len(secrets) > 0 {
		authenticator = auth.NewAuthenticator(secrets, queries)
		routerCfg.Auth = authenticator.Middleware(nil)
	} else {
		logger.Warn().Msg("no HMAC secrets configured (set TPA_HMAC_SECRET), API authentication disabled")
	}

	if cfg.RateLimitEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so an unreachable redis only degrades it
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, rate limiting will fail open")
		}
		routerCfg.RateLimit = api.RateLimit(api.NewRedisRateStore(rdb), cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	}

	httpServer, err := server.NewHTTPServer(cfg, api.NewRouter(routerCfg))
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	ruleService, err := server.NewRuleService(compiler)
	if err != nil {
		return fmt.Errorf("failed to create rule service: %w", err)
	}
	grpcServer, err := server.NewGRPCServer(cfg, ruleService, authenticator, m, logger)
	if err != nil {
		return fmt.Errorf("failed to create grpc server: %w", err)
	}

	logger.Info().
		Str("version", Version).
		Str("http", cfg.HTTPAddr()).
		Str("grpc", cfg.GRPCAddr()).
		Str("upstream", cfg.Upstream.BaseURL).
		Bool("auth", authenticator != nil).
		Bool("rate_limit", routerCfg.RateLimit != nil).
		Msg("starting tpaconsole")

	errChan := make(chan error, 2)
	go func() { errChan <- httpServer.Start(ctx) }()
	go func() { errChan <- grpcServer.Start(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-errChan:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if err := grpcServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("grpc shutdown failed")
	}
	return runErr
}
