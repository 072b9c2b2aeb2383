package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/solatis/tpaconsole/internal/core/config"
)

// Version is the console release reported at startup.
const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "tpaconsole",
	Short: "TPA admin console",
	Long: `tpaconsole serves the TPA rule administration API: it compiles pricing and
combination rule drafts, normalizes dosage and drug eligibility rules, and
forwards evaluations and CRUD traffic to the rules backend.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environment variables win
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		l, err := newLogger(logLevel, logFormat)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger: JSON lines by default, a console
// writer for text.
func newLogger(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	var l zerolog.Logger
	switch format {
	case "json":
		l = zerolog.New(os.Stdout)
	case "text":
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	default:
		return zerolog.Nop(), fmt.Errorf("invalid --log-format %q (expected json or text)", format)
	}
	return l.Level(lvl).With().Timestamp().Str("service", "tpaconsole").Logger(), nil
}

// databaseURL resolves the store location for commands that do not need the
// full console config: --db-url, then TPA_DATABASE_URL, then the default.
func databaseURL() string {
	if dbURL != "" {
		return dbURL
	}
	if env := os.Getenv(config.EnvPrefix + "_DATABASE_URL"); env != "" {
		return env
	}
	return config.DefaultConsoleConfig().DatabaseURL
}

// ensureSQLiteDir creates the parent directory of a sqlite database file.
// Other schemes are left alone.
func ensureSQLiteDir(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "sqlite" {
		return nil
	}
	path := u.Host + u.Path
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return nil
}
