package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	embeddedmigrations "github.com/solatis/tpaconsole/migrations"
)

/*
 * Schema migrations
 *
 * Scripts are embedded per dialect and applied in file name order, each in
 * its own transaction together with its schema_migrations row. The row keeps
 * the script's SHA-256 so an edited script that was already applied is
 * refused instead of silently diverging.
 *
 * applied_at is RFC 3339 text in both dialects.
 */

const trackingTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	applied_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
)`

// MigrationStatus is one embedded script and, if applied, its tracking row.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// script is an embedded migration file.
type script struct {
	version  string
	checksum string
	body     string
}

// appliedRow is a schema_migrations row.
type appliedRow struct {
	Version    string `db:"version"`
	Checksum   string `db:"checksum"`
	AppliedAt  string `db:"applied_at"`
	DurationMs int64  `db:"duration_ms"`
}

// migrator binds the embedded scripts of one dialect to a connection.
type migrator struct {
	db      *sqlx.DB
	scripts []script
}

func newMigrator(db *sqlx.DB) (*migrator, error) {
	fsys, err := scriptsFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	scripts, err := loadScripts(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	if _, err := db.Exec(trackingTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return &migrator{db: db, scripts: scripts}, nil
}

// scriptsFor returns the script directory of a driver as an fs.FS rooted at it.
func scriptsFor(driver string) (fs.FS, error) {
	switch driver {
	case driverSQLite:
		return fs.Sub(embeddedmigrations.SqliteMigrations, "sqlite")
	case driverPostgres:
		return fs.Sub(embeddedmigrations.PostgresMigrations, "postgres")
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func loadScripts(fsys fs.FS) ([]script, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	scripts := make([]script, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		sum := sha256.Sum256(body)
		scripts = append(scripts, script{
			version:  path.Base(name),
			checksum: hex.EncodeToString(sum[:]),
			body:     string(body),
		})
	}
	return scripts, nil
}

// applied loads the tracking rows keyed by version.
func (m *migrator) applied() (map[string]appliedRow, error) {
	var rows []appliedRow
	if err := m.db.Select(&rows, "SELECT version, checksum, applied_at, duration_ms FROM schema_migrations"); err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	out := make(map[string]appliedRow, len(rows))
	for _, r := range rows {
		out[r.Version] = r
	}
	return out, nil
}

// verify refuses tracking rows that no longer match an embedded script.
func (m *migrator) verify(applied map[string]appliedRow) error {
	known := make(map[string]string, len(m.scripts))
	for _, s := range m.scripts {
		known[s.version] = s.checksum
	}
	for version, row := range applied {
		want, ok := known[version]
		if !ok {
			return fmt.Errorf("migration %s is applied but not embedded in this build", version)
		}
		if row.Checksum != want {
			return fmt.Errorf("checksum mismatch for migration %s: embedded %s, applied %s", version, want, row.Checksum)
		}
	}
	return nil
}

func (m *migrator) apply(s script) error {
	start := time.Now()

	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", s.version, err)
	}
	defer tx.Rollback()

	// lib/pq runs one statement per Exec
	for _, stmt := range splitStatements(s.body) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %s failed: %w", s.version, err)
		}
	}

	insert := tx.Rebind("INSERT INTO schema_migrations (version, checksum, applied_at, duration_ms) VALUES (?, ?, ?, ?)")
	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(insert, s.version, s.checksum, appliedAt, time.Since(start).Milliseconds()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", s.version, err)
	}
	return tx.Commit()
}

// MigrateUp applies every pending embedded script in order.
func MigrateUp(db *sqlx.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	applied, err := m.applied()
	if err != nil {
		return err
	}
	if err := m.verify(applied); err != nil {
		return fmt.Errorf("migration checksum validation failed: %w", err)
	}

	for _, s := range m.scripts {
		if _, done := applied[s.version]; done {
			continue
		}
		if err := m.apply(s); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus reports every embedded script as applied or pending.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	m, err := newMigrator(db)
	if err != nil {
		return nil, err
	}
	applied, err := m.applied()
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(m.scripts))
	for _, s := range m.scripts {
		status := MigrationStatus{ID: s.version, Checksum: s.checksum}
		if row, ok := applied[s.version]; ok {
			status.Applied = true
			status.Checksum = row.Checksum
			status.ExecutionMs = row.DurationMs
			if t, err := time.Parse(time.RFC3339, row.AppliedAt); err == nil {
				status.AppliedAt = &t
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Pending returns the IDs of migrations not applied yet.
func Pending(statuses []MigrationStatus) []string {
	var pending []string
	for _, s := range statuses {
		if !s.Applied {
			pending = append(pending, s.ID)
		}
	}
	return pending
}

// splitStatements drops full-line comments and splits on semicolons.
// Statements must not contain literal semicolons.
func splitStatements(body string) []string {
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
