package ccd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is the newest schema we know about.
const SchemaVersion = "1.1.0"

type migration struct {
	version string
	up      string
}

var migrations = []migration{
	{version: "1.0.0", up: migrationV1},
	{version: "1.1.0", up: migrationV1_1},
}

const migrationV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS components (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS atoms (
    comp_id TEXT NOT NULL,
    ord INTEGER NOT NULL,
    name TEXT NOT NULL,
    element TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (comp_id) REFERENCES components(id) ON DELETE CASCADE,
    PRIMARY KEY (comp_id, ord)
);

CREATE TABLE IF NOT EXISTS bonds (
    comp_id TEXT NOT NULL,
    ord INTEGER NOT NULL,
    atom1 TEXT NOT NULL,
    atom2 TEXT NOT NULL,
    bond_order TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (comp_id) REFERENCES components(id) ON DELETE CASCADE,
    PRIMARY KEY (comp_id, ord)
);
`

// leaving atoms came later
const migrationV1_1 = `
ALTER TABLE atoms ADD COLUMN leaving INTEGER NOT NULL DEFAULT 0;
`

// applyMigrations brings a database up to SchemaVersion.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	current := semver.MustParse("0.0.0")
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&name)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("checking schema_version: %w", err)
	default:
		var s string
		err := db.QueryRowContext(ctx,
			"SELECT version FROM schema_version ORDER BY applied_at DESC, version DESC LIMIT 1").Scan(&s)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("reading schema_version: %w", err)
		}
		if s != "" {
			if current, err = semver.NewVersion(s); err != nil {
				return fmt.Errorf("bad schema version %s: %w", s, err)
			}
		}
	}
	for _, m := range migrations {
		v, err := semver.NewVersion(m.version)
		if err != nil {
			return fmt.Errorf("bad migration version %s: %w", m.version, err)
		}
		if !current.LessThan(v) {
			continue
		}
		if _, err := db.ExecContext(ctx, m.up); err != nil {
			return fmt.Errorf("migration %s: %w", m.version, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.version, err)
		}
		current = v
	}
	return nil
}
