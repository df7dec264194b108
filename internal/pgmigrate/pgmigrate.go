// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package pgmigrate runs and verifies one embedded migration set against
// its own migration table. Both meta db sets (schema, seed) go through
// here so version semantics cannot drift between them.
package pgmigrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/cardinalhq/metastore/migrations"
)

// Set is one ordered migration set: embedded files plus the migration
// table tracking them.
type Set struct {
	Name  string
	Table string
	Files embed.FS
}

// RunUp applies all pending up migrations in the set.
func (s Set) RunUp(ctx context.Context, pool *pgxpool.Pool) error {
	m, cleanup, err := s.newMigrate(pool)
	if err != nil {
		return err
	}
	defer cleanup()

	_, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("%s: failed to get current version: %w", s.Name, err)
	}
	if dirty {
		return fmt.Errorf("%s: migration set is dirty, please fix it before proceeding", s.Name)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("%s: migration failed: %w", s.Name, err)
	}
	return nil
}

// CheckVersion verifies the database is at the set's latest version,
// waiting, warning, or failing per the options.
func (s Set) CheckVersion(ctx context.Context, pool *pgxpool.Pool, options ...migrations.CheckOption) error {
	opts := migrations.DefaultCheckOptions()
	for _, option := range options {
		option(&opts)
	}
	if opts.Mode == migrations.CheckModeSkip {
		slog.Debug("Migration version checking skipped", slog.String("set", s.Name))
		return nil
	}

	expected, err := s.LatestVersion()
	if err != nil {
		return fmt.Errorf("%s: failed to extract expected migration version: %w", s.Name, err)
	}

	current, dirty, err := s.currentVersion(pool)
	if err != nil {
		return fmt.Errorf("%s: failed to get current migration version: %w", s.Name, err)
	}

	if dirty && !opts.AllowDirty {
		if opts.Mode != migrations.CheckModeWarn {
			return fmt.Errorf("%s: migration set is in dirty state, please fix before proceeding", s.Name)
		}
		slog.Warn("Migration set is dirty, continuing anyway", slog.String("set", s.Name))
	}

	if current == expected {
		return nil
	}

	slog.Info("Checking migration version",
		slog.String("set", s.Name),
		slog.Uint64("current_version", uint64(current)),
		slog.Uint64("expected_version", uint64(expected)))

	if current > expected {
		if opts.Mode == migrations.CheckModeWarn {
			slog.Warn("Migration set is newer than expected, continuing anyway",
				slog.String("set", s.Name))
			return nil
		}
		return fmt.Errorf("%s: version %d is newer than expected %d - the application may need updating",
			s.Name, current, expected)
	}

	if opts.Mode == migrations.CheckModeWarn {
		slog.Warn("Migration set is older than expected, continuing anyway",
			slog.String("set", s.Name),
			slog.Uint64("current_version", uint64(current)),
			slog.Uint64("expected_version", uint64(expected)))
		return nil
	}

	// Wait mode: another process owns running the migrations; poll until
	// it finishes or the timeout passes.
	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		current, _, err = s.currentVersion(pool)
		if err != nil {
			return fmt.Errorf("%s: failed to get current migration version: %w", s.Name, err)
		}
		if current == expected {
			slog.Info("Migration version check passed",
				slog.String("set", s.Name),
				slog.Uint64("version", uint64(current)))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s: timed out waiting for migrations (current %d, expected %d)",
				s.Name, current, expected)
		}

		slog.Info("Waiting for migrations to complete",
			slog.String("set", s.Name),
			slog.Uint64("current_version", uint64(current)),
			slog.Uint64("expected_version", uint64(expected)),
			slog.Duration("remaining_timeout", time.Until(deadline)))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: context cancelled while waiting for migrations", s.Name)
		case <-ticker.C:
		}
	}
}

// LatestVersion extracts the highest migration version from the embedded
// files, parsing names like "1700000000_initial.up.sql".
func (s Set) LatestVersion() (uint, error) {
	entries, err := s.Files.ReadDir(".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var maxVersion uint
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		parts := strings.SplitN(name, "_", 2)
		version, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			continue
		}
		if uint(version) > maxVersion {
			maxVersion = uint(version)
		}
	}

	if maxVersion == 0 {
		return 0, errors.New("no valid migration files found")
	}
	return maxVersion, nil
}

func (s Set) currentVersion(pool *pgxpool.Pool) (uint, bool, error) {
	m, cleanup, err := s.newMigrate(pool)
	if err != nil {
		return 0, false, err
	}
	defer cleanup()

	version, dirty, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, dirty, nil
}

func (s Set) newMigrate(pool *pgxpool.Pool) (*migrate.Migrate, func(), error) {
	sourceDriver, err := iofs.New(s.Files, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	dbDriver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{
		MigrationsTable: s.Table,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create pgx driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		_ = dbDriver.Close()
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	cleanup := func() {
		_ = dbDriver.Close()
		_ = sqlDB.Close()
	}
	return m, cleanup, nil
}
