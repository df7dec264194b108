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

// Package seedmigrations is the second ordered migration set for the meta
// db: the enumerated root workspace rows. It runs after the schema set so
// root-scoped reads work on a fresh database.
package seedmigrations

import (
	"context"
	"embed"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/metastore/internal/pgmigrate"
	"github.com/cardinalhq/metastore/migrations"
)

//go:embed *.sql
var migrationFiles embed.FS

var set = pgmigrate.Set{
	Name:  "metadb-seed",
	Table: "gomigrate_metadb_seed",
	Files: migrationFiles,
}

// GetMigrationFiles returns the embedded migration files for version checking.
func GetMigrationFiles() embed.FS {
	return migrationFiles
}

// RunMigrationsUp applies all pending seed migrations.
func RunMigrationsUp(ctx context.Context, pool *pgxpool.Pool) error {
	return set.RunUp(ctx, pool)
}

// CheckVersion verifies the seed set is at the expected migration version.
// Disabled via METADB_MIGRATION_CHECK_ENABLED=false.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, options ...migrations.CheckOption) error {
	if v := os.Getenv("METADB_MIGRATION_CHECK_ENABLED"); v != "" && strings.ToLower(v) != "true" {
		return nil
	}
	return set.CheckVersion(ctx, pool, options...)
}
