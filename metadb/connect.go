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

package metadb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/metastore/config"
	"github.com/cardinalhq/metastore/internal/dbopen"
	metadbmigrations "github.com/cardinalhq/metastore/metadb/migrations"
	"github.com/cardinalhq/metastore/metadb/seedmigrations"
	"github.com/cardinalhq/metastore/migrations"
)

// ConnectToMetaDB opens the meta db pool from METADB_* environment
// variables and verifies both ordered migration sets (schema, then seed)
// before returning. No store call is accepted before both checks pass.
func ConnectToMetaDB(ctx context.Context, opts ...dbopen.Options) (*pgxpool.Pool, error) {
	connectionString, err := dbopen.GetDatabaseURLFromEnv("METADB")
	if err != nil {
		return nil, errors.Join(dbopen.ErrDatabaseNotConfigured,
			fmt.Errorf("failed to get METADB connection string: %w", err))
	}

	pool, err := NewConnectionPool(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	var checkOpts []migrations.CheckOption
	if len(opts) > 0 {
		if opts[0].SkipMigrationCheck {
			checkOpts = append(checkOpts, migrations.WithCheckMode(migrations.CheckModeSkip))
		} else if opts[0].WarnOnMismatch {
			checkOpts = append(checkOpts, migrations.WithCheckMode(migrations.CheckModeWarn))
		}
	}

	if err := metadbmigrations.CheckVersion(ctx, pool, checkOpts...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("metadb schema migration check failed: %w", err)
	}
	if err := seedmigrations.CheckVersion(ctx, pool, checkOpts...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("metadb seed migration check failed: %w", err)
	}

	return pool, nil
}

// NewConnectionPool creates a pgx v5 connection pool for the given URL,
// sized per the application configuration.
func NewConnectionPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	if appCfg, err := config.Load(); err == nil && appCfg.DB.MaxConns > 0 {
		cfg.MaxConns = appCfg.DB.MaxConns
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// MetaDBStore connects and returns a ready Store.
func MetaDBStore(ctx context.Context) (*Store, error) {
	pool, err := ConnectToMetaDB(ctx)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

// RunAllMigrationsUp applies both ordered sets in order. Used by the
// migrate command; services only check.
func RunAllMigrationsUp(ctx context.Context, pool *pgxpool.Pool) error {
	if err := metadbmigrations.RunMigrationsUp(ctx, pool); err != nil {
		return err
	}
	return seedmigrations.RunMigrationsUp(ctx, pool)
}
