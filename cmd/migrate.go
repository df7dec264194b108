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

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/metastore/internal/dbopen"
	"github.com/cardinalhq/metastore/metadb"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run meta db migrations",
		Long:  `Apply the schema migration set and then the root-workspace seed set against the configured meta db.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			servicename := "metastore-migrate"
			doneCtx, doneCancel, cleanup, err := setupCommand(servicename)
			if err != nil {
				return err
			}
			defer doneCancel()
			defer func() { _ = cleanup() }()

			pool, err := metadb.ConnectToMetaDB(doneCtx, dbopen.SkipMigrationCheck())
			if err != nil {
				return fmt.Errorf("failed to connect to meta db: %w", err)
			}
			defer pool.Close()

			if err := metadb.RunAllMigrationsUp(doneCtx, pool); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			slog.Info("Migrations complete")
			return nil
		},
	}

	rootCmd.AddCommand(cmd)
}
