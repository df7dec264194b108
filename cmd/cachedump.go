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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/metastore/config"
	"github.com/cardinalhq/metastore/metacache"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cachedump",
		Short: "Dump cache contents as JSON",
		Long:  `Connect to the configured cache backend and print every key with its decoded value, for debugging cache state.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			servicename := "metastore-cachedump"
			doneCtx, doneCancel, cleanup, err := setupCommand(servicename)
			if err != nil {
				return err
			}
			defer doneCancel()
			defer func() { _ = cleanup() }()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Export reads the driver directly, so a disabled cache still
			// dumps whatever it holds.
			cache, err := metacache.ConnectToCache(cfg.Cache.Enabled)
			if err != nil {
				return fmt.Errorf("failed to connect to cache: %w", err)
			}
			defer func() { _ = cache.Close() }()

			dump, err := cache.Export(doneCtx)
			if err != nil {
				return fmt.Errorf("cache export failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(dump)
		},
	}

	rootCmd.AddCommand(cmd)
}
