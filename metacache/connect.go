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

package metacache

import (
	"errors"
	"log/slog"

	"github.com/cardinalhq/metastore/internal/dbopen"
)

// ConnectToCache builds a Cache from CACHEDB_* environment variables:
// redis when a host is configured, the in-memory driver otherwise. Both
// carry identical semantics, so degrading is invisible to callers.
func ConnectToCache(enabled bool) (*Cache, error) {
	settings, err := dbopen.GetRedisSettingsFromEnv("CACHEDB")
	if err != nil {
		if errors.Is(err, dbopen.ErrDatabaseNotConfigured) {
			slog.Info("No remote cache configured, using in-memory cache")
			return New(NewMemoryDriver(), enabled), nil
		}
		return nil, err
	}

	driver, err := NewRedisDriver(settings)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to remote cache", slog.String("addr", settings.Addr))
	return New(driver, enabled), nil
}
