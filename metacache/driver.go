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
	"context"
	"time"
)

// Driver is the physical cache a Cache dispatches to. The remote and
// in-memory drivers carry identical semantics so the backend is swappable
// at construction time.
//
// Values are opaque byte slices (JSON at the Cache layer). Get reports a
// miss as (nil, false, nil); a miss is never an error.
type Driver interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	SetExpiring(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	Del(ctx context.Context, keys ...string) error

	// Scan returns all keys matching pattern, where pattern uses '*' as
	// the only wildcard (redis KEYS style).
	Scan(ctx context.Context, pattern string) ([]string, error)

	// Flush removes everything.
	Flush(ctx context.Context) error

	// Export snapshots all keys and raw values, for debugging.
	Export(ctx context.Context) (map[string][]byte, error)

	Close() error
}
