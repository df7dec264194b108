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
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryDriver is the in-process fallback backend, used when no remote
// cache is configured and in tests. Semantics match the redis driver.
type MemoryDriver struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, []byte]
}

var _ Driver = (*MemoryDriver)(nil)

// NewMemoryDriver creates an in-memory driver. Entries without an explicit
// TTL never expire.
func NewMemoryDriver() *MemoryDriver {
	c := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()
	return &MemoryDriver{cache: c}
}

func (d *MemoryDriver) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := d.cache.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (d *MemoryDriver) Set(_ context.Context, key string, value []byte) error {
	d.cache.Set(key, value, ttlcache.NoTTL)
	return nil
}

func (d *MemoryDriver) SetExpiring(_ context.Context, key string, value []byte, ttl time.Duration) error {
	d.cache.Set(key, value, ttl)
	return nil
}

func (d *MemoryDriver) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	// ttlcache has no read-modify-write primitive; serialize increments
	// ourselves so concurrent counters don't lose updates.
	d.mu.Lock()
	defer d.mu.Unlock()

	var current int64
	if item := d.cache.Get(key); item != nil {
		n, err := strconv.ParseInt(string(item.Value()), 10, 64)
		if err != nil {
			return 0, err
		}
		current = n
	}
	current += delta
	d.cache.Set(key, []byte(strconv.FormatInt(current, 10)), ttlcache.NoTTL)
	return current, nil
}

func (d *MemoryDriver) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		d.cache.Delete(k)
	}
	return nil
}

func (d *MemoryDriver) Scan(_ context.Context, pattern string) ([]string, error) {
	var out []string
	for _, item := range d.cache.Items() {
		if matchPattern(pattern, item.Key()) {
			out = append(out, item.Key())
		}
	}
	return out, nil
}

func (d *MemoryDriver) Flush(_ context.Context) error {
	d.cache.DeleteAll()
	return nil
}

func (d *MemoryDriver) Export(_ context.Context) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, item := range d.cache.Items() {
		out[item.Key()] = item.Value()
	}
	return out, nil
}

func (d *MemoryDriver) Close() error {
	d.cache.Stop()
	d.cache.DeleteAll()
	return nil
}

// matchPattern matches redis KEYS-style patterns where '*' is the only
// wildcard.
func matchPattern(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}
