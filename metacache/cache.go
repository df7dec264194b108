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
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/metastore/metadb"
)

// memberFetchConcurrency bounds parallel point gets during list assembly.
const memberFetchConcurrency = 8

var errListMemberMissing = errors.New("metacache: list member missing")

// Direction selects the deep-invalidation strategy.
type Direction int

const (
	// ChildToParent invalidates after a leaf mutation: the leaf's point
	// key plus every list in its scope that could reference it.
	ChildToParent Direction = iota
	// ParentToChild invalidates after a structural parent change: only
	// the parent's own keys; descendants miss and refetch naturally.
	ParentToChild
)

// Cache is the pluggable metadata cache. One instance owns its enabled
// flag; when disabled every operation is a type-correct no-op, and
// in-flight calls observe a sudden disable as a miss, never an error.
type Cache struct {
	driver  Driver
	enabled atomic.Bool
}

// New wraps a driver. The enabled flag can be flipped at runtime with
// SetEnabled without restarting.
func New(driver Driver, enabled bool) *Cache {
	c := &Cache{driver: driver}
	c.enabled.Store(enabled)
	return c
}

// SetEnabled toggles the cache at runtime. Disabling does not flush;
// re-enabling serves whatever survived.
func (c *Cache) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

func (c *Cache) Enabled() bool {
	return c.enabled.Load()
}

// Get returns the decoded value for key, or the shape's empty value on a
// miss or when disabled.
func (c *Cache) Get(ctx context.Context, key string, shape Shape) (any, error) {
	if !c.enabled.Load() {
		return shape.Empty(), nil
	}
	raw, ok, err := c.driver.Get(ctx, key)
	if err != nil {
		return shape.Empty(), err
	}
	if !ok {
		recordMiss(ctx, scopeOf(key))
		return shape.Empty(), nil
	}
	recordHit(ctx, scopeOf(key))

	switch shape {
	case ShapeArray:
		out := []string{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return shape.Empty(), fmt.Errorf("metacache: corrupt array at %s: %w", key, err)
		}
		return out, nil
	case ShapeString:
		var out string
		if err := json.Unmarshal(raw, &out); err != nil {
			return shape.Empty(), fmt.Errorf("metacache: corrupt string at %s: %w", key, err)
		}
		return out, nil
	default:
		var out metadb.Record
		if err := json.Unmarshal(raw, &out); err != nil {
			return shape.Empty(), fmt.Errorf("metacache: corrupt record at %s: %w", key, err)
		}
		return out, nil
	}
}

// Set stores the JSON encoding of value under key.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if !c.enabled.Load() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("metacache: encode %s: %w", key, err)
	}
	return c.driver.Set(ctx, key, raw)
}

// SetExpiring stores value with a TTL.
func (c *Cache) SetExpiring(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.enabled.Load() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("metacache: encode %s: %w", key, err)
	}
	return c.driver.SetExpiring(ctx, key, raw, ttl)
}

// IncrBy atomically adds delta to the counter at key.
func (c *Cache) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	if !c.enabled.Load() {
		return 0, nil
	}
	return c.driver.IncrBy(ctx, key, delta)
}

// ListResult is the outcome of GetList. IsNone means the list is cached as
// legitimately empty; Cached false means the store must be consulted.
type ListResult struct {
	Rows   []metadb.Record
	IsNone bool
	Cached bool
}

// GetList resolves a cached list: the ordered point-key references, then
// each referenced record. Any missing member degrades the whole list to a
// miss so a partially evicted list can never serve short reads.
func (c *Cache) GetList(ctx context.Context, cacheScope string, subKeys []string) (ListResult, error) {
	if !c.enabled.Load() {
		return ListResult{}, nil
	}
	listKey := ListKey(cacheScope, subKeys...)
	raw, ok, err := c.driver.Get(ctx, listKey)
	if err != nil {
		return ListResult{}, err
	}
	if !ok {
		recordMiss(ctx, cacheScope)
		return ListResult{}, nil
	}

	var pointKeys []string
	if err := json.Unmarshal(raw, &pointKeys); err != nil {
		return ListResult{}, fmt.Errorf("metacache: corrupt list at %s: %w", listKey, err)
	}
	if len(pointKeys) == 0 {
		recordHit(ctx, cacheScope)
		return ListResult{IsNone: true, Cached: true}, nil
	}

	// Members are fetched concurrently; order is preserved by index.
	rows := make([]metadb.Record, len(pointKeys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberFetchConcurrency)
	for i, pk := range pointKeys {
		g.Go(func() error {
			memberRaw, ok, err := c.driver.Get(gctx, pk)
			if err != nil {
				return err
			}
			if !ok {
				// A member was evicted out from under the list; treat the
				// whole list as uncached rather than returning a short read.
				return errListMemberMissing
			}
			var rec metadb.Record
			if err := json.Unmarshal(memberRaw, &rec); err != nil {
				return fmt.Errorf("metacache: corrupt record at %s: %w", pk, err)
			}
			rows[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, errListMemberMissing) {
			recordMiss(ctx, cacheScope)
			return ListResult{}, nil
		}
		return ListResult{}, err
	}
	recordHit(ctx, cacheScope)
	return ListResult{Rows: rows, Cached: true}, nil
}

// SetList caches the records as points plus the ordered list of their
// point keys. An empty rows slice caches the empty marker so childless
// parents don't hit the store on every read. projected, when non-empty,
// limits the fields cached per record.
func (c *Cache) SetList(ctx context.Context, cacheScope string, subKeys []string, rows []metadb.Record, projected ...string) error {
	if !c.enabled.Load() {
		return nil
	}
	pointKeys := make([]string, 0, len(rows))
	for _, rec := range rows {
		id := rec.ID()
		if id == "" {
			return fmt.Errorf("metacache: record without id in %s list", cacheScope)
		}
		cached := rec
		if len(projected) > 0 {
			cached = rec.Pick(projected)
		}
		pk := PointKey(cacheScope, id)
		if err := c.Set(ctx, pk, cached); err != nil {
			return err
		}
		pointKeys = append(pointKeys, pk)
	}
	return c.Set(ctx, ListKey(cacheScope, subKeys...), pointKeys)
}

// AppendToList adds one member reference to an already-cached list without
// rewriting the members. When the list is not cached nothing happens: a
// partial list would be worse than a miss.
func (c *Cache) AppendToList(ctx context.Context, cacheScope string, subKeys []string, pointKey string) error {
	if !c.enabled.Load() {
		return nil
	}
	listKey := ListKey(cacheScope, subKeys...)
	raw, ok, err := c.driver.Get(ctx, listKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var pointKeys []string
	if err := json.Unmarshal(raw, &pointKeys); err != nil {
		return fmt.Errorf("metacache: corrupt list at %s: %w", listKey, err)
	}
	if slices.Contains(pointKeys, pointKey) {
		return nil
	}
	pointKeys = append(pointKeys, pointKey)
	return c.Set(ctx, listKey, pointKeys)
}

// Update merges partial fields into the cached record at key, avoiding a
// full refetch after a partial update. A miss is left as a miss.
func (c *Cache) Update(ctx context.Context, key string, partial metadb.Record) error {
	if !c.enabled.Load() {
		return nil
	}
	raw, ok, err := c.driver.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var rec metadb.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("metacache: corrupt record at %s: %w", key, err)
	}
	for f, v := range partial {
		rec[f] = v
	}
	return c.Set(ctx, key, rec)
}

// Del removes the given keys.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if !c.enabled.Load() || len(keys) == 0 {
		return nil
	}
	return c.driver.Del(ctx, keys...)
}

// DeepDel performs hierarchical invalidation around the entity at
// (cacheScope, entityID). It must complete before the mutation's business
// operation returns; callers never defer it to the background.
func (c *Cache) DeepDel(ctx context.Context, cacheScope, entityID string, dir Direction) error {
	if !c.enabled.Load() {
		return nil
	}
	point := PointKey(cacheScope, entityID)

	switch dir {
	case ChildToParent:
		// The same member can appear in more than one derived list, so a
		// precise single-member edit risks divergence. Drop the point and
		// every list marker in its scope; the next read re-lists cleanly.
		keys, err := c.driver.Scan(ctx, keyPrefix+keySep+cacheScope+keySep+"*")
		if err != nil {
			return err
		}
		doomed := []string{point}
		for _, k := range keys {
			if isListKey(k) {
				doomed = append(doomed, k)
			}
		}
		recordInvalidation(ctx, scopeOf(point), len(doomed))
		return c.driver.Del(ctx, doomed...)

	case ParentToChild:
		// Remove only the parent's own keys: its point and the lists
		// keyed under its id. Descendants are deliberately not
		// enumerated; their reads miss and refetch, keeping invalidation
		// cost bounded.
		keys, err := c.driver.Scan(ctx, keyPrefix+keySep+"*"+keySep+entityID+keySep+"*")
		if err != nil {
			return err
		}
		doomed := []string{point}
		for _, k := range keys {
			if isListKey(k) {
				doomed = append(doomed, k)
			}
		}
		recordInvalidation(ctx, scopeOf(point), len(doomed))
		return c.driver.Del(ctx, doomed...)

	default:
		return fmt.Errorf("metacache: unknown deep del direction %d", dir)
	}
}

// DelScope removes every key, point and list alike, in one cache scope.
// The fallback for mutations whose affected rows cannot be enumerated.
func (c *Cache) DelScope(ctx context.Context, cacheScope string) error {
	if !c.enabled.Load() {
		return nil
	}
	keys, err := c.driver.Scan(ctx, keyPrefix+keySep+cacheScope+keySep+"*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	recordInvalidation(ctx, cacheScope, len(keys))
	return c.driver.Del(ctx, keys...)
}

// Destroy removes everything in the backing driver.
func (c *Cache) Destroy(ctx context.Context) error {
	return c.driver.Flush(ctx)
}

// Export snapshots the cache contents for debugging.
func (c *Cache) Export(ctx context.Context) (map[string]json.RawMessage, error) {
	raw, err := c.driver.Export(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		out[k] = json.RawMessage(v)
	}
	return out, nil
}

// Close releases the driver.
func (c *Cache) Close() error {
	return c.driver.Close()
}
