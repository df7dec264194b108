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

// Package entities composes the meta store and the cache into one
// read-through/write-through accessor per entity kind. The accessor is a
// single generic template: every kind used to hand-roll this sequence,
// and every hand-rolled copy was a chance to forget an invalidation.
package entities

import (
	"context"
	"log/slog"

	"github.com/cardinalhq/metastore/metacache"
	"github.com/cardinalhq/metastore/metadb"
)

// Store is the slice of the meta store the accessor needs. *metadb.Store
// satisfies it; tests substitute call-counting fakes.
type Store interface {
	Get(ctx context.Context, scope metadb.Scope, kind metadb.Kind, q metadb.Query) (metadb.Record, error)
	List(ctx context.Context, scope metadb.Scope, kind metadb.Kind, q metadb.Query) ([]metadb.Record, error)
	Insert(ctx context.Context, scope metadb.Scope, kind metadb.Kind, data metadb.Record, opts ...metadb.WriteOption) (metadb.Record, error)
	BulkInsert(ctx context.Context, scope metadb.Scope, kind metadb.Kind, data []metadb.Record) ([]metadb.Record, error)
	Update(ctx context.Context, scope metadb.Scope, kind metadb.Kind, data metadb.Record, q metadb.Query, opts ...metadb.WriteOption) (metadb.Record, error)
	BulkUpdate(ctx context.Context, scope metadb.Scope, kind metadb.Kind, data metadb.Record, ids []string, cond *metadb.Condition) (int64, error)
	Delete(ctx context.Context, scope metadb.Scope, kind metadb.Kind, q metadb.Query, opts ...metadb.WriteOption) error
	NextOrder(ctx context.Context, kind metadb.Kind, where metadb.Where) (int64, error)
}

// Definition parameterizes the accessor template for one entity kind.
type Definition struct {
	Kind       metadb.Kind
	CacheScope string

	// Fields is the allow-list persisted for this kind; unknown fields in
	// caller data are dropped at the boundary.
	Fields []string

	// ParentField names the fk column linking to the parent, "" for
	// kinds at the top of the tree.
	ParentField string

	// OrderField, when set, is auto-assigned via NextOrder on insert.
	OrderField string

	// ParentScope plus ParentInvalidate drive ancestor invalidation: a
	// patch touching any listed field deep-deletes the parent's cache.
	ParentScope      string
	ParentInvalidate []string
}

// Accessor is the read-through/write-through template for one kind.
// Cache faults after a successful store write are logged and swallowed: a
// miss is always recoverable on the next read, while failing the business
// operation would trade availability for nothing.
type Accessor struct {
	def   Definition
	store Store
	cache *metacache.Cache
}

func NewAccessor(def Definition, store Store, cache *metacache.Cache) *Accessor {
	return &Accessor{def: def, store: store, cache: cache}
}

func (a *Accessor) Definition() Definition {
	return a.def
}

// cacheName composes the tenant-partitioned cache scope for cacheScope
// under scope. Records are partitioned by base in the store, so cached
// entries are partitioned the same way: nothing cached for one base is
// ever visible to another.
func cacheName(cacheScope string, scope metadb.Scope) string {
	return cacheScope + ":" + scope.BaseID
}

// subKeys returns the list sub-key path for a parent id. Kinds parented
// directly by base_id carry no sub path: the tenant segment of the cache
// scope already partitions their lists.
func (a *Accessor) subKeys(parentID string) []string {
	if a.def.ParentField == "" || a.def.ParentField == metadb.FieldBaseID || parentID == "" {
		return nil
	}
	return []string{parentID}
}

func (a *Accessor) parentOf(rec metadb.Record) string {
	if a.def.ParentField == "" {
		return ""
	}
	return rec.String(a.def.ParentField)
}

func (a *Accessor) swallow(op string, err error) {
	if err != nil {
		slog.Warn("cache operation failed, continuing",
			slog.String("kind", string(a.def.Kind)),
			slog.String("op", op),
			slog.Any("error", err))
	}
}

// Get returns the record by id: cache point-get first, store on miss,
// populating the cache on the way out. A miss everywhere returns nil.
func (a *Accessor) Get(ctx context.Context, scope metadb.Scope, id string) (metadb.Record, error) {
	key := metacache.PointKey(cacheName(a.def.CacheScope, scope), id)

	v, err := a.cache.Get(ctx, key, metacache.ShapeRecord)
	a.swallow("get", err)
	if rec, ok := v.(metadb.Record); ok && rec != nil {
		return rec, nil
	}

	rec, err := a.store.Get(ctx, scope, a.def.Kind, metadb.Query{ID: id})
	if err != nil {
		return nil, err
	}
	if rec != nil {
		a.swallow("set", a.cache.Set(ctx, key, rec))
	}
	return rec, nil
}

// List returns the kind's records under parentID (all records for
// parentless kinds). The cached empty marker counts as a hit, so a
// childless parent costs at most one store trip.
func (a *Accessor) List(ctx context.Context, scope metadb.Scope, parentID string) ([]metadb.Record, error) {
	cs := cacheName(a.def.CacheScope, scope)
	subKeys := a.subKeys(parentID)

	res, err := a.cache.GetList(ctx, cs, subKeys)
	a.swallow("get_list", err)
	if res.Cached {
		if res.IsNone {
			return []metadb.Record{}, nil
		}
		return res.Rows, nil
	}

	// Kinds parented by base_id add no Where term: the store's scope
	// predicate already bounds them to the tenant base.
	q := metadb.Query{}
	if a.def.ParentField != "" && a.def.ParentField != metadb.FieldBaseID && parentID != "" {
		q.Where = metadb.Where{a.def.ParentField: parentID}
	}
	if a.def.OrderField != "" {
		q.OrderBy = []metadb.Order{{Field: a.def.OrderField}}
	}
	rows, err := a.store.List(ctx, scope, a.def.Kind, q)
	if err != nil {
		return nil, err
	}
	a.swallow("set_list", a.cache.SetList(ctx, cs, subKeys, rows))
	return rows, nil
}

// Insert writes the record through the store, then warms the point key
// and appends to the parent's cached list. Store first, cache second,
// never the reverse.
func (a *Accessor) Insert(ctx context.Context, scope metadb.Scope, data metadb.Record, opts ...metadb.WriteOption) (metadb.Record, error) {
	data = data.Pick(a.allFields())

	if a.def.OrderField != "" {
		if _, ok := data[a.def.OrderField]; !ok {
			// base_id is stamped by the store from scope, not supplied by
			// the caller, so base-parented kinds group on the scope itself.
			where := metadb.Where{}
			switch {
			case a.def.ParentField == metadb.FieldBaseID:
				where[metadb.FieldBaseID] = scope.BaseID
			case a.def.ParentField != "":
				where[a.def.ParentField] = data.String(a.def.ParentField)
			}
			next, err := a.store.NextOrder(ctx, a.def.Kind, where)
			if err != nil {
				return nil, err
			}
			data[a.def.OrderField] = next
		}
	}

	rec, err := a.store.Insert(ctx, scope, a.def.Kind, data, opts...)
	if err != nil {
		return nil, err
	}

	cs := cacheName(a.def.CacheScope, scope)
	key := metacache.PointKey(cs, rec.ID())
	a.swallow("set", a.cache.Set(ctx, key, rec))
	a.swallow("append_to_list", a.cache.AppendToList(ctx, cs, a.subKeys(a.parentOf(rec)), key))
	return rec, nil
}

// BulkInsert writes the batch through the store and warms each point,
// appending to the affected parents' cached lists.
func (a *Accessor) BulkInsert(ctx context.Context, scope metadb.Scope, data []metadb.Record) ([]metadb.Record, error) {
	picked := make([]metadb.Record, len(data))
	for i, d := range data {
		picked[i] = d.Pick(a.allFields())
	}
	recs, err := a.store.BulkInsert(ctx, scope, a.def.Kind, picked)
	if err != nil {
		return nil, err
	}
	cs := cacheName(a.def.CacheScope, scope)
	for _, rec := range recs {
		key := metacache.PointKey(cs, rec.ID())
		a.swallow("set", a.cache.Set(ctx, key, rec))
		a.swallow("append_to_list", a.cache.AppendToList(ctx, cs, a.subKeys(a.parentOf(rec)), key))
	}
	return recs, nil
}

// Update patches the record through the store, merges the patch into the
// cached point, and deep-deletes the parent's cache when the patch touches
// a field an ancestor denormalizes.
func (a *Accessor) Update(ctx context.Context, scope metadb.Scope, id string, patch metadb.Record, opts ...metadb.WriteOption) (metadb.Record, error) {
	patch = patch.Pick(a.allFields())

	rec, err := a.store.Update(ctx, scope, a.def.Kind, patch, metadb.Query{ID: id}, opts...)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	a.swallow("update", a.cache.Update(ctx, metacache.PointKey(cacheName(a.def.CacheScope, scope), id), rec))

	if a.def.ParentScope != "" && a.touchesParent(patch) {
		if parentID := a.parentOf(rec); parentID != "" {
			a.swallow("deep_del", a.cache.DeepDel(ctx, cacheName(a.def.ParentScope, scope), parentID, metacache.ChildToParent))
		}
	}
	return rec, nil
}

// BulkUpdate applies the patch to the given ids through the store, then
// drops the whole cache scope: points patched by a raw condition cannot be
// enumerated, so wholesale invalidation is the only safe option.
func (a *Accessor) BulkUpdate(ctx context.Context, scope metadb.Scope, patch metadb.Record, ids []string, cond *metadb.Condition) (int64, error) {
	patch = patch.Pick(a.allFields())
	n, err := a.store.BulkUpdate(ctx, scope, a.def.Kind, patch, ids, cond)
	if err != nil {
		return 0, err
	}
	a.swallow("del_scope", a.cache.DelScope(ctx, cacheName(a.def.CacheScope, scope)))
	return n, nil
}

// Delete removes the record from the store, then deep-deletes
// child-to-parent so no cached list still references it. The store read
// up front is only an existence check: deleting a record that is not
// there is a no-op and triggers no invalidation.
func (a *Accessor) Delete(ctx context.Context, scope metadb.Scope, id string) error {
	rec, err := a.store.Get(ctx, scope, a.def.Kind, metadb.Query{ID: id})
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if err := a.store.Delete(ctx, scope, a.def.Kind, metadb.Query{ID: id}); err != nil {
		return err
	}

	a.swallow("deep_del", a.cache.DeepDel(ctx, cacheName(a.def.CacheScope, scope), id, metacache.ChildToParent))
	return nil
}

func (a *Accessor) touchesParent(patch metadb.Record) bool {
	for _, f := range a.def.ParentInvalidate {
		if _, ok := patch[f]; ok {
			return true
		}
	}
	return false
}

// allFields is the pick list for caller data: the declared allow-list
// plus the structural fields the template itself manages.
func (a *Accessor) allFields() []string {
	fields := make([]string, 0, len(a.def.Fields)+2)
	fields = append(fields, a.def.Fields...)
	if a.def.ParentField != "" {
		fields = append(fields, a.def.ParentField)
	}
	if a.def.OrderField != "" {
		fields = append(fields, a.def.OrderField)
	}
	return fields
}
