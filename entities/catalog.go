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

package entities

import (
	"fmt"

	"github.com/cardinalhq/metastore/metacache"
	"github.com/cardinalhq/metastore/metadb"
)

// Catalog wires one accessor per registered entity kind over a shared
// store and cache. The inbound surface for everything above this layer.
type Catalog struct {
	store     Store
	cache     *metacache.Cache
	accessors map[metadb.Kind]*Accessor
}

func NewCatalog(store Store, cache *metacache.Cache) *Catalog {
	c := &Catalog{
		store:     store,
		cache:     cache,
		accessors: make(map[metadb.Kind]*Accessor, len(Definitions)),
	}
	for _, def := range Definitions {
		c.accessors[def.Kind] = NewAccessor(def, store, cache)
	}
	return c
}

// Accessor returns the accessor for an arbitrary registered kind.
func (c *Catalog) Accessor(kind metadb.Kind) (*Accessor, error) {
	a, ok := c.accessors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", metadb.ErrUnknownKind, kind)
	}
	return a, nil
}

func (c *Catalog) Projects() *Accessor  { return c.accessors[metadb.KindProject] }
func (c *Catalog) Sources() *Accessor   { return c.accessors[metadb.KindSource] }
func (c *Catalog) Models() *Accessor    { return c.accessors[metadb.KindModel] }
func (c *Catalog) Columns() *Accessor   { return c.accessors[metadb.KindColumn] }
func (c *Catalog) Views() *Accessor     { return c.accessors[metadb.KindView] }
func (c *Catalog) Filters() *Accessor   { return c.accessors[metadb.KindFilter] }
func (c *Catalog) Hooks() *Accessor     { return c.accessors[metadb.KindHook] }
func (c *Catalog) Users() *Accessor     { return c.accessors[metadb.KindUser] }
func (c *Catalog) KVStore() *Accessor   { return c.accessors[metadb.KindKVStore] }
func (c *Catalog) APITokens() *Accessor { return c.accessors[metadb.KindAPIToken] }
