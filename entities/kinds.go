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

import "github.com/cardinalhq/metastore/metadb"

// Definitions is the registry of accessor parameterizations, one per
// entity kind. Field lists are the insert/update allow-lists; anything a
// caller sends outside them is dropped at the boundary.
var Definitions = []Definition{
	{
		Kind:       metadb.KindProject,
		CacheScope: "project",
		Fields:     []string{"title", "prefix", "color", "status", "meta"},
		OrderField: metadb.FieldOrder,
	},
	{
		Kind:        metadb.KindSource,
		CacheScope:  "source",
		Fields:      []string{"alias", "type", "config", "enabled"},
		ParentField: metadb.FieldBaseID,
		OrderField:  metadb.FieldOrder,
	},
	{
		Kind:        metadb.KindModel,
		CacheScope:  "model",
		Fields:      []string{"title", "table_name", "type", "meta"},
		ParentField: "fk_source_id",
		OrderField:  metadb.FieldOrder,
	},
	{
		Kind:        metadb.KindColumn,
		CacheScope:  "column",
		Fields:      []string{"title", "column_name", "data_type", "primary_key", "meta"},
		ParentField: "fk_model_id",
		OrderField:  metadb.FieldOrder,
		// The model caches a denormalized column summary; renames and
		// key changes must flush it.
		ParentScope:      "model",
		ParentInvalidate: []string{"title", "column_name", "primary_key"},
	},
	{
		Kind:        metadb.KindView,
		CacheScope:  "view",
		Fields:      []string{"title", "type", "is_default", "meta"},
		ParentField: "fk_model_id",
		OrderField:  metadb.FieldOrder,
	},
	{
		Kind:             metadb.KindFilter,
		CacheScope:       "filter",
		Fields:           []string{"fk_column_id", "comparison_op", "value", "logical_op"},
		ParentField:      "fk_view_id",
		OrderField:       metadb.FieldOrder,
		ParentScope:      "view",
		ParentInvalidate: []string{"comparison_op", "value", "logical_op"},
	},
	{
		Kind:        metadb.KindHook,
		CacheScope:  "hook",
		Fields:      []string{"title", "event", "operation", "notification", "active"},
		ParentField: "fk_model_id",
		OrderField:  metadb.FieldOrder,
	},
	{
		Kind:        metadb.KindUser,
		CacheScope:  "user",
		Fields:      []string{"email", "display_name", "roles"},
		ParentField: metadb.FieldBaseID,
	},
	{
		Kind:        metadb.KindKVStore,
		CacheScope:  "kv_store",
		Fields:      []string{"key", "value"},
		ParentField: metadb.FieldBaseID,
	},
	{
		Kind:        metadb.KindAPIToken,
		CacheScope:  "api_token",
		Fields:      []string{"token_hash", "description", "fk_user_id"},
		ParentField: metadb.FieldBaseID,
	},
}
