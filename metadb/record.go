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

import "maps"

// Record is one entity row as an opaque field->value mapping. The meta
// store owns the persisted copy; everything handed out is a transient
// snapshot.
type Record map[string]any

// Reserved field names stamped or guarded by the store itself.
const (
	FieldID        = "id"
	FieldBaseID    = "base_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldOrder     = "sort_order"
)

// ID returns the record's id, or "" when absent or not a string.
func (r Record) ID() string {
	return r.String(FieldID)
}

// String returns the named field as a string, or "" when absent or of
// another type.
func (r Record) String(field string) string {
	v, ok := r[field].(string)
	if !ok {
		return ""
	}
	return v
}

// Clone returns a shallow copy. Values are shared; callers that mutate
// nested values get what they deserve.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	maps.Copy(out, r)
	return out
}

// Pick extracts only the allowed fields into a new record. Unknown fields
// are dropped, never persisted blindly. The store-reserved fields are
// always kept so callers cannot strip scoping or timestamps by accident.
func (r Record) Pick(allowed []string) Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(allowed))
	for _, f := range allowed {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	for _, f := range []string{FieldID, FieldBaseID, FieldCreatedAt, FieldUpdatedAt} {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}
