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

import "github.com/cardinalhq/metastore/metadb"

// Shape tells Get what a key's value looks like, so a miss (or a disabled
// cache) yields a type-correct empty value: a nil record is not the same
// thing as an empty array.
type Shape int

const (
	ShapeRecord Shape = iota
	ShapeArray
	ShapeString
)

// Empty returns the miss value for the shape.
func (s Shape) Empty() any {
	switch s {
	case ShapeArray:
		return []string{}
	case ShapeString:
		return ""
	default:
		return metadb.Record(nil)
	}
}
