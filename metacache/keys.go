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

import "strings"

// Key layout:
//
//	point: meta:<cacheScope>:<entityID>
//	list:  meta:<cacheScope>[:<subKey>...]:list
//
// The cacheScope names an entity kind's key space within one tenant: the
// accessor layer composes it as "<kind>:<baseID>", so no cached entry is
// ever shared across scopes. List sub keys are the parent path shared by
// the members.
const (
	keyPrefix  = "meta"
	keySep     = ":"
	listSuffix = "list"
)

// PointKey addresses one cached record.
func PointKey(cacheScope, entityID string) string {
	return keyPrefix + keySep + cacheScope + keySep + entityID
}

// ListKey addresses an ordered collection of point-key references sharing
// a parent path.
func ListKey(cacheScope string, subKeys ...string) string {
	parts := append([]string{keyPrefix, cacheScope}, subKeys...)
	parts = append(parts, listSuffix)
	return strings.Join(parts, keySep)
}

// scopeOf extracts the kind segment from a key for metric attribution, or
// "" when the key is not one of ours. The tenant segment is deliberately
// excluded to keep attribute cardinality bounded.
func scopeOf(key string) string {
	parts := strings.SplitN(key, keySep, 3)
	if len(parts) < 3 || parts[0] != keyPrefix {
		return ""
	}
	return parts[1]
}

// isListKey reports whether the key addresses a list.
func isListKey(key string) bool {
	return strings.HasSuffix(key, keySep+listSuffix)
}
