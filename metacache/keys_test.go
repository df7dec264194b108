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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "meta:model:md1", PointKey("model", "md1"))
	assert.Equal(t, "meta:model:list", ListKey("model"))
	assert.Equal(t, "meta:column:md1:list", ListKey("column", "md1"))
}

func TestScopeOf(t *testing.T) {
	assert.Equal(t, "model", scopeOf("meta:model:md1"))
	assert.Equal(t, "column", scopeOf("meta:column:md1:list"))
	// Tenant-composed scopes attribute to the kind segment only.
	assert.Equal(t, "model", scopeOf("meta:model:base1:md1"))
	assert.Equal(t, "", scopeOf("other:model:md1"))
	assert.Equal(t, "", scopeOf("meta:model"))
}

func TestIsListKey(t *testing.T) {
	assert.True(t, isListKey("meta:model:list"))
	assert.True(t, isListKey("meta:column:md1:list"))
	assert.False(t, isListKey("meta:model:md1"))
	// An entity whose id happens to be "list" still needs the full
	// separator-suffix match.
	assert.True(t, isListKey("meta:model:list"))
}
