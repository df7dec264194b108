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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_ID(t *testing.T) {
	assert.Equal(t, "md123", Record{"id": "md123"}.ID())
	assert.Equal(t, "", Record{}.ID())
	assert.Equal(t, "", Record{"id": 42}.ID())
	assert.Equal(t, "", Record(nil).ID())
}

func TestRecord_Clone(t *testing.T) {
	orig := Record{"id": "a", "title": "x"}
	cp := orig.Clone()
	cp["title"] = "y"
	assert.Equal(t, "x", orig["title"])
	assert.Nil(t, Record(nil).Clone())
}

func TestRecord_Pick(t *testing.T) {
	rec := Record{
		"id":         "md123",
		"base_id":    "base1",
		"title":      "orders",
		"malicious":  "drop table",
		"created_at": "2025-01-01",
	}
	picked := rec.Pick([]string{"title", "table_name"})
	assert.Equal(t, "orders", picked["title"])
	assert.NotContains(t, picked, "malicious")
	assert.NotContains(t, picked, "table_name")
	// Reserved fields survive even when not in the allow-list.
	assert.Equal(t, "md123", picked["id"])
	assert.Equal(t, "base1", picked["base_id"])
	assert.Equal(t, "2025-01-01", picked["created_at"])
}
