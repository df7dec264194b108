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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID_Format(t *testing.T) {
	for kind, prefix := range idPrefixes {
		id := GenerateID(kind)
		require.True(t, strings.HasPrefix(id, prefix), "id %q missing prefix %q", id, prefix)
		suffix := id[len(prefix):]
		assert.Len(t, suffix, idSuffixLen)
		for _, c := range suffix {
			assert.Contains(t, idAlphabet, string(c))
		}
	}
}

func TestGenerateID_UnknownKindFallsBack(t *testing.T) {
	id := GenerateID(Kind("bogus"))
	assert.True(t, strings.HasPrefix(id, genericIDPrefix))
	assert.Len(t, id, len(genericIDPrefix)+idSuffixLen)
}

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := GenerateID(KindModel)
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}
