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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDriver_GetSetDel(t *testing.T) {
	d := NewMemoryDriver()
	defer func() { _ = d.Close() }()
	ctx := context.Background()

	_, ok, err := d.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Set(ctx, "k", []byte("v")))
	got, ok, err := d.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, d.Del(ctx, "k"))
	_, ok, err = d.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDriver_SetExpiring(t *testing.T) {
	d := NewMemoryDriver()
	defer func() { _ = d.Close() }()
	ctx := context.Background()

	require.NoError(t, d.SetExpiring(ctx, "k", []byte("v"), 10*time.Millisecond))
	_, ok, err := d.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok, err = d.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDriver_IncrBy(t *testing.T) {
	d := NewMemoryDriver()
	defer func() { _ = d.Close() }()
	ctx := context.Background()

	n, err := d.IncrBy(ctx, "counter", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = d.IncrBy(ctx, "counter", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryDriver_ScanAndFlush(t *testing.T) {
	d := NewMemoryDriver()
	defer func() { _ = d.Close() }()
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, "meta:model:md1", []byte("a")))
	require.NoError(t, d.Set(ctx, "meta:model:list", []byte("b")))
	require.NoError(t, d.Set(ctx, "meta:column:c1", []byte("c")))

	keys, err := d.Scan(ctx, "meta:model:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"meta:model:md1", "meta:model:list"}, keys)

	keys, err = d.Scan(ctx, "meta:*:md1:*")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, d.Flush(ctx))
	keys, err = d.Scan(ctx, "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryDriver_Export(t *testing.T) {
	d := NewMemoryDriver()
	defer func() { _ = d.Close() }()
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, "a", []byte("1")))
	require.NoError(t, d.Set(ctx, "b", []byte("2")))

	dump, err := d.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, dump, 2)
	assert.Equal(t, []byte("1"), dump["a"])
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"meta:model:*", "meta:model:md1", true},
		{"meta:model:*", "meta:column:c1", false},
		{"meta:*:md1:*", "meta:column:md1:list", true},
		{"meta:*:md1:*", "meta:column:md2:list", false},
		{"*", "anything", true},
		{"exact", "exact", true},
		{"exact", "exactly", false},
		{"*:list", "meta:model:list", true},
		{"*:list", "meta:model:md1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.pattern, tt.s), "pattern %q against %q", tt.pattern, tt.s)
	}
}
