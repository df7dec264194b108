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
	"github.com/stretchr/testify/require"
)

func TestQuery_HasPredicate(t *testing.T) {
	assert.False(t, Query{}.hasPredicate())
	assert.True(t, Query{ID: "md1"}.hasPredicate())
	assert.True(t, Query{Where: Where{"title": "x"}}.hasPredicate())
	assert.True(t, Query{Extra: &Condition{SQL: "active = true"}}.hasPredicate())
}

func TestCheckIdent(t *testing.T) {
	require.NoError(t, checkIdent("title"))
	require.NoError(t, checkIdent("fk_model_id"))
	require.NoError(t, checkIdent("_private"))
	require.Error(t, checkIdent("Title"))
	require.Error(t, checkIdent("1col"))
	require.Error(t, checkIdent("title; drop table meta_models"))
	require.Error(t, checkIdent("title--"))
	require.Error(t, checkIdent(""))
}

func TestScopePredicate(t *testing.T) {
	tenant := NewScope("ws1", "base1")

	assert.Equal(t, Where{FieldBaseID: "base1"}, scopePredicate(tenant, KindModel))
	// The project table is addressed by its own id, not base_id.
	assert.Equal(t, Where{FieldID: "base1"}, scopePredicate(tenant, KindProject))
	assert.Equal(t, Where{FieldBaseID: "system"}, scopePredicate(NewScope("system", "system"), KindUser))
	assert.Nil(t, scopePredicate(Bypass, KindModel))
}

func TestBuildWhere_ScopeAlwaysPresent(t *testing.T) {
	scope := NewScope("ws1", "base1")

	sql, args, err := buildWhere(scope, KindModel, Query{})
	require.NoError(t, err)
	assert.Equal(t, "base_id = @scope_base_id", sql)
	assert.Equal(t, "base1", args["scope_base_id"])
}

func TestBuildWhere_CallerCannotOverrideScope(t *testing.T) {
	scope := NewScope("ws1", "base1")

	// A caller-supplied base_id ANDs with the scope predicate instead of
	// replacing it, so the tenant bound always holds.
	sql, args, err := buildWhere(scope, KindModel, Query{Where: Where{FieldBaseID: "other"}})
	require.NoError(t, err)
	assert.Equal(t, "base_id = @scope_base_id AND base_id = @w_base_id", sql)
	assert.Equal(t, "base1", args["scope_base_id"])
	assert.Equal(t, "other", args["w_base_id"])
}

func TestBuildWhere_ProjectIDStaysTenantBound(t *testing.T) {
	scopeB := NewScope("wsB", "baseB")

	// Projects are addressed by id, so a Get by another tenant's project
	// id must still carry the scope's id term alongside the caller's.
	sql, args, err := buildWhere(scopeB, KindProject, Query{ID: "p_tenanta000001"})
	require.NoError(t, err)
	assert.Equal(t, "id = @scope_id AND id = @w_id", sql)
	assert.Equal(t, "baseB", args["scope_id"])
	assert.Equal(t, "p_tenanta000001", args["w_id"])
}

func TestBuildWhere_SortedAndStable(t *testing.T) {
	scope := NewScope("ws1", "base1")
	q := Query{ID: "md1", Where: Where{"title": "x", "type": "table"}}

	sql, args, err := buildWhere(scope, KindModel, q)
	require.NoError(t, err)
	assert.Equal(t, "base_id = @scope_base_id AND id = @w_id AND title = @w_title AND type = @w_type", sql)
	assert.Equal(t, "md1", args["w_id"])
	assert.Equal(t, "x", args["w_title"])
}

func TestBuildWhere_ExtraCondition(t *testing.T) {
	sql, args, err := buildWhere(Bypass, KindHook, Query{
		Extra: &Condition{SQL: "active = @active", Args: map[string]any{"active": true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "(active = @active)", sql)
	assert.Equal(t, true, args["active"])
}

func TestBuildWhere_RejectsBadIdent(t *testing.T) {
	_, _, err := buildWhere(Bypass, KindModel, Query{Where: Where{"title; --": "x"}})
	require.Error(t, err)
}

func TestBuildSelect(t *testing.T) {
	sel, err := buildSelect(Query{})
	require.NoError(t, err)
	assert.Equal(t, "*", sel)

	sel, err = buildSelect(Query{Fields: []string{"id", "title"}})
	require.NoError(t, err)
	assert.Equal(t, "id, title", sel)

	_, err = buildSelect(Query{Fields: []string{"id, password"}})
	require.Error(t, err)
}

func TestBuildOrderBy(t *testing.T) {
	s, err := buildOrderBy(Query{})
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = buildOrderBy(Query{OrderBy: []Order{{Field: "sort_order"}, {Field: "created_at", Desc: true}}})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY sort_order ASC, created_at DESC", s)

	_, err = buildOrderBy(Query{OrderBy: []Order{{Field: "1; drop"}}})
	require.Error(t, err)
}
