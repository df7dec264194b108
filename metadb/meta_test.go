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
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareInsert_GeneratesID(t *testing.T) {
	scope := NewScope("ws1", "base1")

	rec, err := prepareInsert(scope, KindModel, Record{"title": "orders"}, writeOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.ID(), "md"))
	assert.Equal(t, "orders", rec["title"])
	assert.Equal(t, "base1", rec[FieldBaseID])
	assert.IsType(t, time.Time{}, rec[FieldCreatedAt])
	assert.Equal(t, rec[FieldCreatedAt], rec[FieldUpdatedAt])
}

func TestPrepareInsert_KeepsSuppliedID(t *testing.T) {
	rec, err := prepareInsert(NewScope("ws1", "base1"), KindModel, Record{"id": "md_custom"}, writeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "md_custom", rec.ID())
}

func TestPrepareInsert_SkipIDGeneration(t *testing.T) {
	rec, err := prepareInsert(NewScope("ws1", "base1"), KindModel, Record{"title": "x"}, writeOptions{skipIDGeneration: true})
	require.NoError(t, err)
	assert.Equal(t, "", rec.ID())
}

func TestPrepareInsert_SkipIDGenerationIdempotent(t *testing.T) {
	// An id supplied alongside the skip option survives untouched, so
	// re-importing the same record keeps the same identity.
	rec, err := prepareInsert(NewScope("ws1", "base1"), KindUser, Record{"id": "usimported"}, writeOptions{skipIDGeneration: true})
	require.NoError(t, err)
	assert.Equal(t, "usimported", rec.ID())
}

func TestPrepareInsert_ProjectHasNoBaseID(t *testing.T) {
	rec, err := prepareInsert(NewScope("ws1", "base1"), KindProject, Record{"title": "p"}, writeOptions{})
	require.NoError(t, err)
	assert.NotContains(t, rec, FieldBaseID)
}

func TestPrepareInsert_BypassDoesNotStampBaseID(t *testing.T) {
	rec, err := prepareInsert(Bypass, KindModel, Record{"base_id": "explicit"}, writeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "explicit", rec["base_id"])
}

func TestPrepareInsert_RejectsBadScope(t *testing.T) {
	_, err := prepareInsert(NewScope("system", "system"), KindModel, Record{}, writeOptions{})
	var scopeErr *ScopeError
	require.ErrorAs(t, err, &scopeErr)
}

func TestPrepareInsert_DoesNotMutateInput(t *testing.T) {
	in := Record{"title": "x"}
	_, err := prepareInsert(NewScope("ws1", "base1"), KindModel, in, writeOptions{})
	require.NoError(t, err)
	assert.NotContains(t, in, FieldID)
	assert.NotContains(t, in, FieldCreatedAt)
}

func TestPrepareUpdate_StripsStoreOwnedFields(t *testing.T) {
	rec := prepareUpdate(Record{
		"id":         "md1",
		"base_id":    "other",
		"created_at": "then",
		"title":      "renamed",
	}, writeOptions{})
	assert.NotContains(t, rec, FieldID)
	assert.NotContains(t, rec, FieldBaseID)
	assert.NotContains(t, rec, FieldCreatedAt)
	assert.Equal(t, "renamed", rec["title"])
	assert.IsType(t, time.Time{}, rec[FieldUpdatedAt])
}

func TestPrepareUpdate_SkipUpdatedAt(t *testing.T) {
	rec := prepareUpdate(Record{"title": "x"}, writeOptions{skipUpdatedAt: true})
	assert.NotContains(t, rec, FieldUpdatedAt)
}

func TestUpdate_RejectsPredicateless(t *testing.T) {
	s := &Store{}
	_, err := s.Update(context.Background(), NewScope("ws1", "base1"), KindModel, Record{"title": "x"}, Query{})
	var unsafeErr *UnsafeMutationError
	require.ErrorAs(t, err, &unsafeErr)
	assert.Equal(t, KindModel, unsafeErr.Kind)
	assert.Equal(t, "update", unsafeErr.Op)
}

func TestDelete_RejectsPredicateless(t *testing.T) {
	s := &Store{}
	err := s.Delete(context.Background(), NewScope("ws1", "base1"), KindModel, Query{})
	var unsafeErr *UnsafeMutationError
	require.ErrorAs(t, err, &unsafeErr)
	assert.Equal(t, "delete", unsafeErr.Op)
}

func TestBulkUpdate_RejectsRawConditionForNonAllowListedKind(t *testing.T) {
	s := &Store{}
	_, err := s.BulkUpdate(context.Background(), NewScope("ws1", "base1"), KindModel,
		Record{"title": "x"}, nil, &Condition{SQL: "type = 'table'"})
	require.True(t, errors.Is(err, ErrRawConditionNotAllowed))
}

func TestBulkUpdate_RejectsEmptyTarget(t *testing.T) {
	s := &Store{}
	_, err := s.BulkUpdate(context.Background(), NewScope("ws1", "base1"), KindHook, Record{"active": false}, nil, nil)
	var unsafeErr *UnsafeMutationError
	require.ErrorAs(t, err, &unsafeErr)
}

func TestGet_RejectsBadScope(t *testing.T) {
	s := &Store{}
	_, err := s.Get(context.Background(), NewScope("org", "org"), KindKVStore, Query{ID: "kv1"})
	var scopeErr *ScopeError
	require.ErrorAs(t, err, &scopeErr)
}

func TestNextOrder_RejectsUnknownKind(t *testing.T) {
	s := &Store{}
	_, err := s.NextOrder(context.Background(), Kind("bogus"), nil)
	require.True(t, errors.Is(err, ErrUnknownKind))
}

func TestBuildInsert(t *testing.T) {
	sql, args, err := buildInsert(KindModel, Record{"id": "md1", "title": "orders"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO meta_models (id, title) VALUES (@i_id, @i_title) RETURNING *", sql)
	assert.Equal(t, "md1", args["i_id"])
	assert.Equal(t, "orders", args["i_title"])
}

func TestBuildInsert_RejectsBadIdent(t *testing.T) {
	_, _, err := buildInsert(KindModel, Record{"title) VALUES ('x'); --": "y"})
	require.Error(t, err)
}

func TestBuildSet(t *testing.T) {
	sql, args, err := buildSet(Record{"type": "view", "title": "orders"})
	require.NoError(t, err)
	assert.Equal(t, "title = @s_title, type = @s_type", sql)
	assert.Equal(t, "orders", args["s_title"])
}
