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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_IsRoot(t *testing.T) {
	assert.True(t, NewScope("system", "system").IsRoot())
	assert.True(t, NewScope("org", "org").IsRoot())
	assert.False(t, NewScope("ws1", "base1").IsRoot())
	assert.False(t, NewScope("ws1", "").IsRoot())
}

func TestScope_IsBypass(t *testing.T) {
	assert.True(t, Bypass.IsBypass())
	assert.False(t, NewScope("system", "system").IsBypass())
	assert.False(t, NewScope("ws1", "base1").IsBypass())
}

func TestKind_Table(t *testing.T) {
	assert.Equal(t, "meta_projects", KindProject.Table())
	assert.Equal(t, "meta_kv_store", KindKVStore.Table())
	assert.Equal(t, "", Kind("bogus").Table())
}

func TestValidateScope(t *testing.T) {
	tests := []struct {
		name    string
		scope   Scope
		kind    Kind
		wantErr bool
	}{
		{"tenant scope any kind", NewScope("ws1", "base1"), KindModel, false},
		{"tenant scope project kind", NewScope("ws1", "base1"), KindProject, false},
		{"tenant scope empty base", NewScope("ws1", ""), KindModel, true},
		{"system root allowed kind", NewScope("system", "system"), KindUser, false},
		{"system root kv_store", NewScope("system", "system"), KindKVStore, false},
		{"system root forbidden kind", NewScope("system", "system"), KindModel, true},
		{"org root allowed kind", NewScope("org", "org"), KindAPIToken, false},
		{"org root kv_store forbidden", NewScope("org", "org"), KindKVStore, true},
		{"unknown root identifier", NewScope("custom", "custom"), KindUser, true},
		{"bypass skips all checks", Bypass, KindModel, false},
		{"unknown kind", NewScope("ws1", "base1"), Kind("bogus"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScope(tt.scope, tt.kind)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateScope_ErrorTypes(t *testing.T) {
	err := validateScope(NewScope("system", "system"), KindModel)
	var scopeErr *ScopeError
	require.ErrorAs(t, err, &scopeErr)
	assert.Equal(t, KindModel, scopeErr.Kind)
	assert.Contains(t, scopeErr.Error(), "not permitted")

	err = validateScope(NewScope("ws1", "base1"), Kind("bogus"))
	require.True(t, errors.Is(err, ErrUnknownKind))
}

func TestValidateScope_BypassUnknownKind(t *testing.T) {
	// Bypass skips even the kind check; SQL generation rejects the kind
	// later when no table exists.
	require.NoError(t, validateScope(Bypass, Kind("bogus")))
}
