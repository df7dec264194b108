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

import "fmt"

// Kind identifies an entity kind persisted by the meta store. Every kind
// maps to exactly one backing table.
type Kind string

const (
	KindProject  Kind = "project"
	KindSource   Kind = "source"
	KindModel    Kind = "model"
	KindColumn   Kind = "column"
	KindView     Kind = "view"
	KindFilter   Kind = "filter"
	KindHook     Kind = "hook"
	KindUser     Kind = "user"
	KindKVStore  Kind = "kv_store"
	KindAPIToken Kind = "api_token"
)

var kindTables = map[Kind]string{
	KindProject:  "meta_projects",
	KindSource:   "meta_sources",
	KindModel:    "meta_models",
	KindColumn:   "meta_columns",
	KindView:     "meta_views",
	KindFilter:   "meta_filters",
	KindHook:     "meta_hooks",
	KindUser:     "meta_users",
	KindKVStore:  "meta_kv_store",
	KindAPIToken: "meta_api_tokens",
}

// Table returns the backing table for the kind, or "" if the kind is not
// registered.
func (k Kind) Table() string {
	return kindTables[k]
}

// Scope is the (workspace, base) pair every record and cache key is
// partitioned by. A scope whose workspace and base coincide is a root
// scope addressing system-level records.
type Scope struct {
	WorkspaceID string
	BaseID      string
}

func NewScope(workspaceID, baseID string) Scope {
	return Scope{WorkspaceID: workspaceID, BaseID: baseID}
}

// IsRoot reports whether the scope addresses system-level records rather
// than one tenant base.
func (s Scope) IsRoot() bool {
	return s.WorkspaceID == s.BaseID
}

const bypassID = "__bypass__"

// Bypass skips scope validation entirely. Reserved for internal
// maintenance call sites (migrations, seeding, admin repair).
var Bypass = Scope{WorkspaceID: bypassID, BaseID: bypassID}

func (s Scope) IsBypass() bool {
	return s.WorkspaceID == bypassID && s.BaseID == bypassID
}

// Enumerated root identifiers. Root-scoped rows live under one of these
// ids; anything else with workspace == base is rejected.
const (
	RootSystem = "system"
	RootOrg    = "org"
)

// rootKinds is the per-root allow-list of entity kinds that may be read or
// written under that root scope.
var rootKinds = map[string]map[Kind]bool{
	RootSystem: {
		KindUser:     true,
		KindKVStore:  true,
		KindAPIToken: true,
	},
	RootOrg: {
		KindUser:     true,
		KindAPIToken: true,
	},
}

// ScopeError reports a forbidden scope/kind combination. It is fatal and
// never downgraded: the operation it guards is not applied.
type ScopeError struct {
	Scope  Scope
	Kind   Kind
	Reason string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("scope (%s, %s) rejected for kind %q: %s",
		e.Scope.WorkspaceID, e.Scope.BaseID, e.Kind, e.Reason)
}

// validateScope decides whether scope may address kind at all. It is pure:
// no I/O, no side effects.
func validateScope(scope Scope, kind Kind) error {
	if scope.IsBypass() {
		return nil
	}
	if kind.Table() == "" {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if scope.IsRoot() {
		allowed, known := rootKinds[scope.BaseID]
		if !known {
			return &ScopeError{Scope: scope, Kind: kind, Reason: "not an enumerated root identifier"}
		}
		if !allowed[kind] {
			return &ScopeError{Scope: scope, Kind: kind, Reason: "kind not permitted under this root"}
		}
		return nil
	}
	if scope.BaseID == "" {
		return &ScopeError{Scope: scope, Kind: kind, Reason: "tenant scope requires a base id"}
	}
	return nil
}
