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
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Where is an equality predicate over record fields, ANDed together.
type Where map[string]any

// Order is one ORDER BY term.
type Order struct {
	Field string
	Desc  bool
}

// Condition is a raw SQL predicate fragment with named arguments
// (@name placeholders). Reads may use it freely since they are always
// scope-predicated; BulkUpdate only accepts it for allow-listed kinds.
type Condition struct {
	SQL  string
	Args map[string]any
}

// Query selects records within one scope and kind. ID and Where combine
// with AND; Fields limits the projection (empty means all).
type Query struct {
	ID      string
	Where   Where
	Extra   *Condition
	Fields  []string
	OrderBy []Order
	Limit   int32
	Offset  int32
}

// hasPredicate reports whether the query narrows the affected rows at all.
// Mutations without a predicate are rejected unless forced.
func (q Query) hasPredicate() bool {
	return q.ID != "" || len(q.Where) > 0 || q.Extra != nil
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// checkIdent guards dynamic field names before they are spliced into SQL.
// Values always travel as bound arguments; identifiers cannot, so they are
// restricted to a safe shape instead.
func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("metadb: invalid field name %q", name)
	}
	return nil
}

// scopePredicate returns the mandatory tenant predicate for the scope.
// Tenant-scoped queries are always predicated on base_id, except for the
// top-level project kind which is addressed by its own id. Bypass adds
// nothing.
func scopePredicate(scope Scope, kind Kind) Where {
	if scope.IsBypass() {
		return nil
	}
	if kind == KindProject && !scope.IsRoot() {
		return Where{FieldID: scope.BaseID}
	}
	return Where{FieldBaseID: scope.BaseID}
}

// buildWhere renders the WHERE clause for scope plus query predicates,
// returning the SQL fragment (without the WHERE keyword) and named args.
// The scope predicate is rendered first with its own argument namespace:
// a caller predicate on the same field ANDs with it, never replaces it.
// Field order is sorted so generated SQL is stable.
func buildWhere(scope Scope, kind Kind, q Query) (string, pgx.NamedArgs, error) {
	args := pgx.NamedArgs{}
	var terms []string

	scoped := scopePredicate(scope, kind)
	scopeFields := make([]string, 0, len(scoped))
	for f := range scoped {
		scopeFields = append(scopeFields, f)
	}
	sort.Strings(scopeFields)
	for _, f := range scopeFields {
		if err := checkIdent(f); err != nil {
			return "", nil, err
		}
		arg := "scope_" + f
		terms = append(terms, fmt.Sprintf("%s = @%s", f, arg))
		args[arg] = scoped[f]
	}

	where := Where{}
	for f, v := range q.Where {
		where[f] = v
	}
	if q.ID != "" {
		where[FieldID] = q.ID
	}

	fields := make([]string, 0, len(where))
	for f := range where {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		if err := checkIdent(f); err != nil {
			return "", nil, err
		}
		arg := "w_" + f
		terms = append(terms, fmt.Sprintf("%s = @%s", f, arg))
		args[arg] = where[f]
	}

	if q.Extra != nil {
		terms = append(terms, "("+q.Extra.SQL+")")
		for k, v := range q.Extra.Args {
			args[k] = v
		}
	}

	return strings.Join(terms, " AND "), args, nil
}

// buildSelect renders the projection list, defaulting to * when the query
// names no fields.
func buildSelect(q Query) (string, error) {
	if len(q.Fields) == 0 {
		return "*", nil
	}
	for _, f := range q.Fields {
		if err := checkIdent(f); err != nil {
			return "", err
		}
	}
	return strings.Join(q.Fields, ", "), nil
}

// buildOrderBy renders the ORDER BY clause, or "" when unordered.
func buildOrderBy(q Query) (string, error) {
	if len(q.OrderBy) == 0 {
		return "", nil
	}
	terms := make([]string, 0, len(q.OrderBy))
	for _, o := range q.OrderBy {
		if err := checkIdent(o.Field); err != nil {
			return "", err
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, o.Field+" "+dir)
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}
