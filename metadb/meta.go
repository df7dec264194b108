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
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type writeOptions struct {
	skipIDGeneration bool
	skipUpdatedAt    bool
	force            bool
}

// WriteOption adjusts a single insert/update/delete call.
type WriteOption func(*writeOptions)

// WithSkipIDGeneration inserts the record without generating an id, even
// when none is supplied. Required for idempotent import and restore.
func WithSkipIDGeneration() WriteOption {
	return func(o *writeOptions) { o.skipIDGeneration = true }
}

// WithSkipUpdatedAt leaves updated_at untouched on update.
func WithSkipUpdatedAt() WriteOption {
	return func(o *writeOptions) { o.skipUpdatedAt = true }
}

// WithForce permits a predicate-less update or delete. Deliberately loud
// at call sites; an unforced mutation with no predicate is rejected.
func WithForce() WriteOption {
	return func(o *writeOptions) { o.force = true }
}

func applyWriteOptions(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// rawConditionKinds is the allow-list of kinds whose BulkUpdate may carry
// an arbitrary SQL condition bypassing per-row id checks. Kept hardcoded
// and auditable on purpose; the only current user is bulk hook
// enable/disable across a model's hooks.
var rawConditionKinds = map[Kind]bool{
	KindHook: true,
}

// Get returns one record matching the query within scope, or nil when
// nothing matches. A miss is not an error.
func (s *Store) Get(ctx context.Context, scope Scope, kind Kind, q Query) (Record, error) {
	if err := validateScope(scope, kind); err != nil {
		return nil, err
	}
	q.Limit = 1
	rows, err := s.List(ctx, scope, kind, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// List returns all records matching the query within scope, honoring
// projection, ordering, limit, and offset.
func (s *Store) List(ctx context.Context, scope Scope, kind Kind, q Query) ([]Record, error) {
	if err := validateScope(scope, kind); err != nil {
		return nil, err
	}
	defer recordExec(ctx, "list", kind, time.Now())

	sel, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	whereSQL, args, err := buildWhere(scope, kind, q)
	if err != nil {
		return nil, err
	}
	orderSQL, err := buildOrderBy(q)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", sel, kind.Table())
	if whereSQL != "" {
		b.WriteString(" WHERE " + whereSQL)
	}
	b.WriteString(orderSQL)
	if q.Limit > 0 {
		b.WriteString(" LIMIT @q_limit")
		args["q_limit"] = q.Limit
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET @q_offset")
		args["q_offset"] = q.Offset
	}

	rows, err := s.db.Query(ctx, b.String(), args)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]Record, len(maps))
	for i, m := range maps {
		out[i] = Record(m)
	}
	return out, nil
}

// Count returns the number of records matching where within scope.
func (s *Store) Count(ctx context.Context, scope Scope, kind Kind, where Where) (int64, error) {
	if err := validateScope(scope, kind); err != nil {
		return 0, err
	}
	defer recordExec(ctx, "count", kind, time.Now())

	whereSQL, args, err := buildWhere(scope, kind, Query{Where: where})
	if err != nil {
		return 0, err
	}
	sql := "SELECT COUNT(*) FROM " + kind.Table()
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
	}
	var n int64
	if err := s.db.QueryRow(ctx, sql, args).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// prepareInsert validates scope and returns the fully-stamped row to
// write: generated id (unless supplied or skipped), timestamps, and the
// scope's base_id. Pure aside from clock and id entropy.
func prepareInsert(scope Scope, kind Kind, data Record, o writeOptions) (Record, error) {
	if err := validateScope(scope, kind); err != nil {
		return nil, err
	}
	rec := data.Clone()
	if rec == nil {
		rec = Record{}
	}
	if rec.ID() == "" && !o.skipIDGeneration {
		rec[FieldID] = GenerateID(kind)
	}
	now := time.Now().UTC()
	rec[FieldCreatedAt] = now
	rec[FieldUpdatedAt] = now
	if !scope.IsBypass() && kind != KindProject {
		rec[FieldBaseID] = scope.BaseID
	}
	return rec, nil
}

// Insert validates scope, stamps id and timestamps, and writes one record,
// returning the row as persisted.
func (s *Store) Insert(ctx context.Context, scope Scope, kind Kind, data Record, opts ...WriteOption) (Record, error) {
	rec, err := prepareInsert(scope, kind, data, applyWriteOptions(opts))
	if err != nil {
		return nil, err
	}
	defer recordExec(ctx, "insert", kind, time.Now())

	sql, args, err := buildInsert(kind, rec)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", kind, err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", kind, err)
	}
	return Record(m), nil
}

// BulkInsert writes the batch with the same guarantees as Insert. Within
// an active transaction the batch is all-or-nothing; outside one, the
// whole call runs in its own transaction.
func (s *Store) BulkInsert(ctx context.Context, scope Scope, kind Kind, data []Record) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if err := validateScope(scope, kind); err != nil {
		return nil, err
	}
	defer recordExec(ctx, "bulk_insert", kind, time.Now())

	prepared := make([]Record, len(data))
	batch := &pgx.Batch{}
	for i, d := range data {
		rec, err := prepareInsert(scope, kind, d, writeOptions{})
		if err != nil {
			return nil, err
		}
		sql, args, err := buildInsert(kind, rec)
		if err != nil {
			return nil, err
		}
		batch.Queue(sql, args)
		prepared[i] = rec
	}

	send := func(st *Store) error {
		sender, ok := st.db.(interface {
			SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
		})
		if !ok {
			return fmt.Errorf("bulk insert %s: db does not support batches", kind)
		}
		br := sender.SendBatch(ctx, batch)
		for i := range prepared {
			rows, err := br.Query()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("bulk insert %s row %d: %w", kind, i, err)
			}
			m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("bulk insert %s row %d: %w", kind, i, err)
			}
			prepared[i] = Record(m)
		}
		return br.Close()
	}

	// Inside a transaction handle the batch joins it; on the pool it gets
	// its own transaction so the batch stays all-or-nothing.
	if _, pooled := s.db.(*pgxpool.Pool); pooled {
		if err := s.ExecTx(ctx, send); err != nil {
			return nil, err
		}
	} else {
		if err := send(s); err != nil {
			return nil, err
		}
	}
	return prepared, nil
}

// prepareUpdate strips fields callers may not change: id, created_at, and
// base_id are store-owned. updated_at is stamped unless skipped.
func prepareUpdate(data Record, o writeOptions) Record {
	rec := data.Clone()
	if rec == nil {
		rec = Record{}
	}
	for _, f := range []string{FieldID, FieldCreatedAt, FieldBaseID} {
		if _, ok := rec[f]; ok {
			slog.Debug("dropping store-owned field from update", slog.String("field", f))
			delete(rec, f)
		}
	}
	if !o.skipUpdatedAt {
		rec[FieldUpdatedAt] = time.Now().UTC()
	}
	return rec
}

// Update applies data to the records matching the query and returns the
// first updated row, or nil when nothing matched. A query with no
// predicate is rejected with UnsafeMutationError unless forced.
func (s *Store) Update(ctx context.Context, scope Scope, kind Kind, data Record, q Query, opts ...WriteOption) (Record, error) {
	o := applyWriteOptions(opts)
	if err := validateScope(scope, kind); err != nil {
		return nil, err
	}
	if !q.hasPredicate() && !o.force {
		return nil, &UnsafeMutationError{Kind: kind, Op: "update"}
	}
	defer recordExec(ctx, "update", kind, time.Now())

	rec := prepareUpdate(data, o)
	if len(rec) == 0 {
		return nil, fmt.Errorf("update %s: nothing to set", kind)
	}

	setSQL, args, err := buildSet(rec)
	if err != nil {
		return nil, err
	}
	whereSQL, whereArgs, err := buildWhere(scope, kind, q)
	if err != nil {
		return nil, err
	}
	for k, v := range whereArgs {
		args[k] = v
	}

	sql := fmt.Sprintf("UPDATE %s SET %s", kind.Table(), setSQL)
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
	}
	sql += " RETURNING *"

	rows, err := s.db.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	if len(maps) == 0 {
		return nil, nil
	}
	return Record(maps[0]), nil
}

// BulkUpdate applies data to the given ids in one statement and returns
// the affected-row count. A raw condition bypasses per-row id checks and
// is only permitted for allow-listed kinds.
func (s *Store) BulkUpdate(ctx context.Context, scope Scope, kind Kind, data Record, ids []string, cond *Condition) (int64, error) {
	if err := validateScope(scope, kind); err != nil {
		return 0, err
	}
	if cond != nil && !rawConditionKinds[kind] {
		return 0, fmt.Errorf("%w: %q", ErrRawConditionNotAllowed, kind)
	}
	if len(ids) == 0 && cond == nil {
		return 0, &UnsafeMutationError{Kind: kind, Op: "bulk update"}
	}
	defer recordExec(ctx, "bulk_update", kind, time.Now())

	rec := prepareUpdate(data, writeOptions{})
	setSQL, args, err := buildSet(rec)
	if err != nil {
		return 0, err
	}

	whereSQL, whereArgs, err := buildWhere(scope, kind, Query{})
	if err != nil {
		return 0, err
	}
	for k, v := range whereArgs {
		args[k] = v
	}

	var terms []string
	if whereSQL != "" {
		terms = append(terms, whereSQL)
	}
	if len(ids) > 0 {
		terms = append(terms, "id = ANY(@bulk_ids)")
		args["bulk_ids"] = ids
	}
	if cond != nil {
		terms = append(terms, "("+cond.SQL+")")
		for k, v := range cond.Args {
			args[k] = v
		}
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", kind.Table(), setSQL, strings.Join(terms, " AND "))
	tag, err := s.db.Exec(ctx, sql, args)
	if err != nil {
		return 0, fmt.Errorf("bulk update %s: %w", kind, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the records matching the query. The same predicate guard
// as Update applies: no predicate and no force is a fatal error, never a
// full-table delete.
func (s *Store) Delete(ctx context.Context, scope Scope, kind Kind, q Query, opts ...WriteOption) error {
	o := applyWriteOptions(opts)
	if err := validateScope(scope, kind); err != nil {
		return err
	}
	if !q.hasPredicate() && !o.force {
		return &UnsafeMutationError{Kind: kind, Op: "delete"}
	}
	defer recordExec(ctx, "delete", kind, time.Now())

	whereSQL, args, err := buildWhere(scope, kind, q)
	if err != nil {
		return err
	}
	sql := "DELETE FROM " + kind.Table()
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
	}
	if _, err := s.db.Exec(ctx, sql, args); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

// NextOrder returns max(sort_order)+1 within the group selected by where,
// defaulting to 1 for an empty group. Keeps sibling records stably ordered
// without renumbering.
func (s *Store) NextOrder(ctx context.Context, kind Kind, where Where) (int64, error) {
	if kind.Table() == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	defer recordExec(ctx, "next_order", kind, time.Now())

	whereSQL, args, err := buildWhere(Bypass, kind, Query{Where: where})
	if err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", FieldOrder, kind.Table())
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
	}
	var next int64
	if err := s.db.QueryRow(ctx, sql, args).Scan(&next); err != nil {
		return 0, fmt.Errorf("next order %s: %w", kind, err)
	}
	return next, nil
}

// buildInsert renders INSERT ... RETURNING * for the stamped record.
// Fields are sorted so the generated SQL is stable.
func buildInsert(kind Kind, rec Record) (string, pgx.NamedArgs, error) {
	fields := make([]string, 0, len(rec))
	for f := range rec {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	args := pgx.NamedArgs{}
	placeholders := make([]string, len(fields))
	for i, f := range fields {
		if err := checkIdent(f); err != nil {
			return "", nil, err
		}
		arg := "i_" + f
		placeholders[i] = "@" + arg
		args[arg] = rec[f]
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		kind.Table(), strings.Join(fields, ", "), strings.Join(placeholders, ", "))
	return sql, args, nil
}

// buildSet renders the SET clause for an update.
func buildSet(rec Record) (string, pgx.NamedArgs, error) {
	fields := make([]string, 0, len(rec))
	for f := range rec {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	args := pgx.NamedArgs{}
	terms := make([]string, len(fields))
	for i, f := range fields {
		if err := checkIdent(f); err != nil {
			return "", nil, err
		}
		arg := "s_" + f
		terms[i] = fmt.Sprintf("%s = @%s", f, arg)
		args[arg] = rec[f]
	}
	return strings.Join(terms, ", "), args, nil
}
