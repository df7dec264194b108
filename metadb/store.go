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
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by pgxpool.Pool and pgx.Tx, so the same
// store methods run pooled or inside a transaction handle.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides all functions to execute meta db queries and transactions.
type Store struct {
	db       DBTX
	connPool *pgxpool.Pool
}

// NewStore creates a new Store over the process-wide connection pool.
func NewStore(connPool *pgxpool.Pool) *Store {
	return &Store{db: connPool, connPool: connPool}
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.connPool
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	if s.connPool != nil {
		s.connPool.Close()
	}
}

// Tx wraps one store connection for exactly one logical business
// operation. Concurrent reuse across two in-flight operations is undefined
// by construction.
type Tx struct {
	store *Store
	tx    pgx.Tx
	id    string
}

// StartTransaction begins a transaction and returns its handle. The handle
// exposes a Store bound to the transaction; all operations through it
// commit or roll back atomically.
func (s *Store) StartTransaction(ctx context.Context) (*Tx, error) {
	if s.connPool == nil {
		return nil, errors.New("metadb: store has no connection pool")
	}
	tx, err := s.connPool.Begin(ctx)
	if err != nil {
		return nil, &TransactionError{Op: "begin", Err: err}
	}
	id := uuid.NewString()
	slog.Debug("meta transaction started", slog.String("tx_id", id))
	return &Tx{
		store: &Store{db: tx, connPool: s.connPool},
		tx:    tx,
		id:    id,
	}, nil
}

// Store returns the store bound to this transaction.
func (t *Tx) Store() *Store {
	return t.store
}

// Commit commits the transaction. A short background timeout is used so an
// unresponsive database cannot hang the caller forever.
func (t *Tx) Commit(ctx context.Context) error {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := t.tx.Commit(commitCtx); err != nil {
		return &TransactionError{Op: "commit", Err: err}
	}
	slog.Debug("meta transaction committed", slog.String("tx_id", t.id))
	return nil
}

// Rollback aborts the transaction. cause, if non-nil, is joined into the
// returned error so the original failure survives a rollback failure.
// Never uses the caller ctx, which may already be cancelled.
func (t *Tx) Rollback(cause error) error {
	rbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.tx.Rollback(rbCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		rbErr := &TransactionError{Op: "rollback", Err: err}
		if cause != nil {
			return errors.Join(cause, rbErr)
		}
		return rbErr
	}
	slog.Debug("meta transaction rolled back", slog.String("tx_id", t.id), slog.Any("cause", cause))
	return cause
}

// ExecTx runs fn inside a single transaction; any error rolls back
// everything fn did.
func (s *Store) ExecTx(ctx context.Context, fn func(*Store) error) (err error) {
	handle, err := s.StartTransaction(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		err = handle.Rollback(err)
	}()

	if err = fn(handle.Store()); err != nil {
		return fmt.Errorf("meta transaction failed: %w", err)
	}

	if err = handle.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
