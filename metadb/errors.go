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
	"fmt"
)

var (
	// ErrUnknownKind is returned when a Kind has no registered table.
	ErrUnknownKind = errors.New("metadb: unknown entity kind")

	// ErrRawConditionNotAllowed is returned when a raw bulk-update
	// condition is used for a kind outside the allow-list.
	ErrRawConditionNotAllowed = errors.New("metadb: raw condition not allowed for this kind")
)

// UnsafeMutationError reports an update or delete issued with no predicate
// and without force. It is never retried and never downgraded to a
// full-table operation.
type UnsafeMutationError struct {
	Kind Kind
	Op   string
}

func (e *UnsafeMutationError) Error() string {
	return fmt.Sprintf("refusing %s on %q without a predicate (pass force to override)", e.Op, e.Kind)
}

// TransactionError reports a failed commit or rollback. The whole business
// operation that owned the transaction is treated as failed.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
