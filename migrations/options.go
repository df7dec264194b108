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

// Package migrations holds the shared option types for migration version
// checking. Each migration set (schema, seed) applies these against its
// own migration table.
package migrations

import "time"

// CheckMode defines how migration version checking behaves.
type CheckMode int

const (
	// CheckModeWait waits for migrations to complete, failing if they
	// don't complete within the timeout.
	CheckModeWait CheckMode = iota
	// CheckModeWarn logs version mismatches but continues.
	CheckModeWarn
	// CheckModeSkip skips version checking entirely.
	CheckModeSkip
)

// CheckOptions contains options for migration version checking.
type CheckOptions struct {
	Mode          CheckMode
	Timeout       time.Duration
	RetryInterval time.Duration
	AllowDirty    bool
}

// CheckOption modifies CheckOptions.
type CheckOption func(*CheckOptions)

func WithCheckMode(mode CheckMode) CheckOption {
	return func(opts *CheckOptions) { opts.Mode = mode }
}

func WithTimeout(timeout time.Duration) CheckOption {
	return func(opts *CheckOptions) { opts.Timeout = timeout }
}

func WithRetryInterval(interval time.Duration) CheckOption {
	return func(opts *CheckOptions) { opts.RetryInterval = interval }
}

// WithAllowDirty allows proceeding even if a migration set is dirty.
func WithAllowDirty(allow bool) CheckOption {
	return func(opts *CheckOptions) { opts.AllowDirty = allow }
}

// DefaultCheckOptions returns the defaults: wait up to two minutes,
// rechecking every five seconds, refusing dirty state.
func DefaultCheckOptions() CheckOptions {
	return CheckOptions{
		Mode:          CheckModeWait,
		Timeout:       120 * time.Second,
		RetryInterval: 5 * time.Second,
		AllowDirty:    false,
	}
}
