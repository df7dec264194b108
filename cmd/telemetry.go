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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// setupLogging configures the default slog logger for a command. DEBUG or
// METASTORE_DEBUG raises the level; METASTORE_LOG_FILE additionally fans
// out JSON records to a file alongside the text stream on stdout.
func setupLogging(servicename string) (func() error, error) {
	var opts *slog.HandlerOptions
	if os.Getenv("DEBUG") != "" || os.Getenv("METASTORE_DEBUG") != "" {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}

	cleanup := func() error { return nil }

	if path := os.Getenv("METASTORE_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		slog.SetDefault(slog.New(slogmulti.Fanout(
			slog.NewTextHandler(os.Stdout, opts),
			slog.NewJSONHandler(f, opts),
		)).With(
			slog.String("service", servicename),
		))
		cleanup = f.Close
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)).With(
			slog.String("service", servicename),
		))
	}

	return cleanup, nil
}

// setupCommand is the shared preamble for subcommands: logging plus a
// signal-cancelled context.
func setupCommand(servicename string) (context.Context, context.CancelFunc, func() error, error) {
	cleanup, err := setupLogging(servicename)
	if err != nil {
		return nil, nil, nil, err
	}
	doneCtx, doneCancel := handleSignals(context.Background())
	return doneCtx, doneCancel, cleanup, nil
}
