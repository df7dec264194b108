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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/cardinalhq/metastore/metadb")

	dbExecDuration metric.Float64Histogram
)

func init() {
	var err error
	dbExecDuration, err = meter.Float64Histogram(
		"metastore.metadb.exec.duration",
		metric.WithUnit("s"),
		metric.WithDescription("The duration in seconds for a meta db statement to execute"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create metadb.exec.duration histogram: %w", err))
	}
}

// recordExec times one statement against the exec-duration histogram.
func recordExec(ctx context.Context, op string, kind Kind, start time.Time) {
	dbExecDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("kind", string(kind)),
		))
}
