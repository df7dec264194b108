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

package metacache

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/cardinalhq/metastore/metacache")

	hitCounter          metric.Int64Counter
	missCounter         metric.Int64Counter
	invalidationCounter metric.Int64Counter
)

func init() {
	var err error
	hitCounter, err = meter.Int64Counter(
		"metastore.metacache.hits",
		metric.WithDescription("Number of cache hits"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create metacache.hits counter: %w", err))
	}
	missCounter, err = meter.Int64Counter(
		"metastore.metacache.misses",
		metric.WithDescription("Number of cache misses"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create metacache.misses counter: %w", err))
	}
	invalidationCounter, err = meter.Int64Counter(
		"metastore.metacache.invalidations",
		metric.WithDescription("Number of keys removed by invalidation"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create metacache.invalidations counter: %w", err))
	}
}

func recordHit(ctx context.Context, scope string) {
	hitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

func recordMiss(ctx context.Context, scope string) {
	missCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

func recordInvalidation(ctx context.Context, scope string, n int) {
	invalidationCounter.Add(ctx, int64(n), metric.WithAttributes(attribute.String("scope", scope)))
}
