/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tomoncle/repokit/repository"

const (
	metricFailures = "repokit.repository.failures"
	metricDuration = "repokit.repository.duration"
)

type instruments struct {
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func defaultMeter() metric.Meter   { return otel.Meter(instrumentationName) }
func defaultTracer() trace.Tracer { return otel.Tracer(instrumentationName) }

// newInstruments falls back to no-op instruments when the meter rejects one.
func newInstruments(meter metric.Meter) (instruments, error) {
	failures, err1 := meter.Int64Counter(
		metricFailures,
		metric.WithDescription("Number of failed repository operations"),
	)
	duration, err2 := meter.Float64Histogram(
		metricDuration,
		metric.WithDescription("Repository operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err := errors.Join(err1, err2); err != nil {
		return instruments{failures: noop.Int64Counter{}, duration: noop.Float64Histogram{}}, err
	}
	return instruments{failures: failures, duration: duration}, nil
}

// observe opens a span for op and returns the function that closes it,
// records the duration and, on failure, logs once and counts the failure.
func (r *Base[T]) observe(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "repository."+op, trace.WithAttributes(
		attribute.String("db.table", r.table),
		attribute.String("repository.op", op),
	))

	return ctx, func(err error) {
		defer span.End()
		r.metrics.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("table", r.table),
		))
		if err == nil {
			return
		}

		kind := KindName(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		r.metrics.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("kind", kind),
			attribute.String("table", r.table),
		))

		switch {
		case errors.Is(err, ErrNotImplemented):
			r.logger.Debug("operation not implemented", "op", op, "table", r.table)
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
			r.logger.Warn(err.Error(), "op", op, "table", r.table, "kind", kind)
		default:
			r.logger.Error(err.Error(), "op", op, "table", r.table, "kind", kind)
		}
	}
}
