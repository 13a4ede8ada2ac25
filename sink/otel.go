// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"log/slog"

	"github.com/z5labs/kafkamqp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

func tracer() trace.Tracer {
	return otel.Tracer("github.com/z5labs/kafkamqp/sink")
}

func meter() metric.Meter {
	return otel.Meter("github.com/z5labs/kafkamqp/sink")
}

func logger() *slog.Logger {
	return kafkamqp.Logger("github.com/z5labs/kafkamqp/sink")
}
