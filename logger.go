// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafkamqp

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a [slog.Logger] bridged to the OpenTelemetry log pipeline,
// scoped under the given instrumentation name (conventionally a package
// import path).
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}
