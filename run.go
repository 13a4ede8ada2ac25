// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafkamqp

import (
	"context"
	"io"
	"log/slog"
	"os"

	internalotel "github.com/z5labs/kafkamqp/internal/otel"

	"github.com/z5labs/kafkamqp/app"

	bedrockcfg "github.com/z5labs/bedrock/config"
)

// App is anything this module knows how to run to completion.
type App = app.Runtime

// Configer constrains the configuration types usable with [Run] and
// [Builder] to ones which know how to initialize the OpenTelemetry SDK.
type Configer interface {
	InitializeOTel(context.Context) error
}

// InitializeOTel implements [Configer] for [Config].
func (cfg Config) InitializeOTel(ctx context.Context) error {
	return internalotel.Initialize(ctx, cfg.OTel)
}

// Builder wraps an initializer function with the standard bootstrapping
// behaviour shared by every application built on this module: OTel SDK
// initialization followed by construction of the caller's [App].
func Builder[T Configer](cfg T, f func(context.Context, T) (App, error)) app.Builder[App] {
	return app.BuilderFunc[App](func(ctx context.Context) (App, error) {
		err := cfg.InitializeOTel(ctx)
		if err != nil {
			return nil, err
		}
		return f(ctx, cfg)
	})
}

// RunOptions holds configuration for [Run].
type RunOptions struct {
	logger *slog.Logger
}

// RunOption configures [Run] behaviour.
type RunOption interface {
	ApplyRunOption(*RunOptions)
}

type runOptionFunc func(*RunOptions)

func (f runOptionFunc) ApplyRunOption(ro *RunOptions) {
	f(ro)
}

// LogHandler overrides the handler used to log an unrecoverable error
// from [Run]. By default errors are logged as JSON to stdout.
func LogHandler(h slog.Handler) RunOption {
	return runOptionFunc(func(ro *RunOptions) {
		ro.logger = slog.New(h)
	})
}

// Run decodes cfg source r (merged on top of the module defaults),
// builds the application via f, and runs it to completion, handling
// OS interrupt/terminate signals as a graceful shutdown trigger.
func Run[T Configer](r io.Reader, f func(context.Context, T) (App, error), opts ...RunOption) {
	ro := &RunOptions{
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt.ApplyRunOption(ro)
	}

	ctx := context.Background()

	m, err := bedrockcfg.Read(WithDefaultConfig(r))
	if err != nil {
		ro.logger.Error("failed to read configuration", slog.Any("error", err))
		return
	}

	var cfg T
	err = m.Unmarshal(&cfg)
	if err != nil {
		ro.logger.Error("failed to unmarshal configuration", slog.Any("error", err))
		return
	}

	builder := Builder(cfg, f)

	err = app.Run(ctx, builder)
	if err != nil {
		ro.logger.Error("unexpected error while running app", slog.Any("error", err))
	}
}
