// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafkamqp

import (
	"bytes"
	_ "embed"
	"io"
	"os"

	otelcfg "github.com/z5labs/kafkamqp/config"

	bedrockcfg "github.com/z5labs/bedrock/config"
)

// ConfigSource wraps r as a [bedrockcfg.Source], rendering it as a YAML
// template before parsing. Two template functions are available:
//   - env KEY, substituting the value of the named environment variable
//   - default FALLBACK VALUE, substituting FALLBACK when VALUE is nil,
//     intended for pipe-style use: {{env "X" | default "FALLBACK"}}
func ConfigSource(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.FromYaml(
		bedrockcfg.RenderTextTemplate(
			r,
			bedrockcfg.TemplateFunc("env", func(key string) any {
				v, ok := os.LookupEnv(key)
				if ok {
					return v
				}
				return nil
			}),
			bedrockcfg.TemplateFunc("default", func(def, v any) any {
				if v == nil {
					return def
				}
				return v
			}),
		),
	)
}

//go:embed default_config.yaml
var defaultConfig []byte

// DefaultConfig returns the configuration source baked into the module,
// corresponding to [Config]'s zero value overrides.
func DefaultConfig() bedrockcfg.Source {
	return ConfigSource(bytes.NewReader(defaultConfig))
}

// WithDefaultConfig layers r's YAML on top of [DefaultConfig], so values
// present in r override the module defaults.
func WithDefaultConfig(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.MultiSource(
		DefaultConfig(),
		ConfigSource(r),
	)
}

// Config is the base configuration embedded by every bridge application
// built on this module.
type Config struct {
	OTel otelcfg.OTel `config:"otel"`
}
