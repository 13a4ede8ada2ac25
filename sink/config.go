// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"errors"

	"github.com/z5labs/kafkamqp"
)

// Config is the bridge-wide settings collaborator: Kafka bootstrap
// servers, offset-reset policy, the auto-commit flag (which must be
// false whenever any link uses AT_LEAST_ONCE), and the configured
// message-converter name. Key/value deserializer class names from the
// source system collapse away in Go, since franz-go always yields raw
// bytes; ConverterName is the only axis left to configure.
type Config struct {
	kafkamqp.Config `config:",squash"`

	BootstrapServers []string `config:"bootstrapServers"`
	OffsetReset      string   `config:"offsetReset"`
	AutoCommit       bool     `config:"autoCommit"`
	ConverterName    string   `config:"converter"`

	// DeadLetterBucket, when non-empty, archives records that fail
	// conversion to this bucket instead of only logging them.
	DeadLetterBucket string `config:"deadLetterBucket"`
}

// Validate enforces that auto-commit must be disabled whenever qos is
// AT_LEAST_ONCE.
func (cfg Config) Validate(qos QoS) error {
	if qos == AtLeastOnce && cfg.AutoCommit {
		return errors.New("sink: autoCommit must be false for AT_LEAST_ONCE links")
	}
	return nil
}
