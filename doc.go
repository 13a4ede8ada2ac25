// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kafkamqp bootstraps AMQP 1.0 <-> Kafka bridge applications.
//
// It provides the same shape of base config, OpenTelemetry wiring and
// process lifecycle that the rest of this module's applications build
// on, while the actual bridging logic lives in the sink subpackage.
package kafkamqp
