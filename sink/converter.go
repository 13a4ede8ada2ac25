// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"fmt"

	"github.com/Azure/go-amqp"
)

// Annotation keys applied to every outgoing message.
const (
	annotationPartition = "x-opt-bridge.partition"
	annotationOffset    = "x-opt-bridge.offset"
	annotationKey       = "x-opt-bridge.key"
)

// Converter is the pure, stateless contract for turning a Kafka record
// into an AMQP message. Implementations must not mutate rec.
type Converter interface {
	ToAMQP(address string, rec Record) (*amqp.Message, error)
}

// ConverterFunc is an adapter to allow ordinary functions to implement
// [Converter].
type ConverterFunc func(address string, rec Record) (*amqp.Message, error)

// ToAMQP implements [Converter].
func (f ConverterFunc) ToAMQP(address string, rec Record) (*amqp.Message, error) {
	return f(address, rec)
}

// DefaultConverter carries the raw record value as the AMQP body's binary
// data, annotating partition, offset, and (when present) key.
var DefaultConverter Converter = ConverterFunc(defaultToAMQP)

func defaultToAMQP(address string, rec Record) (*amqp.Message, error) {
	msg := &amqp.Message{
		Data: [][]byte{rec.Value},
		Annotations: amqp.Annotations{
			annotationPartition: rec.Partition,
			annotationOffset:    rec.Offset,
		},
		Properties: &amqp.MessageProperties{
			To: &address,
		},
	}
	if rec.Key != nil {
		msg.Annotations[annotationKey] = rec.Key
	}
	return msg, nil
}

// converterRegistry maps a configured converter name to its instance,
// replacing the reflective class-name instantiation of the source system
// with an explicit, closed set of variants. An unrecognized name falls
// back to [DefaultConverter].
var converterRegistry = map[string]Converter{
	"":        DefaultConverter,
	"default": DefaultConverter,
}

// RegisterConverter adds a named [Converter] to the registry consulted by
// [ConverterByName]. It is intended to be called from an init function by
// packages providing alternate body encodings (e.g. JSON-wrapped).
func RegisterConverter(name string, c Converter) {
	converterRegistry[name] = c
}

// ConverterByName resolves a configured converter name to a [Converter],
// falling back to [DefaultConverter] for an unknown name.
func ConverterByName(name string) Converter {
	if c, ok := converterRegistry[name]; ok {
		return c
	}
	return DefaultConverter
}

// errConversion wraps a converter failure with the record that caused it,
// so callers can log or dead-letter the offending bytes.
type errConversion struct {
	rec Record
	err error
}

func (e *errConversion) Error() string {
	return fmt.Sprintf("sink: failed to convert record at partition %d offset %d: %v", e.rec.Partition, e.rec.Offset, e.err)
}

func (e *errConversion) Unwrap() error {
	return e.err
}
