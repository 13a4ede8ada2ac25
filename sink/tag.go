// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import "github.com/google/uuid"

// DeliveryTag uniquely identifies a staged record within the lifetime of
// an [Endpoint]. It correlates a staging-map entry, a "send" notification,
// and (for AT_LEAST_ONCE) an AMQP settlement callback. No tag is reused.
type DeliveryTag string

// NewDeliveryTag mints a new, unique [DeliveryTag].
func NewDeliveryTag() DeliveryTag {
	return DeliveryTag(uuid.NewString())
}
