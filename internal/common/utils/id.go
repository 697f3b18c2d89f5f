// Package utils provides ID generation and retry helpers shared by the
// webhook sender and receiver.
package utils

import (
	"github.com/google/uuid"
)

// GenerateDeliveryID returns a UUID v4 in the form GitHub uses for
// X-GitHub-Delivery.
func GenerateDeliveryID() string {
	return uuid.NewString()
}

// GenerateRequestID returns an ID for X-Request-Id, prefixed "req-".
func GenerateRequestID() string {
	return "req-" + uuid.NewString()
}
