// Package producer publishes security events to the Kafka stream.
package producer

import (
	"context"

	"servicos-ja/backend/internal/telemetry"
)

// Producer is the event sink the server writes to. Callers treat it as
// best-effort: errors are logged, never propagated to the request.
type Producer interface {
	Emit(ctx context.Context, event *telemetry.SecurityEvent) error
	Close() error
}
