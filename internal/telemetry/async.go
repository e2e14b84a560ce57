package telemetry

import (
	"context"
	"log"
	"time"
)

// emitTimeout bounds one background emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long the server waits after draining HTTP
// before tearing down telemetry, so background emits can finish. Keep >=
// emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync fires the event on a background goroutine and returns
// immediately; failures are logged and otherwise invisible to the caller.
// The emit runs on a fresh context so request cancellation cannot cut a
// security event short. A nil emitter or event is a no-op.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *SecurityEvent) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: async emit: %v", err)
		}
	}()
}
