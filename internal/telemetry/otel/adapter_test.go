package otel

import (
	"context"
	"testing"
	"time"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"servicos-ja/backend/internal/telemetry"
)

func TestNewEventEmitter_NilProvider(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) should return a no-op emitter, not nil")
	}
	if err := em.Emit(context.Background(), &telemetry.SecurityEvent{EventType: "login_success"}); err != nil {
		t.Errorf("no-op emitter should not error: %v", err)
	}
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("no-op emitter with nil event should not error: %v", err)
	}
}

func TestOtelEmitter_Emit(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	em := NewEventEmitter(provider)
	event := &telemetry.SecurityEvent{
		EventType:  "login_failure",
		UserID:     "user-1",
		Email:      "ana@example.com",
		IP:         "10.0.0.1",
		Details:    "invalid_password",
		OccurredAt: time.Now().UTC(),
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Errorf("Emit: %v", err)
	}
}

func TestOtelEmitter_NilEvent(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil) should be a no-op: %v", err)
	}
}

func TestOtelEmitter_ZeroTimestamp(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	em := NewEventEmitter(provider)
	// An event without OccurredAt still emits with a current timestamp.
	if err := em.Emit(context.Background(), &telemetry.SecurityEvent{EventType: "logout"}); err != nil {
		t.Errorf("Emit: %v", err)
	}
}
