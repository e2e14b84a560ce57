package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*SecurityEvent
	emitErr error
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	ctx := context.Background()
	event := &SecurityEvent{EventType: EventLoginSuccess}

	// Should not panic
	EmitAsync(nil, ctx, event)
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx := context.Background()

	// Should not panic
	EmitAsync(emitter, ctx, nil)

	time.Sleep(10 * time.Millisecond)

	if got := emitter.getEvents(); len(got) != 0 {
		t.Errorf("expected 0 events, got %d", len(got))
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx := context.Background()
	event := &SecurityEvent{
		EventType: EventLoginSuccess,
		UserID:    "user-1",
		Email:     "ana@example.com",
	}

	EmitAsync(emitter, ctx, event)

	// Wait for goroutine to complete
	time.Sleep(100 * time.Millisecond)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != EventLoginSuccess {
		t.Errorf("event type = %q, want %q", events[0].EventType, EventLoginSuccess)
	}
	if events[0].UserID != "user-1" {
		t.Errorf("event user_id = %q, want %q", events[0].UserID, "user-1")
	}
}

func TestEmitAsync_UsesBackgroundContext(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel the request context immediately

	event := &SecurityEvent{EventType: EventLogout}

	// Should still emit even though request context is cancelled
	EmitAsync(emitter, ctx, event)

	time.Sleep(100 * time.Millisecond)

	if got := emitter.getEvents(); len(got) != 1 {
		t.Errorf("expected 1 event (context.Background used), got %d", len(got))
	}
}

func TestEmitAsync_ErrorHandling(t *testing.T) {
	emitter := &mockEventEmitter{
		emitErr: context.DeadlineExceeded,
	}
	ctx := context.Background()

	// Should not panic on error; the error is logged and ignored.
	EmitAsync(emitter, ctx, &SecurityEvent{EventType: EventLoginFailure})

	time.Sleep(100 * time.Millisecond)
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, ctx, &SecurityEvent{EventType: EventRateLimited})
		}()
	}

	wg.Wait()
	time.Sleep(200 * time.Millisecond)

	if got := emitter.getEvents(); len(got) != 10 {
		t.Errorf("expected 10 events, got %d", len(got))
	}
}
