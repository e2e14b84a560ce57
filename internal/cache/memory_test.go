package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "v" {
		t.Errorf("Get = %q, want %q", v, "v")
	}
}

func TestMemory_GetMissing(t *testing.T) {
	c := NewMemory()
	if _, err := c.Get(context.Background(), "absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get missing = %v, want ErrMiss", err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	if err := c.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get expired = %v, want ErrMiss", err)
	}
}

func TestMemory_Delete(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", time.Minute)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after delete = %v, want ErrMiss", err)
	}
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete missing key should not error, got %v", err)
	}
}

func TestMemory_Increment(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		n, err := c.Increment(ctx, "cnt", time.Minute)
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if n != want {
			t.Errorf("Increment = %d, want %d", n, want)
		}
	}
}

func TestMemory_IncrementKeepsWindow(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	if _, err := c.Increment(ctx, "cnt", 50*time.Millisecond); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	// A later increment must not extend the original window.
	if _, err := c.Increment(ctx, "cnt", time.Hour); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	ttl, err := c.TTL(ctx, "cnt")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl > 50*time.Millisecond {
		t.Errorf("TTL = %v, window was extended", ttl)
	}
}

func TestMemory_IncrementAfterExpiryResets(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	_, _ = c.Increment(ctx, "cnt", time.Millisecond)
	_, _ = c.Increment(ctx, "cnt", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	n, err := c.Increment(ctx, "cnt", time.Minute)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if n != 1 {
		t.Errorf("Increment after expiry = %d, want 1", n)
	}
}

func TestMemory_TTL(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", time.Minute)
	ttl, err := c.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want (0, 1m]", ttl)
	}
	if _, err := c.TTL(ctx, "absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("TTL missing = %v, want ErrMiss", err)
	}
}

func TestMemory_NoExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	_ = c.Set(ctx, "k", "v", 0)
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	ttl, err := c.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl != 0 {
		t.Errorf("TTL without expiry = %v, want 0", ttl)
	}
}

func TestKeyNamespaces(t *testing.T) {
	cases := []struct{ got, want string }{
		{UserKey("ana@example.com"), "user:ana@example.com"},
		{SessionKey("u1"), "session:u1"},
		{TokenKey("abc"), "token:abc"},
		{RateKey("login", "10.0.0.1"), "rate:login:10.0.0.1"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("key = %q, want %q", c.got, c.want)
		}
	}
}
