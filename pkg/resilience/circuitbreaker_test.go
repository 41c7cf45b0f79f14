package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Second})
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Second})
	ctx := context.Background()
	fail := errors.New("embed backend down")

	for i := 0; i < 3; i++ {
		_ = b.Call(ctx, func(context.Context) error { return fail })
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	err := b.Call(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Second})
	ctx := context.Background()
	fail := errors.New("flaky")

	_ = b.Call(ctx, func(context.Context) error { return fail })
	_ = b.Call(ctx, func(context.Context) error { return fail })
	_ = b.Call(ctx, func(context.Context) error { return nil })
	_ = b.Call(ctx, func(context.Context) error { return fail })

	if b.State() != StateClosed {
		t.Fatalf("expected closed after reset, got %v", b.State())
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second, HalfOpenMax: 1})
	ctx := context.Background()

	base := time.Now()
	b.now = func() time.Time { return base }
	_ = b.Call(ctx, func(context.Context) error { return errors.New("down") })
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	// After the timeout a single probe is allowed; its success closes the breaker.
	b.now = func() time.Time { return base.Add(11 * time.Second) }
	if st := b.State(); st != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", st)
	}
	if err := b.Call(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe, got %v", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	ctx := context.Background()

	base := time.Now()
	b.now = func() time.Time { return base }
	_ = b.Call(ctx, func(context.Context) error { return errors.New("down") })

	b.now = func() time.Time { return base.Add(11 * time.Second) }
	_ = b.Call(ctx, func(context.Context) error { return errors.New("still down") })
	if b.State() != StateOpen {
		t.Fatalf("expected reopened, got %v", b.State())
	}
}
