package rate

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketFirstCallImmediate(t *testing.T) {
	tb := NewTokenBucket(1)
	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("first wait took %v", elapsed)
	}
}

func TestTokenBucketCanceled(t *testing.T) {
	tb := NewTokenBucket(1)
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Fatalf("expected error from canceled context")
	}
}

func TestOrUnlimited(t *testing.T) {
	l := OrUnlimited(nil)
	if _, ok := l.(Unlimited); !ok {
		t.Fatalf("expected Unlimited, got %T", l)
	}
	tb := NewTokenBucket(2)
	if OrUnlimited(tb) != Limiter(tb) {
		t.Fatalf("expected limiter to be returned unchanged")
	}
}
