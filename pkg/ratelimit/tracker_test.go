package ratelimit

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newLocalTracker() *Tracker {
	return NewTracker(nil, zerolog.New(os.Stderr).Level(zerolog.Disabled))
}

func TestTracker_Local_DefaultAllows(t *testing.T) {
	tracker := newLocalTracker()

	allowed, err := tracker.ShouldAllowRequest(context.Background())
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if !allowed {
		t.Error("Fresh tracker should allow requests")
	}
}

func TestTracker_Local_IgnoresNon429(t *testing.T) {
	tracker := newLocalTracker()
	ctx := context.Background()

	for _, status := range []int{200, 304, 404, 500} {
		headers := http.Header{}
		headers.Set("Retry-After", "60")
		if err := tracker.UpdateFromResponse(ctx, status, headers); err != nil {
			t.Fatalf("UpdateFromResponse(%d) failed: %v", status, err)
		}
	}

	state, _ := tracker.GetState(ctx)
	if state.IsBlocked() || state.Hits != 0 {
		t.Errorf("Non-429 responses must not block, got %+v", state)
	}
}

func TestTracker_Local_BlocksDuringWindow(t *testing.T) {
	tracker := newLocalTracker()
	ctx := context.Background()

	headers := http.Header{}
	headers.Set("Retry-After", "30")
	if err := tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse failed: %v", err)
	}

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if allowed {
		t.Error("Request should be refused during Retry-After window")
	}

	state, _ := tracker.GetState(ctx)
	if state.Hits != 1 {
		t.Errorf("Hits = %d, want 1", state.Hits)
	}
	if d := state.TimeUntilReset(); d < 25*time.Second {
		t.Errorf("TimeUntilReset = %v, want ~30s", d)
	}
}

func TestTracker_Local_WindowExpires(t *testing.T) {
	tracker := newLocalTracker()
	ctx := context.Background()

	headers := http.Header{}
	headers.Set("Retry-After", "0")
	if err := tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse failed: %v", err)
	}

	allowed, _ := tracker.ShouldAllowRequest(ctx)
	if !allowed {
		t.Error("Zero Retry-After should not keep requests blocked")
	}
}

func TestTracker_Local_BadHeaderUsesDefault(t *testing.T) {
	tracker := newLocalTracker()
	ctx := context.Background()

	headers := http.Header{}
	headers.Set("Retry-After", "whenever")
	if err := tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse failed: %v", err)
	}

	state, _ := tracker.GetState(ctx)
	if !state.IsBlocked() {
		t.Error("Malformed Retry-After should fall back to the default window")
	}
}

func TestTracker_Redis_SharedState(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	writer := NewTracker(client, logger)
	reader := NewTracker(client, logger)

	headers := http.Header{}
	headers.Set("Retry-After", "20")
	if err := writer.UpdateFromResponse(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse failed: %v", err)
	}

	allowed, err := reader.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest failed: %v", err)
	}
	if allowed {
		t.Error("Second tracker should observe the shared block window")
	}
}
