package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestDispatcher_UnreachableRedis_IsSwallowed(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	d := NewStreamDispatcher(client, 200*time.Millisecond, zerolog.Nop())

	// Must not panic or block past its timeout: the purchase is already
	// committed when this runs.
	done := make(chan struct{})
	go func() {
		d.DispatchPurchaseConfirmed(context.Background(), testNotification())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return within its timeout")
	}
}

func TestDispatcher_IgnoresCancelledCaller(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	d := NewStreamDispatcher(client, 200*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled request context must not prevent the dispatch attempt.
	done := make(chan struct{})
	go func() {
		d.DispatchPurchaseConfirmed(ctx, testNotification())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return")
	}
}
