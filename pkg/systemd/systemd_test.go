package systemd

import (
	"context"
	"testing"
	"time"
)

func TestNoopOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	t.Setenv("WATCHDOG_USEC", "")

	if sent, err := Ready(); sent || err != nil {
		t.Fatalf("Ready() = %v, %v", sent, err)
	}
	if sent, err := Stopping(); sent || err != nil {
		t.Fatalf("Stopping() = %v, %v", sent, err)
	}
	if d := WatchdogInterval(); d != 0 {
		t.Fatalf("WatchdogInterval() = %v", d)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		Watchdog(ctx, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("Watchdog should return immediately without WATCHDOG_USEC")
	}
}
