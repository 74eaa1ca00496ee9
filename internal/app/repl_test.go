package app

import (
	"context"
	"io"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWatchInterruptCancelsOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := watchInterrupt(ctx, cancel)
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("SIGINT did not cancel the turn context")
	}
}

func TestWatchInterruptStopIsQuiet(t *testing.T) {
	// The watcher must exit through the context, never by observing a
	// drained signal channel, so stopping a finished turn prints nothing.
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	ctx, cancel := context.WithCancel(context.Background())
	stop := watchInterrupt(ctx, cancel)
	stop()
	time.Sleep(50 * time.Millisecond)

	os.Stdout = orig
	w.Close()
	out, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(out) != 0 {
		t.Errorf("stopping the watcher produced output %q", out)
	}
}
