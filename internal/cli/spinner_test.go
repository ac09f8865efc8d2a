package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("Reading layers")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Building network graph")
	s.Start()
	cancel()

	// Give the animation goroutine time to notice.
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation after its context is cancelled")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Reading layers")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithSuccess(t *testing.T) {
	s := newSpinner("Building network graph")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Built %d nodes", 3)
}

func TestSpinnerStopWithError(t *testing.T) {
	s := newSpinner("Building network graph")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("layer read failed")
}
