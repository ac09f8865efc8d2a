package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames cycle on stderr while a layer read or graph build runs.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a short status line on stderr until stopped. It also
// stops on its own when the surrounding context is cancelled, so an
// interrupted build does not leave a stuck frame behind.
type Spinner struct {
	label  string
	ctx    context.Context
	cancel context.CancelFunc
	quit   chan struct{}
	idle   chan struct{}
	once   sync.Once
	mu     sync.Mutex
}

func newSpinner(label string) *Spinner {
	return newSpinnerWithContext(context.Background(), label)
}

func newSpinnerWithContext(ctx context.Context, label string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		label:  label,
		ctx:    ctx,
		cancel: cancel,
		quit:   make(chan struct{}),
		idle:   make(chan struct{}),
	}
}

// Start begins the animation in a background goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.idle)
		tick := time.NewTicker(90 * time.Millisecond)
		defer tick.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.erase()
				return
			case <-s.quit:
				return
			case <-tick.C:
				s.mu.Lock()
				fmt.Fprintf(os.Stderr, "\r%s %s",
					styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]),
					StyleDim.Render(s.label))
				s.mu.Unlock()
			}
		}
	}()
}

// Stop halts the animation and erases the status line. Safe to call more
// than once.
func (s *Spinner) Stop() {
	s.cancel()
	s.once.Do(func() { close(s.quit) })
	<-s.idle
	s.erase()
}

// StopWithSuccess replaces the status line with a success message.
func (s *Spinner) StopWithSuccess(format string, args ...any) {
	s.Stop()
	printSuccess(format, args...)
}

// StopWithError replaces the status line with an error message.
func (s *Spinner) StopWithError(format string, args ...any) {
	s.Stop()
	printError(format, args...)
}

// Cancelled reports whether the spinner's context has been cancelled.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *Spinner) erase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
}
