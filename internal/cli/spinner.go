package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/wheelres/pkg/resolve"
	"github.com/matzehuels/wheelres/pkg/trace"
)

// Spinner shows resolution progress on one terminal line. It is a
// [trace.Sink]: solver and engine events update the counters printed next
// to the message.
type Spinner struct {
	w       io.Writer
	message string
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	stop    sync.Once

	mu         sync.Mutex
	width      int // printed width of the last frame
	envs       int
	envsDone   int
	rounds     int
	pins       int
	backtracks int
}

// newSpinner creates a spinner for a resolution over envs environments.
// It stops drawing when ctx is cancelled.
func newSpinner(ctx context.Context, w io.Writer, message string, envs int) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		parent:  ctx,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		envs:    envs,
	}
}

// Emit counts solver progress.
func (s *Spinner) Emit(_ context.Context, event string, _ trace.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch event {
	case trace.EventSolverRound:
		s.rounds++
	case trace.EventSolverPin:
		s.pins++
	case trace.EventSolverBacktrack:
		s.backtracks++
	case trace.EventResolveDone, trace.EventResolveFailed:
		s.envsDone++
	}
}

// status renders the message and counters. The caller holds s.mu.
func (s *Spinner) status() string {
	parts := []string{s.message}
	if s.envs > 1 {
		parts = append(parts, fmt.Sprintf("%d/%d environments", s.envsDone, s.envs))
	}
	parts = append(parts, fmt.Sprintf("%d rounds", s.rounds), fmt.Sprintf("%d pins", s.pins))
	if s.backtracks > 0 {
		parts = append(parts, fmt.Sprintf("%d backtracks", s.backtracks))
	}
	return strings.Join(parts, " · ")
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				frame := s.frames[i%len(s.frames)]
				s.mu.Lock()
				line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.status())
				if w := lipgloss.Width(line); w > s.width {
					s.width = w
				}
				fmt.Fprintf(s.w, "\r%s", line)
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// Stop stops the spinner and clears the line. Stop blocks until the
// animation has ended and is safe to call more than once.
func (s *Spinner) Stop() {
	s.stop.Do(func() {
		s.cancel()
		close(s.done)
		<-s.stopped
		s.clearLine()
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	fprintStatus(s.w, styleIconSuccess, iconSuccess, message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	fprintStatus(s.w, styleIconError, iconError, message)
}

// Cancelled reports whether the context the spinner was created with has
// been cancelled.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// Finish stops the spinner with a summary of results.
func (s *Spinner) Finish(results []*resolve.Result) {
	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
		}
	}
	switch {
	case s.Cancelled():
		s.StopWithError("Cancelled")
	case failed > 0:
		s.StopWithError(fmt.Sprintf("%d of %d environment(s) failed", failed, len(results)))
	default:
		s.mu.Lock()
		msg := fmt.Sprintf("Resolved in %d rounds", s.rounds)
		if s.backtracks > 0 {
			msg += fmt.Sprintf(" with %d backtracks", s.backtracks)
		}
		s.mu.Unlock()
		s.StopWithSuccess(msg)
	}
}
