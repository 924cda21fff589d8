package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// acquireTimeout bounds a single acquisition wait. The loop retries
// timeouts without limit: a duplication source legitimately goes quiet
// when nothing on screen changes, and the caller's context carries the
// outer deadline.
const acquireTimeout = 1000 * time.Millisecond

// sessionState tracks a duplication session through one capture call.
type sessionState int

const (
	stateNotStarted sessionState = iota
	stateFrameRequested
	stateWarmupDiscarded
	stateFrameReady
	stateTimedOut
	stateFailed
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateNotStarted:
		return "not-started"
	case stateFrameRequested:
		return "frame-requested"
	case stateWarmupDiscarded:
		return "warmup-discarded"
	case stateFrameReady:
		return "frame-ready"
	case stateTimedOut:
		return "timed-out"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// frameHandle is one acquired frame. Release must run in the same loop
// iteration that acquired the handle so no driver-side frame lock is
// held across attempts.
type frameHandle interface {
	// CopyToStaging copies the frame's surface into the session's
	// CPU-readable staging texture.
	CopyToStaging() error
	// Release returns the frame to the duplication source. Idempotent.
	Release()
}

// duplicationSource hands out composed frames for one display output.
// The Windows implementation wraps IDXGIOutputDuplication; tests script
// fakes.
type duplicationSource interface {
	// AcquireFrame blocks up to timeout for the next composed frame,
	// returning errFrameWaitTimeout when the wait elapses without one.
	AcquireFrame(timeout time.Duration) (frameHandle, error)
	// Close releases the duplication interface and its staging texture.
	Close()
}

// session drives the one-shot acquisition state machine: request
// frames, discard the warm-up frame, retry timeouts, land exactly one
// real frame in the staging texture.
type session struct {
	source   duplicationSource
	state    sessionState
	acquired int // successful acquisitions, for the warm-up rule
}

func newSession(source duplicationSource) *session {
	return &session{source: source, state: stateNotStarted}
}

// run polls the source until a post-warm-up frame has been copied to
// staging. The first frame a fresh duplication interface delivers is
// unreliable (often black or stale) and is always discarded, no matter
// how many timeouts preceded it. The context is consulted only between
// attempts: an expired deadline abandons the capture before the next
// wait rather than interrupting one in progress, so cancellation can
// lag by up to acquireTimeout. Any non-timeout source error is fatal.
func (s *session) run(ctx context.Context) error {
	s.state = stateFrameRequested
	for {
		if err := ctx.Err(); err != nil {
			s.state = stateTimedOut
			return fmt.Errorf("waiting for frame: %w", err)
		}

		frame, err := s.source.AcquireFrame(acquireTimeout)
		if errors.Is(err, errFrameWaitTimeout) {
			s.state = stateFrameRequested
			continue
		}
		if err != nil {
			s.state = stateFailed
			return err
		}

		s.acquired++
		if s.acquired == 1 {
			frame.Release()
			s.state = stateWarmupDiscarded
			slog.Debug("warm-up frame discarded")
			continue
		}

		err = frame.CopyToStaging()
		frame.Release()
		if err != nil {
			s.state = stateFailed
			return err
		}
		s.state = stateFrameReady
		return nil
	}
}

// close releases the session's duplication resources. Idempotent; safe
// from any terminal state.
func (s *session) close() {
	if s.state == stateClosed {
		return
	}
	s.source.Close()
	s.state = stateClosed
}
