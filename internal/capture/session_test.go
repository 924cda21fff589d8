package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// Scripted duplication source. Each step answers one AcquireFrame call;
// calls past the end of the script keep timing out.
type fakeStep int

const (
	stepFrame fakeStep = iota
	stepTimeout
	stepAcquireError
	stepCopyError
)

type fakeSource struct {
	steps     []fakeStep
	onAcquire func(call int)

	acquires int
	copies   int
	releases int
	closes   int
}

func (s *fakeSource) AcquireFrame(timeout time.Duration) (frameHandle, error) {
	call := s.acquires
	s.acquires++
	if s.onAcquire != nil {
		s.onAcquire(call)
	}
	if call >= len(s.steps) {
		return nil, errFrameWaitTimeout
	}
	switch s.steps[call] {
	case stepTimeout:
		return nil, errFrameWaitTimeout
	case stepAcquireError:
		return nil, fmt.Errorf("%w: acquire exploded", ErrDuplicationFailure)
	case stepCopyError:
		return &fakeFrame{src: s, copyFails: true}, nil
	default:
		return &fakeFrame{src: s}, nil
	}
}

func (s *fakeSource) Close() { s.closes++ }

type fakeFrame struct {
	src       *fakeSource
	copyFails bool
	released  bool
}

func (f *fakeFrame) CopyToStaging() error {
	if f.copyFails {
		return fmt.Errorf("%w: copy exploded", ErrDuplicationFailure)
	}
	f.src.copies++
	return nil
}

func (f *fakeFrame) Release() {
	if f.released {
		return
	}
	f.released = true
	f.src.releases++
}

func TestSessionDiscardsWarmupFrame(t *testing.T) {
	src := &fakeSource{steps: []fakeStep{stepFrame, stepFrame}}
	sess := newSession(src)

	if err := sess.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sess.state != stateFrameReady {
		t.Fatalf("state = %v, want frame-ready", sess.state)
	}
	if src.copies != 1 {
		t.Fatalf("copies = %d, want 1 (warm-up frame must not be copied)", src.copies)
	}
	if src.releases != 2 {
		t.Fatalf("releases = %d, want every acquired frame released", src.releases)
	}
}

func TestSessionWarmupSurvivesLeadingTimeouts(t *testing.T) {
	// Timeouts do not count as acquisitions: the frame finally acquired
	// on the third attempt is still the warm-up frame and is discarded.
	src := &fakeSource{steps: []fakeStep{stepTimeout, stepTimeout, stepFrame, stepFrame}}
	sess := newSession(src)

	if err := sess.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if src.acquires != 4 {
		t.Fatalf("acquires = %d, want 4", src.acquires)
	}
	if src.copies != 1 {
		t.Fatalf("copies = %d, want only the post-warm-up frame", src.copies)
	}
}

func TestSessionRetriesTimeoutsAfterWarmup(t *testing.T) {
	src := &fakeSource{steps: []fakeStep{stepFrame, stepTimeout, stepTimeout, stepFrame}}
	sess := newSession(src)

	if err := sess.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sess.state != stateFrameReady {
		t.Fatalf("state = %v, want frame-ready", sess.state)
	}
	if src.acquires != 4 || src.copies != 1 || src.releases != 2 {
		t.Fatalf("acquires/copies/releases = %d/%d/%d, want 4/1/2",
			src.acquires, src.copies, src.releases)
	}
}

func TestSessionTimeoutReturnsToFrameRequested(t *testing.T) {
	src := &fakeSource{steps: []fakeStep{stepFrame, stepTimeout, stepFrame}}
	sess := newSession(src)

	var states []sessionState
	src.onAcquire = func(int) { states = append(states, sess.state) }

	if err := sess.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Warm-up discard shows on the attempt right after it; the timed-out
	// attempt puts the session back in frame-requested before the next
	// wait.
	want := []sessionState{stateFrameRequested, stateWarmupDiscarded, stateFrameRequested}
	if len(states) != len(want) {
		t.Fatalf("attempts = %d, want %d", len(states), len(want))
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("attempt %d entered in state %v, want %v", i, states[i], want[i])
		}
	}
}

func TestSessionAcquireErrorIsFatal(t *testing.T) {
	src := &fakeSource{steps: []fakeStep{stepAcquireError, stepFrame}}
	sess := newSession(src)

	err := sess.run(context.Background())
	if !errors.Is(err, ErrDuplicationFailure) {
		t.Fatalf("err = %v, want ErrDuplicationFailure", err)
	}
	if sess.state != stateFailed {
		t.Fatalf("state = %v, want failed", sess.state)
	}
	if src.acquires != 1 {
		t.Fatalf("acquires = %d, non-timeout errors must not be retried", src.acquires)
	}
}

func TestSessionCopyErrorIsFatal(t *testing.T) {
	src := &fakeSource{steps: []fakeStep{stepFrame, stepCopyError}}
	sess := newSession(src)

	err := sess.run(context.Background())
	if !errors.Is(err, ErrDuplicationFailure) {
		t.Fatalf("err = %v, want ErrDuplicationFailure", err)
	}
	if sess.state != stateFailed {
		t.Fatalf("state = %v, want failed", sess.state)
	}
	if src.releases != 2 {
		t.Fatalf("releases = %d, frame must be released even when copy fails", src.releases)
	}
}

func TestSessionContextExpiryBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{}
	src.onAcquire = func(call int) {
		if call == 2 {
			cancel()
		}
	}
	sess := newSession(src)

	err := sess.run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sess.state != stateTimedOut {
		t.Fatalf("state = %v, want timed-out", sess.state)
	}
	if src.copies != 0 {
		t.Fatalf("copies = %d, abandoned session must not copy", src.copies)
	}
}

func TestSessionExpiredContextNeverAcquires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{steps: []fakeStep{stepFrame, stepFrame}}
	sess := newSession(src)

	if err := sess.run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if src.acquires != 0 {
		t.Fatalf("acquires = %d, want 0 with an already-expired context", src.acquires)
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	src := &fakeSource{steps: []fakeStep{stepFrame, stepFrame}}
	sess := newSession(src)
	if err := sess.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	sess.close()
	sess.close()
	if src.closes != 1 {
		t.Fatalf("closes = %d, want 1", src.closes)
	}
	if sess.state != stateClosed {
		t.Fatalf("state = %v, want closed", sess.state)
	}
}
