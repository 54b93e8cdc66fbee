package internal

import (
	"context"
	"errors"
	"log"
	"time"
)

// FailurePolicy decides what happens to the loop when a frame fails to render.
type FailurePolicy int

const (
	// FailFatal stops the loop: a broken graphics context can't usefully continue.
	FailFatal FailurePolicy = iota
	// FailSkip logs the failure and keeps ticking.
	FailSkip
)

// FrameRenderer draws a frame from its transforms (a *RenderStep in practice).
type FrameRenderer interface {
	Render(pair TransformPair) error
}

// Scheduler advances the State once per host frame and renders it.
// Dragging leaves the state alone (the tracker already applied the moves); coasting decays the velocity and advances
// the orientation.
type Scheduler struct {
	State        *State
	Renderer     FrameRenderer
	Camera       Camera
	Amortization float32
	Policy       FailurePolicy

	frame          uint64
	viewportWarned bool
}

// NewScheduler uses the default camera, amortization and the fatal failure policy.
func NewScheduler(s *State, r FrameRenderer) *Scheduler {
	return &Scheduler{
		State:        s,
		Renderer:     r,
		Camera:       DefaultCamera,
		Amortization: Amortization,
		Policy:       FailFatal,
	}
}

// Frame is the number of frames rendered so far.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Snapshot returns a copy of the current interaction state.
func (s *Scheduler) Snapshot() State {
	return *s.State
}

// Tick runs one frame. The context is the cancellation token and is checked before touching anything.
// An unusable viewport skips the whole tick. Render failures are returned as *RenderError when the policy is
// FailFatal.
func (s *Scheduler) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := s.State
	aspect, err := st.Viewport.Aspect()
	if err != nil {
		if !s.viewportWarned {
			log.Printf("[SpinCube] Skipping frames until the viewport is valid (%gx%g)", st.Viewport.Width, st.Viewport.Height)
			s.viewportWarned = true
		}
		return nil
	}
	s.viewportWarned = false
	if !st.Dragging {
		st.Coast(s.Amortization)
	}
	pair, err := s.Camera.Build(st.Orientation.Theta, st.Orientation.Phi, aspect)
	if err != nil { // Unreachable with a valid viewport, but never draw with a broken projection
		return nil
	}
	s.frame++
	if s.Renderer == nil {
		return nil
	}
	if err = s.Renderer.Render(pair); err != nil {
		if s.Policy == FailSkip {
			log.Println("[SpinCube] Skipping frame", s.frame, "after render error:", err)
			return nil
		}
		return &RenderError{Frame: s.frame, Err: err}
	}
	return nil
}

// Run ticks once per value received from frames until the context is cancelled, frames is closed or a tick fails.
// It never sleeps: the pace is set entirely by whoever feeds frames.
func (s *Scheduler) Run(ctx context.Context, frames <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-frames:
			if !ok {
				return nil
			}
		}
		if err := s.Tick(ctx); err != nil {
			var renderErr *RenderError
			if errors.As(err, &renderErr) {
				log.Println("[SpinCube] Stopping animation:", err)
			}
			return err
		}
	}
}
