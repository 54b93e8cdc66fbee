package internal

import "math"

// PointerKind identifies a raw pointer event delivered by the host.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerUp
	PointerLeave
	PointerMove
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	case PointerMove:
		return "move"
	default:
		return "unknown"
	}
}

// PointerEvent is a host pointer event. Movement is only meaningful for PointerMove, in pixels since the last move.
type PointerEvent struct {
	Kind                 PointerKind
	MovementX, MovementY float32
}

// PointerTracker converts pointer events into drag engagement and rotation of the shared State.
type PointerTracker struct {
	State *State
	// LeaveEndsDrag makes leaving the surface behave exactly like releasing the button.
	LeaveEndsDrag bool
}

// NewPointerTracker returns a tracker where leaving the surface ends the drag.
func NewPointerTracker(s *State) *PointerTracker {
	return &PointerTracker{State: s, LeaveEndsDrag: true}
}

// Handle dispatches a host event. Only moves can fail, see Move.
func (t *PointerTracker) Handle(ev PointerEvent) error {
	switch ev.Kind {
	case PointerDown:
		t.Down()
	case PointerUp:
		t.Up()
	case PointerLeave:
		t.Leave()
	case PointerMove:
		return t.Move(ev.MovementX, ev.MovementY)
	}
	return nil
}

func (t *PointerTracker) Down() {
	t.State.Dragging = true
}

func (t *PointerTracker) Up() {
	t.State.Dragging = false
}

func (t *PointerTracker) Leave() {
	if t.LeaveEndsDrag {
		t.State.Dragging = false
	}
}

// Move rotates the cube while dragging: a traversal of the full surface width (height) is one full revolution.
// The velocity is overwritten with the normalized delta. It is a no-op when not dragging, and when the viewport is
// unusable (reported as ErrInvalidViewport).
func (t *PointerTracker) Move(movementX, movementY float32) error {
	s := t.State
	if !s.Dragging {
		return nil
	}
	if !s.Viewport.Valid() {
		return ErrInvalidViewport
	}
	s.Velocity.DX = movementX * 2 * math.Pi / s.Viewport.Width
	s.Velocity.DY = movementY * 2 * math.Pi / s.Viewport.Height
	s.Orientation.Theta += s.Velocity.DX
	s.Orientation.Phi += s.Velocity.DY
	return nil
}
