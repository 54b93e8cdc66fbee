package internal

import (
	"errors"
	"math"
)

// Amortization is the per-tick factor applied to the angular velocity while coasting.
const Amortization float32 = 0.95

// ErrInvalidViewport is returned when the surface dimensions can't be used to normalize input or build a projection.
var ErrInvalidViewport = errors.New("invalid viewport dimensions")

// Orientation holds the accumulated rotation angles of the cube, in radians (unbounded).
type Orientation struct {
	Theta float32 // Yaw, applied as a rotation around Y
	Phi   float32 // Pitch, applied as a rotation around X
}

// Velocity is the angular velocity of the cube, in radians per frame.
type Velocity struct {
	DX, DY float32
}

// Viewport holds the pixel size of the drawing surface.
type Viewport struct {
	Width, Height float32
}

// Valid reports whether both dimensions are positive finite numbers.
func (v Viewport) Valid() bool {
	return validDim(v.Width) && validDim(v.Height)
}

// Aspect returns width/height, guarding against a zero or non-finite height.
func (v Viewport) Aspect() (float32, error) {
	if !v.Valid() {
		return 0, ErrInvalidViewport
	}
	return v.Width / v.Height, nil
}

func validDim(d float32) bool {
	f := float64(d)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// State is the interaction state shared (by pointer) between the pointer tracker and the frame scheduler.
// It must only be touched from the host's loop goroutine.
type State struct {
	Orientation Orientation
	Velocity    Velocity
	Dragging    bool
	Viewport    Viewport
}

// Coast applies one tick of velocity decay and advances the orientation by the decayed velocity.
func (s *State) Coast(amortization float32) {
	s.Velocity.DX *= amortization
	s.Velocity.DY *= amortization
	s.Orientation.Theta += s.Velocity.DX
	s.Orientation.Phi += s.Velocity.DY
}

// Reset puts the cube back at rest in its initial orientation (the drag and viewport state are kept).
func (s *State) Reset() {
	s.Orientation = Orientation{}
	s.Velocity = Velocity{}
}
