package internal

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrDegenerateAspect is returned instead of building a projection for a zero, negative or non-finite aspect ratio.
var ErrDegenerateAspect = errors.New("degenerate aspect ratio")

// TransformPair is what the shaders need for one frame.
type TransformPair struct {
	Projection mgl32.Mat4
	ModelView  mgl32.Mat4
}

// Camera holds the projection and placement constants.
type Camera struct {
	FovY     float32 // Radians
	Near     float32
	Far      float32
	Distance float32 // How far the cube is pushed along -Z
}

// DefaultCamera is a 45º perspective seeing between 1 and 100 units, with the cube 6 units away.
var DefaultCamera = Camera{
	FovY:     mgl32.DegToRad(45),
	Near:     1,
	Far:      100,
	Distance: 6,
}

// Build uses DefaultCamera, see Camera.Build.
func Build(theta, phi, aspect float32) (TransformPair, error) {
	return DefaultCamera.Build(theta, phi, aspect)
}

// Build computes the projection and the model-view matrices: translate, then rotate around X by phi, then rotate
// around Y by theta (each one post-multiplied, so theta is applied to the geometry first).
func (c Camera) Build(theta, phi, aspect float32) (TransformPair, error) {
	a := float64(aspect)
	if !(a > 0) || math.IsInf(a, 0) {
		return TransformPair{}, ErrDegenerateAspect
	}
	return TransformPair{
		Projection: mgl32.Perspective(c.FovY, aspect, c.Near, c.Far),
		ModelView:  c.ModelView(theta, phi),
	}, nil
}

func (c Camera) ModelView(theta, phi float32) mgl32.Mat4 {
	m := mgl32.Ident4()
	m = m.Mul4(mgl32.Translate3D(0, 0, -c.Distance))
	m = m.Mul4(mgl32.HomogRotate3DX(phi))
	m = m.Mul4(mgl32.HomogRotate3DY(theta))
	return m
}

// Clips reports whether some rotation of g can cross the near or the far plane.
func (c Camera) Clips(g Geometry) bool {
	bb := g.BoundingBox()
	radius := float32(bb.Min.Abs().Max(bb.Max.Abs()).Length())
	return c.Distance-radius < c.Near || c.Distance+radius > c.Far
}
