package internal

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelViewAtRestIsTranslation(t *testing.T) {
	pair, err := Build(0, 0, 800.0/600.0)
	require.NoError(t, err)
	assert.True(t, pair.ModelView.ApproxEqualThreshold(mgl32.Translate3D(0, 0, -6), 1e-6), "%v", pair.ModelView)
}

func TestYawQuarterTurnMapsXToMinusZ(t *testing.T) {
	pair, err := Build(math.Pi/2, 0, 1)
	require.NoError(t, err)
	// Direction vector (w=0): translation doesn't apply
	x := pair.ModelView.Mul4x1(mgl32.Vec4{1, 0, 0, 0})
	assert.InDelta(t, 0, x.X(), 1e-6)
	assert.InDelta(t, 0, x.Y(), 1e-6)
	assert.InDelta(t, -1, x.Z(), 1e-6)
	// The Y axis is the rotation axis
	y := pair.ModelView.Mul4x1(mgl32.Vec4{0, 1, 0, 0})
	assert.InDelta(t, 1, y.Y(), 1e-6)
}

func TestRotationOrderMatters(t *testing.T) {
	const theta, phi = 0.7, -1.1
	mv := DefaultCamera.ModelView(theta, phi)
	swapped := mgl32.Translate3D(0, 0, -6).Mul4(mgl32.HomogRotate3DY(theta)).Mul4(mgl32.HomogRotate3DX(phi))
	assert.False(t, mv.ApproxEqualThreshold(swapped, 1e-3))
}

func TestModelViewMatchesSdfxComposition(t *testing.T) {
	points := []v3.Vec{{X: 1, Y: 1, Z: 1}, {X: -1, Y: 0.5, Z: 0.25}, {X: 0, Y: -1, Z: 1}}
	for _, angles := range [][2]float64{{0, 0}, {0.3, 0}, {0, 0.3}, {1.2, -0.7}, {-4, 9}} {
		theta, phi := angles[0], angles[1]
		mv := DefaultCamera.ModelView(float32(theta), float32(phi))
		ref := sdf.Translate3d(v3.Vec{Z: -6}).Mul(sdf.RotateX(phi)).Mul(sdf.RotateY(theta))
		for _, p := range points {
			got := mv.Mul4x1(mgl32.Vec4{float32(p.X), float32(p.Y), float32(p.Z), 1})
			want := ref.MulPosition(p)
			assert.InDelta(t, want.X, got.X(), 1e-4, "theta=%v phi=%v p=%v", theta, phi, p)
			assert.InDelta(t, want.Y, got.Y(), 1e-4, "theta=%v phi=%v p=%v", theta, phi, p)
			assert.InDelta(t, want.Z, got.Z(), 1e-4, "theta=%v phi=%v p=%v", theta, phi, p)
		}
	}
}

func TestProjection(t *testing.T) {
	pair, err := Build(0, 0, 2)
	require.NoError(t, err)
	f := float32(1 / math.Tan(math.Pi/8))
	assert.InDelta(t, f/2, pair.Projection.At(0, 0), 1e-5)
	assert.InDelta(t, f, pair.Projection.At(1, 1), 1e-5)
	assert.InDelta(t, -1, pair.Projection.At(3, 2), 1e-6)
	// Near and far planes land on -1 and 1 in NDC
	near := pair.Projection.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := pair.Projection.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, -1, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-4)
}

func TestDegenerateAspectRejected(t *testing.T) {
	var zero float32
	for _, aspect := range []float32{0, -1, 1 / zero, float32(math.NaN())} {
		_, err := Build(0, 0, aspect)
		assert.ErrorIs(t, err, ErrDegenerateAspect, "aspect %v", aspect)
	}
	// A zero height never reaches the builder: the viewport rejects it first
	_, err := Viewport{Width: 800}.Aspect()
	assert.ErrorIs(t, err, ErrInvalidViewport)
}

func TestCubeGeometry(t *testing.T) {
	g := CubeGeometry(FaceColors)
	require.Equal(t, 24, g.VertexCount())
	require.Len(t, g.Colors, 96)
	require.Len(t, g.Indices, 36)
	for _, idx := range g.Indices {
		assert.Less(t, int(idx), 24)
	}
	assert.Equal(t, []uint16{20, 21, 22, 20, 22, 23}, g.Indices[30:])
	assert.Equal(t, []float32{1, 0, 1, 1}, g.Colors[20*4:21*4], "left face is purple")
	bb := g.BoundingBox()
	assert.Equal(t, v3.Vec{X: -1, Y: -1, Z: -1}, bb.Min)
	assert.Equal(t, v3.Vec{X: 1, Y: 1, Z: 1}, bb.Max)
}

func TestCameraClips(t *testing.T) {
	g := CubeGeometry(FaceColors)
	assert.False(t, DefaultCamera.Clips(g))

	near := DefaultCamera
	near.Distance = 2.5 // Closest corner at 2.5-√3 < 1
	assert.True(t, near.Clips(g))

	far := DefaultCamera
	far.Far = 7
	assert.True(t, far.Clips(g))
}
