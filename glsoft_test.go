package ui

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/Yeicor/spincube-ui/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSoftStep(t testing.TB, w, h int) (*softGL, *internal.RenderStep) {
	t.Helper()
	gl, err := newSoftGL(w, h)
	require.NoError(t, err)
	step, err := internal.Setup(softSurfaces{"canvas": gl}, "canvas", internal.CubeGeometry(internal.FaceColors))
	require.NoError(t, err)
	return gl, step
}

// lose invalidates the context: every later draw call fails.
func (gl *softGL) lose() {
	gl.lost = true
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

// assertColor compares with a tolerance, as interpolated colors may be off by one unit.
func assertColor(t *testing.T, want, got color.NRGBA) {
	t.Helper()
	for i, pair := range [][2]uint8{{want.R, got.R}, {want.G, got.G}, {want.B, got.B}, {want.A, got.A}} {
		assert.InDelta(t, pair[0], pair[1], 3, "channel %d of %v", i, got)
	}
}

var (
	white  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	purple = color.NRGBA{R: 255, B: 255, A: 255}
	black  = color.NRGBA{A: 255}
)

func TestSoftGLDrawsFrontFaceAtRest(t *testing.T) {
	gl, step := newSoftStep(t, 64, 64)
	pair, err := internal.Build(0, 0, 1)
	require.NoError(t, err)
	require.NoError(t, step.Render(pair))

	img := gl.Image()
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	// The back face (red) is drawn after the front one: only the depth test keeps it hidden
	assertColor(t, white, pixelAt(img, 32, 32))
	assertColor(t, black, pixelAt(img, 0, 0))
	assertColor(t, black, pixelAt(img, 63, 63))
}

func TestSoftGLDrawsLeftFaceAfterQuarterTurn(t *testing.T) {
	gl, step := newSoftStep(t, 64, 64)
	pair, err := internal.Build(math.Pi/2, 0, 1)
	require.NoError(t, err)
	require.NoError(t, step.Render(pair))
	assertColor(t, purple, pixelAt(gl.Image(), 32, 32))
}

func TestSoftGLClearsToOpaqueBlackByDefault(t *testing.T) {
	gl, err := newSoftGL(4, 4)
	require.NoError(t, err)
	gl.Clear(true, true)
	assert.Equal(t, black, pixelAt(gl.Image(), 3, 3))
}

func TestSoftGLClearColor(t *testing.T) {
	gl, step := newSoftStep(t, 16, 16)
	step.ClearColor = [4]float32{0, 0, 1, 1}
	pair, err := internal.Build(0, 0, 1)
	require.NoError(t, err)
	require.NoError(t, step.Render(pair))
	assertColor(t, color.NRGBA{B: 255, A: 255}, pixelAt(gl.Image(), 0, 0))
}

func TestSoftGLResizeKeepsPipeline(t *testing.T) {
	gl, step := newSoftStep(t, 32, 32)
	gl.Resize(48, 24)
	w, h := gl.Size()
	assert.Equal(t, 48, w)
	assert.Equal(t, 24, h)
	gl.Resize(0, 10) // Ignored
	w, _ = gl.Size()
	assert.Equal(t, 48, w)

	pair, err := internal.Build(0, 0, 2)
	require.NoError(t, err)
	require.NoError(t, step.Render(pair))
	assertColor(t, white, pixelAt(gl.Image(), 24, 12))
}

func TestSoftGLInvalidSize(t *testing.T) {
	_, err := newSoftGL(0, 10)
	assert.Error(t, err)
}

func TestSoftShaderParsing(t *testing.T) {
	vs, err := compileSoftShader(internal.VertexShader, internal.VertexShaderSource)
	require.NoError(t, err)
	assert.Equal(t, []glslVar{{"vec4", "position"}, {"vec4", "color"}}, vs.attributes)
	assert.Equal(t, []glslVar{{"mat4", "projection_matrix"}, {"mat4", "model_view_matrix"}}, vs.uniforms)
	assert.Equal(t, []glslVar{{"vec4", "vColor"}}, vs.varying)

	fs, err := compileSoftShader(internal.FragmentShader, internal.FragmentShaderSource)
	require.NoError(t, err)
	p, err := linkSoftProgram(vs, fs, 10)
	require.NoError(t, err)
	assert.Equal(t, []internal.Uniform{10, 11}, p.matrices)
	assert.Equal(t, internal.Uniform(11), p.uniforms["model_view_matrix"])
}

func TestSoftShaderErrors(t *testing.T) {
	_, err := compileSoftShader(internal.VertexShader, "  \n")
	assert.ErrorContains(t, err, "empty")
	_, err = compileSoftShader(internal.VertexShader, "attribute vec4 position;")
	assert.ErrorContains(t, err, "main")
	_, err = compileSoftShader(internal.FragmentShader, "attribute vec4 position;\nvoid main() {}")
	assert.ErrorContains(t, err, "position")

	vs, err := compileSoftShader(internal.VertexShader, internal.VertexShaderSource)
	require.NoError(t, err)
	fs, err := compileSoftShader(internal.FragmentShader, "varying lowp vec4 vOther;\nvoid main() {}")
	require.NoError(t, err)
	_, err = linkSoftProgram(vs, fs, 1)
	assert.ErrorContains(t, err, "vOther")

	fs, err = compileSoftShader(internal.FragmentShader, "uniform vec3 tint;\nvoid main() {}")
	require.NoError(t, err)
	_, err = linkSoftProgram(vs, fs, 1)
	assert.ErrorContains(t, err, "tint")

	_, err = linkSoftProgram(fs, vs, 1)
	assert.Error(t, err)
}

func TestSoftGLSetupFailsOnBrokenShader(t *testing.T) {
	gl, err := newSoftGL(8, 8)
	require.NoError(t, err)
	_, err = internal.BuildProgram(gl, internal.VertexShaderSource, "void nope() {}")
	var setupErr *internal.SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, internal.StageShader, setupErr.Stage)
}

func TestLostContextStopsScheduler(t *testing.T) {
	gl, step := newSoftStep(t, 16, 16)
	state := &internal.State{
		Viewport: internal.Viewport{Width: 16, Height: 16},
		Velocity: internal.Velocity{DX: 0.1},
	}
	sched := internal.NewScheduler(state, step)
	require.NoError(t, sched.Tick(context.Background()))

	gl.lose()
	err := sched.Tick(context.Background())
	var renderErr *internal.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, uint64(2), renderErr.Frame)
	assert.ErrorIs(t, err, errContextLost)

	sched.Policy = internal.FailSkip
	assert.NoError(t, sched.Tick(context.Background()))
	assert.Equal(t, uint64(3), sched.Frame())
}

func TestUniformUploadChecks(t *testing.T) {
	gl, step := newSoftStep(t, 8, 8)
	var m [16]float32
	assert.ErrorContains(t, gl.UniformMatrix4fv(step.Info.Projection, false, m), "no program")
	require.NoError(t, gl.UseProgram(step.Info.Program))
	assert.ErrorContains(t, gl.UniformMatrix4fv(step.Info.Projection, true, m), "transpose")
	assert.ErrorContains(t, gl.UniformMatrix4fv(999, false, m), "does not belong")
	assert.NoError(t, gl.UniformMatrix4fv(step.Info.ModelView, false, m))
}

func TestCloneFrameIsIndependent(t *testing.T) {
	gl, step := newSoftStep(t, 8, 8)
	pair, err := internal.Build(0, 0, 1)
	require.NoError(t, err)
	require.NoError(t, step.Render(pair))
	frame := cloneFrame(gl.Image())
	step.ClearColor = [4]float32{1, 0, 0, 1}
	require.NoError(t, step.Render(pair))
	assertColor(t, black, pixelAt(frame, 0, 0))
	assertColor(t, color.NRGBA{R: 255, A: 255}, pixelAt(gl.Image(), 0, 0))
}

func BenchmarkSoftGLRender(b *testing.B) {
	_, step := newSoftStep(b, 640, 480)
	pair, err := internal.Build(0.5, 0.25, 640.0/480.0)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if err = step.Render(pair); err != nil {
			b.Fatal(err)
		}
	}
}
