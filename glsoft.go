package ui

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strings"

	"github.com/Yeicor/spincube-ui/internal"
	"github.com/fogleman/fauxgl"
)

//-----------------------------------------------------------------------------
// SHADERS
//-----------------------------------------------------------------------------

var (
	glslDecl = regexp.MustCompile(`(?m)^\s*(attribute|uniform|varying)\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	glslMain = regexp.MustCompile(`void\s+main\s*\(\s*\)`)
)

type glslVar struct {
	typ, name string
}

// softShader is the parsed interface of a GLSL shader: the software context can't execute arbitrary GLSL, it only
// needs the declarations to resolve locations and check the program against the pipeline it implements.
type softShader struct {
	kind                          internal.ShaderKind
	attributes, uniforms, varying []glslVar
}

func compileSoftShader(kind internal.ShaderKind, source string) (*softShader, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("empty shader source")
	}
	if !glslMain.MatchString(source) {
		return nil, errors.New("missing void main()")
	}
	sh := &softShader{kind: kind}
	for _, m := range glslDecl.FindAllStringSubmatch(source, -1) {
		v := glslVar{typ: m[2], name: m[3]}
		switch m[1] {
		case "attribute":
			if kind != internal.VertexShader {
				return nil, fmt.Errorf("attribute %s declared outside of a vertex shader", v.name)
			}
			sh.attributes = append(sh.attributes, v)
		case "uniform":
			sh.uniforms = append(sh.uniforms, v)
		case "varying":
			sh.varying = append(sh.varying, v)
		}
	}
	return sh, nil
}

// softProgram executes flat-color transform programs: gl_Position is the product of every mat4 uniform (in
// declaration order) applied to the first attribute, and the second attribute is interpolated as the output color.
type softProgram struct {
	attributes []glslVar
	uniforms   map[string]internal.Uniform
	matrices   []internal.Uniform // mat4 uniforms, in multiplication order
	values     map[internal.Uniform]fauxgl.Matrix
}

func linkSoftProgram(vs, fs *softShader, firstUniform internal.Uniform) (*softProgram, error) {
	if vs.kind != internal.VertexShader || fs.kind != internal.FragmentShader {
		return nil, errors.New("a program needs one vertex and one fragment shader")
	}
	for _, v := range fs.varying {
		found := false
		for _, w := range vs.varying {
			if v == w {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("varying %s %s is not written by the vertex shader", v.typ, v.name)
		}
	}
	if len(vs.attributes) != 2 {
		return nil, fmt.Errorf("expected a position and a color attribute, got %d attributes", len(vs.attributes))
	}
	if vs.attributes[1].typ != "vec4" {
		return nil, fmt.Errorf("color attribute %s must be a vec4", vs.attributes[1].name)
	}
	p := &softProgram{
		attributes: vs.attributes,
		uniforms:   map[string]internal.Uniform{},
		values:     map[internal.Uniform]fauxgl.Matrix{},
	}
	next := firstUniform
	for _, u := range append(append([]glslVar(nil), vs.uniforms...), fs.uniforms...) {
		if _, dup := p.uniforms[u.name]; dup {
			continue
		}
		if u.typ != "mat4" {
			return nil, fmt.Errorf("unsupported uniform type %s for %s", u.typ, u.name)
		}
		p.uniforms[u.name] = next
		p.matrices = append(p.matrices, next)
		next++
	}
	if len(p.matrices) == 0 {
		return nil, errors.New("no mat4 uniform to transform positions with")
	}
	return p, nil
}

// softColorShader is the fauxgl counterpart of the program: transform positions and pass colors through.
type softColorShader struct {
	Matrix fauxgl.Matrix
}

func (s *softColorShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.Matrix.MulPositionW(v.Position)
	return v
}

func (s *softColorShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	return v.Color
}

//-----------------------------------------------------------------------------
// CONTEXT
//-----------------------------------------------------------------------------

var errContextLost = errors.New("graphics context lost")

type softAttrib struct {
	data       []float32
	components int
}

// softGL implements internal.GraphicsContext on top of a fauxgl software rasterizer.
// Depth testing starts disabled and back faces are never culled, like a fresh WebGL context.
type softGL struct {
	ctx      *fauxgl.Context
	next     uint32
	shaders  map[internal.Shader]*softShader
	programs map[internal.Program]*softProgram
	floats   map[internal.Buffer][]float32
	indices  map[internal.Buffer][]uint16

	clearColor fauxgl.Color
	clearDepth float64
	viewport   image.Rectangle
	program    *softProgram
	attribs    map[int]softAttrib
	elements   []uint16
	lost       bool
}

func newSoftGL(width, height int) (*softGL, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	gl := &softGL{
		shaders:    map[internal.Shader]*softShader{},
		programs:   map[internal.Program]*softProgram{},
		floats:     map[internal.Buffer][]float32{},
		indices:    map[internal.Buffer][]uint16{},
		attribs:    map[int]softAttrib{},
		clearColor: fauxgl.Color{A: 1},
		clearDepth: 1,
	}
	gl.Resize(width, height)
	return gl, nil
}

// Resize rebuilds the color and depth buffers only when the size changes. Every other object survives.
func (gl *softGL) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if gl.ctx != nil && gl.ctx.Width == width && gl.ctx.Height == height {
		return
	}
	gl.ctx = fauxgl.NewContext(width, height)
	gl.ctx.Cull = fauxgl.CullNone
	gl.ctx.ReadDepth = false
	gl.ctx.WriteDepth = false
	gl.viewport = image.Rect(0, 0, width, height)
}

func (gl *softGL) Image() image.Image {
	return gl.ctx.Image()
}

func (gl *softGL) Size() (int, int) {
	return gl.ctx.Width, gl.ctx.Height
}

func (gl *softGL) handle() uint32 {
	gl.next++
	return gl.next
}

func (gl *softGL) CompileShader(kind internal.ShaderKind, source string) (internal.Shader, error) {
	sh, err := compileSoftShader(kind, source)
	if err != nil {
		return 0, err
	}
	h := internal.Shader(gl.handle())
	gl.shaders[h] = sh
	return h, nil
}

func (gl *softGL) LinkProgram(vertex, fragment internal.Shader) (internal.Program, error) {
	vs, ok1 := gl.shaders[vertex]
	fs, ok2 := gl.shaders[fragment]
	if !ok1 || !ok2 {
		return 0, errors.New("unknown shader")
	}
	// Uniform locations are unique across programs
	p, err := linkSoftProgram(vs, fs, internal.Uniform(gl.next+1))
	if err != nil {
		return 0, err
	}
	gl.next += uint32(len(p.matrices))
	h := internal.Program(gl.handle())
	gl.programs[h] = p
	return h, nil
}

func (gl *softGL) AttribLocation(p internal.Program, name string) int {
	if prog, ok := gl.programs[p]; ok {
		for i, a := range prog.attributes {
			if a.name == name {
				return i
			}
		}
	}
	return -1
}

func (gl *softGL) UniformLocation(p internal.Program, name string) (internal.Uniform, bool) {
	if prog, ok := gl.programs[p]; ok {
		u, ok := prog.uniforms[name]
		return u, ok
	}
	return 0, false
}

func (gl *softGL) CreateFloatBuffer(data []float32) (internal.Buffer, error) {
	if gl.lost {
		return 0, errContextLost
	}
	h := internal.Buffer(gl.handle())
	gl.floats[h] = append([]float32(nil), data...)
	return h, nil
}

func (gl *softGL) CreateIndexBuffer(data []uint16) (internal.Buffer, error) {
	if gl.lost {
		return 0, errContextLost
	}
	h := internal.Buffer(gl.handle())
	gl.indices[h] = append([]uint16(nil), data...)
	return h, nil
}

// Viewport is recorded, but drawing always covers the whole surface.
func (gl *softGL) Viewport(x, y, width, height int) {
	gl.viewport = image.Rect(x, y, x+width, y+height)
}

func (gl *softGL) ClearColor(r, g, b, a float32) {
	gl.clearColor = fauxgl.Color{R: float64(r), G: float64(g), B: float64(b), A: float64(a)}
}

func (gl *softGL) ClearDepth(depth float32) {
	gl.clearDepth = float64(depth)
}

func (gl *softGL) EnableDepthTest() {
	gl.ctx.ReadDepth = true
	gl.ctx.WriteDepth = true
}

func (gl *softGL) Clear(colorBuf, depthBuf bool) {
	if gl.lost {
		return
	}
	if colorBuf {
		gl.ctx.ClearColorBufferWith(gl.clearColor)
	}
	if depthBuf {
		for i := range gl.ctx.DepthBuffer {
			gl.ctx.DepthBuffer[i] = gl.clearDepth
		}
	}
}

func (gl *softGL) VertexAttribPointer(location int, buf internal.Buffer, components int) error {
	if gl.lost {
		return errContextLost
	}
	data, ok := gl.floats[buf]
	if !ok {
		return fmt.Errorf("unknown buffer %d", buf)
	}
	if components < 1 || components > 4 || len(data)%components != 0 {
		return fmt.Errorf("buffer of %d floats can't hold %d-component vertices", len(data), components)
	}
	gl.attribs[location] = softAttrib{data: data, components: components}
	return nil
}

func (gl *softGL) BindIndexBuffer(buf internal.Buffer) error {
	if gl.lost {
		return errContextLost
	}
	data, ok := gl.indices[buf]
	if !ok {
		return fmt.Errorf("unknown index buffer %d", buf)
	}
	gl.elements = data
	return nil
}

func (gl *softGL) UseProgram(p internal.Program) error {
	if gl.lost {
		return errContextLost
	}
	prog, ok := gl.programs[p]
	if !ok {
		return fmt.Errorf("unknown program %d", p)
	}
	gl.program = prog
	return nil
}

func (gl *softGL) UniformMatrix4fv(u internal.Uniform, transpose bool, m [16]float32) error {
	if gl.lost {
		return errContextLost
	}
	if transpose {
		return errors.New("transpose must be false")
	}
	if gl.program == nil {
		return errors.New("no program in use")
	}
	if !gl.program.ownsUniform(u) {
		return fmt.Errorf("uniform %d does not belong to the current program", u)
	}
	gl.program.values[u] = columnMajorToFauxgl(m)
	return nil
}

func (p *softProgram) ownsUniform(u internal.Uniform) bool {
	for _, m := range p.matrices {
		if m == u {
			return true
		}
	}
	return false
}

func (gl *softGL) DrawElements(mode internal.DrawMode, count int) error {
	if gl.lost {
		return errContextLost
	}
	if mode != internal.Triangles {
		return fmt.Errorf("unsupported draw mode %d", mode)
	}
	if gl.program == nil {
		return errors.New("no program in use")
	}
	if count < 0 || count > len(gl.elements) || count%3 != 0 {
		return fmt.Errorf("invalid element count %d (%d bound)", count, len(gl.elements))
	}
	positions, ok1 := gl.attribs[0]
	colors, ok2 := gl.attribs[1]
	if !ok1 || !ok2 {
		return errors.New("position and color attributes must be bound")
	}
	matrix := fauxgl.Identity()
	for _, u := range gl.program.matrices {
		m, ok := gl.program.values[u]
		if !ok {
			return fmt.Errorf("uniform %d was never set", u)
		}
		matrix = matrix.Mul(m)
	}

	vertexCount := len(positions.data) / positions.components
	triangles := make([]*fauxgl.Triangle, 0, count/3)
	for i := 0; i < count; i += 3 {
		var tri [3]fauxgl.Vertex
		for j := 0; j < 3; j++ {
			idx := int(gl.elements[i+j])
			if idx >= vertexCount || (idx+1)*colors.components > len(colors.data) {
				return fmt.Errorf("index %d out of range", idx)
			}
			tri[j] = fauxgl.Vertex{
				Position: attribVector(positions, idx),
				Color:    attribColor(colors, idx),
			}
		}
		triangles = append(triangles, &fauxgl.Triangle{V1: tri[0], V2: tri[1], V3: tri[2]})
	}
	gl.ctx.Shader = &softColorShader{Matrix: matrix}
	gl.ctx.DrawTriangles(triangles)
	return nil
}

func attribVector(a softAttrib, idx int) fauxgl.Vector {
	var c [3]float64
	for k := 0; k < a.components && k < 3; k++ {
		c[k] = float64(a.data[idx*a.components+k])
	}
	return fauxgl.Vector{X: c[0], Y: c[1], Z: c[2]}
}

func attribColor(a softAttrib, idx int) fauxgl.Color {
	c := [4]float64{0, 0, 0, 1}
	for k := 0; k < a.components; k++ {
		c[k] = float64(a.data[idx*a.components+k])
	}
	return fauxgl.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// columnMajorToFauxgl converts a GL-style column-major matrix into fauxgl's row fields.
func columnMajorToFauxgl(m [16]float32) fauxgl.Matrix {
	f := func(row, col int) float64 { return float64(m[col*4+row]) }
	return fauxgl.Matrix{
		X00: f(0, 0), X01: f(0, 1), X02: f(0, 2), X03: f(0, 3),
		X10: f(1, 0), X11: f(1, 1), X12: f(1, 2), X13: f(1, 3),
		X20: f(2, 0), X21: f(2, 1), X22: f(2, 2), X23: f(2, 3),
		X30: f(3, 0), X31: f(3, 1), X32: f(3, 2), X33: f(3, 3),
	}
}

//-----------------------------------------------------------------------------
// SURFACES
//-----------------------------------------------------------------------------

// softSurfaces maps surface identifiers to software contexts.
type softSurfaces map[string]*softGL

func (s softSurfaces) Context(id string) (internal.GraphicsContext, error) {
	gl, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("no surface with id %q", id)
	}
	return gl, nil
}

// cloneFrame copies the last rendered frame, as the software context reuses its color buffer.
func cloneFrame(img image.Image) *image.NRGBA {
	if src, ok := img.(*image.NRGBA); ok {
		dst := image.NewNRGBA(src.Rect)
		copy(dst.Pix, src.Pix)
		return dst
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, color.NRGBAModel.Convert(img.At(x, y)))
		}
	}
	return dst
}
