package internal

import (
	"errors"
	"fmt"
	"log"
)

// VertexShaderSource multiplies each position by projection*model-view and forwards the vertex color.
const VertexShaderSource = `
attribute vec4 position;
attribute vec4 color;

uniform mat4 projection_matrix;
uniform mat4 model_view_matrix;

varying lowp vec4 vColor;

void main() {
    gl_Position = projection_matrix * model_view_matrix * position;
    vColor = color;
}
`

// FragmentShaderSource outputs the interpolated vertex color.
const FragmentShaderSource = `
varying lowp vec4 vColor;

void main() {
    gl_FragColor = vColor;
}
`

// Opaque handles returned by a GraphicsContext. The zero value is never a valid handle.
type (
	Shader  uint32
	Program uint32
	Buffer  uint32
	Uniform int32
)

type ShaderKind int

const (
	VertexShader ShaderKind = iota
	FragmentShader
)

type DrawMode int

const Triangles DrawMode = 0

// GraphicsContext is the immediate-mode API the render step draws with (shaped after WebGL 1).
type GraphicsContext interface {
	// Size is the pixel size of the surface this context draws into.
	Size() (width, height int)

	CompileShader(kind ShaderKind, source string) (Shader, error)
	LinkProgram(vertex, fragment Shader) (Program, error)
	// AttribLocation returns -1 if the program has no such attribute.
	AttribLocation(p Program, name string) int
	UniformLocation(p Program, name string) (Uniform, bool)
	CreateFloatBuffer(data []float32) (Buffer, error)
	CreateIndexBuffer(data []uint16) (Buffer, error)

	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float32)
	EnableDepthTest()
	Clear(color, depth bool)
	VertexAttribPointer(location int, buf Buffer, components int) error
	BindIndexBuffer(buf Buffer) error
	UseProgram(p Program) error
	UniformMatrix4fv(u Uniform, transpose bool, m [16]float32) error
	DrawElements(mode DrawMode, count int) error
}

// Surfaces hands out the graphics context of a drawing surface, given its identifier.
type Surfaces interface {
	Context(id string) (GraphicsContext, error)
}

// ProgramInfo holds the compiled program and every location the render step needs, resolved once at setup.
type ProgramInfo struct {
	Program                     Program
	PositionAttrib, ColorAttrib int
	Projection, ModelView       Uniform
}

// GeometryBuffers are the immutable buffers created from a Geometry.
type GeometryBuffers struct {
	Positions, Colors, Indices Buffer
	IndexCount                 int
}

// DefaultClearColor is opaque black.
var DefaultClearColor = [4]float32{0, 0, 0, 1}

// RenderStep draws one frame of the cube given its transforms.
type RenderStep struct {
	GL         GraphicsContext
	Info       ProgramInfo
	Buffers    GeometryBuffers
	ClearColor [4]float32
}

// Setup acquires the surface, builds the shader program, resolves its locations and uploads the geometry.
// Any failure is a *SetupError naming the stage.
func Setup(surfaces Surfaces, surfaceID string, geom Geometry) (*RenderStep, error) {
	if surfaces == nil {
		return nil, &SetupError{Stage: StageSurface, Err: errors.New("no surface provider")}
	}
	gl, err := surfaces.Context(surfaceID)
	if err != nil {
		return nil, &SetupError{Stage: StageSurface, Err: fmt.Errorf("surface %q: %w", surfaceID, err)}
	}
	info, err := BuildProgram(gl, VertexShaderSource, FragmentShaderSource)
	if err != nil {
		return nil, err
	}
	buffers, err := UploadGeometry(gl, geom)
	if err != nil {
		return nil, err
	}
	w, h := gl.Size()
	log.Printf("[SpinCube] Pipeline ready on surface %q (%dx%d, %d vertices, %d indices)",
		surfaceID, w, h, geom.VertexCount(), buffers.IndexCount)
	return &RenderStep{GL: gl, Info: info, Buffers: buffers, ClearColor: DefaultClearColor}, nil
}

// BuildProgram compiles and links both shaders and resolves the position/color attributes and both matrix uniforms.
func BuildProgram(gl GraphicsContext, vertexSrc, fragmentSrc string) (ProgramInfo, error) {
	vs, err := gl.CompileShader(VertexShader, vertexSrc)
	if err != nil {
		return ProgramInfo{}, &SetupError{Stage: StageShader, Err: fmt.Errorf("vertex shader: %w", err)}
	}
	fs, err := gl.CompileShader(FragmentShader, fragmentSrc)
	if err != nil {
		return ProgramInfo{}, &SetupError{Stage: StageShader, Err: fmt.Errorf("fragment shader: %w", err)}
	}
	program, err := gl.LinkProgram(vs, fs)
	if err != nil {
		return ProgramInfo{}, &SetupError{Stage: StageLink, Err: err}
	}
	info := ProgramInfo{
		Program:        program,
		PositionAttrib: gl.AttribLocation(program, "position"),
		ColorAttrib:    gl.AttribLocation(program, "color"),
	}
	if info.PositionAttrib < 0 {
		return ProgramInfo{}, &SetupError{Stage: StageAttribute, Err: errors.New("cannot get position")}
	}
	if info.ColorAttrib < 0 {
		return ProgramInfo{}, &SetupError{Stage: StageAttribute, Err: errors.New("cannot get color")}
	}
	var ok bool
	if info.Projection, ok = gl.UniformLocation(program, "projection_matrix"); !ok {
		return ProgramInfo{}, &SetupError{Stage: StageUniform, Err: errors.New("cannot get projection_matrix")}
	}
	if info.ModelView, ok = gl.UniformLocation(program, "model_view_matrix"); !ok {
		return ProgramInfo{}, &SetupError{Stage: StageUniform, Err: errors.New("cannot get model_view_matrix")}
	}
	return info, nil
}

// UploadGeometry creates the position, color and index buffers.
func UploadGeometry(gl GraphicsContext, geom Geometry) (GeometryBuffers, error) {
	if len(geom.Positions) == 0 || len(geom.Positions)%3 != 0 || len(geom.Colors) != geom.VertexCount()*4 {
		return GeometryBuffers{}, &SetupError{Stage: StageBuffer, Err: fmt.Errorf(
			"mismatched geometry: %d position and %d color components", len(geom.Positions), len(geom.Colors))}
	}
	var b GeometryBuffers
	var err error
	if b.Positions, err = gl.CreateFloatBuffer(geom.Positions); err != nil {
		return GeometryBuffers{}, &SetupError{Stage: StageBuffer, Err: fmt.Errorf("positions: %w", err)}
	}
	if b.Colors, err = gl.CreateFloatBuffer(geom.Colors); err != nil {
		return GeometryBuffers{}, &SetupError{Stage: StageBuffer, Err: fmt.Errorf("colors: %w", err)}
	}
	if b.Indices, err = gl.CreateIndexBuffer(geom.Indices); err != nil {
		return GeometryBuffers{}, &SetupError{Stage: StageBuffer, Err: fmt.Errorf("indices: %w", err)}
	}
	b.IndexCount = len(geom.Indices)
	return b, nil
}

// Render clears the surface, binds the geometry, uploads both matrices (column-major, not transposed) and draws.
func (r *RenderStep) Render(pair TransformPair) error {
	gl := r.GL
	w, h := gl.Size()
	gl.Viewport(0, 0, w, h)
	gl.ClearColor(r.ClearColor[0], r.ClearColor[1], r.ClearColor[2], r.ClearColor[3])
	gl.ClearDepth(1)
	gl.EnableDepthTest()
	gl.Clear(true, true)

	if err := gl.VertexAttribPointer(r.Info.PositionAttrib, r.Buffers.Positions, 3); err != nil {
		return fmt.Errorf("bind positions: %w", err)
	}
	if err := gl.VertexAttribPointer(r.Info.ColorAttrib, r.Buffers.Colors, 4); err != nil {
		return fmt.Errorf("bind colors: %w", err)
	}
	if err := gl.BindIndexBuffer(r.Buffers.Indices); err != nil {
		return fmt.Errorf("bind indices: %w", err)
	}
	if err := gl.UseProgram(r.Info.Program); err != nil {
		return fmt.Errorf("use program: %w", err)
	}
	if err := gl.UniformMatrix4fv(r.Info.Projection, false, pair.Projection); err != nil {
		return fmt.Errorf("upload projection_matrix: %w", err)
	}
	if err := gl.UniformMatrix4fv(r.Info.ModelView, false, pair.ModelView); err != nil {
		return fmt.Errorf("upload model_view_matrix: %w", err)
	}
	return gl.DrawElements(Triangles, r.Buffers.IndexCount)
}
