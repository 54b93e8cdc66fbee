package internal

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Geometry is the CPU-side data for an indexed triangle mesh with one RGBA color per vertex.
type Geometry struct {
	Positions []float32 // 3 components per vertex
	Colors    []float32 // 4 components per vertex
	Indices   []uint16  // 3 per triangle
}

// FaceColors are the default flat colors of the cube faces, in the order front, back, top, bottom, right, left.
var FaceColors = [6][4]float32{
	{1, 1, 1, 1}, // white
	{1, 0, 0, 1}, // red
	{0, 1, 0, 1}, // green
	{0, 0, 1, 1}, // blue
	{1, 1, 0, 1}, // yellow
	{1, 0, 1, 1}, // purple
}

var cubePositions = []float32{
	// Front
	-1, -1, 1,
	1, -1, 1,
	1, 1, 1,
	-1, 1, 1,
	// Back
	-1, -1, -1,
	-1, 1, -1,
	1, 1, -1,
	1, -1, -1,
	// Top
	-1, 1, -1,
	-1, 1, 1,
	1, 1, 1,
	1, 1, -1,
	// Bottom
	-1, -1, -1,
	1, -1, -1,
	1, -1, 1,
	-1, -1, 1,
	// Right
	1, -1, -1,
	1, 1, -1,
	1, 1, 1,
	1, -1, 1,
	// Left
	-1, -1, -1,
	-1, -1, 1,
	-1, 1, 1,
	-1, 1, -1,
}

// CubeGeometry builds the 2x2x2 cube centered at the origin: 6 quads (24 vertices) with one flat color each and 36
// indices (two triangles per face).
func CubeGeometry(faceColors [6][4]float32) Geometry {
	g := Geometry{
		Positions: append([]float32(nil), cubePositions...),
		Colors:    make([]float32, 0, 6*4*4),
		Indices:   make([]uint16, 0, 36),
	}
	for face, c := range faceColors {
		for i := 0; i < 4; i++ {
			g.Colors = append(g.Colors, c[:]...)
		}
		base := uint16(face * 4)
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

func (g Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// BoundingBox returns the axis aligned box containing every vertex.
func (g Geometry) BoundingBox() sdf.Box3 {
	if len(g.Positions) < 3 {
		return sdf.Box3{}
	}
	first := v3.Vec{X: float64(g.Positions[0]), Y: float64(g.Positions[1]), Z: float64(g.Positions[2])}
	bb := sdf.Box3{Min: first, Max: first}
	for i := 3; i+2 < len(g.Positions); i += 3 {
		p := v3.Vec{X: float64(g.Positions[i]), Y: float64(g.Positions[i+1]), Z: float64(g.Positions[i+2])}
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}
