// Package terrain builds height-displaced grid meshes from elevation data
// and stitches the shared edges of neighboring tiles.
package terrain

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrShapeMismatch is returned when two fields do not share a grid side.
var ErrShapeMismatch = errors.New("height field shape mismatch")

// HeightField is a square grid of vertices displaced along Z.
// Vertex i sits at row i/Side, column i%Side; row 0 is the +Y edge and
// column 0 the -X edge.
type HeightField struct {
	Side      int     // vertices per edge
	Size      float32 // edge length in world units
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32 // two triangles per quad
	Bounds    Bounds
}

// Bounds holds the axis-aligned bounding box of a field.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// VertexCount returns the number of vertices.
func (h *HeightField) VertexCount() int {
	return len(h.Positions)
}

// QuadCount returns the number of grid cells.
func (h *HeightField) QuadCount() int {
	return len(h.Indices) / 6
}

// Z returns the height of vertex i.
func (h *HeightField) Z(i int) float32 {
	return h.Positions[i][2]
}

// SetZ sets the height of vertex i.
func (h *HeightField) SetZ(i int, z float32) {
	h.Positions[i][2] = z
}

// Clone returns a deep copy.
func (h *HeightField) Clone() *HeightField {
	c := *h
	c.Positions = append([]mgl32.Vec3(nil), h.Positions...)
	c.Normals = append([]mgl32.Vec3(nil), h.Normals...)
	c.Indices = append([]uint32(nil), h.Indices...)
	return &c
}
