package terrain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terrarium/pkg/terrarium"
)

// DefaultVerticalScale converts meters of elevation into world units.
const DefaultVerticalScale float32 = 0.045

// NewPlane creates a flat size x size grid with the given number of
// segments per edge, centered on the origin and facing +Z.
func NewPlane(size float32, segments int) *HeightField {
	side := segments + 1
	half := size / 2
	seg := size / float32(segments)

	positions := make([]mgl32.Vec3, 0, side*side)
	for iy := range side {
		y := float32(iy)*seg - half
		for ix := range side {
			x := float32(ix)*seg - half
			positions = append(positions, mgl32.Vec3{x, -y, 0})
		}
	}

	indices := make([]uint32, 0, segments*segments*6)
	for iy := range segments {
		for ix := range segments {
			a := uint32(ix + side*iy)
			b := uint32(ix + side*(iy+1))
			c := uint32(ix + 1 + side*(iy+1))
			d := uint32(ix + 1 + side*iy)
			indices = append(indices, a, b, d, b, c, d)
		}
	}

	h := &HeightField{
		Side:      side,
		Size:      size,
		Positions: positions,
		Normals:   make([]mgl32.Vec3, len(positions)),
		Indices:   indices,
	}
	h.ComputeNormals()
	return h
}

// BuildHeightField creates a grid with floor(width/2)+1 vertices per edge
// and displaces it by nearest-neighbor samples of the elevation grid.
// The last row and the last column keep zero height; they are owned by
// the south and east neighbors and filled in by seam resolution.
func BuildHeightField(grid *terrarium.ElevationGrid, size, verticalScale float32) (*HeightField, error) {
	if grid == nil || grid.Width < 2 || grid.Width != grid.Height || grid.Len() != grid.Width*grid.Height {
		return nil, fmt.Errorf("%w: need a square grid of at least 2x2", terrarium.ErrInvalidElevation)
	}

	h := NewPlane(size, grid.Width/2)
	n := h.Side
	nElevation := math.Sqrt(float64(grid.Len()))
	ratio := nElevation / float64(n-1)
	last := grid.Len() - 1

	for i := 0; i < n*n-n; i++ {
		if i%n == n-1 {
			continue
		}
		col := float64(i / n)
		row := float64(i % n)
		k := int(roundHalfUp(roundHalfUp(col*ratio)*nElevation + row*ratio))
		if k > last {
			k = last
		}
		h.SetZ(i, float32(grid.Values[k])*verticalScale)
	}

	h.ComputeNormals()
	return h, nil
}

// ComputeNormals recomputes per-vertex normals from the triangle list and
// refreshes the bounds. Face normals are area weighted.
func (h *HeightField) ComputeNormals() {
	for i := range h.Normals {
		h.Normals[i] = mgl32.Vec3{}
	}

	for t := 0; t+2 < len(h.Indices); t += 3 {
		ia, ib, ic := h.Indices[t], h.Indices[t+1], h.Indices[t+2]
		pa, pb, pc := h.Positions[ia], h.Positions[ib], h.Positions[ic]

		n := pc.Sub(pb).Cross(pa.Sub(pb))
		h.Normals[ia] = h.Normals[ia].Add(n)
		h.Normals[ib] = h.Normals[ib].Add(n)
		h.Normals[ic] = h.Normals[ic].Add(n)
	}

	for i, n := range h.Normals {
		if l := n.Len(); l > 0 {
			h.Normals[i] = n.Mul(1 / l)
		}
	}

	h.Bounds = Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for _, p := range h.Positions {
		updateBounds(&h.Bounds, p)
	}
}

func updateBounds(b *Bounds, p mgl32.Vec3) {
	for axis := range 3 {
		if p[axis] < b.Min[axis] {
			b.Min[axis] = p[axis]
		}
		if p[axis] > b.Max[axis] {
			b.Max[axis] = p[axis]
		}
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
