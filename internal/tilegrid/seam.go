package tilegrid

import (
	"cmp"
	"errors"
	"slices"

	"github.com/Faultbox/terrarium/internal/engine/terrain"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

// ErrNoGeometry is returned when a seam is resolved against a tile whose
// height field has not been built.
var ErrNoGeometry = errors.New("tile has no geometry")

// SeamOrder selects the order in which a loaded batch is stitched.
type SeamOrder int

const (
	// SeamOrderReverseCompletion stitches the tile that finished loading
	// last first. Corner vertices then depend on network timing.
	SeamOrderReverseCompletion SeamOrder = iota

	// SeamOrderEastFirst stitches by descending x, then descending y, so
	// a tile's east and south neighbors always have their own edges fixed
	// before they are copied. Shared corners match exactly.
	SeamOrderEastFirst
)

// ResolveSeamY copies the first row of south into the last row of tile.
// It reports whether tile changed. A tile already stitched on this axis
// is left alone; on a shape mismatch neither tile changes.
func ResolveSeamY(tile, south *Tile) (bool, error) {
	if tile.SeamY {
		return false, nil
	}
	if tile.Geometry == nil || south.Geometry == nil {
		return false, ErrNoGeometry
	}
	if err := terrain.CopySouthEdge(tile.Geometry, south.Geometry); err != nil {
		return false, err
	}
	tile.SeamY = true
	tile.Geometry.ComputeNormals()
	return true, nil
}

// ResolveSeamX copies the first column of east into the last column of
// tile. Same contract as ResolveSeamY.
func ResolveSeamX(tile, east *Tile) (bool, error) {
	if tile.SeamX {
		return false, nil
	}
	if tile.Geometry == nil || east.Geometry == nil {
		return false, ErrNoGeometry
	}
	if err := terrain.CopyEastEdge(tile.Geometry, east.Geometry); err != nil {
		return false, err
	}
	tile.SeamX = true
	tile.Geometry.ComputeNormals()
	return true, nil
}

// resolveSeams stitches t against its cached south and east neighbors.
// Must be called with g.mu held.
func (g *Grid) resolveSeams(t *Tile) bool {
	if t.State != StatePositioned {
		return false
	}

	worked := false
	if south, ok := g.positioned(t.Index.SouthNeighbor()); ok {
		changed, err := ResolveSeamY(t, south)
		if err != nil {
			g.log.Warn("seam skipped", tileField(t.Index), axisField("y"), errField(err))
		}
		worked = worked || changed
	}
	if east, ok := g.positioned(t.Index.EastNeighbor()); ok {
		changed, err := ResolveSeamX(t, east)
		if err != nil {
			g.log.Warn("seam skipped", tileField(t.Index), axisField("x"), errField(err))
		}
		worked = worked || changed
	}

	if worked {
		g.renderer.Update(t)
	}
	return worked
}

// resolveAll stitches the given tiles in order. Must be called with g.mu
// held.
func (g *Grid) resolveAll(order []tilemath.TileIndex) int {
	stitched := 0
	for _, idx := range order {
		t, ok := g.tiles.Get(idx)
		if !ok {
			continue
		}
		if g.resolveSeams(t) {
			stitched++
		}
	}
	return stitched
}

// seamOrder returns the stitching order of a settled batch.
func (g *Grid) seamOrder(completed []tilemath.TileIndex) []tilemath.TileIndex {
	order := slices.Clone(completed)
	switch g.opts.SeamOrder {
	case SeamOrderEastFirst:
		slices.SortFunc(order, func(a, b tilemath.TileIndex) int {
			if c := cmp.Compare(b.X, a.X); c != 0 {
				return c
			}
			return cmp.Compare(b.Y, a.Y)
		})
	default:
		slices.Reverse(order)
	}
	return order
}

func (g *Grid) positioned(idx tilemath.TileIndex) (*Tile, bool) {
	t, ok := g.tiles.Get(idx)
	if !ok || t.State != StatePositioned {
		return nil, false
	}
	return t, true
}
