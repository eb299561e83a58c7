// Package tilegrid loads a square grid of elevation tiles around a
// geographic location, turns each into a height field and stitches the
// shared edges of neighboring tiles.
package tilegrid

import (
	"fmt"

	"github.com/Faultbox/terrarium/internal/engine/terrain"
	"github.com/Faultbox/terrarium/pkg/terrarium"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

// State is the lifecycle stage of a tile. A tile only moves forward.
type State int

const (
	StateEmpty State = iota
	StateFetching
	StateDecoded
	StateGeometryBuilt
	StatePositioned
	StateFailed
)

var stateNames = [...]string{"empty", "fetching", "decoded", "geometry", "positioned", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Material describes how a tile should be drawn. It is passed to every
// tile explicitly instead of being shared process-wide.
type Material struct {
	Wireframe bool
	Overlay   []string // satellite urls of the four child tiles, if any
}

// Tile is one cell of the grid.
//
// Fields are written by the tile's pipeline and by seam resolution while
// the grid lock is held; read them from Renderer callbacks or after the
// call that loaded the tile has returned.
type Tile struct {
	Index     tilemath.TileIndex
	Size      float64
	Material  Material
	Elevation *terrarium.ElevationGrid
	Geometry  *terrain.HeightField
	Position  tilemath.WorldPosition
	State     State
	SeamX     bool // east edge matches the x+1 neighbor
	SeamY     bool // south edge matches the y+1 neighbor
	Err       error

	rendered bool
}

func newTile(idx tilemath.TileIndex, size float64, material Material) *Tile {
	return &Tile{
		Index:    idx,
		Size:     size,
		Material: material,
	}
}

// Key returns the "{zoom}/{x}/{y}" cache key of the tile.
func (t *Tile) Key() string {
	return t.Index.Key()
}

// release drops the tile's data so it can be collected.
func (t *Tile) release() {
	t.Elevation = nil
	t.Geometry = nil
	t.rendered = false
}

// TileInfo is a read-only summary of a tile.
type TileInfo struct {
	Index     tilemath.TileIndex
	State     State
	SeamX     bool
	SeamY     bool
	Position  tilemath.WorldPosition
	Vertices  int
	Elevation terrarium.Stats
}

func (t *Tile) info() TileInfo {
	info := TileInfo{
		Index:    t.Index,
		State:    t.State,
		SeamX:    t.SeamX,
		SeamY:    t.SeamY,
		Position: t.Position,
	}
	if t.Geometry != nil {
		info.Vertices = t.Geometry.VertexCount()
	}
	if t.Elevation != nil {
		info.Elevation = t.Elevation.Stats()
	}
	return info
}

// TileError reports a tile whose pipeline failed.
type TileError struct {
	Index tilemath.TileIndex
	Err   error
}

func (e *TileError) Error() string {
	return fmt.Sprintf("tile %s: %v", e.Index, e.Err)
}

func (e *TileError) Unwrap() error {
	return e.Err
}
