// Package tilemath converts between geographic coordinates, slippy-map tile
// indices and world-space positions of a terrain grid.
package tilemath

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// anchorZoom is the zoom level at which the anchor offset vanishes.
const anchorZoom = 10

// TileIndex identifies a tile in the quad-tree tiling scheme.
// It is comparable and used directly as a map key.
type TileIndex struct {
	Zoom int
	X    int
	Y    int
}

// Key returns the "{zoom}/{x}/{y}" form of the index.
func (t TileIndex) Key() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// String implements fmt.Stringer.
func (t TileIndex) String() string {
	return t.Key()
}

// EastNeighbor returns the tile at x+1.
func (t TileIndex) EastNeighbor() TileIndex {
	return TileIndex{Zoom: t.Zoom, X: t.X + 1, Y: t.Y}
}

// SouthNeighbor returns the tile at y+1.
func (t TileIndex) SouthNeighbor() TileIndex {
	return TileIndex{Zoom: t.Zoom, X: t.X, Y: t.Y + 1}
}

// Children returns the four tiles one zoom level deeper, ordered
// (2x,2y), (2x,2y+1), (2x+1,2y), (2x+1,2y+1).
func (t TileIndex) Children() [4]TileIndex {
	z := t.Zoom + 1
	return [4]TileIndex{
		{Zoom: z, X: t.X * 2, Y: t.Y * 2},
		{Zoom: z, X: t.X * 2, Y: t.Y*2 + 1},
		{Zoom: z, X: t.X*2 + 1, Y: t.Y * 2},
		{Zoom: z, X: t.X*2 + 1, Y: t.Y*2 + 1},
	}
}

// MapTile converts the index into an orb maptile, wrapping x and y into
// [0, 2^zoom).
func (t TileIndex) MapTile() maptile.Tile {
	n := 1 << uint(t.Zoom)
	return maptile.New(uint32(euclidMod(t.X, n)), uint32(euclidMod(t.Y, n)), maptile.Zoom(t.Zoom))
}

// Bound returns the geographic extent of the tile (lon/lat degrees).
func (t TileIndex) Bound() orb.Bound {
	return t.MapTile().Bound()
}

// Anchor is the fractional tile coordinate of a grid's logical center.
type Anchor struct {
	X float64
	Y float64
}

// AnchorFor returns the anchor located at an integer tile index.
func AnchorFor(t TileIndex) Anchor {
	return Anchor{X: float64(t.X), Y: float64(t.Y)}
}

// WorldPosition is a position in scene units.
type WorldPosition struct {
	X, Y, Z float64
}

// LongitudeToTileX returns the fractional tile x for a longitude.
func LongitudeToTileX(lon float64, zoom int) float64 {
	return (lon + 180) / 360 * math.Exp2(float64(zoom))
}

// LatitudeToTileY returns the fractional tile y for a latitude (Web Mercator).
func LatitudeToTileY(lat float64, zoom int) float64 {
	rad := lat * math.Pi / 180
	return (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2 * math.Exp2(float64(zoom))
}

// GeoToTileIndex returns the tile containing (lat, lon) at zoom.
// Components are floored, made absolute and reduced modulo 2^zoom.
func GeoToTileIndex(lat, lon float64, zoom int) TileIndex {
	maxTile := 1 << uint(zoom)
	x := absInt(int(math.Floor(LongitudeToTileX(lon, zoom))) % maxTile)
	y := absInt(int(math.Floor(LatitudeToTileY(lat, zoom))) % maxTile)
	return TileIndex{Zoom: zoom, X: x, Y: y}
}

// TileToWorld returns the world position of the tile's center relative to
// the anchor. Fractional parts use the remainder operator, so negative
// inputs keep their sign.
func TileToWorld(zoom, x, y int, anchor Anchor, tileSize float64) WorldPosition {
	div := math.Exp2(float64(anchorZoom - zoom))
	offX := anchor.X / div
	offY := anchor.Y / div
	return WorldPosition{
		X: (float64(x) - anchor.X - math.Mod(offX, 1) + math.Mod(anchor.X, 1)) * tileSize,
		Y: (-float64(y) + anchor.Y + math.Mod(offY, 1) - math.Mod(anchor.Y, 1)) * tileSize,
		Z: 0,
	}
}

// WorldToTileIndex returns the tile nearest to a world position.
// It inverts TileToWorld up to rounding to the closest tile.
func WorldToTileIndex(zoom int, worldX, worldY float64, anchor Anchor, tileSize float64) TileIndex {
	ax := math.Floor(anchor.X)
	ay := math.Floor(anchor.Y)
	center := TileToWorld(zoom, int(ax), int(ay), anchor, tileSize)
	dx := roundHalfUp((worldX - center.X) / tileSize)
	dy := roundHalfUp(-(worldY - center.Y) / tileSize)
	return TileIndex{Zoom: zoom, X: int(ax + dx), Y: int(ay + dy)}
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func euclidMod(d, m int) int {
	r := d % m
	if r < 0 {
		r += m
	}
	return r
}
