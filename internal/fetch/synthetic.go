package fetch

import (
	"context"
	"fmt"
	"math"

	"github.com/Faultbox/terrarium/pkg/terrarium"
)

// HeightFunc returns meters above sea level at global pixel coordinates
// (tile index * raster size + pixel offset).
type HeightFunc func(gx, gy float64) float64

// SyntheticSource generates terrarium rasters from a height function. It
// needs no network and is continuous across tile edges.
type SyntheticSource struct {
	Size   int // raster edge in pixels, 256 when zero
	Height HeightFunc
}

// Hills is a smooth rolling landscape between roughly 200m and 1800m.
func Hills(gx, gy float64) float64 {
	return 1000 +
		500*math.Sin(gx/97)*math.Cos(gy/131) +
		300*math.Sin((gx+gy)/53)
}

// Fetch builds the raster for the tile encoded in url.
func (s SyntheticSource) Fetch(ctx context.Context, url string) (terrarium.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return terrarium.PixelBuffer{}, fmt.Errorf("%w: %s: %w", ErrRetrieval, url, err)
	}

	idx, err := ParseTileURL(url)
	if err != nil {
		return terrarium.PixelBuffer{}, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	size := s.Size
	if size <= 0 {
		size = 256
	}
	height := s.Height
	if height == nil {
		height = Hills
	}

	ox := float64(idx.X * size)
	oy := float64(idx.Y * size)
	img := terrarium.Image(size, size, func(x, y int) float64 {
		return height(ox+float64(x), oy+float64(y))
	})
	return terrarium.FromImage(img), nil
}
