// Package terrarium decodes terrarium-encoded elevation rasters.
//
// Each pixel packs a signed elevation in meters as
//
//	elevation = R*256 + G + B/256 - 32768
//
// The alpha channel is ignored. Values are not range checked.
package terrarium

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidElevation is returned for pixel buffers with zero or
// inconsistent dimensions.
var ErrInvalidElevation = errors.New("invalid elevation data")

const seaLevelOffset = 32768.0

// PixelBuffer is a decoded RGBA raster, row-major, 4 bytes per pixel.
type PixelBuffer struct {
	Width  int
	Height int
	Data   []byte
}

// Validate checks the buffer dimensions against its data length.
func (p PixelBuffer) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidElevation, p.Width, p.Height)
	}
	if len(p.Data) != p.Width*p.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d pixels", ErrInvalidElevation, len(p.Data), p.Width, p.Height)
	}
	return nil
}

// ElevationGrid holds decoded elevation samples. It is never modified
// after Decode returns it.
type ElevationGrid struct {
	Width  int
	Height int
	Values []float64
}

// At returns the elevation at pixel (x, y).
func (g *ElevationGrid) At(x, y int) float64 {
	return g.Values[x+g.Width*y]
}

// Len returns the number of samples.
func (g *ElevationGrid) Len() int {
	return len(g.Values)
}

// Stats summarizes an elevation grid.
type Stats struct {
	Min  float64
	Max  float64
	Mean float64
}

// Stats returns min, max and mean elevation.
func (g *ElevationGrid) Stats() Stats {
	if len(g.Values) == 0 {
		return Stats{}
	}
	return Stats{
		Min:  floats.Min(g.Values),
		Max:  floats.Max(g.Values),
		Mean: floats.Sum(g.Values) / float64(len(g.Values)),
	}
}

// Decode converts a pixel buffer into an elevation grid of the same size.
func Decode(p PixelBuffer) (*ElevationGrid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	values := make([]float64, p.Width*p.Height)
	for i := 0; i < p.Width; i++ {
		for j := 0; j < p.Height; j++ {
			k := i + p.Width*j
			rgba := k * 4
			values[k] = float64(p.Data[rgba])*256 +
				float64(p.Data[rgba+1]) +
				float64(p.Data[rgba+2])/256 -
				seaLevelOffset
		}
	}

	return &ElevationGrid{
		Width:  p.Width,
		Height: p.Height,
		Values: values,
	}, nil
}

// Encode packs an elevation into terrarium RGB channels. Elevations
// outside [-32768, 32768) are clamped.
func Encode(elevation float64) (r, g, b uint8) {
	v := elevation + seaLevelOffset
	if v < 0 {
		v = 0
	}
	if v >= 65536 {
		v = 65536 - 1.0/256
	}
	whole := math.Floor(v)
	r = uint8(int(whole) / 256)
	g = uint8(int(whole) % 256)
	b = uint8(math.Floor((v - whole) * 256))
	return r, g, b
}

// FromImage converts a decoded image into a non-premultiplied RGBA buffer.
func FromImage(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == w*4 && bounds.Min == (image.Point{}) {
		return PixelBuffer{Width: w, Height: h, Data: nrgba.Pix[:w*h*4]}
	}

	data := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			off := (x + w*y) * 4
			data[off] = c.R
			data[off+1] = c.G
			data[off+2] = c.B
			data[off+3] = c.A
		}
	}
	return PixelBuffer{Width: w, Height: h, Data: data}
}

// Image builds an NRGBA image encoding the given elevations, row-major
// with the given width. Used to produce synthetic rasters.
func Image(width, height int, elevation func(x, y int) float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b := Encode(elevation(x, y))
			off := img.PixOffset(x, y)
			img.Pix[off] = r
			img.Pix[off+1] = g
			img.Pix[off+2] = b
			img.Pix[off+3] = 0xff
		}
	}
	return img
}
