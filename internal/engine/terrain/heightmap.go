package terrain

import "math"

// HeightAt returns the bilinearly interpolated height at a point in the
// field's local plane coordinates. ok is false outside the field.
func (h *HeightField) HeightAt(x, y float32) (z float32, ok bool) {
	if h == nil || h.Side < 2 {
		return 0, false
	}

	segments := h.Side - 1
	seg := h.Size / float32(segments)
	half := h.Size / 2

	// Column grows with x, row grows towards -y.
	fx := (x + half) / seg
	fy := (half - y) / seg
	if fx < 0 || fy < 0 || fx > float32(segments) || fy > float32(segments) {
		return 0, false
	}

	cellX := min(int(math.Floor(float64(fx))), segments-1)
	cellY := min(int(math.Floor(float64(fy))), segments-1)
	fracX := clampf(fx-float32(cellX), 0, 1)
	fracY := clampf(fy-float32(cellY), 0, 1)

	// Corners: 0=NW, 1=NE, 2=SW, 3=SE
	i := cellX + h.Side*cellY
	nw, ne := h.Z(i), h.Z(i+1)
	sw, se := h.Z(i+h.Side), h.Z(i+h.Side+1)

	north := nw*(1-fracX) + ne*fracX
	south := sw*(1-fracX) + se*fracX
	return north*(1-fracY) + south*fracY, true
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
