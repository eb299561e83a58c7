package terrain

import (
	"fmt"
	"math"
)

// CopySouthEdge copies the first row of heights from the south neighbor
// into the last row of dst so both fields share identical edge vertices.
// Normals are not recomputed.
func CopySouthEdge(dst, south *HeightField) error {
	n, err := sharedSide(dst, south)
	if err != nil {
		return err
	}

	total := n * n
	first := total - n
	for i := first; i < total; i++ {
		dst.SetZ(i, south.Z(i-first))
	}
	return nil
}

// CopyEastEdge copies the first column of heights from the east neighbor
// into the last column of dst. Normals are not recomputed.
func CopyEastEdge(dst, east *HeightField) error {
	n, err := sharedSide(dst, east)
	if err != nil {
		return err
	}

	total := n * n
	for i := n - 1; i < total; i += n {
		dst.SetZ(i, east.Z(i-n+1))
	}
	return nil
}

// sharedSide returns the common grid side of two fields, derived from
// their vertex counts.
func sharedSide(a, b *HeightField) (int, error) {
	na, okA := squareSide(a.VertexCount())
	nb, okB := squareSide(b.VertexCount())
	if !okA || !okB || na != nb {
		return 0, fmt.Errorf("%w: %d vs %d vertices", ErrShapeMismatch, a.VertexCount(), b.VertexCount())
	}
	return na, nil
}

func squareSide(count int) (int, bool) {
	n := int(math.Sqrt(float64(count)))
	for n*n > count {
		n--
	}
	for (n+1)*(n+1) <= count {
		n++
	}
	return n, n > 0 && n*n == count
}
