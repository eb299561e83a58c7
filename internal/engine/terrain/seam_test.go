package terrain

import (
	"errors"
	"reflect"
	"testing"
)

// heightsPlane returns a side x side plane whose heights are base+i.
func heightsPlane(segments int, base float32) *HeightField {
	h := NewPlane(600, segments)
	for i := range h.Positions {
		h.SetZ(i, base+float32(i))
	}
	return h
}

func TestCopySouthEdge(t *testing.T) {
	a := heightsPlane(3, 0)
	b := heightsPlane(3, 100)
	n := a.Side

	if err := CopySouthEdge(a, b); err != nil {
		t.Fatalf("CopySouthEdge() error = %v", err)
	}

	for i := n*n - n; i < n*n; i++ {
		if got, want := a.Z(i), b.Z(i-(n*n-n)); got != want {
			t.Errorf("a.Z(%d) = %v, want %v", i, got, want)
		}
	}
	// Rows above the edge are untouched.
	for i := 0; i < n*n-n; i++ {
		if a.Z(i) != float32(i) {
			t.Errorf("a.Z(%d) = %v, changed", i, a.Z(i))
		}
	}
}

func TestCopyEastEdge(t *testing.T) {
	a := heightsPlane(3, 0)
	b := heightsPlane(3, 100)
	n := a.Side

	if err := CopyEastEdge(a, b); err != nil {
		t.Fatalf("CopyEastEdge() error = %v", err)
	}

	for i := n - 1; i < n*n; i += n {
		if got, want := a.Z(i), b.Z(i-n+1); got != want {
			t.Errorf("a.Z(%d) = %v, want %v", i, got, want)
		}
	}
	if a.Z(0) != 0 || a.Z(n) != float32(n) {
		t.Error("CopyEastEdge touched the first column")
	}
}

func TestCopyEdgeShapeMismatch(t *testing.T) {
	a := heightsPlane(2, 0)
	b := heightsPlane(4, 100)
	aBefore, bBefore := a.Clone(), b.Clone()

	if err := CopySouthEdge(a, b); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CopySouthEdge() error = %v, want ErrShapeMismatch", err)
	}
	if err := CopyEastEdge(a, b); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CopyEastEdge() error = %v, want ErrShapeMismatch", err)
	}

	if !reflect.DeepEqual(a, aBefore) || !reflect.DeepEqual(b, bBefore) {
		t.Error("mismatched copy mutated a field")
	}
}

func TestCopyEdgeNonSquare(t *testing.T) {
	a := heightsPlane(2, 0)
	b := heightsPlane(2, 0)
	b.Positions = b.Positions[:8]

	if err := CopySouthEdge(a, b); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CopySouthEdge() error = %v, want ErrShapeMismatch", err)
	}
}

func TestSquareSide(t *testing.T) {
	tests := []struct {
		count int
		side  int
		ok    bool
	}{
		{0, 0, false},
		{1, 1, true},
		{9, 3, true},
		{10, 3, false},
		{129 * 129, 129, true},
	}
	for _, tt := range tests {
		side, ok := squareSide(tt.count)
		if side != tt.side || ok != tt.ok {
			t.Errorf("squareSide(%d) = %d, %v; want %d, %v", tt.count, side, ok, tt.side, tt.ok)
		}
	}
}
