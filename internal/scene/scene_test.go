package scene

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/terrarium/internal/engine/terrain"
	"github.com/Faultbox/terrarium/internal/fetch"
	"github.com/Faultbox/terrarium/internal/tilegrid"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

func newGrid(r tilegrid.Renderer) *tilegrid.Grid {
	opts := tilegrid.DefaultOptions()
	opts.ElevationBaseURL = "synthetic://terrarium"
	opts.TileSize = 100
	return tilegrid.New(fetch.SyntheticSource{Size: 8}, r, opts)
}

func TestRecorderWithGrid(t *testing.T) {
	rec := NewRecorder()
	g := newGrid(rec)

	_, err := g.Init(context.Background(), 45.8326, 6.8652, 10, 2)
	require.NoError(t, err)

	totals := rec.Totals()
	assert.Equal(t, 4, totals.Added)
	assert.Zero(t, totals.Disposed)
	assert.Len(t, rec.Live(), 4)

	center := tilemath.GeoToTileIndex(45.8326, 6.8652, 10)
	assert.Equal(t, 1, rec.Counts(center.Key()).Added)

	g.Clear()
	assert.Empty(t, rec.Live())
	assert.Equal(t, 4, rec.Totals().Disposed)
	assert.Equal(t, 1, rec.Counts(center.Key()).Disposed)
	assert.Equal(t, Counts{}, rec.Counts("0/0/0"))
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	tile := &tilegrid.Tile{Index: tilemath.TileIndex{Zoom: 1, X: 1, Y: 0}}

	m := Multi{a, b}
	m.Add(tile)
	m.Update(tile)
	m.Dispose(tile)

	want := Counts{Added: 1, Updated: 1, Disposed: 1}
	assert.Equal(t, want, a.Counts("1/1/0"))
	assert.Equal(t, want, b.Counts("1/1/0"))
}

func TestWriteOBJ(t *testing.T) {
	tile := &tilegrid.Tile{
		Index:    tilemath.TileIndex{Zoom: 3, X: 4, Y: 5},
		Geometry: terrain.NewPlane(2, 1),
		Position: tilemath.WorldPosition{X: 10, Y: -20},
		Material: tilegrid.Material{Overlay: []string{"https://example.com/4/8/10.jpg"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, tile))

	var v, vn, f []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "v "):
			v = append(v, line)
		case strings.HasPrefix(line, "vn "):
			vn = append(vn, line)
		case strings.HasPrefix(line, "f "):
			f = append(f, line)
		}
	}
	require.Len(t, v, 4)
	assert.Len(t, vn, 4)
	require.Len(t, f, 2)

	// first vertex (-1, 1, 0) moved by the tile position
	assert.Equal(t, "v 9 -19 0", v[0])
	assert.Equal(t, "f 1//1 3//3 2//2", f[0])

	assert.Error(t, WriteOBJ(&buf, &tilegrid.Tile{}))
}

func TestOBJExporterWithGrid(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exp, err := NewOBJExporter(dir)
	require.NoError(t, err)

	g := newGrid(exp)
	_, err = g.Init(context.Background(), 45.8326, 6.8652, 10, 2)
	require.NoError(t, err)
	require.NoError(t, exp.Err())

	center := tilemath.GeoToTileIndex(45.8326, 6.8652, 10)
	tile, ok := g.Tile(center)
	require.True(t, ok)

	data, err := os.ReadFile(exp.Path(tile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# terrarium tile "+center.Key()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.GreaterOrEqual(t, exp.Written(), 4)

	g.Clear()
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, exp.Err())
}
