package fetch

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/terrarium/pkg/terrarium"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

var (
	_ Source = (*HTTPSource)(nil)
	_ Source = DirSource{}
	_ Source = SyntheticSource{}
)

func encodePNG(t *testing.T, size int, elevation float64) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := terrarium.Image(size, size, func(x, y int) float64 { return elevation })
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHTTPSourceFetch(t *testing.T) {
	body := encodePNG(t, 4, 1234.5)
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "terrarium-test", r.Header.Get("User-Agent"))
		if r.URL.Path != "/10/1/2.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPOptions{UserAgent: "terrarium-test", CacheEntries: 8, Client: srv.Client()})
	url := tilemath.ElevationURL(srv.URL, tilemath.TileIndex{Zoom: 10, X: 1, Y: 2})

	buf, err := src.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 4, buf.Width)
	assert.Equal(t, 4, buf.Height)

	grid, err := terrarium.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, grid.At(3, 3))

	// second fetch is served from the cache
	_, err = src.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
	hits, misses := src.Cache().Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestHTTPSourceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/garbage.png" {
			_, _ = w.Write([]byte("not an image"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPOptions{CacheEntries: 8, Client: srv.Client()})

	_, err := src.Fetch(context.Background(), srv.URL+"/10/1/2.png")
	assert.True(t, errors.Is(err, ErrRetrieval), "404 should be a retrieval error: %v", err)

	_, err = src.Fetch(context.Background(), srv.URL+"/garbage.png")
	assert.True(t, errors.Is(err, ErrRetrieval), "undecodable body should be a retrieval error: %v", err)
	assert.Equal(t, 0, src.Cache().Len(), "failed rasters are not cached")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, srv.URL+"/10/1/2.png")
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "9", "3"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "9", "3", "4.png"), encodePNG(t, 2, -20), 0644))

	src := DirSource{Root: root, Base: "https://example.com/terrarium"}

	buf, err := src.Fetch(context.Background(), "https://example.com/terrarium/9/3/4.png")
	require.NoError(t, err)
	grid, err := terrarium.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, -20.0, grid.At(1, 1))

	_, err = src.Fetch(context.Background(), "https://example.com/terrarium/9/3/5.png")
	assert.ErrorIs(t, err, ErrRetrieval)

	_, err = src.Fetch(context.Background(), "https://elsewhere.org/9/3/4.png")
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestSyntheticSourceContinuity(t *testing.T) {
	src := SyntheticSource{Size: 8, Height: func(gx, gy float64) float64 { return gx + 100*gy }}

	a, err := src.Fetch(context.Background(), "synthetic://10/5/7.png")
	require.NoError(t, err)
	ga, err := terrarium.Decode(a)
	require.NoError(t, err)

	assert.Equal(t, float64(5*8)+100*float64(7*8), ga.At(0, 0))
	assert.Equal(t, float64(5*8+7)+100*float64(7*8+2), ga.At(7, 2))

	_, err = src.Fetch(context.Background(), "synthetic://nowhere")
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestParseTileURL(t *testing.T) {
	tests := []struct {
		url  string
		want tilemath.TileIndex
		ok   bool
	}{
		{"https://s3.amazonaws.com/elevation-tiles-prod/terrarium/10/518/352.png", tilemath.TileIndex{Zoom: 10, X: 518, Y: 352}, true},
		{"https://api.mapbox.com/v4/mapbox.satellite/11/1036/704@2x.jpg80?access_token=x", tilemath.TileIndex{Zoom: 11, X: 1036, Y: 704}, true},
		{"/3/2/1", tilemath.TileIndex{Zoom: 3, X: 2, Y: 1}, true},
		{"https://example.com/a/b/c.png", tilemath.TileIndex{}, false},
		{"1.png", tilemath.TileIndex{}, false},
	}
	for _, tt := range tests {
		got, err := ParseTileURL(tt.url)
		if tt.ok {
			require.NoError(t, err, tt.url)
			assert.Equal(t, tt.want, got, tt.url)
		} else {
			assert.Error(t, err, tt.url)
		}
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []byte{1})
	c.Set("b", []byte{2})
	c.Set("c", []byte{3})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry evicted")
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, []byte{3}, v)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)

	disabled := NewCache(0)
	disabled.Set("a", []byte{1})
	assert.Equal(t, 0, disabled.Len())
}
