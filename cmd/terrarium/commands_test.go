package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/terrarium/internal/config"
	"github.com/Faultbox/terrarium/internal/fetch"
	"github.com/Faultbox/terrarium/internal/tilegrid"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

func TestParsePosition(t *testing.T) {
	x, y, err := parsePosition("600, -1200.5")
	require.NoError(t, err)
	assert.Equal(t, 600.0, x)
	assert.Equal(t, -1200.5, y)

	for _, bad := range []string{"", "600", "a,1", "1,b"} {
		_, _, err := parsePosition(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSeamOrder(t *testing.T) {
	order, err := parseSeamOrder("east-first")
	require.NoError(t, err)
	assert.Equal(t, tilegrid.SeamOrderEastFirst, order)

	order, err = parseSeamOrder("")
	require.NoError(t, err)
	assert.Equal(t, tilegrid.SeamOrderReverseCompletion, order)

	_, err = parseSeamOrder("random")
	assert.Error(t, err)
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()

	src, err := newSource(cfg, "http", "")
	require.NoError(t, err)
	assert.IsType(t, &fetch.HTTPSource{}, src)

	src, err = newSource(cfg, "dir", "/tmp/tiles")
	require.NoError(t, err)
	assert.Equal(t, fetch.DirSource{Root: "/tmp/tiles", Base: cfg.Sources.ElevationBaseURL}, src)

	_, err = newSource(cfg, "dir", "")
	assert.Error(t, err)

	src, err = newSource(cfg, "synthetic", "")
	require.NoError(t, err)
	assert.IsType(t, fetch.SyntheticSource{}, src)

	_, err = newSource(cfg, "ftp", "")
	assert.Error(t, err)
}

func TestRenderTileInfo(t *testing.T) {
	cfg := config.Default()
	idx := tilemath.TileIndex{Zoom: 10, X: 531, Y: 363}

	out := renderTileInfo(cfg, idx)
	assert.Contains(t, out, "10/531/363")
	assert.Contains(t, out, "no mapbox token")

	cfg.Sources.MapboxToken = "tok"
	out = renderTileInfo(cfg, idx)
	assert.Equal(t, 4, strings.Count(out, "access_token=tok"))
}
