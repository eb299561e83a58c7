package tilegrid

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/terrarium/internal/engine/terrain"
	"github.com/Faultbox/terrarium/pkg/terrarium"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

// runPipeline fetches, decodes, meshes and positions t. The finished tile
// is published and handed to the renderer only if the grid is still on
// generation gen. A failed tile is dropped from the cache so a later add
// retries it.
func (g *Grid) runPipeline(ctx context.Context, gen uint64, t *Tile) error {
	g.mu.Lock()
	anchor, zoom := g.anchor, g.zoom
	g.mu.Unlock()

	if !g.advance(gen, t, StateFetching) {
		return ErrCleared
	}
	url := tilemath.ElevationURL(g.opts.ElevationBaseURL, t.Index)
	pixels, err := g.source.Fetch(ctx, url)
	if err != nil {
		return g.fail(gen, t, err)
	}

	elevation, err := terrarium.Decode(pixels)
	if err != nil {
		return g.fail(gen, t, err)
	}
	if !g.advance(gen, t, StateDecoded) {
		return ErrCleared
	}

	geometry, err := terrain.BuildHeightField(elevation, float32(t.Size), g.opts.VerticalScale)
	if err != nil {
		return g.fail(gen, t, err)
	}
	if !g.advance(gen, t, StateGeometryBuilt) {
		return ErrCleared
	}

	position := tilemath.TileToWorld(zoom, t.Index.X, t.Index.Y, anchor, t.Size)

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return ErrCleared
	}
	t.Elevation = elevation
	t.Geometry = geometry
	t.Position = position
	t.State = StatePositioned
	t.rendered = true
	g.renderer.Add(t)

	g.log.Debug("tile positioned",
		tileField(t.Index),
		zap.Float64("x", position.X),
		zap.Float64("y", position.Y),
	)
	return nil
}

// advance moves t to state s unless the grid has moved past gen.
func (g *Grid) advance(gen uint64, t *Tile, s State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return false
	}
	t.State = s
	return true
}

func (g *Grid) fail(gen uint64, t *Tile, err error) error {
	tileErr := &TileError{Index: t.Index, Err: err}

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return ErrCleared
	}
	t.State = StateFailed
	t.Err = err
	if cur, ok := g.tiles.Get(t.Index); ok && cur == t {
		g.tiles.Delete(t.Index)
	}

	g.log.Warn("tile failed", tileField(t.Index), errField(err))
	return fmt.Errorf("loading: %w", tileErr)
}
