package tilegrid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/terrarium/internal/engine/terrain"
	"github.com/Faultbox/terrarium/internal/fetch"
	"github.com/Faultbox/terrarium/internal/logger"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

var (
	// ErrNoSession is returned by operations that need a prior Init.
	ErrNoSession = errors.New("grid has no active session")

	// ErrCleared is returned when the grid was cleared while a call was
	// still loading tiles. Its results were discarded.
	ErrCleared = errors.New("grid cleared while loading")
)

// RasterSource yields the pixels behind an elevation tile URL.
type RasterSource = fetch.Source

// Renderer receives tiles for drawing. Calls are made with the grid lock
// held, so implementations must not call back into the Grid.
type Renderer interface {
	// Add is called once when a tile is positioned.
	Add(t *Tile)
	// Update is called when a seam changed the tile's geometry.
	Update(t *Tile)
	// Dispose is called once for every added tile on Clear.
	Dispose(t *Tile)
}

// Options configures a Grid.
type Options struct {
	TileSize         float64
	VerticalScale    float32
	Concurrency      int
	ElevationBaseURL string
	SatelliteBaseURL string
	MapboxToken      string // satellite overlays are attached when set
	Wireframe        bool
	SeamOrder        SeamOrder
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		TileSize:         600,
		VerticalScale:    terrain.DefaultVerticalScale,
		Concurrency:      8,
		ElevationBaseURL: tilemath.DefaultElevationBaseURL,
		SatelliteBaseURL: tilemath.DefaultSatelliteBaseURL,
		Wireframe:        true,
	}
}

// Batch reports the outcome of loading a set of tiles.
type Batch struct {
	Completed []tilemath.TileIndex // in completion order
	Failed    []*TileError
	Stitched  int
	Elapsed   time.Duration
}

// Err joins the per-tile failures, or returns nil.
func (b *Batch) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(b.Failed))
	for i, f := range b.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Grid owns the tile cache of one viewing session.
type Grid struct {
	source   RasterSource
	renderer Renderer
	opts     Options
	log      *zap.Logger

	mu         sync.Mutex
	tiles      *orderedmap.OrderedMap[tilemath.TileIndex, *Tile]
	anchor     tilemath.Anchor
	zoom       int
	dimension  int
	active     bool
	generation uint64
	session    context.Context
	cancel     context.CancelFunc
}

// New creates an empty grid. Zero-valued options fall back to
// DefaultOptions.
func New(source RasterSource, renderer Renderer, opts Options) *Grid {
	def := DefaultOptions()
	if opts.TileSize <= 0 {
		opts.TileSize = def.TileSize
	}
	if opts.VerticalScale == 0 {
		opts.VerticalScale = def.VerticalScale
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.ElevationBaseURL == "" {
		opts.ElevationBaseURL = def.ElevationBaseURL
	}
	if opts.SatelliteBaseURL == "" {
		opts.SatelliteBaseURL = def.SatelliteBaseURL
	}

	return &Grid{
		source:   source,
		renderer: renderer,
		opts:     opts,
		log:      logger.Named("tilegrid"),
		tiles:    orderedmap.New[tilemath.TileIndex, *Tile](),
	}
}

// Init clears any previous session and loads a dimension x dimension
// block of tiles around the tile containing (lat, lon). It waits for every
// tile to settle, then stitches the seams between loaded neighbors.
// Tiles that fail are reported in the batch and left out of the grid.
func (g *Grid) Init(ctx context.Context, lat, lon float64, zoom, dimension int) (*Batch, error) {
	if zoom < 0 {
		return nil, fmt.Errorf("invalid zoom %d", zoom)
	}
	if dimension < 1 {
		return nil, fmt.Errorf("invalid grid dimension %d", dimension)
	}

	center := tilemath.GeoToTileIndex(lat, lon, zoom)

	g.mu.Lock()
	g.clearLocked()
	g.anchor = tilemath.AnchorFor(center)
	g.zoom = zoom
	g.dimension = dimension
	g.active = true
	g.session, g.cancel = context.WithCancel(context.Background())
	gen := g.generation

	// Odd grids are centered on the anchor, even grids extend east and south.
	offset := (dimension - 1) / 2
	batch := make([]*Tile, 0, dimension*dimension)
	for i := 0; i < dimension; i++ {
		for j := 0; j < dimension; j++ {
			idx := tilemath.TileIndex{Zoom: zoom, X: center.X + i - offset, Y: center.Y + j - offset}
			t := g.newTile(idx)
			g.tiles.Set(idx, t)
			batch = append(batch, t)
		}
	}
	g.mu.Unlock()

	g.log.Info("grid init",
		zap.Stringer("center", center),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("dimension", dimension),
	)

	return g.load(ctx, gen, batch)
}

// Go moves the grid to a new location, keeping zoom and dimension.
func (g *Grid) Go(ctx context.Context, lat, lon float64) (*Batch, error) {
	g.mu.Lock()
	active, zoom, dimension := g.active, g.zoom, g.dimension
	g.mu.Unlock()
	if !active {
		return nil, ErrNoSession
	}
	return g.Init(ctx, lat, lon, zoom, dimension)
}

// AddFromPosition loads the tile under world position (x, y) if it is not
// cached yet and re-stitches every cached tile. It reports the tile index
// and whether a new tile was loaded.
func (g *Grid) AddFromPosition(ctx context.Context, x, y float64) (tilemath.TileIndex, bool, error) {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return tilemath.TileIndex{}, false, ErrNoSession
	}
	idx := tilemath.WorldToTileIndex(g.zoom, x, y, g.anchor, g.opts.TileSize)
	if _, ok := g.tiles.Get(idx); ok {
		g.mu.Unlock()
		return idx, false, nil
	}
	t := g.newTile(idx)
	g.tiles.Set(idx, t)
	gen := g.generation
	g.mu.Unlock()

	g.log.Debug("adding tile", tileField(idx), zap.Float64("x", x), zap.Float64("y", y))

	pctx, stop := g.sessionContext(ctx, gen)
	defer stop()
	if err := g.runPipeline(pctx, gen, t); err != nil {
		return idx, true, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return idx, true, ErrCleared
	}
	order := make([]tilemath.TileIndex, 0, g.tiles.Len())
	for pair := g.tiles.Oldest(); pair != nil; pair = pair.Next() {
		order = append(order, pair.Key)
	}
	g.resolveAll(order)
	return idx, true, nil
}

// Clear cancels in-flight loads, disposes every rendered tile and empties
// the cache. Results of loads still running are discarded.
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
}

// clearLocked must be called with g.mu held.
func (g *Grid) clearLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.generation++
	g.active = false

	disposed := 0
	for pair := g.tiles.Oldest(); pair != nil; pair = pair.Next() {
		t := pair.Value
		if t.rendered {
			g.renderer.Dispose(t)
			disposed++
		}
		t.release()
	}
	g.tiles = orderedmap.New[tilemath.TileIndex, *Tile]()

	if disposed > 0 {
		g.log.Debug("grid cleared", zap.Int("disposed", disposed))
	}
}

// Anchor returns the anchor of the current session.
func (g *Grid) Anchor() tilemath.Anchor {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.anchor
}

// Len returns the number of cached tiles.
func (g *Grid) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tiles.Len()
}

// Tile returns the cached tile at idx.
func (g *Grid) Tile(idx tilemath.TileIndex) (*Tile, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tiles.Get(idx)
}

// Tiles returns a summary of every cached tile in insertion order.
func (g *Grid) Tiles() []TileInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]TileInfo, 0, g.tiles.Len())
	for pair := g.tiles.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.info())
	}
	return out
}

// HeightAt returns the terrain height in world units at world position
// (x, y). ok is false when no positioned tile covers the point.
func (g *Grid) HeightAt(x, y float64) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return 0, false
	}
	idx := tilemath.WorldToTileIndex(g.zoom, x, y, g.anchor, g.opts.TileSize)
	t, ok := g.positioned(idx)
	if !ok {
		return 0, false
	}
	z, ok := t.Geometry.HeightAt(float32(x-t.Position.X), float32(y-t.Position.Y))
	return float64(z) + t.Position.Z, ok
}

// load runs the pipelines of batch with bounded concurrency, waits for all
// of them and stitches the result.
func (g *Grid) load(ctx context.Context, gen uint64, batch []*Tile) (*Batch, error) {
	start := time.Now()
	pctx, stop := g.sessionContext(ctx, gen)
	defer stop()

	result := &Batch{}
	var mu sync.Mutex

	var eg errgroup.Group
	eg.SetLimit(g.opts.Concurrency)
	for _, t := range batch {
		eg.Go(func() error {
			err := g.runPipeline(pctx, gen, t)
			mu.Lock()
			defer mu.Unlock()
			var tileErr *TileError
			switch {
			case err == nil:
				result.Completed = append(result.Completed, t.Index)
			case errors.As(err, &tileErr):
				result.Failed = append(result.Failed, tileErr)
			}
			return nil
		})
	}
	_ = eg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	result.Elapsed = time.Since(start)
	if gen != g.generation {
		return result, ErrCleared
	}
	result.Stitched = g.resolveAll(g.seamOrder(result.Completed))

	g.log.Info("grid settled",
		zap.Int("loaded", len(result.Completed)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("stitched", result.Stitched),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// sessionContext derives a context that is cancelled with either ctx or
// the session of generation gen.
func (g *Grid) sessionContext(ctx context.Context, gen uint64) (context.Context, context.CancelFunc) {
	pctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	session := g.session
	current := gen == g.generation
	g.mu.Unlock()

	if !current || session == nil {
		cancel()
		return pctx, cancel
	}
	stop := context.AfterFunc(session, cancel)
	return pctx, func() {
		stop()
		cancel()
	}
}

func (g *Grid) newTile(idx tilemath.TileIndex) *Tile {
	material := Material{Wireframe: g.opts.Wireframe}
	if g.opts.MapboxToken != "" {
		for _, child := range idx.Children() {
			material.Overlay = append(material.Overlay,
				tilemath.SatelliteURL(g.opts.SatelliteBaseURL, g.opts.MapboxToken, child))
		}
	}
	return newTile(idx, g.opts.TileSize, material)
}

func tileField(idx tilemath.TileIndex) zap.Field {
	return zap.String("tile", idx.Key())
}

func axisField(axis string) zap.Field {
	return zap.String("axis", axis)
}

func errField(err error) zap.Field {
	return zap.Error(err)
}
