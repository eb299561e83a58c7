package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/terrarium/internal/config"
	"github.com/Faultbox/terrarium/internal/fetch"
	"github.com/Faultbox/terrarium/internal/logger"
	"github.com/Faultbox/terrarium/internal/scene"
	"github.com/Faultbox/terrarium/internal/tilegrid"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

// loadConfig merges the config file with the flags that were set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var o config.Overrides
	if c.IsSet(flagLat) {
		v := c.Float64(flagLat)
		o.Latitude = &v
	}
	if c.IsSet(flagLon) {
		v := c.Float64(flagLon)
		o.Longitude = &v
	}
	if c.IsSet(flagZoom) {
		v := c.Int(flagZoom)
		o.Zoom = &v
	}
	if c.IsSet(flagGrid) {
		v := c.Int(flagGrid)
		o.Dimension = &v
	}
	if c.IsSet(flagConcurrency) {
		v := c.Int(flagConcurrency)
		o.Concurrency = &v
	}
	if c.IsSet(flagToken) {
		v := c.String(flagToken)
		o.MapboxToken = &v
	}
	o.Debug = c.Bool(flagDebug)

	cfg, err := config.Load(c.String(flagConfig), o)
	if err != nil {
		return nil, err
	}

	err = logger.InitWithOptions(logger.Options{
		Level:   cfg.Logging.Level,
		JSON:    cfg.Logging.JSON,
		Console: true,
		File:    fileConfig(cfg.Logging.LogFile),
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg.Grid)
	return cfg, nil
}

func fileConfig(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

func tileAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	idx := tilemath.GeoToTileIndex(cfg.Grid.Latitude, cfg.Grid.Longitude, cfg.Grid.Zoom)
	fmt.Println(renderTileInfo(cfg, idx))
	return nil
}

func buildAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	source, err := newSource(cfg, c.String(flagSource), c.String(flagDir))
	if err != nil {
		return err
	}
	order, err := parseSeamOrder(c.String(flagSeamOrder))
	if err != nil {
		return err
	}

	recorder := scene.NewRecorder()
	renderers := scene.Multi{recorder}
	var exporter *scene.OBJExporter
	if dir := c.String(flagObjDir); dir != "" {
		exporter, err = scene.NewOBJExporter(dir)
		if err != nil {
			return err
		}
		renderers = append(renderers, exporter)
	}

	grid := tilegrid.New(source, renderers, tilegrid.Options{
		TileSize:         cfg.Mesh.TileSize,
		VerticalScale:    float32(cfg.Mesh.VerticalScale),
		Concurrency:      cfg.Grid.Concurrency,
		ElevationBaseURL: cfg.Sources.ElevationBaseURL,
		SatelliteBaseURL: cfg.Sources.SatelliteBaseURL,
		MapboxToken:      cfg.Sources.MapboxToken,
		Wireframe:        cfg.Mesh.Wireframe,
		SeamOrder:        order,
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	batch, err := grid.Init(ctx, cfg.Grid.Latitude, cfg.Grid.Longitude, cfg.Grid.Zoom, cfg.Grid.Dimension)
	if err != nil {
		return err
	}
	for _, f := range batch.Failed {
		logger.Warn("tile not loaded", zap.String("tile", f.Index.Key()), zap.Error(f.Err))
	}

	for _, pos := range c.StringSlice(flagAdd) {
		x, y, err := parsePosition(pos)
		if err != nil {
			return err
		}
		idx, added, err := grid.AddFromPosition(ctx, x, y)
		if err != nil {
			logger.Warn("add failed", zap.String("position", pos), zap.Error(err))
			continue
		}
		z, _ := grid.HeightAt(x, y)
		logger.Info("add", zap.String("tile", idx.Key()), zap.Bool("loaded", added), zap.Float64("height", z))
	}

	fmt.Println(renderTiles(grid.Tiles()))
	fmt.Println(renderSummary(batch, recorder.Totals(), exporter))

	if len(batch.Completed) == 0 && len(batch.Failed) > 0 {
		return fmt.Errorf("no tile loaded: %w", batch.Err())
	}
	return nil
}

func newSource(cfg *config.Config, kind, dir string) (tilegrid.RasterSource, error) {
	switch kind {
	case "http", "":
		return fetch.NewHTTPSource(fetch.HTTPOptions{
			Timeout:      cfg.Sources.Timeout,
			UserAgent:    cfg.Sources.UserAgent,
			CacheEntries: cfg.Sources.CacheEntries,
		}), nil
	case "dir":
		if dir == "" {
			return nil, fmt.Errorf("--%s is required for --%s dir", flagDir, flagSource)
		}
		return fetch.DirSource{Root: dir, Base: cfg.Sources.ElevationBaseURL}, nil
	case "synthetic":
		return fetch.SyntheticSource{}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", kind)
	}
}

func parseSeamOrder(s string) (tilegrid.SeamOrder, error) {
	switch s {
	case "completion", "":
		return tilegrid.SeamOrderReverseCompletion, nil
	case "east-first":
		return tilegrid.SeamOrderEastFirst, nil
	default:
		return 0, fmt.Errorf("unknown seam order %q", s)
	}
}

// parsePosition parses "x,y" world coordinates.
func parsePosition(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("position %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", s, err)
	}
	return x, y, nil
}
