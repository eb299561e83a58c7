// Package main is the terrarium command line: it resolves tiles and builds
// stitched elevation grids.
package main

import (
	"fmt"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"
)

const (
	flagConfig      = `config`
	flagLat         = `lat`
	flagLon         = `lon`
	flagZoom        = `zoom`
	flagGrid        = `grid`
	flagConcurrency = `concurrency`
	flagSource      = `source`
	flagDir         = `dir`
	flagObjDir      = `obj-dir`
	flagAdd         = `add`
	flagToken       = `mapbox-token`
	flagSeamOrder   = `seam-order`
	flagDebug       = `debug`
)

func envVars(name string) []string {
	return []string{"TERRARIUM_" + strcase.ToScreamingSnake(name)}
}

func main() {
	app := cli.NewApp()
	app.Name = "terrarium"
	app.Usage = "Build stitched terrain height fields from terrarium elevation tiles"
	app.Version = versioninfo.Short()
	app.DisableSliceFlagSeparator = true // --add takes "x,y"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file",
			EnvVars: envVars(flagConfig),
		},
		&cli.BoolFlag{
			Name:    flagDebug,
			Usage:   "Enable debug logging",
			EnvVars: envVars(flagDebug),
		},
	}

	location := []cli.Flag{
		&cli.Float64Flag{
			Name:    flagLat,
			Usage:   "Latitude in degrees",
			EnvVars: envVars(flagLat),
		},
		&cli.Float64Flag{
			Name:    flagLon,
			Usage:   "Longitude in degrees",
			EnvVars: envVars(flagLon),
		},
		&cli.IntFlag{
			Name:    flagZoom,
			Aliases: []string{"z"},
			Usage:   "Zoom level",
			EnvVars: envVars(flagZoom),
		},
		&cli.StringFlag{
			Name:    flagToken,
			Usage:   "Mapbox access token for satellite overlays",
			EnvVars: envVars(flagToken),
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:   "tile",
			Usage:  "Print the tile under a location with its urls and bounds",
			Flags:  location,
			Action: tileAction,
		},
		{
			Name:  "build",
			Usage: "Load a grid of tiles around a location and stitch their seams",
			Flags: append(location,
				&cli.IntFlag{
					Name:    flagGrid,
					Aliases: []string{"g"},
					Usage:   "Tiles per grid side",
					EnvVars: envVars(flagGrid),
				},
				&cli.IntFlag{
					Name:    flagConcurrency,
					Usage:   "Maximum tiles loading at once",
					EnvVars: envVars(flagConcurrency),
				},
				&cli.StringFlag{
					Name:    flagSource,
					Usage:   "Raster source: http, dir or synthetic",
					Value:   "http",
					EnvVars: envVars(flagSource),
				},
				&cli.StringFlag{
					Name:    flagDir,
					Usage:   "Tile directory for --source dir",
					EnvVars: envVars(flagDir),
				},
				&cli.StringFlag{
					Name:    flagObjDir,
					Usage:   "Write every tile as a Wavefront OBJ file into this directory",
					EnvVars: envVars(flagObjDir),
				},
				&cli.StringSliceFlag{
					Name:  flagAdd,
					Usage: "World position x,y of an extra tile to add after the grid settled (repeatable)",
				},
				&cli.StringFlag{
					Name:    flagSeamOrder,
					Usage:   "Seam resolution order: completion or east-first",
					Value:   "completion",
					EnvVars: envVars(flagSeamOrder),
				},
			),
			Action: buildAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "terrarium: %v\n", err)
		os.Exit(1)
	}
}
