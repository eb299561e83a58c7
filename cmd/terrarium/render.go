package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Faultbox/terrarium/internal/config"
	"github.com/Faultbox/terrarium/internal/scene"
	"github.com/Faultbox/terrarium/internal/tilegrid"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

var (
	accentFg  = lipgloss.Color("#7C3AED")
	okFg      = lipgloss.Color("#10B981")
	failFg    = lipgloss.Color("#EF4444")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	borderCol = lipgloss.Color("#243141")

	titleStyle  = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(baseDimFg)
	labelStyle  = lipgloss.NewStyle().Foreground(baseDimFg).Width(12)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = cellStyle.Foreground(accentFg).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
)

func renderTileInfo(cfg *config.Config, idx tilemath.TileIndex) string {
	b := idx.Bound()
	lines := []string{
		titleStyle.Render("tile " + idx.Key()),
		labelStyle.Render("index") + fmt.Sprintf("z=%d x=%d y=%d", idx.Zoom, idx.X, idx.Y),
		labelStyle.Render("bounds") + fmt.Sprintf("lon %.5f..%.5f  lat %.5f..%.5f", b.Min.Lon(), b.Max.Lon(), b.Min.Lat(), b.Max.Lat()),
		labelStyle.Render("elevation") + tilemath.ElevationURL(cfg.Sources.ElevationBaseURL, idx),
		labelStyle.Render("basemap") + tilemath.OSMURL(cfg.Sources.OSMBaseURL, idx),
	}
	if cfg.Sources.MapboxToken != "" {
		for _, child := range idx.Children() {
			lines = append(lines, labelStyle.Render("satellite")+tilemath.SatelliteURL(cfg.Sources.SatelliteBaseURL, cfg.Sources.MapboxToken, child))
		}
	} else {
		lines = append(lines, labelStyle.Render("satellite")+dimStyle.Render("no mapbox token"))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderTiles(tiles []tilegrid.TileInfo) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderCol)).
		Headers("tile", "state", "seam x", "seam y", "world x", "world y", "vertices", "min m", "max m").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 && tiles[row].State == tilegrid.StateFailed:
				return cellStyle.Foreground(failFg)
			case col == 1 && tiles[row].State == tilegrid.StatePositioned:
				return cellStyle.Foreground(okFg)
			}
			return cellStyle
		})

	for _, info := range tiles {
		t.Row(
			info.Index.Key(),
			info.State.String(),
			mark(info.SeamX),
			mark(info.SeamY),
			strconv.FormatFloat(info.Position.X, 'f', 1, 64),
			strconv.FormatFloat(info.Position.Y, 'f', 1, 64),
			strconv.Itoa(info.Vertices),
			strconv.FormatFloat(info.Elevation.Min, 'f', 1, 64),
			strconv.FormatFloat(info.Elevation.Max, 'f', 1, 64),
		)
	}
	return t.Render()
}

func renderSummary(b *tilegrid.Batch, totals scene.Counts, exporter *scene.OBJExporter) string {
	parts := []string{
		fmt.Sprintf("loaded %d", len(b.Completed)),
		fmt.Sprintf("failed %d", len(b.Failed)),
		fmt.Sprintf("stitched %d", b.Stitched),
		fmt.Sprintf("updates %d", totals.Updated),
		fmt.Sprintf("in %s", b.Elapsed.Round(1e6)),
	}
	if exporter != nil {
		parts = append(parts, fmt.Sprintf("obj files %d in %s", exporter.Written(), exporter.Dir))
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "-"
}
