package tilemath

import "fmt"

// Default raster service endpoints.
const (
	DefaultElevationBaseURL = "https://s3.amazonaws.com/elevation-tiles-prod/terrarium"
	DefaultSatelliteBaseURL = "https://api.mapbox.com/v4/mapbox.satellite"
	DefaultOSMBaseURL       = "https://c.tile.openstreetmap.org"
)

// ElevationURL returns the terrarium PNG url of a tile.
func ElevationURL(base string, t TileIndex) string {
	return fmt.Sprintf("%s/%d/%d/%d.png", base, t.Zoom, t.X, t.Y)
}

// SatelliteURL returns the retina satellite JPEG url of a tile.
func SatelliteURL(base, token string, t TileIndex) string {
	return fmt.Sprintf("%s/%d/%d/%d@2x.jpg80?access_token=%s", base, t.Zoom, t.X, t.Y, token)
}

// OSMURL returns the OpenStreetMap basemap url of a tile.
func OSMURL(base string, t TileIndex) string {
	return fmt.Sprintf("%s/%d/%d/%d.png", base, t.Zoom, t.X, t.Y)
}
