package view

import (
	"strconv"

	"github.com/evyataryagoni/iptracker/internal/models"
)

// Map settings
const (
	MapPlaceholder = "Loading Map...."
	MapZoom        = 13
	MapTileURL     = "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png"
	MapAttribution = `&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>`
	MarkerIconURL  = "https://cdn-icons-png.flaticon.com/128/447/447031.png"
	MarkerIconSize = 38
)

// MapView is the map under the results strip
//
// Ready is false until both coordinates are known; the placeholder is shown
// instead. Key changes with the coordinates so the client rebuilds (and
// recenters) the map instead of reusing the previous one.
type MapView struct {
	Ready       bool
	Lat         string
	Lng         string
	Key         string
	Zoom        int
	TileURL     string
	Attribution string
	IconURL     string
	IconSize    int
	Placeholder string
}

// NewMapView builds the map for a lookup result (nil is fine)
func NewMapView(result *models.LookupResult) MapView {
	if !result.HasCoordinates() {
		return MapView{Placeholder: MapPlaceholder}
	}

	lat := formatCoord(*result.Location.Lat)
	lng := formatCoord(*result.Location.Lng)

	return MapView{
		Ready:       true,
		Lat:         lat,
		Lng:         lng,
		Key:         lat + "-" + lng,
		Zoom:        MapZoom,
		TileURL:     MapTileURL,
		Attribution: MapAttribution,
		IconURL:     MarkerIconURL,
		IconSize:    MarkerIconSize,
		Placeholder: MapPlaceholder,
	}
}

// formatCoord prints the shortest exact representation (37.40599, not 37.405990)
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
