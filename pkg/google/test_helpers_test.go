package google

import "github.com/twpayne/go-geom"

// viewportOf builds XY bounds from south-west and north-east corners.
func viewportOf(swLat, swLng, neLat, neLng float64) *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(swLng, swLat, neLng, neLat)
}
