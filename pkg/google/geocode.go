package google

import (
	"context"
	"math"
	"net/url"

	"github.com/twpayne/go-geom"
)

const (
	defaultRadiusFactor = 0.6
	maxSearchRadius     = 50000.0 // Nearby Search rejects larger radii
	earthRadiusMeters   = 6371009.0
)

// Coordinates is the search circle for one postal code.
type Coordinates struct {
	Lat    float64
	Lng    float64
	Radius float64 // meters

	// Viewport is the geocoder's recommended viewport in XY (lng, lat) order.
	Viewport *geom.Bounds
}

type xmlLatLng struct {
	Lat float64 `xml:"lat"`
	Lng float64 `xml:"lng"`
}

type geocodeResponse struct {
	statusEnvelope
	Results []struct {
		Geometry *struct {
			Location xmlLatLng `xml:"location"`
			Viewport struct {
				Southwest xmlLatLng `xml:"southwest"`
				Northeast xmlLatLng `xml:"northeast"`
			} `xml:"viewport"`
		} `xml:"geometry"`
	} `xml:"result"`
}

func (c *httpClient) Geocode(ctx context.Context, postalCode, country string) (*Coordinates, error) {
	params := url.Values{
		"components": {"postal_code:" + postalCode + "|country:" + country},
	}
	var resp geocodeResponse
	if _, err := c.get(ctx, EndpointGeocode, "/geocode/xml", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 || resp.Results[0].Geometry == nil {
		return nil, nil
	}

	g := resp.Results[0].Geometry
	viewport := geom.NewBounds(geom.XY).Set(
		g.Viewport.Southwest.Lng, g.Viewport.Southwest.Lat,
		g.Viewport.Northeast.Lng, g.Viewport.Northeast.Lat,
	)
	return &Coordinates{
		Lat:      g.Location.Lat,
		Lng:      g.Location.Lng,
		Radius:   SearchRadius(viewport, c.radiusFactor, c.maxRadius),
		Viewport: viewport,
	}, nil
}

// SearchRadius returns factor times the great-circle length of the viewport
// diagonal, clamped to [1, maxMeters].
func SearchRadius(viewport *geom.Bounds, factor, maxMeters float64) float64 {
	d := GreatCircle(viewport.Min(1), viewport.Min(0), viewport.Max(1), viewport.Max(0))
	r := d * factor
	return math.Max(1, math.Min(r, maxMeters))
}

// GreatCircle returns the haversine distance in meters between two points.
func GreatCircle(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
