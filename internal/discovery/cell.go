package discovery

import (
	"math"

	"github.com/twpayne/go-geom"
)

// MetersPerDegree is the flat-earth conversion used for cell spacing.
const MetersPerDegree = 111000.0

// GeoCell is one circular search query: a center and a radius in meters.
type GeoCell struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius_m"`
}

// Point returns the cell center as a WGS84 point (x = lon, y = lat).
func (c GeoCell) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(4326)
}

// Area is a circular region to scan with cells of CellRadiusM.
type Area struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	RadiusM     float64 `json:"radius_m"`
	CellRadiusM float64 `json:"cell_radius_m"`
}

// degreeSteps returns the latitude and longitude increments for cell radius r
// at latitude lat.
func degreeSteps(lat, r float64) (latInc, lonInc float64) {
	latInc = r / MetersPerDegree
	lonInc = r / (MetersPerDegree * math.Cos(lat*math.Pi/180))
	return latInc, lonInc
}
