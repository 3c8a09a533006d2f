package discovery

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Steps returns how many cell increments the grid extends from the center
// in each direction.
func Steps(radiusM, cellRadiusM float64) int {
	return int(math.Ceil(radiusM / cellRadiusM))
}

// CellCount is the number of cells PlanCells produces: (2*steps+1)^2.
func CellCount(radiusM, cellRadiusM float64) int {
	side := 2*Steps(radiusM, cellRadiusM) + 1
	return side * side
}

// PlanCells lays a square grid of cells over the area. Cells are emitted
// row by row from the south-west corner; the middle cell sits on the center.
func PlanCells(a Area) ([]GeoCell, error) {
	if a.CellRadiusM <= 0 {
		return nil, eris.Errorf("discovery: cell radius must be positive, got %v", a.CellRadiusM)
	}
	if a.RadiusM < 0 {
		return nil, eris.Errorf("discovery: area radius must not be negative, got %v", a.RadiusM)
	}
	if a.Lat <= -90 || a.Lat >= 90 {
		return nil, eris.Errorf("discovery: latitude %v out of range", a.Lat)
	}

	latInc, lonInc := degreeSteps(a.Lat, a.CellRadiusM)
	steps := Steps(a.RadiusM, a.CellRadiusM)

	cells := make([]GeoCell, 0, CellCount(a.RadiusM, a.CellRadiusM))
	for i := -steps; i <= steps; i++ {
		for j := -steps; j <= steps; j++ {
			cells = append(cells, GeoCell{
				Lat:     a.Lat + float64(i)*latInc,
				Lon:     a.Lon + float64(j)*lonInc,
				RadiusM: a.CellRadiusM,
			})
		}
	}
	return cells, nil
}

// Bounds returns the bounding box of the cell centers.
func Bounds(cells []GeoCell) *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, c := range cells {
		b.Extend(c.Point())
	}
	return b
}

// BBox is the lat/lon extent of a lattice's cell centers.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// CellBBox returns the extent of cells, or nil when there are none.
func CellBBox(cells []GeoCell) *BBox {
	if len(cells) == 0 {
		return nil
	}
	b := Bounds(cells)
	return &BBox{MinLat: b.Min(1), MinLon: b.Min(0), MaxLat: b.Max(1), MaxLon: b.Max(0)}
}

// BBox plans the lattice of a and returns its extent.
func (a Area) BBox() (*BBox, error) {
	cells, err := PlanCells(a)
	if err != nil {
		return nil, err
	}
	return CellBBox(cells), nil
}
