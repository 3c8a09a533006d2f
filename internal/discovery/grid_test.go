package discovery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellCount(t *testing.T) {
	tests := []struct {
		radius, cell float64
		want         int
	}{
		{0, 50, 1},
		{50, 50, 9},
		{51, 50, 25},
		{1000, 300, 81},
		{3000, 500, 169},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CellCount(tt.radius, tt.cell), "R=%v r=%v", tt.radius, tt.cell)
	}
}

func TestPlanCells(t *testing.T) {
	area := Area{Lat: 25.0330, Lon: 121.5654, RadiusM: 1000, CellRadiusM: 300}
	cells, err := PlanCells(area)
	require.NoError(t, err)
	require.Len(t, cells, CellCount(area.RadiusM, area.CellRadiusM))

	mid := cells[len(cells)/2]
	assert.InDelta(t, area.Lat, mid.Lat, 1e-12)
	assert.InDelta(t, area.Lon, mid.Lon, 1e-12)
	assert.Equal(t, 300.0, mid.RadiusM)

	latInc := 300 / MetersPerDegree
	lonInc := 300 / (MetersPerDegree * math.Cos(area.Lat*math.Pi/180))
	assert.InDelta(t, area.Lat-4*latInc, cells[0].Lat, 1e-12)
	assert.InDelta(t, area.Lon-4*lonInc, cells[0].Lon, 1e-12)
	assert.InDelta(t, area.Lon-3*lonInc, cells[1].Lon, 1e-12)
	assert.InDelta(t, area.Lat+4*latInc, cells[len(cells)-1].Lat, 1e-12)
}

func TestPlanCells_ZeroRadiusIsSingleCell(t *testing.T) {
	cells, err := PlanCells(Area{Lat: 25.0330, Lon: 121.5654, RadiusM: 0, CellRadiusM: 50})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, GeoCell{Lat: 25.0330, Lon: 121.5654, RadiusM: 50}, cells[0])
}

func TestPlanCells_Invalid(t *testing.T) {
	_, err := PlanCells(Area{Lat: 25, Lon: 121, RadiusM: 100, CellRadiusM: 0})
	assert.Error(t, err)

	_, err = PlanCells(Area{Lat: 25, Lon: 121, RadiusM: -1, CellRadiusM: 50})
	assert.Error(t, err)

	_, err = PlanCells(Area{Lat: 90, Lon: 121, RadiusM: 100, CellRadiusM: 50})
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	area := Area{Lat: 25.0330, Lon: 121.5654, RadiusM: 100, CellRadiusM: 50}
	cells, err := PlanCells(area)
	require.NoError(t, err)

	b := Bounds(cells)
	assert.InDelta(t, cells[0].Lon, b.Min(0), 1e-12)
	assert.InDelta(t, cells[0].Lat, b.Min(1), 1e-12)
	assert.InDelta(t, cells[len(cells)-1].Lon, b.Max(0), 1e-12)
	assert.InDelta(t, cells[len(cells)-1].Lat, b.Max(1), 1e-12)
}

func TestCellBBox(t *testing.T) {
	assert.Nil(t, CellBBox(nil))

	single := CellBBox([]GeoCell{{Lat: 25.0330, Lon: 121.5654}})
	assert.Equal(t, &BBox{MinLat: 25.0330, MinLon: 121.5654, MaxLat: 25.0330, MaxLon: 121.5654}, single)

	area := Area{Lat: 25.0330, Lon: 121.5654, RadiusM: 1000, CellRadiusM: 300}
	bbox, err := area.BBox()
	require.NoError(t, err)
	assert.Less(t, bbox.MinLat, area.Lat)
	assert.Greater(t, bbox.MaxLon, area.Lon)
	assert.InDelta(t, area.Lat, (bbox.MinLat+bbox.MaxLat)/2, 1e-9)

	_, err = Area{Lat: 25, Lon: 121, CellRadiusM: 0}.BBox()
	assert.Error(t, err)
}

func TestGeoCell_Point(t *testing.T) {
	p := GeoCell{Lat: 25.0330, Lon: 121.5654}.Point()
	assert.Equal(t, 121.5654, p.X())
	assert.Equal(t, 25.0330, p.Y())
	assert.Equal(t, 4326, p.SRID())
}
