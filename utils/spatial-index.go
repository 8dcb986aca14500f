package utils

import (
	"math"
	"sort"

	"github.com/golang/geo/s1"
	"github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean Earth radius used for metre <-> degree conversion.
const EarthRadiusMeters = 6371010.0

// SpatialIndex is a uniform grid keyed on the minimum corner of each
// geometry's bounding box. Geometries whose vertices all lie within d of each
// other on every axis have minimum corners within d of each other, so a query
// only needs to visit the cells around the anchor.
type SpatialIndex struct {
	cellSize  float64
	grid      map[cellKey][]int
	unbounded []int
}

type cellKey struct {
	X int
	Y int
}

func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = 1
	}
	return &SpatialIndex{
		cellSize: cellSize,
		grid:     make(map[cellKey][]int),
	}
}

// Add indexes the geometry with the given index. Geometries without usable
// bounds (nil, empty, non-finite) are returned by every query.
func (si *SpatialIndex) Add(index int, g geom.T) {
	x, y, ok := anchor(g)
	if !ok {
		si.unbounded = append(si.unbounded, index)
		return
	}
	key := cellKey{X: si.cell(x), Y: si.cell(y)}
	si.grid[key] = append(si.grid[key], index)
}

// Candidates returns, in ascending order, every indexed geometry whose anchor
// may lie within distance of g's anchor on both axes. The result is a superset;
// callers apply their own equality test.
func (si *SpatialIndex) Candidates(g geom.T, distance float64) []int {
	seen := make(map[int]struct{})
	candidates := make([]int, 0)
	add := func(indices []int) {
		for _, index := range indices {
			if _, ok := seen[index]; ok {
				continue
			}
			seen[index] = struct{}{}
			candidates = append(candidates, index)
		}
	}

	add(si.unbounded)

	x, y, ok := anchor(g)
	if !ok {
		// Nothing to anchor on: fall back to everything.
		for _, cell := range si.grid {
			add(cell)
		}
		sort.Ints(candidates)
		return candidates
	}

	if distance < 0 {
		distance = 0
	}
	minCellX := si.cell(x - distance)
	minCellY := si.cell(y - distance)
	maxCellX := si.cell(x + distance)
	maxCellY := si.cell(y + distance)

	for cx := minCellX; cx <= maxCellX; cx++ {
		for cy := minCellY; cy <= maxCellY; cy++ {
			if cell, exists := si.grid[cellKey{X: cx, Y: cy}]; exists {
				add(cell)
			}
		}
	}

	sort.Ints(candidates)
	return candidates
}

func (si *SpatialIndex) cell(v float64) int {
	return int(math.Floor(v / si.cellSize))
}

func anchor(g geom.T) (float64, float64, bool) {
	if g == nil || g.Stride() < 2 {
		return 0, 0, false
	}
	bounds := g.Bounds()
	if bounds == nil {
		return 0, 0, false
	}
	x, y := bounds.Min(0), bounds.Min(1)
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false
	}
	return x, y, true
}

// CalculateWGS84ToleranceFromMeters converts a distance on the Earth's surface
// to the equivalent great-circle angle in degrees.
func CalculateWGS84ToleranceFromMeters(meters float64) float64 {
	return s1.Angle(meters / EarthRadiusMeters).Degrees()
}
