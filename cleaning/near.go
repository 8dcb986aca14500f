package cleaning

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/bsaid97/go-polygon-cleaner/utils"
)

// DefaultTolerance is the near-duplicate tolerance in coordinate units
// (degrees for unprojected data).
const DefaultTolerance = 0.007

// ValidateTolerance rejects tolerances that are negative or not finite.
func ValidateTolerance(tolerance float64) error {
	if math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return fmt.Errorf("tolerance must be a finite number, got %g", tolerance)
	}
	if tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative, got %g", tolerance)
	}
	return nil
}

// NearDeduplicator removes polygons whose vertices all lie within Tolerance of
// an earlier polygon's vertices, coordinate by coordinate. Only single
// polygons take part; multi-polygons and other types are always kept.
type NearDeduplicator struct {
	Tolerance  float64
	CellSize   float64
	BruteForce bool
}

// Dedupe compares every pair i < j. A feature may match as i after it was
// itself marked; every marked feature is dropped at the end.
func (d NearDeduplicator) Dedupe(features []Feature) ([]Feature, []LogEntry) {
	logs := make([]LogEntry, 0)
	marked := make([]bool, len(features))
	tolerance := d.Tolerance
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = 0
	}

	// An infinite tolerance covers every cell.
	var index *utils.SpatialIndex
	if !d.BruteForce && !math.IsInf(tolerance, 1) {
		index = utils.NewSpatialIndex(math.Max(d.CellSize, tolerance))
		for i, f := range features {
			if _, ok := f.Geometry.(*geom.Polygon); ok {
				index.Add(i, f.Geometry)
			}
		}
	}

	for i := range features {
		pi, ok := features[i].Geometry.(*geom.Polygon)
		if !ok {
			continue
		}

		var candidates []int
		if index != nil {
			candidates = index.Candidates(pi, tolerance)
		} else {
			candidates = make([]int, 0, len(features)-i-1)
			for j := i + 1; j < len(features); j++ {
				candidates = append(candidates, j)
			}
		}

		for _, j := range candidates {
			if j <= i {
				continue
			}
			pj, ok := features[j].Geometry.(*geom.Polygon)
			if !ok {
				continue
			}
			if equalWithin(pi, pj, tolerance) {
				marked[j] = true
				logs = append(logs, newEntry(SeverityInfo, StageDedupNear,
					"Removing polygon fid `%s` - nearly identical to polygon fid `%s` with tolerance %g",
					features[j].FID(), features[i].FID(), tolerance))
			}
		}
	}

	return compact(features, marked), logs
}
