package cleaning

import "github.com/bsaid97/go-polygon-cleaner/utils"

// ExactDeduplicator removes features whose geometry is vertex-for-vertex equal
// to an earlier kept feature. The earliest occurrence always wins.
type ExactDeduplicator struct {
	// CellSize is the grid cell size of the candidate pre-filter.
	CellSize float64
	// BruteForce compares against every kept feature instead of using the grid.
	BruteForce bool
}

func (d ExactDeduplicator) Dedupe(features []Feature) ([]Feature, []LogEntry) {
	logs := make([]LogEntry, 0)
	duplicates := make([]bool, len(features))
	seen := make([]int, 0, len(features))
	index := utils.NewSpatialIndex(d.CellSize)

	for i := range features {
		g := features[i].Geometry
		if g == nil {
			continue
		}

		candidates := seen
		if !d.BruteForce {
			candidates = index.Candidates(g, 0)
		}

		for _, j := range candidates {
			if equalWithin(g, features[j].Geometry, 0) {
				duplicates[i] = true
				logs = append(logs, newEntry(SeverityInfo, StageDedupExact,
					"Removing polygon fid `%s` - duplicate of polygon fid `%s`",
					features[i].FID(), features[j].FID()))
				break
			}
		}

		if !duplicates[i] {
			seen = append(seen, i)
			index.Add(i, g)
		}
	}

	return compact(features, duplicates), logs
}
