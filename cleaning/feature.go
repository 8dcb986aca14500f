// Package cleaning repairs invalid polygon geometries and removes exact and
// near-duplicate polygons from a feature collection.
package cleaning

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/twpayne/go-geom"
)

// FIDProperty is the property used to identify a feature in log messages.
const FIDProperty = "fid"

// Feature is one entry of a FeatureCollection. Only Geometry may change while
// the feature passes through the pipeline.
type Feature struct {
	// Index is the feature's position in the decoded document.
	Index      int
	ID         interface{}
	Properties map[string]interface{}
	Geometry   geom.T
}

// FID returns the feature's fid property, or its position when it has none.
func (f Feature) FID() string {
	if value, ok := f.Properties[FIDProperty]; ok && value != nil {
		return fmt.Sprint(value)
	}
	return strconv.Itoa(f.Index)
}

// FeatureCollection is an ordered set of features sharing one CRS.
type FeatureCollection struct {
	Name     string
	CRS      string
	Features []Feature
}

// Clone returns a copy that shares no slices or maps with fc. Geometries are
// shared: stages replace geometries, they never modify them in place.
func (fc *FeatureCollection) Clone() *FeatureCollection {
	if fc == nil {
		return &FeatureCollection{Features: []Feature{}}
	}
	clone := &FeatureCollection{
		Name:     fc.Name,
		CRS:      fc.CRS,
		Features: make([]Feature, len(fc.Features)),
	}
	for i, f := range fc.Features {
		f.Properties = maps.Clone(f.Properties)
		clone.Features[i] = f
	}
	return clone
}

// compact drops every feature whose index is marked, keeping the order of the
// rest.
func compact(features []Feature, marked []bool) []Feature {
	kept := make([]Feature, 0, len(features))
	for i, f := range features {
		if !marked[i] {
			kept = append(kept, f)
		}
	}
	return kept
}
