package utils

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// TruncateFullGeometry rounds every coordinate of g to precision decimals in
// place. Collections are walked member by member.
func TruncateFullGeometry(g geom.T, precision int) error {
	if g == nil {
		return fmt.Errorf(`geometry is nil`)
	}

	if collection, ok := g.(*geom.GeometryCollection); ok {
		for _, member := range collection.Geoms() {
			if err := TruncateFullGeometry(member, precision); err != nil {
				return err
			}
		}
		return nil
	}

	flatCoords := g.FlatCoords()
	for i := range flatCoords {
		flatCoords[i] = roundFloat(flatCoords[i], uint(precision))
	}
	return nil
}

// CloseRings returns a copy of a polygonal geometry in which every ring ends on
// its first vertex. Geometries of other types are returned unchanged, and
// changed reports whether any ring had to be closed.
func CloseRings(g geom.T) (geom.T, bool, error) {
	switch g := g.(type) {
	case *geom.Polygon:
		rings, changed := closePolygonRings(g.Coords())
		if !changed {
			return g, false, nil
		}
		closed, err := geom.NewPolygon(g.Layout()).SetCoords(rings)
		if err != nil {
			return nil, false, err
		}
		return closed.SetSRID(g.SRID()), true, nil
	case *geom.MultiPolygon:
		polygons := g.Coords()
		anyChanged := false
		for i, rings := range polygons {
			var changed bool
			polygons[i], changed = closePolygonRings(rings)
			anyChanged = anyChanged || changed
		}
		if !anyChanged {
			return g, false, nil
		}
		closed, err := geom.NewMultiPolygon(g.Layout()).SetCoords(polygons)
		if err != nil {
			return nil, false, err
		}
		return closed.SetSRID(g.SRID()), true, nil
	default:
		return g, false, nil
	}
}

func closePolygonRings(rings [][]geom.Coord) ([][]geom.Coord, bool) {
	changed := false
	for i, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		first, last := ring[0], ring[len(ring)-1]
		if !sameXY(first, last) {
			rings[i] = append(ring, append(geom.Coord(nil), first...))
			changed = true
		}
	}
	return rings, changed
}

func sameXY(a, b geom.Coord) bool {
	if len(a) < 2 || len(b) < 2 {
		return len(a) == len(b)
	}
	return a[0] == b[0] && a[1] == b[1]
}

func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
