package cleaning

import (
	"math"
	"reflect"

	"github.com/twpayne/go-geom"
)

// equalWithin reports whether a and b have the same type, layout and ring
// structure, and every coordinate of a differs from the matching coordinate of
// b by at most tolerance. A zero tolerance is vertex-for-vertex equality.
func equalWithin(a, b geom.T, tolerance float64) bool {
	if a == nil || b == nil {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	if ca, ok := a.(*geom.GeometryCollection); ok {
		cb := b.(*geom.GeometryCollection)
		ga, gb := ca.Geoms(), cb.Geoms()
		if len(ga) != len(gb) {
			return false
		}
		for i := range ga {
			if !equalWithin(ga[i], gb[i], tolerance) {
				return false
			}
		}
		return true
	}

	if a.Layout() != b.Layout() {
		return false
	}
	if !equalInts(a.Ends(), b.Ends()) {
		return false
	}
	endssA, endssB := a.Endss(), b.Endss()
	if len(endssA) != len(endssB) {
		return false
	}
	for i := range endssA {
		if !equalInts(endssA[i], endssB[i]) {
			return false
		}
	}

	flatA, flatB := a.FlatCoords(), b.FlatCoords()
	if len(flatA) != len(flatB) {
		return false
	}
	for i := range flatA {
		if flatA[i] == flatB[i] {
			continue
		}
		if !(math.Abs(flatA[i]-flatB[i]) <= tolerance) {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
