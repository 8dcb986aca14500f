package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twpayne/go-geom"
)

func TestEqualWithin(t *testing.T) {
	rotated := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{1, 0}, {1, 1}, {0, 1}, {0, 0}, {1, 0},
	}})
	withHole := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
		{{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}, {0.2, 0.2}},
	})

	tests := []struct {
		name      string
		a, b      geom.T
		tolerance float64
		want      bool
	}{
		{name: "identical", a: square(0, 0, 1), b: square(0, 0, 1), want: true},
		{name: "same area different start vertex", a: square(0, 0, 1), b: rotated, want: false},
		{name: "extra ring", a: square(0, 0, 1), b: withHole, want: false},
		{name: "polygon vs multipolygon", a: square(0, 0, 1), b: multiSquare(0, 0), want: false},
		{name: "multipolygons", a: multiSquare(0, 0), b: multiSquare(0, 0), want: true},
		{name: "shift within tolerance", a: square(0, 0, 1), b: square(0.001, 0.001, 1), tolerance: 0.007, want: true},
		{name: "shift beyond tolerance", a: square(0, 0, 1), b: square(0.01, 0, 1), tolerance: 0.007, want: false},
		{name: "shift on one axis only", a: square(0, 0, 1), b: square(0, 0.006, 1), tolerance: 0.007, want: true},
		{name: "nil", a: nil, b: square(0, 0, 1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, equalWithin(tt.a, tt.b, tt.tolerance))
		})
	}
}

func TestEqualWithinCollections(t *testing.T) {
	a := geom.NewGeometryCollection().MustPush(square(0, 0, 1), geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {1, 1}}))
	b := geom.NewGeometryCollection().MustPush(square(0, 0, 1), geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {1, 1}}))
	c := geom.NewGeometryCollection().MustPush(square(0, 0, 1))

	assert.True(t, equalWithin(a, b, 0))
	assert.False(t, equalWithin(a, c, 0))
}
