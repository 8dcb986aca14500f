package cleaning

import (
	"encoding/json"
	"strconv"

	"github.com/twpayne/go-geom"
)

func square(x, y, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}})
}

func bowtie() *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0},
	}})
}

func multiSquare(x, y float64) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y}}},
		{{{x + 3, y}, {x + 4, y}, {x + 4, y + 1}, {x + 3, y + 1}, {x + 3, y}}},
	})
}

func feature(index int, fid int, g geom.T) Feature {
	return Feature{
		Index:      index,
		Properties: map[string]interface{}{"fid": json.Number(strconv.Itoa(fid)), "producttype": "parcel"},
		Geometry:   g,
	}
}

func fids(features []Feature) []string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		out = append(out, f.FID())
	}
	return out
}

func messages(logs []LogEntry) []string {
	out := make([]string, 0, len(logs))
	for _, entry := range logs {
		out = append(out, entry.Message)
	}
	return out
}
