package codec

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/bsaid97/go-polygon-cleaner/cleaning"
)

const parcels = `{
  "type": "FeatureCollection",
  "name": "parcels_2024",
  "crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:OGC:1.3:CRS84"}},
  "features": [
    {"type": "Feature", "id": 17, "properties": {"fid": 1, "producttype": "field", "area": 12.5},
     "geometry": {"type": "Polygon", "coordinates": [[[5.1, 52.1], [5.2, 52.1], [5.2, 52.2], [5.1, 52.1]]]}},
    {"type": "Feature", "properties": {"fid": 2},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[0, 0], [1, 0], [1, 1], [0, 0]]]]}},
    {"type": "Feature", "properties": null, "geometry": null}
  ]
}`

func TestDecode(t *testing.T) {
	fc, err := Decode([]byte(parcels), Options{FallbackName: "upload"})
	require.NoError(t, err)

	assert.Equal(t, "parcels_2024", fc.Name)
	assert.Equal(t, "urn:ogc:def:crs:OGC:1.3:CRS84", fc.CRS)
	require.Len(t, fc.Features, 3)

	first := fc.Features[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, json.Number("17"), first.ID)
	assert.Equal(t, "1", first.FID())
	assert.Equal(t, json.Number("12.5"), first.Properties["area"])
	assert.IsType(t, &geom.Polygon{}, first.Geometry)

	assert.IsType(t, &geom.MultiPolygon{}, fc.Features[1].Geometry)

	assert.Nil(t, fc.Features[2].Geometry)
	assert.Nil(t, fc.Features[2].Properties)
	assert.Equal(t, "2", fc.Features[2].FID())
}

func TestDecodeFallbacks(t *testing.T) {
	fc, err := Decode([]byte(`{"type": "FeatureCollection", "features": []}`), Options{FallbackName: "upload.geojson"})
	require.NoError(t, err)
	assert.Equal(t, "upload.geojson", fc.Name)
	assert.Equal(t, DefaultCRS, fc.CRS)
	assert.Empty(t, fc.Features)

	fc, err = Decode([]byte(`{"features": []}`), Options{DefaultCRS: "EPSG:28992"})
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackName, fc.Name)
	assert.Equal(t, "EPSG:28992", fc.CRS)
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":           `{"type": "FeatureCollection", "features": [`,
		"not an object":      `[1, 2, 3]`,
		"missing features":   `{"type": "FeatureCollection"}`,
		"features null":      `{"type": "FeatureCollection", "features": null}`,
		"features object":    `{"type": "FeatureCollection", "features": {}}`,
		"wrong type":         `{"type": "Feature", "features": []}`,
		"bad geometry":       `{"features": [{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": "x"}}]}`,
		"trailing data":      `{"features": []} {}`,
		"feature not object": `{"features": [42]}`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			fc, err := Decode([]byte(input), Options{})
			assert.Nil(t, fc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput), "error %v does not wrap ErrMalformedInput", err)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	fc, err := Decode([]byte(parcels), Options{})
	require.NoError(t, err)

	data, err := Encode(fc)
	require.NoError(t, err)

	text := string(data)
	typeAt := strings.Index(text, `"type":"FeatureCollection"`)
	nameAt := strings.Index(text, `"name":"parcels_2024"`)
	crsAt := strings.Index(text, `"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:OGC:1.3:CRS84"}}`)
	featuresAt := strings.Index(text, `"features":[`)
	require.True(t, typeAt >= 0 && nameAt >= 0 && crsAt >= 0 && featuresAt >= 0, text)
	assert.True(t, typeAt < nameAt && nameAt < crsAt && crsAt < featuresAt, text)

	var doc struct {
		Features []struct {
			ID         json.RawMessage            `json:"id"`
			Properties map[string]json.RawMessage `json:"properties"`
			Geometry   json.RawMessage            `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Features, 3)
	assert.Equal(t, "17", string(doc.Features[0].ID))
	assert.Equal(t, "12.5", string(doc.Features[0].Properties["area"]))
	assert.Equal(t, `"field"`, string(doc.Features[0].Properties["producttype"]))
	assert.Nil(t, doc.Features[1].ID)
	assert.Equal(t, "null", string(doc.Features[2].Geometry))

	again, err := Decode(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, fc, again)
}

func TestEncodeAlwaysAttachesCRS(t *testing.T) {
	fc, err := Decode([]byte(`{"type": "FeatureCollection", "features": []}`), Options{FallbackName: "upload"})
	require.NoError(t, err)

	data, err := Encode(fc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "FeatureCollection",
		"name": "upload",
		"crs": {"type": "name", "properties": {"name": "EPSG:4326"}},
		"features": []
	}`, string(data))
}

func TestEncodeCleanedCollection(t *testing.T) {
	fc, err := Decode([]byte(parcels), Options{})
	require.NoError(t, err)

	cleaned, _ := cleaning.New(cleaning.DefaultOptions()).Run(fc)
	data, err := Encode(cleaned)
	require.NoError(t, err)

	out, err := Decode(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, fc.Name, out.Name)
	assert.Equal(t, fc.CRS, out.CRS)
	assert.Len(t, out.Features, len(cleaned.Features))
}
