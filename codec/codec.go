// Package codec converts between GeoJSON FeatureCollection documents and
// cleaning.FeatureCollection values, carrying the CRS and name through.
package codec

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/bsaid97/go-polygon-cleaner/cleaning"
)

const (
	DefaultCRS          = "EPSG:4326"
	DefaultFallbackName = "GeoJSON"
)

// ErrMalformedInput is returned, wrapped, for any document that is not a
// usable GeoJSON FeatureCollection.
var ErrMalformedInput = errors.New("malformed GeoJSON input")

// Options supply the values used when the document does not carry them.
type Options struct {
	FallbackName string
	DefaultCRS   string
}

type document struct {
	Type     *string         `json:"type"`
	Name     *string         `json:"name"`
	CRS      json.RawMessage `json:"crs"`
	Features json.RawMessage `json:"features"`
}

type namedCRS struct {
	Properties struct {
		Name interface{} `json:"name"`
	} `json:"properties"`
}

type feature struct {
	Type       string                 `json:"type"`
	ID         interface{}            `json:"id,omitempty"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

type crsMember struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type outputDocument struct {
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	CRS      crsMember `json:"crs"`
	Features []feature `json:"features"`
}

// Decode parses a GeoJSON FeatureCollection. Property numbers are kept as
// json.Number so they are written back unchanged.
func Decode(data []byte, opts Options) (*cleaning.FeatureCollection, error) {
	var doc document
	if err := decodeJSON(data, &doc); err != nil {
		return nil, errors.Wrap(ErrMalformedInput, err.Error())
	}
	if doc.Type != nil && *doc.Type != "FeatureCollection" {
		return nil, errors.Wrapf(ErrMalformedInput, "unexpected type %q", *doc.Type)
	}
	if isNull(doc.Features) {
		return nil, errors.Wrap(ErrMalformedInput, "missing features")
	}

	var rawFeatures []json.RawMessage
	if err := json.Unmarshal(doc.Features, &rawFeatures); err != nil {
		return nil, errors.Wrap(ErrMalformedInput, "features is not an array")
	}

	fc := &cleaning.FeatureCollection{
		Name:     fallback(opts.FallbackName, DefaultFallbackName),
		CRS:      fallback(opts.DefaultCRS, DefaultCRS),
		Features: make([]cleaning.Feature, 0, len(rawFeatures)),
	}
	if doc.Name != nil {
		fc.Name = *doc.Name
	}
	if name, ok := crsName(doc.CRS); ok {
		fc.CRS = name
	}

	for i, raw := range rawFeatures {
		var f feature
		if err := decodeJSON(raw, &f); err != nil {
			return nil, errors.Wrapf(ErrMalformedInput, "feature %d: %v", i, err)
		}

		var g geom.T
		if !isNull(f.Geometry) {
			if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
				return nil, errors.Wrapf(ErrMalformedInput, "feature %d geometry: %v", i, err)
			}
		}

		fc.Features = append(fc.Features, cleaning.Feature{
			Index:      i,
			ID:         f.ID,
			Properties: f.Properties,
			Geometry:   g,
		})
	}

	return fc, nil
}

// Encode serializes fc as a FeatureCollection with the name and a named crs
// member always present.
func Encode(fc *cleaning.FeatureCollection) ([]byte, error) {
	out := outputDocument{
		Type:     "FeatureCollection",
		Name:     fc.Name,
		Features: make([]feature, 0, len(fc.Features)),
	}
	out.CRS.Type = "name"
	out.CRS.Properties.Name = fc.CRS

	for _, f := range fc.Features {
		geometry := json.RawMessage("null")
		if f.Geometry != nil {
			data, err := geojson.Marshal(f.Geometry)
			if err != nil {
				return nil, errors.Wrapf(err, "encoding geometry of feature %s", f.FID())
			}
			geometry = data
		}
		out.Features = append(out.Features, feature{
			Type:       "Feature",
			ID:         f.ID,
			Properties: f.Properties,
			Geometry:   geometry,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "encoding feature collection")
	}
	return data, nil
}

func decodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

func crsName(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var crs namedCRS
	if err := json.Unmarshal(raw, &crs); err != nil {
		return "", false
	}
	name, ok := crs.Properties.Name.(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
