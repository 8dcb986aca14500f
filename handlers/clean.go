package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bsaid97/go-polygon-cleaner/cleaning"
	"github.com/bsaid97/go-polygon-cleaner/codec"
	"github.com/bsaid97/go-polygon-cleaner/utils"
)

// Cleaned is the outcome of one cleaning run.
type Cleaned struct {
	Result  *cleaning.Result
	GeoJSON []byte
}

// CleanGeoJSON decodes payload, runs the pipeline on it and encodes the
// cleaned collection. Decode and encode failures abort the run.
func CleanGeoJSON(payload []byte, pipeline *cleaning.Pipeline, opts codec.Options) (*Cleaned, error) {
	log.Debug().Int("bytes", len(payload)).Msg("Cleaning payload")

	fc, err := codec.Decode(payload, opts)
	if err != nil {
		return nil, err
	}

	result := pipeline.Clean(fc)

	data, err := codec.Encode(result.Collection)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("name", result.Collection.Name).
		Int("input", result.Stats.Input).
		Int("output", result.Stats.Output).
		Int("repaired", result.Stats.Repaired).
		Int("exact_removed", result.Stats.ExactRemoved).
		Int("near_removed", result.Stats.NearRemoved).
		Msg("Cleaning complete")

	return &Cleaned{Result: result, GeoJSON: data}, nil
}

// ZipCleaned packs the cleaned GeoJSON, the log and a polygon shapefile built
// from the cleaned features into one archive named after baseName.
func ZipCleaned(cleaned *Cleaned, baseName string) ([]byte, error) {
	logData, err := json.MarshalIndent(cleaned.Result.Logs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cleaning log: %w", err)
	}

	features := cleaned.Result.Collection.Features
	records := make([]utils.ShapeRecord, 0, len(features))
	for _, f := range features {
		records = append(records, utils.ShapeRecord{Geometry: f.Geometry, Properties: f.Properties})
	}

	zipData, err := utils.GenerateShapefileZip(baseName, records,
		utils.ZipEntry{Name: baseName + ".geojson", Data: cleaned.GeoJSON},
		utils.ZipEntry{Name: baseName + "_log.json", Data: logData},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate shapefile zip: %w", err)
	}
	return zipData, nil
}

// CheckGeoJSON decodes payload and reports its invalid geometries.
func CheckGeoJSON(payload []byte, opts codec.Options) ([]cleaning.ValidityReport, error) {
	fc, err := codec.Decode(payload, opts)
	if err != nil {
		return nil, err
	}
	return cleaning.CheckGeometry(fc), nil
}
