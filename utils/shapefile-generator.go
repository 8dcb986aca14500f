package utils

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
)

// ShapeRecord is one row of a shapefile: a geometry plus its attributes.
type ShapeRecord struct {
	Geometry   geom.T
	Properties map[string]interface{}
}

// ZipEntry is an extra file stored alongside the shapefile components.
type ZipEntry struct {
	Name string
	Data []byte
}

// GenerateShapefileZip creates a zip archive holding the extra entries (the
// GeoJSON document, the cleaning log) and a polygon shapefile named
// baseName.shp/.shx/.dbf built from records.
func GenerateShapefileZip(baseName string, records []ShapeRecord, entries ...ZipEntry) ([]byte, error) {
	var zipBuffer bytes.Buffer
	zipWriter := zip.NewWriter(&zipBuffer)

	for _, entry := range entries {
		w, err := zipWriter.Create(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s in zip: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to zip: %w", entry.Name, err)
		}
	}

	if err := addShapefileToZip(zipWriter, baseName, records); err != nil {
		return nil, fmt.Errorf("failed to add shapefile to zip: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}

	return zipBuffer.Bytes(), nil
}

// addShapefileToZip writes the shapefile in a temporary directory and copies
// its components into the archive.
func addShapefileToZip(zipWriter *zip.Writer, baseName string, records []ShapeRecord) error {
	tempDir, err := os.MkdirTemp("", "shapefile_")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	shapefilePath := filepath.Join(tempDir, baseName+".shp")
	if err := generateShapefile(shapefilePath, records); err != nil {
		return fmt.Errorf("failed to generate shapefile: %w", err)
	}

	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		filePath := strings.TrimSuffix(shapefilePath, ".shp") + ext
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			continue
		}

		fileContent, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read shapefile component %s: %w", ext, err)
		}

		zipFile, err := zipWriter.Create(baseName + ext)
		if err != nil {
			return fmt.Errorf("failed to create %s file in zip: %w", ext, err)
		}
		if _, err := zipFile.Write(fileContent); err != nil {
			return fmt.Errorf("failed to write %s data to zip: %w", ext, err)
		}
	}

	return nil
}

// generateShapefile writes records as a POLYGON shapefile. Records without a
// polygonal part are skipped.
func generateShapefile(shapefilePath string, records []ShapeRecord) error {
	shape, err := shp.Create(shapefilePath, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}
	defer shape.Close()

	fields := createFieldsFromProperties(records)
	shape.SetFields(fields)

	row := 0
	for _, record := range records {
		parts := polygonParts(record.Geometry)
		if len(parts) == 0 {
			continue
		}

		polygon := shp.Polygon(*shp.NewPolyLine(parts))
		shape.Write(&polygon)
		writeAttributesToShapefile(shape, record.Properties, fields, row)
		row++
	}

	return nil
}

// polygonParts flattens every ring of every polygon in g into shapefile parts.
func polygonParts(g geom.T) [][]shp.Point {
	var parts [][]shp.Point
	appendPolygon := func(p *geom.Polygon) {
		for i := 0; i < p.NumLinearRings(); i++ {
			ring := p.LinearRing(i)
			points := make([]shp.Point, 0, ring.NumCoords())
			for j := 0; j < ring.NumCoords(); j++ {
				c := ring.Coord(j)
				points = append(points, shp.Point{X: c.X(), Y: c.Y()})
			}
			if len(points) > 0 {
				parts = append(parts, points)
			}
		}
	}

	var walk func(geom.T)
	walk = func(g geom.T) {
		switch g := g.(type) {
		case *geom.Polygon:
			appendPolygon(g)
		case *geom.MultiPolygon:
			for i := 0; i < g.NumPolygons(); i++ {
				appendPolygon(g.Polygon(i))
			}
		case *geom.GeometryCollection:
			for _, member := range g.Geoms() {
				walk(member)
			}
		}
	}
	walk(g)

	return parts
}

// createFieldsFromProperties builds DBF fields from the union of all property
// keys, sorted for a stable column order.
func createFieldsFromProperties(records []ShapeRecord) []shp.Field {
	kinds := make(map[string]byte)
	for _, record := range records {
		for key, value := range record.Properties {
			kind := fieldKind(value)
			if previous, ok := kinds[key]; ok && previous != kind {
				kind = 'C'
			}
			kinds[key] = kind
		}
	}

	keys := make([]string, 0, len(kinds))
	for key := range kinds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := []shp.Field{}
	used := make(map[string]bool)
	for _, key := range keys {
		// DBF field names are limited to 10 characters.
		fieldName := key
		if len(fieldName) > 10 {
			fieldName = fieldName[:10]
		}
		if used[fieldName] {
			continue
		}
		used[fieldName] = true

		switch kinds[key] {
		case 'N':
			fields = append(fields, shp.NumberField(fieldName, 15))
		case 'F':
			fields = append(fields, shp.FloatField(fieldName, 15, 5))
		default:
			fields = append(fields, shp.StringField(fieldName, 254))
		}
	}

	if len(fields) == 0 {
		fields = append(fields, shp.NumberField("ID", 10))
	}

	return fields
}

func fieldKind(value interface{}) byte {
	switch v := value.(type) {
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return 'N'
		}
		return 'F'
	case float64, float32:
		return 'F'
	case int, int32, int64:
		return 'N'
	default:
		return 'C'
	}
}

// writeAttributesToShapefile writes feature properties as DBF attributes
func writeAttributesToShapefile(shape *shp.Writer, properties map[string]interface{}, fields []shp.Field, row int) {
	for i, field := range fields {
		fieldName := strings.TrimRight(string(field.Name[:]), "\x00")

		if fieldName == "ID" && len(properties) == 0 {
			shape.WriteAttribute(row, i, row+1)
			continue
		}

		value, found := lookupProperty(properties, fieldName)
		if !found || value == nil {
			switch field.Fieldtype {
			case 'N', 'F':
				shape.WriteAttribute(row, i, 0)
			default:
				shape.WriteAttribute(row, i, "")
			}
			continue
		}

		switch field.Fieldtype {
		case 'N':
			if n, ok := value.(json.Number); ok {
				if v, err := n.Int64(); err == nil {
					shape.WriteAttribute(row, i, int(v))
					continue
				}
			}
			shape.WriteAttribute(row, i, fmt.Sprintf("%v", value))
		case 'F':
			if n, ok := value.(json.Number); ok {
				if v, err := n.Float64(); err == nil {
					shape.WriteAttribute(row, i, v)
					continue
				}
			}
			shape.WriteAttribute(row, i, value)
		default:
			shape.WriteAttribute(row, i, fmt.Sprintf("%v", value))
		}
	}
}

func lookupProperty(properties map[string]interface{}, fieldName string) (interface{}, bool) {
	if value, ok := properties[fieldName]; ok {
		return value, true
	}
	for key, value := range properties {
		if len(key) > 10 && key[:10] == fieldName {
			return value, true
		}
	}
	return nil, false
}
