package cleaning

import (
	"encoding/binary"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"

	"github.com/bsaid97/go-polygon-cleaner/utils"
)

// Validator checks each geometry with GEOS and replaces invalid ones by their
// repaired form. Features are never dropped or reordered.
type Validator struct {
	// Precision, when positive, rounds repaired coordinates to that many
	// decimals. Rounding is skipped if it would make the repair invalid.
	Precision int
}

// Validate returns features with invalid geometries repaired where possible.
// Geometries that cannot be repaired are kept as they are.
func (v Validator) Validate(features []Feature) ([]Feature, []LogEntry) {
	logs := make([]LogEntry, 0)

	for i := range features {
		f := &features[i]
		if f.Geometry == nil {
			continue
		}

		issue, valid := checkGeometry(f.Geometry)
		if valid {
			continue
		}
		logs = append(logs, newEntry(SeverityWarning, StageValidate,
			"Polygon fid `%s` is invalid: %s", f.FID(), issue))

		fixed, err := v.repair(f.Geometry)
		if err != nil {
			logs = append(logs, newEntry(SeverityError, StageValidate,
				"Polygon fid `%s` remains invalid. Keeping original.", f.FID()))
			continue
		}

		f.Geometry = fixed
		logs = append(logs, newEntry(SeveritySuccess, StageValidate,
			"Polygon fid `%s` geometry was fixed.", f.FID()))
	}

	return features, logs
}

// repair closes open rings and, if the geometry is still invalid, runs GEOS
// MakeValid with the linework method. The result must be valid and non-empty.
func (v Validator) repair(g geom.T) (fixed geom.T, err error) {
	defer func() {
		if r := recover(); r != nil {
			fixed, err = nil, fmt.Errorf("repair panicked: %v", r)
		}
	}()

	closed, _, err := utils.CloseRings(g)
	if err != nil {
		return nil, err
	}

	geosGeom, err := toGEOS(closed)
	if err != nil {
		return nil, err
	}
	defer geosGeom.Destroy()

	repaired := geosGeom
	if !geosGeom.IsValid() {
		repaired = geosGeom.MakeValidWithParams(geos.MakeValidLinework, geos.MakeValidDiscardCollapsed)
		if repaired == nil {
			return nil, fmt.Errorf("make valid returned no geometry")
		}
		defer repaired.Destroy()
	}

	if !repaired.IsValid() {
		return nil, fmt.Errorf("repaired geometry is invalid: %s", repaired.IsValidReason())
	}
	if repaired.IsEmpty() {
		return nil, fmt.Errorf("repaired geometry is empty")
	}

	result, err := fromGEOS(repaired)
	if err != nil {
		return nil, err
	}

	if v.Precision > 0 {
		if rounded, ok := roundKeepingValidity(repaired, v.Precision); ok {
			result = rounded
		}
	}

	return result, nil
}

func roundKeepingValidity(g *geos.Geom, precision int) (geom.T, bool) {
	rounded, err := fromGEOS(g)
	if err != nil {
		return nil, false
	}
	if err := utils.TruncateFullGeometry(rounded, precision); err != nil {
		return nil, false
	}
	if _, valid := checkGeometry(rounded); !valid {
		return nil, false
	}
	return rounded, true
}

// checkGeometry reports whether g is valid, with the GEOS reason when not. A
// geometry GEOS cannot construct is invalid and the construction error is the
// reason.
func checkGeometry(g geom.T) (issue string, valid bool) {
	defer func() {
		if r := recover(); r != nil {
			issue, valid = fmt.Sprint(r), false
		}
	}()

	geosGeom, err := toGEOS(g)
	if err != nil {
		return err.Error(), false
	}
	defer geosGeom.Destroy()

	if geosGeom.IsValid() {
		return "", true
	}
	return geosGeom.IsValidReason(), false
}

func toGEOS(g geom.T) (*geos.Geom, error) {
	data, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("error encoding geometry: %w", err)
	}
	geosGeom, err := geos.NewGeomFromWKB(data)
	if err != nil {
		return nil, err
	}
	return geosGeom, nil
}

func fromGEOS(g *geos.Geom) (geom.T, error) {
	t, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("error decoding repaired geometry: %w", err)
	}
	return t, nil
}
