package cleaning

// ValidityReport describes one invalid geometry found by CheckGeometry.
type ValidityReport struct {
	Ref          int    `json:"ref"`
	FID          string `json:"fid"`
	ErrorMessage string `json:"errorMessage"`
}

// CheckGeometry lists the invalid geometries of fc without repairing them.
func CheckGeometry(fc *FeatureCollection) []ValidityReport {
	reports := make([]ValidityReport, 0)
	if fc == nil {
		return reports
	}

	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if issue, valid := checkGeometry(f.Geometry); !valid {
			reports = append(reports, ValidityReport{Ref: i, FID: f.FID(), ErrorMessage: issue})
		}
	}
	return reports
}
