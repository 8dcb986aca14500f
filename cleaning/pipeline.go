package cleaning

// DefaultCellSize is the default grid cell size of the deduplication pre-filter.
const DefaultCellSize = 0.01

type Options struct {
	Tolerance  float64
	Precision  int
	CellSize   float64
	BruteForce bool
}

func DefaultOptions() Options {
	return Options{
		Tolerance: DefaultTolerance,
		CellSize:  DefaultCellSize,
	}
}

// Stats counts what a run did.
type Stats struct {
	Input        int `json:"input"`
	Output       int `json:"output"`
	Invalid      int `json:"invalid"`
	Repaired     int `json:"repaired"`
	Unrepairable int `json:"unrepairable"`
	ExactRemoved int `json:"exactRemoved"`
	NearRemoved  int `json:"nearRemoved"`
}

type Result struct {
	Collection *FeatureCollection
	Logs       []LogEntry
	Stats      Stats
}

// Pipeline runs validation, exact deduplication and near deduplication, in
// that order. It holds no state between runs and is safe for concurrent use
// as long as every run gets its own input.
type Pipeline struct {
	validator Validator
	exact     ExactDeduplicator
	near      NearDeduplicator
}

func New(opts Options) *Pipeline {
	return &Pipeline{
		validator: Validator{Precision: opts.Precision},
		exact:     ExactDeduplicator{CellSize: opts.CellSize, BruteForce: opts.BruteForce},
		near: NearDeduplicator{
			Tolerance:  opts.Tolerance,
			CellSize:   opts.CellSize,
			BruteForce: opts.BruteForce,
		},
	}
}

// Run cleans a copy of fc and returns it with the log of every action taken.
// fc itself is not modified.
func (p *Pipeline) Run(fc *FeatureCollection) (*FeatureCollection, []LogEntry) {
	result := p.Clean(fc)
	return result.Collection, result.Logs
}

// Clean is Run with per-stage counts.
func (p *Pipeline) Clean(fc *FeatureCollection) *Result {
	working := fc.Clone()
	logs := make([]LogEntry, 0)
	stats := Stats{Input: len(working.Features)}

	features, stageLogs := p.validator.Validate(working.Features)
	logs = append(logs, stageLogs...)
	stats.Invalid = countSeverity(stageLogs, StageValidate, SeverityWarning)
	stats.Repaired = countSeverity(stageLogs, StageValidate, SeveritySuccess)
	stats.Unrepairable = countSeverity(stageLogs, StageValidate, SeverityError)

	before := len(features)
	features, stageLogs = p.exact.Dedupe(features)
	logs = append(logs, stageLogs...)
	stats.ExactRemoved = before - len(features)

	before = len(features)
	features, stageLogs = p.near.Dedupe(features)
	logs = append(logs, stageLogs...)
	stats.NearRemoved = before - len(features)

	working.Features = features
	stats.Output = len(features)

	return &Result{Collection: working, Logs: logs, Stats: stats}
}
