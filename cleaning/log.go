package cleaning

import "fmt"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Stage names recorded on log entries.
const (
	StageValidate   = "validate"
	StageDedupExact = "dedupe_exact"
	StageDedupNear  = "dedupe_near"
)

// LogEntry records one action taken by a pipeline stage.
type LogEntry struct {
	Severity Severity `json:"severity"`
	Stage    string   `json:"stage"`
	Message  string   `json:"message"`
}

func newEntry(severity Severity, stage string, format string, args ...interface{}) LogEntry {
	return LogEntry{
		Severity: severity,
		Stage:    stage,
		Message:  fmt.Sprintf(format, args...),
	}
}

func countSeverity(logs []LogEntry, stage string, severity Severity) int {
	n := 0
	for _, entry := range logs {
		if entry.Stage == stage && entry.Severity == severity {
			n++
		}
	}
	return n
}
