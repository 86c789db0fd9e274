package ingest

// Status reports whether an optional ingestion step ran
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
)

// Outcome records the result of a best-effort step. A skipped step
// carries the reason it was skipped.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Ok reports a step that ran
func Ok() Outcome {
	return Outcome{Status: StatusOK}
}

// Skipped reports a step that did not run
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// IsOk reports whether the step ran
func (o Outcome) IsOk() bool {
	return o.Status == StatusOK
}
