package model

import "time"

// Warning is a non-fatal bundle-level diagnostic. The pipeline degrades
// gracefully: bad inputs become warnings, never thrown errors.
type Warning struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
	FileID string `json:"file_id,omitempty"`
}

// DataQuality summarizes how complete the normalized bundle is.
type DataQuality struct {
	MissingConcepts []Concept `json:"missing_concepts,omitempty"`
	// Coverage is the fraction of tracked metrics with a defined value on
	// the latest statement, 0.0-1.0.
	Coverage float64 `json:"coverage"`
	// StatementsDropped counts inputs discarded during normalization.
	StatementsDropped int `json:"statements_dropped,omitempty"`
}

// AnalysisBundle is the complete output of one analysis run.
// statements[0] is always the most recent period.
type AnalysisBundle struct {
	Statements  []*Statement  `json:"statements"`
	StepOutputs []StepOutput  `json:"step_outputs,omitempty"`
	AllEvidence []EvidenceRef `json:"all_evidence,omitempty"`
	Warnings    []Warning     `json:"warnings,omitempty"`
	DataQuality DataQuality   `json:"data_quality"`
}

// Latest returns the most recent statement, or nil for an empty bundle.
func (b *AnalysisBundle) Latest() *Statement {
	if len(b.Statements) == 0 {
		return nil
	}
	return b.Statements[0]
}

// RunStatus tracks the lifecycle of a persisted analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one persisted analysis run.
type Run struct {
	ID        string          `json:"id"`
	Company   string          `json:"company"`
	Status    RunStatus       `json:"status"`
	Bundle    *AnalysisBundle `json:"bundle,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
