package model

// Finding is one citation-backed observation on the report surface.
// Created once per analysis run, immutable afterward.
type Finding struct {
	ID          string             `json:"id"`
	Trait       Trait              `json:"trait,omitempty"`
	Observation string             `json:"observation"`
	Implication string             `json:"implication,omitempty"`
	Evidence    []EvidenceRef      `json:"evidence,omitempty"`
	ReasonCode  EvidenceReasonCode `json:"reason_code,omitempty"`
}

// Withheld reports whether the finding's judgment was withheld for lack of
// acceptable evidence.
func (f Finding) Withheld() bool {
	return f.ReasonCode == EvidenceInsufficient || f.ReasonCode == EvidenceLowQuality
}

// CheckpointKind identifies which EWS rule produced a checkpoint.
type CheckpointKind string

const (
	CheckpointFCF            CheckpointKind = "fcf_margin"
	CheckpointCapexSpike     CheckpointKind = "capex_spike"
	CheckpointWorkingCapital CheckpointKind = "working_capital"
	CheckpointQualityKeyword CheckpointKind = "quality_keyword"
	CheckpointGuidance       CheckpointKind = "guidance_keyword"
)

// Checkpoint is a forward-looking "next quarter watch" item. Always
// evidence-backed: a rule that cannot cite a source emits nothing.
type Checkpoint struct {
	ID       string         `json:"id"`
	Kind     CheckpointKind `json:"kind"`
	Title    string         `json:"title"`
	Detail   string         `json:"detail,omitempty"`
	Evidence []EvidenceRef  `json:"evidence"`
}

// ChartSeries is one metric's plottable trend across same-criteria periods.
type ChartSeries struct {
	Concept Concept    `json:"concept"`
	Labels  []string   `json:"labels"`
	Values  []*float64 `json:"values"`
}

// ChartPlan lists which metric trends are eligible for charting.
type ChartPlan struct {
	Series []ChartSeries `json:"series,omitempty"`
}

// StepOutput groups the artifacts of one analysis step.
type StepOutput struct {
	Step        int          `json:"step"`
	Title       string       `json:"title"`
	Findings    []Finding    `json:"findings,omitempty"`
	Checkpoints []Checkpoint `json:"checkpoints,omitempty"`
	ChartPlan   *ChartPlan   `json:"chart_plan,omitempty"`
	ReportText  string       `json:"report_text,omitempty"`
}
