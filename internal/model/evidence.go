package model

// SourceType distinguishes the origin of a citation.
type SourceType string

const (
	SourceXBRL SourceType = "XBRL"
	SourcePDF  SourceType = "PDF"
)

// EvidenceLocator pins a citation to a literal location in a source file.
type EvidenceLocator struct {
	Page       int    `json:"page,omitempty"`
	Tag        string `json:"tag,omitempty"`
	ContextRef string `json:"context_ref,omitempty"`
	Section    string `json:"section,omitempty"`
	Heading    string `json:"heading,omitempty"`
	LineHint   int    `json:"line_hint,omitempty"`
}

// EvidenceRef is a locatable source citation. Every Finding and Checkpoint
// carries at least one, or an explicit reason code instead — claims are
// never asserted without a literal source.
type EvidenceRef struct {
	SourceType SourceType      `json:"source_type"`
	FileID     string          `json:"file_id"`
	Locator    EvidenceLocator `json:"locator"`
	Quote      string          `json:"quote,omitempty"`
}

// Trait is one of the four industry-characteristic dimensions evidence is
// selected for.
type Trait string

const (
	TraitCyclical     Trait = "cyclical"
	TraitCompetition  Trait = "competition"
	TraitPricingPower Trait = "pricingPower"
	TraitRegulation   Trait = "regulation"
)

// Traits is the fixed report ordering of the four traits.
var Traits = []Trait{TraitCyclical, TraitCompetition, TraitPricingPower, TraitRegulation}

// EvidenceReasonCode explains a withheld evidence selection.
type EvidenceReasonCode string

const (
	// EvidenceInsufficient: no candidate survived filtering at all.
	EvidenceInsufficient EvidenceReasonCode = "EVIDENCE_INSUFFICIENT"
	// EvidenceLowQuality: candidates survived but none scored high enough.
	EvidenceLowQuality EvidenceReasonCode = "EVIDENCE_LOW_QUALITY"
	// TopicMismatch: the pick is usable but came from outside the trait's
	// priority topics.
	TopicMismatch EvidenceReasonCode = "TOPIC_MISMATCH"
)

// SourceInfo is the optional location metadata on a raw candidate.
type SourceInfo struct {
	FileID  string `json:"file_id,omitempty"`
	Page    int    `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
	Heading string `json:"heading,omitempty"`
}

// Candidate is one paragraph extract competing to support a trait.
// Ephemeral: exists only during scoring, never persisted.
type Candidate struct {
	Topic      string      `json:"topic,omitempty"`
	Text       string      `json:"text"`
	SourceInfo *SourceInfo `json:"source_info,omitempty"`
}
