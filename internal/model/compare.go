package model

import "encoding/json"

// CompareBasis identifies which prior reference point a metric comparison
// was computed against.
type CompareBasis string

const (
	BasisYoY      CompareBasis = "YOY"
	BasisPriorEnd CompareBasis = "VS_PRIOR_END"
	BasisQoQ      CompareBasis = "QOQ"
	BasisNone     CompareBasis = "NONE"
)

// CompareReasonCode is the closed enum explaining why a comparison is
// unavailable. compareBasis == NONE if and only if one of these is set.
type CompareReasonCode string

const (
	ReasonMissingPrevYearValue CompareReasonCode = "MISSING_PREV_YEAR_VALUE"
	ReasonMissingPriorEnd      CompareReasonCode = "MISSING_PRIOR_END_INSTANT"
	ReasonMissingCurrentValue  CompareReasonCode = "MISSING_CURRENT_VALUE"
	ReasonScopeMismatch        CompareReasonCode = "SCOPE_MISMATCH"
	ReasonUnitMismatch         CompareReasonCode = "UNIT_MISMATCH"
	ReasonPeriodMismatch       CompareReasonCode = "PERIOD_MISMATCH"
	ReasonMultipleCandidates   CompareReasonCode = "MULTIPLE_CANDIDATES"
	ReasonParserError          CompareReasonCode = "PARSER_ERROR"
	ReasonNotApplicable        CompareReasonCode = "NOT_APPLICABLE"
)

var compareReasonCodes = map[CompareReasonCode]bool{
	ReasonMissingPrevYearValue: true,
	ReasonMissingPriorEnd:      true,
	ReasonMissingCurrentValue:  true,
	ReasonScopeMismatch:        true,
	ReasonUnitMismatch:         true,
	ReasonPeriodMismatch:       true,
	ReasonMultipleCandidates:   true,
	ReasonParserError:          true,
	ReasonNotApplicable:        true,
}

// Valid reports whether c is a member of the closed enum.
func (c CompareReasonCode) Valid() bool {
	return compareReasonCodes[c]
}

// legacyReasonCodes remaps reason strings emitted by older upstream parsers.
// Normalization happens once at ingestion, not at call sites.
var legacyReasonCodes = map[string]CompareReasonCode{
	"NO_PREV_YEAR":      ReasonMissingPrevYearValue,
	"NO_PRIOR_END":      ReasonMissingPriorEnd,
	"NO_CURRENT":        ReasonMissingCurrentValue,
	"SCOPE_DIFF":        ReasonScopeMismatch,
	"UNIT_DIFF":         ReasonUnitMismatch,
	"PERIOD_DIFF":       ReasonPeriodMismatch,
	"AMBIGUOUS_CONTEXT": ReasonMultipleCandidates,
	"PARSE_FAIL":        ReasonParserError,
}

// NormalizeReasonCode maps a raw reason string (current or legacy) onto the
// closed enum. Unknown strings map to PARSER_ERROR so that downstream code
// never sees an open-world code.
func NormalizeReasonCode(raw string) CompareReasonCode {
	if c := CompareReasonCode(raw); c.Valid() {
		return c
	}
	if c, ok := legacyReasonCodes[raw]; ok {
		return c
	}
	return ReasonParserError
}

// Trend is the direction of a metric delta.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// KeyMetricCompare is the comparison outcome for one metric on one
// statement. Exactly one basis is assigned; NONE always carries a reason.
type KeyMetricCompare struct {
	CompareBasis CompareBasis      `json:"compare_basis"`
	PrevValue    *float64          `json:"prev_value,omitempty"`
	Delta        *float64          `json:"delta,omitempty"`
	DeltaPct     *float64          `json:"delta_pct,omitempty"`
	Trend        Trend             `json:"trend,omitempty"`
	ReasonCode   CompareReasonCode `json:"reason_code,omitempty"`
	ReasonDetail string            `json:"reason_detail,omitempty"`
}

// Available reports whether the comparison resolved to a usable basis.
func (k KeyMetricCompare) Available() bool {
	return k.CompareBasis != BasisNone && k.CompareBasis != ""
}

// UnmarshalJSON hydrates a persisted comparison, normalizing legacy reason
// strings onto the closed enum so consumers never see an open-world code.
func (k *KeyMetricCompare) UnmarshalJSON(data []byte) error {
	type plain KeyMetricCompare
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.ReasonCode != "" {
		p.ReasonCode = NormalizeReasonCode(string(p.ReasonCode))
	}
	*k = KeyMetricCompare(p)
	return nil
}

// KeyMetricsCompare maps each tracked concept to its comparison outcome.
type KeyMetricsCompare map[Concept]KeyMetricCompare
