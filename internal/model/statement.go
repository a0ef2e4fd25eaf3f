package model

import "time"

// Concept identifies a canonical financial line item.
type Concept string

// Tracked concepts. The first six are flow concepts (income / cash flow),
// the rest are balance-sheet instants.
const (
	ConceptRevenue         Concept = "revenue"
	ConceptOperatingIncome Concept = "operatingIncome"
	ConceptNetIncome       Concept = "netIncome"
	ConceptOperatingCF     Concept = "operatingCashFlow"
	ConceptCapex           Concept = "capex"
	ConceptFreeCashFlow    Concept = "freeCashFlow"

	ConceptTotalAssets      Concept = "totalAssets"
	ConceptTotalLiabilities Concept = "totalLiabilities"
	ConceptTotalEquity      Concept = "totalEquity"
	ConceptCash             Concept = "cashAndEquivalents"
	ConceptReceivables      Concept = "tradeReceivables"
	ConceptInventories      Concept = "inventories"
)

// MetricKind distinguishes flow concepts from balance-sheet instants.
type MetricKind string

const (
	MetricFlow    MetricKind = "flow"
	MetricInstant MetricKind = "instant"
)

// MetricSpec describes one tracked metric.
type MetricSpec struct {
	Concept Concept
	Kind    MetricKind
	// Korean display label used on the report surface.
	Label string
}

// KeyMetrics is the closed list of tracked metrics, in display order.
var KeyMetrics = []MetricSpec{
	{ConceptRevenue, MetricFlow, "매출액"},
	{ConceptOperatingIncome, MetricFlow, "영업이익"},
	{ConceptNetIncome, MetricFlow, "당기순이익"},
	{ConceptOperatingCF, MetricFlow, "영업활동현금흐름"},
	{ConceptCapex, MetricFlow, "자본적지출"},
	{ConceptFreeCashFlow, MetricFlow, "잉여현금흐름"},
	{ConceptTotalAssets, MetricInstant, "자산총계"},
	{ConceptTotalLiabilities, MetricInstant, "부채총계"},
	{ConceptTotalEquity, MetricInstant, "자본총계"},
	{ConceptCash, MetricInstant, "현금및현금성자산"},
	{ConceptReceivables, MetricInstant, "매출채권"},
	{ConceptInventories, MetricInstant, "재고자산"},
}

// MetricByConcept returns the spec for a concept, or nil if untracked.
func MetricByConcept(c Concept) *MetricSpec {
	for i := range KeyMetrics {
		if KeyMetrics[i].Concept == c {
			return &KeyMetrics[i]
		}
	}
	return nil
}

// MoneyMeta carries the measurement metadata attached to every item.
type MoneyMeta struct {
	Currency       string `json:"currency"`        // ISO code, e.g. "KRW"
	Unit           int64  `json:"unit"`            // multiplier: 1, 1_000, 1_000_000
	SignConvention string `json:"sign_convention"` // "reported" or "normalized"
}

// FinancialItem is one normalized line item. A nil Value means the source
// carried no figure for the concept; a reported zero is a non-nil 0. Callers
// must never substitute 0 for nil.
type FinancialItem struct {
	Name     string        `json:"name"`
	Value    *float64      `json:"value,omitempty"`
	Meta     MoneyMeta     `json:"meta"`
	Evidence []EvidenceRef `json:"evidence,omitempty"`
}

// Defined reports whether the item carries a value.
func (it FinancialItem) Defined() bool {
	return it.Value != nil
}

// ItemMap is a concept-keyed collection of line items.
type ItemMap map[Concept]FinancialItem

// Value returns the value for a concept, or nil when absent or undefined.
func (m ItemMap) Value(c Concept) *float64 {
	if it, ok := m[c]; ok {
		return it.Value
	}
	return nil
}

// Statement is one period's normalized financial statement. Constructed once
// by the normalizer and never mutated; comparison results attach as a fresh
// KeyMetricsCompare reference.
type Statement struct {
	Period PeriodKey `json:"period"`
	Meta   MoneyMeta `json:"meta"`
	// Scope is the consolidation scope: "consolidated" or "separate".
	// Comparisons across different scopes are refused, never silently mixed.
	Scope    string  `json:"scope,omitempty"`
	Income   ItemMap `json:"income"`
	Cashflow ItemMap `json:"cashflow"`
	Balance  ItemMap `json:"balance"`
	// PriorEnd holds prior-period-end instants delivered by the upstream
	// parser for balance concepts. Trusted as-is; see VS_PRIOR_END basis.
	PriorEnd ItemMap `json:"prior_end,omitempty"`
	// SourceFile links back to the uploaded filing this statement came from.
	SourceFile string `json:"source_file,omitempty"`

	KeyMetricsCompare KeyMetricsCompare `json:"key_metrics_compare,omitempty"`
}

// Item looks up a concept across the three statement sections.
func (s *Statement) Item(c Concept) (FinancialItem, bool) {
	if it, ok := s.Income[c]; ok {
		return it, true
	}
	if it, ok := s.Cashflow[c]; ok {
		return it, true
	}
	if it, ok := s.Balance[c]; ok {
		return it, true
	}
	return FinancialItem{}, false
}

// Value returns the defined value for a concept, or nil.
func (s *Statement) Value(c Concept) *float64 {
	if it, ok := s.Item(c); ok {
		return it.Value
	}
	return nil
}

// RawStatement is the parser-facing shape of one filing's figures, before
// normalization. Produced by the external XBRL parsing collaborator.
type RawStatement struct {
	FiscalYear int        `json:"fiscal_year"`
	Quarter    int        `json:"quarter"`
	PeriodType PeriodType `json:"period_type"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Currency   string     `json:"currency"`
	Unit       int64      `json:"unit"`
	Scope      string     `json:"scope,omitempty"`
	Income     ItemMap    `json:"income"`
	Cashflow   ItemMap    `json:"cashflow"`
	Balance    ItemMap    `json:"balance"`
	PriorEnd   ItemMap    `json:"prior_end,omitempty"`
}

// PDFPage is one page of extracted narrative text, produced by the external
// PDF extraction collaborator.
type PDFPage struct {
	Page    int    `json:"page"`
	Section string `json:"section,omitempty"`
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
}

// FileParseResult pairs one uploaded filing with its parsed contents.
type FileParseResult struct {
	File      UploadedFile  `json:"file"`
	Statement *RawStatement `json:"statement,omitempty"`
	PDFPages  []PDFPage     `json:"pdf_pages,omitempty"`
	// ParseError is a non-fatal parser diagnostic; the pipeline degrades
	// gracefully and records it as a warning.
	ParseError string `json:"parse_error,omitempty"`
}

// FileKind tags the uploaded artifact type.
type FileKind string

const (
	FileXBRL FileKind = "xbrl"
	FilePDF  FileKind = "pdf"
)

// UploadedFile identifies one input artifact.
type UploadedFile struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind FileKind `json:"kind"`
}
