package model

import (
	"fmt"
	"time"
)

// PeriodType classifies the time span a statement covers.
type PeriodType string

const (
	// PeriodFY is a full fiscal year (or, for balance-sheet data, the
	// conceptual annual reporting frame of an instant value).
	PeriodFY PeriodType = "FY"
	// PeriodQ is a single standalone quarter.
	PeriodQ PeriodType = "Q"
	// PeriodYTD is a year-to-date cumulative span (3M/6M/9M).
	PeriodYTD PeriodType = "YTD"
)

// PeriodKey is the canonical identity of a reporting period. Flow statements
// (income, cash flow) carry both StartDate and EndDate; instant (balance)
// data carries only EndDate.
type PeriodKey struct {
	FiscalYear int        `json:"fiscal_year,omitempty"`
	Quarter    int        `json:"quarter,omitempty"` // 1..4, 0 when not applicable
	PeriodType PeriodType `json:"period_type"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Cumulative reports whether the period is a year-to-date span.
func (p PeriodKey) Cumulative() bool {
	return p.PeriodType == PeriodYTD
}

// SameCriteria reports whether two periods are comparable under the same
// measurement criteria: period type, cumulative flag, currency and unit.
// This equality gates both quarter isolation and chart-trend eligibility.
func SameCriteria(a, b PeriodKey, am, bm MoneyMeta) bool {
	return a.PeriodType == b.PeriodType &&
		a.Cumulative() == b.Cumulative() &&
		am.Currency == bm.Currency &&
		am.Unit == bm.Unit
}

// Label renders a short human-readable period label, e.g. "2025 Q3 YTD".
func (p PeriodKey) Label() string {
	switch p.PeriodType {
	case PeriodFY:
		return fmt.Sprintf("%d FY", p.FiscalYear)
	case PeriodYTD:
		return fmt.Sprintf("%d Q%d YTD", p.FiscalYear, p.Quarter)
	default:
		return fmt.Sprintf("%d Q%d", p.FiscalYear, p.Quarter)
	}
}
