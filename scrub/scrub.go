// Package scrub implements the order reconciliation engine: it pairs a
// JobBoss export against a customer-provided order list by business key,
// classifies field-level differences by severity, and rolls the result up
// into a ScrubReport.
//
// The engine is pure computation over in-memory slices. Upload handling,
// workbook parsing, persistence and Excel rendering live outside this
// package and only exchange values with it.
package scrub

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceJobBoss  Source = "JobBoss"
	SourceCustomer Source = "Customer"
)

// Severity ranks a single field mismatch. Higher value = worse, so
// "worst discrepancy wins" is a plain max.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "Critical"
	case SeverityHigh:
		return "High"
	case SeverityMedium:
		return "Medium"
	case SeverityLow:
		return "Low"
	default:
		return "None"
	}
}

func worseSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// MatchType is the worst-case classification of a matched pair. It is
// derived from the pair, never stored on it.
type MatchType string

const (
	MatchTypePerfect             MatchType = "Perfect Match"
	MatchTypeCritical            MatchType = "Critical"
	MatchTypeHigh                MatchType = "High"
	MatchTypeMedium              MatchType = "Medium"
	MatchTypeMissingFromCustomer MatchType = "Missing From Customer"
	MatchTypeMissingFromJobBoss  MatchType = "Missing From JobBoss"
)

// BusinessKey associates records across the two sources. Key parts are
// canonicalized (trimmed, upper-cased) by NewBusinessKey; a blank key is
// still a valid bucket.
type BusinessKey struct {
	CustomerPO string
	PartNumber string
}

func NewBusinessKey(customerPO, partNumber string) BusinessKey {
	return BusinessKey{
		CustomerPO: strings.ToUpper(strings.TrimSpace(customerPO)),
		PartNumber: strings.ToUpper(strings.TrimSpace(partNumber)),
	}
}

// RawOrderRow is one spreadsheet row as the parsing collaborator hands it
// over: all fields string-typed, untrimmed, with the 1-based sheet row
// number for error reporting.
type RawOrderRow struct {
	Source       Source
	RowNum       int
	CustomerPO   string
	PartNumber   string
	Revision     string
	SalesOrder   string
	OrderQty     string
	OpenQty      string
	UnitPrice    string
	PromisedDate string
	ShipDate     string
}

// OrderRecord is a normalized order line. Display fields keep their
// original spelling; Key holds the canonical form used for matching.
// Immutable once produced by the normalizer.
type OrderRecord struct {
	Source Source
	RowNum int
	Key    BusinessKey

	CustomerPO   string
	PartNumber   string
	Revision     string
	SalesOrder   string
	OrderQty     decimal.Decimal
	OpenQty      decimal.Decimal
	UnitPrice    decimal.Decimal
	PromisedDate *time.Time
	ShipDate     *time.Time
}

// Discrepancy is a single field-level mismatch between paired records.
type Discrepancy struct {
	FieldName     string
	JobBossValue  string
	CustomerValue string
	Severity      Severity
}

// MatchedPair associates at most one record from each source for a
// business key. At least one side is always non-nil.
type MatchedPair struct {
	Key           BusinessKey
	JobBoss       *OrderRecord
	Customer      *OrderRecord
	Discrepancies []Discrepancy
}

// MatchType classifies the pair: a missing-side marker, else the worst
// discrepancy severity, else a perfect match.
func (p *MatchedPair) MatchType() MatchType {
	if p.JobBoss == nil {
		return MatchTypeMissingFromJobBoss
	}
	if p.Customer == nil {
		return MatchTypeMissingFromCustomer
	}
	worst := SeverityNone
	for _, d := range p.Discrepancies {
		worst = worseSeverity(worst, d.Severity)
	}
	switch worst {
	case SeverityCritical:
		return MatchTypeCritical
	case SeverityHigh:
		return MatchTypeHigh
	case SeverityMedium, SeverityLow:
		return MatchTypeMedium
	default:
		return MatchTypePerfect
	}
}

type ScrubStatistics struct {
	Total               int
	PerfectMatches      int
	CriticalIssues      int
	HighIssues          int
	MediumIssues        int
	MissingFromCustomer int
	MissingFromJobBoss  int
}

// ScrubReport is the aggregate result of one reconciliation run. The
// engine hands it to the caller as a value and never mutates it again.
type ScrubReport struct {
	ReportNumber     string
	JobBossFileName  string
	CustomerFileName string
	CustomerName     string
	RequestedBy      string
	Pairs            []MatchedPair
	Statistics       ScrubStatistics
	CreatedAt        time.Time
}
