package scrub

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	halfRatio  = decimal.NewFromFloat(0.5)
	tenthRatio = decimal.NewFromFloat(0.1)
)

// DetectDiscrepancies compares a fully matched pair field by field, in a
// fixed order, and returns one Discrepancy per differing field. The same
// pair always yields the same sequence. One-sided pairs carry zero
// discrepancies and are classified by their missing side instead.
func DetectDiscrepancies(pair *MatchedPair) []Discrepancy {
	jb, cust := pair.JobBoss, pair.Customer
	if jb == nil || cust == nil {
		return nil
	}

	var found []Discrepancy

	// Revision mismatch means one side is working from a stale or wrong
	// engineering spec: always Critical.
	if !strings.EqualFold(jb.Revision, cust.Revision) {
		found = append(found, Discrepancy{
			FieldName:     "Revision",
			JobBossValue:  jb.Revision,
			CustomerValue: cust.Revision,
			Severity:      SeverityCritical,
		})
	}

	if d := compareQuantity("OrderQty", jb.OrderQty, cust.OrderQty); d != nil {
		found = append(found, *d)
	}
	if d := compareQuantity("OpenQty", jb.OpenQty, cust.OpenQty); d != nil {
		found = append(found, *d)
	}

	// Prices compared at 2 decimal places; anything beyond rounding is
	// commercially significant.
	if !jb.UnitPrice.Round(2).Equal(cust.UnitPrice.Round(2)) {
		found = append(found, Discrepancy{
			FieldName:     "UnitPrice",
			JobBossValue:  jb.UnitPrice.StringFixed(2),
			CustomerValue: cust.UnitPrice.StringFixed(2),
			Severity:      SeverityHigh,
		})
	}

	if d := compareDate("PromisedDate", jb.PromisedDate, cust.PromisedDate); d != nil {
		found = append(found, *d)
	}
	if d := compareDate("ShipDate", jb.ShipDate, cust.ShipDate); d != nil {
		found = append(found, *d)
	}

	return found
}

// compareQuantity escalates with the relative magnitude of the
// difference, measured against the JobBoss side:
//
//	zero vs non-zero, or diff >= 50%  -> Critical
//	diff >= 10%                       -> High
//	any other non-zero diff           -> Medium
func compareQuantity(field string, jb, cust decimal.Decimal) *Discrepancy {
	if jb.Equal(cust) {
		return nil
	}

	severity := SeverityMedium
	if jb.IsZero() || cust.IsZero() {
		severity = SeverityCritical
	} else {
		ratio := jb.Sub(cust).Abs().Div(jb.Abs())
		switch {
		case ratio.GreaterThanOrEqual(halfRatio):
			severity = SeverityCritical
		case ratio.GreaterThanOrEqual(tenthRatio):
			severity = SeverityHigh
		}
	}

	return &Discrepancy{
		FieldName:     field,
		JobBossValue:  jb.String(),
		CustomerValue: cust.String(),
		Severity:      severity,
	}
}

// Date fields are compared by calendar day when both sides carry a value.
// A date present on only one side is not a discrepancy: most customer
// lists simply omit ship dates.
func compareDate(field string, jb, cust *time.Time) *Discrepancy {
	if jb == nil || cust == nil {
		return nil
	}
	jbDay := jb.Format("2006-01-02")
	custDay := cust.Format("2006-01-02")
	if jbDay == custDay {
		return nil
	}
	return &Discrepancy{
		FieldName:     field,
		JobBossValue:  jbDay,
		CustomerValue: custDay,
		Severity:      SeverityMedium,
	}
}
