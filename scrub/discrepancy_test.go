package scrub

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func pairWith(jb, cust OrderRecord) *MatchedPair {
	return &MatchedPair{Key: jb.Key, JobBoss: &jb, Customer: &cust}
}

func qty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func findDiscrepancy(t *testing.T, found []Discrepancy, field string) Discrepancy {
	t.Helper()
	for _, d := range found {
		if d.FieldName == field {
			return d
		}
	}
	t.Fatalf("no discrepancy for field %s in %+v", field, found)
	return Discrepancy{}
}

func TestDetectDiscrepancies_PerfectMatch(t *testing.T) {
	jb := record(SourceJobBoss, "P1", "X1")
	jb.Revision = "A"
	jb.OrderQty = qty("10")
	jb.UnitPrice = qty("5.00")
	cust := record(SourceCustomer, "P1", "X1")
	cust.Revision = "a" // case-insensitive
	cust.OrderQty = qty("10")
	cust.UnitPrice = qty("5")

	p := pairWith(jb, cust)
	if found := DetectDiscrepancies(p); len(found) != 0 {
		t.Fatalf("expected no discrepancies, got %+v", found)
	}
	if p.MatchType() != MatchTypePerfect {
		t.Fatalf("expected perfect match, got %s", p.MatchType())
	}
}

func TestDetectDiscrepancies_QuantitySeverityThresholds(t *testing.T) {
	cases := []struct {
		jbQty    string
		custQty  string
		severity Severity
	}{
		{"10", "4", SeverityCritical},  // 60% relative difference
		{"10", "5", SeverityCritical},  // exactly 50%
		{"10", "0", SeverityCritical},  // zero side
		{"0", "3", SeverityCritical},   // zero side, other direction
		{"10", "8", SeverityHigh},      // 20%
		{"10", "9", SeverityHigh},      // exactly 10%
		{"100", "99", SeverityMedium},  // 1%
		{"100", "100", SeverityNone},   // equal
		{"100", "100.0", SeverityNone}, // numeric, not textual, equality
	}
	for _, tc := range cases {
		jb := record(SourceJobBoss, "P1", "X1")
		jb.OrderQty = qty(tc.jbQty)
		cust := record(SourceCustomer, "P1", "X1")
		cust.OrderQty = qty(tc.custQty)

		found := DetectDiscrepancies(pairWith(jb, cust))
		if tc.severity == SeverityNone {
			if len(found) != 0 {
				t.Fatalf("qty %s vs %s: expected no discrepancy, got %+v", tc.jbQty, tc.custQty, found)
			}
			continue
		}
		d := findDiscrepancy(t, found, "OrderQty")
		if d.Severity != tc.severity {
			t.Fatalf("qty %s vs %s: expected %s, got %s", tc.jbQty, tc.custQty, tc.severity, d.Severity)
		}
	}
}

// growing the relative difference must never lower the severity
func TestDetectDiscrepancies_SeverityMonotonicity(t *testing.T) {
	prev := SeverityNone
	for _, custQty := range []string{"100", "99", "95", "91", "89", "75", "51", "49", "10", "0"} {
		jb := record(SourceJobBoss, "P1", "X1")
		jb.OrderQty = qty("100")
		cust := record(SourceCustomer, "P1", "X1")
		cust.OrderQty = qty(custQty)

		severity := SeverityNone
		for _, d := range DetectDiscrepancies(pairWith(jb, cust)) {
			if d.FieldName == "OrderQty" {
				severity = d.Severity
			}
		}
		if severity < prev {
			t.Fatalf("severity dropped from %s to %s at custQty=%s", prev, severity, custQty)
		}
		prev = severity
	}
}

func TestDetectDiscrepancies_UnitPriceTolerance(t *testing.T) {
	jb := record(SourceJobBoss, "P1", "X1")
	jb.UnitPrice = qty("5.001")
	cust := record(SourceCustomer, "P1", "X1")
	cust.UnitPrice = qty("5.004")

	// both round to 5.00: inside currency tolerance
	if found := DetectDiscrepancies(pairWith(jb, cust)); len(found) != 0 {
		t.Fatalf("expected rounding-tolerant price match, got %+v", found)
	}

	cust.UnitPrice = qty("5.01")
	d := findDiscrepancy(t, DetectDiscrepancies(pairWith(jb, cust)), "UnitPrice")
	if d.Severity != SeverityHigh {
		t.Fatalf("price mismatch should be High, got %s", d.Severity)
	}
}

func TestDetectDiscrepancies_RevisionMismatchIsCritical(t *testing.T) {
	jb := record(SourceJobBoss, "P1", "X1")
	jb.Revision = "A"
	cust := record(SourceCustomer, "P1", "X1")
	cust.Revision = "B"

	p := pairWith(jb, cust)
	p.Discrepancies = DetectDiscrepancies(p)
	d := findDiscrepancy(t, p.Discrepancies, "Revision")
	if d.Severity != SeverityCritical {
		t.Fatalf("revision mismatch should be Critical, got %s", d.Severity)
	}
	if p.MatchType() != MatchTypeCritical {
		t.Fatalf("worst severity should win: got %s", p.MatchType())
	}
}

func TestDetectDiscrepancies_DateComparedByDay(t *testing.T) {
	d1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)
	d3 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	jb := record(SourceJobBoss, "P1", "X1")
	jb.PromisedDate = &d1
	cust := record(SourceCustomer, "P1", "X1")
	cust.PromisedDate = &d2

	if found := DetectDiscrepancies(pairWith(jb, cust)); len(found) != 0 {
		t.Fatalf("same-day dates should match, got %+v", found)
	}

	cust.PromisedDate = &d3
	d := findDiscrepancy(t, DetectDiscrepancies(pairWith(jb, cust)), "PromisedDate")
	if d.Severity != SeverityMedium {
		t.Fatalf("date mismatch should be Medium, got %s", d.Severity)
	}

	// one-sided date is not a discrepancy
	cust.PromisedDate = nil
	if found := DetectDiscrepancies(pairWith(jb, cust)); len(found) != 0 {
		t.Fatalf("one-sided date should not flag, got %+v", found)
	}
}

func TestDetectDiscrepancies_OneSidedPairsCarryNone(t *testing.T) {
	jb := record(SourceJobBoss, "P2", "Y1")
	p := &MatchedPair{Key: jb.Key, JobBoss: &jb}
	if found := DetectDiscrepancies(p); found != nil {
		t.Fatalf("one-sided pair must carry zero discrepancies, got %+v", found)
	}
}
