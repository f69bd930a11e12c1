package models

import (
	"testing"

	"bitbucket.org/mmdatafocus/scrub_backend/scrub"
	"github.com/shopspring/decimal"
)

func TestMapMatches_PreservesEngineOrderAndSides(t *testing.T) {
	jb := scrub.OrderRecord{
		Source:     scrub.SourceJobBoss,
		Key:        scrub.NewBusinessKey("P1", "X1"),
		CustomerPO: "P1",
		PartNumber: "X1",
		SalesOrder: "SO-1",
		Revision:   "A",
		OrderQty:   decimal.NewFromInt(10),
		UnitPrice:  decimal.RequireFromString("5.00"),
	}
	cust := scrub.OrderRecord{
		Source:     scrub.SourceCustomer,
		Key:        jb.Key,
		CustomerPO: "P1",
		PartNumber: "X1",
		Revision:   "B",
		OrderQty:   decimal.NewFromInt(10),
		UnitPrice:  decimal.RequireFromString("5.00"),
	}
	pairs := []scrub.MatchedPair{
		{Key: jb.Key, JobBoss: &jb, Customer: &cust},
		{Key: scrub.NewBusinessKey("P2", "Y1"), JobBoss: &jb},
	}
	pairs[0].Discrepancies = scrub.DetectDiscrepancies(&pairs[0])

	matches := mapMatches(pairs)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Position != 0 || matches[1].Position != 1 {
		t.Fatalf("positions must follow engine order: %+v", matches)
	}
	if matches[0].MatchType != scrub.MatchTypeCritical {
		t.Fatalf("revision mismatch should map as Critical, got %s", matches[0].MatchType)
	}
	if len(matches[0].Discrepancies) != 1 {
		t.Fatalf("expected 1 discrepancy row, got %d", len(matches[0].Discrepancies))
	}
	d := matches[0].Discrepancies[0]
	if d.FieldName != "Revision" || d.Severity != "Critical" || d.JobBossValue != "A" || d.CustomerValue != "B" {
		t.Fatalf("discrepancy mapping wrong: %+v", d)
	}

	if matches[1].MatchType != scrub.MatchTypeMissingFromCustomer {
		t.Fatalf("one-sided pair mapping wrong: %s", matches[1].MatchType)
	}
	if matches[1].CustomerOrderQty.Sign() != 0 || matches[1].CustomerRevision != "" {
		t.Fatalf("missing side should stay at zero values: %+v", matches[1])
	}
	if !matches[1].JobBossOrderQty.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("jobboss side lost: %+v", matches[1])
	}
}
