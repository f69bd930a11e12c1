package scrub

import "testing"

func record(source Source, po, part string) OrderRecord {
	return OrderRecord{
		Source:     source,
		Key:        NewBusinessKey(po, part),
		CustomerPO: po,
		PartNumber: part,
	}
}

func TestMatch_PairsByKey(t *testing.T) {
	jb := []OrderRecord{record(SourceJobBoss, "P1", "X1")}
	cust := []OrderRecord{record(SourceCustomer, "p1", "x1")}

	pairs := Match(jb, cust)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].JobBoss == nil || pairs[0].Customer == nil {
		t.Fatalf("expected both sides present: %+v", pairs[0])
	}
}

func TestMatch_DuplicateKeysPairPositionally(t *testing.T) {
	jb := []OrderRecord{
		record(SourceJobBoss, "P3", "Z1"),
		record(SourceJobBoss, "P3", "Z1"),
	}
	jb[0].SalesOrder = "SO-1"
	jb[1].SalesOrder = "SO-2"
	cust := []OrderRecord{record(SourceCustomer, "P3", "Z1")}

	pairs := Match(jb, cust)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	// oldest-first: the first JobBoss record gets the customer record
	if pairs[0].JobBoss.SalesOrder != "SO-1" || pairs[0].Customer == nil {
		t.Fatalf("first pair should match SO-1: %+v", pairs[0])
	}
	if pairs[1].JobBoss.SalesOrder != "SO-2" || pairs[1].Customer != nil {
		t.Fatalf("second pair should be one-sided SO-2: %+v", pairs[1])
	}
	if pairs[1].MatchType() != MatchTypeMissingFromCustomer {
		t.Fatalf("leftover JobBoss record should be missing from customer, got %s", pairs[1].MatchType())
	}
}

func TestMatch_OneSidedKeys(t *testing.T) {
	jb := []OrderRecord{record(SourceJobBoss, "P2", "Y1")}
	cust := []OrderRecord{record(SourceCustomer, "P9", "Q9")}

	pairs := Match(jb, cust)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].MatchType() != MatchTypeMissingFromCustomer {
		t.Fatalf("expected missing-from-customer first, got %s", pairs[0].MatchType())
	}
	if pairs[1].MatchType() != MatchTypeMissingFromJobBoss {
		t.Fatalf("expected missing-from-jobboss second, got %s", pairs[1].MatchType())
	}
}

func TestMatch_EmptyKeyIsAValidBucket(t *testing.T) {
	jb := []OrderRecord{record(SourceJobBoss, "", "")}
	cust := []OrderRecord{record(SourceCustomer, " ", "")}

	pairs := Match(jb, cust)
	if len(pairs) != 1 {
		t.Fatalf("expected blank keys to bucket together, got %d pairs", len(pairs))
	}
	if pairs[0].JobBoss == nil || pairs[0].Customer == nil {
		t.Fatalf("expected a two-sided pair: %+v", pairs[0])
	}
}

// every record appears in exactly one pair, regardless of key overlap
func TestMatch_Completeness(t *testing.T) {
	jb := []OrderRecord{
		record(SourceJobBoss, "P1", "X1"),
		record(SourceJobBoss, "P1", "X1"),
		record(SourceJobBoss, "P2", "X2"),
		record(SourceJobBoss, "", ""),
	}
	cust := []OrderRecord{
		record(SourceCustomer, "P1", "X1"),
		record(SourceCustomer, "P2", "X2"),
		record(SourceCustomer, "P2", "X2"),
		record(SourceCustomer, "P7", "X7"),
	}

	pairs := Match(jb, cust)

	var jbCount, custCount int
	for i := range pairs {
		if pairs[i].JobBoss == nil && pairs[i].Customer == nil {
			t.Fatalf("pair %d has no sides", i)
		}
		if pairs[i].JobBoss != nil {
			jbCount++
		}
		if pairs[i].Customer != nil {
			custCount++
		}
	}
	if jbCount != len(jb) || custCount != len(cust) {
		t.Fatalf("coverage mismatch: jb %d/%d cust %d/%d", jbCount, len(jb), custCount, len(cust))
	}
}

func TestMatch_OrderIsDeterministic(t *testing.T) {
	jb := []OrderRecord{
		record(SourceJobBoss, "P2", "X2"),
		record(SourceJobBoss, "P1", "X1"),
	}
	cust := []OrderRecord{
		record(SourceCustomer, "P1", "X1"),
		record(SourceCustomer, "P9", "X9"),
		record(SourceCustomer, "P8", "X8"),
	}

	first := Match(jb, cust)
	second := Match(jb, cust)
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Fatalf("pair %d key differs between runs: %v vs %v", i, first[i].Key, second[i].Key)
		}
	}
	// A-side keys first in input order, then B-only keys in input order
	wantKeys := []string{"P2", "P1", "P9", "P8"}
	for i, want := range wantKeys {
		if first[i].Key.CustomerPO != want {
			t.Fatalf("pair %d: expected key %s, got %s", i, want, first[i].Key.CustomerPO)
		}
	}
}
