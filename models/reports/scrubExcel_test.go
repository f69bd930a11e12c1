package reports

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/scrub_backend/models"
	"github.com/shopspring/decimal"
)

func sampleReport() *models.ScrubReport {
	promised := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return &models.ScrubReport{
		ReportNumber:        "r-100",
		CustomerName:        "Acme",
		JobBossFileName:     "jb.xlsx",
		CustomerFileName:    "cust.xlsx",
		RequestedBy:         "mary",
		TotalOrders:         3,
		PerfectMatches:      1,
		CriticalIssues:      1,
		MissingFromCustomer: 1,
		CreatedAt:           time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC),
		Matches: []models.ScrubMatch{
			{
				Position:   0,
				MatchType:  "Perfect Match",
				CustomerPO: "PO-1", PartNumber: "PART-A",
				JobBossSalesOrder: "SO-1",
				JobBossOrderQty:   decimal.NewFromInt(10),
				CustomerOrderQty:  decimal.NewFromInt(10),
			},
			{
				Position:   1,
				MatchType:  "Critical",
				CustomerPO: "PO-2", PartNumber: "PART-B",
				JobBossRevision:  "C",
				CustomerRevision: "D",
				Discrepancies: []models.ScrubDiscrepancy{
					{FieldName: "Revision", JobBossValue: "C", CustomerValue: "D", Severity: "Critical"},
				},
			},
			{
				Position:   2,
				MatchType:  "Missing From Customer",
				CustomerPO: "PO-3", PartNumber: "PART-C",
				JobBossSalesOrder:   "SO-3",
				JobBossOrderQty:     decimal.NewFromInt(5),
				JobBossUnitPrice:    decimal.RequireFromString("2.5"),
				JobBossPromisedDate: &promised,
			},
		},
	}
}

func TestBuildScrubWorkbookSheets(t *testing.T) {
	f, err := BuildScrubWorkbook(sampleReport())
	if err != nil {
		t.Fatalf("BuildScrubWorkbook: %v", err)
	}
	defer f.Close()

	want := map[string]bool{summarySheet: true, detailSheet: true, missingSheet: true}
	for _, name := range f.GetSheetList() {
		delete(want, name)
		if name == "Sheet1" {
			t.Error("default sheet should be removed")
		}
	}
	if len(want) != 0 {
		t.Errorf("missing sheets: %v", want)
	}
}

func TestBuildScrubWorkbookSummaryValues(t *testing.T) {
	f, err := BuildScrubWorkbook(sampleReport())
	if err != nil {
		t.Fatalf("BuildScrubWorkbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue(summarySheet, "B1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "r-100" {
		t.Errorf("B1 = %q, want report number", got)
	}
	got, _ = f.GetCellValue(summarySheet, "B8")
	if got != "3" {
		t.Errorf("total orders cell = %q, want 3", got)
	}
}

func TestBuildScrubWorkbookDetailRows(t *testing.T) {
	f, err := BuildScrubWorkbook(sampleReport())
	if err != nil {
		t.Fatalf("BuildScrubWorkbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(detailSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("detail rows = %d, want header + 3", len(rows))
	}
	if rows[1][0] != "Perfect Match" || rows[1][1] != "PO-1" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][0] != "Critical" {
		t.Errorf("second row match type = %q", rows[2][0])
	}
	discrepancyCol := len(detailHeaders) - 1
	if len(rows[2]) <= discrepancyCol || rows[2][discrepancyCol] != "Revision (Critical): C vs D" {
		t.Errorf("discrepancy summary row = %v", rows[2])
	}
}

func TestBuildScrubWorkbookMissingSheet(t *testing.T) {
	f, err := BuildScrubWorkbook(sampleReport())
	if err != nil {
		t.Fatalf("BuildScrubWorkbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(missingSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("missing rows = %d, want header + 1", len(rows))
	}
	if rows[1][0] != "Customer" || rows[1][1] != "PO-3" {
		t.Errorf("missing row = %v", rows[1])
	}
	if rows[1][5] != "5" || rows[1][6] != "2.5" {
		t.Errorf("missing qty/price = %v", rows[1])
	}
}
