package imports

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/scrub_backend/scrub"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("DeleteSheet: %v", err)
		}
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestParseJobBossWorkbook(t *testing.T) {
	buf := buildWorkbook(t, "Open Orders", [][]interface{}{
		{"Open Sales Orders Report"}, // title row above header
		{"Sales Order", "Customer PO", "Part Number", "Rev", "Order Qty", "Open Qty", "Unit Price", "Promised Date"},
		{"SO-1001", "PO-100", "X1", "A", "10", "10", "5.00", "2026-03-01"},
		{}, // blank, skipped
		{"SO-1002", "PO-101", "X2", "B", "4", "2", "12.50", ""},
	})

	rows, err := ParseJobBossWorkbook(buf, "jobboss.xlsx")
	if err != nil {
		t.Fatalf("ParseJobBossWorkbook error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Source != scrub.SourceJobBoss || first.RowNum != 3 {
		t.Fatalf("unexpected provenance: %+v", first)
	}
	if first.CustomerPO != "PO-100" || first.PartNumber != "X1" || first.SalesOrder != "SO-1001" {
		t.Fatalf("column mapping wrong: %+v", first)
	}
	if first.OrderQty != "10" || first.UnitPrice != "5.00" || first.PromisedDate != "2026-03-01" {
		t.Fatalf("value columns wrong: %+v", first)
	}
	if rows[1].RowNum != 5 {
		t.Fatalf("blank row should not shift row numbers: %+v", rows[1])
	}
}

func TestParseCustomerWorkbook_AliasHeaders(t *testing.T) {
	buf := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"PO Number", "Item", "Rev", "Quantity", "Price Each", "Due Date"},
		{"PO-100", "X1", "A", "10", "5.00", "3/1/2026"},
	})

	rows, err := ParseCustomerWorkbook(buf, "customer.xlsx")
	if err != nil {
		t.Fatalf("ParseCustomerWorkbook error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.CustomerPO != "PO-100" || r.PartNumber != "X1" || r.OrderQty != "10" || r.UnitPrice != "5.00" {
		t.Fatalf("alias mapping wrong: %+v", r)
	}
	if r.PromisedDate != "3/1/2026" {
		t.Fatalf("due date should map to promised date: %+v", r)
	}
	if r.OpenQty != "" || r.ShipDate != "" {
		t.Fatalf("absent optional columns should come back blank: %+v", r)
	}
}

func TestParseWorkbook_MissingRequiredColumn(t *testing.T) {
	buf := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"PO Number", "Rev", "Quantity", "Unit Price"}, // no part number
		{"PO-100", "A", "10", "5.00"},
	})

	_, err := ParseCustomerWorkbook(buf, "customer.xlsx")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.FileName != "customer.xlsx" {
		t.Fatalf("file name lost: %+v", pe)
	}
}

func TestParseWorkbook_NoDataRows(t *testing.T) {
	buf := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"PO Number", "Part Number", "Quantity", "Unit Price"},
	})

	_, err := ParseCustomerWorkbook(buf, "customer.xlsx")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestParseWorkbook_NotASpreadsheet(t *testing.T) {
	_, err := ParseJobBossWorkbook(bytes.NewReader([]byte("not an xlsx")), "garbage.bin")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}
