package reports

import (
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/scrub_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	detailSheet  = "Order Detail"
	missingSheet = "Missing Orders"
)

var severityFillColors = map[string]string{
	"Critical": "FFC7CE",
	"High":     "FFEB9C",
	"Medium":   "BDD7EE",
}

// BuildScrubWorkbook renders a stored report as a three sheet workbook.
func BuildScrubWorkbook(report *models.ScrubReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, report); err != nil {
		return nil, err
	}
	if err := writeDetailSheet(f, report); err != nil {
		return nil, err
	}
	if err := writeMissingSheet(f, report); err != nil {
		return nil, err
	}

	// NewFile starts with a default Sheet1 we never use.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(summarySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func writeSummarySheet(f *excelize.File, report *models.ScrubReport) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Scrub Report", report.ReportNumber},
		{"Customer", report.CustomerName},
		{"JobBoss File", report.JobBossFileName},
		{"Customer File", report.CustomerFileName},
		{"Requested By", report.RequestedBy},
		{"Created At", report.CreatedAt.UTC().Format(time.RFC3339)},
		{},
		{"Total Orders", report.TotalOrders},
		{"Perfect Matches", report.PerfectMatches},
		{"Critical Issues", report.CriticalIssues},
		{"High Issues", report.HighIssues},
		{"Medium Issues", report.MediumIssues},
		{"Missing From Customer", report.MissingFromCustomer},
		{"Missing From JobBoss", report.MissingFromJobBoss},
	}
	for i, row := range rows {
		cell := "A" + fmt.Sprint(i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(summarySheet, "A1", "A"+fmt.Sprint(len(rows)), labelStyle)
}

var detailHeaders = []interface{}{
	"Match Type", "Customer PO", "Part Number",
	"JB Sales Order", "JB Rev", "JB Order Qty", "JB Open Qty", "JB Unit Price", "JB Promised", "JB Ship",
	"Cust Order No", "Cust Rev", "Cust Order Qty", "Cust Open Qty", "Cust Unit Price", "Cust Promised",
	"Discrepancies",
}

func writeDetailSheet(f *excelize.File, report *models.ScrubReport) error {
	if _, err := f.NewSheet(detailSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(detailSheet, "A1", &detailHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(detailSheet, "A1", "Q1", headerStyle); err != nil {
		return err
	}

	fillStyles, err := buildSeverityFills(f)
	if err != nil {
		return err
	}

	for i := range report.Matches {
		m := &report.Matches[i]
		rowNo := i + 2
		row := []interface{}{
			string(m.MatchType), m.CustomerPO, m.PartNumber,
			m.JobBossSalesOrder, m.JobBossRevision,
			decimalCell(m.JobBossOrderQty), decimalCell(m.JobBossOpenQty), decimalCell(m.JobBossUnitPrice),
			dateCell(m.JobBossPromisedDate), dateCell(m.JobBossShipDate),
			m.CustomerOrderNumber, m.CustomerRevision,
			decimalCell(m.CustomerOrderQty), decimalCell(m.CustomerOpenQty), decimalCell(m.CustomerUnitPrice),
			dateCell(m.CustomerPromisedDate),
			summarizeDiscrepancies(m.Discrepancies),
		}
		if err := f.SetSheetRow(detailSheet, "A"+fmt.Sprint(rowNo), &row); err != nil {
			return err
		}
		if styleID, ok := fillStyles[string(m.MatchType)]; ok {
			if err := f.SetCellStyle(detailSheet, "A"+fmt.Sprint(rowNo), "Q"+fmt.Sprint(rowNo), styleID); err != nil {
				return err
			}
		}
	}
	return nil
}

var missingHeaders = []interface{}{
	"Missing From", "Customer PO", "Part Number", "Sales Order", "Revision", "Order Qty", "Unit Price",
}

func writeMissingSheet(f *excelize.File, report *models.ScrubReport) error {
	if _, err := f.NewSheet(missingSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(missingSheet, "A1", &missingHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(missingSheet, "A1", "G1", headerStyle); err != nil {
		return err
	}

	rowNo := 2
	for i := range report.Matches {
		m := &report.Matches[i]
		var row []interface{}
		switch m.MatchType {
		case "Missing From Customer":
			row = []interface{}{
				"Customer", m.CustomerPO, m.PartNumber,
				m.JobBossSalesOrder, m.JobBossRevision,
				decimalCell(m.JobBossOrderQty), decimalCell(m.JobBossUnitPrice),
			}
		case "Missing From JobBoss":
			row = []interface{}{
				"JobBoss", m.CustomerPO, m.PartNumber,
				m.CustomerOrderNumber, m.CustomerRevision,
				decimalCell(m.CustomerOrderQty), decimalCell(m.CustomerUnitPrice),
			}
		default:
			continue
		}
		if err := f.SetSheetRow(missingSheet, "A"+fmt.Sprint(rowNo), &row); err != nil {
			return err
		}
		rowNo++
	}
	return nil
}

func buildSeverityFills(f *excelize.File) (map[string]int, error) {
	styles := make(map[string]int, len(severityFillColors))
	for severity, color := range severityFillColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, err
		}
		styles[severity] = id
	}
	return styles, nil
}

func decimalCell(d decimal.Decimal) string {
	return d.String()
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func summarizeDiscrepancies(discrepancies []models.ScrubDiscrepancy) string {
	if len(discrepancies) == 0 {
		return ""
	}
	out := ""
	for i, d := range discrepancies {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s (%s): %s vs %s", d.FieldName, d.Severity, d.JobBossValue, d.CustomerValue)
	}
	return out
}
