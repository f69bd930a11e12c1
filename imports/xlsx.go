// Package imports parses uploaded order workbooks into the raw rows the
// reconciliation engine consumes. Column headers vary between JobBoss
// exports and customer lists, so header recognition is alias-based and
// case-insensitive; any structural problem fails the whole upload with a
// *ParseError before the engine ever runs.
package imports

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/scrub_backend/scrub"
)

// ParseError reports a malformed workbook: wrong sheet layout, missing
// required columns, unreadable file.
type ParseError struct {
	FileName string
	Sheet    string
	Row      int
	Reason   string
}

func (e *ParseError) Error() string {
	msg := e.FileName
	if e.Sheet != "" {
		msg += " sheet " + e.Sheet
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	return msg + ": " + e.Reason
}

// headerRowSearchLimit caps how deep we look for a header row; real
// exports put it within the first few rows, after an optional title block.
const headerRowSearchLimit = 10

type columnSpec struct {
	field    string
	required bool
	aliases  []string
}

// JobBoss "Open Sales Orders" export layout.
var jobBossColumns = []columnSpec{
	{field: "CustomerPO", required: true, aliases: []string{"customer po", "cust po", "po number", "po"}},
	{field: "PartNumber", required: true, aliases: []string{"part number", "part", "part no", "item"}},
	{field: "Revision", aliases: []string{"rev", "revision"}},
	{field: "SalesOrder", aliases: []string{"sales order", "so number", "so", "job"}},
	{field: "OrderQty", required: true, aliases: []string{"order qty", "qty ordered", "order quantity", "qty"}},
	{field: "OpenQty", aliases: []string{"open qty", "qty open", "balance qty", "remaining qty"}},
	{field: "UnitPrice", required: true, aliases: []string{"unit price", "price", "unit cost"}},
	{field: "PromisedDate", aliases: []string{"promised date", "promise date", "due date"}},
	{field: "ShipDate", aliases: []string{"ship date", "shipping date", "ship by"}},
}

// Customer order lists are looser; quantity and price headers drift more.
var customerColumns = []columnSpec{
	{field: "CustomerPO", required: true, aliases: []string{"po number", "customer po", "po", "purchase order"}},
	{field: "PartNumber", required: true, aliases: []string{"part number", "part", "item", "item number", "material"}},
	{field: "Revision", aliases: []string{"rev", "revision"}},
	{field: "SalesOrder", aliases: []string{"order number", "sales order", "line", "line number"}},
	{field: "OrderQty", required: true, aliases: []string{"qty", "quantity", "order qty", "qty ordered"}},
	{field: "OpenQty", aliases: []string{"open qty", "balance", "qty open", "outstanding"}},
	{field: "UnitPrice", required: true, aliases: []string{"unit price", "price", "price each", "unit cost"}},
	{field: "PromisedDate", aliases: []string{"due date", "promised date", "delivery date", "dock date"}},
	{field: "ShipDate", aliases: []string{"ship date", "shipping date"}},
}

// ParseJobBossWorkbook reads a JobBoss open-orders export.
func ParseJobBossWorkbook(r io.Reader, fileName string) ([]scrub.RawOrderRow, error) {
	return parseWorkbook(r, fileName, scrub.SourceJobBoss, jobBossColumns)
}

// ParseCustomerWorkbook reads a customer-provided order list.
func ParseCustomerWorkbook(r io.Reader, fileName string) ([]scrub.RawOrderRow, error) {
	return parseWorkbook(r, fileName, scrub.SourceCustomer, customerColumns)
}

func parseWorkbook(r io.Reader, fileName string, source scrub.Source, specs []columnSpec) ([]scrub.RawOrderRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Reason: "cannot open workbook: " + err.Error()}
	}
	defer f.Close()

	// Pick the first sheet carrying a recognizable header row.
	var sheet string
	var headerRow int
	var columns map[string]int
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if rowIdx, mapped := findHeaderRow(rows, specs); mapped != nil {
			sheet, headerRow, columns = name, rowIdx, mapped
			break
		}
	}
	if columns == nil {
		return nil, &ParseError{
			FileName: fileName,
			Reason:   "no sheet with the required columns (" + requiredList(specs) + ")",
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Sheet: sheet, Reason: "cannot read rows: " + err.Error()}
	}

	var out []scrub.RawOrderRow
	for i := headerRow + 1; i < len(rows); i++ {
		if isBlankRow(rows[i]) {
			continue
		}
		out = append(out, scrub.RawOrderRow{
			Source:       source,
			RowNum:       i + 1, // 1-based, as shown in Excel
			CustomerPO:   cell(rows[i], columns["CustomerPO"]),
			PartNumber:   cell(rows[i], columns["PartNumber"]),
			Revision:     cell(rows[i], columns["Revision"]),
			SalesOrder:   cell(rows[i], columns["SalesOrder"]),
			OrderQty:     cell(rows[i], columns["OrderQty"]),
			OpenQty:      cell(rows[i], columns["OpenQty"]),
			UnitPrice:    cell(rows[i], columns["UnitPrice"]),
			PromisedDate: cell(rows[i], columns["PromisedDate"]),
			ShipDate:     cell(rows[i], columns["ShipDate"]),
		})
	}
	if len(out) == 0 {
		return nil, &ParseError{FileName: fileName, Sheet: sheet, Row: headerRow + 1, Reason: "no data rows below header"}
	}
	return out, nil
}

// findHeaderRow scans the top of the sheet for a row matching every
// required column alias. Returns the 0-based row index and a field ->
// column index map; optional fields that are absent map to -1.
func findHeaderRow(rows [][]string, specs []columnSpec) (int, map[string]int) {
	limit := len(rows)
	if limit > headerRowSearchLimit {
		limit = headerRowSearchLimit
	}
	for i := 0; i < limit; i++ {
		mapped := matchHeader(rows[i], specs)
		if mapped != nil {
			return i, mapped
		}
	}
	return 0, nil
}

func matchHeader(row []string, specs []columnSpec) map[string]int {
	mapped := make(map[string]int, len(specs))
	for _, spec := range specs {
		mapped[spec.field] = -1
	}
	for col, raw := range row {
		header := strings.ToLower(strings.TrimSpace(raw))
		if header == "" {
			continue
		}
		for _, spec := range specs {
			if mapped[spec.field] != -1 {
				continue
			}
			for _, alias := range spec.aliases {
				if header == alias {
					mapped[spec.field] = col
					break
				}
			}
		}
	}
	for _, spec := range specs {
		if spec.required && mapped[spec.field] == -1 {
			return nil
		}
	}
	return mapped
}

func requiredList(specs []columnSpec) string {
	var names []string
	for _, spec := range specs {
		if spec.required {
			names = append(names, spec.aliases[0])
		}
	}
	return strings.Join(names, ", ")
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
