package scrub

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldFormatError reports one field that could not be normalized.
type FieldFormatError struct {
	Source Source
	RowNum int
	Field  string
	Value  string
	Reason string
}

func (e *FieldFormatError) Error() string {
	return fmt.Sprintf("%s row %d: field %s %q: %s", e.Source, e.RowNum, e.Field, e.Value, e.Reason)
}

// NormalizeError collects every bad row of a run so the caller can present
// all input problems at once. If any row fails, matching never runs.
type NormalizeError struct {
	Fields []*FieldFormatError
}

func (e *NormalizeError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0].Error()
	}
	return fmt.Sprintf("%d fields could not be normalized (first: %s)", len(e.Fields), e.Fields[0].Error())
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"1/2/06",
	"2-Jan-06",
	time.RFC3339,
}

// NormalizeRows canonicalizes a source's raw rows. Key fields are trimmed
// and case-folded for matching (display values preserved verbatim);
// numeric fields go through the tolerant parser; blank optional fields
// default to zero/empty. Pure transformation, no I/O.
func NormalizeRows(rows []RawOrderRow) ([]OrderRecord, error) {
	records := make([]OrderRecord, 0, len(rows))
	var bad []*FieldFormatError

	for _, row := range rows {
		record, errs := normalizeRow(row)
		if len(errs) > 0 {
			bad = append(bad, errs...)
			continue
		}
		records = append(records, record)
	}

	if len(bad) > 0 {
		return nil, &NormalizeError{Fields: bad}
	}
	return records, nil
}

func normalizeRow(row RawOrderRow) (OrderRecord, []*FieldFormatError) {
	var errs []*FieldFormatError

	record := OrderRecord{
		Source:     row.Source,
		RowNum:     row.RowNum,
		Key:        NewBusinessKey(row.CustomerPO, row.PartNumber),
		CustomerPO: strings.TrimSpace(row.CustomerPO),
		PartNumber: strings.TrimSpace(row.PartNumber),
		Revision:   strings.TrimSpace(row.Revision),
		SalesOrder: strings.TrimSpace(row.SalesOrder),
	}

	parseQty := func(field, value string) decimal.Decimal {
		d, err := ParseAmount(value)
		if err != nil {
			errs = append(errs, &FieldFormatError{
				Source: row.Source,
				RowNum: row.RowNum,
				Field:  field,
				Value:  value,
				Reason: "not a number",
			})
		}
		return d
	}
	record.OrderQty = parseQty("OrderQty", row.OrderQty)
	record.OpenQty = parseQty("OpenQty", row.OpenQty)
	record.UnitPrice = parseQty("UnitPrice", row.UnitPrice)

	parseDate := func(field, value string) *time.Time {
		t, err := parseLooseDate(value)
		if err != nil {
			errs = append(errs, &FieldFormatError{
				Source: row.Source,
				RowNum: row.RowNum,
				Field:  field,
				Value:  value,
				Reason: "not a date",
			})
		}
		return t
	}
	record.PromisedDate = parseDate("PromisedDate", row.PromisedDate)
	record.ShipDate = parseDate("ShipDate", row.ShipDate)

	return record, errs
}

// ParseAmount parses user-formatted numeric strings the way people type
// them into spreadsheets:
//   - "20,000"
//   - "$ 5.25"
//   - "USD 1,234.50"
//   - "(150)" for a negative
//
// Blank means zero. Keep digits, '.', and the sign only; anything with no
// digits left after stripping is an error.
func ParseAmount(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}

	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',', r == ' ', r == '$', r == '€', r == '£':
			// thousands separator / currency symbol, drop
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			// currency code prefix/suffix like "USD 1,234.50", drop
		default:
			return decimal.Zero, fmt.Errorf("invalid numeric value %q", value)
		}
	}
	clean := b.String()
	if clean == "" || clean == "." {
		return decimal.Zero, fmt.Errorf("invalid numeric value %q", value)
	}
	if neg {
		clean = "-" + clean
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numeric value %q", value)
	}
	return d, nil
}

func parseLooseDate(value string) (*time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date value %q", value)
}
