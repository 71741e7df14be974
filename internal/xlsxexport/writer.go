// Package xlsxexport renders valuation records as an Excel workbook for
// manager review outside the application.
package xlsxexport

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"propval/internal/domain"
)

// Fixed columns written before the payload fields.
var baseHeaders = []string{
	"Unique ID",
	"State",
	"Owner",
	"Last Updated By",
	"Last Updated Role",
	"Last Updated At",
	"Manager Feedback",
	"Submitted By Manager",
	"Rework Comments",
	"Created At",
}

// Write renders the records as a single-sheet xlsx workbook. Payload fields
// become columns after the fixed ones, unioned across all records and sorted
// by name so the layout is stable regardless of record order.
func Write(w io.Writer, variant domain.FormVariant, records []domain.ValuationRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := string(variant)
	f.SetSheetName(f.GetSheetName(0), sheet)

	payloads := make([]map[string]interface{}, len(records))
	payloadKeys := map[string]bool{}
	for i, rec := range records {
		if len(rec.Payload) == 0 {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal(rec.Payload, &m); err != nil {
			return fmt.Errorf("xlsxexport: record %s payload: %w", rec.UniqueID, err)
		}
		payloads[i] = m
		for k := range m {
			payloadKeys[k] = true
		}
	}
	extraHeaders := make([]string, 0, len(payloadKeys))
	for k := range payloadKeys {
		extraHeaders = append(extraHeaders, k)
	}
	sort.Strings(extraHeaders)

	headers := append(append([]string{}, baseHeaders...), extraHeaders...)
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("xlsxexport: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsxexport: write header: %w", err)
		}
	}

	for i, rec := range records {
		values := []interface{}{
			rec.UniqueID,
			string(rec.State),
			rec.OwnerUsername,
			rec.LastUpdatedBy,
			string(rec.LastUpdatedByRole),
			formatTime(rec.LastUpdatedAt),
			rec.ManagerFeedback,
			rec.SubmittedByManager,
			rec.ReworkComments,
			formatTime(rec.CreatedAt),
		}
		for _, k := range extraHeaders {
			if payloads[i] != nil {
				values = append(values, cellValue(payloads[i][k]))
			} else {
				values = append(values, "")
			}
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("xlsxexport: data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsxexport: write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsxexport: write workbook: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// cellValue flattens payload values so nested objects still export legibly.
func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, float64:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
