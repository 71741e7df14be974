package csvexport

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"propval/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (16 columns).
var columns = []string{
	"Unique ID",
	"State",
	"Owner",
	"Last Updated By",
	"Last Updated Role",
	"Last Updated At",
	"Manager Feedback",
	"Submitted By Manager",
	"Rework Comments",
	"Rework Requested By",
	"Rework Requested At",
	"City",
	"Bank Name",
	"Property Address",
	"Valuation Amount",
	"Created At",
}

// Writer wraps csv.Writer for exporting valuation records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the 16-column header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRecords converts a batch of valuation records to CSV rows and writes them.
func (w *Writer) WriteRecords(records []domain.ValuationRecord) error {
	for i := range records {
		row := recordToRow(&records[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// recordToRow converts a single record to a 16-element string slice.
// Lifecycle columns are always filled; payload columns are left empty
// when the payload is missing or malformed.
func recordToRow(rec *domain.ValuationRecord) []string {
	row := make([]string, len(columns))

	row[0] = rec.UniqueID
	row[1] = string(rec.State)
	row[2] = rec.OwnerUsername
	row[3] = rec.LastUpdatedBy
	row[4] = string(rec.LastUpdatedByRole)
	row[5] = rec.LastUpdatedAt.Format(time.RFC3339)
	row[6] = rec.ManagerFeedback
	row[7] = formatBool(rec.SubmittedByManager)
	row[8] = rec.ReworkComments
	row[9] = rec.ReworkRequestedBy
	row[10] = formatTime(rec.ReworkRequestedAt)
	row[15] = rec.CreatedAt.Format(time.RFC3339)

	if len(rec.Payload) == 0 {
		return row
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return row
	}

	row[11] = payloadString(payload, "city")
	row[12] = payloadString(payload, "bankName")
	row[13] = payloadString(payload, "propertyAddress")
	row[14] = payloadString(payload, "valuationAmount")

	return row
}

// payloadString extracts a payload field as a string, tolerating numeric values.
func payloadString(payload map[string]interface{}, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a variant or client name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
