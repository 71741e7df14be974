package csvexport_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propval/internal/csvexport"
	"propval/internal/domain"
)

func exportRecord() domain.ValuationRecord {
	updated := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	reworkAt := time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC)
	return domain.ValuationRecord{
		UniqueID:           "VAL-001",
		ClientID:           "bank-a",
		OwnerUsername:      "alice",
		State:              domain.StateRework,
		LastUpdatedBy:      "mgr",
		LastUpdatedByRole:  domain.RoleManager,
		LastUpdatedAt:      updated,
		ManagerFeedback:    "approved earlier",
		SubmittedByManager: true,
		ReworkComments:     "re-measure carpet area",
		ReworkRequestedBy:  "mgr",
		ReworkRequestedAt:  &reworkAt,
		CreatedAt:          updated,
		Payload:            json.RawMessage(`{"city":"Pune","bankName":"UBI","propertyAddress":"12 MG Road","valuationAmount":4500000}`),
	}
}

func writeCSV(t *testing.T, records []domain.ValuationRecord) [][]string {
	t.Helper()
	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteRecords(records))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter_HeaderAndRow(t *testing.T) {
	rows := writeCSV(t, []domain.ValuationRecord{exportRecord()})
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Len(t, header, 16)
	assert.Equal(t, "Unique ID", header[0])
	assert.Equal(t, "Created At", header[15])

	row := rows[1]
	assert.Equal(t, "VAL-001", row[0])
	assert.Equal(t, "rework", row[1])
	assert.Equal(t, "alice", row[2])
	assert.Equal(t, "Yes", row[7])
	assert.Equal(t, "re-measure carpet area", row[8])
	assert.Equal(t, "2026-03-15T11:00:00Z", row[10])
	assert.Equal(t, "Pune", row[11])
	assert.Equal(t, "UBI", row[12])
	assert.Equal(t, "12 MG Road", row[13])
	assert.Equal(t, "4500000", row[14])
}

func TestWriter_EmptyPayloadLeavesPayloadColumnsBlank(t *testing.T) {
	rec := exportRecord()
	rec.Payload = nil
	rec.SubmittedByManager = false
	rec.ReworkRequestedAt = nil

	rows := writeCSV(t, []domain.ValuationRecord{rec})
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "No", row[7])
	assert.Equal(t, "", row[10])
	for _, col := range []int{11, 12, 13, 14} {
		assert.Equal(t, "", row[col])
	}
}

func TestWriter_MalformedPayloadStillWritesLifecycleColumns(t *testing.T) {
	rec := exportRecord()
	rec.Payload = json.RawMessage(`{"city":`)

	rows := writeCSV(t, []domain.ValuationRecord{rec})
	require.Len(t, rows, 2)
	assert.Equal(t, "VAL-001", rows[1][0])
	assert.Equal(t, "", rows[1][11])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"passthrough", "ubi-apf_records", "ubi-apf_records"},
		{"spaces and slashes", "ubi apf/records", "ubi_apf_records"},
		{"collapses underscores", "a___b", "a_b"},
		{"trims edges", "__report__", "report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, csvexport.SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	got := csvexport.BuildFilename("bom-flat records")
	assert.Regexp(t, `^bom-flat_records_\d{4}-\d{2}-\d{2}\.csv$`, got)
}
