package xlsxexport_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"propval/internal/domain"
	"propval/internal/xlsxexport"
)

func workbookRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWrite_PayloadColumnsUnionedAndSorted(t *testing.T) {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	records := []domain.ValuationRecord{
		{
			UniqueID:      "VAL-001",
			OwnerUsername: "alice",
			State:         domain.StateApproved,
			CreatedAt:     created,
			Payload:       json.RawMessage(`{"city":"Pune","bankName":"UBI"}`),
		},
		{
			UniqueID:      "VAL-002",
			OwnerUsername: "bob",
			State:         domain.StatePending,
			CreatedAt:     created,
			Payload:       json.RawMessage(`{"city":"Nagpur","carpetArea":820}`),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, xlsxexport.Write(&buf, domain.VariantUBIAPF, records))

	rows := workbookRows(t, &buf, string(domain.VariantUBIAPF))
	require.Len(t, rows, 3)

	header := rows[0]
	require.Len(t, header, 13)
	assert.Equal(t, "Unique ID", header[0])
	assert.Equal(t, "Created At", header[9])
	// Union of payload keys, sorted, after the fixed columns.
	assert.Equal(t, []string{"bankName", "carpetArea", "city"}, header[10:])

	assert.Equal(t, "VAL-001", rows[1][0])
	assert.Equal(t, "approved", rows[1][1])
	assert.Equal(t, "UBI", rows[1][10])
	assert.Equal(t, "Pune", rows[1][12])

	// VAL-002 has no bankName; cell stays empty.
	assert.Equal(t, "820", rows[2][11])
	assert.Equal(t, "Nagpur", rows[2][12])
}

func TestWrite_EmptyPayload(t *testing.T) {
	records := []domain.ValuationRecord{{
		UniqueID:      "VAL-003",
		OwnerUsername: "alice",
		State:         domain.StatePending,
	}}

	var buf bytes.Buffer
	require.NoError(t, xlsxexport.Write(&buf, domain.VariantBOMFlat, records))

	rows := workbookRows(t, &buf, string(domain.VariantBOMFlat))
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 10)
	assert.Equal(t, "VAL-003", rows[1][0])
}

func TestWrite_MalformedPayloadErrors(t *testing.T) {
	records := []domain.ValuationRecord{{
		UniqueID: "VAL-004",
		Payload:  json.RawMessage(`not json`),
	}}

	var buf bytes.Buffer
	err := xlsxexport.Write(&buf, domain.VariantUBIShop, records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAL-004")
}

func TestWrite_NestedPayloadValueFlattened(t *testing.T) {
	records := []domain.ValuationRecord{{
		UniqueID: "VAL-005",
		Payload:  json.RawMessage(`{"boundaries":{"north":"road","south":"plot 7"}}`),
	}}

	var buf bytes.Buffer
	require.NoError(t, xlsxexport.Write(&buf, domain.VariantUBIAPF, records))

	rows := workbookRows(t, &buf, string(domain.VariantUBIAPF))
	require.Len(t, rows, 2)
	assert.JSONEq(t, `{"north":"road","south":"plot 7"}`, rows[1][10])
}