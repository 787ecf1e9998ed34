package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/ingest"
)

var fullHeader = []any{
	"部門", "姓名", "計畫別", "起點名稱",
	"出差日期時間（開始）", "出差日期時間（結束）", "目的地名稱", "是否自駕",
}

// buildUpload assembles an .xlsx in memory with the given rows.
func buildUpload(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func validRow() []any {
	return []any{
		"安環處", "張三", "IDA智慧工安", "安環高雄處",
		"2024-10-22T09:00:00", "2024-10-22T17:00:00", "管理局", "Y",
	}
}

// ---- ParseWorkbook tests ---------------------------------------------------

func TestParseWorkbook_ValidUpload(t *testing.T) {
	data := buildUpload(t, fullHeader, validRow())

	records, err := ingest.ParseWorkbook(data)

	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "安環處", rec.Department)
	assert.Equal(t, "張三", rec.PersonName)
	assert.Equal(t, "IDA智慧工安", rec.Project)
	assert.Equal(t, "安環高雄處", rec.Origin)
	assert.Equal(t, "管理局", rec.Destination)
	assert.True(t, rec.Driving)
	assert.Equal(t, 2024, rec.StartTime.Year())
	assert.Equal(t, 9, rec.StartTime.Hour())
}

func TestParseWorkbook_ColumnOrderDoesNotMatter(t *testing.T) {
	header := []any{
		"姓名", "部門", "目的地名稱", "起點名稱",
		"計畫別", "是否自駕", "出差日期時間（開始）", "出差日期時間（結束）",
	}
	row := []any{
		"張三", "安環處", "管理局", "安環高雄處",
		"IDA智慧工安", "N", "2024-10-22 09:00", "2024-10-22 17:00",
	}
	data := buildUpload(t, header, row)

	records, err := ingest.ParseWorkbook(data)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "安環高雄處", records[0].Origin)
	assert.Equal(t, "管理局", records[0].Destination)
	assert.False(t, records[0].Driving)
}

func TestParseWorkbook_MissingColumns_ReportsAllAtOnce(t *testing.T) {
	header := []any{"部門", "姓名", "計畫別", "起點名稱", "出差日期時間（開始）"}
	data := buildUpload(t, header, []any{"安環處", "張三", "IDA", "起點", "2024-10-22"})

	_, err := ingest.ParseWorkbook(data)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	// All missing columns in one error, not one round trip per column.
	assert.Contains(t, err.Error(), "出差日期時間（結束）")
	assert.Contains(t, err.Error(), "目的地名稱")
	assert.Contains(t, err.Error(), "是否自駕")
}

func TestParseWorkbook_NotAnXLSX(t *testing.T) {
	_, err := ingest.ParseWorkbook([]byte("this is not a spreadsheet"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseWorkbook_HeaderOnly(t *testing.T) {
	data := buildUpload(t, fullHeader)

	_, err := ingest.ParseWorkbook(data)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseWorkbook_BlankRowsSkipped(t *testing.T) {
	blank := []any{"", "", "", "", "", "", "", ""}
	data := buildUpload(t, fullHeader, validRow(), blank, validRow())

	records, err := ingest.ParseWorkbook(data)

	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestParseWorkbook_EmptyOrigin(t *testing.T) {
	row := validRow()
	row[3] = "  "
	data := buildUpload(t, fullHeader, row)

	_, err := ingest.ParseWorkbook(data)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "起點名稱")
}

func TestParseWorkbook_BadTime(t *testing.T) {
	row := validRow()
	row[4] = "下週二早上"
	data := buildUpload(t, fullHeader, row)

	_, err := ingest.ParseWorkbook(data)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	// The error names the row so the operator can fix the sheet.
	assert.Contains(t, err.Error(), "row 2")
}

func TestParseWorkbook_DrivingFlagVariants(t *testing.T) {
	cases := []struct {
		flag string
		want bool
	}{
		{"Y", true}, {"y", true}, {"是", true}, {"YES", true},
		{"N", false}, {"n", false}, {"否", false}, {"", false},
	}
	for _, c := range cases {
		row := validRow()
		row[7] = c.flag
		data := buildUpload(t, fullHeader, row)

		records, err := ingest.ParseWorkbook(data)

		require.NoError(t, err, "flag %q", c.flag)
		assert.Equal(t, c.want, records[0].Driving, "flag %q", c.flag)
	}
}
