// Package ingest parses uploaded trip spreadsheets into domain records.
package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

// requiredColumns is the header contract for uploads. Order in the file
// does not matter; every name must be present.
var requiredColumns = []string{
	"部門", "姓名", "計畫別", "起點名稱",
	"出差日期時間（開始）", "出差日期時間（結束）", "目的地名稱", "是否自駕",
}

// timeLayouts are accepted in order. Excelize returns cell text, so the
// same column may carry ISO strings or Excel's display format depending
// on how the workbook was authored.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01-02-06 15:04",
}

// ParseWorkbook reads the first sheet of an .xlsx upload into trip
// records, preserving file order. Header validation is aggregated: a
// file missing three columns reports all three at once, wrapped in
// domain.ErrValidation.
func ParseWorkbook(data []byte) ([]domain.TripRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ingest.ParseWorkbook: %w: not a readable .xlsx file", domain.ErrValidation)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("ingest.ParseWorkbook: %w: workbook has no sheets", domain.ErrValidation)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("ingest.ParseWorkbook: %w: %v", domain.ErrValidation, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ingest.ParseWorkbook: %w: sheet %q is empty", domain.ErrValidation, sheet)
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, fmt.Errorf("ingest.ParseWorkbook: %w", err)
	}

	var records []domain.TripRecord
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("ingest.ParseWorkbook: row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("ingest.ParseWorkbook: %w: no trip rows found", domain.ErrValidation)
	}
	return records, nil
}

// headerIndex maps each required column name to its position in the
// header row. Missing columns are collected into a single error.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	var missing error
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = multierr.Append(missing, fmt.Errorf("missing column %q", col))
		}
	}
	if missing != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, missing)
	}
	return index, nil
}

func parseRow(row []string, index map[string]int) (domain.TripRecord, error) {
	get := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := domain.TripRecord{
		Department:  get("部門"),
		PersonName:  get("姓名"),
		Project:     get("計畫別"),
		Origin:      get("起點名稱"),
		Destination: get("目的地名稱"),
		Driving:     parseDriving(get("是否自駕")),
	}

	if rec.Origin == "" {
		return domain.TripRecord{}, fmt.Errorf("%w: 起點名稱 is empty", domain.ErrValidation)
	}
	if rec.Destination == "" {
		return domain.TripRecord{}, fmt.Errorf("%w: 目的地名稱 is empty", domain.ErrValidation)
	}

	var err error
	if rec.StartTime, err = parseTime(get("出差日期時間（開始）")); err != nil {
		return domain.TripRecord{}, fmt.Errorf("%w: 出差日期時間（開始）: %v", domain.ErrValidation, err)
	}
	if rec.EndTime, err = parseTime(get("出差日期時間（結束）")); err != nil {
		return domain.TripRecord{}, fmt.Errorf("%w: 出差日期時間（結束）: %v", domain.ErrValidation, err)
	}
	return rec, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// parseDriving reads the 是否自駕 flag. Y, y, and 是 mean driving;
// anything else is not.
func parseDriving(s string) bool {
	switch strings.ToUpper(s) {
	case "Y", "YES", "是":
		return true
	}
	return false
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
