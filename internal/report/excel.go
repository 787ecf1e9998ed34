// Package report assembles export artifacts from resolved trips: Excel
// workbooks, per-project Word documents, and the multi-document ZIP
// batch. Builders return bytes; handlers decide filenames and headers.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
)

const sheetName = "里程報表"

// recordHeaders is the original upload column shape, preserved in order.
var recordHeaders = []string{
	"部門", "姓名", "計畫別", "起點名稱",
	"出差日期時間（開始）", "出差日期時間（結束）", "目的地名稱", "是否自駕",
}

// computedHeaders is appended after the original columns.
var computedHeaders = []string{
	"單程公里", "往返公里", "預估時間(分)", "導航連結", "錯誤",
}

// BuildWorkbook renders resolved trips as an .xlsx workbook: the original
// row shape in the original row order, with the computed columns appended.
// Failed records keep their original cells and carry the failure message
// in the 錯誤 column instead of being dropped.
func BuildWorkbook(trips []domain.ResolvedTrip) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("report.BuildWorkbook: %w", err)
	}

	headers := append(append([]string{}, recordHeaders...), computedHeaders...)
	if err := writeHeaderRow(f, headers); err != nil {
		return nil, fmt.Errorf("report.BuildWorkbook: %w", err)
	}

	for i, t := range trips {
		row := i + 2
		cells := []any{
			t.Record.Department,
			t.Record.PersonName,
			t.Record.Project,
			t.Record.Origin,
			formatTime(t.Record.StartTime),
			formatTime(t.Record.EndTime),
			t.Record.Destination,
			drivingFlag(t.Record.Driving),
		}
		if res := t.Result.Success; res != nil {
			cells = append(cells, res.DistanceKm, res.RoundTripKm, res.DurationMinutes, res.NavigationURL, "")
		} else if fail := t.Result.Failure; fail != nil {
			cells = append(cells, "", "", "", "", fail.Message)
		} else {
			cells = append(cells, "", "", "", "", "未計算")
		}

		for col, v := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("report.BuildWorkbook: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("report.BuildWorkbook: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report.BuildWorkbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildTemplate renders the empty upload template: the required header
// row plus one example row showing the expected formats.
func BuildTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "範本"); err != nil {
		return nil, fmt.Errorf("report.BuildTemplate: %w", err)
	}

	if err := writeHeaderRowOn(f, "範本", recordHeaders); err != nil {
		return nil, fmt.Errorf("report.BuildTemplate: %w", err)
	}

	example := []any{
		"安環處", "張三", "IDA智慧工安", "安環高雄處",
		"2024-10-22T09:00:00", "2024-10-22T17:00:00", "經濟部產業園區管理局", "Y",
	}
	for col, v := range example {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return nil, fmt.Errorf("report.BuildTemplate: %w", err)
		}
		if err := f.SetCellValue("範本", cell, v); err != nil {
			return nil, fmt.Errorf("report.BuildTemplate: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report.BuildTemplate: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeaderRow(f *excelize.File, headers []string) error {
	return writeHeaderRowOn(f, sheetName, headers)
}

// writeHeaderRowOn writes a bold white-on-blue header row, the same
// styling the original upload template shipped with.
func writeHeaderRowOn(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 25); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "M", 22)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04:05")
}

func drivingFlag(driving bool) string {
	if driving {
		return "Y"
	}
	return "N"
}
