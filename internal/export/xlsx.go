package export

import (
	"bytes"
	"time"

	"github.com/xuri/excelize/v2"

	"leavesys/internal/domain/leave"
)

var recordHeaders = []string{
	"員工編號", "姓名", "假別", "開始日期", "開始時間", "結束日期", "結束時間",
	"請假時數", "事由", "審核狀態", "申請時間", "審核日期", "審核人",
}

// RecordsXLSXName returns the export name for one day,
// leave_records_<yyyymmdd>.xlsx.
func RecordsXLSXName(now time.Time) string {
	return "leave_records_" + now.Format("20060102") + ".xlsx"
}

// RecordsXLSX renders the records into a single-sheet workbook with the
// localized header row, in the order the records were given.
func RecordsXLSX(records []leave.Record) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if err := writeHeaderRow(f, sheet, recordHeaders); err != nil {
		return nil, err
	}

	for i, rec := range records {
		approvalDate := ""
		if rec.ApprovedAt != nil {
			approvalDate = rec.ApprovedAt.Format(time.RFC3339)
		}
		values := []any{
			rec.EmployeeID,
			rec.Name,
			string(rec.Category),
			rec.StartDate.Format("2006-01-02"),
			rec.StartTime,
			rec.EndDate.Format("2006-01-02"),
			rec.EndTime,
			rec.Hours.InexactFloat64(),
			rec.Reason,
			rec.Status.Label(),
			rec.AppliedAt.Format(time.RFC3339),
			approvalDate,
			rec.Approver,
		}
		for col, value := range values {
			if err := writeCell(f, sheet, col+1, i+2, value); err != nil {
				return nil, err
			}
		}
	}

	f.SetSheetName(sheet, "請假紀錄")
	return f.WriteToBuffer()
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, 1)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return err
	}
	for idx, value := range headers {
		if err := writeCell(f, sheet, idx+1, 1, value); err != nil {
			return err
		}
	}
	return nil
}

func writeCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
