package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"leavesys/internal/domain/leave"
)

// Core PDF fonts carry no CJK glyphs, so the report uses English category
// names and employee ids; the XLSX and CSV exports carry the localized
// values.
var pdfCategoryNames = map[leave.Category]string{
	leave.CategoryPersonal:    "Personal",
	leave.CategorySick:        "Sick",
	leave.CategoryMenstrual:   "Menstrual",
	leave.CategoryAnnual:      "Annual",
	leave.CategoryOfficial:    "Official",
	leave.CategoryBereavement: "Bereavement",
}

// UsagePDFName returns the report name, leave_usage_<year>.pdf.
func UsagePDFName(year int) string {
	return fmt.Sprintf("leave_usage_%d.pdf", year)
}

// UsagePDF renders the per-employee consumption table for one year.
func UsagePDF(rows []leave.UsageRow, year int) (*bytes.Buffer, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Leave Usage Report %d", year))
	pdf.Ln(12)

	const idWidth = 40.0
	const colWidth = 28.0

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(idWidth, 8, "Employee", "1", 0, "L", false, 0, "")
	for _, c := range leave.Categories() {
		pdf.CellFormat(colWidth, 8, pdfCategoryNames[c], "1", 0, "C", false, 0, "")
	}
	pdf.CellFormat(colWidth, 8, "Total", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(idWidth, 8, row.EmployeeID, "1", 0, "L", false, 0, "")
		total := decimal.Zero
		for _, c := range leave.Categories() {
			hours := row.Consumed[c]
			total = total.Add(hours)
			pdf.CellFormat(colWidth, 8, hours.StringFixed(1), "1", 0, "R", false, 0, "")
		}
		pdf.CellFormat(colWidth, 8, total.StringFixed(1), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
