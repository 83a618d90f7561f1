package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ProgressRow is one aggregated scorecard line in a progress report.
type ProgressRow struct {
	SkillArea string
	SubTask   string
	Month     string
	Week      int
	Average   float64
	Entries   int
}

// ProgressReport carries everything the renderer needs for one student.
type ProgressReport struct {
	StudentName    string
	StudentCode    string
	ProgramNames   []string
	Rows           []ProgressRow
	OverallAverage float64
}

// PDFExporter renders progress reports. The layout is intentionally plain;
// consumers only depend on the bytes being a valid PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render produces the progress-report document.
func (e *PDFExporter) Render(report ProgressReport) ([]byte, error) {
	if report.StudentName == "" {
		return nil, fmt.Errorf("pdf requires a student name")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "PROGRESS REPORT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Student: %s (%s)", report.StudentName, report.StudentCode), "", 1, "", false, 0, "")
	for _, program := range report.ProgramNames {
		pdf.CellFormat(0, 6, fmt.Sprintf("Program: %s", program), "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Skill Area", "Sub Task", "Month", "Week", "Avg Score", "Entries"}
	widths := []float64{45, 45, 30, 18, 26, 26}

	pdf.SetFont("Arial", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range report.Rows {
		cells := []string{
			row.SkillArea,
			row.SubTask,
			row.Month,
			fmt.Sprintf("%d", row.Week),
			fmt.Sprintf("%.2f", row.Average),
			fmt.Sprintf("%d", row.Entries),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Overall average: %.2f / 5", report.OverallAverage), "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
