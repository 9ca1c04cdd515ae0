package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-grade-report/internal/models"
	"github.com/noah-isme/sma-grade-report/internal/repository"
	"github.com/noah-isme/sma-grade-report/pkg/export"
)

var reportHeaders = []string{"Student ID", "Student Name", "Course Code", "Final Grade"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportService flattens a student directory into sorted report rows and renders them.
type ReportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewReportService constructs ReportService, falling back to the default exporters.
func NewReportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{csv: csv, pdf: pdf, logger: logger}
}

// Aggregate returns one row per enrollment ordered by student id. Rows of the same student keep
// their enrollment order. The directory is only read.
func (s *ReportService) Aggregate(dir *repository.StudentDirectory) []models.ReportRow {
	rows := make([]models.ReportRow, 0, dir.EnrollmentCount())
	for _, student := range dir.Students() {
		for _, course := range student.Courses() {
			rows = append(rows, models.ReportRow{
				StudentID:   student.ID(),
				StudentName: student.Name(),
				CourseCode:  course.Code(),
				FinalGrade:  course.FinalGrade(),
			})
		}
	}
	SortRows(rows)
	return rows
}

// SortRows orders rows by student id with a stable sort.
func SortRows(rows []models.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StudentID < rows[j].StudentID
	})
}

// FormatLine renders a row as `id, name, code, grade` with one decimal place.
func FormatLine(row models.ReportRow) string {
	return fmt.Sprintf("%s, %s, %s, %s", row.StudentID, row.StudentName, row.CourseCode, formatGrade(row.FinalGrade))
}

// FormatLines renders every row with FormatLine.
func FormatLines(rows []models.ReportRow) []string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = FormatLine(row)
	}
	return lines
}

// Render encodes rows in the requested format. An empty format means text.
func (s *ReportService) Render(rows []models.ReportRow, format models.ReportFormat, title string) ([]byte, error) {
	switch format {
	case "", models.ReportFormatText:
		if len(rows) == 0 {
			return []byte{}, nil
		}
		return []byte(strings.Join(FormatLines(rows), "\n") + "\n"), nil
	case models.ReportFormatCSV:
		return s.csv.Render(dataset(rows, title))
	case models.ReportFormatPDF:
		return s.pdf.Render(dataset(rows, title))
	case models.ReportFormatJSON:
		payload, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("encode report json: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format models.ReportFormat) string {
	switch format {
	case models.ReportFormatCSV:
		return "text/csv; charset=utf-8"
	case models.ReportFormatPDF:
		return "application/pdf"
	case models.ReportFormatJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func dataset(rows []models.ReportRow, title string) export.Dataset {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string{row.StudentID, row.StudentName, row.CourseCode, formatGrade(row.FinalGrade)})
	}
	return export.Dataset{Title: title, Headers: reportHeaders, Rows: cells}
}

func formatGrade(grade float64) string {
	return fmt.Sprintf("%.1f", grade)
}
