package models

// ReportFormat enumerates supported report renderings.
type ReportFormat string

const (
	ReportFormatText ReportFormat = "text"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatJSON ReportFormat = "json"
)

// ReportRow is one enrollment line of the final report.
type ReportRow struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	CourseCode  string  `json:"course_code"`
	FinalGrade  float64 `json:"final_grade"`
}

// Table names used when locating ingestion issues.
const (
	TableStudents    = "students"
	TableEnrollments = "enrollments"
)

// IngestStats counts accepted and skipped records of one run.
type IngestStats struct {
	StudentsLoaded     int                 `json:"students_loaded"`
	StudentsSkipped    int                 `json:"students_skipped"`
	StudentsReplaced   int                 `json:"students_replaced"`
	EnrollmentsAdded   int                 `json:"enrollments_added"`
	EnrollmentsSkipped int                 `json:"enrollments_skipped"`
	SkippedByKind      map[FailureKind]int `json:"skipped_by_kind,omitempty"`
	Issues             []*ValidationError  `json:"-"`
}

// Record tallies a skipped record.
func (s *IngestStats) Record(issue *ValidationError) {
	if s.SkippedByKind == nil {
		s.SkippedByKind = make(map[FailureKind]int)
	}
	s.SkippedByKind[issue.Kind]++
	s.Issues = append(s.Issues, issue)
	switch issue.Table {
	case TableStudents:
		s.StudentsSkipped++
	case TableEnrollments:
		s.EnrollmentsSkipped++
	}
}
