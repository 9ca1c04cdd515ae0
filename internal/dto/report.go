package dto

import "github.com/noah-isme/sma-grade-report/internal/models"

// ReportQuery captures the query string of POST /reports.
type ReportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=json text csv pdf"`
	Title  string `form:"title" binding:"max=120"`
}

// ReportResponse is the JSON rendering of a previewed report.
type ReportResponse struct {
	RunID  string              `json:"runId"`
	Rows   []models.ReportRow  `json:"rows"`
	Stats  *models.IngestStats `json:"stats"`
	Issues []ReportIssue       `json:"issues,omitempty"`
}

// ReportIssue describes one skipped input line.
type ReportIssue struct {
	Table     string             `json:"table"`
	Line      int                `json:"line"`
	Kind      models.FailureKind `json:"kind"`
	Field     models.Field       `json:"field,omitempty"`
	StudentID string             `json:"studentId,omitempty"`
	Message   string             `json:"message"`
}

// NewReportIssues converts ingestion issues for the response payload.
func NewReportIssues(issues []*models.ValidationError) []ReportIssue {
	if len(issues) == 0 {
		return nil
	}
	out := make([]ReportIssue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, ReportIssue{
			Table:     issue.Table,
			Line:      issue.Line,
			Kind:      issue.Kind,
			Field:     issue.Field,
			StudentID: issue.StudentID,
			Message:   issue.Message,
		})
	}
	return out
}
