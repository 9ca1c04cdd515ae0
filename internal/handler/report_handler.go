package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-grade-report/internal/dto"
	"github.com/noah-isme/sma-grade-report/internal/models"
	"github.com/noah-isme/sma-grade-report/internal/service"
	appErrors "github.com/noah-isme/sma-grade-report/pkg/errors"
	"github.com/noah-isme/sma-grade-report/pkg/middleware/requestid"
	"github.com/noah-isme/sma-grade-report/pkg/response"
)

type reportPreviewer interface {
	Preview(runID string, req service.PreviewRequest) (*service.RunResult, error)
}

// ReportHandler exposes the report preview endpoint.
type ReportHandler struct {
	reports reportPreviewer
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportPreviewer) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Generate godoc
// @Summary Build a grade report from uploaded tables
// @Tags Reports
// @Accept multipart/form-data
// @Produce json,plain,text/csv,application/pdf
// @Param names formData file true "Identity table (id,name per line)"
// @Param courses formData file true "Enrollment table (id,code,test1,test2,test3,exam per line)"
// @Param format query string false "json, text, csv or pdf" default(json)
// @Param title query string false "Report title for csv and pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, "invalid report query"))
		return
	}

	names, err := openUpload(c, "names")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer names.Close() //nolint:errcheck

	courses, err := openUpload(c, "courses")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer courses.Close() //nolint:errcheck

	result, err := h.reports.Preview(requestid.Value(c), service.PreviewRequest{
		Names:   names,
		Courses: courses,
		Format:  query.Format,
		Title:   query.Title,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Format == models.ReportFormatJSON {
		response.JSON(c, http.StatusOK, dto.ReportResponse{
			RunID:  result.RunID,
			Rows:   result.Rows,
			Stats:  result.Stats,
			Issues: dto.NewReportIssues(result.Stats.Issues),
		}, map[string]interface{}{"rows": len(result.Rows)})
		return
	}
	response.File(c, "grades."+extension(result.Format), service.ContentType(result.Format), result.Payload)
}

func openUpload(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, appErrors.ErrPayloadTooLarge.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, field+" file required")
	}
	if header.Size == 0 {
		return nil, appErrors.Wrap(models.NewResourceError(header.Filename, errors.New("file is empty")),
			appErrors.ErrInputUnavailable.Code, appErrors.ErrInputUnavailable.Status, field+" table is empty")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(models.NewResourceError(header.Filename, err),
			appErrors.ErrInputUnavailable.Code, appErrors.ErrInputUnavailable.Status, field+" table unreadable")
	}
	return file, nil
}

func extension(format models.ReportFormat) string {
	if format == models.ReportFormatText {
		return "txt"
	}
	return string(format)
}
