package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-grade-report/internal/models"
	appErrors "github.com/noah-isme/sma-grade-report/pkg/errors"
	"github.com/noah-isme/sma-grade-report/pkg/logger"
	"github.com/noah-isme/sma-grade-report/pkg/storage"
)

type reportStorage interface {
	lineScanner
	CheckReadable(filename string) error
	CheckWritable(filename string) error
	Save(filename string, data []byte) (string, error)
}

type runObserver interface {
	ObserveRun(rows int, duration time.Duration, err error)
}

// RunRequest describes one file-to-file report run.
type RunRequest struct {
	NamesFile   string `validate:"required"`
	CoursesFile string `validate:"required"`
	OutputFile  string `validate:"required"`
	Format      string `validate:"omitempty,report_format"`
	Title       string `validate:"max=120"`
}

// PreviewRequest describes a report rendered from in-memory tables.
type PreviewRequest struct {
	Names   io.Reader
	Courses io.Reader
	Format  string `validate:"omitempty,preview_format"`
	Title   string `validate:"max=120"`
}

// RunResult summarises a finished run.
type RunResult struct {
	RunID      string
	Format     models.ReportFormat
	Rows       []models.ReportRow
	Stats      *models.IngestStats
	OutputPath string
	Payload    []byte
	Duration   time.Duration
}

// RunService wires storage, ingestion and rendering into a complete report run.
type RunService struct {
	storage   reportStorage
	ingestion *IngestionService
	reports   *ReportService
	validator *validator.Validate
	metrics   runObserver
	logger    *zap.Logger
	newID     func() string
}

// NewRunService constructs RunService.
func NewRunService(store reportStorage, ingestion *IngestionService, reports *ReportService, validate *validator.Validate, metrics runObserver, logger *zap.Logger) *RunService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ingestion == nil {
		ingestion = NewIngestionService(logger, nil)
	}
	if reports == nil {
		reports = NewReportService(logger, nil, nil)
	}
	svc := &RunService{
		storage:   store,
		ingestion: ingestion,
		reports:   reports,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		newID:     uuid.NewString,
	}
	svc.validator.RegisterValidation("report_format", func(fl validator.FieldLevel) bool {
		switch models.ReportFormat(strings.ToLower(fl.Field().String())) {
		case models.ReportFormatText, models.ReportFormatCSV, models.ReportFormatPDF:
			return true
		default:
			return false
		}
	})
	svc.validator.RegisterValidation("preview_format", func(fl validator.FieldLevel) bool {
		switch models.ReportFormat(strings.ToLower(fl.Field().String())) {
		case models.ReportFormatText, models.ReportFormatCSV, models.ReportFormatPDF, models.ReportFormatJSON:
			return true
		default:
			return false
		}
	})
	return svc
}

// Run checks every resource, ingests both tables and writes the report. Unavailable inputs or
// output abort the run before anything is written.
func (s *RunService) Run(req RunRequest) (result *RunResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid run request")
	}

	start := time.Now()
	runID := s.newID()
	log := logger.WithRun(s.logger, runID)
	defer func() {
		rows := 0
		if result != nil {
			rows = len(result.Rows)
		}
		s.observe(rows, time.Since(start), err)
	}()

	if err := s.checkInputs(req); err != nil {
		log.Error("input table unavailable", zap.Error(err))
		return nil, err
	}
	if err := s.storage.CheckWritable(req.OutputFile); err != nil {
		log.Error("output destination unavailable", zap.Error(err))
		return nil, appErrors.Wrap(models.NewResourceError(req.OutputFile, err),
			appErrors.ErrOutputUnavailable.Code, appErrors.ErrOutputUnavailable.Status, "output destination unavailable")
	}

	format := normaliseFormat(req.Format)
	rows, stats, payload, err := s.build(log,
		FileSource(s.storage, req.NamesFile),
		FileSource(s.storage, req.CoursesFile),
		format, req.Title,
	)
	if err != nil {
		log.Error("report run failed", zap.Error(err))
		return nil, err
	}

	path, err := s.storage.Save(req.OutputFile, payload)
	if err != nil {
		log.Error("write report", zap.Error(err))
		return nil, appErrors.Wrap(models.NewResourceError(req.OutputFile, err),
			appErrors.ErrOutputUnavailable.Code, appErrors.ErrOutputUnavailable.Status, "write report")
	}

	result = &RunResult{
		RunID:      runID,
		Format:     format,
		Rows:       rows,
		Stats:      stats,
		OutputPath: path,
		Duration:   time.Since(start),
	}
	log.Info("report written",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("students", stats.StudentsLoaded),
		zap.Int("skipped", stats.StudentsSkipped+stats.EnrollmentsSkipped),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Preview renders a report from uploaded tables without touching the filesystem.
func (s *RunService) Preview(runID string, req PreviewRequest) (result *RunResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview request")
	}
	if req.Names == nil || req.Courses == nil {
		return nil, appErrors.Clone(appErrors.ErrInputUnavailable, "both names and courses tables are required")
	}
	if runID == "" {
		runID = s.newID()
	}

	start := time.Now()
	defer func() {
		rows := 0
		if result != nil {
			rows = len(result.Rows)
		}
		s.observe(rows, time.Since(start), err)
	}()

	format := models.ReportFormatJSON
	if req.Format != "" {
		format = normaliseFormat(req.Format)
	}
	log := logger.WithRun(s.logger, runID)
	rows, stats, payload, err := s.build(log, ReaderSource(req.Names), ReaderSource(req.Courses), format, req.Title)
	if err != nil {
		log.Error("report preview failed", zap.Error(err))
		return nil, err
	}

	result = &RunResult{
		RunID:    runID,
		Format:   format,
		Rows:     rows,
		Stats:    stats,
		Payload:  payload,
		Duration: time.Since(start),
	}
	log.Info("report previewed", zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return result, nil
}

func (s *RunService) build(log *zap.Logger, students, enrollments LineSource, format models.ReportFormat, title string) ([]models.ReportRow, *models.IngestStats, []byte, error) {
	dir, stats, err := s.ingestion.WithLogger(log).Ingest(students, enrollments)
	if err != nil {
		return nil, stats, nil, appErrors.Wrap(err, appErrors.ErrInputUnavailable.Code, appErrors.ErrInputUnavailable.Status, "read input table")
	}
	rows := s.reports.Aggregate(dir)
	payload, err := s.reports.Render(rows, format, title)
	if err != nil {
		return nil, stats, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render report")
	}
	return rows, stats, payload, nil
}

func (s *RunService) checkInputs(req RunRequest) error {
	inputs := []struct{ table, file string }{
		{models.TableStudents, req.NamesFile},
		{models.TableEnrollments, req.CoursesFile},
	}
	for _, in := range inputs {
		if err := s.storage.CheckReadable(in.file); err != nil {
			return appErrors.Wrap(models.NewResourceError(in.file, err),
				appErrors.ErrInputUnavailable.Code, appErrors.ErrInputUnavailable.Status,
				fmt.Sprintf("%s table unavailable", in.table))
		}
	}
	return nil
}

func (s *RunService) observe(rows int, duration time.Duration, err error) {
	if s.metrics != nil {
		s.metrics.ObserveRun(rows, duration, err)
	}
}

func normaliseFormat(raw string) models.ReportFormat {
	format := models.ReportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		return models.ReportFormatText
	}
	return format
}

var _ reportStorage = (*storage.LocalStorage)(nil)
