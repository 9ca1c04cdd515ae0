package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-grade-report/internal/models"
	"github.com/noah-isme/sma-grade-report/internal/repository"
	"github.com/noah-isme/sma-grade-report/pkg/storage"
)

const (
	fieldDelimiter       = ","
	studentFieldCount    = 2
	enrollmentFieldCount = 6
)

// LineSource streams raw lines of one input table.
type LineSource func(fn storage.LineFunc) error

// FileSource reads lines from a file held by the storage collaborator.
func FileSource(store lineScanner, filename string) LineSource {
	return func(fn storage.LineFunc) error {
		return store.ScanLines(filename, fn)
	}
}

// ReaderSource reads lines from an arbitrary reader such as an uploaded file.
func ReaderSource(r io.Reader) LineSource {
	return func(fn storage.LineFunc) error {
		return storage.ReadLines(r, fn)
	}
}

type lineScanner interface {
	ScanLines(filename string, fn storage.LineFunc) error
}

type ingestRecorder interface {
	RecordAccepted(table string)
	RecordSkipped(table string, kind models.FailureKind)
}

// IngestionService builds the student directory from the identity and enrollment tables.
type IngestionService struct {
	logger  *zap.Logger
	metrics ingestRecorder
}

// NewIngestionService constructs IngestionService.
func NewIngestionService(logger *zap.Logger, metrics ingestRecorder) *IngestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{logger: logger, metrics: metrics}
}

// WithLogger returns a copy of the service that logs through l.
func (s *IngestionService) WithLogger(l *zap.Logger) *IngestionService {
	if l == nil {
		return s
	}
	clone := *s
	clone.logger = l
	return &clone
}

// Ingest runs both passes in order and returns the populated directory. Only a failure to read
// a source is returned as an error; malformed lines are skipped and counted in the stats.
func (s *IngestionService) Ingest(students, enrollments LineSource) (*repository.StudentDirectory, *models.IngestStats, error) {
	dir := repository.NewStudentDirectory()
	stats := &models.IngestStats{}
	if err := s.LoadStudents(students, dir, stats); err != nil {
		return nil, stats, err
	}
	if err := s.LoadEnrollments(enrollments, dir, stats); err != nil {
		return nil, stats, err
	}
	return dir, stats, nil
}

// LoadStudents reads `id,name` lines into dir. A repeated id replaces the earlier student.
func (s *IngestionService) LoadStudents(src LineSource, dir *repository.StudentDirectory, stats *models.IngestStats) error {
	err := src(func(lineNo int, line string, lineErr error) {
		if lineErr != nil {
			s.skip(stats, unreadableLine(lineErr).At(models.TableStudents, lineNo))
			return
		}
		if isBlank(line) {
			return
		}
		student, issue := parseStudentLine(line)
		if issue != nil {
			s.skip(stats, issue.At(models.TableStudents, lineNo))
			return
		}
		if dir.Put(student) {
			stats.StudentsReplaced++
			s.logger.Sugar().Warnw("student id repeated, keeping latest entry", "table", models.TableStudents, "line", lineNo, "student_id", student.ID())
		}
		stats.StudentsLoaded++
		s.accept(models.TableStudents)
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", models.TableStudents, err)
	}
	s.logger.Sugar().Infow("students loaded", "loaded", stats.StudentsLoaded, "skipped", stats.StudentsSkipped, "directory_size", dir.Len())
	return nil
}

// LoadEnrollments reads `id,code,test1,test2,test3,exam` lines and attaches each course to its
// existing student. Enrollments never create students.
func (s *IngestionService) LoadEnrollments(src LineSource, dir *repository.StudentDirectory, stats *models.IngestStats) error {
	err := src(func(lineNo int, line string, lineErr error) {
		if lineErr != nil {
			s.skip(stats, unreadableLine(lineErr).At(models.TableEnrollments, lineNo))
			return
		}
		if isBlank(line) {
			return
		}
		if issue := s.enroll(line, dir); issue != nil {
			s.skip(stats, issue.At(models.TableEnrollments, lineNo))
			return
		}
		stats.EnrollmentsAdded++
		s.accept(models.TableEnrollments)
	})
	if err != nil {
		return fmt.Errorf("read %s: %w", models.TableEnrollments, err)
	}
	s.logger.Sugar().Infow("enrollments loaded", "added", stats.EnrollmentsAdded, "skipped", stats.EnrollmentsSkipped)
	return nil
}

func (s *IngestionService) enroll(line string, dir *repository.StudentDirectory) *models.ValidationError {
	fields, issue := splitFields(line, enrollmentFieldCount)
	if issue != nil {
		return issue
	}
	scores, issue := parseScores(fields[2:])
	if issue != nil {
		issue.StudentID = fields[0]
		return issue
	}
	student, ok := dir.FindByID(fields[0])
	if !ok {
		return models.NewIdentityError(models.FieldStudentID, fields[0], fields[0], "student not found in identity table")
	}
	course, err := models.NewCourseRecord(fields[1], scores[0], scores[1], scores[2], scores[3])
	if err != nil {
		return asIssue(err, student.ID())
	}
	if err := student.AddCourse(course); err != nil {
		return asIssue(err, student.ID())
	}
	return nil
}

func (s *IngestionService) skip(stats *models.IngestStats, issue *models.ValidationError) {
	stats.Record(issue)
	if s.metrics != nil {
		s.metrics.RecordSkipped(issue.Table, issue.Kind)
	}
	s.logger.Sugar().Warnw("skipping record",
		"table", issue.Table,
		"line", issue.Line,
		"kind", string(issue.Kind),
		"field", string(issue.Field),
		"value", issue.Value,
		"student_id", issue.StudentID,
		"reason", issue.Message,
	)
}

func (s *IngestionService) accept(table string) {
	if s.metrics != nil {
		s.metrics.RecordAccepted(table)
	}
}

func parseStudentLine(line string) (*models.StudentRecord, *models.ValidationError) {
	fields, issue := splitFields(line, studentFieldCount)
	if issue != nil {
		return nil, issue
	}
	id, name := fields[0], fields[1]
	if id == "" {
		return nil, models.NewIdentityError(models.FieldStudentID, "", "", "student id is empty")
	}
	if name == "" {
		return nil, models.NewIdentityError(models.FieldStudentName, "", id, "student name is empty")
	}
	student, err := models.NewStudentRecord(id, name)
	if err != nil {
		return nil, asIssue(err, id)
	}
	return student, nil
}

var scoreFields = []models.Field{models.FieldTest1, models.FieldTest2, models.FieldTest3, models.FieldFinalExam}

func parseScores(raw []string) ([]float64, *models.ValidationError) {
	scores := make([]float64, len(raw))
	for i, value := range raw {
		if !isDecimal(value) {
			return nil, models.NewStructuralError(scoreFields[i], value, "score is not a decimal number")
		}
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, models.NewStructuralError(scoreFields[i], value, "score is not a number")
		}
		scores[i] = score
	}
	return scores, nil
}

// splitFields splits line on the delimiter and trims each field, requiring exactly want fields.
func splitFields(line string, want int) ([]string, *models.ValidationError) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != want {
		return nil, models.NewStructuralError(models.FieldLine, strings.TrimSpace(line),
			fmt.Sprintf("expected %d fields, got %d", want, len(parts)))
	}
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts, nil
}

// isDecimal rejects the hexadecimal and underscore forms strconv also accepts.
func isDecimal(value string) bool {
	return !strings.ContainsAny(value, "xXpP_")
}

func unreadableLine(err error) *models.ValidationError {
	issue := models.NewStructuralError(models.FieldLine, "", "line cannot be read")
	issue.Err = err
	return issue
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func asIssue(err error, studentID string) *models.ValidationError {
	if vErr, ok := err.(*models.ValidationError); ok {
		if vErr.StudentID == "" {
			vErr.StudentID = studentID
		}
		return vErr
	}
	return &models.ValidationError{Kind: models.KindStructural, StudentID: studentID, Message: err.Error(), Err: err}
}
