package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxCourses caps the number of enrollments a single student may hold.
	MaxCourses = 10
	// MaxStudentIDLength bounds student identifiers (digits only).
	MaxStudentIDLength = 9
	// MaxStudentNameLength bounds sanitized student names, counted in characters.
	MaxStudentNameLength = 100

	MinScore = 0.0
	MaxScore = 100.0
)

// FailureKind classifies why a record was rejected.
type FailureKind string

// Closed set of failure kinds.
const (
	KindStructural  FailureKind = "structural"
	KindRange       FailureKind = "range"
	KindCardinality FailureKind = "cardinality"
	KindUniqueness  FailureKind = "uniqueness"
	KindIdentity    FailureKind = "identity"
	KindResource    FailureKind = "resource"
)

// FailureKinds lists every kind in a stable order.
var FailureKinds = []FailureKind{KindStructural, KindRange, KindCardinality, KindUniqueness, KindIdentity, KindResource}

// Sentinels usable with errors.Is against any *ValidationError of the same kind.
var (
	ErrStructural  = errors.New("structural violation")
	ErrRange       = errors.New("value out of range")
	ErrCardinality = errors.New("enrollment limit reached")
	ErrUniqueness  = errors.New("duplicate course")
	ErrIdentity    = errors.New("invalid identity")
	ErrResource    = errors.New("resource unavailable")
)

var kindSentinels = map[FailureKind]error{
	KindStructural:  ErrStructural,
	KindRange:       ErrRange,
	KindCardinality: ErrCardinality,
	KindUniqueness:  ErrUniqueness,
	KindIdentity:    ErrIdentity,
	KindResource:    ErrResource,
}

// Field names the offending attribute of a rejected record.
type Field string

// Fields referenced by validation failures.
const (
	FieldCourseCode  Field = "course_code"
	FieldTest1       Field = "test1"
	FieldTest2       Field = "test2"
	FieldTest3       Field = "test3"
	FieldFinalExam   Field = "final_exam"
	FieldGrade       Field = "final_grade"
	FieldStudentID   Field = "student_id"
	FieldStudentName Field = "student_name"
	FieldCourses     Field = "courses"
	FieldLine        Field = "line"
	FieldPath        Field = "path"
)

// ValidationError is the typed cause of every rejected record or unavailable resource.
type ValidationError struct {
	Kind      FailureKind
	Field     Field
	Value     string
	StudentID string
	Table     string
	Line      int
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Table != "" && e.Line > 0 {
		fmt.Fprintf(&b, "%s:%d: ", e.Table, e.Line)
	}
	b.WriteString(e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (%s=%q)", e.Field, e.Value)
	}
	if e.StudentID != "" {
		fmt.Fprintf(&b, " [student %s]", e.StudentID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the kind sentinel so callers never compare messages.
func (e *ValidationError) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// At returns a copy located at the given table line.
func (e *ValidationError) At(table string, line int) *ValidationError {
	clone := *e
	clone.Table = table
	clone.Line = line
	return &clone
}

func newFailure(kind FailureKind, field Field, value, message string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Value: value, Message: message}
}

// NewStructuralError reports a malformed line or field.
func NewStructuralError(field Field, value, message string) *ValidationError {
	return newFailure(KindStructural, field, value, message)
}

// NewIdentityError reports an invalid or unknown student identity.
func NewIdentityError(field Field, value, studentID, message string) *ValidationError {
	err := newFailure(KindIdentity, field, value, message)
	err.StudentID = studentID
	return err
}

// NewResourceError reports an input or output location that cannot be used.
func NewResourceError(path string, err error) *ValidationError {
	failure := newFailure(KindResource, FieldPath, path, "resource unavailable")
	failure.Err = err
	return failure
}

// KindOf extracts the failure kind of err, if any.
func KindOf(err error) (FailureKind, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Kind, true
	}
	return "", false
}

// IsValidCourseCode accepts exactly two ASCII letters followed by three ASCII digits.
func IsValidCourseCode(code string) bool {
	if len(code) != 5 {
		return false
	}
	for i := 0; i < 2; i++ {
		if !isASCIILetter(code[i]) {
			return false
		}
	}
	for i := 2; i < 5; i++ {
		if !isASCIIDigit(code[i]) {
			return false
		}
	}
	return true
}

// IsValidScore accepts finite values within [0, 100].
func IsValidScore(score float64) bool {
	if math.IsNaN(score) {
		return false
	}
	return score >= MinScore && score <= MaxScore
}

// IsValidStudentID accepts 1 to 9 ASCII digits.
func IsValidStudentID(id string) bool {
	if id == "" || len(id) > MaxStudentIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isASCIIDigit(id[i]) {
			return false
		}
	}
	return true
}

// IsValidStudentName checks an already sanitized name.
func IsValidStudentName(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	return utf8.RuneCountInString(name) <= MaxStudentNameLength
}

// HasCapacity reports whether a student holding count courses can take another.
func HasCapacity(count int) bool {
	return count < MaxCourses
}

// IsUniqueCode reports whether code is absent from the given enrollments.
func IsUniqueCode(existing []CourseRecord, code string) bool {
	for _, course := range existing {
		if course.code == code {
			return false
		}
	}
	return true
}

// SanitizeName trims outer whitespace and collapses interior runs to one space.
func SanitizeName(name string) string {
	return strings.Join(strings.FieldsFunc(name, unicode.IsSpace), " ")
}

func validateScore(field Field, score float64) error {
	if IsValidScore(score) {
		return nil
	}
	return newFailure(KindRange, field, formatScore(score), fmt.Sprintf("invalid %s score", fieldLabel(field)))
}

func validateScores(t1, t2, t3, exam float64) error {
	if err := validateScore(FieldTest1, t1); err != nil {
		return err
	}
	if err := validateScore(FieldTest2, t2); err != nil {
		return err
	}
	if err := validateScore(FieldTest3, t3); err != nil {
		return err
	}
	return validateScore(FieldFinalExam, exam)
}

func validateCourseCode(code string) error {
	if IsValidCourseCode(code) {
		return nil
	}
	return NewStructuralError(FieldCourseCode, code, "invalid course code format")
}

func validateStudentID(id string) error {
	if IsValidStudentID(id) {
		return nil
	}
	return NewIdentityError(FieldStudentID, id, "", "invalid student id")
}

func validateStudentName(id, name string) error {
	if IsValidStudentName(name) {
		return nil
	}
	return NewIdentityError(FieldStudentName, name, id, "invalid student name")
}

func fieldLabel(field Field) string {
	switch field {
	case FieldTest1:
		return "test 1"
	case FieldTest2:
		return "test 2"
	case FieldTest3:
		return "test 3"
	case FieldFinalExam:
		return "final exam"
	default:
		return strings.ReplaceAll(string(field), "_", " ")
	}
}

func formatScore(score float64) string {
	return fmt.Sprintf("%g", score)
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
