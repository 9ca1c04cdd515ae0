package models

import (
	"fmt"
	"strings"
)

// StudentRecord holds a student's identity and ordered, unique enrollments.
type StudentRecord struct {
	id      string
	name    string
	courses []CourseRecord
}

// NewStudentRecord sanitizes the name and validates both identity fields.
func NewStudentRecord(id, name string) (*StudentRecord, error) {
	if err := validateStudentID(id); err != nil {
		return nil, err
	}
	clean := SanitizeName(name)
	if err := validateStudentName(id, clean); err != nil {
		return nil, err
	}
	return &StudentRecord{id: id, name: clean}, nil
}

// ID returns the student identifier.
func (s *StudentRecord) ID() string { return s.id }

// Name returns the sanitized student name.
func (s *StudentRecord) Name() string { return s.name }

// SetID replaces the identifier when valid. A record held by a StudentDirectory must be renamed
// through StudentDirectory.Rename so its key follows.
func (s *StudentRecord) SetID(id string) error {
	if err := validateStudentID(id); err != nil {
		return err
	}
	s.id = id
	return nil
}

// SetName sanitizes and replaces the name when valid.
func (s *StudentRecord) SetName(name string) error {
	clean := SanitizeName(name)
	if err := validateStudentName(s.id, clean); err != nil {
		return err
	}
	s.name = clean
	return nil
}

// Courses returns a copy of the enrollments in insertion order.
func (s *StudentRecord) Courses() []CourseRecord {
	out := make([]CourseRecord, len(s.courses))
	copy(out, s.courses)
	return out
}

// CourseCount returns the number of enrollments.
func (s *StudentRecord) CourseCount() int { return len(s.courses) }

// AddCourse appends course after checking the ceiling, code uniqueness and score ranges.
// A rejected call leaves the enrollments untouched.
func (s *StudentRecord) AddCourse(course CourseRecord) error {
	if !HasCapacity(len(s.courses)) {
		err := newFailure(KindCardinality, FieldCourses, course.code, fmt.Sprintf("student already holds %d courses", MaxCourses))
		err.StudentID = s.id
		return err
	}
	if !IsUniqueCode(s.courses, course.code) {
		err := newFailure(KindUniqueness, FieldCourseCode, course.code, "course already enrolled")
		err.StudentID = s.id
		return err
	}
	if err := course.validate(); err != nil {
		if vErr, ok := err.(*ValidationError); ok {
			vErr.StudentID = s.id
		}
		return err
	}
	s.courses = append(s.courses, course)
	return nil
}

// RemoveCourse deletes the enrollment with the given code and reports whether it existed.
func (s *StudentRecord) RemoveCourse(code string) bool {
	for i, course := range s.courses {
		if course.code == code {
			s.courses = append(s.courses[:i:i], s.courses[i+1:]...)
			return true
		}
	}
	return false
}

// FindCourse returns a copy of the enrollment with the given code.
func (s *StudentRecord) FindCourse(code string) (CourseRecord, bool) {
	for _, course := range s.courses {
		if course.code == code {
			return course, true
		}
	}
	return CourseRecord{}, false
}

// HasCourse reports whether the student is enrolled in code.
func (s *StudentRecord) HasCourse(code string) bool {
	_, ok := s.FindCourse(code)
	return ok
}

// OverallAverage is the mean final grade, or 0 without enrollments.
func (s *StudentRecord) OverallAverage() float64 {
	if len(s.courses) == 0 {
		return 0
	}
	total := 0.0
	for _, course := range s.courses {
		total += course.finalGrade
	}
	return total / float64(len(s.courses))
}

// Less orders students by identifier.
func (s *StudentRecord) Less(other *StudentRecord) bool {
	return s.id < other.id
}

// String summarises the student in a few lines.
func (s *StudentRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Student ID: %s\nName: %s\nCourses: %d\n", s.id, s.name, len(s.courses))
	if len(s.courses) > 0 {
		fmt.Fprintf(&b, "Overall Average: %.1f%%\n", s.OverallAverage())
	}
	return b.String()
}

// GradeSummary lists each course grade followed by the overall average.
func (s *StudentRecord) GradeSummary() string {
	if len(s.courses) == 0 {
		return "No courses enrolled"
	}
	var b strings.Builder
	for _, course := range s.courses {
		fmt.Fprintf(&b, "%s: %.1f%%\n", course.code, course.finalGrade)
	}
	fmt.Fprintf(&b, "Overall Average: %.1f%%", s.OverallAverage())
	return b.String()
}
