package models

import (
	"fmt"
	"math"
)

const (
	testWeight = 0.20
	examWeight = 0.40
)

// CourseRecord is a validated enrollment in one course. The zero value is not a valid
// record; build one with NewCourseRecord.
type CourseRecord struct {
	code       string
	test1      float64
	test2      float64
	test3      float64
	finalExam  float64
	finalGrade float64
}

// NewCourseRecord validates every field and returns a fully formed record.
func NewCourseRecord(code string, test1, test2, test3, finalExam float64) (CourseRecord, error) {
	if err := validateCourseCode(code); err != nil {
		return CourseRecord{}, err
	}
	if err := validateScores(test1, test2, test3, finalExam); err != nil {
		return CourseRecord{}, err
	}
	grade, err := CalculateFinalGrade(test1, test2, test3, finalExam)
	if err != nil {
		return CourseRecord{}, err
	}
	return CourseRecord{
		code:       code,
		test1:      test1,
		test2:      test2,
		test3:      test3,
		finalExam:  finalExam,
		finalGrade: grade,
	}, nil
}

// CalculateFinalGrade weighs the three tests at 20% each and the exam at 40%, clamped to [0, 100].
func CalculateFinalGrade(test1, test2, test3, finalExam float64) (float64, error) {
	grade := (test1+test2+test3)*testWeight + finalExam*examWeight
	if math.IsNaN(grade) || math.IsInf(grade, 0) {
		return 0, newFailure(KindRange, FieldGrade, formatScore(grade), "grade calculation produced a non-finite value")
	}
	return math.Min(MaxScore, math.Max(MinScore, grade)), nil
}

// Code returns the course code.
func (c CourseRecord) Code() string { return c.code }

// Test1 returns the first test score.
func (c CourseRecord) Test1() float64 { return c.test1 }

// Test2 returns the second test score.
func (c CourseRecord) Test2() float64 { return c.test2 }

// Test3 returns the third test score.
func (c CourseRecord) Test3() float64 { return c.test3 }

// FinalExam returns the final exam score.
func (c CourseRecord) FinalExam() float64 { return c.finalExam }

// FinalGrade returns the weighted grade derived from the four scores.
func (c CourseRecord) FinalGrade() float64 { return c.finalGrade }

// TestAverage returns the mean of the three test scores.
func (c CourseRecord) TestAverage() float64 {
	return (c.test1 + c.test2 + c.test3) / 3
}

// Equal compares courses by code only.
func (c CourseRecord) Equal(other CourseRecord) bool {
	return c.code == other.code
}

// SetCode replaces the course code when valid.
func (c *CourseRecord) SetCode(code string) error {
	if err := validateCourseCode(code); err != nil {
		return err
	}
	c.code = code
	return nil
}

// SetTest1 replaces the first test score when valid.
func (c *CourseRecord) SetTest1(score float64) error {
	return c.updateScores(FieldTest1, score, score, c.test2, c.test3, c.finalExam)
}

// SetTest2 replaces the second test score when valid.
func (c *CourseRecord) SetTest2(score float64) error {
	return c.updateScores(FieldTest2, score, c.test1, score, c.test3, c.finalExam)
}

// SetTest3 replaces the third test score when valid.
func (c *CourseRecord) SetTest3(score float64) error {
	return c.updateScores(FieldTest3, score, c.test1, c.test2, score, c.finalExam)
}

// SetFinalExam replaces the final exam score when valid.
func (c *CourseRecord) SetFinalExam(score float64) error {
	return c.updateScores(FieldFinalExam, score, c.test1, c.test2, c.test3, score)
}

func (c *CourseRecord) updateScores(field Field, score, test1, test2, test3, finalExam float64) error {
	if err := validateScore(field, score); err != nil {
		return err
	}
	grade, err := CalculateFinalGrade(test1, test2, test3, finalExam)
	if err != nil {
		return err
	}
	c.test1, c.test2, c.test3, c.finalExam = test1, test2, test3, finalExam
	c.finalGrade = grade
	return nil
}

// validate re-checks every field so records assembled outside NewCourseRecord, including the
// zero value, cannot be stored.
func (c CourseRecord) validate() error {
	if err := validateCourseCode(c.code); err != nil {
		return err
	}
	return validateScores(c.test1, c.test2, c.test3, c.finalExam)
}

// String renders scores and grade at one decimal place.
func (c CourseRecord) String() string {
	return fmt.Sprintf("Course: %s | Tests: %.1f, %.1f, %.1f | Exam: %.1f | Final Grade: %.1f",
		c.code, c.test1, c.test2, c.test3, c.finalExam, c.finalGrade)
}
