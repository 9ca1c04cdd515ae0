package models

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidStudentID(t *testing.T) {
	for _, id := range []string{"1", "001", "123456789"} {
		assert.True(t, IsValidStudentID(id), id)
	}
	for _, id := range []string{"", "1234567890", "12 3", "-12", "12a", "１２３"} {
		assert.False(t, IsValidStudentID(id), id)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Alice King":             "Alice King",
		"  Alice   King  ":       "Alice King",
		"\tAlice\n\nKing\r":      "Alice King",
		"Mary  Ann   de  Souza ": "Mary Ann de Souza",
		"   ":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in), in)
	}
}

func TestCapacityAndUniquenessPredicates(t *testing.T) {
	assert.True(t, HasCapacity(0))
	assert.True(t, HasCapacity(MaxCourses-1))
	assert.False(t, HasCapacity(MaxCourses))

	existing := []CourseRecord{mustCourse(t, "CP317"), mustCourse(t, "MA101")}
	assert.False(t, IsUniqueCode(existing, "MA101"))
	assert.True(t, IsUniqueCode(existing, "BI200"))
	assert.True(t, IsUniqueCode(nil, "BI200"))
}

func TestValidationErrorMatchesKindSentinel(t *testing.T) {
	err := NewIdentityError(FieldStudentID, "999", "999", "unknown student").At(TableEnrollments, 4)

	assert.True(t, errors.Is(err, ErrIdentity))
	assert.False(t, errors.Is(err, ErrStructural))
	assert.Equal(t, `enrollments:4: unknown student (student_id="999") [student 999]`, err.Error())

	wrapped := fmt.Errorf("ingest: %w", err)
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindIdentity, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestResourceErrorUnwrapsCause(t *testing.T) {
	err := NewResourceError("names.txt", os.ErrNotExist)
	assert.True(t, errors.Is(err, ErrResource))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "names.txt")
}

func TestAtDoesNotMutateOriginal(t *testing.T) {
	base := NewStructuralError(FieldLine, "x", "malformed line")
	located := base.At(TableStudents, 2)
	assert.Zero(t, base.Line)
	assert.Equal(t, 2, located.Line)
	assert.Equal(t, TableStudents, located.Table)
}
