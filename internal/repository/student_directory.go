package repository

import (
	"sort"

	"github.com/noah-isme/sma-grade-report/internal/models"
)

// StudentDirectory is the run-scoped index of students keyed by id. It is owned by a single
// ingestion run and is not safe for concurrent use.
type StudentDirectory struct {
	students map[string]*models.StudentRecord
}

// NewStudentDirectory constructs an empty directory.
func NewStudentDirectory() *StudentDirectory {
	return &StudentDirectory{students: make(map[string]*models.StudentRecord)}
}

// Put stores student under its id, replacing any earlier entry. It reports whether an entry was replaced.
func (d *StudentDirectory) Put(student *models.StudentRecord) bool {
	_, replaced := d.students[student.ID()]
	d.students[student.ID()] = student
	return replaced
}

// FindByID returns the student with the given id.
func (d *StudentDirectory) FindByID(id string) (*models.StudentRecord, bool) {
	student, ok := d.students[id]
	return student, ok
}

// Rename changes a stored student's id and moves it to the new key. It fails when oldID is
// unknown, newID is already taken, or newID is not a valid id.
func (d *StudentDirectory) Rename(oldID, newID string) error {
	student, ok := d.students[oldID]
	if !ok {
		return models.NewIdentityError(models.FieldStudentID, oldID, oldID, "student not found")
	}
	if oldID == newID {
		return nil
	}
	if _, taken := d.students[newID]; taken {
		return models.NewIdentityError(models.FieldStudentID, newID, oldID, "student id already in use")
	}
	if err := student.SetID(newID); err != nil {
		return err
	}
	delete(d.students, oldID)
	d.students[newID] = student
	return nil
}

// Len returns the number of students.
func (d *StudentDirectory) Len() int { return len(d.students) }

// IDs returns every student id in ascending order.
func (d *StudentDirectory) IDs() []string {
	ids := make([]string, 0, len(d.students))
	for id := range d.students {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Students returns every student in unspecified order.
func (d *StudentDirectory) Students() []*models.StudentRecord {
	list := make([]*models.StudentRecord, 0, len(d.students))
	for _, student := range d.students {
		list = append(list, student)
	}
	return list
}

// EnrollmentCount sums the enrollments of every student.
func (d *StudentDirectory) EnrollmentCount() int {
	total := 0
	for _, student := range d.students {
		total += student.CourseCount()
	}
	return total
}
