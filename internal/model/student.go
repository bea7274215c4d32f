package model

import "time"

// Grades lists the letter grades a student record may carry, in the order
// they are offered in forms.
var Grades = []string{"A+", "A", "B+", "B", "C+", "C", "D", "F"}

// ValidGrade reports whether g is one of the known letter grades.
func ValidGrade(g string) bool {
	for _, grade := range Grades {
		if g == grade {
			return true
		}
	}
	return false
}

// Student represents a student record as returned by the records API.
// The roll number is the business key: it addresses update/delete requests
// and is immutable once the record exists.
type Student struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number"`
	ClassName  string    `json:"class_name"`
	Grade      string    `json:"grade"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateStudentRequest is the payload for creating a new student record.
type CreateStudentRequest struct {
	Name       string `json:"name" binding:"required,min=2"`
	RollNumber string `json:"roll_number" binding:"required"`
	ClassName  string `json:"class_name" binding:"required"`
	Grade      string `json:"grade" binding:"required,oneof=A+ A B+ B C+ C D F"`
}

// UpdateStudentRequest is a partial update. The roll number is deliberately
// absent: it is carried in the URL and never editable.
type UpdateStudentRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,min=2"`
	ClassName *string `json:"class_name,omitempty"`
	Grade     *string `json:"grade,omitempty" binding:"omitempty,oneof=A+ A B+ B C+ C D F"`
}
