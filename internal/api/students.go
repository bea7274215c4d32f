package api

import (
	"context"
	"net/http"

	"student_console/internal/model"
)

// ListStudents returns the full roster in the order the server sent it.
func (c *Client) ListStudents(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := c.do(ctx, http.MethodGet, studentsPath, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// CreateStudent adds a new record. Admin only.
func (c *Client) CreateStudent(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	var student model.Student
	if err := c.do(ctx, http.MethodPost, studentsPath, req, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateStudent applies a partial update to the record addressed by its roll
// number. Admin only.
func (c *Client) UpdateStudent(ctx context.Context, rollNumber string, req model.UpdateStudentRequest) (*model.Student, error) {
	var student model.Student
	if err := c.do(ctx, http.MethodPut, studentsPath+"/"+rollNumber, req, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// DeleteStudent removes the record addressed by its roll number. Admin only.
func (c *Client) DeleteStudent(ctx context.Context, rollNumber string) error {
	return c.do(ctx, http.MethodDelete, studentsPath+"/"+rollNumber, nil, nil)
}
