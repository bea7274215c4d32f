package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"student_console/internal/model"
)

var ErrStudentNotFound = errors.New("student not found")

// StudentAPI is the slice of the records-API client the roster needs.
type StudentAPI interface {
	ListStudents(ctx context.Context) ([]model.Student, error)
	CreateStudent(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error)
	UpdateStudent(ctx context.Context, rollNumber string, req model.UpdateStudentRequest) (*model.Student, error)
	DeleteStudent(ctx context.Context, rollNumber string) error
}

// RosterService exposes the roster operations the console pages use. Every
// mutation is followed by a full re-fetch on the next page load; the service
// never caches.
type RosterService interface {
	List(ctx context.Context) ([]model.Student, error)
	FindByRoll(ctx context.Context, rollNumber string) (*model.Student, error)
	Create(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error)
	Update(ctx context.Context, rollNumber string, req model.UpdateStudentRequest) (*model.Student, error)
	Delete(ctx context.Context, rollNumber string) error
}

type rosterService struct {
	api StudentAPI
}

// NewRosterService creates a RosterService over a records-API client.
func NewRosterService(api StudentAPI) RosterService {
	return &rosterService{api: api}
}

func (s *rosterService) List(ctx context.Context) ([]model.Student, error) {
	students, err := s.api.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	return students, nil
}

// FindByRoll locates one record in the freshly fetched roster. The records
// API has no single-record endpoint, so this goes through the list.
func (s *rosterService) FindByRoll(ctx context.Context, rollNumber string) (*model.Student, error) {
	students, err := s.api.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if students[i].RollNumber == rollNumber {
			return &students[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, rollNumber)
}

func (s *rosterService) Create(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	return s.api.CreateStudent(ctx, req)
}

func (s *rosterService) Update(ctx context.Context, rollNumber string, req model.UpdateStudentRequest) (*model.Student, error) {
	return s.api.UpdateStudent(ctx, rollNumber, req)
}

func (s *rosterService) Delete(ctx context.Context, rollNumber string) error {
	return s.api.DeleteStudent(ctx, rollNumber)
}

// Filter returns the students matching query by case-insensitive substring
// on name or roll number. The source slice is never mutated; an empty query
// returns a copy of the full roster in the same order.
func Filter(students []model.Student, query string) []model.Student {
	filtered := make([]model.Student, 0, len(students))
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, s := range students {
		if needle == "" ||
			strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.RollNumber), needle) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
