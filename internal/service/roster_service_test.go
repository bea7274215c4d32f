package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student_console/internal/model"
)

var sampleRoster = []model.Student{
	{Name: "John Doe", RollNumber: "2023001", ClassName: "10A", Grade: "A"},
	{Name: "Jane Smith", RollNumber: "2023002", ClassName: "10A", Grade: "B+"},
	{Name: "Bob Johnson", RollNumber: "2023003", ClassName: "10B", Grade: "A+"},
	{Name: "johnny walker", RollNumber: "2024010", ClassName: "9C", Grade: "C"},
}

func TestFilter_EmptyQueryReturnsAllInOrder(t *testing.T) {
	filtered := Filter(sampleRoster, "")
	assert.Equal(t, sampleRoster, filtered)

	filtered = Filter(sampleRoster, "   ")
	assert.Equal(t, sampleRoster, filtered)
}

func TestFilter_CaseInsensitiveNameMatch(t *testing.T) {
	filtered := Filter(sampleRoster, "JOHN")

	require.Len(t, filtered, 3)
	assert.Equal(t, "John Doe", filtered[0].Name)
	assert.Equal(t, "Bob Johnson", filtered[1].Name)
	assert.Equal(t, "johnny walker", filtered[2].Name)
}

func TestFilter_RollNumberMatch(t *testing.T) {
	filtered := Filter(sampleRoster, "2023")

	require.Len(t, filtered, 3)
	for _, s := range filtered {
		assert.Contains(t, s.RollNumber, "2023")
	}
}

func TestFilter_ResultIsSubsetMatchingQuery(t *testing.T) {
	queries := []string{"a", "jo", "10", "2024", "smith", "zzz"}
	inRoster := func(s model.Student) bool {
		for _, r := range sampleRoster {
			if r == s {
				return true
			}
		}
		return false
	}

	for _, q := range queries {
		for _, s := range Filter(sampleRoster, q) {
			assert.True(t, inRoster(s), "filter invented a student for query %q", q)
		}
	}
}

func TestFilter_NoMatchesReturnsEmptyNotNil(t *testing.T) {
	filtered := Filter(sampleRoster, "does-not-exist")
	assert.NotNil(t, filtered)
	assert.Empty(t, filtered)
}

func TestFilter_DoesNotMutateSource(t *testing.T) {
	source := make([]model.Student, len(sampleRoster))
	copy(source, sampleRoster)

	_ = Filter(source, "john")

	assert.Equal(t, sampleRoster, source)
}

// fakeStudentAPI is a hand-rolled StudentAPI test double.
type fakeStudentAPI struct {
	students  []model.Student
	listErr   error
	created   []model.CreateStudentRequest
	updated   map[string]model.UpdateStudentRequest
	deleted   []string
	deleteErr error
}

func (f *fakeStudentAPI) ListStudents(ctx context.Context) ([]model.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.students, nil
}

func (f *fakeStudentAPI) CreateStudent(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	f.created = append(f.created, req)
	return &model.Student{Name: req.Name, RollNumber: req.RollNumber, ClassName: req.ClassName, Grade: req.Grade}, nil
}

func (f *fakeStudentAPI) UpdateStudent(ctx context.Context, rollNumber string, req model.UpdateStudentRequest) (*model.Student, error) {
	if f.updated == nil {
		f.updated = map[string]model.UpdateStudentRequest{}
	}
	f.updated[rollNumber] = req
	return &model.Student{RollNumber: rollNumber}, nil
}

func (f *fakeStudentAPI) DeleteStudent(ctx context.Context, rollNumber string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, rollNumber)
	return nil
}

func TestRosterService_FindByRoll(t *testing.T) {
	svc := NewRosterService(&fakeStudentAPI{students: sampleRoster})

	student, err := svc.FindByRoll(context.Background(), "2023002")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", student.Name)

	_, err = svc.FindByRoll(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestRosterService_ListPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewRosterService(&fakeStudentAPI{listErr: boom})

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRosterService_DelegatesMutations(t *testing.T) {
	fake := &fakeStudentAPI{}
	svc := NewRosterService(fake)
	ctx := context.Background()

	_, err := svc.Create(ctx, model.CreateStudentRequest{Name: "New Kid", RollNumber: "42"})
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.Update(ctx, "42", model.UpdateStudentRequest{Name: &name})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "42"))

	assert.Len(t, fake.created, 1)
	assert.Contains(t, fake.updated, "42")
	assert.Equal(t, []string{"42"}, fake.deleted)
}
