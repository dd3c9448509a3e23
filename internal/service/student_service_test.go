package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

type mockStudentStore struct {
	students map[string]models.Student
	taken    map[string]bool
	batch    []*models.Student
}

func (m *mockStudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var list []models.Student
	for _, s := range m.students {
		list = append(list, s)
	}
	return list, len(list), nil
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) ExistsByAdmissionNo(ctx context.Context, admissionNo string, excludeID string) (bool, error) {
	return m.taken[admissionNo], nil
}

func (m *mockStudentStore) Create(ctx context.Context, student *models.Student) error {
	student.ID = "stu-new"
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentStore) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentStore) CreateBatch(ctx context.Context, students []*models.Student) error {
	m.batch = students
	return nil
}

const validImportHeader = "admission_no,full_name,class_section,parent_name,phone,address,status\n"

func TestBulkImportInsertsAllRows(t *testing.T) {
	repo := &mockStudentStore{}
	svc := NewStudentService(repo, &mockAuditLogger{}, nil)

	csvData := validImportHeader +
		"ADM-001,Rahul Sharma,5A,Vijay Sharma,9876500001,MG Road,active\n" +
		"ADM-002,Sneha Patel,5A,Amit Patel,9876500002,Park Street,\n"

	result, err := svc.BulkImport(context.Background(), strings.NewReader(csvData), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, repo.batch, 2)
	// Blank status defaults to active.
	assert.Equal(t, models.StudentStatusActive, repo.batch[1].Status)
}

func TestBulkImportRejectsWrongHeader(t *testing.T) {
	repo := &mockStudentStore{}
	svc := NewStudentService(repo, nil, nil)

	csvData := "admission_no,name,class\nADM-001,Rahul,5A\n"
	_, err := svc.BulkImport(context.Background(), strings.NewReader(csvData), "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.batch)
}

func TestBulkImportRejectsBadRowWithoutWriting(t *testing.T) {
	repo := &mockStudentStore{}
	svc := NewStudentService(repo, nil, nil)

	csvData := validImportHeader +
		"ADM-001,Rahul Sharma,5A,Vijay Sharma,9876500001,MG Road,active\n" +
		",Missing Admission,5A,Someone,9876500003,Nowhere,active\n"

	result, err := svc.BulkImport(context.Background(), strings.NewReader(csvData), "user-1")
	require.Error(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "line 3")
	assert.Nil(t, repo.batch)
}

func TestBulkImportRejectsUnknownStatus(t *testing.T) {
	svc := NewStudentService(&mockStudentStore{}, nil, nil)

	csvData := validImportHeader +
		"ADM-001,Rahul Sharma,5A,Vijay Sharma,9876500001,MG Road,expelled\n"

	result, err := svc.BulkImport(context.Background(), strings.NewReader(csvData), "user-1")
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.Errors[0], "unknown status")
}

func TestBulkImportAcceptsLegacyStatusKeywords(t *testing.T) {
	repo := &mockStudentStore{}
	svc := NewStudentService(repo, nil, nil)

	csvData := validImportHeader +
		"ADM-001,Rahul Sharma,5A,Vijay Sharma,9876500001,MG Road,left\n" +
		"ADM-002,Sneha Patel,10B,Amit Patel,9876500002,Park Street,graduated\n"

	_, err := svc.BulkImport(context.Background(), strings.NewReader(csvData), "user-1")
	require.NoError(t, err)
	require.Len(t, repo.batch, 2)
	assert.Equal(t, models.StudentStatusInactive, repo.batch[0].Status)
	assert.Equal(t, models.StudentStatusAlumni, repo.batch[1].Status)
}

func TestBulkImportRejectsInFileDuplicates(t *testing.T) {
	repo := &mockStudentStore{}
	svc := NewStudentService(repo, nil, nil)

	csvData := validImportHeader +
		"ADM-001,Rahul Sharma,5A,Vijay Sharma,9876500001,MG Road,active\n" +
		"ADM-001,Duplicate Row,5B,Other Parent,9876500004,Elsewhere,active\n"

	result, err := svc.BulkImport(context.Background(), strings.NewReader(csvData), "user-1")
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.Errors[0], "duplicated")
	assert.Nil(t, repo.batch)
}

func TestBulkImportRejectsExistingAdmissionNo(t *testing.T) {
	repo := &mockStudentStore{taken: map[string]bool{"ADM-001": true}}
	svc := NewStudentService(repo, nil, nil)

	csvData := validImportHeader +
		"ADM-001,Rahul Sharma,5A,Vijay Sharma,9876500001,MG Road,active\n"

	result, err := svc.BulkImport(context.Background(), strings.NewReader(csvData), "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.NotNil(t, result)
	assert.Nil(t, repo.batch)
}

func TestUpdateStudentRejectsTakenAdmissionNo(t *testing.T) {
	repo := &mockStudentStore{
		students: map[string]models.Student{
			"stu-1": {ID: "stu-1", AdmissionNo: "ADM-001", FullName: "Rahul Sharma"},
		},
		taken: map[string]bool{"ADM-002": true},
	}
	svc := NewStudentService(repo, nil, nil)

	_, err := svc.Update(context.Background(), "stu-1", dto.UpdateStudentRequest{
		AdmissionNo: "ADM-002",
		FullName:    "Rahul Sharma",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateStudentDefaultsToActive(t *testing.T) {
	repo := &mockStudentStore{}
	svc := NewStudentService(repo, nil, nil)

	student, err := svc.Create(context.Background(), dto.CreateStudentRequest{
		AdmissionNo: "ADM-010",
		FullName:    "Arjun Menon",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, student.Status)
}

func TestCreateStudentRejectsTakenAdmissionNo(t *testing.T) {
	repo := &mockStudentStore{taken: map[string]bool{"ADM-001": true}}
	svc := NewStudentService(repo, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateStudentRequest{
		AdmissionNo: "ADM-001",
		FullName:    "Arjun Menon",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
