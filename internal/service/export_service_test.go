package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
	"github.com/noah-isme/school-backoffice-api/pkg/jobs"
	"github.com/noah-isme/school-backoffice-api/pkg/storage"
)

type mockExportJobStore struct {
	jobs map[string]models.ExportJob
	seq  int
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if m.jobs == nil {
		m.jobs = make(map[string]models.ExportJob)
	}
	m.seq++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", m.seq)
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockExportJobStore) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if j, ok := m.jobs[id]; ok {
		return &j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportJobStore) UpdateProgress(ctx context.Context, id string, status models.ExportStatus, progress int) error {
	j := m.jobs[id]
	j.Status = status
	j.Progress = progress
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobStore) MarkFinished(ctx context.Context, id, resultPath string) error {
	j := m.jobs[id]
	j.Status = models.ExportStatusFinished
	j.Progress = 100
	j.ResultPath = &resultPath
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobStore) MarkFailed(ctx context.Context, id, reason string) error {
	j := m.jobs[id]
	j.Status = models.ExportStatusFailed
	j.Error = &reason
	m.jobs[id] = j
	return nil
}

func (m *mockExportJobStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.ExportJob, error) {
	var list []models.ExportJob
	for _, j := range m.jobs {
		if j.RequestedBy == userID {
			list = append(list, j)
		}
	}
	return list, nil
}

type mockExportStudents struct {
	students []models.Student
}

func (m *mockExportStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if filter.Page > 1 {
		return nil, len(m.students), nil
	}
	return m.students, len(m.students), nil
}

type mockExportEmployees struct{}

func (m *mockExportEmployees) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	return nil, 0, nil
}

type mockExportFees struct{}

func (m *mockExportFees) ListPayments(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePayment, int, error) {
	return nil, 0, nil
}

type mockExportStorage struct {
	saved map[string][]byte
}

func (m *mockExportStorage) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockExportStorage) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *mockExportStorage) Delete(filename string) error { return nil }

func (m *mockExportStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func newExportFixture(students []models.Student) (*ExportService, *mockExportJobStore, *mockExportStorage) {
	repo := &mockExportJobStore{}
	store := &mockExportStorage{}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(repo, &mockExportStudents{students: students}, &mockExportEmployees{}, &mockExportFees{}, store, signer, ExportServiceConfig{APIPrefix: "/api/v1"}, nil)
	svc.SetQueue(&mockDispatcher{})
	return svc, repo, store
}

func TestProcessExportProducesFile(t *testing.T) {
	svc, repo, store := newExportFixture([]models.Student{
		{AdmissionNo: "ADM-001", FullName: "Rahul Sharma", ClassSection: "5A", Status: models.StudentStatusActive},
	})
	job, err := svc.CreateJob(context.Background(), dto.CreateExportRequest{Type: models.ExportTypeStudents, Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)}))

	stored := repo.jobs[job.ID]
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultPath)
	require.Len(t, store.saved, 1)
	payload := store.saved[*stored.ResultPath]
	assert.Contains(t, string(payload), "ADM-001")
	assert.Contains(t, string(payload), "Rahul Sharma")
}

func TestProcessEmptyDatasetFailsWithoutFile(t *testing.T) {
	svc, repo, store := newExportFixture(nil)
	job, err := svc.CreateJob(context.Background(), dto.CreateExportRequest{Type: models.ExportTypeStudents, Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)

	// A nil return keeps the queue from retrying a job that can never succeed.
	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)}))

	stored := repo.jobs[job.ID]
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Equal(t, appErrors.ErrEmptyDataset.Message, *stored.Error)
	assert.Empty(t, store.saved)
}

func TestXLSExportMatchesCSVBytes(t *testing.T) {
	students := []models.Student{
		{AdmissionNo: "ADM-001", FullName: "Rahul Sharma", ClassSection: "5A", Status: models.StudentStatusActive},
	}

	csvSvc, csvRepo, csvStore := newExportFixture(students)
	csvJob, err := csvSvc.CreateJob(context.Background(), dto.CreateExportRequest{Type: models.ExportTypeStudents, Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)
	require.NoError(t, csvSvc.Process(context.Background(), jobs.Job{ID: csvJob.ID}))

	xlsSvc, xlsRepo, xlsStore := newExportFixture(students)
	xlsJob, err := xlsSvc.CreateJob(context.Background(), dto.CreateExportRequest{Type: models.ExportTypeStudents, Format: models.ExportFormatXLS}, "user-1")
	require.NoError(t, err)
	require.NoError(t, xlsSvc.Process(context.Background(), jobs.Job{ID: xlsJob.ID}))

	csvPayload := csvStore.saved[*csvRepo.jobs[csvJob.ID].ResultPath]
	xlsPayload := xlsStore.saved[*xlsRepo.jobs[xlsJob.ID].ResultPath]
	assert.Equal(t, csvPayload, xlsPayload)
	assert.Equal(t, "application/vnd.ms-excel", ExportContentType(models.ExportFormatXLS))
}

func TestCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	repo := &mockExportJobStore{}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(repo, &mockExportStudents{}, &mockExportEmployees{}, &mockExportFees{}, &mockExportStorage{}, signer, ExportServiceConfig{}, nil)
	svc.SetQueue(&mockDispatcher{err: fmt.Errorf("queue full")})

	_, err := svc.CreateJob(context.Background(), dto.CreateExportRequest{Type: models.ExportTypeStudents, Format: models.ExportFormatCSV}, "user-1")
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for _, j := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, j.Status)
	}
}

func TestGetJobEnforcesOwnership(t *testing.T) {
	svc, repo, _ := newExportFixture(nil)
	repo.jobs = map[string]models.ExportJob{
		"job-1": {ID: "job-1", Status: models.ExportStatusQueued, RequestedBy: "owner"},
	}

	_, err := svc.GetJob(context.Background(), "job-1", "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGetFinishedJobCarriesDownloadURL(t *testing.T) {
	svc, repo, _ := newExportFixture(nil)
	resultPath := "exports/students_20260829_120000.csv"
	repo.jobs = map[string]models.ExportJob{
		"job-1": {ID: "job-1", Status: models.ExportStatusFinished, Progress: 100, ResultPath: &resultPath, RequestedBy: "owner", Format: models.ExportFormatCSV},
	}

	resp, err := svc.GetJob(context.Background(), "job-1", "owner")
	require.NoError(t, err)
	assert.Contains(t, resp.DownloadURL, "/api/v1/exports/download/")
}
