package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
	"github.com/noah-isme/school-backoffice-api/pkg/export"
	"github.com/noah-isme/school-backoffice-api/pkg/jobs"
	"github.com/noah-isme/school-backoffice-api/pkg/storage"
)

const exportPageSize = 100

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateProgress(ctx context.Context, id string, status models.ExportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultPath string) error
	MarkFailed(ctx context.Context, id, reason string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ExportJob, error)
}

type exportStudentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type exportEmployeeSource interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
}

type exportFeePaymentSource interface {
	ListPayments(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePayment, int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportServiceConfig tunes export behaviour.
type ExportServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService queues export jobs, builds the fixed-column datasets, and
// serves rendered files through signed download tokens.
type ExportService struct {
	repo      exportJobStore
	students  exportStudentSource
	employees exportEmployeeSource
	fees      exportFeePaymentSource
	storage   exportFileStorage
	signer    *storage.SignedURLSigner
	queue     jobDispatcher
	csv       datasetRenderer
	txt       datasetRenderer
	pdf       pdfRenderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportServiceConfig
}

// NewExportService constructs the service. Renderers default to the stock
// exporters when nil.
func NewExportService(repo exportJobStore, students exportStudentSource, employees exportEmployeeSource, fees exportFeePaymentSource, fileStore exportFileStorage, signer *storage.SignedURLSigner, cfg ExportServiceConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		repo:      repo,
		students:  students,
		employees: employees,
		fees:      fees,
		storage:   fileStore,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		txt:       export.NewTextExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue wires the job dispatcher. The queue needs the service's Process
// handler, so it is attached after construction.
func (s *ExportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// SetMetrics attaches the metrics collector.
func (s *ExportService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// CreateJob persists a job record and enqueues processing.
func (s *ExportService) CreateJob(ctx context.Context, req dto.CreateExportRequest, userID string) (*models.ExportJob, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	job := &models.ExportJob{
		Type:        req.Type,
		Format:      req.Format,
		Status:      models.ExportStatusQueued,
		RequestedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if s.queue == nil {
		return nil, appErrors.Wrap(fmt.Errorf("queue not attached"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue unavailable")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		if failErr := s.repo.MarkFailed(ctx, job.ID, "failed to enqueue job"); failErr != nil {
			s.logger.Warn("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(failErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// GetJob returns job status for the requesting user. A finished job carries
// a fresh signed download URL.
func (s *ExportService) GetJob(ctx context.Context, id, userID string) (*dto.ExportJobResponse, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.RequestedBy != userID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ExportJobResponse{ExportJob: *job}
	if job.Status == models.ExportStatusFinished && job.ResultPath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.ResultPath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
		}
		prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
		if prefix == "" {
			prefix = "/api/v1"
		}
		resp.DownloadURL = fmt.Sprintf("%s/exports/download/%s", prefix, token)
	}
	return resp, nil
}

// ListJobs returns the user's recent export jobs.
func (s *ExportService) ListJobs(ctx context.Context, userID string, limit int) ([]models.ExportJob, error) {
	listed, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	return listed, nil
}

// ResolveDownload validates a token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished || job.ResultPath == nil || *job.ResultPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Process is the queue handler: build, render, store.
func (s *ExportService) Process(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.FindByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateProgress(ctx, record.ID, models.ExportStatusProcessing, 10); err != nil {
		return err
	}

	dataset, title, err := s.buildDataset(ctx, record.Type)
	if err != nil {
		if errors.Is(err, appErrors.ErrEmptyDataset) {
			// Nothing to render, no point retrying.
			if failErr := s.repo.MarkFailed(ctx, record.ID, appErrors.ErrEmptyDataset.Message); failErr != nil {
				s.logger.Warn("failed to mark export job failed", zap.String("job_id", record.ID), zap.Error(failErr))
			}
			s.metrics.RecordExportJob(string(models.ExportStatusFailed))
			return nil
		}
		s.failJob(ctx, record.ID, err)
		return err
	}
	if err := s.repo.UpdateProgress(ctx, record.ID, models.ExportStatusProcessing, 50); err != nil {
		return err
	}

	payload, err := s.render(dataset, title, record.Format)
	if err != nil {
		s.failJob(ctx, record.ID, err)
		return err
	}

	filename := buildExportFilename(record.Type, record.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.failJob(ctx, record.ID, err)
		return err
	}
	if err := s.repo.MarkFinished(ctx, record.ID, relPath); err != nil {
		return err
	}
	s.metrics.RecordExportJob(string(models.ExportStatusFinished))
	s.logger.Info("export finished",
		zap.String("job_id", record.ID),
		zap.String("type", string(record.Type)),
		zap.String("format", string(record.Format)),
		zap.Int("rows", len(dataset.Rows)))
	return nil
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
				} else if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func (s *ExportService) failJob(ctx context.Context, id string, cause error) {
	if err := s.repo.MarkFailed(ctx, id, cause.Error()); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.RecordExportJob(string(models.ExportStatusFailed))
}

func (s *ExportService) render(dataset export.Dataset, title string, format models.ExportFormat) ([]byte, error) {
	switch format {
	case models.ExportFormatCSV, models.ExportFormatXLS:
		// xls is served as CSV bytes under a spreadsheet name, matching the
		// legacy exports.
		return s.csv.Render(dataset)
	case models.ExportFormatTXT:
		return s.txt.Render(dataset)
	case models.ExportFormatPDF:
		return s.pdf.Render(dataset, title)
	}
	return nil, fmt.Errorf("unsupported export format %s", format)
}

func (s *ExportService) buildDataset(ctx context.Context, exportType models.ExportType) (export.Dataset, string, error) {
	switch exportType {
	case models.ExportTypeStudents:
		return s.buildStudentDataset(ctx)
	case models.ExportTypeEmployees:
		return s.buildEmployeeDataset(ctx)
	case models.ExportTypeFeePayments:
		return s.buildFeePaymentDataset(ctx)
	}
	return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", exportType)
}

func (s *ExportService) buildStudentDataset(ctx context.Context) (export.Dataset, string, error) {
	headers := []string{"Admission No", "Full Name", "Class", "Parent Name", "Phone", "Address", "Status"}
	var rows []map[string]string
	for page := 1; ; page++ {
		students, _, err := s.students.List(ctx, models.StudentFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, student := range students {
			rows = append(rows, map[string]string{
				"Admission No": student.AdmissionNo,
				"Full Name":    student.FullName,
				"Class":        student.ClassSection,
				"Parent Name":  student.ParentName,
				"Phone":        student.Phone,
				"Address":      student.Address,
				"Status":       string(student.Status),
			})
		}
		if len(students) < exportPageSize {
			break
		}
	}
	if len(rows) == 0 {
		return export.Dataset{}, "", appErrors.ErrEmptyDataset
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Student List", nil
}

func (s *ExportService) buildEmployeeDataset(ctx context.Context) (export.Dataset, string, error) {
	headers := []string{"Employee No", "Full Name", "Department", "Level", "Phone", "Email", "Status", "Salary Amount", "Salary Frequency"}
	var rows []map[string]string
	for page := 1; ; page++ {
		employees, _, err := s.employees.List(ctx, models.EmployeeFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, employee := range employees {
			rows = append(rows, map[string]string{
				"Employee No":      employee.EmployeeNo,
				"Full Name":        employee.FullName,
				"Department":       employee.Department,
				"Level":            employee.Level,
				"Phone":            employee.Phone,
				"Email":            employee.Email,
				"Status":           string(employee.Status),
				"Salary Amount":    fmt.Sprintf("%.2f", employee.SalaryAmount),
				"Salary Frequency": employee.SalaryFrequency,
			})
		}
		if len(employees) < exportPageSize {
			break
		}
	}
	if len(rows) == 0 {
		return export.Dataset{}, "", appErrors.ErrEmptyDataset
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Employee List", nil
}

func (s *ExportService) buildFeePaymentDataset(ctx context.Context) (export.Dataset, string, error) {
	headers := []string{"Payment ID", "Student ID", "Base Amount", "Discount Amount", "Total Amount", "Method", "Reference No", "Paid At", "Received By"}
	var rows []map[string]string
	for page := 1; ; page++ {
		payments, _, err := s.fees.ListPayments(ctx, models.FeePaymentFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, payment := range payments {
			rows = append(rows, map[string]string{
				"Payment ID":      payment.ID,
				"Student ID":      payment.StudentID,
				"Base Amount":     fmt.Sprintf("%.2f", payment.BaseAmount),
				"Discount Amount": fmt.Sprintf("%.2f", payment.DiscountAmount),
				"Total Amount":    fmt.Sprintf("%.2f", payment.TotalAmount),
				"Method":          payment.Method,
				"Reference No":    payment.ReferenceNo,
				"Paid At":         payment.PaidAt.UTC().Format(time.RFC3339),
				"Received By":     payment.ReceivedBy,
			})
		}
		if len(payments) < exportPageSize {
			break
		}
	}
	if len(rows) == 0 {
		return export.Dataset{}, "", appErrors.ErrEmptyDataset
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Fee Payment List", nil
}

func buildExportFilename(exportType models.ExportType, format models.ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", exportType, timestamp, format)
}

// ExportContentType maps a format onto the download content type.
func ExportContentType(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatCSV:
		return "text/csv"
	case models.ExportFormatXLS:
		return "application/vnd.ms-excel"
	case models.ExportFormatTXT:
		return "text/plain"
	case models.ExportFormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}
