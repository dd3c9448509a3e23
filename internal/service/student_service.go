package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

// bulkImportHeaders is the exact header row required by the CSV importer.
var bulkImportHeaders = []string{"admission_no", "full_name", "class_section", "parent_name", "phone", "address", "status"}

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByAdmissionNo(ctx context.Context, admissionNo string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	CreateBatch(ctx context.Context, students []*models.Student) error
}

// StudentService manages student master data and the CSV importer.
type StudentService struct {
	repo   studentStore
	audit  auditLogger
	logger *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentStore, audit auditLogger, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, audit: audit, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create records a student directly, bypassing the admission workflow.
// Used for transfers and data corrections; defaults to active.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	taken, err := s.repo.ExistsByAdmissionNo(ctx, req.AdmissionNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admission number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already in use")
	}

	status := models.StudentStatus(req.Status)
	if req.Status == "" {
		status = models.StudentStatusActive
	}
	student := &models.Student{
		AdmissionNo:  req.AdmissionNo,
		FullName:     req.FullName,
		ClassSection: req.ClassSection,
		ParentName:   req.ParentName,
		Phone:        req.Phone,
		Address:      req.Address,
		PhotoURL:     req.PhotoURL,
		Status:       status,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update edits student master data. Admission numbers stay unique.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AdmissionNo != student.AdmissionNo {
		taken, err := s.repo.ExistsByAdmissionNo(ctx, req.AdmissionNo, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admission number")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already in use")
		}
	}
	student.AdmissionNo = req.AdmissionNo
	student.FullName = req.FullName
	student.ClassSection = req.ClassSection
	student.ParentName = req.ParentName
	student.Phone = req.Phone
	student.Address = req.Address
	student.PhotoURL = req.PhotoURL
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// BulkImport reads a CSV stream and inserts students all-or-nothing. The
// header row must match bulkImportHeaders exactly and every row must be
// valid before anything is written.
func (s *StudentService) BulkImport(ctx context.Context, r io.Reader, userID string) (*dto.BulkImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty or unreadable CSV file")
	}
	if err := validateImportHeader(header); err != nil {
		return nil, err
	}

	var students []*models.Student
	var rowErrors []string
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		student, err := parseImportRow(record)
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		students = append(students, student)
	}

	if len(rowErrors) > 0 {
		return &dto.BulkImportResult{Errors: rowErrors}, appErrors.Clone(appErrors.ErrValidation, "import rejected, fix the listed rows")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "CSV contains no data rows")
	}

	seen := make(map[string]int, len(students))
	for i, student := range students {
		if prev, dup := seen[student.AdmissionNo]; dup {
			return &dto.BulkImportResult{Errors: []string{fmt.Sprintf("admission_no %s duplicated on rows %d and %d", student.AdmissionNo, prev+2, i+2)}},
				appErrors.Clone(appErrors.ErrValidation, "import rejected, duplicate admission numbers")
		}
		seen[student.AdmissionNo] = i
	}
	for _, student := range students {
		taken, err := s.repo.ExistsByAdmissionNo(ctx, student.AdmissionNo, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admission number")
		}
		if taken {
			return &dto.BulkImportResult{Errors: []string{fmt.Sprintf("admission_no %s already exists", student.AdmissionNo)}},
				appErrors.Clone(appErrors.ErrConflict, "import rejected, admission number already in use")
		}
	}

	if err := s.repo.CreateBatch(ctx, students); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import students")
	}

	if s.audit != nil {
		log := &models.AuditLog{
			UserID:    &userID,
			Action:    models.AuditActionStudentImport,
			Resource:  "student",
			NewValues: []byte(fmt.Sprintf(`{"imported":%d}`, len(students))),
		}
		if err := s.audit.CreateAuditLog(ctx, log); err != nil {
			s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
		}
	}
	return &dto.BulkImportResult{Imported: len(students)}, nil
}

func validateImportHeader(header []string) error {
	if len(header) != len(bulkImportHeaders) {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("expected %d columns, got %d", len(bulkImportHeaders), len(header)))
	}
	for i, want := range bulkImportHeaders {
		got := strings.ToLower(strings.TrimSpace(header[i]))
		if got != want {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("column %d must be %q, got %q", i+1, want, header[i]))
		}
	}
	return nil
}

func parseImportRow(record []string) (*models.Student, error) {
	if len(record) != len(bulkImportHeaders) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(bulkImportHeaders), len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	if record[0] == "" {
		return nil, fmt.Errorf("admission_no is required")
	}
	if record[1] == "" {
		return nil, fmt.Errorf("full_name is required")
	}
	status, err := parseImportStatus(record[6])
	if err != nil {
		return nil, err
	}
	return &models.Student{
		AdmissionNo:  record[0],
		FullName:     record[1],
		ClassSection: record[2],
		ParentName:   record[3],
		Phone:        record[4],
		Address:      record[5],
		Status:       status,
	}, nil
}

// parseImportStatus accepts the lifecycle enum plus the keywords the legacy
// exports used for the same states.
func parseImportStatus(raw string) (models.StudentStatus, error) {
	switch strings.ToLower(raw) {
	case "", "active":
		return models.StudentStatusActive, nil
	case "provisional":
		return models.StudentStatusProvisional, nil
	case "inactive", "left":
		return models.StudentStatusInactive, nil
	case "alumni", "graduated":
		return models.StudentStatusAlumni, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}
