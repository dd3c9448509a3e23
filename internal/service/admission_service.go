package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

type admissionEnquiryStore interface {
	FindByID(ctx context.Context, id string) (*models.Enquiry, error)
	UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) error
}

type admissionRegistrationStore interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, registration *models.Registration) error
	UpdateStatus(ctx context.Context, id string, from, to models.RegistrationStatus, reviewerID string, reviewedAt time.Time) error
	MarkCompleted(ctx context.Context, id string) error
	ApproveWithStudent(ctx context.Context, registrationID string, student *models.Student, reviewerID string) error
}

type admissionStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdateStatus(ctx context.Context, id string, from, to models.StudentStatus) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AdmissionService drives the intake workflow: enquiry promotion,
// registration review, and the student lifecycle transitions.
type AdmissionService struct {
	enquiries     admissionEnquiryStore
	registrations admissionRegistrationStore
	students      admissionStudentStore
	audit         auditLogger
	logger        *zap.Logger
}

// NewAdmissionService constructs the service.
func NewAdmissionService(enquiries admissionEnquiryStore, registrations admissionRegistrationStore, students admissionStudentStore, audit auditLogger, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		enquiries:     enquiries,
		registrations: registrations,
		students:      students,
		audit:         audit,
		logger:        logger,
	}
}

// PromoteEnquiry converts a contacted lead into a pending registration and
// moves the enquiry into the in_registration stage.
func (s *AdmissionService) PromoteEnquiry(ctx context.Context, enquiryID, userID string) (*models.Registration, error) {
	enquiry, err := s.enquiries.FindByID(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enquiry")
	}
	if enquiry.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enquiry has been deleted")
	}
	if enquiry.Status == models.EnquiryStatusInRegistration || enquiry.Status == models.EnquiryStatusAdmissionDone {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enquiry is already in registration")
	}

	exists, err := s.registrations.ExistsByPhone(ctx, enquiry.MobileNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone")
	}
	if exists {
		return nil, appErrors.ErrDuplicatePhone
	}

	registration := &models.Registration{
		EnquiryID:     &enquiry.ID,
		FullName:      enquiry.FullName,
		ClassEnrolled: enquiry.ClassApplyingFor,
		Phone:         enquiry.MobileNo,
		ParentName:    enquiry.ParentName,
		Email:         enquiry.Email,
		Status:        models.RegistrationStatusPending,
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	if err := s.enquiries.UpdateStatus(ctx, enquiry.ID, models.EnquiryStatusInRegistration); err != nil {
		s.logger.Warn("failed to advance enquiry status after promotion",
			zap.String("enquiry_id", enquiry.ID), zap.Error(err))
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionEnquiryPromote,
		Resource:   "enquiry",
		ResourceID: &enquiry.ID,
		NewValues:  mustJSON(registration),
	})
	return registration, nil
}

// ListRegistrations returns registrations with pagination metadata.
func (s *AdmissionService) ListRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination, error) {
	registrations, total, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return registrations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetRegistration returns a single registration.
func (s *AdmissionService) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return registration, nil
}

// CreateRegistration records a walk-in registration without an enquiry.
func (s *AdmissionService) CreateRegistration(ctx context.Context, req dto.CreateRegistrationRequest, userID string) (*models.Registration, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	exists, err := s.registrations.ExistsByPhone(ctx, req.Phone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone")
	}
	if exists {
		return nil, appErrors.ErrDuplicatePhone
	}

	registration := &models.Registration{
		EnquiryID:     req.EnquiryID,
		FullName:      req.FullName,
		ClassEnrolled: req.ClassEnrolled,
		Phone:         req.Phone,
		ParentName:    req.ParentName,
		Address:       req.Address,
		Email:         req.Email,
		Status:        models.RegistrationStatusPending,
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	return registration, nil
}

// ReviewRegistration applies the reviewer decision. Approval inserts the
// provisional student and flips the registration inside one transaction, so
// a failure on either side leaves the registration pending.
func (s *AdmissionService) ReviewRegistration(ctx context.Context, id string, req dto.ReviewRegistrationRequest, reviewerID string) (*models.Registration, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if registration.Status != models.RegistrationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already reviewed")
	}

	now := time.Now().UTC()
	switch req.Decision {
	case models.RegistrationStatusApproved:
		student := &models.Student{
			RegistrationID: &registration.ID,
			FullName:       registration.FullName,
			ClassSection:   registration.ClassEnrolled,
			ParentName:     registration.ParentName,
			Phone:          registration.Phone,
			Address:        registration.Address,
			Status:         models.StudentStatusProvisional,
		}
		if err := s.registrations.ApproveWithStudent(ctx, registration.ID, student, reviewerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "registration already reviewed")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve registration")
		}
	case models.RegistrationStatusRejected:
		if err := s.registrations.UpdateStatus(ctx, registration.ID, models.RegistrationStatusPending, models.RegistrationStatusRejected, reviewerID, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "registration already reviewed")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject registration")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}

	registration.Status = req.Decision
	registration.ReviewedBy = &reviewerID
	registration.ReviewedAt = &now

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &reviewerID,
		Action:     models.AuditActionRegistrationReview,
		Resource:   "registration",
		ResourceID: &registration.ID,
		NewValues:  mustJSON(map[string]string{"decision": string(req.Decision)}),
	})
	return registration, nil
}

// MarkRegistrationCompleted closes an approved registration. This is a
// manual bookkeeping step and does not consult the student record.
func (s *AdmissionService) MarkRegistrationCompleted(ctx context.Context, id, userID string) error {
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if registration.Status != models.RegistrationStatusApproved {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "only approved registrations can be completed")
	}

	if err := s.registrations.MarkCompleted(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "registration already completed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete registration")
	}

	if registration.EnquiryID != nil {
		if err := s.enquiries.UpdateStatus(ctx, *registration.EnquiryID, models.EnquiryStatusAdmissionDone); err != nil {
			s.logger.Warn("failed to close linked enquiry",
				zap.String("enquiry_id", *registration.EnquiryID), zap.Error(err))
		}
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionRegistrationComplete,
		Resource:   "registration",
		ResourceID: &id,
	})
	return nil
}

// FinalizeAdmission activates a provisional student.
func (s *AdmissionService) FinalizeAdmission(ctx context.Context, studentID, userID string) error {
	if err := s.students.UpdateStatus(ctx, studentID, models.StudentStatusProvisional, models.StudentStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "student is not provisional")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize admission")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionAdmissionFinalize,
		Resource:   "student",
		ResourceID: &studentID,
	})
	return nil
}

// ToggleStudentStatus flips a student between active and inactive.
func (s *AdmissionService) ToggleStudentStatus(ctx context.Context, studentID, userID string) (models.StudentStatus, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.ErrNotFound
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var target models.StudentStatus
	switch student.Status {
	case models.StudentStatusActive:
		target = models.StudentStatusInactive
	case models.StudentStatusInactive:
		target = models.StudentStatusActive
	default:
		return "", appErrors.Clone(appErrors.ErrInvalidTransition, "only active or inactive students can be toggled")
	}

	if err := s.students.UpdateStatus(ctx, studentID, student.Status, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrConflict, "student status changed concurrently")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle student status")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionStudentStatusToggle,
		Resource:   "student",
		ResourceID: &studentID,
		NewValues:  mustJSON(map[string]string{"status": string(target)}),
	})
	return target, nil
}

// GraduateStudent moves an active student to alumni.
func (s *AdmissionService) GraduateStudent(ctx context.Context, studentID, userID string) error {
	if err := s.students.UpdateStatus(ctx, studentID, models.StudentStatusActive, models.StudentStatusAlumni); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "only active students can graduate")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to graduate student")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionStudentGraduate,
		Resource:   "student",
		ResourceID: &studentID,
	})
	return nil
}

func (s *AdmissionService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
