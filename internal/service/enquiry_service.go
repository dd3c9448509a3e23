package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

type enquiryStore interface {
	List(ctx context.Context, filter models.EnquiryFilter) ([]models.Enquiry, int, error)
	FindByID(ctx context.Context, id string) (*models.Enquiry, error)
	Create(ctx context.Context, enquiry *models.Enquiry) error
	Update(ctx context.Context, enquiry *models.Enquiry) error
	UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) error
	SetDeleted(ctx context.Context, id string, deleted bool) error
	PermanentDelete(ctx context.Context, id string) error
}

// EnquiryService manages admission leads.
type EnquiryService struct {
	repo   enquiryStore
	logger *zap.Logger
}

// NewEnquiryService constructs the service.
func NewEnquiryService(repo enquiryStore, logger *zap.Logger) *EnquiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnquiryService{repo: repo, logger: logger}
}

// List returns enquiries with pagination metadata.
func (s *EnquiryService) List(ctx context.Context, filter models.EnquiryFilter) ([]models.Enquiry, *models.Pagination, error) {
	enquiries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enquiries")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enquiries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single enquiry.
func (s *EnquiryService) Get(ctx context.Context, id string) (*models.Enquiry, error) {
	enquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enquiry")
	}
	return enquiry, nil
}

// Create records a new lead in the new stage.
func (s *EnquiryService) Create(ctx context.Context, req dto.CreateEnquiryRequest) (*models.Enquiry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enquiry payload")
	}
	enquiry := &models.Enquiry{
		FullName:         req.FullName,
		ClassApplyingFor: req.ClassApplyingFor,
		ParentName:       req.ParentName,
		MobileNo:         req.MobileNo,
		Email:            req.Email,
		Notes:            req.Notes,
		Status:           models.EnquiryStatusNew,
	}
	if err := s.repo.Create(ctx, enquiry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enquiry")
	}
	return enquiry, nil
}

// Update edits lead details without touching the workflow status.
func (s *EnquiryService) Update(ctx context.Context, id string, req dto.UpdateEnquiryRequest) (*models.Enquiry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enquiry payload")
	}
	enquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	enquiry.FullName = req.FullName
	enquiry.ClassApplyingFor = req.ClassApplyingFor
	enquiry.ParentName = req.ParentName
	enquiry.MobileNo = req.MobileNo
	enquiry.Email = req.Email
	enquiry.Notes = req.Notes
	if err := s.repo.Update(ctx, enquiry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enquiry")
	}
	return enquiry, nil
}

// UpdateStatus moves a lead between intake stages. Promotion into
// in_registration goes through the admission workflow, not here.
func (s *EnquiryService) UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) (*models.Enquiry, error) {
	if !models.ValidEnquiryStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown enquiry status")
	}
	if status == models.EnquiryStatusInRegistration {
		return nil, appErrors.Clone(appErrors.ErrValidation, "use the promote operation to start a registration")
	}
	enquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enquiry.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enquiry has been deleted")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enquiry status")
	}
	enquiry.Status = status
	return enquiry, nil
}

// SoftDelete hides an enquiry from default listings.
func (s *EnquiryService) SoftDelete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetDeleted(ctx, id, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enquiry")
	}
	return nil
}

// Restore brings a soft-deleted enquiry back.
func (s *EnquiryService) Restore(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetDeleted(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore enquiry")
	}
	return nil
}

// PermanentDelete purges a soft-deleted enquiry for good.
func (s *EnquiryService) PermanentDelete(ctx context.Context, id string) error {
	enquiry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !enquiry.IsDeleted {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "enquiry must be soft deleted first")
	}
	if err := s.repo.PermanentDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge enquiry")
	}
	return nil
}
