package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

type feeStore interface {
	ListStructures(ctx context.Context, className string) ([]models.FeeStructure, error)
	FindStructureByID(ctx context.Context, id string) (*models.FeeStructure, error)
	CreateStructure(ctx context.Context, structure *models.FeeStructure) error
	UpdateStructure(ctx context.Context, structure *models.FeeStructure) error
	DeleteStructure(ctx context.Context, id string) error
	CreatePayment(ctx context.Context, payment *models.FeePayment) error
	ListPayments(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePayment, int, error)
}

type discountStore interface {
	List(ctx context.Context, category models.DiscountCategory, activeOnly bool) ([]models.Discount, error)
	FindByID(ctx context.Context, id string) (*models.Discount, error)
	Create(ctx context.Context, discount *models.Discount) error
	Update(ctx context.Context, discount *models.Discount) error
	Delete(ctx context.Context, id string) error
}

type feeStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// FeeService manages fee structures, discounts, and the collection ledger.
type FeeService struct {
	fees      feeStore
	discounts discountStore
	students  feeStudentReader
	audit     auditLogger
	logger    *zap.Logger
}

// NewFeeService constructs the service.
func NewFeeService(fees feeStore, discounts discountStore, students feeStudentReader, audit auditLogger, logger *zap.Logger) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{
		fees:      fees,
		discounts: discounts,
		students:  students,
		audit:     audit,
		logger:    logger,
	}
}

// CalculateTotal applies a discount to a base amount, clamped at zero. A nil
// discount returns the base unchanged.
func CalculateTotal(base float64, discount *models.Discount) float64 {
	if discount == nil {
		return base
	}
	return discount.Apply(base)
}

// ListStructures returns fee structures, optionally filtered by class.
func (s *FeeService) ListStructures(ctx context.Context, className string) ([]models.FeeStructure, error) {
	structures, err := s.fees.ListStructures(ctx, className)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structures")
	}
	return structures, nil
}

// CreateStructure adds a billable fee definition.
func (s *FeeService) CreateStructure(ctx context.Context, req dto.FeeStructureRequest) (*models.FeeStructure, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}
	structure := &models.FeeStructure{
		ClassName: req.ClassName,
		FeeType:   req.FeeType,
		Amount:    req.Amount,
		Frequency: req.Frequency,
	}
	if err := s.fees.CreateStructure(ctx, structure); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee structure")
	}
	return structure, nil
}

// UpdateStructure edits a fee definition. Past payments keep their frozen
// amounts.
func (s *FeeService) UpdateStructure(ctx context.Context, id string, req dto.FeeStructureRequest) (*models.FeeStructure, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}
	structure, err := s.fees.FindStructureByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	structure.ClassName = req.ClassName
	structure.FeeType = req.FeeType
	structure.Amount = req.Amount
	structure.Frequency = req.Frequency
	if err := s.fees.UpdateStructure(ctx, structure); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee structure")
	}
	return structure, nil
}

// DeleteStructure removes a fee definition.
func (s *FeeService) DeleteStructure(ctx context.Context, id string) error {
	if err := s.fees.DeleteStructure(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee structure")
	}
	return nil
}

// ListDiscounts returns discounts, optionally scoped to a category.
func (s *FeeService) ListDiscounts(ctx context.Context, category models.DiscountCategory, activeOnly bool) ([]models.Discount, error) {
	discounts, err := s.discounts.List(ctx, category, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list discounts")
	}
	return discounts, nil
}

// CreateDiscount adds a discount definition.
func (s *FeeService) CreateDiscount(ctx context.Context, req dto.DiscountRequest) (*models.Discount, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discount payload")
	}
	if models.DiscountType(req.Type) == models.DiscountTypePercentage && req.Value > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "percentage discount cannot exceed 100")
	}
	discount := &models.Discount{
		Name:     req.Name,
		Category: models.DiscountCategory(req.Category),
		Type:     models.DiscountType(req.Type),
		Value:    req.Value,
		Active:   req.Active,
	}
	if err := s.discounts.Create(ctx, discount); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create discount")
	}
	return discount, nil
}

// UpdateDiscount edits a discount definition.
func (s *FeeService) UpdateDiscount(ctx context.Context, id string, req dto.DiscountRequest) (*models.Discount, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discount payload")
	}
	if models.DiscountType(req.Type) == models.DiscountTypePercentage && req.Value > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "percentage discount cannot exceed 100")
	}
	discount, err := s.discounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discount")
	}
	discount.Name = req.Name
	discount.Category = models.DiscountCategory(req.Category)
	discount.Type = models.DiscountType(req.Type)
	discount.Value = req.Value
	discount.Active = req.Active
	if err := s.discounts.Update(ctx, discount); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update discount")
	}
	return discount, nil
}

// DeleteDiscount removes a discount definition.
func (s *FeeService) DeleteDiscount(ctx context.Context, id string) error {
	if err := s.discounts.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete discount")
	}
	return nil
}

// RecordPayment collects a fee. The discounted total is computed here and
// frozen on the ledger row; there is no reversal or void.
func (s *FeeService) RecordPayment(ctx context.Context, req dto.RecordFeePaymentRequest, userID string) (*models.FeePayment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status == models.StudentStatusAlumni {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot collect fees from alumni")
	}

	structure, err := s.fees.FindStructureByID(ctx, req.FeeStructureID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}

	var discount *models.Discount
	if req.DiscountID != nil && *req.DiscountID != "" {
		discount, err = s.discounts.FindByID(ctx, *req.DiscountID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "discount not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discount")
		}
		if !discount.Active {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "discount is not active")
		}
		if discount.Category != models.DiscountCategoryStudent {
			return nil, appErrors.Clone(appErrors.ErrValidation, "discount does not apply to students")
		}
	}

	total := CalculateTotal(structure.Amount, discount)
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment := &models.FeePayment{
		StudentID:      req.StudentID,
		FeeStructureID: req.FeeStructureID,
		BaseAmount:     structure.Amount,
		DiscountID:     req.DiscountID,
		DiscountAmount: structure.Amount - total,
		TotalAmount:    total,
		Method:         req.Method,
		ReferenceNo:    req.ReferenceNo,
		PaidAt:         paidAt,
		ReceivedBy:     userID,
	}
	if err := s.fees.CreatePayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record fee payment")
	}

	if s.audit != nil {
		log := &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionFeePaymentRecord,
			Resource:   "fee_payment",
			ResourceID: &payment.ID,
			NewValues:  mustJSON(payment),
		}
		if err := s.audit.CreateAuditLog(ctx, log); err != nil {
			s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
		}
	}
	return payment, nil
}

// ListPayments returns the collection ledger with pagination metadata.
func (s *FeeService) ListPayments(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePayment, *models.Pagination, error) {
	payments, total, err := s.fees.ListPayments(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
