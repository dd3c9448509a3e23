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

type salaryConfigStore interface {
	ListOrdered(ctx context.Context) ([]models.SalaryConfig, error)
	FindByID(ctx context.Context, id string) (*models.SalaryConfig, error)
	Create(ctx context.Context, config *models.SalaryConfig) error
	Update(ctx context.Context, config *models.SalaryConfig) error
	Delete(ctx context.Context, id string) error
}

type salaryPaymentStore interface {
	Create(ctx context.Context, payment *models.SalaryPayment) error
	ExistsForPeriod(ctx context.Context, employeeID, period string) (bool, error)
	List(ctx context.Context, filter models.SalaryPaymentFilter) ([]models.SalaryPayment, int, error)
}

type payrollEmployeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

// PayrollService manages salary configuration rules and the disbursement
// ledger.
type PayrollService struct {
	configs   salaryConfigStore
	payments  salaryPaymentStore
	employees payrollEmployeeReader
	audit     auditLogger
	logger    *zap.Logger
}

// NewPayrollService constructs the service.
func NewPayrollService(configs salaryConfigStore, payments salaryPaymentStore, employees payrollEmployeeReader, audit auditLogger, logger *zap.Logger) *PayrollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{
		configs:   configs,
		payments:  payments,
		employees: employees,
		audit:     audit,
		logger:    logger,
	}
}

// ListConfigs returns all salary rules in evaluation order.
func (s *PayrollService) ListConfigs(ctx context.Context) ([]models.SalaryConfig, error) {
	configs, err := s.configs.ListOrdered(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salary configs")
	}
	return configs, nil
}

// CreateConfig adds a salary rule.
func (s *PayrollService) CreateConfig(ctx context.Context, req dto.SalaryConfigRequest) (*models.SalaryConfig, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary rule payload")
	}
	config := &models.SalaryConfig{
		Department: req.Department,
		Level:      req.Level,
		Frequency:  req.Frequency,
		Amount:     req.Amount,
		Position:   req.Position,
	}
	if err := s.configs.Create(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create salary config")
	}
	return config, nil
}

// UpdateConfig edits a salary rule.
func (s *PayrollService) UpdateConfig(ctx context.Context, id string, req dto.SalaryConfigRequest) (*models.SalaryConfig, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary rule payload")
	}
	config, err := s.configs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary config")
	}
	config.Department = req.Department
	config.Level = req.Level
	config.Frequency = req.Frequency
	config.Amount = req.Amount
	if req.Position > 0 {
		config.Position = req.Position
	}
	if err := s.configs.Update(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update salary config")
	}
	return config, nil
}

// DeleteConfig removes a salary rule.
func (s *PayrollService) DeleteConfig(ctx context.Context, id string) error {
	if err := s.configs.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete salary config")
	}
	return nil
}

// RecordPayment disburses one salary for the period. The base amount comes
// from the employee record; bonus and deduction adjust it, clamped at zero.
func (s *PayrollService) RecordPayment(ctx context.Context, req dto.RecordSalaryPaymentRequest, userID string) (*models.SalaryPayment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if employee.Status != models.EmployeeStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "employee is not active")
	}

	exists, err := s.payments.ExistsForPeriod(ctx, req.EmployeeID, req.Period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check salary period")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "salary already paid for this period")
	}

	total := employee.SalaryAmount + req.BonusAmount - req.DeductionAmount
	if total < 0 {
		total = 0
	}
	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment := &models.SalaryPayment{
		EmployeeID:      req.EmployeeID,
		BaseAmount:      employee.SalaryAmount,
		BonusAmount:     req.BonusAmount,
		DeductionAmount: req.DeductionAmount,
		TotalAmount:     total,
		Period:          req.Period,
		ReferenceNo:     req.ReferenceNo,
		PaidAt:          paidAt,
		PaidBy:          userID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record salary payment")
	}

	if s.audit != nil {
		log := &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionSalaryPaymentRecord,
			Resource:   "salary_payment",
			ResourceID: &payment.ID,
			NewValues:  mustJSON(payment),
		}
		if err := s.audit.CreateAuditLog(ctx, log); err != nil {
			s.logger.Warn("failed to write audit log", zap.String("action", log.Action), zap.Error(err))
		}
	}
	return payment, nil
}

// ListPayments returns the disbursement ledger with pagination metadata.
func (s *PayrollService) ListPayments(ctx context.Context, filter models.SalaryPaymentFilter) ([]models.SalaryPayment, *models.Pagination, error) {
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salary payments")
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
