package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

type employeeStore interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	ExistsByEmployeeNo(ctx context.Context, employeeNo string, excludeID string) (bool, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
}

type salaryRuleReader interface {
	ListOrdered(ctx context.Context) ([]models.SalaryConfig, error)
}

// EmployeeService manages staff records. Salary fields left empty on hire
// are filled from the ordered salary configuration rules.
type EmployeeService struct {
	repo    employeeStore
	configs salaryRuleReader
	logger  *zap.Logger
}

// NewEmployeeService constructs the service.
func NewEmployeeService(repo employeeStore, configs salaryRuleReader, logger *zap.Logger) *EmployeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, configs: configs, logger: logger}
}

// List returns employees with pagination metadata.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return employees, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// Create hires a staff member. A zero salary amount is resolved from the
// salary configuration; no matching rule leaves the fields as submitted.
func (s *EmployeeService) Create(ctx context.Context, req dto.CreateEmployeeRequest) (*models.Employee, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	taken, err := s.repo.ExistsByEmployeeNo(ctx, req.EmployeeNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check employee number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "employee number already in use")
	}

	employee := &models.Employee{
		EmployeeNo:      req.EmployeeNo,
		FullName:        req.FullName,
		Department:      req.Department,
		Level:           req.Level,
		Phone:           req.Phone,
		Email:           req.Email,
		Status:          models.EmployeeStatusActive,
		SalaryAmount:    req.SalaryAmount,
		SalaryFrequency: req.SalaryFrequency,
		PhotoURL:        req.PhotoURL,
	}
	if employee.SalaryAmount == 0 {
		s.resolveSalary(ctx, employee)
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	return employee, nil
}

// Update edits staff master data.
func (s *EmployeeService) Update(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*models.Employee, error) {
	if err := validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.EmployeeNo != employee.EmployeeNo {
		taken, err := s.repo.ExistsByEmployeeNo(ctx, req.EmployeeNo, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check employee number")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "employee number already in use")
		}
	}
	employee.EmployeeNo = req.EmployeeNo
	employee.FullName = req.FullName
	employee.Department = req.Department
	employee.Level = req.Level
	employee.Phone = req.Phone
	employee.Email = req.Email
	employee.SalaryAmount = req.SalaryAmount
	employee.SalaryFrequency = req.SalaryFrequency
	employee.PhotoURL = req.PhotoURL
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	return employee, nil
}

// ToggleStatus flips an employee between active and inactive.
func (s *EmployeeService) ToggleStatus(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee.Status == models.EmployeeStatusActive {
		employee.Status = models.EmployeeStatusInactive
	} else {
		employee.Status = models.EmployeeStatusActive
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle employee status")
	}
	return employee, nil
}

// Delete removes an employee permanently.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete employee")
	}
	return nil
}

// resolveSalary walks the ordered salary rules and applies the first one
// matching the employee's department, level and requested frequency. An
// empty requested frequency accepts any rule. No match leaves the employee
// untouched.
func (s *EmployeeService) resolveSalary(ctx context.Context, employee *models.Employee) {
	if s.configs == nil {
		return
	}
	rules, err := s.configs.ListOrdered(ctx)
	if err != nil {
		s.logger.Warn("failed to load salary rules", zap.Error(err))
		return
	}
	for _, rule := range rules {
		if !strings.EqualFold(rule.Department, employee.Department) {
			continue
		}
		if rule.Level != "" && !strings.EqualFold(rule.Level, employee.Level) {
			continue
		}
		if employee.SalaryFrequency != "" && !strings.EqualFold(rule.Frequency, employee.SalaryFrequency) {
			continue
		}
		employee.SalaryAmount = rule.Amount
		employee.SalaryFrequency = rule.Frequency
		return
	}
}
