package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-backoffice-api/internal/dto"
	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

type mockEmployeeStore struct {
	employees map[string]models.Employee
	taken     map[string]bool
	created   *models.Employee
}

func (m *mockEmployeeStore) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	var list []models.Employee
	for _, e := range m.employees {
		list = append(list, e)
	}
	return list, len(list), nil
}

func (m *mockEmployeeStore) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := m.employees[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEmployeeStore) ExistsByEmployeeNo(ctx context.Context, employeeNo string, excludeID string) (bool, error) {
	return m.taken[employeeNo], nil
}

func (m *mockEmployeeStore) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = "new-employee"
	}
	if m.employees == nil {
		m.employees = make(map[string]models.Employee)
	}
	m.employees[employee.ID] = *employee
	m.created = employee
	return nil
}

func (m *mockEmployeeStore) Update(ctx context.Context, employee *models.Employee) error {
	m.employees[employee.ID] = *employee
	return nil
}

func (m *mockEmployeeStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.employees[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.employees, id)
	return nil
}

type mockSalaryRuleReader struct {
	rules []models.SalaryConfig
}

func (m *mockSalaryRuleReader) ListOrdered(ctx context.Context) ([]models.SalaryConfig, error) {
	return m.rules, nil
}

func TestCreateEmployeeResolvesSalaryFromFirstMatchingRule(t *testing.T) {
	rules := &mockSalaryRuleReader{rules: []models.SalaryConfig{
		{Department: "teaching", Level: "senior", Amount: 60000, Frequency: "monthly", Position: 1},
		{Department: "teaching", Level: "", Amount: 45000, Frequency: "monthly", Position: 2},
		{Department: "admin", Level: "", Amount: 30000, Frequency: "monthly", Position: 3},
	}}
	repo := &mockEmployeeStore{}
	svc := NewEmployeeService(repo, rules, nil)

	employee, err := svc.Create(context.Background(), dto.CreateEmployeeRequest{
		EmployeeNo: "EMP-001",
		FullName:   "Priya Nair",
		Department: "Teaching",
		Level:      "junior",
	})
	require.NoError(t, err)
	// Level mismatch skips the senior rule; the wildcard teaching rule wins.
	assert.Equal(t, 45000.0, employee.SalaryAmount)
	assert.Equal(t, "monthly", employee.SalaryFrequency)
	assert.Equal(t, models.EmployeeStatusActive, employee.Status)
}

func TestCreateEmployeeSalaryResolutionHonoursFrequency(t *testing.T) {
	rules := &mockSalaryRuleReader{rules: []models.SalaryConfig{
		{Department: "science", Level: "senior", Amount: 1000, Frequency: "weekly", Position: 1},
		{Department: "science", Level: "senior", Amount: 45000, Frequency: "monthly", Position: 2},
	}}
	repo := &mockEmployeeStore{}
	svc := NewEmployeeService(repo, rules, nil)

	employee, err := svc.Create(context.Background(), dto.CreateEmployeeRequest{
		EmployeeNo:      "EMP-004",
		FullName:        "Meera Iyer",
		Department:      "Science",
		Level:           "Senior",
		SalaryFrequency: "Monthly",
	})
	require.NoError(t, err)
	// The earlier weekly rule must not shadow the monthly one the hire asked for.
	assert.Equal(t, 45000.0, employee.SalaryAmount)
	assert.Equal(t, "monthly", employee.SalaryFrequency)

	// No requested frequency accepts the first rule in order.
	employee, err = svc.Create(context.Background(), dto.CreateEmployeeRequest{
		EmployeeNo: "EMP-005",
		FullName:   "Rohan Desai",
		Department: "science",
		Level:      "senior",
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, employee.SalaryAmount)
	assert.Equal(t, "weekly", employee.SalaryFrequency)
}

func TestCreateEmployeeWithoutMatchingRuleKeepsSubmittedSalary(t *testing.T) {
	rules := &mockSalaryRuleReader{rules: []models.SalaryConfig{
		{Department: "teaching", Amount: 45000, Frequency: "monthly"},
	}}
	svc := NewEmployeeService(&mockEmployeeStore{}, rules, nil)

	employee, err := svc.Create(context.Background(), dto.CreateEmployeeRequest{
		EmployeeNo: "EMP-002",
		FullName:   "Joseph Mathew",
		Department: "transport",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, employee.SalaryAmount)
}

func TestCreateEmployeeKeepsExplicitSalary(t *testing.T) {
	rules := &mockSalaryRuleReader{rules: []models.SalaryConfig{
		{Department: "teaching", Amount: 45000, Frequency: "monthly"},
	}}
	svc := NewEmployeeService(&mockEmployeeStore{}, rules, nil)

	employee, err := svc.Create(context.Background(), dto.CreateEmployeeRequest{
		EmployeeNo:      "EMP-003",
		FullName:        "Kavita Rao",
		Department:      "teaching",
		SalaryAmount:    52000,
		SalaryFrequency: "monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, 52000.0, employee.SalaryAmount)
}

func TestCreateEmployeeRejectsDuplicateNumber(t *testing.T) {
	repo := &mockEmployeeStore{taken: map[string]bool{"EMP-001": true}}
	svc := NewEmployeeService(repo, &mockSalaryRuleReader{}, nil)

	_, err := svc.Create(context.Background(), dto.CreateEmployeeRequest{
		EmployeeNo: "EMP-001",
		FullName:   "Someone Else",
		Department: "admin",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestToggleEmployeeStatus(t *testing.T) {
	repo := &mockEmployeeStore{employees: map[string]models.Employee{
		"emp-1": {ID: "emp-1", Status: models.EmployeeStatusActive},
	}}
	svc := NewEmployeeService(repo, &mockSalaryRuleReader{}, nil)

	employee, err := svc.ToggleStatus(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeStatusInactive, employee.Status)

	employee, err = svc.ToggleStatus(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeStatusActive, employee.Status)
}

func TestDeleteMissingEmployee(t *testing.T) {
	svc := NewEmployeeService(&mockEmployeeStore{}, &mockSalaryRuleReader{}, nil)

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
