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

type mockSalaryPaymentStore struct {
	payments []models.SalaryPayment
	periods  map[string]bool
}

func (m *mockSalaryPaymentStore) Create(ctx context.Context, payment *models.SalaryPayment) error {
	if payment.ID == "" {
		payment.ID = "new-salary-payment"
	}
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *mockSalaryPaymentStore) ExistsForPeriod(ctx context.Context, employeeID, period string) (bool, error) {
	return m.periods[employeeID+":"+period], nil
}

func (m *mockSalaryPaymentStore) List(ctx context.Context, filter models.SalaryPaymentFilter) ([]models.SalaryPayment, int, error) {
	return m.payments, len(m.payments), nil
}

type mockSalaryConfigStore struct {
	configs []models.SalaryConfig
}

func (m *mockSalaryConfigStore) ListOrdered(ctx context.Context) ([]models.SalaryConfig, error) {
	return m.configs, nil
}

func (m *mockSalaryConfigStore) FindByID(ctx context.Context, id string) (*models.SalaryConfig, error) {
	for _, c := range m.configs {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSalaryConfigStore) Create(ctx context.Context, config *models.SalaryConfig) error {
	if config.ID == "" {
		config.ID = "new-config"
	}
	m.configs = append(m.configs, *config)
	return nil
}

func (m *mockSalaryConfigStore) Update(ctx context.Context, config *models.SalaryConfig) error {
	for i, c := range m.configs {
		if c.ID == config.ID {
			m.configs[i] = *config
		}
	}
	return nil
}

func (m *mockSalaryConfigStore) Delete(ctx context.Context, id string) error {
	return nil
}

func newPayrollFixture(payments *mockSalaryPaymentStore) *PayrollService {
	employees := &mockEmployeeStore{employees: map[string]models.Employee{
		"emp-1":    {ID: "emp-1", Status: models.EmployeeStatusActive, SalaryAmount: 40000},
		"inactive": {ID: "inactive", Status: models.EmployeeStatusInactive, SalaryAmount: 40000},
	}}
	return NewPayrollService(&mockSalaryConfigStore{}, payments, employees, &mockAuditLogger{}, nil)
}

func TestRecordSalaryPaymentComputesTotal(t *testing.T) {
	payments := &mockSalaryPaymentStore{}
	svc := newPayrollFixture(payments)

	payment, err := svc.RecordPayment(context.Background(), dto.RecordSalaryPaymentRequest{
		EmployeeID:      "emp-1",
		Period:          "2026-08",
		BonusAmount:     5000,
		DeductionAmount: 1500,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 40000.0, payment.BaseAmount)
	assert.Equal(t, 43500.0, payment.TotalAmount)
	require.Len(t, payments.payments, 1)
	assert.Equal(t, "user-1", payments.payments[0].PaidBy)
}

func TestRecordSalaryPaymentClampsNegativeTotal(t *testing.T) {
	payments := &mockSalaryPaymentStore{}
	svc := newPayrollFixture(payments)

	payment, err := svc.RecordPayment(context.Background(), dto.RecordSalaryPaymentRequest{
		EmployeeID:      "emp-1",
		Period:          "2026-08",
		DeductionAmount: 50000,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, payment.TotalAmount)
}

func TestRecordSalaryPaymentRejectsDuplicatePeriod(t *testing.T) {
	payments := &mockSalaryPaymentStore{periods: map[string]bool{"emp-1:2026-08": true}}
	svc := newPayrollFixture(payments)

	_, err := svc.RecordPayment(context.Background(), dto.RecordSalaryPaymentRequest{
		EmployeeID: "emp-1",
		Period:     "2026-08",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, payments.payments)
}

func TestRecordSalaryPaymentRequiresActiveEmployee(t *testing.T) {
	payments := &mockSalaryPaymentStore{}
	svc := newPayrollFixture(payments)

	_, err := svc.RecordPayment(context.Background(), dto.RecordSalaryPaymentRequest{
		EmployeeID: "inactive",
		Period:     "2026-08",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
