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

type mockFeeStore struct {
	structures map[string]models.FeeStructure
	payments   []models.FeePayment
}

func (m *mockFeeStore) ListStructures(ctx context.Context, className string) ([]models.FeeStructure, error) {
	var list []models.FeeStructure
	for _, s := range m.structures {
		list = append(list, s)
	}
	return list, nil
}

func (m *mockFeeStore) FindStructureByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	if s, ok := m.structures[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeeStore) CreateStructure(ctx context.Context, structure *models.FeeStructure) error {
	if structure.ID == "" {
		structure.ID = "new-structure"
	}
	if m.structures == nil {
		m.structures = make(map[string]models.FeeStructure)
	}
	m.structures[structure.ID] = *structure
	return nil
}

func (m *mockFeeStore) UpdateStructure(ctx context.Context, structure *models.FeeStructure) error {
	m.structures[structure.ID] = *structure
	return nil
}

func (m *mockFeeStore) DeleteStructure(ctx context.Context, id string) error {
	delete(m.structures, id)
	return nil
}

func (m *mockFeeStore) CreatePayment(ctx context.Context, payment *models.FeePayment) error {
	if payment.ID == "" {
		payment.ID = "new-payment"
	}
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *mockFeeStore) ListPayments(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePayment, int, error) {
	return m.payments, len(m.payments), nil
}

type mockDiscountStore struct {
	discounts map[string]models.Discount
}

func (m *mockDiscountStore) List(ctx context.Context, category models.DiscountCategory, activeOnly bool) ([]models.Discount, error) {
	var list []models.Discount
	for _, d := range m.discounts {
		list = append(list, d)
	}
	return list, nil
}

func (m *mockDiscountStore) FindByID(ctx context.Context, id string) (*models.Discount, error) {
	if d, ok := m.discounts[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDiscountStore) Create(ctx context.Context, discount *models.Discount) error {
	if discount.ID == "" {
		discount.ID = "new-discount"
	}
	if m.discounts == nil {
		m.discounts = make(map[string]models.Discount)
	}
	m.discounts[discount.ID] = *discount
	return nil
}

func (m *mockDiscountStore) Update(ctx context.Context, discount *models.Discount) error {
	m.discounts[discount.ID] = *discount
	return nil
}

func (m *mockDiscountStore) Delete(ctx context.Context, id string) error {
	delete(m.discounts, id)
	return nil
}

type mockFeeStudentReader struct {
	students map[string]models.Student
}

func (m *mockFeeStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func TestCalculateTotal(t *testing.T) {
	assert.Equal(t, 5000.0, CalculateTotal(5000, nil))

	percent := &models.Discount{Type: models.DiscountTypePercentage, Value: 10}
	assert.Equal(t, 4500.0, CalculateTotal(5000, percent))

	flat := &models.Discount{Type: models.DiscountTypeFlat, Value: 500}
	assert.Equal(t, 4500.0, CalculateTotal(5000, flat))

	oversized := &models.Discount{Type: models.DiscountTypeFlat, Value: 6000}
	assert.Equal(t, 0.0, CalculateTotal(5000, oversized))
}

func newFeeFixture() (*FeeService, *mockFeeStore, *mockDiscountStore) {
	fees := &mockFeeStore{structures: map[string]models.FeeStructure{
		"fs-1": {ID: "fs-1", ClassName: "5A", FeeType: "tuition", Amount: 5000, Frequency: "monthly"},
	}}
	discounts := &mockDiscountStore{discounts: map[string]models.Discount{
		"disc-student": {ID: "disc-student", Category: models.DiscountCategoryStudent, Type: models.DiscountTypePercentage, Value: 10, Active: true},
		"disc-staff":   {ID: "disc-staff", Category: models.DiscountCategoryEmployee, Type: models.DiscountTypeFlat, Value: 500, Active: true},
		"disc-expired": {ID: "disc-expired", Category: models.DiscountCategoryStudent, Type: models.DiscountTypeFlat, Value: 500, Active: false},
	}}
	students := &mockFeeStudentReader{students: map[string]models.Student{
		"stu-1":  {ID: "stu-1", Status: models.StudentStatusActive},
		"alumni": {ID: "alumni", Status: models.StudentStatusAlumni},
	}}
	svc := NewFeeService(fees, discounts, students, &mockAuditLogger{}, nil)
	return svc, fees, discounts
}

func TestRecordFeePaymentFreezesDiscountedTotal(t *testing.T) {
	svc, fees, _ := newFeeFixture()
	discountID := "disc-student"

	payment, err := svc.RecordPayment(context.Background(), dto.RecordFeePaymentRequest{
		StudentID:      "stu-1",
		FeeStructureID: "fs-1",
		DiscountID:     &discountID,
		Method:         "cash",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, payment.BaseAmount)
	assert.Equal(t, 500.0, payment.DiscountAmount)
	assert.Equal(t, 4500.0, payment.TotalAmount)
	require.Len(t, fees.payments, 1)
	assert.Equal(t, "user-1", fees.payments[0].ReceivedBy)
}

func TestRecordFeePaymentWithoutDiscount(t *testing.T) {
	svc, _, _ := newFeeFixture()

	payment, err := svc.RecordPayment(context.Background(), dto.RecordFeePaymentRequest{
		StudentID:      "stu-1",
		FeeStructureID: "fs-1",
		Method:         "upi",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, payment.TotalAmount)
	assert.Equal(t, 0.0, payment.DiscountAmount)
}

func TestRecordFeePaymentRejectsAlumni(t *testing.T) {
	svc, fees, _ := newFeeFixture()

	_, err := svc.RecordPayment(context.Background(), dto.RecordFeePaymentRequest{
		StudentID:      "alumni",
		FeeStructureID: "fs-1",
		Method:         "cash",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fees.payments)
}

func TestRecordFeePaymentRejectsInactiveDiscount(t *testing.T) {
	svc, _, _ := newFeeFixture()
	discountID := "disc-expired"

	_, err := svc.RecordPayment(context.Background(), dto.RecordFeePaymentRequest{
		StudentID:      "stu-1",
		FeeStructureID: "fs-1",
		DiscountID:     &discountID,
		Method:         "cash",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestRecordFeePaymentRejectsEmployeeDiscount(t *testing.T) {
	svc, _, _ := newFeeFixture()
	discountID := "disc-staff"

	_, err := svc.RecordPayment(context.Background(), dto.RecordFeePaymentRequest{
		StudentID:      "stu-1",
		FeeStructureID: "fs-1",
		DiscountID:     &discountID,
		Method:         "cash",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateDiscountRejectsOversizedPercentage(t *testing.T) {
	svc, _, _ := newFeeFixture()

	_, err := svc.CreateDiscount(context.Background(), dto.DiscountRequest{
		Name:     "Impossible",
		Category: string(models.DiscountCategoryStudent),
		Type:     string(models.DiscountTypePercentage),
		Value:    120,
		Active:   true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
