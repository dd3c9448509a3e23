package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

// PayrollRepository manages the append-only salary payment ledger.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository constructs a PayrollRepository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// Create appends a salary payment record.
func (r *PayrollRepository) Create(ctx context.Context, payment *models.SalaryPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO salary_payments (id, employee_id, base_amount, bonus_amount, deduction_amount, total_amount, period, reference_no, paid_at, paid_by, created_at)
        VALUES (:id, :employee_id, :base_amount, :bonus_amount, :deduction_amount, :total_amount, :period, :reference_no, :paid_at, :paid_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create salary payment: %w", err)
	}
	return nil
}

// ExistsForPeriod reports whether the employee already has a payment in the
// given period. One disbursement per employee per period.
func (r *PayrollRepository) ExistsForPeriod(ctx context.Context, employeeID, period string) (bool, error) {
	const query = `SELECT 1 FROM salary_payments WHERE employee_id = $1 AND period = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, employeeID, period); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check salary period: %w", err)
	}
	return true, nil
}

// List returns salary payments matching the provided filters.
func (r *PayrollRepository) List(ctx context.Context, filter models.SalaryPaymentFilter) ([]models.SalaryPayment, int, error) {
	base := "FROM salary_payments p"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("p.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("p.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.employee_id, p.base_amount, p.bonus_amount, p.deduction_amount, p.total_amount, p.period, p.reference_no, p.paid_at, p.paid_by, p.created_at
        %s ORDER BY p.paid_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var payments []models.SalaryPayment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list salary payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count salary payments: %w", err)
	}
	return payments, total, nil
}
