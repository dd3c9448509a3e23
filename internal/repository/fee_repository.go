package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

// FeeRepository manages fee structures and the append-only payment ledger.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// ListStructures returns fee structures, optionally scoped to a class.
func (r *FeeRepository) ListStructures(ctx context.Context, className string) ([]models.FeeStructure, error) {
	query := `SELECT id, class_name, fee_type, amount, frequency, created_at, updated_at FROM fee_structures`
	args := []interface{}{}
	if className != "" {
		query += " WHERE class_name = $1"
		args = append(args, className)
	}
	query += " ORDER BY class_name ASC, fee_type ASC"

	var structures []models.FeeStructure
	if err := r.db.SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	return structures, nil
}

// FindStructureByID fetches a fee structure by ID.
func (r *FeeRepository) FindStructureByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	const query = `SELECT id, class_name, fee_type, amount, frequency, created_at, updated_at FROM fee_structures WHERE id = $1`
	var structure models.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, id); err != nil {
		return nil, err
	}
	return &structure, nil
}

// CreateStructure inserts a new fee structure.
func (r *FeeRepository) CreateStructure(ctx context.Context, structure *models.FeeStructure) error {
	if structure.ID == "" {
		structure.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	structure.CreatedAt = now
	structure.UpdatedAt = now
	const query = `INSERT INTO fee_structures (id, class_name, fee_type, amount, frequency, created_at, updated_at)
        VALUES (:id, :class_name, :fee_type, :amount, :frequency, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, structure); err != nil {
		return fmt.Errorf("create fee structure: %w", err)
	}
	return nil
}

// UpdateStructure modifies an existing fee structure.
func (r *FeeRepository) UpdateStructure(ctx context.Context, structure *models.FeeStructure) error {
	structure.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_structures SET class_name = :class_name, fee_type = :fee_type, amount = :amount, frequency = :frequency, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, structure); err != nil {
		return fmt.Errorf("update fee structure: %w", err)
	}
	return nil
}

// DeleteStructure removes a fee structure.
func (r *FeeRepository) DeleteStructure(ctx context.Context, id string) error {
	const query = `DELETE FROM fee_structures WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete fee structure: %w", err)
	}
	return nil
}

// CreatePayment appends a fee payment. There are no updates or deletes on
// this ledger.
func (r *FeeRepository) CreatePayment(ctx context.Context, payment *models.FeePayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO fee_payments (id, student_id, fee_structure_id, base_amount, discount_id, discount_amount, total_amount, method, reference_no, paid_at, received_by, created_at)
        VALUES (:id, :student_id, :fee_structure_id, :base_amount, :discount_id, :discount_amount, :total_amount, :method, :reference_no, :paid_at, :received_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create fee payment: %w", err)
	}
	return nil
}

// ListPayments returns fee payments matching the provided filters.
func (r *FeeRepository) ListPayments(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePayment, int, error) {
	base := "FROM fee_payments p"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("p.paid_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("p.paid_at < $%d", len(args)+1))
		args = append(args, *filter.To)
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

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.fee_structure_id, p.base_amount, p.discount_id, p.discount_amount, p.total_amount, p.method, p.reference_no, p.paid_at, p.received_by, p.created_at
        %s ORDER BY p.paid_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var payments []models.FeePayment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee payments: %w", err)
	}
	return payments, total, nil
}

// SumPaidBetween totals collected fees inside [from, to).
func (r *FeeRepository) SumPaidBetween(ctx context.Context, from, to time.Time) (float64, error) {
	const query = `SELECT COALESCE(SUM(total_amount), 0) FROM fee_payments WHERE paid_at >= $1 AND paid_at < $2`
	var sum float64
	if err := r.db.GetContext(ctx, &sum, query, from, to); err != nil {
		return 0, fmt.Errorf("sum fee payments: %w", err)
	}
	return sum, nil
}
