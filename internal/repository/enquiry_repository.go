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

// EnquiryRepository manages persistence for admission enquiries.
type EnquiryRepository struct {
	db *sqlx.DB
}

// NewEnquiryRepository constructs an EnquiryRepository.
func NewEnquiryRepository(db *sqlx.DB) *EnquiryRepository {
	return &EnquiryRepository{db: db}
}

// List returns enquiries matching the provided filters.
func (r *EnquiryRepository) List(ctx context.Context, filter models.EnquiryFilter) ([]models.Enquiry, int, error) {
	base := "FROM admission_enquiries e"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "e.is_deleted = false")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(e.full_name) LIKE $%d OR e.mobile_no LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":  "e.full_name",
		"status":     "e.status",
		"created_at": "e.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.full_name, e.class_applying_for, e.parent_name, e.mobile_no, e.email, e.notes, e.status, e.is_deleted, e.created_at, e.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var enquiries []models.Enquiry
	if err := r.db.SelectContext(ctx, &enquiries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enquiries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enquiries: %w", err)
	}
	return enquiries, total, nil
}

// FindByID fetches an enquiry by ID, including soft-deleted rows.
func (r *EnquiryRepository) FindByID(ctx context.Context, id string) (*models.Enquiry, error) {
	const query = `SELECT id, full_name, class_applying_for, parent_name, mobile_no, email, notes, status, is_deleted, created_at, updated_at
        FROM admission_enquiries WHERE id = $1`
	var enquiry models.Enquiry
	if err := r.db.GetContext(ctx, &enquiry, query, id); err != nil {
		return nil, err
	}
	return &enquiry, nil
}

// Create inserts a new enquiry record.
func (r *EnquiryRepository) Create(ctx context.Context, enquiry *models.Enquiry) error {
	if enquiry.ID == "" {
		enquiry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enquiry.CreatedAt.IsZero() {
		enquiry.CreatedAt = now
	}
	enquiry.UpdatedAt = now
	const query = `INSERT INTO admission_enquiries (id, full_name, class_applying_for, parent_name, mobile_no, email, notes, status, is_deleted, created_at, updated_at)
        VALUES (:id, :full_name, :class_applying_for, :parent_name, :mobile_no, :email, :notes, :status, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enquiry); err != nil {
		return fmt.Errorf("create enquiry: %w", err)
	}
	return nil
}

// Update modifies an existing enquiry.
func (r *EnquiryRepository) Update(ctx context.Context, enquiry *models.Enquiry) error {
	enquiry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admission_enquiries SET full_name = :full_name, class_applying_for = :class_applying_for, parent_name = :parent_name, mobile_no = :mobile_no, email = :email, notes = :notes, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enquiry); err != nil {
		return fmt.Errorf("update enquiry: %w", err)
	}
	return nil
}

// UpdateStatus sets only the status field.
func (r *EnquiryRepository) UpdateStatus(ctx context.Context, id string, status models.EnquiryStatus) error {
	const query = `UPDATE admission_enquiries SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enquiry status: %w", err)
	}
	return nil
}

// SetDeleted flips the soft-delete flag.
func (r *EnquiryRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	const query = `UPDATE admission_enquiries SET is_deleted = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, deleted, time.Now().UTC()); err != nil {
		return fmt.Errorf("set enquiry deleted: %w", err)
	}
	return nil
}

// PermanentDelete removes the row entirely.
func (r *EnquiryRepository) PermanentDelete(ctx context.Context, id string) error {
	const query = `DELETE FROM admission_enquiries WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("permanently delete enquiry: %w", err)
	}
	return nil
}
