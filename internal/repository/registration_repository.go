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

// RegistrationRepository manages persistence for student registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// List returns registrations matching the provided filters.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	base := "FROM student_registrations r"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(r.full_name) LIKE $%d OR r.phone LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":  "r.full_name",
		"status":     "r.status",
		"created_at": "r.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "r.created_at"
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

	query := fmt.Sprintf(`SELECT r.id, r.enquiry_id, r.full_name, r.class_enrolled, r.phone, r.parent_name, r.address, r.email, r.status, r.reviewed_by, r.reviewed_at, r.created_at, r.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return registrations, total, nil
}

// FindByID fetches a registration by ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT id, enquiry_id, full_name, class_enrolled, phone, parent_name, address, email, status, reviewed_by, reviewed_at, created_at, updated_at
        FROM student_registrations WHERE id = $1`
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ExistsByPhone checks whether a registration already uses the phone number.
func (r *RegistrationRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	const query = `SELECT 1 FROM student_registrations WHERE phone = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, phone); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check phone: %w", err)
	}
	return true, nil
}

// Create inserts a new registration record.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now
	const query = `INSERT INTO student_registrations (id, enquiry_id, full_name, class_enrolled, phone, parent_name, address, email, status, reviewed_by, reviewed_at, created_at, updated_at)
        VALUES (:id, :enquiry_id, :full_name, :class_enrolled, :phone, :parent_name, :address, :email, :status, :reviewed_by, :reviewed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateStatus transitions a registration from an expected current status.
// Returns sql.ErrNoRows when the row is missing or already past the expected
// status, which callers map onto a conflict.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, from, to models.RegistrationStatus, reviewerID string, reviewedAt time.Time) error {
	const query = `UPDATE student_registrations SET status = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, reviewerID, reviewedAt)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkCompleted moves an approved registration to admission_done without
// touching the review columns, so reviewed_by and reviewed_at keep recording
// the original approval. Returns sql.ErrNoRows when the row is missing or
// not approved.
func (r *RegistrationRepository) MarkCompleted(ctx context.Context, id string) error {
	const query = `UPDATE student_registrations SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, models.RegistrationStatusAdmissionDone, time.Now().UTC(), models.RegistrationStatusApproved)
	if err != nil {
		return fmt.Errorf("complete registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete registration: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApproveWithStudent approves a pending registration and inserts the
// provisional student inside a single transaction so the pair is atomic:
// either both writes land or the registration stays pending.
func (r *RegistrationRepository) ApproveWithStudent(ctx context.Context, registrationID string, student *models.Student, reviewerID string) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approval: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const studentQuery = `INSERT INTO students (id, registration_id, admission_no, full_name, class_section, parent_name, phone, address, photo_url, status, created_at, updated_at)
        VALUES (:id, :registration_id, :admission_no, :full_name, :class_section, :parent_name, :phone, :address, :photo_url, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, studentQuery, student); err != nil {
		return fmt.Errorf("insert provisional student: %w", err)
	}

	const regQuery = `UPDATE student_registrations SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4 WHERE id = $1 AND status = $5`
	result, err := tx.ExecContext(ctx, regQuery, registrationID, models.RegistrationStatusApproved, reviewerID, now, models.RegistrationStatusPending)
	if err != nil {
		return fmt.Errorf("approve registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve registration: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approval: %w", err)
	}
	return nil
}
