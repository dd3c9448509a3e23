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

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ClassSection != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_section = $%d", len(args)+1))
		args = append(args, filter.ClassSection)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.admission_no) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"full_name":    "s.full_name",
		"admission_no": "s.admission_no",
		"created_at":   "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
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

	query := fmt.Sprintf(`SELECT s.id, s.registration_id, s.admission_no, s.full_name, s.class_section, s.parent_name, s.phone, s.address, s.photo_url, s.status, s.created_at, s.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, registration_id, admission_no, full_name, class_section, parent_name, phone, address, photo_url, status, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByAdmissionNo checks if a student with given admission number exists
// optionally excluding an ID.
func (r *StudentRepository) ExistsByAdmissionNo(ctx context.Context, admissionNo string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE admission_no = $1"
	args := []interface{}{admissionNo}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check admission number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, registration_id, admission_no, full_name, class_section, parent_name, phone, address, photo_url, status, created_at, updated_at)
        VALUES (:id, :registration_id, :admission_no, :full_name, :class_section, :parent_name, :phone, :address, :photo_url, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// CreateBatch inserts all students inside a single transaction; the bulk
// import either lands fully or not at all.
func (r *StudentRepository) CreateBatch(ctx context.Context, students []*models.Student) error {
	if len(students) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO students (id, registration_id, admission_no, full_name, class_section, parent_name, phone, address, photo_url, status, created_at, updated_at)
        VALUES (:id, :registration_id, :admission_no, :full_name, :class_section, :parent_name, :phone, :address, :photo_url, :status, :created_at, :updated_at)`
	now := time.Now().UTC()
	for _, student := range students {
		if student.ID == "" {
			student.ID = uuid.NewString()
		}
		if student.CreatedAt.IsZero() {
			student.CreatedAt = now
		}
		student.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
			return fmt.Errorf("bulk insert student %s: %w", student.AdmissionNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk import: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET admission_no = :admission_no, full_name = :full_name, class_section = :class_section, parent_name = :parent_name, phone = :phone, address = :address, photo_url = :photo_url, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateStatus transitions a student from an expected current status.
// Returns sql.ErrNoRows when no row matched, signalling a stale transition.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id string, from, to models.StudentStatus) error {
	const query = `UPDATE students SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
