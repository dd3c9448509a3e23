package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

// DashboardRepository aggregates counts for the landing page summary.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

type statusCount struct {
	Status string `db:"status"`
	Total  int    `db:"total"`
}

// CountEnquiriesByStatus groups live enquiries by workflow stage.
func (r *DashboardRepository) CountEnquiriesByStatus(ctx context.Context) (map[models.EnquiryStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM admission_enquiries WHERE is_deleted = false GROUP BY status`
	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count enquiries: %w", err)
	}
	counts := make(map[models.EnquiryStatus]int, len(rows))
	for _, row := range rows {
		counts[models.EnquiryStatus(row.Status)] = row.Total
	}
	return counts, nil
}

// CountPendingRegistrations returns the review backlog size.
func (r *DashboardRepository) CountPendingRegistrations(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM student_registrations WHERE status = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, models.RegistrationStatusPending); err != nil {
		return 0, fmt.Errorf("count pending registrations: %w", err)
	}
	return total, nil
}

// CountStudentsByStatus groups students by lifecycle state.
func (r *DashboardRepository) CountStudentsByStatus(ctx context.Context) (map[models.StudentStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM students GROUP BY status`
	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	counts := make(map[models.StudentStatus]int, len(rows))
	for _, row := range rows {
		counts[models.StudentStatus(row.Status)] = row.Total
	}
	return counts, nil
}

// CountActiveEmployees returns the number of employees currently on payroll.
func (r *DashboardRepository) CountActiveEmployees(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM employees WHERE status = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, models.EmployeeStatusActive); err != nil {
		return 0, fmt.Errorf("count active employees: %w", err)
	}
	return total, nil
}
