package models

import "time"

// EmployeeStatus enumerates employment states.
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)

// Employee represents a staff member on the payroll.
type Employee struct {
	ID              string         `db:"id" json:"id"`
	EmployeeNo      string         `db:"employee_no" json:"employee_no"`
	FullName        string         `db:"full_name" json:"full_name"`
	Department      string         `db:"department" json:"department"`
	Level           string         `db:"level" json:"level"`
	Phone           string         `db:"phone" json:"phone"`
	Email           string         `db:"email" json:"email"`
	Status          EmployeeStatus `db:"status" json:"status"`
	SalaryAmount    float64        `db:"salary_amount" json:"salary_amount"`
	SalaryFrequency string         `db:"salary_frequency" json:"salary_frequency"`
	PhotoURL        string         `db:"photo_url" json:"photo_url"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter encapsulates allowed search parameters for listing employees.
type EmployeeFilter struct {
	Search     string
	Department string
	Status     EmployeeStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
