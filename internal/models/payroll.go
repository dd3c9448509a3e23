package models

import "time"

// SalaryConfig maps (department, level, frequency) onto a base salary amount.
// Rules are evaluated in position order; the first match wins.
type SalaryConfig struct {
	ID         string    `db:"id" json:"id"`
	Department string    `db:"department" json:"department"`
	Level      string    `db:"level" json:"level"`
	Frequency  string    `db:"frequency" json:"frequency"`
	Amount     float64   `db:"amount" json:"amount"`
	Position   int       `db:"position" json:"position"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SalaryPayment is an append-only payroll disbursement record.
type SalaryPayment struct {
	ID              string    `db:"id" json:"id"`
	EmployeeID      string    `db:"employee_id" json:"employee_id"`
	BaseAmount      float64   `db:"base_amount" json:"base_amount"`
	BonusAmount     float64   `db:"bonus_amount" json:"bonus_amount"`
	DeductionAmount float64   `db:"deduction_amount" json:"deduction_amount"`
	TotalAmount     float64   `db:"total_amount" json:"total_amount"`
	Period          string    `db:"period" json:"period"`
	ReferenceNo     string    `db:"reference_no" json:"reference_no"`
	PaidAt          time.Time `db:"paid_at" json:"paid_at"`
	PaidBy          string    `db:"paid_by" json:"paid_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// SalaryPaymentFilter constrains payroll history queries.
type SalaryPaymentFilter struct {
	EmployeeID string
	Period     string
	Page       int
	PageSize   int
}
