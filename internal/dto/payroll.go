package dto

import "time"

// RecordSalaryPaymentRequest payload for a payroll disbursement. The base
// amount comes from the employee record; bonus and deduction adjust it.
type RecordSalaryPaymentRequest struct {
	EmployeeID      string     `json:"employee_id" validate:"required"`
	Period          string     `json:"period" validate:"required"`
	BonusAmount     float64    `json:"bonus_amount" validate:"gte=0"`
	DeductionAmount float64    `json:"deduction_amount" validate:"gte=0"`
	ReferenceNo     string     `json:"reference_no"`
	PaidAt          *time.Time `json:"paid_at"`
}
