package dto

// CreateEmployeeRequest payload for hiring a staff member. Salary fields may
// be left zero to be auto-populated from the salary configuration rules.
type CreateEmployeeRequest struct {
	EmployeeNo      string  `json:"employee_no" validate:"required"`
	FullName        string  `json:"full_name" validate:"required"`
	Department      string  `json:"department" validate:"required"`
	Level           string  `json:"level"`
	Phone           string  `json:"phone"`
	Email           string  `json:"email" validate:"omitempty,email"`
	SalaryAmount    float64 `json:"salary_amount" validate:"gte=0"`
	SalaryFrequency string  `json:"salary_frequency"`
	PhotoURL        string  `json:"photo_url"`
}

// UpdateEmployeeRequest payload for editing staff master data.
type UpdateEmployeeRequest struct {
	EmployeeNo      string  `json:"employee_no" validate:"required"`
	FullName        string  `json:"full_name" validate:"required"`
	Department      string  `json:"department" validate:"required"`
	Level           string  `json:"level"`
	Phone           string  `json:"phone"`
	Email           string  `json:"email" validate:"omitempty,email"`
	SalaryAmount    float64 `json:"salary_amount" validate:"gte=0"`
	SalaryFrequency string  `json:"salary_frequency"`
	PhotoURL        string  `json:"photo_url"`
}

// SalaryConfigRequest payload for a salary rule.
type SalaryConfigRequest struct {
	Department string  `json:"department" validate:"required"`
	Level      string  `json:"level"`
	Frequency  string  `json:"frequency" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Position   int     `json:"position" validate:"gte=0"`
}
