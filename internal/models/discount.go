package models

import "time"

// DiscountCategory scopes a discount to students (fees) or employees (payroll).
type DiscountCategory string

const (
	DiscountCategoryStudent  DiscountCategory = "student"
	DiscountCategoryEmployee DiscountCategory = "employee"
)

// DiscountType determines how the value is applied to a base amount.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFlat       DiscountType = "flat"
)

// Discount is a percentage or flat adjustment applied to a fee or salary
// base amount.
type Discount struct {
	ID        string           `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Category  DiscountCategory `db:"category" json:"category"`
	Type      DiscountType     `db:"type" json:"type"`
	Value     float64          `db:"value" json:"value"`
	Active    bool             `db:"active" json:"active"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Apply subtracts the discount from the base amount, clamped at zero.
func (d Discount) Apply(base float64) float64 {
	var total float64
	switch d.Type {
	case DiscountTypePercentage:
		total = base - base*d.Value/100
	case DiscountTypeFlat:
		total = base - d.Value
	default:
		total = base
	}
	if total < 0 {
		return 0
	}
	return total
}
