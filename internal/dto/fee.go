package dto

import "time"

// FeeStructureRequest payload for a billable fee definition.
type FeeStructureRequest struct {
	ClassName string  `json:"class_name" validate:"required"`
	FeeType   string  `json:"fee_type" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Frequency string  `json:"frequency" validate:"required"`
}

// DiscountRequest payload for a discount definition.
type DiscountRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required,oneof=student employee"`
	Type     string  `json:"type" validate:"required,oneof=percentage flat"`
	Value    float64 `json:"value" validate:"required,gt=0"`
	Active   bool    `json:"active"`
}

// RecordFeePaymentRequest payload for collecting a fee. The discounted total
// is computed server side and frozen on the ledger row.
type RecordFeePaymentRequest struct {
	StudentID      string     `json:"student_id" validate:"required"`
	FeeStructureID string     `json:"fee_structure_id" validate:"required"`
	DiscountID     *string    `json:"discount_id"`
	Method         string     `json:"method" validate:"required"`
	ReferenceNo    string     `json:"reference_no"`
	PaidAt         *time.Time `json:"paid_at"`
}
