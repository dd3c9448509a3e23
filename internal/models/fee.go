package models

import "time"

// FeeStructure defines a billable fee for a class.
type FeeStructure struct {
	ID        string    `db:"id" json:"id"`
	ClassName string    `db:"class_name" json:"class_name"`
	FeeType   string    `db:"fee_type" json:"fee_type"`
	Amount    float64   `db:"amount" json:"amount"`
	Frequency string    `db:"frequency" json:"frequency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FeePayment is an append-only fee collection record. The discounted total
// is computed once at payment time and frozen; there is no reversal or void.
type FeePayment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	FeeStructureID string    `db:"fee_structure_id" json:"fee_structure_id"`
	BaseAmount     float64   `db:"base_amount" json:"base_amount"`
	DiscountID     *string   `db:"discount_id" json:"discount_id,omitempty"`
	DiscountAmount float64   `db:"discount_amount" json:"discount_amount"`
	TotalAmount    float64   `db:"total_amount" json:"total_amount"`
	Method         string    `db:"method" json:"method"`
	ReferenceNo    string    `db:"reference_no" json:"reference_no"`
	PaidAt         time.Time `db:"paid_at" json:"paid_at"`
	ReceivedBy     string    `db:"received_by" json:"received_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FeePaymentFilter constrains fee collection history queries.
type FeePaymentFilter struct {
	StudentID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
