package models

import "time"

// RegistrationStatus captures the review workflow states.
type RegistrationStatus string

const (
	RegistrationStatusPending       RegistrationStatus = "pending"
	RegistrationStatusApproved      RegistrationStatus = "approved"
	RegistrationStatusRejected      RegistrationStatus = "rejected"
	RegistrationStatusAdmissionDone RegistrationStatus = "admission_done"
)

// Registration is a submitted intent to enroll, subject to approve/reject
// review. Phone is the natural dedup key; a pre-flight existence check runs
// before every insert.
type Registration struct {
	ID            string             `db:"id" json:"id"`
	EnquiryID     *string            `db:"enquiry_id" json:"enquiry_id,omitempty"`
	FullName      string             `db:"full_name" json:"full_name"`
	ClassEnrolled string             `db:"class_enrolled" json:"class_enrolled"`
	Phone         string             `db:"phone" json:"phone"`
	ParentName    string             `db:"parent_name" json:"parent_name"`
	Address       string             `db:"address" json:"address"`
	Email         string             `db:"email" json:"email"`
	Status        RegistrationStatus `db:"status" json:"status"`
	ReviewedBy    *string            `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time         `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// RegistrationFilter constrains listing queries.
type RegistrationFilter struct {
	Search    string
	Status    RegistrationStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
