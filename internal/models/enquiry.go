package models

import "time"

// EnquiryStatus tracks an admission lead through the intake funnel.
// The legacy system stored free text here; the enum replaces it so the
// progress indicator no longer depends on keyword matching.
type EnquiryStatus string

const (
	EnquiryStatusNew            EnquiryStatus = "new"
	EnquiryStatusContacted      EnquiryStatus = "contacted"
	EnquiryStatusInRegistration EnquiryStatus = "in_registration"
	EnquiryStatusAdmissionDone  EnquiryStatus = "admission_done"
)

// ValidEnquiryStatus reports whether the value is a known status.
func ValidEnquiryStatus(s EnquiryStatus) bool {
	switch s {
	case EnquiryStatusNew, EnquiryStatusContacted, EnquiryStatusInRegistration, EnquiryStatusAdmissionDone:
		return true
	}
	return false
}

// Enquiry represents a raw admission lead. Deleted enquiries are retained
// (soft delete) until explicitly purged.
type Enquiry struct {
	ID               string        `db:"id" json:"id"`
	FullName         string        `db:"full_name" json:"full_name"`
	ClassApplyingFor string        `db:"class_applying_for" json:"class_applying_for"`
	ParentName       string        `db:"parent_name" json:"parent_name"`
	MobileNo         string        `db:"mobile_no" json:"mobile_no"`
	Email            string        `db:"email" json:"email"`
	Notes            string        `db:"notes" json:"notes"`
	Status           EnquiryStatus `db:"status" json:"status"`
	IsDeleted        bool          `db:"is_deleted" json:"is_deleted"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// EnquiryFilter encapsulates allowed search parameters for listing enquiries.
type EnquiryFilter struct {
	Search         string
	Status         EnquiryStatus
	IncludeDeleted bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// ProgressSteps returns the four-step intake indicator derived from the
// enquiry status: enquiry received, contacted, registration, admission.
func (e Enquiry) ProgressSteps() []bool {
	steps := []bool{true, false, false, false}
	switch e.Status {
	case EnquiryStatusContacted:
		steps[1] = true
	case EnquiryStatusInRegistration:
		steps[1], steps[2] = true, true
	case EnquiryStatusAdmissionDone:
		steps[1], steps[2], steps[3] = true, true, true
	}
	return steps
}
