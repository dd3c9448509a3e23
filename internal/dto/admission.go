package dto

import "github.com/noah-isme/school-backoffice-api/internal/models"

// CreateEnquiryRequest payload for a new admission lead.
type CreateEnquiryRequest struct {
	FullName         string `json:"full_name" validate:"required"`
	ClassApplyingFor string `json:"class_applying_for" validate:"required"`
	ParentName       string `json:"parent_name"`
	MobileNo         string `json:"mobile_no" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
	Notes            string `json:"notes"`
}

// UpdateEnquiryRequest payload for editing lead details.
type UpdateEnquiryRequest struct {
	FullName         string `json:"full_name" validate:"required"`
	ClassApplyingFor string `json:"class_applying_for" validate:"required"`
	ParentName       string `json:"parent_name"`
	MobileNo         string `json:"mobile_no" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
	Notes            string `json:"notes"`
}

// UpdateEnquiryStatusRequest moves a lead between intake stages.
type UpdateEnquiryStatusRequest struct {
	Status models.EnquiryStatus `json:"status" validate:"required"`
}

// EnquiryResponse decorates an enquiry with the intake progress indicator.
type EnquiryResponse struct {
	models.Enquiry
	ProgressSteps []bool `json:"progress_steps"`
}

// CreateRegistrationRequest payload for a direct (walk-in) registration.
type CreateRegistrationRequest struct {
	EnquiryID     *string `json:"enquiry_id"`
	FullName      string  `json:"full_name" validate:"required"`
	ClassEnrolled string  `json:"class_enrolled" validate:"required"`
	Phone         string  `json:"phone" validate:"required"`
	ParentName    string  `json:"parent_name"`
	Address       string  `json:"address"`
	Email         string  `json:"email" validate:"omitempty,email"`
}

// ReviewRegistrationRequest carries the reviewer decision.
type ReviewRegistrationRequest struct {
	Decision models.RegistrationStatus `json:"decision" validate:"required"`
}
