package dto

// CreateStudentRequest payload for direct student entry outside the
// admission workflow (transfers, data corrections).
type CreateStudentRequest struct {
	AdmissionNo  string `json:"admission_no" validate:"required"`
	FullName     string `json:"full_name" validate:"required"`
	ClassSection string `json:"class_section"`
	ParentName   string `json:"parent_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PhotoURL     string `json:"photo_url"`
	Status       string `json:"status" validate:"omitempty,oneof=provisional active inactive alumni"`
}

// UpdateStudentRequest payload for editing student master data.
type UpdateStudentRequest struct {
	AdmissionNo  string `json:"admission_no" validate:"required"`
	FullName     string `json:"full_name" validate:"required"`
	ClassSection string `json:"class_section"`
	ParentName   string `json:"parent_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PhotoURL     string `json:"photo_url"`
}

// BulkImportResult summarises a completed CSV import. The import is
// all-or-nothing: Errors is only populated when nothing was written.
type BulkImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}
