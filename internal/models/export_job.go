package models

import "time"

// ExportType selects which record list is rendered.
type ExportType string

const (
	ExportTypeStudents    ExportType = "students"
	ExportTypeEmployees   ExportType = "employees"
	ExportTypeFeePayments ExportType = "fee_payments"
)

// ExportFormat enumerates the supported output artifacts. The xls format is
// CSV bytes served under an .xls name with a spreadsheet content type, the
// way the legacy exports worked.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatXLS ExportFormat = "xls"
	ExportFormatTXT ExportFormat = "txt"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks job progress.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob records an asynchronous export request.
type ExportJob struct {
	ID          string       `db:"id" json:"id"`
	Type        ExportType   `db:"type" json:"type"`
	Format      ExportFormat `db:"format" json:"format"`
	Status      ExportStatus `db:"status" json:"status"`
	Progress    int          `db:"progress" json:"progress"`
	ResultPath  *string      `db:"result_path" json:"-"`
	Error       *string      `db:"error" json:"error,omitempty"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
