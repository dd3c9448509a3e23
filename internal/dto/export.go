package dto

import "github.com/noah-isme/school-backoffice-api/internal/models"

// CreateExportRequest queues an asynchronous export.
type CreateExportRequest struct {
	Type   models.ExportType   `json:"type" validate:"required,oneof=students employees fee_payments"`
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv xls txt pdf"`
}

// ExportJobResponse decorates a finished job with its signed download URL.
type ExportJobResponse struct {
	models.ExportJob
	DownloadURL string `json:"download_url,omitempty"`
}
