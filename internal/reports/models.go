package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/nutriexpert/api/internal/inference"
)

// Report represents generated report metadata
type Report struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Format    string // "pdf" or "csv"
	Title     string
	ObjectKey *string
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	Data      []byte // only used in local mode
}

// CreateReportRequest is the request to create a new diet-plan report.
// The facts are run through the inference pipeline and the resolved
// plan is rendered in the requested format.
type CreateReportRequest struct {
	Title  string                 `json:"title"`
	Format string                 `json:"format"` // "pdf" or "csv"
	Facts  inference.FactsRequest `json:"facts"`
}

// ReportDTO is the response representation of a report
type ReportDTO struct {
	ID          uuid.UUID `json:"id"`
	Format      string    `json:"format"`
	Title       string    `json:"title"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReportsResponse is the list response
type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

// Constants for validation
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady = "ready"
)
