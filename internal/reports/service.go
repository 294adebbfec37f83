package reports

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/nutriexpert/api/internal/blob"
	"github.com/nutriexpert/api/internal/inference"
	"github.com/nutriexpert/api/internal/storage"
)

// Errors
var (
	ErrInvalidFormat  = fmt.Errorf("invalid format")
	ErrInvalidFacts   = fmt.Errorf("invalid facts")
	ErrReportNotFound = fmt.Errorf("report not found")
)

// Inferrer runs the fact → plan pipeline. The inference service
// implements it.
type Inferrer interface {
	Infer(ctx context.Context, req inference.FactsRequest) (inference.InferResponse, error)
}

// Service handles reports business logic
type Service struct {
	reportsStorage  storage.ReportsStorage
	inferrer        Inferrer
	generator       *Generator
	blobStore       blob.Store
	presignTTL      int
	localMode       bool   // true if no S3 configured
	publicBaseURL   string // S3 public base URL (if prefer_public_url mode)
	preferPublicURL bool
	defaultLimit    int
	maxLimit        int
}

// NewService creates a new reports service
func NewService(
	reportsStorage storage.ReportsStorage,
	inferrer Inferrer,
	blobStore blob.Store,
	presignTTL int,
	publicBaseURL string,
	preferPublicURL bool,
	defaultLimit int,
	maxLimit int,
) *Service {
	return &Service{
		reportsStorage:  reportsStorage,
		inferrer:        inferrer,
		generator:       NewGenerator(),
		blobStore:       blobStore,
		presignTTL:      presignTTL,
		localMode:       blobStore == nil,
		publicBaseURL:   publicBaseURL,
		preferPublicURL: preferPublicURL,
		defaultLimit:    defaultLimit,
		maxLimit:        maxLimit,
	}
}

// CreateReport runs an inference for the submitted facts and persists
// the rendered plan under the calling user.
func (s *Service) CreateReport(ctx context.Context, userID uuid.UUID, req CreateReportRequest) (*Report, error) {
	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	result, err := s.inferrer.Infer(ctx, req.Facts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFacts, err)
	}

	data, err := s.generator.Generate(req, result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Plan nutricional"
	}

	meta := &storage.ReportMeta{
		ID:        uuid.New(),
		UserID:    userID,
		Format:    req.Format,
		Title:     title,
		SizeBytes: int64(len(data)),
		Status:    StatusReady,
	}

	if s.localMode {
		meta.Data = data
	} else {
		objectKey := blob.ReportObjectKey(userID.String(), meta.ID.String(), req.Format)
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentTypeFor(req.Format)); err != nil {
			return nil, fmt.Errorf("failed to upload report: %w", err)
		}
		meta.ObjectKey = &objectKey
	}

	if err := s.reportsStorage.CreateReport(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	return s.toReport(meta), nil
}

// GetReport retrieves a report by ID, scoped to its owner.
func (s *Service) GetReport(ctx context.Context, userID, id uuid.UUID) (*Report, error) {
	meta, err := s.ownedReport(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.toReport(meta), nil
}

// ListReports lists the caller's reports, newest first.
func (s *Service) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Report, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	metaList, err := s.reportsStorage.ListReports(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, len(metaList))
	for i := range metaList {
		reports[i] = *s.toReport(&metaList[i])
	}

	return reports, nil
}

// DeleteReport deletes a report and its stored object.
func (s *Service) DeleteReport(ctx context.Context, userID, id uuid.UUID) error {
	meta, err := s.ownedReport(ctx, userID, id)
	if err != nil {
		return err
	}

	if !s.localMode && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			// Metadata deletion is more important than the orphaned object.
			log.Printf("WARN reports: failed to delete object %s: %v", *meta.ObjectKey, err)
		}
	}

	if err := s.reportsStorage.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}

	return nil
}

// DownloadURL builds the URL a client fetches the report bytes from.
func (s *Service) DownloadURL(ctx context.Context, userID, id uuid.UUID, baseURL string) (string, error) {
	meta, err := s.ownedReport(ctx, userID, id)
	if err != nil {
		return "", err
	}

	if s.localMode {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), id.String()), nil
	}

	if meta.ObjectKey == nil {
		return "", fmt.Errorf("object key is missing")
	}

	if s.preferPublicURL && s.publicBaseURL != "" {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *meta.ObjectKey, nil
	}

	return s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
}

// ReportData returns the raw bytes for the local-mode download endpoint.
// In S3 mode the bytes are fetched from the object store instead.
func (s *Service) ReportData(ctx context.Context, userID, id uuid.UUID) ([]byte, string, error) {
	meta, err := s.ownedReport(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	contentType := contentTypeFor(meta.Format)

	if s.localMode {
		return meta.Data, contentType, nil
	}

	if meta.ObjectKey == nil {
		return nil, "", fmt.Errorf("object key is missing")
	}

	data, err := s.blobStore.GetObject(ctx, *meta.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch report object: %w", err)
	}

	return data, contentType, nil
}

// ownedReport loads a report and hides it when the caller is not the owner.
func (s *Service) ownedReport(ctx context.Context, userID, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.reportsStorage.GetReport(ctx, id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	if meta.UserID != userID {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func (s *Service) toReport(meta *storage.ReportMeta) *Report {
	return &Report{
		ID:        meta.ID,
		UserID:    meta.UserID,
		Format:    meta.Format,
		Title:     meta.Title,
		ObjectKey: meta.ObjectKey,
		SizeBytes: meta.SizeBytes,
		Status:    meta.Status,
		Error:     meta.Error,
		CreatedAt: meta.CreatedAt,
		Data:      meta.Data,
	}
}

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
