package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/models"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"ID", "Title", "Branch", "Semester", "Subject", "Type", "Tags", "File", "Size", "Downloads", "Uploaded At"}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// ExportResult is a rendered listing ready to stream.
type ExportResult struct {
	FileName    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ExportService renders filtered listings as CSV or PDF.
type ExportService struct {
	repo      catalogScanner
	renderers map[string]datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(repo catalogScanner, validate *validator.Validate, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		repo:      repo,
		renderers: map[string]datasetRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Export renders every resource matching the listing filters, in listing order.
func (s *ExportService) Export(ctx context.Context, req dto.ExportResourcesRequest) (*ExportResult, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = ExportFormatCSV
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	q := ResourceQueryFrom(req.ListResourcesRequest)
	items, err := s.repo.ListAll(ctx, q.Filter, q.Sort)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch resources")
	}

	renderer := s.renderers[req.Format]
	generatedAt := s.now()
	payload, err := renderer.Render(buildDataset(items), fmt.Sprintf("CampusHub resources (%s UTC)", generatedAt.Format("2006-01-02 15:04")))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to render export")
	}
	s.logger.Info("resources exported", zap.String("format", req.Format), zap.Int("rows", len(items)))

	return &ExportResult{
		FileName:    fmt.Sprintf("campushub_resources_%s.%s", generatedAt.Format("20060102_150405"), req.Format),
		ContentType: renderer.ContentType(),
		Payload:     payload,
		Rows:        len(items),
	}, nil
}

func buildDataset(items []models.Resource) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		size := ""
		if item.FileSize != nil {
			size = strconv.FormatInt(*item.FileSize, 10)
		}
		rows = append(rows, map[string]string{
			"ID":          item.ID,
			"Title":       item.Title,
			"Branch":      item.Branch,
			"Semester":    strconv.Itoa(item.Semester),
			"Subject":     item.Subject,
			"Type":        string(item.ResourceType),
			"Tags":        strings.Join(item.Tags, ", "),
			"File":        deref(item.FileName),
			"Size":        size,
			"Downloads":   strconv.FormatInt(item.DownloadCount, 10),
			"Uploaded At": item.UploadedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
