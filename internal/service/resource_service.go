package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/internal/query"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

type resourceStore interface {
	Create(ctx context.Context, res *models.Resource) error
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Resource, error)
	List(ctx context.Context, q models.ResourceQuery) ([]models.Resource, int, error)
	ListAll(ctx context.Context, filter models.ResourceFilter, sort models.ResourceSort) ([]models.Resource, error)
	Touch(ctx context.Context, id string, at time.Time) error
	IncrementDownload(ctx context.Context, id string, at time.Time) (*models.Resource, error)
	Delete(ctx context.Context, ids []string) (int64, error)
	Deactivate(ctx context.Context, ids []string, at time.Time) (int64, error)
}

type objectStore interface {
	Provider() string
	Put(ctx context.Context, in storage.PutInput) (*storage.PutResult, error)
	Delete(ctx context.Context, id string) error
	Stat(ctx context.Context, id string) (*storage.ObjectInfo, error)
	DownloadURL(ctx context.Context, id, fileName string) (string, error)
	Usage(ctx context.Context) (*storage.Usage, error)
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// ResourceUpload carries the spooled file of a multipart upload.
type ResourceUpload struct {
	FileName    string
	Size        int64
	ContentType string
	Content     io.ReadSeeker
}

// ResourceServiceConfig holds upload limits and the delete mode.
type ResourceServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	SoftDelete   bool
}

// ResourceService implements the resource catalogue use cases.
type ResourceService struct {
	repo      resourceStore
	objects   objectStore
	cache     statsInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ResourceServiceConfig
	mimeSet   map[string]struct{}
	now       func() time.Time
}

// NewResourceService constructs the service with defaults.
func NewResourceService(repo resourceStore, objects objectStore, cache statsInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ResourceServiceConfig) *ResourceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 100 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf"}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &ResourceService{
		repo:      repo,
		objects:   objects,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UploadFile stores a PDF in the object store and records it.
func (s *ResourceService) UploadFile(ctx context.Context, req dto.UploadResourceRequest, upload *ResourceUpload) (*dto.ResourceView, error) {
	if !req.ResourceType.FileBacked() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resource type does not accept a file")
	}
	normalizeUpload(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if upload == nil || upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Validation("No file uploaded", appErrors.FieldError{Field: "file", Message: "file is required"})
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, FileTooLarge(s.cfg.MaxFileSize)
	}
	mimeType, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}

	fileName := filepath.Base(strings.TrimSpace(upload.FileName))
	if fileName == "." || fileName == string(filepath.Separator) {
		fileName = "resource.pdf"
	}
	stored, err := s.objects.Put(ctx, storage.PutInput{
		Category:    storage.CategoryRaw,
		Body:        upload.Content,
		Size:        upload.Size,
		FileName:    fileName,
		ContentType: mimeType,
		Metadata:    objectMetadata(req),
		Tags:        objectTags(req),
	})
	if err != nil {
		s.metrics.RecordObjectStoreError("put")
		s.logger.Error("object store upload failed", zap.String("resource_type", string(req.ResourceType)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "Failed to upload file to storage")
	}

	size := stored.Size
	if size <= 0 {
		size = upload.Size
	}
	res := newResource(req)
	res.FileURL = &stored.URL
	res.FileID = &stored.ID
	res.FileName = &fileName
	res.FileSize = &size
	res.MimeType = &mimeType

	if err := s.repo.Create(ctx, res); err != nil {
		if delErr := s.objects.Delete(context.WithoutCancel(ctx), stored.ID); delErr != nil {
			s.metrics.RecordObjectStoreError("delete")
			s.logger.Warn("failed to remove orphaned object", zap.String("object_id", stored.ID), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to save resource")
	}
	return s.created(ctx, res), nil
}

// CreateText records a syllabus or content resource, which carries no file.
func (s *ResourceService) CreateText(ctx context.Context, req dto.UploadResourceRequest) (*dto.ResourceView, error) {
	if req.ResourceType.FileBacked() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resource type requires a file")
	}
	normalizeUpload(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	res := newResource(req)
	switch req.ResourceType {
	case models.ResourceTypeSyllabus:
		text := req.SyllabusText
		res.SyllabusText = &text
	case models.ResourceTypeContent:
		link := req.ContentLink
		res.ContentLink = &link
	}
	if err := res.CheckVariant(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to save resource")
	}
	return s.created(ctx, res), nil
}

func (s *ResourceService) created(ctx context.Context, res *models.Resource) *dto.ResourceView {
	s.metrics.RecordUpload(res.ResourceType)
	if s.cache != nil {
		s.cache.InvalidateStats(ctx)
	}
	s.logger.Info("resource created",
		zap.String("resource_id", res.ID),
		zap.String("resource_type", string(res.ResourceType)),
		zap.String("branch", res.Branch),
		zap.Int("semester", res.Semester),
		zap.String("uploaded_by", res.UploadedBy),
	)
	view := dto.NewResourceView(*res)
	return &view
}

// List returns one page of the filtered, sorted catalogue.
func (s *ResourceService) List(ctx context.Context, req dto.ListResourcesRequest) (*dto.ResourceList, error) {
	req.Branch = strings.TrimSpace(req.Branch)
	req.Search = strings.TrimSpace(req.Search)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	q := ResourceQueryFrom(req)

	start := time.Now()
	items, total, err := s.repo.List(ctx, q)
	s.metrics.ObserveCatalogQuery("list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch resources")
	}

	return &dto.ResourceList{
		Resources:  dto.NewResourceViews(items),
		Pagination: models.NewPagination(q.Page, total),
		Filters: dto.ListFilters{
			Branch:       q.Filter.Branch,
			Semester:     req.Semester,
			Subject:      q.Filter.Subject,
			ResourceType: string(q.Filter.ResourceType),
			Search:       q.Filter.Search,
		},
		Sorting: dto.Sorting{SortBy: q.Sort.Field, SortOrder: q.Sort.Order},
	}, nil
}

// Search runs the listing pipeline with a free-text term.
func (s *ResourceService) Search(ctx context.Context, req dto.SearchResourcesRequest) (*dto.ResourceList, error) {
	req.Q = strings.TrimSpace(req.Q)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	list, err := s.List(ctx, req.Listing())
	if err != nil {
		return nil, err
	}
	list.SearchQuery = req.Q
	return list, nil
}

// Get returns a single resource with storage details and records the read.
func (s *ResourceService) Get(ctx context.Context, id string) (*dto.ResourceDetail, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if err := s.repo.Touch(ctx, res.ID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		s.logger.Warn("failed to record resource access", zap.String("resource_id", res.ID), zap.Error(err))
	} else {
		res.LastAccessed = &at
	}

	var info *storage.ObjectInfo
	if res.ResourceType.FileBacked() && res.FileID != nil && *res.FileID != "" {
		info, err = s.objects.Stat(ctx, *res.FileID)
		if err != nil {
			s.metrics.RecordObjectStoreError("stat")
			s.logger.Warn("failed to fetch storage info", zap.String("resource_id", res.ID), zap.Error(err))
			info = nil
		}
	}
	detail := dto.NewResourceDetail(*res, info)
	return &detail, nil
}

// Download bumps the download counter and describes where to fetch the resource.
func (s *ResourceService) Download(ctx context.Context, id string) (*dto.DownloadDescriptor, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	fileBacked := res.ResourceType.FileBacked()
	if fileBacked && (res.FileID == nil || *res.FileID == "") {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "File not available for this resource")
	}

	updated, err := s.repo.IncrementDownload(ctx, res.ID, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to record download")
	}

	desc := &dto.DownloadDescriptor{
		ResourceID:    updated.ID,
		Title:         updated.Title,
		ResourceType:  updated.ResourceType,
		DownloadCount: updated.DownloadCount,
	}
	switch {
	case fileBacked:
		desc.FileName = deref(updated.FileName)
		desc.ViewURL = deref(updated.FileURL)
		desc.MimeType = deref(updated.MimeType)
		if updated.FileSize != nil {
			desc.Size = *updated.FileSize
		}
		url, err := s.objects.DownloadURL(ctx, *updated.FileID, desc.FileName)
		if err != nil {
			s.metrics.RecordObjectStoreError("download_url")
			s.logger.Warn("failed to mint download url, using stored url", zap.String("resource_id", updated.ID), zap.Error(err))
			url = desc.ViewURL
		}
		desc.DownloadURL = url
	case updated.ResourceType == models.ResourceTypeSyllabus:
		desc.SyllabusText = deref(updated.SyllabusText)
	case updated.ResourceType == models.ResourceTypeContent:
		desc.ContentLink = deref(updated.ContentLink)
	}

	s.metrics.RecordDownload(updated.ResourceType)
	s.logger.Info("resource downloaded", zap.String("resource_id", updated.ID), zap.Int64("download_count", updated.DownloadCount))
	return desc, nil
}

// Delete removes one resource and, best-effort, its stored file.
func (s *ResourceService) Delete(ctx context.Context, id string) (*dto.DeletedResource, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.removeObject(ctx, *res)
	removed, err := s.remove(ctx, []string{res.ID})
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return nil, appErrors.ErrNotFound
	}
	if s.cache != nil {
		s.cache.InvalidateStats(ctx)
	}
	s.logger.Info("resource deleted", zap.String("resource_id", res.ID), zap.Bool("soft", s.cfg.SoftDelete))
	summary := dto.NewDeletedResource(*res)
	return &summary, nil
}

// BulkDelete removes every active resource among the requested ids.
func (s *ResourceService) BulkDelete(ctx context.Context, req dto.BulkDeleteRequest) (*dto.BulkDeleteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	items, err := s.repo.FindByIDs(ctx, uniqueStrings(req.ResourceIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to load resources")
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "No resources found for deletion")
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		s.removeObject(ctx, item)
		ids = append(ids, item.ID)
	}
	removed, err := s.remove(ctx, ids)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateStats(ctx)
	}
	s.logger.Info("resources deleted", zap.Int("requested", len(req.ResourceIDs)), zap.Int64("removed", removed), zap.Bool("soft", s.cfg.SoftDelete))
	result := dto.NewBulkDeleteResult(items)
	return &result, nil
}

func (s *ResourceService) find(ctx context.Context, id string) (*models.Resource, error) {
	id = strings.TrimSpace(id)
	if err := s.validator.Var(id, "required,uuid"); err != nil {
		return nil, appErrors.Validation("Invalid resource ID", appErrors.FieldError{Field: "id", Message: "id must be a valid UUID", Value: id})
	}
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to fetch resource")
	}
	return res, nil
}

func (s *ResourceService) remove(ctx context.Context, ids []string) (int64, error) {
	var (
		removed int64
		err     error
	)
	if s.cfg.SoftDelete {
		removed, err = s.repo.Deactivate(ctx, ids, s.now())
	} else {
		removed, err = s.repo.Delete(ctx, ids)
	}
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to delete resource")
	}
	return removed, nil
}

// removeObject deletes the stored file of res. Failures never block deletion of the record.
func (s *ResourceService) removeObject(ctx context.Context, res models.Resource) {
	if !res.ResourceType.FileBacked() || res.FileID == nil || *res.FileID == "" {
		return
	}
	err := s.objects.Delete(ctx, *res.FileID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrObjectNotFound):
		s.logger.Warn("stored file already absent", zap.String("resource_id", res.ID), zap.String("object_id", *res.FileID))
	default:
		s.metrics.RecordObjectStoreError("delete")
		s.logger.Warn("failed to delete stored file", zap.String("resource_id", res.ID), zap.String("object_id", *res.FileID), zap.Error(err))
	}
}

func (s *ResourceService) detectMime(upload *ResourceUpload) (string, error) {
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if n == 0 {
		return "", appErrors.Validation("No file uploaded", appErrors.FieldError{Field: "file", Message: "file is empty"})
	}
	sniffed := baseMediaType(http.DetectContentType(header[:n]))
	declared := baseMediaType(upload.ContentType)

	_, sniffedOK := s.mimeSet[sniffed]
	_, declaredOK := s.mimeSet[declared]
	if !sniffedOK || (declared != "" && !declaredOK) {
		return "", appErrors.Validation(
			fmt.Sprintf("Invalid file type. Allowed types: %s", strings.Join(s.cfg.AllowedMIMEs, ", ")),
			appErrors.FieldError{Field: "file", Message: "unsupported file type", Value: declared},
		)
	}
	return sniffed, nil
}

// ResourceQueryFrom converts listing parameters into a catalogue query with defaults applied.
func ResourceQueryFrom(req dto.ListResourcesRequest) models.ResourceQuery {
	q := models.ResourceQuery{
		Filter: models.ResourceFilter{
			Branch:       strings.ToUpper(strings.TrimSpace(req.Branch)),
			Subject:      strings.TrimSpace(req.Subject),
			ResourceType: models.ResourceType(req.ResourceType),
			Search:       strings.TrimSpace(req.Search),
		},
		Sort: models.DefaultSort,
	}
	if req.Semester != nil {
		q.Filter.Semester = *req.Semester
	}
	if field, ok := models.ParseSortField(req.SortBy); ok {
		q.Sort.Field = field
	}
	if req.SortOrder != "" {
		q.Sort.Order = models.SortOrder(req.SortOrder)
	}
	if req.Page != nil {
		q.Page.Number = *req.Page
	}
	if req.Limit != nil {
		q.Page.Limit = *req.Limit
	}
	q.Page = query.NormalizePage(q.Page)
	return q
}

func normalizeUpload(req *dto.UploadResourceRequest) {
	req.Branch = strings.ToUpper(strings.TrimSpace(req.Branch))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.SyllabusText = strings.TrimSpace(req.SyllabusText)
	req.ContentLink = strings.TrimSpace(req.ContentLink)
	req.Tags = models.NormalizeTags(req.Tags)
	req.UploadedBy = strings.TrimSpace(req.UploadedBy)
	if req.UploadedBy == "" {
		req.UploadedBy = "admin"
	}
}

func newResource(req dto.UploadResourceRequest) *models.Resource {
	return &models.Resource{
		Branch:       req.Branch,
		Semester:     req.Semester,
		Subject:      req.Subject,
		ResourceType: req.ResourceType,
		Title:        req.Title,
		Description:  req.Description,
		Tags:         pq.StringArray(req.Tags),
		UploadedBy:   req.UploadedBy,
	}
}

func objectMetadata(req dto.UploadResourceRequest) map[string]string {
	meta := map[string]string{
		"branch":       req.Branch,
		"semester":     strconv.Itoa(req.Semester),
		"subject":      req.Subject,
		"resourceType": string(req.ResourceType),
		"title":        req.Title,
	}
	if req.Description != "" {
		meta["description"] = req.Description
	}
	return meta
}

func objectTags(req dto.UploadResourceRequest) []string {
	tags := []string{req.Branch, fmt.Sprintf("semester_%d", req.Semester), string(req.ResourceType)}
	return models.NormalizeTags(append(tags, req.Tags...))
}

func baseMediaType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	return strings.ToLower(mt)
}

// FileTooLarge builds the 400 returned for files above limit bytes.
func FileTooLarge(limit int64) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("File size too large. Maximum size is %s.", humanSize(limit)))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
