package dto

import (
	"time"

	"github.com/ecodeclub/ekit/slice"

	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/pkg/storage"
)

// FileInfo describes the stored file of a file-backed resource.
type FileInfo struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
	FileURL  string `json:"fileUrl"`
	Format   string `json:"format,omitempty"`
}

// ResourceView is the public representation of a resource.
type ResourceView struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Branch        string              `json:"branch"`
	Semester      int                 `json:"semester"`
	Subject       string              `json:"subject"`
	ResourceType  models.ResourceType `json:"resourceType"`
	Description   string              `json:"description"`
	Tags          []string            `json:"tags"`
	UploadedBy    string              `json:"uploadedBy"`
	UploadedAt    time.Time           `json:"uploadedAt"`
	DownloadCount int64               `json:"downloadCount"`
	LastAccessed  *time.Time          `json:"lastAccessed"`
	FileInfo      *FileInfo           `json:"fileInfo,omitempty"`
	SyllabusText  *string             `json:"syllabusText,omitempty"`
	ContentLink   *string             `json:"contentLink,omitempty"`
}

// ResourceDetail adds storage details to the view of a single resource.
type ResourceDetail struct {
	ResourceView
	UpdatedAt   time.Time           `json:"updatedAt"`
	StorageInfo *storage.ObjectInfo `json:"storageInfo"`
}

// ListFilters echoes the applied filters.
type ListFilters struct {
	Branch       string `json:"branch,omitempty"`
	Semester     *int   `json:"semester"`
	Subject      string `json:"subject,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`
	Search       string `json:"search,omitempty"`
}

// Sorting echoes the applied order.
type Sorting struct {
	SortBy    models.SortField `json:"sortBy"`
	SortOrder models.SortOrder `json:"sortOrder"`
}

// ResourceList is the payload of listing and search endpoints.
type ResourceList struct {
	Resources   []ResourceView    `json:"resources"`
	Pagination  models.Pagination `json:"pagination"`
	Filters     ListFilters       `json:"filters"`
	Sorting     Sorting           `json:"sorting"`
	SearchQuery string            `json:"searchQuery,omitempty"`
}

// DownloadDescriptor tells the client where to fetch a resource.
type DownloadDescriptor struct {
	ResourceID    string              `json:"resourceId"`
	Title         string              `json:"title"`
	ResourceType  models.ResourceType `json:"resourceType"`
	FileName      string              `json:"fileName,omitempty"`
	DownloadURL   string              `json:"downloadUrl,omitempty"`
	ViewURL       string              `json:"viewUrl,omitempty"`
	Size          int64               `json:"size,omitempty"`
	MimeType      string              `json:"mimeType,omitempty"`
	SyllabusText  string              `json:"syllabusText,omitempty"`
	ContentLink   string              `json:"contentLink,omitempty"`
	DownloadCount int64               `json:"downloadCount"`
}

// DeletedResource summarises a removed resource.
type DeletedResource struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FileName string `json:"fileName,omitempty"`
}

// BulkDeleteResult reports a bulk deletion.
type BulkDeleteResult struct {
	DeletedCount     int               `json:"deletedCount"`
	DeletedResources []DeletedResource `json:"deletedResources"`
}

// NewResourceView strips internal fields from a resource.
func NewResourceView(r models.Resource) ResourceView {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	view := ResourceView{
		ID:            r.ID,
		Title:         r.Title,
		Branch:        r.Branch,
		Semester:      r.Semester,
		Subject:       r.Subject,
		ResourceType:  r.ResourceType,
		Description:   r.Description,
		Tags:          tags,
		UploadedBy:    r.UploadedBy,
		UploadedAt:    r.UploadedAt.UTC(),
		DownloadCount: r.DownloadCount,
		LastAccessed:  utcPtr(r.LastAccessed),
		SyllabusText:  r.SyllabusText,
		ContentLink:   r.ContentLink,
	}
	if r.ResourceType.FileBacked() {
		view.FileInfo = &FileInfo{
			FileName: deref(r.FileName),
			MimeType: deref(r.MimeType),
			FileURL:  deref(r.FileURL),
			Format:   formatOf(deref(r.MimeType)),
		}
		if r.FileSize != nil {
			view.FileInfo.FileSize = *r.FileSize
		}
	}
	return view
}

// NewResourceViews formats a page of resources.
func NewResourceViews(items []models.Resource) []ResourceView {
	return slice.Map(items, func(_ int, r models.Resource) ResourceView {
		return NewResourceView(r)
	})
}

// NewResourceDetail formats a single resource with optional storage details.
func NewResourceDetail(r models.Resource, info *storage.ObjectInfo) ResourceDetail {
	return ResourceDetail{ResourceView: NewResourceView(r), UpdatedAt: r.UpdatedAt.UTC(), StorageInfo: info}
}

// NewDeletedResource summarises a removed resource.
func NewDeletedResource(r models.Resource) DeletedResource {
	return DeletedResource{ID: r.ID, Title: r.Title, FileName: deref(r.FileName)}
}

// NewBulkDeleteResult summarises a bulk deletion.
func NewBulkDeleteResult(items []models.Resource) BulkDeleteResult {
	return BulkDeleteResult{
		DeletedCount: len(items),
		DeletedResources: slice.Map(items, func(_ int, r models.Resource) DeletedResource {
			return NewDeletedResource(r)
		}),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func formatOf(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return "pdf"
	case "":
		return ""
	}
	return mimeType
}
