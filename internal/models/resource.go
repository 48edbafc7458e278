package models

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
)

// ResourceType identifies the variant of a resource.
type ResourceType string

const (
	ResourceTypePYQ      ResourceType = "pyq"
	ResourceTypeNotes    ResourceType = "notes"
	ResourceTypeSyllabus ResourceType = "syllabus"
	ResourceTypeContent  ResourceType = "content"
)

// ResourceTypes lists every supported variant.
var ResourceTypes = []ResourceType{ResourceTypePYQ, ResourceTypeNotes, ResourceTypeSyllabus, ResourceTypeContent}

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceTypePYQ, ResourceTypeNotes, ResourceTypeSyllabus, ResourceTypeContent:
		return true
	}
	return false
}

// FileBacked reports whether the variant stores its bytes in the object store.
func (t ResourceType) FileBacked() bool {
	return t == ResourceTypePYQ || t == ResourceTypeNotes
}

// Resource is an academic resource shared through CampusHub.
type Resource struct {
	ID            string         `db:"id" json:"id"`
	Seq           int64          `db:"seq" json:"-"`
	Branch        string         `db:"branch" json:"branch"`
	Semester      int            `db:"semester" json:"semester"`
	Subject       string         `db:"subject" json:"subject"`
	ResourceType  ResourceType   `db:"resource_type" json:"resourceType"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description,omitempty"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	FileURL       *string        `db:"file_url" json:"fileUrl,omitempty"`
	FileID        *string        `db:"file_id" json:"-"`
	FileName      *string        `db:"file_name" json:"fileName,omitempty"`
	FileSize      *int64         `db:"file_size" json:"fileSize,omitempty"`
	MimeType      *string        `db:"mime_type" json:"mimeType,omitempty"`
	SyllabusText  *string        `db:"syllabus_text" json:"syllabusText,omitempty"`
	ContentLink   *string        `db:"content_link" json:"contentLink,omitempty"`
	UploadedBy    string         `db:"uploaded_by" json:"uploadedBy"`
	DownloadCount int64          `db:"download_count" json:"downloadCount"`
	IsActive      bool           `db:"is_active" json:"-"`
	LastAccessed  *time.Time     `db:"last_accessed" json:"lastAccessed"`
	UploadedAt    time.Time      `db:"uploaded_at" json:"uploadedAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// ErrVariantMismatch is returned when the populated payload does not match the resource type.
var ErrVariantMismatch = errors.New("resource payload does not match its type")

// CheckVariant enforces that exactly one of file, syllabus text or content
// link is populated, as selected by the resource type.
func (r *Resource) CheckVariant() error {
	hasFile := r.FileURL != nil && *r.FileURL != ""
	hasSyllabus := r.SyllabusText != nil && strings.TrimSpace(*r.SyllabusText) != ""
	hasLink := r.ContentLink != nil && *r.ContentLink != ""

	var ok bool
	switch r.ResourceType {
	case ResourceTypePYQ, ResourceTypeNotes:
		ok = hasFile && !hasSyllabus && !hasLink
	case ResourceTypeSyllabus:
		ok = hasSyllabus && !hasFile && !hasLink
	case ResourceTypeContent:
		ok = hasLink && !hasFile && !hasSyllabus
	}
	if !ok {
		return ErrVariantMismatch
	}
	return nil
}

// HasTag reports whether the resource carries tag, ignoring case.
func (r *Resource) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// NormalizeTags trims tags, drops empties and duplicates, and keeps display order.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			tag := strings.TrimSpace(part)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// ResourceFilter narrows a listing. Zero values impose nothing.
type ResourceFilter struct {
	Branch       string
	Semester     int
	Subject      string
	ResourceType ResourceType
	Search       string
}

// SortField is a sortable resource attribute.
type SortField string

const (
	SortUploadedAt    SortField = "uploadedAt"
	SortTitle         SortField = "title"
	SortDownloadCount SortField = "downloadCount"
	SortSemester      SortField = "semester"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ResourceSort orders a listing.
type ResourceSort struct {
	Field SortField
	Order SortOrder
}

// DefaultSort lists the newest uploads first.
var DefaultSort = ResourceSort{Field: SortUploadedAt, Order: SortDesc}

// Normalize falls back to DefaultSort for an unknown field and to descending
// order when none is given.
func (s ResourceSort) Normalize() ResourceSort {
	switch s.Field {
	case SortUploadedAt, SortTitle, SortDownloadCount, SortSemester:
	default:
		return DefaultSort
	}
	if s.Order != SortAsc {
		s.Order = SortDesc
	}
	return s
}

// ParseSortField resolves a sortBy parameter. createdAt is accepted as an alias of uploadedAt.
func ParseSortField(raw string) (SortField, bool) {
	switch raw {
	case "", "uploadedAt", "createdAt":
		return SortUploadedAt, true
	case "title":
		return SortTitle, true
	case "downloadCount":
		return SortDownloadCount, true
	case "semester":
		return SortSemester, true
	}
	return "", false
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Page bounds.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize applies defaults and clamps the limit to MaxPageLimit.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the zero-based index of the first item on the page. It
// saturates at math.MaxInt instead of overflowing for huge page numbers.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// ResourceQuery combines filtering, sorting and paging.
type ResourceQuery struct {
	Filter ResourceFilter
	Sort   ResourceSort
	Page   Page
}
