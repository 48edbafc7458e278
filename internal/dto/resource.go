package dto

import "github.com/noah-isme/campushub-api/internal/models"

// UploadResourceRequest carries the metadata of every upload variant. The
// resource type comes from the route, never from the client.
type UploadResourceRequest struct {
	Branch       string              `form:"branch" json:"branch" validate:"required,branch"`
	Semester     int                 `form:"semester" json:"semester" validate:"required,min=1,max=8"`
	Subject      string              `form:"subject" json:"subject" validate:"required,min=2,max=100"`
	Title        string              `form:"title" json:"title" validate:"required,min=3,max=200"`
	Description  string              `form:"description" json:"description" validate:"max=1000"`
	Tags         []string            `form:"tags" json:"tags" validate:"max=20,dive,max=50"`
	ResourceType models.ResourceType `form:"-" json:"-" validate:"required,resourcetype"`
	SyllabusText string              `form:"syllabusText" json:"syllabusText" validate:"required_if=ResourceType syllabus"`
	ContentLink  string              `form:"contentLink" json:"contentLink" validate:"required_if=ResourceType content,omitempty,httpurl,max=2048"`
	UploadedBy   string              `form:"-" json:"-"`
}

// ListResourcesRequest captures listing query parameters.
type ListResourcesRequest struct {
	Branch       string `form:"branch" validate:"omitempty,branch"`
	Semester     *int   `form:"semester" validate:"omitempty,min=1,max=8"`
	Subject      string `form:"subject" validate:"omitempty,max=100"`
	ResourceType string `form:"resourceType" validate:"omitempty,resourcetype"`
	Search       string `form:"search" validate:"omitempty,max=100"`
	Page         *int   `form:"page" validate:"omitempty,min=1"`
	Limit        *int   `form:"limit" validate:"omitempty,min=1,max=100"`
	SortBy       string `form:"sortBy" validate:"omitempty,oneof=uploadedAt createdAt title downloadCount semester"`
	SortOrder    string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// SearchResourcesRequest captures search query parameters.
type SearchResourcesRequest struct {
	Q            string `form:"q" validate:"required,min=2,max=100"`
	Branch       string `form:"branch" validate:"omitempty,branch"`
	Semester     *int   `form:"semester" validate:"omitempty,min=1,max=8"`
	ResourceType string `form:"resourceType" validate:"omitempty,resourcetype"`
	Page         *int   `form:"page" validate:"omitempty,min=1"`
	Limit        *int   `form:"limit" validate:"omitempty,min=1,max=100"`
	SortBy       string `form:"sortBy" validate:"omitempty,oneof=uploadedAt createdAt title downloadCount semester"`
	SortOrder    string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// Listing converts a search request into the equivalent listing request.
func (r SearchResourcesRequest) Listing() ListResourcesRequest {
	return ListResourcesRequest{
		Branch:       r.Branch,
		Semester:     r.Semester,
		ResourceType: r.ResourceType,
		Search:       r.Q,
		Page:         r.Page,
		Limit:        r.Limit,
		SortBy:       r.SortBy,
		SortOrder:    r.SortOrder,
	}
}

// ExportResourcesRequest selects the listing and output format of an export.
type ExportResourcesRequest struct {
	ListResourcesRequest
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// SubjectsRequest narrows subject aggregation.
type SubjectsRequest struct {
	Branch   string `form:"branch" validate:"omitempty,branch"`
	Semester *int   `form:"semester" validate:"omitempty,min=1,max=8"`
}

// BulkDeleteRequest lists the resources to remove.
type BulkDeleteRequest struct {
	ResourceIDs []string `json:"resourceIds" validate:"required,min=1,max=100,dive,uuid4"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
