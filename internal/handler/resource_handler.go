package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/middleware"
	"github.com/noah-isme/campushub-api/internal/models"
	"github.com/noah-isme/campushub-api/internal/service"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/response"
)

type resourceService interface {
	UploadFile(ctx context.Context, req dto.UploadResourceRequest, upload *service.ResourceUpload) (*dto.ResourceView, error)
	CreateText(ctx context.Context, req dto.UploadResourceRequest) (*dto.ResourceView, error)
	List(ctx context.Context, req dto.ListResourcesRequest) (*dto.ResourceList, error)
	Search(ctx context.Context, req dto.SearchResourcesRequest) (*dto.ResourceList, error)
	Get(ctx context.Context, id string) (*dto.ResourceDetail, error)
	Download(ctx context.Context, id string) (*dto.DownloadDescriptor, error)
	Delete(ctx context.Context, id string) (*dto.DeletedResource, error)
	BulkDelete(ctx context.Context, req dto.BulkDeleteRequest) (*dto.BulkDeleteResult, error)
}

type exportService interface {
	Export(ctx context.Context, req dto.ExportResourcesRequest) (*service.ExportResult, error)
}

// ResourceHandler exposes the resource catalogue endpoints.
type ResourceHandler struct {
	resources resourceService
	exports   exportService
	logger    *zap.Logger
}

// NewResourceHandler constructs the handler.
func NewResourceHandler(resources resourceService, exports exportService, logger *zap.Logger) *ResourceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceHandler{resources: resources, exports: exports, logger: logger}
}

// UploadPYQ godoc
// @Summary Upload a previous-year question paper
// @Tags Resources
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF file"
// @Param branch formData string true "Branch code"
// @Param semester formData int true "Semester (1-8)"
// @Param subject formData string true "Subject"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /resources/upload/pyq [post]
func (h *ResourceHandler) UploadPYQ(c *gin.Context) {
	h.uploadFile(c, models.ResourceTypePYQ)
}

// UploadNotes godoc
// @Summary Upload lecture notes
// @Tags Resources
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF file"
// @Param branch formData string true "Branch code"
// @Param semester formData int true "Semester (1-8)"
// @Param subject formData string true "Subject"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /resources/upload/notes [post]
func (h *ResourceHandler) UploadNotes(c *gin.Context) {
	h.uploadFile(c, models.ResourceTypeNotes)
}

// UploadSyllabus godoc
// @Summary Create a syllabus resource
// @Tags Resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UploadResourceRequest true "Syllabus payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /resources/upload/syllabus [post]
func (h *ResourceHandler) UploadSyllabus(c *gin.Context) {
	h.createText(c, models.ResourceTypeSyllabus)
}

// UploadContent godoc
// @Summary Create a content link resource
// @Tags Resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UploadResourceRequest true "Content payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /resources/upload/content [post]
func (h *ResourceHandler) UploadContent(c *gin.Context) {
	h.createText(c, models.ResourceTypeContent)
}

func (h *ResourceHandler) uploadFile(c *gin.Context, resourceType models.ResourceType) {
	form, ok := middleware.UploadFromContext(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file uploaded"))
		return
	}
	req, err := uploadRequestFromForm(form.Values)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.ResourceType = resourceType
	req.UploadedBy = uploaderFromContext(c)

	view, err := h.resources.UploadFile(c.Request.Context(), req, form.File)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Resource uploaded successfully", view)
}

func (h *ResourceHandler) createText(c *gin.Context, resourceType models.ResourceType) {
	var req dto.UploadResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resource payload"))
		return
	}
	req.ResourceType = resourceType
	req.UploadedBy = uploaderFromContext(c)

	view, err := h.resources.CreateText(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Resource uploaded successfully", view)
}

// List godoc
// @Summary List resources
// @Tags Resources
// @Produce json
// @Param branch query string false "Branch code"
// @Param semester query int false "Semester"
// @Param subject query string false "Subject (partial, case-insensitive)"
// @Param resourceType query string false "pyq, notes, syllabus or content"
// @Param search query string false "Free text"
// @Param page query int false "Page"
// @Param limit query int false "Items per page (max 100)"
// @Param sortBy query string false "uploadedAt, title, downloadCount or semester"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	var req dto.ListResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	list, err := h.resources.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Resources retrieved successfully", list, middleware.ExtractMeta(c))
}

// Search godoc
// @Summary Search resources
// @Tags Resources
// @Produce json
// @Param q query string true "Search text (2-100 chars)"
// @Param branch query string false "Branch code"
// @Param semester query int false "Semester"
// @Param resourceType query string false "Resource type"
// @Param page query int false "Page"
// @Param limit query int false "Items per page"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resources/search [get]
func (h *ResourceHandler) Search(c *gin.Context) {
	var req dto.SearchResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	list, err := h.resources.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Search completed successfully", list, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get resource by ID
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	detail, err := h.resources.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Resource retrieved successfully", detail)
}

// Download godoc
// @Summary Get a download descriptor
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id}/download [get]
func (h *ResourceHandler) Download(c *gin.Context) {
	descriptor, err := h.resources.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Download link retrieved successfully", descriptor)
}

// Delete godoc
// @Summary Delete a resource
// @Tags Resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	deleted, err := h.resources.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Resource deleted successfully", deleted)
}

// BulkDelete godoc
// @Summary Delete several resources
// @Tags Resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BulkDeleteRequest true "Resource IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /resources/bulk [delete]
func (h *ResourceHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk delete payload"))
		return
	}
	result, err := h.resources.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fmt.Sprintf("Successfully deleted %d resources", result.DeletedCount), result)
}

// Export godoc
// @Summary Export the filtered catalogue
// @Tags Resources
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param branch query string false "Branch code"
// @Param semester query int false "Semester"
// @Param resourceType query string false "Resource type"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /resources/export [get]
func (h *ResourceHandler) Export(c *gin.Context) {
	var req dto.ExportResourcesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	result, err := h.exports.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("resources exported", zap.String("file", result.FileName), zap.Int("rows", result.Rows))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.FileName))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func uploadRequestFromForm(values url.Values) (dto.UploadResourceRequest, error) {
	req := dto.UploadResourceRequest{
		Branch:      values.Get("branch"),
		Subject:     values.Get("subject"),
		Title:       values.Get("title"),
		Description: values.Get("description"),
	}
	req.Tags = append(req.Tags, values["tags"]...)
	req.Tags = append(req.Tags, values["tags[]"]...)
	if raw := strings.TrimSpace(values.Get("semester")); raw != "" {
		semester, err := strconv.Atoi(raw)
		if err != nil {
			return req, appErrors.Validation("Validation failed", appErrors.FieldError{Field: "semester", Message: "semester must be a number", Value: raw})
		}
		req.Semester = semester
	}
	return req, nil
}

func uploaderFromContext(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		if claims.Email != "" {
			return claims.Email
		}
		return claims.UserID
	}
	return ""
}
