package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campushub-api/internal/dto"
	"github.com/noah-isme/campushub-api/internal/models"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
	"github.com/noah-isme/campushub-api/pkg/response"
)

type statsService interface {
	Overview(ctx context.Context) (*models.ResourceStats, error)
	Branches(ctx context.Context) ([]models.BranchSummary, error)
	Subjects(ctx context.Context, req dto.SubjectsRequest) (*models.SubjectList, error)
}

// StatsHandler serves catalogue aggregates and reference data.
type StatsHandler struct {
	stats statsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(stats statsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Overview godoc
// @Summary Catalogue statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resources/stats/overview [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	stats, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Resource statistics retrieved successfully", stats)
}

// Branches godoc
// @Summary Branch catalogue
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resources/meta/branches [get]
func (h *StatsHandler) Branches(c *gin.Context) {
	branches, err := h.stats.Branches(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Branches retrieved successfully", gin.H{"branches": branches})
}

// Subjects godoc
// @Summary Subjects with resources
// @Tags Stats
// @Produce json
// @Param branch query string false "Branch code"
// @Param semester query int false "Semester"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resources/meta/subjects [get]
func (h *StatsHandler) Subjects(c *gin.Context) {
	var req dto.SubjectsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	subjects, err := h.stats.Subjects(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Subjects retrieved successfully", subjects)
}
