package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ccc-church/evaluation-api/internal/dto"
	"github.com/ccc-church/evaluation-api/internal/middleware"
	"github.com/ccc-church/evaluation-api/internal/models"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
	"github.com/ccc-church/evaluation-api/pkg/response"
)

type reportService interface {
	Stats(ctx context.Context, role models.UserRole) (*models.StatsSummary, bool, error)
	Demographics(ctx context.Context, role models.UserRole) (*dto.DemographicsReport, bool, error)
	ServiceQuality(ctx context.Context, role models.UserRole) (*dto.ServiceQualityReport, bool, error)
	Departments(ctx context.Context, role models.UserRole) (*dto.DepartmentsReport, bool, error)
	Ministries(ctx context.Context, role models.UserRole) (*dto.MinistriesReport, bool, error)
	OverallHealth(ctx context.Context, role models.UserRole) (*dto.OverallHealthReport, bool, error)
	Combined(ctx context.Context, role models.UserRole) (*dto.CombinedReport, bool, error)
}

// ReportHandler exposes dashboard statistics and aggregated reports.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Stats godoc
// @Summary Dashboard counters
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /responses/stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, hit, err := h.reports.Stats(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Demographics godoc
// @Summary Demographics report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/demographics [get]
func (h *ReportHandler) Demographics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, hit, err := h.reports.Demographics(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// ServiceQuality godoc
// @Summary Service quality report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/service-quality [get]
func (h *ReportHandler) ServiceQuality(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, hit, err := h.reports.ServiceQuality(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Departments godoc
// @Summary Departments report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/departments [get]
func (h *ReportHandler) Departments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, hit, err := h.reports.Departments(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Ministries godoc
// @Summary Ministries report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/ministries [get]
func (h *ReportHandler) Ministries(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, hit, err := h.reports.Ministries(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// OverallHealth godoc
// @Summary Overall health report with feedback keywords
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/overall-health [get]
func (h *ReportHandler) OverallHealth(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, hit, err := h.reports.OverallHealth(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Combined godoc
// @Summary All reports in a single payload
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/reports [get]
func (h *ReportHandler) Combined(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, hit, err := h.reports.Combined(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}
