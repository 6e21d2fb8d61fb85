package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ccc-church/evaluation-api/internal/dto"
	"github.com/ccc-church/evaluation-api/internal/models"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
	"github.com/ccc-church/evaluation-api/pkg/response"
)

type transferService interface {
	BackupJSON(ctx context.Context, role models.UserRole) (*dto.BackupPayload, string, error)
	BackupCSV(ctx context.Context, role models.UserRole) ([]byte, string, error)
	ValidateBackupFormat(format string) (string, error)
	Import(ctx context.Context, role models.UserRole, filename string, size int64, file io.Reader, mode string) (*dto.ImportResult, error)
	ExportCSV(ctx context.Context, role models.UserRole, filter models.ExportFilter) ([]byte, string, error)
	ExportPDF(ctx context.Context, role models.UserRole, stats models.StatsSummary, ratings []models.NameCount) ([]byte, string, error)
	Purge(ctx context.Context, role models.UserRole, username string, req dto.PurgeRequest) (*dto.PurgeResult, error)
}

// summarySource feeds the PDF export with dashboard numbers.
type summarySource interface {
	Stats(ctx context.Context, role models.UserRole) (*models.StatsSummary, bool, error)
	ServiceQuality(ctx context.Context, role models.UserRole) (*dto.ServiceQualityReport, bool, error)
}

// TransferHandler exposes backup, import, export and purge endpoints.
type TransferHandler struct {
	transfer transferService
	reports  summarySource
}

// NewTransferHandler constructs TransferHandler.
func NewTransferHandler(transfer transferService, reports summarySource) *TransferHandler {
	return &TransferHandler{transfer: transfer, reports: reports}
}

// Backup godoc
// @Summary Download a full backup of all survey responses
// @Tags Transfer
// @Produce json
// @Security BearerAuth
// @Param format query string false "Backup format: json or csv"
// @Success 200 {object} dto.BackupPayload
// @Failure 400 {object} response.Envelope
// @Router /admin/backup [get]
func (h *TransferHandler) Backup(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format, err := h.transfer.ValidateBackupFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch format {
	case "csv":
		body, filename, err := h.transfer.BackupCSV(c.Request.Context(), claims.Role)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		c.Data(http.StatusOK, "text/csv", body)
	default:
		payload, filename, err := h.transfer.BackupJSON(c.Request.Context(), claims.Role)
		if err != nil {
			response.Error(c, err)
			return
		}
		body, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to encode backup"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		c.Header("X-Total-Responses", fmt.Sprintf("%d", payload.Metadata.TotalRecords))
		c.Data(http.StatusOK, "application/json", body)
	}
}

// Import godoc
// @Summary Import survey responses from a JSON backup
// @Tags Transfer
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Backup file"
// @Param mode formData string false "Import mode: add or replace"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/import [post]
func (h *TransferHandler) Import(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "no backup file uploaded"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.transfer.Import(c.Request.Context(), claims.Role, header.Filename, header.Size, file, c.PostForm("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportCSV godoc
// @Summary Export filtered survey responses as CSV
// @Tags Transfer
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Param filter body models.ExportFilter false "Export filter"
// @Success 200 {string} string "CSV payload"
// @Router /admin/export/csv [post]
func (h *TransferHandler) ExportCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ExportFilter
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&filter); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid export filter"))
			return
		}
	}

	body, filename, err := h.transfer.ExportCSV(c.Request.Context(), claims.Role, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "text/csv", body)
}

// ExportPDF godoc
// @Summary Export a summary report as PDF
// @Tags Transfer
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {string} string "PDF payload"
// @Router /admin/export/pdf [get]
func (h *TransferHandler) ExportPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, _, err := h.reports.Stats(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	quality, _, err := h.reports.ServiceQuality(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	body, filename, err := h.transfer.ExportPDF(c.Request.Context(), claims.Role, *stats, quality.OverallRating)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}

// Purge godoc
// @Summary Delete every survey response after double confirmation
// @Tags Transfer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PurgeRequest true "Confirmation phrase and password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/purge [delete]
func (h *TransferHandler) Purge(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid purge request"))
		return
	}

	result, err := h.transfer.Purge(c.Request.Context(), claims.Role, claims.Username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
