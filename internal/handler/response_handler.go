package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ccc-church/evaluation-api/internal/models"
	"github.com/ccc-church/evaluation-api/internal/survey"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
	"github.com/ccc-church/evaluation-api/pkg/response"
)

type responseService interface {
	Create(ctx context.Context, actor string, role models.UserRole, form *survey.Form) (*models.Response, error)
	Get(ctx context.Context, role models.UserRole, id string) (*models.Response, error)
	List(ctx context.Context, role models.UserRole, filter models.ResponseFilter) ([]models.ResponseListItem, *models.Pagination, error)
	Update(ctx context.Context, actor string, role models.UserRole, id string, form *survey.Form) (*models.Response, error)
	Delete(ctx context.Context, actor string, role models.UserRole, id string) error
	ValidateSection(section string, raw []byte) ([]appErrors.FieldError, error)
}

// ResponseHandler exposes survey response endpoints.
type ResponseHandler struct {
	responses responseService
	pageSize  int
}

// NewResponseHandler constructs ResponseHandler. defaultPageSize is the
// listing page size used when the request names none.
func NewResponseHandler(responses responseService, defaultPageSize int) *ResponseHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	return &ResponseHandler{responses: responses, pageSize: defaultPageSize}
}

// List godoc
// @Summary List survey responses
// @Tags Responses
// @Produce json
// @Security BearerAuth
// @Param search query string false "Substring match on enteredBy, membershipCode or serviceAttendance"
// @Param service query string false "Service filter, or All Services"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /responses [get]
func (h *ResponseHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ResponseFilter
	filter.Search = c.Query("search")
	filter.Service = strings.TrimSpace(c.Query("service"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.pageSize))); err == nil {
		filter.PageSize = size
	}

	items, pagination, err := h.responses.List(c.Request.Context(), claims.Role, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one response with its audit trail
// @Tags Responses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Response ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /responses/{id} [get]
func (h *ResponseHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resp, err := h.responses.Get(c.Request.Context(), claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Create godoc
// @Summary Submit a new survey response
// @Tags Responses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body survey.Form true "Five-section form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /responses [post]
func (h *ResponseHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var form survey.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.responses.Create(c.Request.Context(), claims.Username, claims.Role, &form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Update godoc
// @Summary Replace a survey response
// @Tags Responses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Response ID"
// @Param payload body survey.Form true "Five-section form"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /responses/{id} [put]
func (h *ResponseHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var form survey.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.responses.Update(c.Request.Context(), claims.Username, claims.Role, c.Param("id"), &form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Delete godoc
// @Summary Delete a survey response
// @Tags Responses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Response ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /responses/{id} [delete]
func (h *ResponseHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.responses.Delete(c.Request.Context(), claims.Username, claims.Role, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ValidateSection godoc
// @Summary Validate one form section without saving
// @Tags Responses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param section query string true "Section name (A-E)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /responses/validate [post]
func (h *ResponseHandler) ValidateSection(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "failed to read payload"))
		return
	}
	details, err := h.responses.ValidateSection(c.Query("section"), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"valid": len(details) == 0, "errors": details}, nil)
}
