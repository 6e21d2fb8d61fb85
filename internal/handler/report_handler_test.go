package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ccc-church/evaluation-api/internal/dto"
	"github.com/ccc-church/evaluation-api/internal/middleware"
	"github.com/ccc-church/evaluation-api/internal/models"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

type fakeReportSrv struct {
	stats        *models.StatsSummary
	statsHit     bool
	demographics *dto.DemographicsReport
	quality      *dto.ServiceQualityReport
	err          error
}

func (f *fakeReportSrv) Stats(context.Context, models.UserRole) (*models.StatsSummary, bool, error) {
	return f.stats, f.statsHit, f.err
}

func (f *fakeReportSrv) Demographics(context.Context, models.UserRole) (*dto.DemographicsReport, bool, error) {
	return f.demographics, false, f.err
}

func (f *fakeReportSrv) ServiceQuality(context.Context, models.UserRole) (*dto.ServiceQualityReport, bool, error) {
	return f.quality, false, f.err
}

func (f *fakeReportSrv) Departments(context.Context, models.UserRole) (*dto.DepartmentsReport, bool, error) {
	return nil, false, f.err
}

func (f *fakeReportSrv) Ministries(context.Context, models.UserRole) (*dto.MinistriesReport, bool, error) {
	return nil, false, f.err
}

func (f *fakeReportSrv) OverallHealth(context.Context, models.UserRole) (*dto.OverallHealthReport, bool, error) {
	return nil, false, f.err
}

func (f *fakeReportSrv) Combined(context.Context, models.UserRole) (*dto.CombinedReport, bool, error) {
	return nil, false, f.err
}

func adminContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin})
	return c, rec
}

func TestReportHandlerStatsMarksCacheHit(t *testing.T) {
	h := NewReportHandler(&fakeReportSrv{
		stats:    &models.StatsSummary{Total: 12, Today: 3, ThisWeek: 7, ActiveUsers: 2},
		statsHit: true,
	})

	c, rec := adminContext(t, "/responses/stats")
	h.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.StatsSummary    `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 12, envelope.Data.Total)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestReportHandlerDemographics(t *testing.T) {
	h := NewReportHandler(&fakeReportSrv{
		demographics: &dto.DemographicsReport{
			Gender: []models.NameCount{{Name: "Female", Value: 8}},
		},
	})

	c, rec := adminContext(t, "/admin/demographics")
	h.Demographics(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Female")
}

func TestReportHandlerForbiddenPassesThrough(t *testing.T) {
	h := NewReportHandler(&fakeReportSrv{err: appErrors.ErrForbidden})

	c, rec := adminContext(t, "/admin/reports")
	h.Combined(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReportHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/ministries", nil)

	NewReportHandler(&fakeReportSrv{}).Ministries(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
