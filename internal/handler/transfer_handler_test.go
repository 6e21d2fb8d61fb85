package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccc-church/evaluation-api/internal/dto"
	"github.com/ccc-church/evaluation-api/internal/middleware"
	"github.com/ccc-church/evaluation-api/internal/models"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

type fakeTransferSrv struct {
	payload      *dto.BackupPayload
	csvBody      []byte
	formatErr    error
	importResult *dto.ImportResult
	importErr    error
	lastImport   struct {
		filename string
		size     int64
		mode     string
	}
	purgeResult *dto.PurgeResult
	purgeErr    error
	lastPurge   dto.PurgeRequest
}

func (f *fakeTransferSrv) BackupJSON(context.Context, models.UserRole) (*dto.BackupPayload, string, error) {
	return f.payload, "ccc-backup-2026-08-28.json", nil
}

func (f *fakeTransferSrv) BackupCSV(context.Context, models.UserRole) ([]byte, string, error) {
	return f.csvBody, "ccc-backup-2026-08-28.csv", nil
}

func (f *fakeTransferSrv) ValidateBackupFormat(format string) (string, error) {
	if f.formatErr != nil {
		return "", f.formatErr
	}
	if format == "" {
		return "json", nil
	}
	return format, nil
}

func (f *fakeTransferSrv) Import(_ context.Context, _ models.UserRole, filename string, size int64, _ io.Reader, mode string) (*dto.ImportResult, error) {
	f.lastImport.filename = filename
	f.lastImport.size = size
	f.lastImport.mode = mode
	return f.importResult, f.importErr
}

func (f *fakeTransferSrv) ExportCSV(context.Context, models.UserRole, models.ExportFilter) ([]byte, string, error) {
	return f.csvBody, "ccc-responses-2026-08-28.csv", nil
}

func (f *fakeTransferSrv) ExportPDF(context.Context, models.UserRole, models.StatsSummary, []models.NameCount) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "ccc-summary-2026-08-28.pdf", nil
}

func (f *fakeTransferSrv) Purge(_ context.Context, _ models.UserRole, _ string, req dto.PurgeRequest) (*dto.PurgeResult, error) {
	f.lastPurge = req
	return f.purgeResult, f.purgeErr
}

func TestTransferHandlerBackupJSONHeaders(t *testing.T) {
	srv := &fakeTransferSrv{
		payload: &dto.BackupPayload{
			Metadata: dto.BackupMetadata{
				BackupDate:   time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
				TotalRecords: 3,
				AppVersion:   "1.0.0",
				Format:       "json",
			},
		},
	}
	h := NewTransferHandler(srv, &fakeReportSrv{})

	c, rec := adminContext(t, "/admin/backup")
	h.Backup(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ccc-backup-2026-08-28.json")
	assert.Equal(t, "3", rec.Header().Get("X-Total-Responses"))
	assert.Contains(t, rec.Body.String(), "\"totalRecords\": 3")
}

func TestTransferHandlerBackupCSV(t *testing.T) {
	srv := &fakeTransferSrv{csvBody: []byte("id,createdAt\nr1,2026-08-28\n")}
	h := NewTransferHandler(srv, &fakeReportSrv{})

	c, rec := adminContext(t, "/admin/backup?format=csv")
	h.Backup(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
}

func TestTransferHandlerBackupRejectsBadFormat(t *testing.T) {
	srv := &fakeTransferSrv{formatErr: appErrors.Clone(appErrors.ErrBadRequest, "SQL dump format is not supported. Please use JSON or CSV.")}
	h := NewTransferHandler(srv, &fakeReportSrv{})

	c, rec := adminContext(t, "/admin/backup?format=sql")
	h.Backup(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferHandlerImport(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "backup.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(`[]`))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("mode", "replace"))
	require.NoError(t, writer.Close())

	srv := &fakeTransferSrv{importResult: &dto.ImportResult{Mode: "replace", ImportedCount: 2}}
	h := NewTransferHandler(srv, &fakeReportSrv{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/import", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin})

	h.Import(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "backup.json", srv.lastImport.filename)
	assert.Equal(t, "replace", srv.lastImport.mode)
	assert.Contains(t, rec.Body.String(), "\"importedCount\":2")
}

func TestTransferHandlerImportRequiresFile(t *testing.T) {
	h := NewTransferHandler(&fakeTransferSrv{}, &fakeReportSrv{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/import", strings.NewReader(""))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin})

	h.Import(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no backup file uploaded")
}

func TestTransferHandlerExportPDF(t *testing.T) {
	reports := &fakeReportSrv{
		stats:   &models.StatsSummary{Total: 5},
		quality: &dto.ServiceQualityReport{OverallRating: []models.NameCount{{Name: "Excellent", Value: 4}}},
	}
	h := NewTransferHandler(&fakeTransferSrv{}, reports)

	c, rec := adminContext(t, "/admin/export/pdf")
	h.ExportPDF(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestTransferHandlerPurge(t *testing.T) {
	srv := &fakeTransferSrv{purgeResult: &dto.PurgeResult{DeletedCount: 42}}
	h := NewTransferHandler(srv, &fakeReportSrv{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/purge", strings.NewReader(`{"confirmText":"DELETE ALL","password":"s3cret"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin})

	h.Purge(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DELETE ALL", srv.lastPurge.Confirmation)
	assert.Contains(t, rec.Body.String(), "\"deletedCount\":42")
}

func TestTransferHandlerPurgeWrongPassword(t *testing.T) {
	srv := &fakeTransferSrv{purgeErr: appErrors.Clone(appErrors.ErrUnauthorized, "password verification failed")}
	h := NewTransferHandler(srv, &fakeReportSrv{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/purge", strings.NewReader(`{"confirmText":"DELETE ALL","password":"wrong"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "admin", Role: models.RoleAdmin})

	h.Purge(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
