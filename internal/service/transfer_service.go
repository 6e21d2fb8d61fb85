package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccc-church/evaluation-api/internal/dto"
	"github.com/ccc-church/evaluation-api/internal/models"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
	"github.com/ccc-church/evaluation-api/pkg/export"
)

// backupColumns mirrors the stored record, in form order. The CSV
// backup always carries every column so archives round-trip.
var backupColumns = []string{
	"id", "createdAt", "updatedAt", "enteredBy",
	"ageGroup", "gender", "serviceAttendance", "isMember", "membershipCode", "isRegularVisitor", "hasChildren", "childrenDepartments",
	"overallRating", "transitionSmooth", "enjoyMost", "improveAspects", "timesConvenient", "timeSuggestions",
	"departmentsInvolved", "departmentActivity", "departmentEffectiveness", "departmentImprovements",
	"ministriesServing", "ministryTeamwork", "ministrySupport", "ministryImprovements",
	"spiritualAtmosphere", "exceptionalAreas", "urgentImprovements", "additionalThoughts",
	"lastEditedBy", "lastEditedAt", "editHistory",
}

// exportColumns carries the human-readable labels the filtered export
// uses. Backups keep the raw field names; this download is meant for
// spreadsheets.
var exportColumns = []string{
	"Response ID", "Date Submitted", "Entered By",
	"Age Group", "Gender", "Service", "Member Status", "Membership Code", "Regular Visitor", "Has Children", "Children Departments",
	"Overall Rating", "Transition Smooth", "Enjoy Most", "Constructive Feedback", "Time Convenient", "Time Suggestions",
	"Departments Involved", "Dept Activity", "Dept Effectiveness", "Dept Improvements",
	"Ministries Serving", "Ministry Teamwork", "Ministry Support", "Ministry Improvements",
	"Spiritual Atmosphere", "Exceptional Areas", "Urgent Improvements", "Additional Thoughts",
}

type transferRepository interface {
	All(ctx context.Context) ([]models.Response, error)
	Filtered(ctx context.Context, filter models.ExportFilter) ([]models.Response, error)
	BulkInsert(ctx context.Context, responses []models.Response, skipConflicts bool) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

type passwordVerifier interface {
	VerifyPassword(ctx context.Context, username, password string) error
}

// TransferConfig bounds bulk transfer operations.
type TransferConfig struct {
	AppVersion    string
	MaxImportSize int64
}

// TransferService owns bulk data movement: backups, imports, filtered
// exports, and the password-gated purge.
type TransferService struct {
	repo       transferRepository
	verifier   passwordVerifier
	cache      *CacheService
	authorizer *Authorizer
	validator  *validator.Validate
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
	config     TransferConfig
	now        func() time.Time
}

// NewTransferService constructs a TransferService.
func NewTransferService(repo transferRepository, verifier passwordVerifier, cache *CacheService, authorizer *Authorizer, validate *validator.Validate, logger *zap.Logger, config TransferConfig) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if authorizer == nil {
		authorizer = NewAuthorizer()
	}
	if config.MaxImportSize <= 0 {
		config.MaxImportSize = 50 * 1024 * 1024
	}
	if config.AppVersion == "" {
		config.AppVersion = "1.0.0"
	}
	return &TransferService{
		repo:       repo,
		verifier:   verifier,
		cache:      cache,
		authorizer: authorizer,
		validator:  validate,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
		config:     config,
		now:        time.Now,
	}
}

// BackupJSON returns the full archive payload and its download name.
func (s *TransferService) BackupJSON(ctx context.Context, role models.UserRole) (*dto.BackupPayload, string, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceTransfer); err != nil {
		return nil, "", err
	}
	responses, err := s.repo.All(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	now := s.now().UTC()
	payload := &dto.BackupPayload{
		Metadata: dto.BackupMetadata{
			BackupDate:   now,
			TotalRecords: len(responses),
			AppVersion:   s.config.AppVersion,
			Format:       "json",
		},
		Responses: responses,
	}
	return payload, s.backupFilename(now, "json"), nil
}

// BackupCSV renders the full archive as CSV and returns its download name.
func (s *TransferService) BackupCSV(ctx context.Context, role models.UserRole) ([]byte, string, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceTransfer); err != nil {
		return nil, "", err
	}
	responses, err := s.repo.All(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	body, err := s.renderCSV(responses)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render backup")
	}
	return body, s.backupFilename(s.now().UTC(), "csv"), nil
}

// ValidateBackupFormat rejects formats the store cannot produce. SQL
// dumps are database-specific and deliberately unsupported.
func (s *TransferService) ValidateBackupFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == "" {
		normalized = "json"
	}
	switch normalized {
	case "json", "csv":
		return normalized, nil
	case "sql":
		return "", appErrors.Clone(appErrors.ErrBadRequest, "SQL dump format is not supported. Please use JSON or CSV.")
	default:
		return "", appErrors.Clone(appErrors.ErrBadRequest, "invalid format, use json or csv")
	}
}

// Import loads a JSON backup archive. Add mode keeps existing rows and
// skips id collisions; replace mode empties the store first.
func (s *TransferService) Import(ctx context.Context, role models.UserRole, filename string, size int64, file io.Reader, mode string) (*dto.ImportResult, error) {
	if err := s.authorizer.Allow(role, ActionCreate, ResourceTransfer); err != nil {
		return nil, err
	}
	if mode == "" {
		mode = dto.ImportModeAdd
	}
	if mode != dto.ImportModeAdd && mode != dto.ImportModeReplace {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "invalid import mode, use add or replace")
	}
	if size > s.config.MaxImportSize {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "file too large, maximum size is 50MB")
	}

	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "json":
	case "csv", "sql":
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "only JSON backups can be imported, please export using JSON")
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "unsupported file type, use a .json backup")
	}

	raw, err := io.ReadAll(io.LimitReader(file, s.config.MaxImportSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	if int64(len(raw)) > s.config.MaxImportSize {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "file too large, maximum size is 50MB")
	}

	records, err := decodeBackup(raw)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "backup file contains no records to import")
	}

	now := s.now().UTC()
	for i := range records {
		sanitizeRecord(&records[i], now)
	}

	result := &dto.ImportResult{Mode: mode}
	if mode == dto.ImportModeReplace {
		deleted, err := s.repo.DeleteAll(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing responses")
		}
		result.DeletedCount = deleted
	}

	inserted, err := s.repo.BulkInsert(ctx, records, true)
	if err != nil {
		s.invalidate(ctx)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import responses")
	}
	result.ImportedCount = inserted
	result.SkippedCount = len(records) - inserted

	s.invalidate(ctx)
	s.logger.Info("import completed",
		zap.String("mode", mode),
		zap.Int("imported", result.ImportedCount),
		zap.Int("skipped", result.SkippedCount))
	return result, nil
}

// ExportCSV renders a filtered CSV download for offline analysis.
func (s *TransferService) ExportCSV(ctx context.Context, role models.UserRole, filter models.ExportFilter) ([]byte, string, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceTransfer); err != nil {
		return nil, "", err
	}
	responses, err := s.repo.Filtered(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	rows := make([]map[string]string, 0, len(responses))
	for i := range responses {
		rows = append(rows, exportRow(&responses[i]))
	}
	body, err := s.csv.Render(export.Dataset{Headers: exportColumns, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	name := fmt.Sprintf("ccc-responses-%s.csv", s.now().UTC().Format("2006-01-02"))
	return body, name, nil
}

// ExportPDF renders a one-page summary report.
func (s *TransferService) ExportPDF(ctx context.Context, role models.UserRole, stats models.StatsSummary, ratings []models.NameCount) ([]byte, string, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceTransfer); err != nil {
		return nil, "", err
	}

	rows := []map[string]string{
		{"Metric": "Total responses", "Value": fmt.Sprintf("%d", stats.Total)},
		{"Metric": "Responses today", "Value": fmt.Sprintf("%d", stats.Today)},
		{"Metric": "Responses this week", "Value": fmt.Sprintf("%d", stats.ThisWeek)},
		{"Metric": "Active volunteers", "Value": fmt.Sprintf("%d", stats.ActiveUsers)},
	}
	for _, r := range ratings {
		rows = append(rows, map[string]string{
			"Metric": "Overall rating: " + r.Name,
			"Value":  fmt.Sprintf("%d", r.Value),
		})
	}

	body, err := s.pdf.Render(export.Dataset{Headers: []string{"Metric", "Value"}, Rows: rows}, "Congregation Evaluation Summary")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render summary")
	}
	name := fmt.Sprintf("ccc-summary-%s.pdf", s.now().UTC().Format("2006-01-02"))
	return body, name, nil
}

// Purge deletes every response. It demands the confirmation phrase and
// a fresh password check against the calling admin's account.
func (s *TransferService) Purge(ctx context.Context, role models.UserRole, username string, req dto.PurgeRequest) (*dto.PurgeResult, error) {
	if err := s.authorizer.Allow(role, ActionDelete, ResourceTransfer); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid purge payload")
	}
	if req.Confirmation != dto.PurgeConfirmationPhrase {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, `invalid confirmation phrase, type "DELETE ALL" to confirm`)
	}
	if err := s.verifier.VerifyPassword(ctx, username, req.Password); err != nil {
		return nil, err
	}

	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge responses")
	}

	s.invalidate(ctx)
	s.logger.Warn("response store purged", zap.String("by", username), zap.Int("deleted", deleted))
	return &dto.PurgeResult{DeletedCount: deleted, PurgedAt: s.now().UTC()}, nil
}

func (s *TransferService) backupFilename(now time.Time, ext string) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(now.Format("2006-01-02T15:04:05.000Z"))
	return fmt.Sprintf("ccc-backup-%s.%s", stamp, ext)
}

func (s *TransferService) renderCSV(responses []models.Response) ([]byte, error) {
	rows := make([]map[string]string, 0, len(responses))
	for i := range responses {
		rows = append(rows, backupRow(&responses[i]))
	}
	return s.csv.Render(export.Dataset{Headers: backupColumns, Rows: rows})
}

func (s *TransferService) invalidate(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

// decodeBackup accepts either a bare array of responses or the full
// backup payload shape.
func decodeBackup(raw []byte) ([]models.Response, error) {
	var records []models.Response
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}
	var payload dto.BackupPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Responses == nil {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "backup format not recognized, expected an array or { responses: [...] }")
	}
	return payload.Responses, nil
}

// sanitizeRecord fills the provenance fields an archive might omit.
// Missing ids are regenerated so hand-edited backups still import.
func sanitizeRecord(r *models.Response, now time.Time) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	if r.EnteredBy == "" {
		r.EnteredBy = "import"
	}
	if !r.IsMember {
		r.MembershipCode = nil
	}
}

func backupRow(r *models.Response) map[string]string {
	history := ""
	if r.EditHistory != nil {
		if raw, err := json.Marshal(r.EditHistory); err == nil {
			history = string(raw)
		}
	}
	return map[string]string{
		"id":                  r.ID,
		"createdAt":           r.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":           r.UpdatedAt.UTC().Format(time.RFC3339),
		"enteredBy":           r.EnteredBy,
		"ageGroup":            r.AgeGroup,
		"gender":              r.Gender,
		"serviceAttendance":   r.ServiceAttendance,
		"isMember":            fmt.Sprintf("%t", r.IsMember),
		"membershipCode":      stringOrEmpty(r.MembershipCode),
		"isRegularVisitor":    boolOrEmpty(r.IsRegularVisitor),
		"hasChildren":         fmt.Sprintf("%t", r.HasChildren),
		"childrenDepartments": r.ChildrenDepartments,
		"overallRating":       r.OverallRating,
		"transitionSmooth":    r.TransitionSmooth,
		"enjoyMost":           r.EnjoyMost,
		"improveAspects":      r.ImproveAspects,
		"timesConvenient":     fmt.Sprintf("%t", r.TimesConvenient),
		"timeSuggestions":     stringOrEmpty(r.TimeSuggestions),

		"departmentsInvolved":     r.DepartmentsInvolved,
		"departmentActivity":      r.DepartmentActivity,
		"departmentEffectiveness": r.DepartmentEffectiveness,
		"departmentImprovements":  r.DepartmentImprovements,
		"ministriesServing":       r.MinistriesServing,
		"ministryTeamwork":        r.MinistryTeamwork,
		"ministrySupport":         r.MinistrySupport,
		"ministryImprovements":    r.MinistryImprovements,
		"spiritualAtmosphere":     r.SpiritualAtmosphere,
		"exceptionalAreas":        r.ExceptionalAreas,
		"urgentImprovements":      r.UrgentImprovements,
		"additionalThoughts":      r.AdditionalThoughts,

		"lastEditedBy": stringOrEmpty(r.LastEditedBy),
		"lastEditedAt": timeOrEmpty(r.LastEditedAt),
		"editHistory":  history,
	}
}

// exportRow formats a response the way an analyst wants to read it:
// booleans become Yes/No, empty optionals become N/A.
func exportRow(r *models.Response) map[string]string {
	memberStatus := "Visitor"
	if r.IsMember {
		memberStatus = "Member"
	}
	membershipCode := stringOrEmpty(r.MembershipCode)
	if membershipCode == "" {
		membershipCode = "N/A"
	}
	timeSuggestions := stringOrEmpty(r.TimeSuggestions)
	if timeSuggestions == "" {
		timeSuggestions = "N/A"
	}
	return map[string]string{
		"Response ID":          r.ID,
		"Date Submitted":       r.CreatedAt.UTC().Format(time.RFC3339),
		"Entered By":           r.EnteredBy,
		"Age Group":            r.AgeGroup,
		"Gender":               r.Gender,
		"Service":              r.ServiceAttendance,
		"Member Status":        memberStatus,
		"Membership Code":      membershipCode,
		"Regular Visitor":      yesNo(r.IsRegularVisitor != nil && *r.IsRegularVisitor),
		"Has Children":         yesNo(r.HasChildren),
		"Children Departments": r.ChildrenDepartments,

		"Overall Rating":        r.OverallRating,
		"Transition Smooth":     r.TransitionSmooth,
		"Enjoy Most":            r.EnjoyMost,
		"Constructive Feedback": r.ImproveAspects,
		"Time Convenient":       yesNo(r.TimesConvenient),
		"Time Suggestions":      timeSuggestions,

		"Departments Involved": r.DepartmentsInvolved,
		"Dept Activity":        r.DepartmentActivity,
		"Dept Effectiveness":   r.DepartmentEffectiveness,
		"Dept Improvements":    r.DepartmentImprovements,

		"Ministries Serving":    r.MinistriesServing,
		"Ministry Teamwork":     r.MinistryTeamwork,
		"Ministry Support":      r.MinistrySupport,
		"Ministry Improvements": r.MinistryImprovements,

		"Spiritual Atmosphere": r.SpiritualAtmosphere,
		"Exceptional Areas":    r.ExceptionalAreas,
		"Urgent Improvements":  r.UrgentImprovements,
		"Additional Thoughts":  r.AdditionalThoughts,
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func boolOrEmpty(v *bool) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%t", *v)
}

func timeOrEmpty(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
