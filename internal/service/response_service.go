package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ccc-church/evaluation-api/internal/models"
	"github.com/ccc-church/evaluation-api/internal/survey"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

type responseRepository interface {
	Create(ctx context.Context, resp *models.Response) error
	FindByID(ctx context.Context, id string) (*models.Response, error)
	ExistsByMembershipCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filter models.ResponseFilter) ([]models.ResponseListItem, int, error)
	Update(ctx context.Context, resp *models.Response) error
	Delete(ctx context.Context, id string) error
}

// ResponseService owns the survey response lifecycle: validation,
// membership code uniqueness, the edit audit trail, and cache
// invalidation on every write.
type ResponseService struct {
	repo       responseRepository
	cache      *CacheService
	authorizer *Authorizer
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewResponseService constructs a ResponseService.
func NewResponseService(repo responseRepository, cache *CacheService, authorizer *Authorizer, validate *validator.Validate, logger *zap.Logger) *ResponseService {
	if validate == nil {
		validate = survey.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if authorizer == nil {
		authorizer = NewAuthorizer()
	}
	return &ResponseService{
		repo:       repo,
		cache:      cache,
		authorizer: authorizer,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Create validates and stores a new response entered by actor.
func (s *ResponseService) Create(ctx context.Context, actor string, role models.UserRole, form *survey.Form) (*models.Response, error) {
	if err := s.authorizer.Allow(role, ActionCreate, ResourceResponses); err != nil {
		return nil, err
	}
	if details := survey.ValidateForm(s.validator, form); len(details) > 0 {
		return nil, appErrors.Validation("invalid survey submission", details)
	}

	resp := form.ToResponse(actor, s.now().UTC())
	scrubMembershipCode(&resp)
	if err := s.ensureUniqueMembershipCode(ctx, &resp); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &resp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store response")
	}

	s.invalidate(ctx)
	s.logger.Info("response created", zap.String("id", resp.ID), zap.String("entered_by", actor))
	return &resp, nil
}

// Get returns one response with its full audit trail.
func (s *ResponseService) Get(ctx context.Context, role models.UserRole, id string) (*models.Response, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceResponses); err != nil {
		return nil, err
	}
	resp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "response not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load response")
	}
	return resp, nil
}

// List returns a page of the listing projection.
func (s *ResponseService) List(ctx context.Context, role models.UserRole, filter models.ResponseFilter) ([]models.ResponseListItem, *models.Pagination, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceResponses); err != nil {
		return nil, nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 50
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list responses")
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}
	return items, pagination, nil
}

// Update replaces every section of an existing response and appends
// the actor to its edit history.
func (s *ResponseService) Update(ctx context.Context, actor string, role models.UserRole, id string, form *survey.Form) (*models.Response, error) {
	if err := s.authorizer.Allow(role, ActionUpdate, ResourceResponses); err != nil {
		return nil, err
	}
	if details := survey.ValidateForm(s.validator, form); len(details) > 0 {
		return nil, appErrors.Validation("invalid survey submission", details)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "response not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load response")
	}

	editedAt := s.now().UTC()
	updated := form.ToResponse(existing.EnteredBy, existing.CreatedAt)
	updated.ID = existing.ID
	updated.UpdatedAt = editedAt
	updated.LastEditedBy = &actor
	updated.LastEditedAt = &editedAt
	updated.EditHistory = existing.EditHistory.Append(actor, editedAt)

	// Codes are only checked for duplicates when a response is first
	// created; edits keep whatever code the form carries.
	scrubMembershipCode(&updated)

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "response not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update response")
	}

	s.invalidate(ctx)
	s.logger.Info("response updated", zap.String("id", id), zap.String("edited_by", actor))
	return &updated, nil
}

// Delete removes a response. Admins delete anything; volunteers only
// entries they entered themselves.
func (s *ResponseService) Delete(ctx context.Context, actor string, role models.UserRole, id string) error {
	if err := s.authorizer.Allow(role, ActionDelete, ResourceResponses); err != nil {
		return err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "response not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load response")
	}
	if err := s.authorizer.AllowOwned(role, actor, existing.EnteredBy, ActionDelete, ResourceResponses); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "response not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete response")
	}
	s.invalidate(ctx)
	s.logger.Info("response deleted", zap.String("id", id), zap.String("deleted_by", actor))
	return nil
}

// ValidateSection checks a single section payload without persisting.
func (s *ResponseService) ValidateSection(section string, raw []byte) ([]appErrors.FieldError, error) {
	return survey.ValidateSection(s.validator, section, raw)
}

// scrubMembershipCode drops the code for non-members.
func scrubMembershipCode(resp *models.Response) {
	if !resp.IsMember {
		resp.MembershipCode = nil
	}
}

// ensureUniqueMembershipCode rejects a new response whose code is
// already taken.
func (s *ResponseService) ensureUniqueMembershipCode(ctx context.Context, resp *models.Response) error {
	if resp.MembershipCode == nil || *resp.MembershipCode == "" {
		return nil
	}
	taken, err := s.repo.ExistsByMembershipCode(ctx, *resp.MembershipCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership code")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "a response with this membership code already exists")
	}
	return nil
}

func (s *ResponseService) invalidate(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}
