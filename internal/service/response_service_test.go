package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ccc-church/evaluation-api/internal/models"
	"github.com/ccc-church/evaluation-api/internal/repository"
	"github.com/ccc-church/evaluation-api/internal/survey"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

type mockResponseRepo struct {
	responses map[string]models.Response
	codes     map[string]string
	listItems []models.ResponseListItem
	listTotal int
	deleted   []string
}

func newMockResponseRepo() *mockResponseRepo {
	return &mockResponseRepo{responses: map[string]models.Response{}, codes: map[string]string{}}
}

func (m *mockResponseRepo) Create(ctx context.Context, resp *models.Response) error {
	if resp.ID == "" {
		resp.ID = "generated"
	}
	m.responses[resp.ID] = *resp
	if resp.MembershipCode != nil {
		m.codes[*resp.MembershipCode] = resp.ID
	}
	return nil
}

func (m *mockResponseRepo) FindByID(ctx context.Context, id string) (*models.Response, error) {
	if r, ok := m.responses[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResponseRepo) ExistsByMembershipCode(ctx context.Context, code string) (bool, error) {
	_, ok := m.codes[code]
	return ok, nil
}

func (m *mockResponseRepo) List(ctx context.Context, filter models.ResponseFilter) ([]models.ResponseListItem, int, error) {
	return m.listItems, m.listTotal, nil
}

func (m *mockResponseRepo) Update(ctx context.Context, resp *models.Response) error {
	if _, ok := m.responses[resp.ID]; !ok {
		return sql.ErrNoRows
	}
	m.responses[resp.ID] = *resp
	return nil
}

func (m *mockResponseRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.responses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.responses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func testForm() *survey.Form {
	return &survey.Form{
		SectionA: survey.SectionA{
			AgeGroup:          "25-34",
			Gender:            "Female",
			ServiceAttendance: []string{survey.ServiceFirst},
			IsMember:          "Yes",
			MembershipCode:    "CCC-0042",
			HasChildren:       "No",
		},
		SectionB: survey.SectionB{
			OverallRating:    "Excellent",
			TransitionSmooth: "Yes",
			EnjoyMost:        "The worship",
			ImproveAspects:   "Parking",
			TimesConvenient:  "Yes",
		},
		SectionC: survey.SectionC{
			DepartmentsInvolved:     "Choir",
			DepartmentActivity:      "Active",
			DepartmentEffectiveness: "Good",
			DepartmentImprovements:  "More rehearsals",
		},
		SectionD: survey.SectionD{
			MinistriesServing:    "Ushering",
			MinistryTeamwork:     "Good",
			MinistrySupport:      "Yes",
			MinistryImprovements: "Communication",
		},
		SectionE: survey.SectionE{
			SpiritualAtmosphere: "Vibrant",
			ExceptionalAreas:    "Worship",
			UrgentImprovements:  "Sound",
			AdditionalThoughts:  "Keep it up",
		},
	}
}

func newTestCache() (*CacheService, *repository.MemoryCacheRepository) {
	repo := repository.NewMemoryCacheRepository()
	return NewCacheService(repo, nil, time.Minute, zap.NewNop(), true), repo
}

func newResponseService(repo *mockResponseRepo, cache *CacheService) *ResponseService {
	return NewResponseService(repo, cache, NewAuthorizer(), survey.NewValidator(), zap.NewNop())
}

func TestResponseServiceCreate(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	resp, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, testForm())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "mary", resp.EnteredBy)
	assert.Empty(t, resp.EditHistory)
	assert.Len(t, repo.responses, 1)
}

func TestResponseServiceCreateDuplicateCode(t *testing.T) {
	repo := newMockResponseRepo()
	repo.codes["CCC-0042"] = "other"
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	_, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, testForm())
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	assert.Empty(t, repo.responses)
}

func TestResponseServiceCreateNonMemberDropsCode(t *testing.T) {
	repo := newMockResponseRepo()
	repo.codes["CCC-0042"] = "other"
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	form := testForm()
	form.IsMember = "No"

	resp, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, form)
	require.NoError(t, err)
	assert.Nil(t, resp.MembershipCode)
	assert.False(t, resp.IsMember)
}

func TestResponseServiceCreateValidationDetails(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	form := testForm()
	form.OverallRating = ""
	form.Gender = "Unknown"

	_, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, form)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Len(t, appErr.Details, 2)
}

func TestResponseServiceCreateClearsReportCache(t *testing.T) {
	repo := newMockResponseRepo()
	cache, cacheRepo := newTestCache()
	svc := newResponseService(repo, cache)

	ctx := context.Background()
	require.NoError(t, cacheRepo.Set(ctx, CacheKeyDemographics, "stale", time.Minute))

	_, err := svc.Create(ctx, "mary", models.RoleVolunteer, testForm())
	require.NoError(t, err)

	var out string
	assert.ErrorIs(t, cacheRepo.Get(ctx, CacheKeyDemographics, &out), appErrors.ErrCacheMiss)
}

func TestResponseServiceUpdateAppendsHistory(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	created, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, testForm())
	require.NoError(t, err)

	form := testForm()
	form.OverallRating = "Good"

	updated, err := svc.Update(context.Background(), "john", models.RoleAdmin, created.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "Good", updated.OverallRating)
	assert.Equal(t, "mary", updated.EnteredBy)
	require.NotNil(t, updated.LastEditedBy)
	assert.Equal(t, "john", *updated.LastEditedBy)
	require.Len(t, updated.EditHistory, 1)
	assert.Equal(t, "john", updated.EditHistory[0].Username)

	// a second edit grows the trail
	again, err := svc.Update(context.Background(), "ruth", models.RoleVolunteer, created.ID, form)
	require.NoError(t, err)
	require.Len(t, again.EditHistory, 2)
	assert.Equal(t, "john", again.EditHistory[0].Username)
	assert.Equal(t, "ruth", again.EditHistory[1].Username)
}

func TestResponseServiceUpdateAllowsDuplicateCode(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	created, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, testForm())
	require.NoError(t, err)
	repo.codes["CCC-0099"] = "other"

	form := testForm()
	form.MembershipCode = "CCC-0099"

	updated, err := svc.Update(context.Background(), "john", models.RoleAdmin, created.ID, form)
	require.NoError(t, err)
	require.NotNil(t, updated.MembershipCode)
	assert.Equal(t, "CCC-0099", *updated.MembershipCode)
}

func TestResponseServiceUpdateNotFound(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	_, err := svc.Update(context.Background(), "john", models.RoleAdmin, "missing", testForm())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestResponseServiceDeleteRoles(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	created, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, testForm())
	require.NoError(t, err)

	// volunteers cannot delete entries someone else entered
	err = svc.Delete(context.Background(), "ruth", models.RoleVolunteer, created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.Len(t, repo.responses, 1)

	// admins delete anything
	require.NoError(t, svc.Delete(context.Background(), "admin", models.RoleAdmin, created.ID))
	assert.Empty(t, repo.responses)
}

func TestResponseServiceVolunteerDeletesOwn(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	created, err := svc.Create(context.Background(), "mary", models.RoleVolunteer, testForm())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "mary", models.RoleVolunteer, created.ID))
	assert.Empty(t, repo.responses)
}

func TestResponseServiceDeleteMissing(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	err := svc.Delete(context.Background(), "admin", models.RoleAdmin, "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestResponseServiceListPagination(t *testing.T) {
	repo := newMockResponseRepo()
	repo.listItems = []models.ResponseListItem{{ID: "r1"}}
	repo.listTotal = 101
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	items, pagination, err := svc.List(context.Background(), models.RoleVolunteer, models.ResponseFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 101, pagination.TotalCount)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestResponseServiceGetNotFound(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	_, err := svc.Get(context.Background(), models.RoleAdmin, "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestResponseServiceValidateSection(t *testing.T) {
	repo := newMockResponseRepo()
	cache, _ := newTestCache()
	svc := newResponseService(repo, cache)

	details, err := svc.ValidateSection("A", []byte(`{"gender":"Neither"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, details)
}
