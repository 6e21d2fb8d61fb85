package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ccc-church/evaluation-api/internal/dto"
	"github.com/ccc-church/evaluation-api/internal/models"
	"github.com/ccc-church/evaluation-api/internal/survey"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

// stopWords are excluded from free-text keyword extraction. Domain
// words like "church" and "service" appear in nearly every answer and
// would drown out everything useful.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "a": {}, "to": {}, "of": {}, "in": {}, "i": {}, "is": {}, "that": {},
	"it": {}, "for": {}, "you": {}, "was": {}, "with": {}, "on": {}, "as": {}, "have": {},
	"but": {}, "be": {}, "they": {}, "are": {}, "this": {}, "not": {}, "at": {}, "my": {},
	"we": {}, "so": {}, "all": {}, "by": {}, "or": {}, "an": {}, "very": {}, "really": {},
	"just": {}, "more": {}, "me": {}, "do": {}, "can": {}, "if": {}, "your": {}, "from": {},
	"would": {}, "service": {}, "church": {}, "ccc": {}, "god": {}, "services": {},
}

const keywordPunctuation = ".,/#!$%^&*;:{}=-_`~()"

const (
	topDepartmentsLimit = 10
	topKeywordsLimit    = 20
	recentIdeasLimit    = 5
)

type reportRepository interface {
	All(ctx context.Context) ([]models.Response, error)
	GroupCount(ctx context.Context, column string) ([]models.NameCount, error)
	CountAll(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountDistinctEnteredBySince(ctx context.Context, since time.Time) (int, error)
}

// ReportService computes the admin dashboard aggregates. Every payload
// is cached under the reports namespace; response writes clear the
// whole namespace.
type ReportService struct {
	repo       reportRepository
	cache      *CacheService
	authorizer *Authorizer
	metrics    *MetricsService
	logger     *zap.Logger
	statsTTL   time.Duration
	now        func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportRepository, cache *CacheService, authorizer *Authorizer, metrics *MetricsService, statsTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if authorizer == nil {
		authorizer = NewAuthorizer()
	}
	if statsTTL <= 0 {
		statsTTL = 5 * time.Second
	}
	return &ReportService{
		repo:       repo,
		cache:      cache,
		authorizer: authorizer,
		metrics:    metrics,
		logger:     logger,
		statsTTL:   statsTTL,
		now:        time.Now,
	}
}

// Stats returns the dashboard counters. Both roles may read it, and it
// is cached for a few seconds so concurrent dashboards share one
// computation.
func (s *ReportService) Stats(ctx context.Context, role models.UserRole) (*models.StatsSummary, bool, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceResponses); err != nil {
		return nil, false, err
	}

	var cached models.StatsSummary
	if hit, err := s.cache.Get(ctx, CacheKeyStats, &cached); err == nil && hit {
		return &cached, true, nil
	}

	now := s.now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := todayStart.AddDate(0, 0, -7)

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute stats")
	}
	today, err := s.repo.CountCreatedSince(ctx, todayStart)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute stats")
	}
	thisWeek, err := s.repo.CountCreatedSince(ctx, weekStart)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute stats")
	}
	activeUsers, err := s.repo.CountDistinctEnteredBySince(ctx, weekStart)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute stats")
	}

	stats := models.StatsSummary{Total: total, Today: today, ThisWeek: thisWeek, ActiveUsers: activeUsers}
	s.metrics.SetResponsesTotal(total)
	if err := s.cache.Set(ctx, CacheKeyStats, stats, s.statsTTL); err != nil {
		s.logger.Warn("cache stats", zap.Error(err))
	}
	return &stats, false, nil
}

// Demographics aggregates Section A.
func (s *ReportService) Demographics(ctx context.Context, role models.UserRole) (*dto.DemographicsReport, bool, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceReports); err != nil {
		return nil, false, err
	}

	var cached dto.DemographicsReport
	if hit, err := s.cache.Get(ctx, CacheKeyDemographics, &cached); err == nil && hit {
		return &cached, true, nil
	}

	ageGroups, err := s.repo.GroupCount(ctx, "age_group")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate demographics")
	}
	gender, err := s.repo.GroupCount(ctx, "gender")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate demographics")
	}
	responses, err := s.repo.All(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate demographics")
	}

	members, visitors := 0, 0
	attendance := map[string]int{}
	for _, r := range responses {
		if r.IsMember {
			members++
		} else {
			visitors++
		}
		for marker, label := range map[string]string{
			"1st": survey.ServiceFirst,
			"2nd": survey.ServiceSecond,
			"3rd": survey.ServiceThird,
		} {
			if strings.Contains(r.ServiceAttendance, marker) {
				attendance[label]++
			}
		}
	}

	report := dto.DemographicsReport{
		AgeGroups: ageGroups,
		Gender:    gender,
		Membership: []models.NameCount{
			{Name: "Members", Value: members},
			{Name: "Visitors", Value: visitors},
		},
		ServiceAttendance: []models.NameCount{
			{Name: survey.ServiceFirst, Value: attendance[survey.ServiceFirst]},
			{Name: survey.ServiceSecond, Value: attendance[survey.ServiceSecond]},
			{Name: survey.ServiceThird, Value: attendance[survey.ServiceThird]},
		},
	}

	if err := s.cache.Set(ctx, CacheKeyDemographics, report, 0); err != nil {
		s.logger.Warn("cache demographics", zap.Error(err))
	}
	return &report, false, nil
}

// ServiceQuality aggregates Section B.
func (s *ReportService) ServiceQuality(ctx context.Context, role models.UserRole) (*dto.ServiceQualityReport, bool, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceReports); err != nil {
		return nil, false, err
	}

	var cached dto.ServiceQualityReport
	if hit, err := s.cache.Get(ctx, CacheKeyServices, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rating, err := s.repo.GroupCount(ctx, "overall_rating")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate service quality")
	}
	transition, err := s.repo.GroupCount(ctx, "transition_smooth")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate service quality")
	}
	convenient, err := s.repo.GroupCount(ctx, "times_convenient")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate service quality")
	}

	report := dto.ServiceQualityReport{
		OverallRating:    rating,
		TransitionSmooth: transition,
		TimesConvenient:  booleanNames(convenient),
	}

	if err := s.cache.Set(ctx, CacheKeyServices, report, 0); err != nil {
		s.logger.Warn("cache service quality", zap.Error(err))
	}
	return &report, false, nil
}

// Departments aggregates Section C.
func (s *ReportService) Departments(ctx context.Context, role models.UserRole) (*dto.DepartmentsReport, bool, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceReports); err != nil {
		return nil, false, err
	}

	var cached dto.DepartmentsReport
	if hit, err := s.cache.Get(ctx, CacheKeyDepartments, &cached); err == nil && hit {
		return &cached, true, nil
	}

	activity, err := s.repo.GroupCount(ctx, "department_activity")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate departments")
	}
	effectiveness, err := s.repo.GroupCount(ctx, "department_effectiveness")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate departments")
	}
	responses, err := s.repo.All(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate departments")
	}

	names := make([]string, 0, len(responses))
	for _, r := range responses {
		names = append(names, r.DepartmentsInvolved)
	}

	report := dto.DepartmentsReport{
		Activity:       activity,
		Effectiveness:  effectiveness,
		TopDepartments: topNames(names, topDepartmentsLimit),
	}

	if err := s.cache.Set(ctx, CacheKeyDepartments, report, 0); err != nil {
		s.logger.Warn("cache departments", zap.Error(err))
	}
	return &report, false, nil
}

// Ministries aggregates Section D.
func (s *ReportService) Ministries(ctx context.Context, role models.UserRole) (*dto.MinistriesReport, bool, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceReports); err != nil {
		return nil, false, err
	}

	var cached dto.MinistriesReport
	if hit, err := s.cache.Get(ctx, CacheKeyMinistries, &cached); err == nil && hit {
		return &cached, true, nil
	}

	teamwork, err := s.repo.GroupCount(ctx, "ministry_teamwork")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate ministries")
	}
	support, err := s.repo.GroupCount(ctx, "ministry_support")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate ministries")
	}
	responses, err := s.repo.All(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate ministries")
	}

	names := make([]string, 0, len(responses))
	for _, r := range responses {
		names = append(names, r.MinistriesServing)
	}

	report := dto.MinistriesReport{
		Teamwork:      teamwork,
		Support:       support,
		TopMinistries: topNames(names, topDepartmentsLimit),
	}

	if err := s.cache.Set(ctx, CacheKeyMinistries, report, 0); err != nil {
		s.logger.Warn("cache ministries", zap.Error(err))
	}
	return &report, false, nil
}

// OverallHealth aggregates Section E, including keyword extraction
// over the free-text answers.
func (s *ReportService) OverallHealth(ctx context.Context, role models.UserRole) (*dto.OverallHealthReport, bool, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceReports); err != nil {
		return nil, false, err
	}

	var cached dto.OverallHealthReport
	if hit, err := s.cache.Get(ctx, CacheKeyOverall, &cached); err == nil && hit {
		return &cached, true, nil
	}

	atmosphere, err := s.repo.GroupCount(ctx, "spiritual_atmosphere")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate overall health")
	}
	responses, err := s.repo.All(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate overall health")
	}

	exceptional := make([]string, 0, len(responses))
	urgent := make([]string, 0, len(responses))
	ideas := make([]string, 0, recentIdeasLimit)
	for _, r := range responses {
		exceptional = append(exceptional, r.ExceptionalAreas)
		urgent = append(urgent, r.UrgentImprovements)
		if len(ideas) < recentIdeasLimit && len(r.AdditionalThoughts) > 5 {
			ideas = append(ideas, r.AdditionalThoughts)
		}
	}

	report := dto.OverallHealthReport{
		SpiritualAtmosphere: atmosphere,
		ExceptionalKeywords: ExtractKeywords(exceptional, topKeywordsLimit),
		UrgentKeywords:      ExtractKeywords(urgent, topKeywordsLimit),
		RecentIdeas:         ideas,
	}

	if err := s.cache.Set(ctx, CacheKeyOverall, report, 0); err != nil {
		s.logger.Warn("cache overall health", zap.Error(err))
	}
	return &report, false, nil
}

// Combined bundles every report with the dashboard stats.
func (s *ReportService) Combined(ctx context.Context, role models.UserRole) (*dto.CombinedReport, bool, error) {
	if err := s.authorizer.Allow(role, ActionView, ResourceReports); err != nil {
		return nil, false, err
	}

	var cached dto.CombinedReport
	if hit, err := s.cache.Get(ctx, CacheKeyCombined, &cached); err == nil && hit {
		return &cached, true, nil
	}

	stats, _, err := s.Stats(ctx, role)
	if err != nil {
		return nil, false, err
	}
	demographics, _, err := s.Demographics(ctx, role)
	if err != nil {
		return nil, false, err
	}
	quality, _, err := s.ServiceQuality(ctx, role)
	if err != nil {
		return nil, false, err
	}
	departments, _, err := s.Departments(ctx, role)
	if err != nil {
		return nil, false, err
	}
	ministries, _, err := s.Ministries(ctx, role)
	if err != nil {
		return nil, false, err
	}
	overall, _, err := s.OverallHealth(ctx, role)
	if err != nil {
		return nil, false, err
	}

	report := dto.CombinedReport{
		Stats:          *stats,
		Demographics:   *demographics,
		ServiceQuality: *quality,
		Departments:    *departments,
		Ministries:     *ministries,
		OverallHealth:  *overall,
	}

	if err := s.cache.Set(ctx, CacheKeyCombined, report, 0); err != nil {
		s.logger.Warn("cache combined report", zap.Error(err))
	}
	return &report, false, nil
}

// ExtractKeywords tokenises free-text answers and returns the most
// frequent meaningful words. Tokens are lowercased, stripped of
// punctuation, and must be longer than three characters.
func ExtractKeywords(texts []string, limit int) []models.NameCount {
	counter := newNameCounter()
	for _, text := range texts {
		if text == "" {
			continue
		}
		cleaned := strings.Map(func(r rune) rune {
			if strings.ContainsRune(keywordPunctuation, r) {
				return -1
			}
			return r
		}, strings.ToLower(text))

		for _, word := range strings.Fields(cleaned) {
			if len(word) <= 3 {
				continue
			}
			if _, skip := stopWords[word]; skip {
				continue
			}
			counter.add(word)
		}
	}
	return counter.top(limit)
}

// topNames counts comma-separated name lists and returns the most
// frequent entries.
func topNames(values []string, limit int) []models.NameCount {
	counter := newNameCounter()
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			counter.add(name)
		}
	}
	return counter.top(limit)
}

// nameCounter tallies names and remembers when each was first seen.
// Equal counts rank in first-encountered order.
type nameCounter struct {
	counts map[string]int
	seen   map[string]int
}

func newNameCounter() *nameCounter {
	return &nameCounter{counts: map[string]int{}, seen: map[string]int{}}
}

func (c *nameCounter) add(name string) {
	if _, ok := c.counts[name]; !ok {
		c.seen[name] = len(c.seen)
	}
	c.counts[name]++
}

func (c *nameCounter) top(limit int) []models.NameCount {
	out := make([]models.NameCount, 0, len(c.counts))
	for name, value := range c.counts {
		out = append(out, models.NameCount{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return c.seen[out[i].Name] < c.seen[out[j].Name]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// booleanNames maps "true"/"false" bucket names from boolean columns
// to the Yes/No labels the form uses.
func booleanNames(counts []models.NameCount) []models.NameCount {
	out := make([]models.NameCount, len(counts))
	for i, c := range counts {
		switch c.Name {
		case "true", "t":
			c.Name = "Yes"
		case "false", "f":
			c.Name = "No"
		}
		out[i] = c
	}
	return out
}
