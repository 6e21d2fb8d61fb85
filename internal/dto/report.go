package dto

import (
	"github.com/ccc-church/evaluation-api/internal/models"
)

// DemographicsReport aggregates Section A answers.
type DemographicsReport struct {
	AgeGroups         []models.NameCount `json:"ageGroups"`
	Gender            []models.NameCount `json:"gender"`
	Membership        []models.NameCount `json:"membership"`
	ServiceAttendance []models.NameCount `json:"serviceAttendance"`
}

// ServiceQualityReport aggregates Section B answers.
type ServiceQualityReport struct {
	OverallRating    []models.NameCount `json:"overallRating"`
	TransitionSmooth []models.NameCount `json:"transitionSmooth"`
	TimesConvenient  []models.NameCount `json:"timesConvenient"`
}

// DepartmentsReport aggregates Section C answers.
type DepartmentsReport struct {
	Activity       []models.NameCount `json:"activity"`
	Effectiveness  []models.NameCount `json:"effectiveness"`
	TopDepartments []models.NameCount `json:"topDepartments"`
}

// MinistriesReport aggregates Section D answers.
type MinistriesReport struct {
	Teamwork      []models.NameCount `json:"teamwork"`
	Support       []models.NameCount `json:"support"`
	TopMinistries []models.NameCount `json:"topMinistries"`
}

// OverallHealthReport aggregates Section E answers. Keyword lists are
// the most frequent meaningful words in the free-text answers;
// RecentIdeas surfaces a handful of substantive additionalThoughts
// entries verbatim.
type OverallHealthReport struct {
	SpiritualAtmosphere []models.NameCount `json:"spiritualAtmosphere"`
	ExceptionalKeywords []models.NameCount `json:"exceptionalKeywords"`
	UrgentKeywords      []models.NameCount `json:"urgentKeywords"`
	RecentIdeas         []string           `json:"recentIdeas"`
}

// CombinedReport bundles every section report with the dashboard stats.
type CombinedReport struct {
	Stats          models.StatsSummary  `json:"stats"`
	Demographics   DemographicsReport   `json:"demographics"`
	ServiceQuality ServiceQualityReport `json:"serviceQuality"`
	Departments    DepartmentsReport    `json:"departments"`
	Ministries     MinistriesReport     `json:"ministries"`
	OverallHealth  OverallHealthReport  `json:"overallHealth"`
}
