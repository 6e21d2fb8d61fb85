package survey

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ccc-church/evaluation-api/internal/models"
)

// Service labels offered on the form. Attendance is stored comma-joined,
// so filters match by substring on the leading ordinal.
const (
	ServiceFirst  = "1st Service (6:00-8:00am)"
	ServiceSecond = "2nd Service (8:00-10:00am)"
	ServiceThird  = "3rd Service (10:00am-12:00noon)"
)

// AllServicesFilter is the synthetic filter meaning a response attends
// every service.
const AllServicesFilter = "All Services"

// SectionA covers personal information and membership.
type SectionA struct {
	AgeGroup            string   `json:"ageGroup" validate:"required,max=2000"`
	Gender              string   `json:"gender" validate:"required,oneof=Male Female"`
	ServiceAttendance   []string `json:"serviceAttendance" validate:"required,min=1,max=3,dive,oneof='1st Service (6:00-8:00am)' '2nd Service (8:00-10:00am)' '3rd Service (10:00am-12:00noon)'"`
	IsMember            string   `json:"isMember" validate:"required,oneof=Yes No"`
	MembershipCode      string   `json:"membershipCode" validate:"omitempty,max=100"`
	IsRegularVisitor    string   `json:"isRegularVisitor" validate:"omitempty,oneof=Yes No"`
	HasChildren         string   `json:"hasChildren" validate:"required,oneof=Yes No"`
	ChildrenDepartments []string `json:"childrenDepartments" validate:"omitempty,dive,oneof='Children Ministry' 'New Generation' 'Salt City'"`
}

// SectionB covers the service experience.
type SectionB struct {
	OverallRating    string `json:"overallRating" validate:"required,oneof=Excellent Good Fair 'Needs Improvement'"`
	TransitionSmooth string `json:"transitionSmooth" validate:"required,oneof=Yes Somewhat No"`
	EnjoyMost        string `json:"enjoyMost" validate:"required,min=1,max=2000"`
	ImproveAspects   string `json:"improveAspects" validate:"required,min=1,max=2000"`
	TimesConvenient  string `json:"timesConvenient" validate:"required,oneof=Yes No"`
	TimeSuggestions  string `json:"timeSuggestions" validate:"omitempty,max=2000"`
}

// SectionC covers departmental involvement.
type SectionC struct {
	DepartmentsInvolved     string `json:"departmentsInvolved" validate:"required,min=1,max=2000"`
	DepartmentActivity      string `json:"departmentActivity" validate:"required,oneof='Very Active' Active 'Not Active'"`
	DepartmentEffectiveness string `json:"departmentEffectiveness" validate:"required,oneof=Excellent Good Fair 'Needs Improvement'"`
	DepartmentImprovements  string `json:"departmentImprovements" validate:"required,min=1,max=2000"`
}

// SectionD covers ministry functionality.
type SectionD struct {
	MinistriesServing    string `json:"ministriesServing" validate:"required,min=1,max=2000"`
	MinistryTeamwork     string `json:"ministryTeamwork" validate:"required,oneof=Excellent Good Fair 'Needs Improvement'"`
	MinistrySupport      string `json:"ministrySupport" validate:"required,oneof=Yes Sometimes No"`
	MinistryImprovements string `json:"ministryImprovements" validate:"required,min=1,max=2000"`
}

// SectionE covers overall qualitative feedback.
type SectionE struct {
	SpiritualAtmosphere string `json:"spiritualAtmosphere" validate:"required,oneof=Vibrant Encouraging Neutral 'Needs Revival'"`
	ExceptionalAreas    string `json:"exceptionalAreas" validate:"required,min=1,max=2000"`
	UrgentImprovements  string `json:"urgentImprovements" validate:"required,min=1,max=2000"`
	AdditionalThoughts  string `json:"additionalThoughts" validate:"required,min=1,max=2000"`
}

// Form is the combined five-section payload accepted by create and
// update. Membership code, regular visitor, children departments and
// time suggestions stay optional at the schema level; the form UI owns
// the conditional show/hide rules.
type Form struct {
	SectionA
	SectionB
	SectionC
	SectionD
	SectionE
}

// ToResponse maps a validated form onto the stored record shape.
// Multi-selects are serialized the same way the form always has:
// attendance comma-joined, children departments as a JSON array.
func (f *Form) ToResponse(actor string, now time.Time) models.Response {
	childrenDepts := f.ChildrenDepartments
	if childrenDepts == nil {
		childrenDepts = []string{}
	}
	serialized, _ := json.Marshal(childrenDepts)

	return models.Response{
		EnteredBy: actor,
		CreatedAt: now,
		UpdatedAt: now,

		AgeGroup:            f.AgeGroup,
		Gender:              f.Gender,
		ServiceAttendance:   strings.Join(f.ServiceAttendance, ", "),
		IsMember:            f.IsMember == "Yes",
		MembershipCode:      optionalString(f.MembershipCode),
		IsRegularVisitor:    optionalYesNo(f.IsRegularVisitor),
		HasChildren:         f.HasChildren == "Yes",
		ChildrenDepartments: string(serialized),

		OverallRating:    f.OverallRating,
		TransitionSmooth: f.TransitionSmooth,
		EnjoyMost:        f.EnjoyMost,
		ImproveAspects:   f.ImproveAspects,
		TimesConvenient:  f.TimesConvenient == "Yes",
		TimeSuggestions:  optionalString(f.TimeSuggestions),

		DepartmentsInvolved:     f.DepartmentsInvolved,
		DepartmentActivity:      f.DepartmentActivity,
		DepartmentEffectiveness: f.DepartmentEffectiveness,
		DepartmentImprovements:  f.DepartmentImprovements,

		MinistriesServing:    f.MinistriesServing,
		MinistryTeamwork:     f.MinistryTeamwork,
		MinistrySupport:      f.MinistrySupport,
		MinistryImprovements: f.MinistryImprovements,

		SpiritualAtmosphere: f.SpiritualAtmosphere,
		ExceptionalAreas:    f.ExceptionalAreas,
		UrgentImprovements:  f.UrgentImprovements,
		AdditionalThoughts:  f.AdditionalThoughts,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalYesNo(s string) *bool {
	switch s {
	case "Yes":
		v := true
		return &v
	case "No":
		v := false
		return &v
	default:
		return nil
	}
}
