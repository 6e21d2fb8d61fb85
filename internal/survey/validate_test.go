package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() *Form {
	return &Form{
		SectionA: SectionA{
			AgeGroup:          "25-34",
			Gender:            "Female",
			ServiceAttendance: []string{ServiceFirst, ServiceSecond},
			IsMember:          "Yes",
			MembershipCode:    "CCC-0042",
			HasChildren:       "No",
		},
		SectionB: SectionB{
			OverallRating:    "Excellent",
			TransitionSmooth: "Yes",
			EnjoyMost:        "The worship is always uplifting",
			ImproveAspects:   "More parking space",
			TimesConvenient:  "Yes",
		},
		SectionC: SectionC{
			DepartmentsInvolved:     "Choir",
			DepartmentActivity:      "Very Active",
			DepartmentEffectiveness: "Good",
			DepartmentImprovements:  "More rehearsal time",
		},
		SectionD: SectionD{
			MinistriesServing:    "Ushering",
			MinistryTeamwork:     "Excellent",
			MinistrySupport:      "Yes",
			MinistryImprovements: "Better communication",
		},
		SectionE: SectionE{
			SpiritualAtmosphere: "Vibrant",
			ExceptionalAreas:    "Worship and the word",
			UrgentImprovements:  "Sound system",
			AdditionalThoughts:  "Keep it up",
		},
	}
}

func TestValidateFormValid(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, ValidateForm(v, validForm()))
}

func TestValidateFormRejectsUnknownEnum(t *testing.T) {
	v := NewValidator()
	form := validForm()
	form.OverallRating = "Amazing"
	form.Gender = "Other"

	errs := ValidateForm(v, form)
	require.Len(t, errs, 2)
	fields := []string{errs[0].Field, errs[1].Field}
	assert.Contains(t, fields, "gender")
	assert.Contains(t, fields, "overallRating")
}

func TestValidateFormMultiWordEnum(t *testing.T) {
	v := NewValidator()
	form := validForm()
	form.OverallRating = "Needs Improvement"
	form.DepartmentActivity = "Not Active"
	form.SpiritualAtmosphere = "Needs Revival"

	assert.Empty(t, ValidateForm(v, form))
}

func TestValidateFormRequiresAttendance(t *testing.T) {
	v := NewValidator()
	form := validForm()
	form.ServiceAttendance = nil

	errs := ValidateForm(v, form)
	require.Len(t, errs, 1)
	assert.Equal(t, "serviceAttendance", errs[0].Field)
	assert.Equal(t, "this field is required", errs[0].Message)
}

func TestValidateFormRejectsBadService(t *testing.T) {
	v := NewValidator()
	form := validForm()
	form.ServiceAttendance = []string{"Midnight Service"}

	errs := ValidateForm(v, form)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, ServiceThird)
}

func TestValidateSection(t *testing.T) {
	v := NewValidator()

	errs, err := ValidateSection(v, "b", []byte(`{"overallRating":"Good","transitionSmooth":"Yes","enjoyMost":"music","improveAspects":"seating","timesConvenient":"Yes"}`))
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = ValidateSection(v, "E", []byte(`{"spiritualAtmosphere":"Neutral"}`))
	require.NoError(t, err)
	assert.Len(t, errs, 3)
}

func TestValidateSectionUnknownSection(t *testing.T) {
	v := NewValidator()
	_, err := ValidateSection(v, "F", []byte(`{}`))
	require.Error(t, err)
}

func TestValidateSectionBadJSON(t *testing.T) {
	v := NewValidator()
	_, err := ValidateSection(v, "A", []byte(`{not json`))
	require.Error(t, err)
}

func TestFormToResponse(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	form := validForm()
	form.IsRegularVisitor = ""
	form.TimeSuggestions = ""

	resp := form.ToResponse("mary", now)
	assert.Equal(t, "mary", resp.EnteredBy)
	assert.Equal(t, now, resp.CreatedAt)
	assert.True(t, resp.IsMember)
	require.NotNil(t, resp.MembershipCode)
	assert.Equal(t, "CCC-0042", *resp.MembershipCode)
	assert.Nil(t, resp.IsRegularVisitor)
	assert.Nil(t, resp.TimeSuggestions)
	assert.Equal(t, ServiceFirst+", "+ServiceSecond, resp.ServiceAttendance)
	assert.False(t, resp.HasChildren)
	assert.Equal(t, "[]", resp.ChildrenDepartments)
	assert.True(t, resp.TimesConvenient)
}
