package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EditEntry records one mutation of a response in the audit trail.
type EditEntry struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// EditHistory is the append-only audit log stored as a JSON column.
// NULL and empty values scan to an empty history; corrupt JSON is an
// error so the audit trail is never silently reset.
type EditHistory []EditEntry

// Scan implements sql.Scanner.
func (h *EditHistory) Scan(src interface{}) error {
	if src == nil {
		*h = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("edit history: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*h = nil
		return nil
	}
	var entries []EditEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("edit history: corrupt audit log: %w", err)
	}
	*h = entries
	return nil
}

// Value implements driver.Valuer.
func (h EditHistory) Value() (driver.Value, error) {
	if h == nil {
		h = EditHistory{}
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("edit history: marshal: %w", err)
	}
	return string(raw), nil
}

// Append returns a new history with one more entry. The receiver is
// never mutated in place so callers can keep the pre-update view.
func (h EditHistory) Append(username string, ts time.Time) EditHistory {
	next := make(EditHistory, 0, len(h)+1)
	next = append(next, h...)
	next = append(next, EditEntry{Username: username, Timestamp: ts})
	return next
}

// Response is one submitted survey record, spanning the five form
// sections plus provenance and audit metadata.
type Response struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	EnteredBy string    `db:"entered_by" json:"enteredBy"`

	// Section A: demographics & membership
	AgeGroup            string  `db:"age_group" json:"ageGroup"`
	Gender              string  `db:"gender" json:"gender"`
	ServiceAttendance   string  `db:"service_attendance" json:"serviceAttendance"`
	IsMember            bool    `db:"is_member" json:"isMember"`
	MembershipCode      *string `db:"membership_code" json:"membershipCode"`
	IsRegularVisitor    *bool   `db:"is_regular_visitor" json:"isRegularVisitor"`
	HasChildren         bool    `db:"has_children" json:"hasChildren"`
	ChildrenDepartments string  `db:"children_departments" json:"childrenDepartments"`

	// Section B: service experience
	OverallRating    string  `db:"overall_rating" json:"overallRating"`
	TransitionSmooth string  `db:"transition_smooth" json:"transitionSmooth"`
	EnjoyMost        string  `db:"enjoy_most" json:"enjoyMost"`
	ImproveAspects   string  `db:"improve_aspects" json:"improveAspects"`
	TimesConvenient  bool    `db:"times_convenient" json:"timesConvenient"`
	TimeSuggestions  *string `db:"time_suggestions" json:"timeSuggestions"`

	// Section C: departmental involvement
	DepartmentsInvolved     string `db:"departments_involved" json:"departmentsInvolved"`
	DepartmentActivity      string `db:"department_activity" json:"departmentActivity"`
	DepartmentEffectiveness string `db:"department_effectiveness" json:"departmentEffectiveness"`
	DepartmentImprovements  string `db:"department_improvements" json:"departmentImprovements"`

	// Section D: ministry functionality
	MinistriesServing    string `db:"ministries_serving" json:"ministriesServing"`
	MinistryTeamwork     string `db:"ministry_teamwork" json:"ministryTeamwork"`
	MinistrySupport      string `db:"ministry_support" json:"ministrySupport"`
	MinistryImprovements string `db:"ministry_improvements" json:"ministryImprovements"`

	// Section E: overall feedback
	SpiritualAtmosphere string `db:"spiritual_atmosphere" json:"spiritualAtmosphere"`
	ExceptionalAreas    string `db:"exceptional_areas" json:"exceptionalAreas"`
	UrgentImprovements  string `db:"urgent_improvements" json:"urgentImprovements"`
	AdditionalThoughts  string `db:"additional_thoughts" json:"additionalThoughts"`

	// Audit
	LastEditedBy *string     `db:"last_edited_by" json:"lastEditedBy"`
	LastEditedAt *time.Time  `db:"last_edited_at" json:"lastEditedAt"`
	EditHistory  EditHistory `db:"edit_history" json:"editHistory"`
}

// ResponseListItem is the trimmed projection returned by the listing
// endpoint; detail views fetch the full record.
type ResponseListItem struct {
	ID                string    `db:"id" json:"id"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	EnteredBy         string    `db:"entered_by" json:"enteredBy"`
	Gender            string    `db:"gender" json:"gender"`
	MembershipCode    *string   `db:"membership_code" json:"membershipCode"`
	ServiceAttendance string    `db:"service_attendance" json:"serviceAttendance"`
	IsMember          bool      `db:"is_member" json:"isMember"`
	OverallRating     string    `db:"overall_rating" json:"overallRating"`
}

// ResponseFilter captures listing criteria. Search is a case-sensitive
// substring match against enteredBy, membershipCode and
// serviceAttendance. Service is either one service label or the
// synthetic "All Services" requiring all three service markers.
type ResponseFilter struct {
	Search   string
	Service  string
	Page     int
	PageSize int
}

// ExportFilter narrows the filtered CSV export.
type ExportFilter struct {
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	Service       string     `json:"service"`
	MemberStatus  string     `json:"memberStatus"`
	OverallRating string     `json:"rating"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NameCount is one chart bucket: a categorical value and how many
// responses carry it.
type NameCount struct {
	Name  string `db:"name" json:"name"`
	Value int    `db:"value" json:"value"`
}

// StatsSummary is the shared dashboard counter block.
type StatsSummary struct {
	Total       int `json:"total"`
	Today       int `json:"today"`
	ThisWeek    int `json:"thisWeek"`
	ActiveUsers int `json:"activeUsers"`
}
