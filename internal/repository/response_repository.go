package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ccc-church/evaluation-api/internal/models"
)

const responseColumns = `id, created_at, updated_at, entered_by,
        age_group, gender, service_attendance, is_member, membership_code, is_regular_visitor, has_children, children_departments,
        overall_rating, transition_smooth, enjoy_most, improve_aspects, times_convenient, time_suggestions,
        departments_involved, department_activity, department_effectiveness, department_improvements,
        ministries_serving, ministry_teamwork, ministry_support, ministry_improvements,
        spiritual_atmosphere, exceptional_areas, urgent_improvements, additional_thoughts,
        last_edited_by, last_edited_at, edit_history`

// groupColumns whitelists the categorical columns report queries may
// aggregate on.
var groupColumns = map[string]string{
	"gender":                   "gender",
	"age_group":                "age_group",
	"overall_rating":           "overall_rating",
	"transition_smooth":        "transition_smooth",
	"times_convenient":         "times_convenient",
	"department_activity":      "department_activity",
	"department_effectiveness": "department_effectiveness",
	"ministry_teamwork":        "ministry_teamwork",
	"ministry_support":         "ministry_support",
	"spiritual_atmosphere":     "spiritual_atmosphere",
}

// ResponseRepository manages persistence for survey responses.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs a ResponseRepository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Create inserts a new survey response.
func (r *ResponseRepository) Create(ctx context.Context, resp *models.Response) error {
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = now
	}
	if resp.UpdatedAt.IsZero() {
		resp.UpdatedAt = now
	}
	const query = `INSERT INTO survey_responses (id, created_at, updated_at, entered_by,
        age_group, gender, service_attendance, is_member, membership_code, is_regular_visitor, has_children, children_departments,
        overall_rating, transition_smooth, enjoy_most, improve_aspects, times_convenient, time_suggestions,
        departments_involved, department_activity, department_effectiveness, department_improvements,
        ministries_serving, ministry_teamwork, ministry_support, ministry_improvements,
        spiritual_atmosphere, exceptional_areas, urgent_improvements, additional_thoughts,
        last_edited_by, last_edited_at, edit_history)
        VALUES (:id, :created_at, :updated_at, :entered_by,
        :age_group, :gender, :service_attendance, :is_member, :membership_code, :is_regular_visitor, :has_children, :children_departments,
        :overall_rating, :transition_smooth, :enjoy_most, :improve_aspects, :times_convenient, :time_suggestions,
        :departments_involved, :department_activity, :department_effectiveness, :department_improvements,
        :ministries_serving, :ministry_teamwork, :ministry_support, :ministry_improvements,
        :spiritual_atmosphere, :exceptional_areas, :urgent_improvements, :additional_thoughts,
        :last_edited_by, :last_edited_at, :edit_history)`
	if _, err := r.db.NamedExecContext(ctx, query, resp); err != nil {
		return fmt.Errorf("create response: %w", err)
	}
	return nil
}

// FindByID fetches one response.
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*models.Response, error) {
	query := fmt.Sprintf("SELECT %s FROM survey_responses WHERE id = $1", responseColumns)
	var resp models.Response
	if err := r.db.GetContext(ctx, &resp, query, id); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExistsByMembershipCode reports whether a membership code is already
// taken.
func (r *ResponseRepository) ExistsByMembershipCode(ctx context.Context, code string) (bool, error) {
	query := "SELECT 1 FROM survey_responses WHERE membership_code = $1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check membership code: %w", err)
	}
	return true, nil
}

// List returns the newest-first listing projection with a total count.
// Search is a case-sensitive substring match, matching how the form UI
// has always filtered.
func (r *ResponseRepository) List(ctx context.Context, filter models.ResponseFilter) ([]models.ResponseListItem, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(entered_by LIKE $%d OR membership_code LIKE $%d OR service_attendance LIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	conditions = append(conditions, serviceConditions(filter.Service, &args)...)

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, created_at, entered_by, gender, membership_code, service_attendance, is_member, overall_rating
        FROM survey_responses WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)

	var items []models.ResponseListItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM survey_responses WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}
	return items, total, nil
}

// serviceConditions translates a service filter into SQL conditions.
// "All Services" requires every service marker; a single service
// matches on its ordinal prefix so it matches comma-joined values.
func serviceConditions(service string, args *[]interface{}) []string {
	if service == "" {
		return nil
	}
	if service == "All Services" {
		conds := make([]string, 0, 3)
		for _, marker := range []string{"1st", "2nd", "3rd"} {
			conds = append(conds, fmt.Sprintf("service_attendance LIKE $%d", len(*args)+1))
			*args = append(*args, "%"+marker+"%")
		}
		return conds
	}
	marker := strings.SplitN(service, " ", 2)[0]
	cond := fmt.Sprintf("service_attendance LIKE $%d", len(*args)+1)
	*args = append(*args, "%"+marker+"%")
	return []string{cond}
}

// Update rewrites every section of a response plus its audit columns.
func (r *ResponseRepository) Update(ctx context.Context, resp *models.Response) error {
	resp.UpdatedAt = time.Now().UTC()
	const query = `UPDATE survey_responses SET updated_at = :updated_at,
        age_group = :age_group, gender = :gender, service_attendance = :service_attendance, is_member = :is_member,
        membership_code = :membership_code, is_regular_visitor = :is_regular_visitor, has_children = :has_children,
        children_departments = :children_departments,
        overall_rating = :overall_rating, transition_smooth = :transition_smooth, enjoy_most = :enjoy_most,
        improve_aspects = :improve_aspects, times_convenient = :times_convenient, time_suggestions = :time_suggestions,
        departments_involved = :departments_involved, department_activity = :department_activity,
        department_effectiveness = :department_effectiveness, department_improvements = :department_improvements,
        ministries_serving = :ministries_serving, ministry_teamwork = :ministry_teamwork,
        ministry_support = :ministry_support, ministry_improvements = :ministry_improvements,
        spiritual_atmosphere = :spiritual_atmosphere, exceptional_areas = :exceptional_areas,
        urgent_improvements = :urgent_improvements, additional_thoughts = :additional_thoughts,
        last_edited_by = :last_edited_by, last_edited_at = :last_edited_at, edit_history = :edit_history
        WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, resp)
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one response.
func (r *ResponseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM survey_responses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// All returns every response oldest-first, for backups and exports.
func (r *ResponseRepository) All(ctx context.Context) ([]models.Response, error) {
	query := fmt.Sprintf("SELECT %s FROM survey_responses ORDER BY created_at ASC", responseColumns)
	var responses []models.Response
	if err := r.db.SelectContext(ctx, &responses, query); err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	return responses, nil
}

// Filtered returns responses matching the export criteria, oldest-first.
func (r *ResponseRepository) Filtered(ctx context.Context, filter models.ExportFilter) ([]models.Response, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	conditions = append(conditions, serviceConditions(filter.Service, &args)...)
	switch filter.MemberStatus {
	case "member":
		conditions = append(conditions, "is_member = TRUE")
	case "visitor":
		conditions = append(conditions, "is_member = FALSE")
	}
	if filter.OverallRating != "" {
		conditions = append(conditions, fmt.Sprintf("overall_rating = $%d", len(args)+1))
		args = append(args, filter.OverallRating)
	}

	query := fmt.Sprintf("SELECT %s FROM survey_responses WHERE %s ORDER BY created_at ASC",
		responseColumns, strings.Join(conditions, " AND "))
	var responses []models.Response
	if err := r.db.SelectContext(ctx, &responses, query, args...); err != nil {
		return nil, fmt.Errorf("filter responses: %w", err)
	}
	return responses, nil
}

// GroupCount aggregates response counts by one categorical column.
// Only whitelisted columns are allowed.
func (r *ResponseRepository) GroupCount(ctx context.Context, column string) ([]models.NameCount, error) {
	col, ok := groupColumns[column]
	if !ok {
		return nil, fmt.Errorf("group count: column %q not allowed", column)
	}
	query := fmt.Sprintf(`SELECT %s::text AS name, COUNT(*) AS value FROM survey_responses GROUP BY %s ORDER BY value DESC, name ASC`, col, col)
	var counts []models.NameCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("group count %s: %w", column, err)
	}
	return counts, nil
}

// CountAll returns the total number of responses.
func (r *ResponseRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM survey_responses"); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return total, nil
}

// CountCreatedSince counts responses created at or after the cutoff.
func (r *ResponseRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM survey_responses WHERE created_at >= $1", since); err != nil {
		return 0, fmt.Errorf("count recent responses: %w", err)
	}
	return total, nil
}

// CountDistinctEnteredBySince counts the distinct volunteers who have
// entered at least one response since the cutoff.
func (r *ResponseRepository) CountDistinctEnteredBySince(ctx context.Context, since time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(DISTINCT entered_by) FROM survey_responses WHERE created_at >= $1", since); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return total, nil
}

// BulkInsert inserts a batch of responses. With skipConflicts set,
// rows whose id already exists are left untouched and excluded from
// the inserted count.
func (r *ResponseRepository) BulkInsert(ctx context.Context, responses []models.Response, skipConflicts bool) (int, error) {
	query := `INSERT INTO survey_responses (id, created_at, updated_at, entered_by,
        age_group, gender, service_attendance, is_member, membership_code, is_regular_visitor, has_children, children_departments,
        overall_rating, transition_smooth, enjoy_most, improve_aspects, times_convenient, time_suggestions,
        departments_involved, department_activity, department_effectiveness, department_improvements,
        ministries_serving, ministry_teamwork, ministry_support, ministry_improvements,
        spiritual_atmosphere, exceptional_areas, urgent_improvements, additional_thoughts,
        last_edited_by, last_edited_at, edit_history)
        VALUES (:id, :created_at, :updated_at, :entered_by,
        :age_group, :gender, :service_attendance, :is_member, :membership_code, :is_regular_visitor, :has_children, :children_departments,
        :overall_rating, :transition_smooth, :enjoy_most, :improve_aspects, :times_convenient, :time_suggestions,
        :departments_involved, :department_activity, :department_effectiveness, :department_improvements,
        :ministries_serving, :ministry_teamwork, :ministry_support, :ministry_improvements,
        :spiritual_atmosphere, :exceptional_areas, :urgent_improvements, :additional_thoughts,
        :last_edited_by, :last_edited_at, :edit_history)`
	if skipConflicts {
		query += " ON CONFLICT (id) DO NOTHING"
	}

	inserted := 0
	for i := range responses {
		result, err := r.db.NamedExecContext(ctx, query, &responses[i])
		if err != nil {
			return inserted, fmt.Errorf("bulk insert response %d: %w", i, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("bulk insert response %d: %w", i, err)
		}
		inserted += int(affected)
	}
	return inserted, nil
}

// DeleteAll removes every response and reports how many were deleted.
func (r *ResponseRepository) DeleteAll(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM survey_responses")
	if err != nil {
		return 0, fmt.Errorf("delete all responses: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all responses: %w", err)
	}
	return int(affected), nil
}
