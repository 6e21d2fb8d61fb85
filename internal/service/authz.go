package service

import (
	"fmt"

	"github.com/ccc-church/evaluation-api/internal/models"
	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

// Action names a class of operation an actor may attempt.
type Action string

// Resource names the part of the system an action targets.
type Resource string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	ResourceResponses Resource = "responses"
	ResourceReports   Resource = "reports"
	ResourceTransfer  Resource = "transfer"
)

// Authorizer is the single place role permissions are decided.
// Volunteers enter and maintain responses (deleting only their own
// entries, enforced where the record is loaded); reports and bulk
// transfer are admin-only.
type Authorizer struct {
	rules map[models.UserRole]map[Resource]map[Action]bool
}

// NewAuthorizer builds the static permission table.
func NewAuthorizer() *Authorizer {
	return &Authorizer{
		rules: map[models.UserRole]map[Resource]map[Action]bool{
			models.RoleAdmin: {
				ResourceResponses: {ActionView: true, ActionCreate: true, ActionUpdate: true, ActionDelete: true},
				ResourceReports:   {ActionView: true},
				ResourceTransfer:  {ActionView: true, ActionCreate: true, ActionDelete: true},
			},
			models.RoleVolunteer: {
				ResourceResponses: {ActionView: true, ActionCreate: true, ActionUpdate: true, ActionDelete: true},
			},
		},
	}
}

// AllowOwned checks a record-scoped action: admins act on anything,
// other roles only on records they entered themselves.
func (a *Authorizer) AllowOwned(role models.UserRole, actor, owner string, action Action, resource Resource) error {
	if err := a.Allow(role, action, resource); err != nil {
		return err
	}
	if role == models.RoleAdmin || actor == owner {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden,
		fmt.Sprintf("role %q may only %s their own entries", role, action))
}

// Allow returns ErrForbidden unless the role is permitted to perform
// the action on the resource.
func (a *Authorizer) Allow(role models.UserRole, action Action, resource Resource) error {
	if perms, ok := a.rules[role]; ok {
		if actions, ok := perms[resource]; ok && actions[action] {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden,
		fmt.Sprintf("role %q may not %s %s", role, action, resource))
}

// Can reports permission without constructing an error.
func (a *Authorizer) Can(role models.UserRole, action Action, resource Resource) bool {
	return a.Allow(role, action, resource) == nil
}
