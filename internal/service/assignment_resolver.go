package service

import (
	"context"
	"fmt"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// Directory resolves staff accounts. Backed by the user directory read model
// in production and by fakes in tests.
type Directory interface {
	GetUser(ctx context.Context, id string) (*repository.User, error)
}

// AssignmentResolver validates the human handoff bound to a transition:
// the chosen reviewer, approver or translator must exist, be active, and
// hold a permitted role.
type AssignmentResolver struct {
	dir Directory
}

// NewAssignmentResolver creates a new AssignmentResolver.
func NewAssignmentResolver(dir Directory) *AssignmentResolver {
	return &AssignmentResolver{dir: dir}
}

// Resolve returns the candidate user when they are active and hold one of
// the allowed roles.
func (r *AssignmentResolver) Resolve(ctx context.Context, candidateID string, allowed []workflow.Role) (*repository.User, error) {
	user, err := r.dir.GetUser(ctx, candidateID)
	if err != nil {
		if workflow.CodeOf(err) == workflow.CodeNotFound {
			return nil, &workflow.Error{
				Code:    workflow.CodeInvalidAssignee,
				Message: "selected user does not exist",
				Field:   "assignee_id",
			}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, &workflow.Error{
			Code:    workflow.CodeInactiveUser,
			Message: "selected user is deactivated",
			Field:   "assignee_id",
		}
	}

	for _, role := range allowed {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, &workflow.Error{
		Code:    workflow.CodeRoleMismatch,
		Message: fmt.Sprintf("selected user cannot be assigned: role %s is not permitted for this step", user.Role),
		Field:   "assignee_id",
	}
}
