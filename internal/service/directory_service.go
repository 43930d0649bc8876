package service

import (
	"context"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// UserLister extends Directory with role-set queries for assignee pickers.
type UserLister interface {
	Directory
	ListByRoles(ctx context.Context, roles []workflow.Role) ([]*repository.User, error)
}

// DirectoryService answers "who can I hand this to" and "what can this role
// do" questions for the caller, from the same role authority and transition
// tables the engine enforces.
type DirectoryService struct {
	users UserLister
	rules workflow.Rules
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(users UserLister, rules workflow.Rules) *DirectoryService {
	return &DirectoryService{users: users, rules: rules}
}

// GetUser resolves a user by ID.
func (s *DirectoryService) GetUser(ctx context.Context, id string) (*repository.User, error) {
	return s.users.GetUser(ctx, id)
}

// EligibleStoryAssignees returns the active users who may be assigned on the
// given story transition edge.
func (s *DirectoryService) EligibleStoryAssignees(ctx context.Context, from, to workflow.StoryStatus) ([]*repository.User, error) {
	roles, ok := workflow.StoryAssigneeRoles(from, to)
	if !ok {
		return nil, workflow.New(workflow.CodeInvalidInput, "this transition takes no assignee")
	}
	return s.users.ListByRoles(ctx, roles)
}

// EligibleBulletinAssignees mirrors EligibleStoryAssignees for bulletins.
func (s *DirectoryService) EligibleBulletinAssignees(ctx context.Context, from, to workflow.BulletinStatus) ([]*repository.User, error) {
	roles, ok := workflow.BulletinAssigneeRoles(from, to)
	if !ok {
		return nil, workflow.New(workflow.CodeInvalidInput, "this transition takes no assignee")
	}
	return s.users.ListByRoles(ctx, roles)
}

// Capabilities returns the capability set for a role under the configured
// rules.
func (s *DirectoryService) Capabilities(role workflow.Role) workflow.Capabilities {
	return workflow.CapabilitiesFor(role, s.rules)
}
