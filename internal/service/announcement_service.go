package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// AnnouncementService handles staff broadcast notices. Announcements sit
// outside the story/bulletin state machine but share the role authority:
// only admins and above may post at high priority.
type AnnouncementService struct {
	repo  *repository.AnnouncementRepository
	dir   Directory
	rules workflow.Rules
	log   zerolog.Logger
}

// NewAnnouncementService creates a new AnnouncementService.
func NewAnnouncementService(repo *repository.AnnouncementRepository, dir Directory, rules workflow.Rules, log zerolog.Logger) *AnnouncementService {
	return &AnnouncementService{repo: repo, dir: dir, rules: rules, log: log}
}

// CreateAnnouncementRequest represents a create announcement request.
type CreateAnnouncementRequest struct {
	Title     string
	Body      string
	Priority  string
	Audience  string
	ExpiresAt *time.Time
	ActorID   string
}

var validPriorities = map[string]bool{"low": true, "normal": true, "high": true}
var validAudiences = map[string]bool{"all": true, "editorial": true, "stations": true}

// CreateAnnouncement posts a new announcement.
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, req *CreateAnnouncementRequest) (*repository.Announcement, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, workflow.InvalidInput("title", "a title is required")
	}
	priority := strings.ToLower(req.Priority)
	if !validPriorities[priority] {
		return nil, workflow.InvalidInput("priority", "priority must be low, normal or high")
	}
	audience := strings.ToLower(req.Audience)
	if audience == "" {
		audience = "all"
	}
	if !validAudiences[audience] {
		return nil, workflow.InvalidInput("audience", "audience must be all, editorial or stations")
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return nil, workflow.InvalidInput("expires_at", "expiry must be in the future")
	}

	actor, err := s.dir.GetUser(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsActive {
		return nil, workflow.New(workflow.CodeInactiveUser, "actor account is deactivated")
	}

	caps := workflow.CapabilitiesFor(actor.Role, s.rules)
	if !caps.CanManageAnnouncements {
		return nil, workflow.New(workflow.CodeIllegalTransition, "role may not post announcements")
	}
	if priority == "high" && !caps.CanSetHighPriority {
		return nil, workflow.New(workflow.CodeRoleMismatch, "only admins may post high-priority announcements")
	}

	a := &repository.Announcement{
		Title:     req.Title,
		Body:      req.Body,
		Priority:  priority,
		Audience:  audience,
		CreatedBy: actor.ID,
		ExpiresAt: req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("announcement_id", a.ID).
		Str("priority", a.Priority).
		Str("created_by", actor.ID).
		Msg("Announcement created")

	return a, nil
}

// ListActiveForUser returns undismissed, unexpired announcements for a user.
func (s *AnnouncementService) ListActiveForUser(ctx context.Context, userID string) ([]*repository.Announcement, error) {
	return s.repo.ListActiveForUser(ctx, userID)
}

// Dismiss hides an announcement for one user. Idempotent.
func (s *AnnouncementService) Dismiss(ctx context.Context, announcementID, userID string) error {
	return s.repo.Dismiss(ctx, announcementID, userID)
}
