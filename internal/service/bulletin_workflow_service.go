package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// BulletinStore is the persistence collaborator for bulletins.
type BulletinStore interface {
	GetByID(ctx context.Context, id string) (*repository.Bulletin, error)
	ApplyTransition(ctx context.Context, id string, expected workflow.BulletinStatus, change *repository.BulletinTransition) (*repository.Bulletin, error)
}

// BulletinTransitionRequest is one actor-initiated bulletin transition.
type BulletinTransitionRequest struct {
	BulletinID string
	ActorID    string
	Target     workflow.BulletinStatus
	AssigneeID *string
	Comment    *string
}

// BulletinTransitionResult is the committed outcome of a bulletin transition.
type BulletinTransitionResult struct {
	Bulletin    *repository.Bulletin          `json:"bulletin"`
	Intents     []workflow.NotificationIntent `json:"intents"`
	Invalidates []string                      `json:"invalidates"`
}

// BulletinWorkflowService is the workflow engine for bulletins. The table is
// flatter than the story one: no translation or staging path, and a bulletin
// must carry at least one story before it can leave draft.
type BulletinWorkflowService struct {
	bulletins BulletinStore
	dir       Directory
	resolver  *AssignmentResolver
	rules     workflow.Rules
	log       zerolog.Logger
}

// NewBulletinWorkflowService creates a new BulletinWorkflowService.
func NewBulletinWorkflowService(bulletins BulletinStore, dir Directory, rules workflow.Rules, log zerolog.Logger) *BulletinWorkflowService {
	return &BulletinWorkflowService{
		bulletins: bulletins,
		dir:       dir,
		resolver:  NewAssignmentResolver(dir),
		rules:     rules,
		log:       log,
	}
}

// RequestTransition validates and commits one bulletin transition.
func (s *BulletinWorkflowService) RequestTransition(ctx context.Context, req BulletinTransitionRequest) (*BulletinTransitionResult, error) {
	bulletin, err := s.bulletins.GetByID(ctx, req.BulletinID)
	if err != nil {
		return nil, err
	}

	actor, err := s.dir.GetUser(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsActive {
		return nil, workflow.New(workflow.CodeInactiveUser, "actor account is deactivated")
	}

	edge, err := workflow.FindBulletinEdge(bulletin.Status, req.Target, actor.Role, s.rules)
	if err != nil {
		return nil, err
	}

	if bulletin.Status == workflow.BulletinStatusDraft && len(bulletin.Stories) == 0 {
		return nil, workflow.InvalidInput("stories", "a bulletin needs at least one story before review")
	}

	var assignee *repository.User
	if edge.Assignment != workflow.AssignNone {
		id := req.AssigneeID
		if (id == nil || *id == "") && edge.ReuseExisting {
			id = bulletin.ReviewerID
		}
		if id == nil || *id == "" {
			return nil, workflow.MissingAssignment("assignee_id")
		}
		assignee, err = s.resolver.Resolve(ctx, *id, edge.AssigneeRoles)
		if err != nil {
			return nil, err
		}
	}

	change := &repository.BulletinTransition{
		Status:  req.Target,
		ActorID: actor.ID,
		History: &repository.HistoryEntry{
			EntityType: repository.EntityTypeBulletin,
			EntityID:   bulletin.ID,
			FromStatus: string(bulletin.Status),
			ToStatus:   string(req.Target),
			ActorID:    actor.ID,
			Comment:    req.Comment,
		},
	}

	// Reviewer stays set through the review cycle; published bulletins
	// record who published them.
	change.ReviewerID = bulletin.ReviewerID
	if assignee != nil {
		id := assignee.ID
		change.ReviewerID = &id
	}
	if req.Target == workflow.BulletinStatusPublished {
		id := actor.ID
		change.PublisherID = &id
		change.ReviewerID = nil
	}
	if req.Target == workflow.BulletinStatusArchived {
		change.ReviewerID = nil
	}

	updated, err := s.bulletins.ApplyTransition(ctx, bulletin.ID, bulletin.Status, change)
	if err != nil {
		return nil, err
	}

	var intents []workflow.NotificationIntent
	if assignee != nil {
		intents = append(intents, workflow.NotificationIntent{
			Type:        workflow.IntentAssigned,
			RecipientID: assignee.ID,
			EntityType:  repository.EntityTypeBulletin,
			EntityID:    updated.ID,
		})
	}
	switch updated.Status {
	case workflow.BulletinStatusNeedsRevision:
		intents = append(intents, workflow.NotificationIntent{
			Type:        workflow.IntentRevisionRequested,
			RecipientID: updated.AuthorID,
			EntityType:  repository.EntityTypeBulletin,
			EntityID:    updated.ID,
		})
	case workflow.BulletinStatusPublished:
		intents = append(intents, workflow.NotificationIntent{
			Type:        workflow.IntentPublished,
			RecipientID: updated.AuthorID,
			EntityType:  repository.EntityTypeBulletin,
			EntityID:    updated.ID,
		})
	}

	affected := []string{updated.AuthorID}
	if assignee != nil {
		affected = append(affected, assignee.ID)
	}

	s.log.Info().
		Str("bulletin_id", updated.ID).
		Str("from_status", string(bulletin.Status)).
		Str("to_status", string(updated.Status)).
		Str("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("Bulletin transition committed")

	return &BulletinTransitionResult{
		Bulletin:    updated,
		Intents:     intents,
		Invalidates: workflow.InvalidationKeys(repository.EntityTypeBulletin, updated.ID, bulletin.Status, updated.Status, affected...),
	}, nil
}

// LegalTransitions returns the statuses the actor may move the bulletin to.
func (s *BulletinWorkflowService) LegalTransitions(ctx context.Context, bulletinID, actorID string) ([]workflow.BulletinStatus, error) {
	bulletin, err := s.bulletins.GetByID(ctx, bulletinID)
	if err != nil {
		return nil, err
	}
	actor, err := s.dir.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsActive {
		return nil, workflow.New(workflow.CodeInactiveUser, "actor account is deactivated")
	}
	return workflow.LegalBulletinTransitions(bulletin.Status, actor.Role, s.rules), nil
}
