package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// StoryStore is the persistence collaborator for stories. ApplyTransition
// must be atomic: the compare-and-set status update and every associated
// write (history, revision requests, translation child) either all commit
// or none do.
type StoryStore interface {
	GetByID(ctx context.Context, id string) (*repository.Story, error)
	ApplyTransition(ctx context.Context, id string, expected workflow.StoryStatus, change *repository.StoryTransition) (*repository.Story, error)
}

// StoryTransitionRequest is one actor-initiated transition attempt.
type StoryTransitionRequest struct {
	StoryID        string
	ActorID        string
	Target         workflow.StoryStatus
	AssigneeID     *string
	Comment        *string
	TargetLanguage *string
}

// StoryTransitionResult is the committed outcome of a transition: the
// updated story, any translation child created alongside it, the
// notification intents for the caller to dispatch, and the read-model keys
// the transition invalidates.
type StoryTransitionResult struct {
	Story            *repository.Story             `json:"story"`
	TranslationStory *repository.Story             `json:"translation_story,omitempty"`
	Intents          []workflow.NotificationIntent `json:"intents"`
	Invalidates      []string                      `json:"invalidates"`
}

// StoryWorkflowService is the workflow engine for stories. It owns every
// status/stage/assignment mutation; nothing else writes those fields.
type StoryWorkflowService struct {
	stories  StoryStore
	dir      Directory
	resolver *AssignmentResolver
	rules    workflow.Rules
	log      zerolog.Logger
}

// NewStoryWorkflowService creates a new StoryWorkflowService.
func NewStoryWorkflowService(stories StoryStore, dir Directory, rules workflow.Rules, log zerolog.Logger) *StoryWorkflowService {
	return &StoryWorkflowService{
		stories:  stories,
		dir:      dir,
		resolver: NewAssignmentResolver(dir),
		rules:    rules,
		log:      log,
	}
}

// RequestTransition validates and commits one transition. The engine never
// retries: on CONCURRENT_MODIFICATION the caller re-reads and may retry
// once. It performs no I/O beyond the store and directory; notification
// delivery belongs to whoever consumes the returned intents.
func (s *StoryWorkflowService) RequestTransition(ctx context.Context, req StoryTransitionRequest) (*StoryTransitionResult, error) {
	story, err := s.stories.GetByID(ctx, req.StoryID)
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

	edge, err := workflow.FindStoryEdge(story.Status, req.Target, actor.Role, s.rules)
	if err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, story, edge, req.AssigneeID)
	if err != nil {
		return nil, err
	}

	change := &repository.StoryTransition{
		Status:  req.Target,
		Stage:   workflow.StageFor(story.Status, req.Target),
		ActorID: actor.ID,
		Publish: req.Target == workflow.StoryStatusPublished,
		History: &repository.HistoryEntry{
			EntityType: repository.EntityTypeStory,
			EntityID:   story.ID,
			FromStatus: string(story.Status),
			ToStatus:   string(req.Target),
			ActorID:    actor.ID,
			Comment:    req.Comment,
		},
		ResolveRevisions: edge.ResolvesRevisions,
	}
	change.ReviewerID, change.ApproverID = nextAssignments(story, req.Target, edge, assignee)

	if edge.CreatesRevisionRequest {
		comment := ""
		if req.Comment != nil {
			comment = *req.Comment
		}
		change.RevisionComment = &comment
	}

	if edge.CreatesTranslation {
		child, err := translationChild(story, req.TargetLanguage, assignee)
		if err != nil {
			return nil, err
		}
		change.TranslationChild = child
	}

	updated, err := s.stories.ApplyTransition(ctx, story.ID, story.Status, change)
	if err != nil {
		return nil, err
	}

	intents := storyIntents(updated, assignee)

	affected := []string{updated.AuthorID}
	if assignee != nil {
		affected = append(affected, assignee.ID)
	}
	result := &StoryTransitionResult{
		Story:            updated,
		TranslationStory: change.TranslationChild,
		Intents:          intents,
		Invalidates:      workflow.InvalidationKeys(repository.EntityTypeStory, updated.ID, story.Status, updated.Status, affected...),
	}

	s.log.Info().
		Str("story_id", updated.ID).
		Str("from_status", string(story.Status)).
		Str("to_status", string(updated.Status)).
		Str("stage", string(updated.Stage)).
		Str("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("Story transition committed")

	return result, nil
}

// LegalTransitions returns the statuses the actor may move the story to,
// for the caller to render as available actions.
func (s *StoryWorkflowService) LegalTransitions(ctx context.Context, storyID, actorID string) ([]workflow.StoryStatus, error) {
	story, err := s.stories.GetByID(ctx, storyID)
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
	return workflow.LegalStoryTransitions(story.Status, actor.Role, s.rules), nil
}

// resolveAssignee applies the edge's assignment requirement: resolve the
// provided candidate, fall back to the entity's existing assignment on
// resubmission edges, and fail with MISSING_ASSIGNMENT when neither exists.
func (s *StoryWorkflowService) resolveAssignee(ctx context.Context, story *repository.Story, edge *workflow.StoryEdge, candidateID *string) (*repository.User, error) {
	if edge.Assignment == workflow.AssignNone {
		return nil, nil
	}

	id := candidateID
	if id == nil || *id == "" {
		if edge.ReuseExisting {
			switch edge.Assignment {
			case workflow.AssignReviewer:
				id = story.AssignedReviewerID
			case workflow.AssignApprover:
				id = story.AssignedApproverID
			}
		}
		if id == nil || *id == "" {
			return nil, workflow.MissingAssignment("assignee_id")
		}
	}
	return s.resolver.Resolve(ctx, *id, edge.AssigneeRoles)
}

// nextAssignments computes the post-transition assignment fields: set the
// one the edge binds, keep assignments through send-backs (the same people
// re-review), and clear fields once their phase is over. The reviewer is
// kept past review only when the same person continues as approver.
func nextAssignments(story *repository.Story, target workflow.StoryStatus, edge *workflow.StoryEdge, assignee *repository.User) (reviewerID, approverID *string) {
	reviewerID = story.AssignedReviewerID
	approverID = story.AssignedApproverID

	switch edge.Assignment {
	case workflow.AssignReviewer:
		id := assignee.ID
		reviewerID = &id
	case workflow.AssignApprover:
		id := assignee.ID
		approverID = &id
	}

	switch target {
	case workflow.StoryStatusInReview:
		approverID = nil
	case workflow.StoryStatusNeedsRevision:
		// Keep both: whoever sent the story back handles the next pass.
	case workflow.StoryStatusPendingApproval:
		if reviewerID != nil && (approverID == nil || *reviewerID != *approverID) {
			reviewerID = nil
		}
	default:
		// Approval is complete; assignments no longer drive anyone's queue.
		reviewerID = nil
		approverID = nil
	}
	return reviewerID, approverID
}

// translationChild builds the draft story the translation pass works on.
// The translator becomes its author.
func translationChild(parent *repository.Story, targetLanguage *string, translator *repository.User) (*repository.Story, error) {
	if targetLanguage == nil || *targetLanguage == "" {
		return nil, workflow.InvalidInput("target_language", "a target language is required")
	}

	return &repository.Story{
		Title:         parent.Title,
		Body:          parent.Body,
		Category:      parent.Category,
		Language:      *targetLanguage,
		IsTranslation: true,
		Status:        workflow.StoryStatusDraft,
		Stage:         workflow.StageDraft,
		AuthorID:      translator.ID,
	}, nil
}

// storyIntents derives the notification intents a committed transition
// produces.
func storyIntents(story *repository.Story, assignee *repository.User) []workflow.NotificationIntent {
	var intents []workflow.NotificationIntent

	if assignee != nil {
		intents = append(intents, workflow.NotificationIntent{
			Type:        workflow.IntentAssigned,
			RecipientID: assignee.ID,
			EntityType:  repository.EntityTypeStory,
			EntityID:    story.ID,
		})
	}

	switch story.Status {
	case workflow.StoryStatusNeedsRevision:
		intents = append(intents, workflow.NotificationIntent{
			Type:        workflow.IntentRevisionRequested,
			RecipientID: story.AuthorID,
			EntityType:  repository.EntityTypeStory,
			EntityID:    story.ID,
		})
	case workflow.StoryStatusPublished:
		intents = append(intents, workflow.NotificationIntent{
			Type:        workflow.IntentPublished,
			RecipientID: story.AuthorID,
			EntityType:  repository.EntityTypeStory,
			EntityID:    story.ID,
		})
	}
	return intents
}
