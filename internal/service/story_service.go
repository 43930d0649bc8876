package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// StoryService handles story content operations: creation and draft edits.
// Everything touching status, stage or assignments goes through the
// workflow engine instead.
type StoryService struct {
	storyRepo    *repository.StoryRepository
	historyRepo  *repository.HistoryRepository
	revisionRepo *repository.RevisionRepository
	dir          Directory
	log          zerolog.Logger
}

// NewStoryService creates a new StoryService.
func NewStoryService(
	storyRepo *repository.StoryRepository,
	historyRepo *repository.HistoryRepository,
	revisionRepo *repository.RevisionRepository,
	dir Directory,
	log zerolog.Logger,
) *StoryService {
	return &StoryService{
		storyRepo:    storyRepo,
		historyRepo:  historyRepo,
		revisionRepo: revisionRepo,
		dir:          dir,
		log:          log,
	}
}

// CreateStoryRequest represents a create story request.
type CreateStoryRequest struct {
	Title    string
	Body     string
	Category *string
	Language string
	AuthorID string
}

// CreateStory creates a new story in draft, owned by its author.
func (s *StoryService) CreateStory(ctx context.Context, req *CreateStoryRequest) (*repository.Story, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, workflow.InvalidInput("title", "a title is required")
	}
	if req.Language == "" {
		return nil, workflow.InvalidInput("language", "a language is required")
	}

	author, err := s.dir.GetUser(ctx, req.AuthorID)
	if err != nil {
		return nil, err
	}
	if !author.IsActive {
		return nil, workflow.New(workflow.CodeInactiveUser, "author account is deactivated")
	}

	story := &repository.Story{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Language: strings.ToLower(req.Language),
		Status:   workflow.StoryStatusDraft,
		Stage:    workflow.StageDraft,
		AuthorID: author.ID,
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("story_id", story.ID).
		Str("author_id", author.ID).
		Str("language", story.Language).
		Msg("Story created")

	return story, nil
}

// StoryDetail bundles a story with its workflow context for detail views.
type StoryDetail struct {
	Story              *repository.Story             `json:"story"`
	History            []*repository.HistoryEntry    `json:"history"`
	UnresolvedRequests []*repository.RevisionRequest `json:"unresolved_requests"`
	AudioClips         []*repository.AudioClip       `json:"audio_clips"`
}

// GetStory returns a story with its history, unresolved revision requests
// and linked audio clips.
func (s *StoryService) GetStory(ctx context.Context, id string) (*StoryDetail, error) {
	story, err := s.storyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.ListForEntity(ctx, repository.EntityTypeStory, id)
	if err != nil {
		return nil, err
	}
	unresolved, err := s.revisionRepo.ListForStory(ctx, id, true)
	if err != nil {
		return nil, err
	}
	clips, err := s.storyRepo.ListAudioClips(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StoryDetail{
		Story:              story,
		History:            history,
		UnresolvedRequests: unresolved,
		AudioClips:         clips,
	}, nil
}

// ListStories lists stories with filtering and pagination.
func (s *StoryService) ListStories(ctx context.Context, filter repository.StoryFilter, page, pageSize int) ([]*repository.Story, int64, error) {
	offset := (page - 1) * pageSize
	return s.storyRepo.List(ctx, filter, pageSize, offset)
}

// ListPublished returns the syndication feed of published stories.
func (s *StoryService) ListPublished(ctx context.Context, language, category *string, page, pageSize int) ([]*repository.Story, error) {
	offset := (page - 1) * pageSize
	return s.storyRepo.ListPublished(ctx, language, category, pageSize, offset)
}

// UpdateContent edits a story's content. Only the author or an editor and
// above may edit, and only while the story is in draft or needs_revision.
func (s *StoryService) UpdateContent(ctx context.Context, id, actorID, title, body string, category *string) (*repository.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, id)
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
	if actor.ID != story.AuthorID && !actor.Role.AtLeast(workflow.RoleEditor) {
		return nil, workflow.New(workflow.CodeIllegalTransition, "only the author or an editor may edit this story")
	}
	if strings.TrimSpace(title) == "" {
		return nil, workflow.InvalidInput("title", "a title is required")
	}
	return s.storyRepo.UpdateContent(ctx, id, actor.ID, title, body, category)
}

// AttachAudioClip links an audio clip to a story.
func (s *StoryService) AttachAudioClip(ctx context.Context, storyID, clipID, provenance, actorID string) error {
	if provenance != "uploaded" && provenance != "syndicated" {
		return workflow.InvalidInput("provenance", "provenance must be 'uploaded' or 'syndicated'")
	}
	if _, err := s.storyRepo.GetByID(ctx, storyID); err != nil {
		return err
	}
	return s.storyRepo.AttachAudioClip(ctx, &repository.StoryAudioLink{
		StoryID:    storyID,
		ClipID:     clipID,
		Provenance: provenance,
		LinkedBy:   actorID,
	})
}
