package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// BulletinService handles bulletin content operations.
type BulletinService struct {
	bulletinRepo *repository.BulletinRepository
	historyRepo  *repository.HistoryRepository
	dir          Directory
	log          zerolog.Logger
}

// NewBulletinService creates a new BulletinService.
func NewBulletinService(
	bulletinRepo *repository.BulletinRepository,
	historyRepo *repository.HistoryRepository,
	dir Directory,
	log zerolog.Logger,
) *BulletinService {
	return &BulletinService{
		bulletinRepo: bulletinRepo,
		historyRepo:  historyRepo,
		dir:          dir,
		log:          log,
	}
}

// CreateBulletinRequest represents a create bulletin request.
type CreateBulletinRequest struct {
	Title       string
	IntroText   string
	OutroText   string
	BroadcastAt *time.Time
	AuthorID    string
}

// CreateBulletin creates a new draft bulletin.
func (s *BulletinService) CreateBulletin(ctx context.Context, req *CreateBulletinRequest) (*repository.Bulletin, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, workflow.InvalidInput("title", "a title is required")
	}

	author, err := s.dir.GetUser(ctx, req.AuthorID)
	if err != nil {
		return nil, err
	}
	if !author.IsActive {
		return nil, workflow.New(workflow.CodeInactiveUser, "author account is deactivated")
	}

	bulletin := &repository.Bulletin{
		Title:       req.Title,
		IntroText:   req.IntroText,
		OutroText:   req.OutroText,
		BroadcastAt: req.BroadcastAt,
		Status:      workflow.BulletinStatusDraft,
		AuthorID:    author.ID,
	}
	if err := s.bulletinRepo.Create(ctx, bulletin); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("bulletin_id", bulletin.ID).
		Str("author_id", author.ID).
		Msg("Bulletin created")

	return bulletin, nil
}

// BulletinDetail bundles a bulletin with its transition history.
type BulletinDetail struct {
	Bulletin *repository.Bulletin       `json:"bulletin"`
	History  []*repository.HistoryEntry `json:"history"`
}

// GetBulletin returns a bulletin with its ordered stories and history.
func (s *BulletinService) GetBulletin(ctx context.Context, id string) (*BulletinDetail, error) {
	bulletin, err := s.bulletinRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.historyRepo.ListForEntity(ctx, repository.EntityTypeBulletin, id)
	if err != nil {
		return nil, err
	}
	return &BulletinDetail{Bulletin: bulletin, History: history}, nil
}

// ListBulletins lists bulletins with pagination.
func (s *BulletinService) ListBulletins(ctx context.Context, status *workflow.BulletinStatus, page, pageSize int) ([]*repository.Bulletin, int64, error) {
	offset := (page - 1) * pageSize
	return s.bulletinRepo.List(ctx, status, pageSize, offset)
}

// SetStories replaces a bulletin's ordered story list. Positions must be
// unique and stories must be distinct.
func (s *BulletinService) SetStories(ctx context.Context, bulletinID string, storyIDs []string) error {
	seen := make(map[string]bool, len(storyIDs))
	stories := make([]*repository.BulletinStory, 0, len(storyIDs))
	for i, id := range storyIDs {
		if seen[id] {
			return workflow.InvalidInput("story_ids", "a story can appear in a bulletin only once")
		}
		seen[id] = true
		stories = append(stories, &repository.BulletinStory{StoryID: id, Position: i + 1})
	}
	return s.bulletinRepo.SetStories(ctx, bulletinID, stories)
}
