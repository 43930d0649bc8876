package repository

import (
	"time"

	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// User is the directory read model consumed by the assignment resolver.
type User struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email"`
	Role        workflow.Role `json:"role"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Story is the primary editorial entity. Workflow fields (status, stage,
// assignments) are mutated only through ApplyTransition.
type Story struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Category           *string              `json:"category,omitempty"`
	Language           string               `json:"language"`
	TargetLanguage     *string              `json:"target_language,omitempty"`
	IsTranslation      bool                 `json:"is_translation"`
	OriginalStoryID    *string              `json:"original_story_id,omitempty"`
	Status             workflow.StoryStatus `json:"status"`
	Stage              workflow.StoryStage  `json:"stage"`
	AuthorID           string               `json:"author_id"`
	AssignedReviewerID *string              `json:"assigned_reviewer_id,omitempty"`
	AssignedApproverID *string              `json:"assigned_approver_id,omitempty"`
	PublishedAt        *time.Time           `json:"published_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedBy          *string              `json:"updated_by,omitempty"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// StoryFilter narrows story listings.
type StoryFilter struct {
	Status     *workflow.StoryStatus
	Stage      *workflow.StoryStage
	AuthorID   *string
	AssigneeID *string // matches reviewer or approver
	Language   *string
	Category   *string
}

// StoryTransition is the full set of row changes one committed transition
// applies. The repository writes it together with the history entry (and
// any revision-request or translation-child records) in a single
// transaction, conditioned on the row's status being unchanged.
type StoryTransition struct {
	Status     workflow.StoryStatus
	Stage      workflow.StoryStage
	ReviewerID *string
	ApproverID *string
	ActorID    string
	Publish    bool // stamps published_at

	History *HistoryEntry

	// RevisionComment, when set, records a send-back as a revision request.
	RevisionComment *string
	// ResolveRevisions stamps resolved_at on the story's unresolved
	// revision requests (resubmission).
	ResolveRevisions bool
	// TranslationChild, when set, is created in the same transaction.
	TranslationChild *Story
}

const (
	EntityTypeStory    = "story"
	EntityTypeBulletin = "bulletin"
)

// HistoryEntry is one immutable record in the workflow audit ledger.
type HistoryEntry struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RevisionRequest is a reviewer's send-back note on a story.
type RevisionRequest struct {
	ID          string     `json:"id"`
	StoryID     string     `json:"story_id"`
	RequestedBy string     `json:"requested_by"`
	Comment     string     `json:"comment"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// Bulletin is a scheduled-broadcast aggregate of ordered story references.
type Bulletin struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	IntroText   string                  `json:"intro_text"`
	OutroText   string                  `json:"outro_text"`
	BroadcastAt *time.Time              `json:"broadcast_at,omitempty"`
	Status      workflow.BulletinStatus `json:"status"`
	AuthorID    string                  `json:"author_id"`
	ReviewerID  *string                 `json:"reviewer_id,omitempty"`
	PublisherID *string                 `json:"publisher_id,omitempty"`
	Stories     []*BulletinStory        `json:"stories,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedBy   *string                 `json:"updated_by,omitempty"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// BulletinStory is one ordered story slot in a bulletin. Position is unique
// per bulletin.
type BulletinStory struct {
	BulletinID string `json:"bulletin_id"`
	StoryID    string `json:"story_id"`
	Position   int    `json:"position"`
}

// BulletinTransition mirrors StoryTransition for bulletins.
type BulletinTransition struct {
	Status     workflow.BulletinStatus
	ReviewerID *string
	// PublisherID is stamped on publish.
	PublisherID *string
	ActorID     string

	History *HistoryEntry
}

// AudioClip is an independent audio asset linkable to stories.
type AudioClip struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	DurationSecs int       `json:"duration_secs"`
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoryAudioLink attaches a clip to a story with provenance metadata
// (uploaded for this story vs. pulled from syndication).
type StoryAudioLink struct {
	StoryID    string    `json:"story_id"`
	ClipID     string    `json:"clip_id"`
	Provenance string    `json:"provenance"` // uploaded | syndicated
	LinkedBy   string    `json:"linked_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Announcement is a broadcast staff notice. Not part of the story/bulletin
// state machine; shares the role authority for the HIGH-priority gate.
type Announcement struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Priority  string     `json:"priority"` // low | normal | high
	Audience  string     `json:"audience"` // all | editorial | stations
	CreatedBy string     `json:"created_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
