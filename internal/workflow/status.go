package workflow

// StoryStatus is the coarse lifecycle state of a story.
type StoryStatus string

const (
	StoryStatusDraft              StoryStatus = "draft"
	StoryStatusInReview           StoryStatus = "in_review"
	StoryStatusNeedsRevision      StoryStatus = "needs_revision"
	StoryStatusPendingApproval    StoryStatus = "pending_approval"
	StoryStatusPendingTranslation StoryStatus = "pending_translation"
	StoryStatusApproved           StoryStatus = "approved"
	StoryStatusReadyToPublish     StoryStatus = "ready_to_publish"
	StoryStatusPublished          StoryStatus = "published"
	StoryStatusArchived           StoryStatus = "archived"
)

var storyStatuses = map[StoryStatus]bool{
	StoryStatusDraft:              true,
	StoryStatusInReview:           true,
	StoryStatusNeedsRevision:      true,
	StoryStatusPendingApproval:    true,
	StoryStatusPendingTranslation: true,
	StoryStatusApproved:           true,
	StoryStatusReadyToPublish:     true,
	StoryStatusPublished:          true,
	StoryStatusArchived:           true,
}

// ParseStoryStatus validates a status string from the wire.
func ParseStoryStatus(s string) (StoryStatus, error) {
	st := StoryStatus(s)
	if !storyStatuses[st] {
		return "", InvalidInput("target_status", "unknown story status '"+s+"'")
	}
	return st, nil
}

// StoryStage is the fine-grained workflow marker layered on top of status.
// It routes "things assigned to me" views; it is always derived by the
// engine, never set independently.
type StoryStage string

const (
	StageDraft                  StoryStage = "draft"
	StageNeedsJournalistReview  StoryStage = "needs_journalist_review"
	StageNeedsRevision          StoryStage = "needs_revision"
	StageNeedsSubEditorApproval StoryStage = "needs_sub_editor_approval"
	StageAwaitingTranslation    StoryStage = "awaiting_translation"
	StageApproved               StoryStage = "approved"
	StageTranslated             StoryStage = "translated"
	StageReadyToPublish         StoryStage = "ready_to_publish"
	StagePublished              StoryStage = "published"
	StageArchived               StoryStage = "archived"
)

// StageFor derives the stage for a story entering target from the given
// prior status. The only from-dependent case is READY_TO_PUBLISH, which is
// marked TRANSLATED when reached through the translation path.
func StageFor(from, target StoryStatus) StoryStage {
	switch target {
	case StoryStatusDraft:
		return StageDraft
	case StoryStatusInReview:
		return StageNeedsJournalistReview
	case StoryStatusNeedsRevision:
		return StageNeedsRevision
	case StoryStatusPendingApproval:
		return StageNeedsSubEditorApproval
	case StoryStatusPendingTranslation:
		return StageAwaitingTranslation
	case StoryStatusApproved:
		return StageApproved
	case StoryStatusReadyToPublish:
		if from == StoryStatusPendingTranslation {
			return StageTranslated
		}
		return StageReadyToPublish
	case StoryStatusPublished:
		return StagePublished
	case StoryStatusArchived:
		return StageArchived
	}
	return StageDraft
}

// BulletinStatus is the lifecycle state of a bulletin. Flatter than the
// story set: bulletins have no translation or staging path.
type BulletinStatus string

const (
	BulletinStatusDraft         BulletinStatus = "draft"
	BulletinStatusInReview      BulletinStatus = "in_review"
	BulletinStatusNeedsRevision BulletinStatus = "needs_revision"
	BulletinStatusApproved      BulletinStatus = "approved"
	BulletinStatusPublished     BulletinStatus = "published"
	BulletinStatusArchived      BulletinStatus = "archived"
)

var bulletinStatuses = map[BulletinStatus]bool{
	BulletinStatusDraft:         true,
	BulletinStatusInReview:      true,
	BulletinStatusNeedsRevision: true,
	BulletinStatusApproved:      true,
	BulletinStatusPublished:     true,
	BulletinStatusArchived:      true,
}

// ParseBulletinStatus validates a status string from the wire.
func ParseBulletinStatus(s string) (BulletinStatus, error) {
	st := BulletinStatus(s)
	if !bulletinStatuses[st] {
		return "", InvalidInput("target_status", "unknown bulletin status '"+s+"'")
	}
	return st, nil
}
