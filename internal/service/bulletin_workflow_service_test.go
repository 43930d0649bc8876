package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

func bulletinAt(id, authorID string, status workflow.BulletinStatus, stories int) *repository.Bulletin {
	now := time.Now()
	b := &repository.Bulletin{
		ID:        id,
		Title:     "Morning bulletin",
		IntroText: "Good morning.",
		Status:    status,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := 0; i < stories; i++ {
		b.Stories = append(b.Stories, &repository.BulletinStory{
			BulletinID: id, StoryID: "s-slot", Position: i + 1,
		})
	}
	return b
}

func newBulletinEngine(store *fakeBulletinStore, rules workflow.Rules) *BulletinWorkflowService {
	return NewBulletinWorkflowService(store, newFakeDirectory(testUsers()...), rules, zerolog.Nop())
}

func TestBulletinWorkflow_SubmitRequiresReviewer(t *testing.T) {
	ctx := context.Background()
	store := newFakeBulletinStore(bulletinAt("b-1", "u-journalist", workflow.BulletinStatusDraft, 2))
	engine := newBulletinEngine(store, workflow.DefaultRules())

	_, err := engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-journalist",
		Target:     workflow.BulletinStatusInReview,
	})
	assert.Equal(t, workflow.CodeMissingAssignment, workflow.CodeOf(err))
	assert.Empty(t, store.history)

	res, err := engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-journalist",
		Target:     workflow.BulletinStatusInReview,
		AssigneeID: ptr("u-subeditor"),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.BulletinStatusInReview, res.Bulletin.Status)
	require.NotNil(t, res.Bulletin.ReviewerID)
	assert.Equal(t, "u-subeditor", *res.Bulletin.ReviewerID)
	require.Len(t, res.Intents, 1)
	assert.Equal(t, workflow.IntentAssigned, res.Intents[0].Type)
}

func TestBulletinWorkflow_EmptyBulletinCannotLeaveDraft(t *testing.T) {
	ctx := context.Background()
	store := newFakeBulletinStore(bulletinAt("b-1", "u-journalist", workflow.BulletinStatusDraft, 0))
	engine := newBulletinEngine(store, workflow.DefaultRules())

	_, err := engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-journalist",
		Target:     workflow.BulletinStatusInReview,
		AssigneeID: ptr("u-subeditor"),
	})
	assert.Equal(t, workflow.CodeInvalidInput, workflow.CodeOf(err))
	assert.Empty(t, store.history)
}

func TestBulletinWorkflow_ReviewCycleAndPublish(t *testing.T) {
	ctx := context.Background()
	bulletin := bulletinAt("b-1", "u-journalist", workflow.BulletinStatusInReview, 2)
	bulletin.ReviewerID = ptr("u-subeditor")
	store := newFakeBulletinStore(bulletin)
	engine := newBulletinEngine(store, workflow.DefaultRules())

	res, err := engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-subeditor",
		Target:     workflow.BulletinStatusNeedsRevision,
		Comment:    ptr("Outro runs too long."),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.BulletinStatusNeedsRevision, res.Bulletin.Status)
	require.Len(t, res.Intents, 1)
	assert.Equal(t, workflow.IntentRevisionRequested, res.Intents[0].Type)
	assert.Equal(t, "u-journalist", res.Intents[0].RecipientID)

	// Resubmission reuses the existing reviewer.
	res, err = engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-journalist",
		Target:     workflow.BulletinStatusInReview,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-subeditor", *res.Bulletin.ReviewerID)

	res, err = engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-subeditor",
		Target:     workflow.BulletinStatusApproved,
	})
	require.NoError(t, err)

	res, err = engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-subeditor",
		Target:     workflow.BulletinStatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.BulletinStatusPublished, res.Bulletin.Status)
	require.NotNil(t, res.Bulletin.PublisherID)
	assert.Equal(t, "u-subeditor", *res.Bulletin.PublisherID)
	assert.Nil(t, res.Bulletin.ReviewerID)

	require.Len(t, store.history, 4)
	assert.Equal(t, "approved", store.history[3].FromStatus)
	assert.Equal(t, "published", store.history[3].ToStatus)
}

func TestBulletinWorkflow_PublishGateConfigurable(t *testing.T) {
	ctx := context.Background()
	store := newFakeBulletinStore(bulletinAt("b-1", "u-journalist", workflow.BulletinStatusApproved, 2))
	engine := newBulletinEngine(store, workflow.Rules{PublishMinRole: workflow.RoleEditor})

	_, err := engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-subeditor",
		Target:     workflow.BulletinStatusPublished,
	})
	assert.Equal(t, workflow.CodeIllegalTransition, workflow.CodeOf(err))

	res, err := engine.RequestTransition(ctx, BulletinTransitionRequest{
		BulletinID: "b-1",
		ActorID:    "u-editor",
		Target:     workflow.BulletinStatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-editor", *res.Bulletin.PublisherID)
}

func TestBulletinWorkflow_StaleStatusConflicts(t *testing.T) {
	ctx := context.Background()
	store := newFakeBulletinStore(bulletinAt("b-1", "u-journalist", workflow.BulletinStatusApproved, 2))

	// A competing publish lands between this actor's read and write.
	_, err := store.ApplyTransition(ctx, "b-1", workflow.BulletinStatusApproved, &repository.BulletinTransition{
		Status:      workflow.BulletinStatusPublished,
		PublisherID: ptr("u-editor"),
		ActorID:     "u-editor",
		History: &repository.HistoryEntry{
			EntityType: repository.EntityTypeBulletin,
			EntityID:   "b-1",
			FromStatus: "approved",
			ToStatus:   "published",
			ActorID:    "u-editor",
		},
	})
	require.NoError(t, err)

	_, err = store.ApplyTransition(ctx, "b-1", workflow.BulletinStatusApproved, &repository.BulletinTransition{
		Status:  workflow.BulletinStatusPublished,
		ActorID: "u-subeditor",
		History: &repository.HistoryEntry{
			EntityType: repository.EntityTypeBulletin,
			EntityID:   "b-1",
			FromStatus: "approved",
			ToStatus:   "published",
			ActorID:    "u-subeditor",
		},
	})
	assert.Equal(t, workflow.CodeConcurrentModification, workflow.CodeOf(err))
	assert.Len(t, store.history, 1)
}

func TestBulletinWorkflow_LegalTransitions(t *testing.T) {
	ctx := context.Background()
	store := newFakeBulletinStore(bulletinAt("b-1", "u-journalist", workflow.BulletinStatusInReview, 2))
	engine := newBulletinEngine(store, workflow.DefaultRules())

	targets, err := engine.LegalTransitions(ctx, "b-1", "u-subeditor")
	require.NoError(t, err)
	assert.ElementsMatch(t, []workflow.BulletinStatus{
		workflow.BulletinStatusApproved,
		workflow.BulletinStatusNeedsRevision,
	}, targets)

	targets, err = engine.LegalTransitions(ctx, "b-1", "u-intern")
	require.NoError(t, err)
	assert.Empty(t, targets)
}
