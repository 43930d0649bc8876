package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

func ptr(s string) *string { return &s }

func testUsers() []*repository.User {
	return []*repository.User{
		{ID: "u-intern", DisplayName: "Asha", Role: workflow.RoleIntern, IsActive: true},
		{ID: "u-journalist", DisplayName: "Ben", Role: workflow.RoleJournalist, IsActive: true},
		{ID: "u-journalist-2", DisplayName: "Carol", Role: workflow.RoleJournalist, IsActive: true},
		{ID: "u-subeditor", DisplayName: "Dan", Role: workflow.RoleSubEditor, IsActive: true},
		{ID: "u-editor", DisplayName: "Eva", Role: workflow.RoleEditor, IsActive: true},
		{ID: "u-inactive", DisplayName: "Gone", Role: workflow.RoleJournalist, IsActive: false},
	}
}

func storyAt(id, authorID string, status workflow.StoryStatus, stage workflow.StoryStage) *repository.Story {
	now := time.Now()
	return &repository.Story{
		ID:        id,
		Title:     "Harbour expansion vote",
		Body:      "The council meets on Thursday.",
		Language:  "en",
		Status:    status,
		Stage:     stage,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newStoryEngine(store *fakeStoryStore, rules workflow.Rules) *StoryWorkflowService {
	return NewStoryWorkflowService(store, newFakeDirectory(testUsers()...), rules, zerolog.Nop())
}

func TestStoryWorkflow_InternReviewCycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStoryStore(storyAt("s-1", "u-intern", workflow.StoryStatusDraft, workflow.StageDraft))
	engine := newStoryEngine(store, workflow.DefaultRules())

	// The intern submits for review, picking a journalist reviewer.
	res, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID:    "s-1",
		ActorID:    "u-intern",
		Target:     workflow.StoryStatusInReview,
		AssigneeID: ptr("u-journalist"),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusInReview, res.Story.Status)
	assert.Equal(t, workflow.StageNeedsJournalistReview, res.Story.Stage)
	require.NotNil(t, res.Story.AssignedReviewerID)
	assert.Equal(t, "u-journalist", *res.Story.AssignedReviewerID)
	require.Len(t, res.Intents, 1)
	assert.Equal(t, workflow.IntentAssigned, res.Intents[0].Type)
	assert.Equal(t, "u-journalist", res.Intents[0].RecipientID)
	assert.Contains(t, res.Invalidates, "story:s-1")
	assert.Contains(t, res.Invalidates, "queue:user:u-journalist")

	// The reviewer sends it back with a comment.
	res, err = engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-journalist",
		Target:  workflow.StoryStatusNeedsRevision,
		Comment: ptr("Lead buries the vote result."),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusNeedsRevision, res.Story.Status)
	// The reviewer stays assigned through the revision pass.
	require.NotNil(t, res.Story.AssignedReviewerID)
	assert.Equal(t, "u-journalist", *res.Story.AssignedReviewerID)

	revs := store.unresolvedRevisions("s-1")
	require.Len(t, revs, 1)
	assert.Equal(t, "Lead buries the vote result.", revs[0].Comment)
	assert.Equal(t, "u-journalist", revs[0].RequestedBy)

	require.Len(t, res.Intents, 1)
	assert.Equal(t, workflow.IntentRevisionRequested, res.Intents[0].Type)
	assert.Equal(t, "u-intern", res.Intents[0].RecipientID)

	// The intern resubmits without naming a reviewer: the existing one is
	// reused and the open revision request is resolved.
	res, err = engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-intern",
		Target:  workflow.StoryStatusInReview,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusInReview, res.Story.Status)
	assert.Equal(t, "u-journalist", *res.Story.AssignedReviewerID)
	assert.Empty(t, store.unresolvedRevisions("s-1"))

	history := store.historyFor("s-1")
	require.Len(t, history, 3)
	assert.Equal(t, "draft", history[0].FromStatus)
	assert.Equal(t, "in_review", history[0].ToStatus)
	assert.Equal(t, "in_review", history[1].FromStatus)
	assert.Equal(t, "needs_revision", history[1].ToStatus)
	assert.Equal(t, "needs_revision", history[2].FromStatus)
	assert.Equal(t, "in_review", history[2].ToStatus)
}

func TestStoryWorkflow_IllegalTransitionWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStoryStore(storyAt("s-1", "u-intern", workflow.StoryStatusDraft, workflow.StageDraft))
	engine := newStoryEngine(store, workflow.DefaultRules())

	before := store.snapshot("s-1")
	_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-intern",
		Target:  workflow.StoryStatusPublished,
	})
	assert.Equal(t, workflow.CodeIllegalTransition, workflow.CodeOf(err))
	assert.Equal(t, before, store.snapshot("s-1"))
	assert.Empty(t, store.historyFor("s-1"))
}

func TestStoryWorkflow_MissingAssignment(t *testing.T) {
	ctx := context.Background()
	store := newFakeStoryStore(storyAt("s-1", "u-intern", workflow.StoryStatusDraft, workflow.StageDraft))
	engine := newStoryEngine(store, workflow.DefaultRules())

	_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-intern",
		Target:  workflow.StoryStatusInReview,
	})
	assert.Equal(t, workflow.CodeMissingAssignment, workflow.CodeOf(err))
	assert.Empty(t, store.historyFor("s-1"))
	assert.Equal(t, workflow.StoryStatusDraft, store.snapshot("s-1").Status)
}

func TestStoryWorkflow_AssigneeValidation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		assignee string
		want     workflow.Code
	}{
		{"reviewer must hold the reviewer role", "u-subeditor", workflow.CodeRoleMismatch},
		{"deactivated users cannot be assigned", "u-inactive", workflow.CodeInactiveUser},
		{"unknown users cannot be assigned", "u-nobody", workflow.CodeInvalidAssignee},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStoryStore(storyAt("s-1", "u-intern", workflow.StoryStatusDraft, workflow.StageDraft))
			engine := newStoryEngine(store, workflow.DefaultRules())

			_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
				StoryID:    "s-1",
				ActorID:    "u-intern",
				Target:     workflow.StoryStatusInReview,
				AssigneeID: ptr(tc.assignee),
			})
			assert.Equal(t, tc.want, workflow.CodeOf(err))
			assert.Empty(t, store.historyFor("s-1"))
		})
	}
}

func TestStoryWorkflow_InactiveActor(t *testing.T) {
	ctx := context.Background()
	store := newFakeStoryStore(storyAt("s-1", "u-inactive", workflow.StoryStatusDraft, workflow.StageDraft))
	engine := newStoryEngine(store, workflow.DefaultRules())

	_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID:    "s-1",
		ActorID:    "u-inactive",
		Target:     workflow.StoryStatusPendingApproval,
		AssigneeID: ptr("u-subeditor"),
	})
	assert.Equal(t, workflow.CodeInactiveUser, workflow.CodeOf(err))
}

func TestStoryWorkflow_AnyQualifiedRoleMayAct(t *testing.T) {
	ctx := context.Background()
	story := storyAt("s-1", "u-intern", workflow.StoryStatusInReview, workflow.StageNeedsJournalistReview)
	story.AssignedReviewerID = ptr("u-journalist")
	store := newFakeStoryStore(story)
	engine := newStoryEngine(store, workflow.DefaultRules())

	// A different journalist than the assigned reviewer sends the story
	// back: authorization is by role set, not assignment identity.
	res, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-journalist-2",
		Target:  workflow.StoryStatusNeedsRevision,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusNeedsRevision, res.Story.Status)

	revs := store.unresolvedRevisions("s-1")
	require.Len(t, revs, 1)
	assert.Equal(t, "u-journalist-2", revs[0].RequestedBy)
}

func TestStoryWorkflow_ApproveAndPublish(t *testing.T) {
	ctx := context.Background()
	story := storyAt("s-1", "u-journalist", workflow.StoryStatusPendingApproval, workflow.StageNeedsSubEditorApproval)
	story.AssignedApproverID = ptr("u-subeditor")
	store := newFakeStoryStore(story)
	engine := newStoryEngine(store, workflow.DefaultRules())

	res, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-subeditor",
		Target:  workflow.StoryStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusApproved, res.Story.Status)
	// Approval is done; nothing should sit in anyone's queue.
	assert.Nil(t, res.Story.AssignedReviewerID)
	assert.Nil(t, res.Story.AssignedApproverID)

	_, err = engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-subeditor",
		Target:  workflow.StoryStatusReadyToPublish,
	})
	require.NoError(t, err)

	// Journalists sit below the default publish gate.
	_, err = engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-journalist",
		Target:  workflow.StoryStatusPublished,
	})
	assert.Equal(t, workflow.CodeIllegalTransition, workflow.CodeOf(err))

	res, err = engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-subeditor",
		Target:  workflow.StoryStatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusPublished, res.Story.Status)
	assert.Equal(t, workflow.StagePublished, res.Story.Stage)
	assert.NotNil(t, res.Story.PublishedAt)
	require.Len(t, res.Intents, 1)
	assert.Equal(t, workflow.IntentPublished, res.Intents[0].Type)
	assert.Equal(t, "u-journalist", res.Intents[0].RecipientID)
}

func TestStoryWorkflow_PublishGateConfigurable(t *testing.T) {
	ctx := context.Background()
	story := storyAt("s-1", "u-journalist", workflow.StoryStatusReadyToPublish, workflow.StageReadyToPublish)
	store := newFakeStoryStore(story)
	engine := newStoryEngine(store, workflow.Rules{PublishMinRole: workflow.RoleEditor})

	_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-subeditor",
		Target:  workflow.StoryStatusPublished,
	})
	assert.Equal(t, workflow.CodeIllegalTransition, workflow.CodeOf(err))

	res, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-editor",
		Target:  workflow.StoryStatusPublished,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusPublished, res.Story.Status)
}

func TestStoryWorkflow_TranslationPath(t *testing.T) {
	ctx := context.Background()
	story := storyAt("s-1", "u-journalist", workflow.StoryStatusApproved, workflow.StageApproved)
	store := newFakeStoryStore(story)
	engine := newStoryEngine(store, workflow.DefaultRules())

	// Target language is mandatory for the translation handoff.
	_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID:    "s-1",
		ActorID:    "u-subeditor",
		Target:     workflow.StoryStatusPendingTranslation,
		AssigneeID: ptr("u-journalist-2"),
	})
	assert.Equal(t, workflow.CodeInvalidInput, workflow.CodeOf(err))
	assert.Empty(t, store.historyFor("s-1"))

	res, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID:        "s-1",
		ActorID:        "u-subeditor",
		Target:         workflow.StoryStatusPendingTranslation,
		AssigneeID:     ptr("u-journalist-2"),
		TargetLanguage: ptr("sw"),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StoryStatusPendingTranslation, res.Story.Status)
	assert.Equal(t, workflow.StageAwaitingTranslation, res.Story.Stage)

	child := res.TranslationStory
	require.NotNil(t, child)
	assert.True(t, child.IsTranslation)
	assert.Equal(t, workflow.StoryStatusDraft, child.Status)
	assert.Equal(t, "sw", child.Language)
	assert.Equal(t, "u-journalist-2", child.AuthorID)
	require.NotNil(t, child.OriginalStoryID)
	assert.Equal(t, "s-1", *child.OriginalStoryID)

	// Translation delivered: the story is ready, marked as translated.
	res, err = engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID: "s-1",
		ActorID: "u-subeditor",
		Target:  workflow.StoryStatusReadyToPublish,
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StageTranslated, res.Story.Stage)
}

func TestStoryWorkflow_ConcurrentTransitionsOneWins(t *testing.T) {
	ctx := context.Background()
	story := storyAt("s-1", "u-journalist", workflow.StoryStatusPendingApproval, workflow.StageNeedsSubEditorApproval)
	store := newFakeStoryStore(story)
	engine := newStoryEngine(store, workflow.DefaultRules())

	// Hold both attempts until each has read the same pending_approval
	// snapshot, then let them race to the compare-and-set.
	var barrier sync.WaitGroup
	barrier.Add(2)
	store.afterLoad = func() {
		barrier.Done()
		barrier.Wait()
	}

	errs := make(chan error, 2)
	for _, actor := range []string{"u-subeditor", "u-editor"} {
		go func(actor string) {
			_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
				StoryID: "s-1",
				ActorID: actor,
				Target:  workflow.StoryStatusApproved,
			})
			errs <- err
		}(actor)
	}

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, workflow.CodeConcurrentModification, workflow.CodeOf(err))
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, store.historyFor("s-1"), 1)
	assert.Equal(t, workflow.StoryStatusApproved, store.snapshot("s-1").Status)
}

func TestStoryWorkflow_FailedApplyWritesNothing(t *testing.T) {
	ctx := context.Background()
	story := storyAt("s-1", "u-intern", workflow.StoryStatusDraft, workflow.StageDraft)
	store := newFakeStoryStore(story)
	store.applyErr = workflow.New(workflow.CodeInternal, "connection reset")
	engine := newStoryEngine(store, workflow.DefaultRules())

	before := store.snapshot("s-1")
	_, err := engine.RequestTransition(ctx, StoryTransitionRequest{
		StoryID:    "s-1",
		ActorID:    "u-intern",
		Target:     workflow.StoryStatusInReview,
		AssigneeID: ptr("u-journalist"),
	})
	assert.Equal(t, workflow.CodeInternal, workflow.CodeOf(err))
	assert.Equal(t, before, store.snapshot("s-1"))
	assert.Empty(t, store.historyFor("s-1"))
	assert.Empty(t, store.unresolvedRevisions("s-1"))
}

func TestStoryWorkflow_LegalTransitions(t *testing.T) {
	ctx := context.Background()
	store := newFakeStoryStore(storyAt("s-1", "u-intern", workflow.StoryStatusDraft, workflow.StageDraft))
	engine := newStoryEngine(store, workflow.DefaultRules())

	targets, err := engine.LegalTransitions(ctx, "s-1", "u-intern")
	require.NoError(t, err)
	assert.Equal(t, []workflow.StoryStatus{workflow.StoryStatusInReview}, targets)

	targets, err = engine.LegalTransitions(ctx, "s-1", "u-journalist")
	require.NoError(t, err)
	assert.Equal(t, []workflow.StoryStatus{workflow.StoryStatusPendingApproval}, targets)

	_, err = engine.LegalTransitions(ctx, "s-1", "u-inactive")
	assert.Equal(t, workflow.CodeInactiveUser, workflow.CodeOf(err))

	_, err = engine.LegalTransitions(ctx, "s-missing", "u-intern")
	assert.Equal(t, workflow.CodeNotFound, workflow.CodeOf(err))
}
