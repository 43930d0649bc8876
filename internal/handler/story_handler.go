package handler

import (
	"net/http"
	"strconv"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/service"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

type createStoryRequest struct {
	Title    string  `json:"title" validate:"required"`
	Body     string  `json:"body"`
	Category *string `json:"category"`
	Language string  `json:"language" validate:"required"`
	AuthorID string  `json:"author_id" validate:"required,uuid"`
}

// CreateStory handles create story requests.
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	var req createStoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	story, err := h.stories.CreateStory(r.Context(), &service.CreateStoryRequest{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Language: req.Language,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, story)
}

// GetStory returns a story with history and unresolved revision requests.
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.writeError(w, workflow.InvalidInput("id", "story id is required"))
		return
	}
	detail, err := h.stories.GetStory(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// ListStories lists stories with filters and pagination.
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	filter := repository.StoryFilter{}
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status, err := workflow.ParseStoryStatus(v)
		if err != nil {
			h.writeError(w, err)
			return
		}
		filter.Status = &status
	}
	if v := q.Get("author_id"); v != "" {
		filter.AuthorID = &v
	}
	if v := q.Get("assignee_id"); v != "" {
		filter.AssigneeID = &v
	}
	if v := q.Get("language"); v != "" {
		filter.Language = &v
	}
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}

	page, pageSize := pagination(r)
	stories, total, err := h.stories.ListStories(r.Context(), filter, page, pageSize)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"stories":   stories,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// PublishedFeed returns the syndication feed of published stories.
func (h *Handler) PublishedFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var language, category *string
	if v := q.Get("language"); v != "" {
		language = &v
	}
	if v := q.Get("category"); v != "" {
		category = &v
	}
	page, pageSize := pagination(r)

	stories, err := h.stories.ListPublished(r.Context(), language, category, page, pageSize)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"stories": stories, "page": page, "page_size": pageSize})
}

type storyTransitionRequest struct {
	StoryID        string  `json:"story_id" validate:"required,uuid"`
	ActorID        string  `json:"actor_id" validate:"required,uuid"`
	TargetStatus   string  `json:"target_status" validate:"required"`
	AssigneeID     *string `json:"assignee_id"`
	Comment        *string `json:"comment"`
	TargetLanguage *string `json:"target_language"`
}

// TransitionStory requests a workflow transition on a story. On
// CONCURRENT_MODIFICATION the handler retries once transparently; the engine
// itself never retries.
func (h *Handler) TransitionStory(w http.ResponseWriter, r *http.Request) {
	var req storyTransitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	target, err := workflow.ParseStoryStatus(req.TargetStatus)
	if err != nil {
		h.writeError(w, err)
		return
	}

	engineReq := service.StoryTransitionRequest{
		StoryID:        req.StoryID,
		ActorID:        req.ActorID,
		Target:         target,
		AssigneeID:     req.AssigneeID,
		Comment:        req.Comment,
		TargetLanguage: req.TargetLanguage,
	}

	result, err := h.storyFlow.RequestTransition(r.Context(), engineReq)
	if err != nil && workflow.CodeOf(err) == workflow.CodeConcurrentModification {
		result, err = h.storyFlow.RequestTransition(r.Context(), engineReq)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publisher.Dispatch(req.ActorID, result.Intents)
	h.writeJSON(w, http.StatusOK, result)
}

// StoryTransitions returns the transitions an actor may apply to a story.
func (h *Handler) StoryTransitions(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	actorID := r.URL.Query().Get("actor_id")
	if id == "" || actorID == "" {
		h.writeError(w, workflow.InvalidInput("id", "story id and actor_id are required"))
		return
	}
	targets, err := h.storyFlow.LegalTransitions(r.Context(), id, actorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"transitions": targets})
}

type updateStoryRequest struct {
	StoryID  string  `json:"story_id" validate:"required,uuid"`
	ActorID  string  `json:"actor_id" validate:"required,uuid"`
	Title    string  `json:"title" validate:"required"`
	Body     string  `json:"body"`
	Category *string `json:"category"`
}

// UpdateStoryContent edits story content (draft and needs_revision only).
func (h *Handler) UpdateStoryContent(w http.ResponseWriter, r *http.Request) {
	var req updateStoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	story, err := h.stories.UpdateContent(r.Context(), req.StoryID, req.ActorID, req.Title, req.Body, req.Category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, story)
}

type attachClipRequest struct {
	StoryID    string `json:"story_id" validate:"required,uuid"`
	ClipID     string `json:"clip_id" validate:"required,uuid"`
	Provenance string `json:"provenance" validate:"required"`
	ActorID    string `json:"actor_id" validate:"required,uuid"`
}

// AttachAudioClip links an audio clip to a story.
func (h *Handler) AttachAudioClip(w http.ResponseWriter, r *http.Request) {
	var req attachClipRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.stories.AttachAudioClip(r.Context(), req.StoryID, req.ClipID, req.Provenance, req.ActorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return page, pageSize
}
