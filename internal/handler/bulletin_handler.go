package handler

import (
	"net/http"
	"time"

	"github.com/onair-media/be-editorial-workflow/internal/service"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

type createBulletinRequest struct {
	Title       string     `json:"title" validate:"required"`
	IntroText   string     `json:"intro_text"`
	OutroText   string     `json:"outro_text"`
	BroadcastAt *time.Time `json:"broadcast_at"`
	AuthorID    string     `json:"author_id" validate:"required,uuid"`
}

// CreateBulletin handles create bulletin requests.
func (h *Handler) CreateBulletin(w http.ResponseWriter, r *http.Request) {
	var req createBulletinRequest
	if !h.decode(w, r, &req) {
		return
	}
	bulletin, err := h.bulletins.CreateBulletin(r.Context(), &service.CreateBulletinRequest{
		Title:       req.Title,
		IntroText:   req.IntroText,
		OutroText:   req.OutroText,
		BroadcastAt: req.BroadcastAt,
		AuthorID:    req.AuthorID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, bulletin)
}

// GetBulletin returns a bulletin with its ordered stories and history.
func (h *Handler) GetBulletin(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.writeError(w, workflow.InvalidInput("id", "bulletin id is required"))
		return
	}
	detail, err := h.bulletins.GetBulletin(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// ListBulletins lists bulletins with pagination.
func (h *Handler) ListBulletins(w http.ResponseWriter, r *http.Request) {
	var status *workflow.BulletinStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := workflow.ParseBulletinStatus(v)
		if err != nil {
			h.writeError(w, err)
			return
		}
		status = &st
	}
	page, pageSize := pagination(r)

	bulletins, total, err := h.bulletins.ListBulletins(r.Context(), status, page, pageSize)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"bulletins": bulletins,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type setBulletinStoriesRequest struct {
	BulletinID string   `json:"bulletin_id" validate:"required,uuid"`
	StoryIDs   []string `json:"story_ids" validate:"required,min=1,dive,uuid"`
}

// SetBulletinStories replaces a bulletin's ordered story list.
func (h *Handler) SetBulletinStories(w http.ResponseWriter, r *http.Request) {
	var req setBulletinStoriesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.bulletins.SetStories(r.Context(), req.BulletinID, req.StoryIDs); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulletinTransitionRequest struct {
	BulletinID   string  `json:"bulletin_id" validate:"required,uuid"`
	ActorID      string  `json:"actor_id" validate:"required,uuid"`
	TargetStatus string  `json:"target_status" validate:"required"`
	AssigneeID   *string `json:"assignee_id"`
	Comment      *string `json:"comment"`
}

// TransitionBulletin requests a workflow transition on a bulletin, with one
// transparent retry on CONCURRENT_MODIFICATION.
func (h *Handler) TransitionBulletin(w http.ResponseWriter, r *http.Request) {
	var req bulletinTransitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	target, err := workflow.ParseBulletinStatus(req.TargetStatus)
	if err != nil {
		h.writeError(w, err)
		return
	}

	engineReq := service.BulletinTransitionRequest{
		BulletinID: req.BulletinID,
		ActorID:    req.ActorID,
		Target:     target,
		AssigneeID: req.AssigneeID,
		Comment:    req.Comment,
	}

	result, err := h.bulletinFlow.RequestTransition(r.Context(), engineReq)
	if err != nil && workflow.CodeOf(err) == workflow.CodeConcurrentModification {
		result, err = h.bulletinFlow.RequestTransition(r.Context(), engineReq)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.publisher.Dispatch(req.ActorID, result.Intents)
	h.writeJSON(w, http.StatusOK, result)
}

// BulletinTransitions returns the transitions an actor may apply to a
// bulletin.
func (h *Handler) BulletinTransitions(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	actorID := r.URL.Query().Get("actor_id")
	if id == "" || actorID == "" {
		h.writeError(w, workflow.InvalidInput("id", "bulletin id and actor_id are required"))
		return
	}
	targets, err := h.bulletinFlow.LegalTransitions(r.Context(), id, actorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"transitions": targets})
}
