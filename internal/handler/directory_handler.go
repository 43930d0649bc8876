package handler

import (
	"net/http"
	"time"

	"github.com/onair-media/be-editorial-workflow/internal/repository"
	"github.com/onair-media/be-editorial-workflow/internal/service"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// EligibleAssignees returns the active users assignable on a transition edge.
func (h *Handler) EligibleAssignees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityType := q.Get("entity_type")
	from := q.Get("from")
	to := q.Get("to")
	if from == "" || to == "" {
		h.writeError(w, workflow.InvalidInput("from", "from and to statuses are required"))
		return
	}

	var users []*repository.User
	switch entityType {
	case repository.EntityTypeBulletin:
		fromStatus, err := workflow.ParseBulletinStatus(from)
		if err != nil {
			h.writeError(w, err)
			return
		}
		toStatus, err := workflow.ParseBulletinStatus(to)
		if err != nil {
			h.writeError(w, err)
			return
		}
		users, err = h.directory.EligibleBulletinAssignees(r.Context(), fromStatus, toStatus)
		if err != nil {
			h.writeError(w, err)
			return
		}
	default:
		fromStatus, err := workflow.ParseStoryStatus(from)
		if err != nil {
			h.writeError(w, err)
			return
		}
		toStatus, err := workflow.ParseStoryStatus(to)
		if err != nil {
			h.writeError(w, err)
			return
		}
		users, err = h.directory.EligibleStoryAssignees(r.Context(), fromStatus, toStatus)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Capabilities returns the capability set for a role, so UI layers render
// from the same role authority the engine enforces.
func (h *Handler) Capabilities(w http.ResponseWriter, r *http.Request) {
	role, err := workflow.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.directory.Capabilities(role))
}

type createAnnouncementRequest struct {
	Title     string     `json:"title" validate:"required"`
	Body      string     `json:"body"`
	Priority  string     `json:"priority" validate:"required"`
	Audience  string     `json:"audience"`
	ExpiresAt *time.Time `json:"expires_at"`
	ActorID   string     `json:"actor_id" validate:"required,uuid"`
}

// CreateAnnouncement posts a staff announcement.
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req createAnnouncementRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.announcements.CreateAnnouncement(r.Context(), &service.CreateAnnouncementRequest{
		Title:     req.Title,
		Body:      req.Body,
		Priority:  req.Priority,
		Audience:  req.Audience,
		ExpiresAt: req.ExpiresAt,
		ActorID:   req.ActorID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, a)
}

// ListAnnouncements returns active, undismissed announcements for a user.
func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, workflow.InvalidInput("user_id", "user_id is required"))
		return
	}
	announcements, err := h.announcements.ListActiveForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"announcements": announcements})
}

type dismissAnnouncementRequest struct {
	AnnouncementID string `json:"announcement_id" validate:"required,uuid"`
	UserID         string `json:"user_id" validate:"required,uuid"`
}

// DismissAnnouncement hides an announcement for one user.
func (h *Handler) DismissAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req dismissAnnouncementRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.announcements.Dismiss(r.Context(), req.AnnouncementID, req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
