package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/onair-media/be-editorial-workflow/internal/client"
	"github.com/onair-media/be-editorial-workflow/internal/service"
	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// Handler exposes the workflow engine over HTTP. It is a thin caller: it
// decodes, validates, invokes a service, dispatches notification intents and
// renders the typed result. It never derives permissions itself — legality
// comes from the engine and role authority only.
type Handler struct {
	stories       *service.StoryService
	storyFlow     *service.StoryWorkflowService
	bulletins     *service.BulletinService
	bulletinFlow  *service.BulletinWorkflowService
	announcements *service.AnnouncementService
	directory     *service.DirectoryService
	publisher     *client.NotificationPublisher
	validate      *validator.Validate
	log           zerolog.Logger
}

// New creates the HTTP handler.
func New(
	stories *service.StoryService,
	storyFlow *service.StoryWorkflowService,
	bulletins *service.BulletinService,
	bulletinFlow *service.BulletinWorkflowService,
	announcements *service.AnnouncementService,
	directory *service.DirectoryService,
	publisher *client.NotificationPublisher,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		stories:       stories,
		storyFlow:     storyFlow,
		bulletins:     bulletins,
		bulletinFlow:  bulletinFlow,
		announcements: announcements,
		directory:     directory,
		publisher:     publisher,
		validate:      validator.New(),
		log:           log,
	}
}

// decode parses and validates a JSON request body.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, workflow.InvalidInput("body", "invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, workflow.InvalidInput("body", err.Error()))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

type errorResponse struct {
	Code    workflow.Code `json:"code"`
	Message string        `json:"message"`
	Field   string        `json:"field,omitempty"`
}

// writeError maps typed workflow errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Code: workflow.CodeInternal, Message: "internal error"}
	if e, ok := err.(*workflow.Error); ok {
		resp.Code = e.Code
		resp.Message = e.Message
		resp.Field = e.Field
	}

	status := http.StatusInternalServerError
	switch resp.Code {
	case workflow.CodeIllegalTransition:
		status = http.StatusForbidden
	case workflow.CodeMissingAssignment, workflow.CodeInvalidAssignee,
		workflow.CodeRoleMismatch, workflow.CodeInactiveUser, workflow.CodeInvalidInput:
		status = http.StatusBadRequest
	case workflow.CodeConcurrentModification:
		status = http.StatusConflict
	case workflow.CodeNotFound:
		status = http.StatusNotFound
	case workflow.CodeInternal:
		h.log.Error().Err(err).Msg("request failed")
	}
	h.writeJSON(w, status, resp)
}
