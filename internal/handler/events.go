package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/i18n"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/participation"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
)

// EventHandler holds the HTTP handlers for events and participation.
type EventHandler struct {
	svc     *service.EventService
	manager *participation.Manager
	resp    *Responder
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, manager *participation.Manager, resp *Responder) *EventHandler {
	return &EventHandler{svc: svc, manager: manager, resp: resp}
}

type eventResponse struct {
	Event   *model.EventView `json:"event"`
	Message *model.Message   `json:"message"`
}

type toggleResponse struct {
	*model.ToggleResult
	Message *model.Message `json:"message"`
}

// CreateEvent handles POST /events
// Accepts JSON or the create-event form (tags comma-separated, is_private
// checkbox, places as text).
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			h.resp.Error(w, r, http.StatusBadRequest, "invalid_request", i18n.KeyInvalidRequest, err.Error())
			return
		}
		req = model.CreateEventRequest{
			Title:       r.FormValue("titre"),
			Description: r.FormValue("description"),
			Date:        r.FormValue("date"),
			Location:    r.FormValue("lieu"),
			TagsText:    r.FormValue("tags"),
			IsPrivate:   formBool(r, "is_private"),
			Places:      formInt(r, "places"),
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		h.resp.Error(w, r, http.StatusBadRequest, "invalid_request", i18n.KeyInvalidRequest, err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), auth.IdentityFromContext(r.Context()), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.resp.Error(w, r, http.StatusBadRequest, "invalid_request", i18n.KeyEventInvalid, validationDetail(err))
			return
		}
		h.resp.Fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, eventResponse{
		Event:   event,
		Message: h.resp.Message(r, model.MessageSuccess, i18n.KeyEventCreated),
	})
}

// ListEvents handles GET /events
// Returns public events and the caller's private ones.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.EventView{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	event, err := h.svc.GetEvent(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ParticipantCount handles GET /events/{id}/participants/count
func (h *EventHandler) ParticipantCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	count, err := h.svc.ParticipantCount(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"event_id": id, "participant_count": count})
}

// ListParticipants handles GET /events/{id}/participants
// Only the event owner may list participants.
func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	regs, err := h.svc.ListParticipants(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	if regs == nil {
		regs = []model.Participation{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// ParticipationStatus handles GET /events/{id}/participation
func (h *EventHandler) ParticipationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller := auth.IdentityFromContext(r.Context())

	if caller.IsAnonymous() {
		h.resp.Error(w, r, http.StatusUnauthorized, "not_authenticated", i18n.KeyLoginToParticipate)
		return
	}
	if !service.ValidEventID(id) {
		h.resp.Fail(w, r, participation.ErrNotFound)
		return
	}
	status, err := h.manager.Status(r.Context(), id, caller)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// ToggleParticipation handles POST /events/{id}/participation
// Joins the event when the caller is not participating and leaves it otherwise.
func (h *EventHandler) ToggleParticipation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller := auth.IdentityFromContext(r.Context())

	if caller.IsAnonymous() {
		h.resp.Error(w, r, http.StatusUnauthorized, "not_authenticated", i18n.KeyLoginToParticipate)
		return
	}
	if !service.ValidEventID(id) {
		h.resp.Fail(w, r, participation.ErrNotFound)
		return
	}

	result, err := h.manager.Toggle(r.Context(), id, caller)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	key := i18n.KeyLeft
	if result.State == model.StateJoined {
		key = i18n.KeyJoined
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		ToggleResult: result,
		Message:      h.resp.Message(r, model.MessageSuccess, key),
	})
}

func validationDetail(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
}
