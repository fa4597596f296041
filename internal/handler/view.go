package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/websocket"
)

// ViewHandler serves the read-only household views and the completion log.
type ViewHandler struct {
	ctl     *chore.Controller
	members MemberStore
	hub     Broadcaster
	logger  *slog.Logger
}

func NewViewHandler(ctl *chore.Controller, members MemberStore, hub Broadcaster, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{ctl: ctl, members: members, hub: hub, logger: logger}
}

func (h *ViewHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func (h *ViewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.ctl.Dashboard(r.Context())
	if err != nil {
		h.internalError(w, "failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ViewHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		h.internalError(w, "failed to list family members", err)
		return
	}
	entries, err := h.ctl.Leaderboard(r.Context(), members)
	if err != nil {
		h.internalError(w, "failed to build leaderboard", err)
		return
	}
	if entries == nil {
		entries = []chore.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ViewHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	status, err := h.ctl.Challenge(r.Context())
	if err != nil {
		h.internalError(w, "failed to load challenge", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Suggestions ranks chores for ?effort= (all, quick, medium or long).
func (h *ViewHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	effort := r.URL.Query().Get("effort")
	if effort == "" {
		effort = chore.EffortAll
	}
	if effort != chore.EffortAll && !model.Effort(effort).Valid() {
		writeError(w, http.StatusBadRequest, "invalid effort")
		return
	}

	suggestions, err := h.ctl.Suggestions(r.Context(), effort)
	if err != nil {
		h.internalError(w, "failed to rank chores", err)
		return
	}
	if suggestions == nil {
		suggestions = []chore.Suggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// Job picks one chore at random from the top of the ranking. The job is
// null when nothing is active.
func (h *ViewHandler) Job(w http.ResponseWriter, r *http.Request) {
	s, ok, err := h.ctl.GiveJob(r.Context())
	if err != nil {
		h.internalError(w, "failed to pick a job", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"job": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": s})
}

// Completions lists the completion log, newest first, optionally for one
// chore via ?chore_id=.
func (h *ViewHandler) Completions(w http.ResponseWriter, r *http.Request) {
	choreID, err := parseOptionalID(r, "chore_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chore_id")
		return
	}
	completions, err := h.ctl.Completions(r.Context(), choreID)
	if err != nil {
		h.internalError(w, "failed to list completions", err)
		return
	}
	if completions == nil {
		completions = []model.Completion{}
	}
	writeJSON(w, http.StatusOK, completions)
}

func (h *ViewHandler) ClearCompletions(w http.ResponseWriter, r *http.Request) {
	if err := h.ctl.ClearCompletions(r.Context()); err != nil {
		h.internalError(w, "failed to clear completions", err)
		return
	}
	broadcast(h.hub, websocket.NewMessage(websocket.EntityCompletion, websocket.ActionCleared, 0, nil))
	w.WriteHeader(http.StatusNoContent)
}
