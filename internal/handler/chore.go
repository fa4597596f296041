package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/websocket"
)

const defaultScheduleCount = 5

type ChoreHandler struct {
	ctl     *chore.Controller
	members MemberStore
	hub     Broadcaster
	logger  *slog.Logger
}

func NewChoreHandler(ctl *chore.Controller, members MemberStore, hub Broadcaster, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{ctl: ctl, members: members, hub: hub, logger: logger}
}

func (h *ChoreHandler) annotate(c *model.Chore) chore.WithStatus {
	return chore.Annotate([]model.Chore{*c}, dateutil.Day(h.ctl.Now()))[0]
}

// fail maps controller errors to responses.
func (h *ChoreHandler) fail(w http.ResponseWriter, op string, id int64, err error) {
	var limit *chore.PostponeLimitError
	switch {
	case errors.As(err, &limit):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":           "postpone limit reached, complete or skip this chore instead",
			"max_postpones":   limit.Max,
			"postpone_streak": limit.Streak,
		})
	case errors.Is(err, chore.ErrInvalidChore):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chore.ErrChoreCompleted):
		writeError(w, http.StatusConflict, "chore is already completed")
	default:
		h.logger.Error("chore operation failed", "op", op, "chore_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// checkMembers writes a 400 and returns false when any id is unknown.
func (h *ChoreHandler) checkMembers(w http.ResponseWriter, r *http.Request, ids ...int64) bool {
	for _, id := range ids {
		m, err := h.members.GetByID(r.Context(), id)
		if err != nil {
			h.logger.Error("failed to check family member", "member_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check family member")
			return false
		}
		if m == nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("family member %d not found", id))
			return false
		}
	}
	return true
}

// checkInput verifies the members an input refers to. Ids the stored chore
// already carries are accepted as is, so a chore that still names a deleted
// member stays editable.
func (h *ChoreHandler) checkInput(w http.ResponseWriter, r *http.Request, in chore.Input, existing *model.Chore) bool {
	known := map[int64]bool{}
	if existing != nil {
		for _, id := range existing.RotationMembers {
			known[id] = true
		}
		if existing.AssignedTo != nil {
			known[*existing.AssignedTo] = true
		}
	}

	ids := append([]int64(nil), in.RotationMembers...)
	if in.AssignedTo != nil {
		ids = append(ids, *in.AssignedTo)
	}
	var fresh []int64
	for _, id := range ids {
		if !known[id] {
			fresh = append(fresh, id)
		}
	}
	return h.checkMembers(w, r, fresh...)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := chore.Filter{
		Status:   chore.StatusFilter(q.Get("status")),
		Category: model.Category(q.Get("category")),
		Priority: model.Priority(q.Get("priority")),
	}
	if f.Status == "" {
		f.Status = chore.FilterAll
	}
	if !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	if f.Category != "" && !f.Category.Valid() {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	if f.Priority != "" && !f.Priority.Valid() {
		writeError(w, http.StatusBadRequest, "invalid priority")
		return
	}
	member, err := parseOptionalID(r, "member")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member")
		return
	}
	f.Member = member

	chores, err := h.ctl.Filter(r.Context(), f)
	if err != nil {
		h.fail(w, "list chores", 0, err)
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.ctl.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get chore", id, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}
	writeJSON(w, http.StatusOK, h.annotate(c))
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in chore.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !h.checkInput(w, r, in, nil) {
		return
	}

	c, err := h.ctl.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create chore", 0, err)
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityChore, websocket.ActionCreated, c.ID, nil))
	writeJSON(w, http.StatusCreated, h.annotate(c))
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in chore.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	existing, err := h.ctl.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get chore", id, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}
	if !h.checkInput(w, r, in, existing) {
		return
	}

	c, err := h.ctl.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update chore", id, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityChore, websocket.ActionUpdated, id, nil))
	writeJSON(w, http.StatusOK, h.annotate(c))
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.ctl.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get chore", id, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	if err := h.ctl.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete chore", id, err)
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityChore, websocket.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Complete records a completion and returns the advanced chore together with
// the record and a few related chores worth doing next.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		MemberID *int64 `json:"member_id"`
		Notes    string `json:"notes"`
	}
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MemberID != nil && !h.checkMembers(w, r, *req.MemberID) {
		return
	}

	c, completion, err := h.ctl.Complete(r.Context(), id, req.MemberID, req.Notes)
	if err != nil {
		h.fail(w, "complete chore", id, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	related, err := h.ctl.Related(r.Context(), id)
	if err != nil {
		h.logger.Warn("failed to load related chores", "chore_id", id, "error", err)
	}
	if related == nil {
		related = []chore.WithStatus{}
	}

	extra := map[string]any{"completion_id": completion.ID, "on_time": completion.WasOnTime}
	if req.MemberID != nil {
		extra["member_id"] = *req.MemberID
	}
	broadcast(h.hub, websocket.NewMessage(websocket.EntityChore, websocket.ActionCompleted, id, extra))

	writeJSON(w, http.StatusCreated, map[string]any{
		"chore":      h.annotate(c),
		"completion": completion,
		"related":    related,
	})
}

// Postpone returns 409 with the limit once the consecutive postpone cap is
// reached.
func (h *ChoreHandler) Postpone(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "postpone chore", websocket.ActionPostponed, h.ctl.Postpone)
}

func (h *ChoreHandler) TogglePause(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.ctl.TogglePause(r.Context(), id)
	if err != nil {
		h.fail(w, "toggle pause", id, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	action := websocket.ActionResumed
	if c.Status == model.ChorePaused {
		action = websocket.ActionPaused
	}
	broadcast(h.hub, websocket.NewMessage(websocket.EntityChore, action, id, nil))
	writeJSON(w, http.StatusOK, h.annotate(c))
}

func (h *ChoreHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "skip chore", websocket.ActionSkipped, h.ctl.SkipCycle)
}

func (h *ChoreHandler) DoTomorrow(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "reschedule chore", websocket.ActionRescheduled, h.ctl.DoTomorrow)
}

func (h *ChoreHandler) DoThisWeekend(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "reschedule chore", websocket.ActionRescheduled, h.ctl.DoThisWeekend)
}

func (h *ChoreHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		MemberID *int64 `json:"member_id"`
	}
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MemberID != nil && !h.checkMembers(w, r, *req.MemberID) {
		return
	}

	c, err := h.ctl.Reassign(r.Context(), id, req.MemberID)
	if err != nil {
		h.fail(w, "reassign chore", id, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityChore, websocket.ActionReassigned, id, map[string]any{"member_id": req.MemberID}))
	writeJSON(w, http.StatusOK, h.annotate(c))
}

func (h *ChoreHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.ctl.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get chore", id, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	related, err := h.ctl.Related(r.Context(), id)
	if err != nil {
		h.fail(w, "load related chores", id, err)
		return
	}
	if related == nil {
		related = []chore.WithStatus{}
	}
	writeJSON(w, http.StatusOK, related)
}

func (h *ChoreHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	count := defaultScheduleCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
	}

	c, err := h.ctl.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get chore", id, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}
	writeJSON(w, http.StatusOK, chore.PreviewSchedule(c, count))
}

// act runs a single-chore lifecycle operation that takes no body.
func (h *ChoreHandler) act(w http.ResponseWriter, r *http.Request, op, action string, fn func(context.Context, int64) (*model.Chore, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, op, id, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityChore, action, id, nil))
	writeJSON(w, http.StatusOK, h.annotate(c))
}
