package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/websocket"
)

const (
	minPINLength = 4
	maxPINLength = 8
)

// MemberStore is the family member directory. Implemented by
// store.FamilyMemberStore and store.InMemoryFamilyMemberStore.
type MemberStore interface {
	Create(ctx context.Context, m *model.FamilyMember) (*model.FamilyMember, error)
	List(ctx context.Context) ([]model.FamilyMember, error)
	GetByID(ctx context.Context, id int64) (*model.FamilyMember, error)
	Update(ctx context.Context, m *model.FamilyMember) (*model.FamilyMember, error)
	Delete(ctx context.Context, id int64) error
	SetPIN(ctx context.Context, id int64, hashedPIN string) error
	ClearPIN(ctx context.Context, id int64) error
	GetPINHash(ctx context.Context, id int64) (string, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
}

type FamilyMemberHandler struct {
	store   MemberStore
	hub     Broadcaster
	logger  *slog.Logger
	pinCost int
}

func NewFamilyMemberHandler(s MemberStore, hub Broadcaster, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{store: s, hub: hub, logger: logger, pinCost: bcrypt.DefaultCost}
}

type memberRequest struct {
	Name   string     `json:"name"`
	Avatar string     `json:"avatar"`
	Color  string     `json:"color"`
	Role   model.Role `json:"role"`
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list family members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list family members")
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m := &model.FamilyMember{Name: req.Name, Avatar: req.Avatar, Color: req.Color, Role: req.Role}
	if err := m.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.nameAvailable(w, r, m.Name, 0) {
		return
	}

	member, err := h.store.Create(r.Context(), m)
	if err != nil {
		h.logger.Error("failed to create family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family member")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionCreated, member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

// Update replaces the member's fields; empty avatar, color and role keep the
// current values.
func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	m := *existing
	m.Name = req.Name
	if req.Avatar != "" {
		m.Avatar = req.Avatar
	}
	if req.Color != "" {
		m.Color = req.Color
	}
	if req.Role != "" {
		m.Role = req.Role
	}
	if err := m.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.nameAvailable(w, r, m.Name, m.ID) {
		return
	}

	member, err := h.store.Update(r.Context(), &m)
	if err != nil {
		h.logger.Error("failed to update family member", "member_id", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update family member")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionUpdated, member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

// Delete removes the member. Chores and completions keep the stale id.
func (h *FamilyMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("failed to delete family member", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete family member")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionDeleted, existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// SetPIN sets a 4-8 digit PIN, or clears it when pin is empty.
func (h *FamilyMemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.PIN == "" {
		if err := h.store.ClearPIN(r.Context(), existing.ID); err != nil {
			h.logger.Error("failed to clear pin", "member_id", existing.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to clear PIN")
			return
		}
		broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionUpdated, existing.ID, nil))
		writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
		return
	}

	if len(req.PIN) < minPINLength || len(req.PIN) > maxPINLength || !isDigits(req.PIN) {
		writeError(w, http.StatusBadRequest, "PIN must be 4 to 8 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), h.pinCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash PIN")
		return
	}

	if err := h.store.SetPIN(r.Context(), existing.ID, string(hash)); err != nil {
		h.logger.Error("failed to set pin", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionUpdated, existing.ID, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *FamilyMemberHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.store.GetPINHash(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get pin", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get PIN")
		return
	}
	if hash == "" {
		writeError(w, http.StatusBadRequest, "no PIN set for this member")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		h.logger.Info("incorrect pin", "member_id", id)
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// load resolves the {id} path value to a member, writing the error response
// when it cannot.
func (h *FamilyMemberHandler) load(w http.ResponseWriter, r *http.Request) (*model.FamilyMember, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	member, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get family member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get family member")
		return nil, false
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return nil, false
	}
	return member, true
}

func (h *FamilyMemberHandler) nameAvailable(w http.ResponseWriter, r *http.Request, name string, excludeID int64) bool {
	exists, err := h.store.NameExists(r.Context(), name, excludeID)
	if err != nil {
		h.logger.Error("failed to check name", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return false
	}
	if exists {
		writeError(w, http.StatusConflict, "a family member with that name already exists")
		return false
	}
	return true
}
