package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/websocket"
)

type recordingHub struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (h *recordingHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.msgs))
	for i, m := range h.msgs {
		out[i] = m.Type
	}
	return out
}

func (h *recordingHub) last() websocket.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.msgs[len(h.msgs)-1]
}

type testAPI struct {
	mux     *http.ServeMux
	hub     *recordingHub
	ctl     *chore.Controller
	members *store.InMemoryFamilyMemberStore
}

// newTestAPI wires the handlers over in-memory stores with the clock fixed
// at Monday 2026-10-19 10:00 UTC.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	api := &testAPI{
		mux:     http.NewServeMux(),
		hub:     &recordingHub{},
		members: store.NewInMemoryFamilyMemberStore(),
	}
	api.ctl = chore.NewController(
		store.NewInMemoryChoreStore(),
		store.NewInMemoryCompletionStore(),
		chore.WithClock(chore.ClockFunc(func() time.Time { return now })),
		chore.WithLogger(logger),
	)

	mh := NewFamilyMemberHandler(api.members, api.hub, logger)
	mh.pinCost = bcrypt.MinCost
	ch := NewChoreHandler(api.ctl, api.members, api.hub, logger)
	vh := NewViewHandler(api.ctl, api.members, api.hub, logger)

	m := api.mux
	m.HandleFunc("GET /api/members", mh.List)
	m.HandleFunc("POST /api/members", mh.Create)
	m.HandleFunc("GET /api/members/{id}", mh.Get)
	m.HandleFunc("PUT /api/members/{id}", mh.Update)
	m.HandleFunc("DELETE /api/members/{id}", mh.Delete)
	m.HandleFunc("PUT /api/members/{id}/pin", mh.SetPIN)
	m.HandleFunc("POST /api/members/{id}/pin/verify", mh.VerifyPIN)

	m.HandleFunc("GET /api/chores", ch.List)
	m.HandleFunc("POST /api/chores", ch.Create)
	m.HandleFunc("GET /api/chores/{id}", ch.Get)
	m.HandleFunc("PUT /api/chores/{id}", ch.Update)
	m.HandleFunc("DELETE /api/chores/{id}", ch.Delete)
	m.HandleFunc("POST /api/chores/{id}/complete", ch.Complete)
	m.HandleFunc("POST /api/chores/{id}/postpone", ch.Postpone)
	m.HandleFunc("POST /api/chores/{id}/pause", ch.TogglePause)
	m.HandleFunc("POST /api/chores/{id}/skip", ch.Skip)
	m.HandleFunc("POST /api/chores/{id}/reassign", ch.Reassign)
	m.HandleFunc("POST /api/chores/{id}/tomorrow", ch.DoTomorrow)
	m.HandleFunc("POST /api/chores/{id}/weekend", ch.DoThisWeekend)
	m.HandleFunc("GET /api/chores/{id}/related", ch.Related)
	m.HandleFunc("GET /api/chores/{id}/schedule", ch.Schedule)

	m.HandleFunc("GET /api/completions", vh.Completions)
	m.HandleFunc("DELETE /api/completions", vh.ClearCompletions)
	m.HandleFunc("GET /api/dashboard", vh.Dashboard)
	m.HandleFunc("GET /api/leaderboard", vh.Leaderboard)
	m.HandleFunc("GET /api/challenge", vh.Challenge)
	m.HandleFunc("GET /api/suggestions", vh.Suggestions)
	m.HandleFunc("GET /api/suggestions/job", vh.Job)
	return api
}

// do sends body (marshalled unless it is a string) and returns the recorder.
func (api *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	api.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]any](t, rec)["error"].(string)
}
