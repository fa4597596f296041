package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/handler"
	"github.com/dukerupert/chorely/internal/middleware"
	ws "github.com/dukerupert/chorely/internal/websocket"
)

const (
	defaultPINAttempts = 5
	defaultPINWindow   = time.Minute
)

type Config struct {
	// AllowedOrigins restricts websocket origins; empty allows any.
	AllowedOrigins []string
	PINAttempts    int
	PINWindow      time.Duration
}

type Server struct {
	hub           *ws.Hub
	memberH       *handler.FamilyMemberHandler
	choreH        *handler.ChoreHandler
	viewH         *handler.ViewHandler
	healthH       *handler.HealthHandler
	pinLimiter    *middleware.RateLimiter
	originPattern []string
	logger        *slog.Logger
}

func New(db handler.Pinger, ctl *chore.Controller, members handler.MemberStore, hub *ws.Hub, cfg Config, logger *slog.Logger) *Server {
	if cfg.PINAttempts <= 0 {
		cfg.PINAttempts = defaultPINAttempts
	}
	if cfg.PINWindow <= 0 {
		cfg.PINWindow = defaultPINWindow
	}
	httpLogger := logger.With("component", "http")

	return &Server{
		hub:           hub,
		memberH:       handler.NewFamilyMemberHandler(members, hub, httpLogger),
		choreH:        handler.NewChoreHandler(ctl, members, hub, httpLogger),
		viewH:         handler.NewViewHandler(ctl, members, hub, httpLogger),
		healthH:       handler.NewHealthHandler(db, hub.ClientCount),
		pinLimiter:    middleware.NewRateLimiter(cfg.PINAttempts, cfg.PINWindow),
		originPattern: cfg.AllowedOrigins,
		logger:        logger,
	}
}

// PINLimiter is exposed so the caller can run its cleanup loop.
func (s *Server) PINLimiter() *middleware.RateLimiter {
	return s.pinLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthH.Health)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.originPattern, s.logger))

	// Family members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)
	mux.HandleFunc("PUT /api/members/{id}/pin", s.memberH.SetPIN)
	mux.Handle("POST /api/members/{id}/pin/verify", s.pinRateLimited(s.memberH.VerifyPIN))

	// Chores
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("POST /api/chores/{id}/postpone", s.choreH.Postpone)
	mux.HandleFunc("POST /api/chores/{id}/pause", s.choreH.TogglePause)
	mux.HandleFunc("POST /api/chores/{id}/skip", s.choreH.Skip)
	mux.HandleFunc("POST /api/chores/{id}/reassign", s.choreH.Reassign)
	mux.HandleFunc("POST /api/chores/{id}/tomorrow", s.choreH.DoTomorrow)
	mux.HandleFunc("POST /api/chores/{id}/weekend", s.choreH.DoThisWeekend)
	mux.HandleFunc("GET /api/chores/{id}/related", s.choreH.Related)
	mux.HandleFunc("GET /api/chores/{id}/schedule", s.choreH.Schedule)

	// Completions and views
	mux.HandleFunc("GET /api/completions", s.viewH.Completions)
	mux.HandleFunc("DELETE /api/completions", s.viewH.ClearCompletions)
	mux.HandleFunc("GET /api/dashboard", s.viewH.Dashboard)
	mux.HandleFunc("GET /api/leaderboard", s.viewH.Leaderboard)
	mux.HandleFunc("GET /api/challenge", s.viewH.Challenge)
	mux.HandleFunc("GET /api/suggestions", s.viewH.Suggestions)
	mux.HandleFunc("GET /api/suggestions/job", s.viewH.Job)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.RequestLogger(s.logger.With("component", "http"), "/health"),
	)
}

// pinRateLimited limits PIN attempts per client and member.
func (s *Server) pinRateLimited(h http.HandlerFunc) http.Handler {
	keyFunc := func(r *http.Request) string {
		return strings.Join([]string{middleware.RealIP(r), r.PathValue("id")}, "|")
	}
	return middleware.RateLimit(s.pinLimiter, keyFunc)(h)
}
