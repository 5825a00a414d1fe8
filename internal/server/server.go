// Package server exposes the game engine over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/auth"
	"github.com/ironrail/rails-server-go/internal/config"
	"github.com/ironrail/rails-server-go/internal/game"
	"github.com/ironrail/rails-server-go/internal/lobby"
	"github.com/ironrail/rails-server-go/internal/repository"
)

type contextKey string

const userContextKey contextKey = "user"

// Server wires the engine, lobby, auth and persistence behind a chi router.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *game.Engine
	authMgr *auth.Manager
	lobby   *lobby.Manager
	// repo is nil when no database is configured; saves then stay on disk.
	repo *repository.GameRepository
	hub  *Hub
	mux  *chi.Mux
}

func New(cfg *config.Config, logger *zap.Logger, engine *game.Engine, authMgr *auth.Manager, lobbyMgr *lobby.Manager, repo *repository.GameRepository) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		engine:  engine,
		authMgr: authMgr,
		lobby:   lobbyMgr,
		repo:    repo,
		hub:     newHub(logger, cfg.Server.AllowAllOrigins),
		mux:     chi.NewRouter(),
	}
	engine.SetNotificationHandler(s.hub.Notify)
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Run starts the hub's broadcast loop; it returns when ctx is cancelled.
func (s *Server) Run(ctx context.Context) { s.hub.run(ctx) }

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/auth/logout", s.handleLogout)

			r.Get("/tables", s.handleListTables)
			r.Post("/tables", s.handleCreateTable)
			r.Get("/tables/{id}", s.handleGetTable)
			r.Post("/tables/{id}/join", s.handleJoinTable)
			r.Post("/tables/{id}/leave", s.handleLeaveTable)
			r.Post("/tables/{id}/start", s.handleStartTable)

			r.Get("/games", s.handleListGames)
			r.Post("/games", s.handleCreateGame)
			r.Get("/games/{id}", s.handleGetGame)
			r.Get("/games/{id}/actions", s.handlePossibleActions)
			r.Post("/games/{id}/actions", s.handleSubmitAction)
			r.Get("/games/{id}/log", s.handleActionLog)
			r.Get("/games/{id}/report", s.handleReport)
			r.Post("/games/{id}/save", s.handleSaveGame)
			r.Post("/games/load", s.handleLoadGame)
			r.Delete("/games/{id}", s.handleRemoveGame)
		})
	})

	r.Get("/ws/games/{id}", s.handleGameSocket)
}

// authMiddleware resolves the bearer token to a user name.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userName, err := s.authMgr.Validate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, userName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) string {
	name, _ := ctx.Value(userContextKey).(string)
	return name
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
