package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/auth"
	"github.com/ironrail/rails-server-go/internal/game"
	"github.com/ironrail/rails-server-go/internal/game/actions"
	"github.com/ironrail/rails-server-go/internal/repository"
)

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.authMgr.Register(in.Name, in.Password); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, auth.ErrUserExists) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	s.logger.Info("user registered", zap.String("user", strings.TrimSpace(in.Name)))
	writeJSON(w, http.StatusCreated, map[string]string{"name": strings.TrimSpace(in.Name)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.authMgr.Login(in.Name, in.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      session.Token,
		"user":       session.UserName,
		"expires_at": session.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.authMgr.Logout(bearerToken(r.Header.Get("Authorization")))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- tables ---

func (s *Server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	tables := s.lobby.AllTables()
	out := make([]any, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name       string `json:"name"`
		Definition string `json:"definition"`
		MinPlayers int    `json:"min_players"`
		MaxPlayers int    `json:"max_players"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.MinPlayers < 2 {
		in.MinPlayers = 2
	}
	if in.MaxPlayers < in.MinPlayers {
		in.MaxPlayers = 6
	}
	if in.Definition == "" {
		in.Definition = s.cfg.Game.DefaultDefinition
	}
	t := s.lobby.CreateTable(in.Name, in.Definition, userFromContext(r.Context()), in.MinPlayers, in.MaxPlayers)
	writeJSON(w, http.StatusCreated, t.Snapshot())
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lobby.GetTable(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleJoinTable(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lobby.GetTable(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	if err := t.Join(userFromContext(r.Context())); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleLeaveTable(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lobby.GetTable(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	if err := t.Leave(userFromContext(r.Context())); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleStartTable(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lobby.GetTable(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	user := userFromContext(r.Context())
	if !t.IsCreator(user) {
		writeError(w, http.StatusForbidden, "only the table creator can start the game")
		return
	}
	players, err := t.BeginStart()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	gameID, err := s.engine.NewGame(t.Definition, players)
	if err != nil {
		t.AbortStart()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	t.ConfirmStart(gameID)
	s.logger.Info("table started",
		zap.String("table_id", t.ID),
		zap.String("game_id", gameID),
		zap.Strings("players", players),
	)
	writeJSON(w, http.StatusOK, t.Snapshot())
}

// --- games ---

func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"games": s.engine.GameIDs()})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Definition string   `json:"definition"`
		Players    []string `json:"players"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Definition == "" {
		in.Definition = s.cfg.Game.DefaultDefinition
	}
	gameID, err := s.engine.NewGame(in.Definition, in.Players)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.engine.View(gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.View(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePossibleActions(w http.ResponseWriter, r *http.Request) {
	acts, err := s.engine.PossibleActions(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	out := make([]json.RawMessage, 0, len(acts))
	for _, a := range acts {
		raw, err := actions.MarshalAction(a)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, raw)
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": out})
}

func (s *Server) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := actions.UnmarshalAction(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	accepted, report, err := s.engine.Process(gameID, a)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if accepted {
		s.persistSnapshot(r, gameID)
	}
	over, _ := s.engine.IsGameOver(gameID)
	writeJSON(w, http.StatusOK, map[string]any{
		"accepted":  accepted,
		"report":    report,
		"game_over": over,
	})
}

func (s *Server) handleActionLog(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.View(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": view.Actions})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	lines, err := s.engine.FinalReport(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": lines})
}

func (s *Server) handleSaveGame(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Path string `json:"path"`
	}
	// body is optional; default path when absent
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	gameID := chi.URLParam(r, "id")
	if err := s.engine.Save(gameID, in.Path); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.persistSnapshot(r, gameID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLoadGame(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Path   string `json:"path"`
		GameID string `json:"game_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		gameID string
		err    error
	)
	switch {
	case in.Path != "":
		gameID, err = s.engine.LoadGame(in.Path)
	case in.GameID != "" && s.repo != nil:
		var rec repository.SavedGameRecord
		rec, err = s.repo.Get(r.Context(), in.GameID)
		if err == nil {
			gameID, err = s.restoreFromRecord(rec)
		}
	default:
		writeError(w, http.StatusBadRequest, "path or game_id is required")
		return
	}
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	view, err := s.engine.View(gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveGame(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Auth.AdminPassword == "" || r.Header.Get("X-Admin-Password") != s.cfg.Auth.AdminPassword {
		writeError(w, http.StatusForbidden, "admin password required")
		return
	}
	gameID := chi.URLParam(r, "id")
	s.engine.RemoveGame(gameID)
	if t, ok := s.lobby.TableForGame(gameID); ok {
		t.Finish()
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// persistSnapshot pushes the current save image to the database when one is
// configured. Failures are logged, not surfaced; the filesystem autosave is
// the fallback.
func (s *Server) persistSnapshot(r *http.Request, gameID string) {
	if s.repo == nil {
		return
	}
	sg, err := s.engine.Snapshot(gameID)
	if err != nil {
		return
	}
	data, err := game.EncodeSavedGame(sg)
	if err != nil {
		s.logger.Warn("encode snapshot failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	rec := repository.SavedGameRecord{
		GameID:     sg.GameID,
		Definition: sg.Definition,
		Players:    sg.Players,
		ActionLen:  len(sg.Actions),
		SavedAt:    time.Now().UTC(),
		Data:       data,
	}
	if err := s.repo.Upsert(r.Context(), rec); err != nil {
		s.logger.Warn("persist snapshot failed", zap.String("game_id", gameID), zap.Error(err))
	}
}

func (s *Server) restoreFromRecord(rec repository.SavedGameRecord) (string, error) {
	sg, err := game.DecodeSavedGame(rec.Data)
	if err != nil {
		return "", err
	}
	return s.engine.RestoreGame(sg)
}
