package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ironrail/rails-server-go/internal/auth"
	"github.com/ironrail/rails-server-go/internal/config"
	"github.com/ironrail/rails-server-go/internal/game"
	"github.com/ironrail/rails-server-go/internal/game/actions"
	"github.com/ironrail/rails-server-go/internal/lobby"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Game.SaveDir = t.TempDir()
	cfg.Auth.AdminPassword = "open-sesame"

	logger := zap.NewNop()
	engine := game.NewEngine(logger, cfg.Game.SaveDir)
	authMgr := auth.NewManager(time.Hour, bcrypt.MinCost)
	return New(cfg, logger, engine, authMgr, lobby.NewManager(logger), nil)
}

// do issues a JSON request against the server's router.
func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

// login registers the user if needed and returns a session token.
func login(t *testing.T, s *Server, name string) string {
	t.Helper()
	creds := map[string]string{"name": name, "password": "password1"}
	w := do(t, s, http.MethodPost, "/api/auth/register", "", creds)
	require.Contains(t, []int{http.StatusCreated, http.StatusConflict}, w.Code, w.Body.String())
	w = do(t, s, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(t, w, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "alice", "password": "password1"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "alice", "password": "password1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{"name": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, s, "alice")
	w = do(t, s, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The revoked token no longer reaches protected routes.
	w = do(t, s, http.MethodGet, "/api/tables", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/tables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodGet, "/api/games", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTableLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := login(t, s, "alice")
	bob := login(t, s, "bob")
	carol := login(t, s, "carol")

	w := do(t, s, http.MethodPost, "/api/tables", alice, map[string]any{
		"name": "friday night", "min_players": 3, "max_players": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var table lobby.TableSnapshot
	decode(t, w, &table)
	assert.Equal(t, "Open", table.State)
	assert.Equal(t, []string{"alice"}, table.Players)
	assert.Equal(t, "demo", table.Definition)

	w = do(t, s, http.MethodPost, "/api/tables/"+table.ID+"/join", bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Only the creator may start.
	w = do(t, s, http.MethodPost, "/api/tables/"+table.ID+"/start", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Two seated, three required.
	w = do(t, s, http.MethodPost, "/api/tables/"+table.ID+"/start", alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/tables/"+table.ID+"/join", carol, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/api/tables/"+table.ID+"/start", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &table)
	assert.Equal(t, "Playing", table.State)
	require.NotEmpty(t, table.GameID)

	// The engine now hosts the game.
	w = do(t, s, http.MethodGet, "/api/games/"+table.GameID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view game.GameView
	decode(t, w, &view)
	assert.Equal(t, "Start round 1", view.Round)
	assert.Len(t, view.Players, 3)

	// Playing tables take no more seats.
	dave := login(t, s, "dave")
	w = do(t, s, http.MethodPost, "/api/tables/"+table.ID+"/join", dave, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGameCreateAndSubmitAction(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "alice")

	w := do(t, s, http.MethodPost, "/api/games", token, map[string]any{
		"players": []string{"alice", "bob", "carol"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view game.GameView
	decode(t, w, &view)
	require.NotEmpty(t, view.GameID)
	assert.Equal(t, "demo", view.Definition)

	w = do(t, s, http.MethodGet, "/api/games/"+view.GameID+"/actions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Actions []json.RawMessage `json:"actions"`
	}
	decode(t, w, &listed)
	require.NotEmpty(t, listed.Actions)

	raw, err := actions.MarshalAction(actions.BuyStartItem{Player: "alice", Item: "P1", Price: 20})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/games/"+view.GameID+"/actions", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Accepted bool     `json:"accepted"`
		Report   []string `json:"report"`
		GameOver bool     `json:"game_over"`
	}
	decode(t, rec, &result)
	assert.True(t, result.Accepted, result.Report)
	assert.False(t, result.GameOver)

	// The buyer's cash shows up in the refreshed view.
	w = do(t, s, http.MethodGet, "/api/games/"+view.GameID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	for _, p := range view.Players {
		if p.Name == "alice" {
			assert.Equal(t, 580, p.Cash)
		}
	}
}

func TestSubmitActionRejectsBadBody(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "alice")

	w := do(t, s, http.MethodPost, "/api/games", token, map[string]any{
		"players": []string{"alice", "bob", "carol"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var view game.GameView
	decode(t, w, &view)

	req := httptest.NewRequest(http.MethodPost, "/api/games/"+view.GameID+"/actions", bytes.NewReader([]byte("not json")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownGameReturns404(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "alice")

	w := do(t, s, http.MethodGet, "/api/games/no-such-game", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/games/no-such-game/actions", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveRemoveAndLoadGame(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "alice")

	w := do(t, s, http.MethodPost, "/api/games", token, map[string]any{
		"players": []string{"alice", "bob", "carol"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var view game.GameView
	decode(t, w, &view)

	path := filepath.Join(t.TempDir(), "game.rails")
	w = do(t, s, http.MethodPost, "/api/games/"+view.GameID+"/save", token, map[string]string{"path": path})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Loading while the game is still hosted fails.
	w = do(t, s, http.MethodPost, "/api/games/load", token, map[string]string{"path": path})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Removal needs the admin password.
	req := httptest.NewRequest(http.MethodDelete, "/api/games/"+view.GameID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/games/"+view.GameID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Admin-Password", "open-sesame")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	w = do(t, s, http.MethodPost, "/api/games/load", token, map[string]string{"path": path})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var loaded game.GameView
	decode(t, w, &loaded)
	assert.Equal(t, view.GameID, loaded.GameID)
	assert.Len(t, loaded.Players, 3)
}

func TestLoadGameRequiresPathOrID(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "alice")

	w := do(t, s, http.MethodPost, "/api/games/load", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
