package game

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// Notification is a game event pushed to an external handler (websocket
// broadcast, lobby updates).
type Notification struct {
	Type      string
	GameID    string
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler receives engine notifications. Handlers run in their
// own goroutine and may call back into the engine.
type NotificationHandler func(Notification)

// Engine hosts the running games. Each game is driven by its supervisor;
// the engine adds lookup, per-game serialization of action processing, and
// change notifications.
type Engine struct {
	logger  *zap.Logger
	saveDir string

	mu      sync.RWMutex
	games   map[string]*gameHandle
	handler NotificationHandler
}

// gameHandle serializes all access to one game's supervisor.
type gameHandle struct {
	mu  sync.Mutex
	sup *RoundSupervisor
}

// NewEngine returns an empty engine. saveDir, when non-empty, enables
// autosave for every created game.
func NewEngine(logger *zap.Logger, saveDir string) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:  logger,
		saveDir: saveDir,
		games:   make(map[string]*gameHandle),
	}
}

// SetNotificationHandler registers the handler for game notifications.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

// emit dispatches a notification in a goroutine so the caller never blocks
// on the handler, and the handler may safely re-enter the engine.
func (e *Engine) emit(n Notification) {
	e.mu.RLock()
	handler := e.handler
	e.mu.RUnlock()
	if handler != nil {
		go handler(n)
	}
}

// NewGame creates and starts a game, returning its ID.
func (e *Engine) NewGame(definition string, players []string) (string, error) {
	def, err := DefinitionByName(definition)
	if err != nil {
		return "", err
	}
	gameID := uuid.NewString()
	st, err := NewGameState(gameID, def, players)
	if err != nil {
		return "", err
	}
	sup := NewRoundSupervisor(st, def.Name, e.logger.With(zap.String("game_id", gameID)))
	if e.saveDir != "" {
		sup.EnableAutosave(filepath.Join(e.saveDir, gameID+".rails"))
	}
	sup.Start()

	e.mu.Lock()
	e.games[gameID] = &gameHandle{sup: sup}
	e.mu.Unlock()

	e.logger.Info("game created",
		zap.String("game_id", gameID),
		zap.String("definition", def.Name),
		zap.Int("players", len(players)),
	)
	e.emit(Notification{
		Type: "GAME_CREATED", GameID: gameID, Timestamp: time.Now(),
		Data: map[string]interface{}{"definition": def.Name, "players": players},
	})
	return gameID, nil
}

// LoadGame rebuilds a game from a save file and registers it under its
// saved game ID.
func (e *Engine) LoadGame(path string) (string, error) {
	sup, err := LoadSavedGame(path, e.logger)
	if err != nil {
		return "", err
	}
	gameID := sup.State().GameID

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return "", fmt.Errorf("game %s is already loaded", gameID)
	}
	if e.saveDir != "" {
		sup.EnableAutosave(filepath.Join(e.saveDir, gameID+".rails"))
	}
	e.games[gameID] = &gameHandle{sup: sup}
	e.mu.Unlock()

	e.logger.Info("game loaded", zap.String("game_id", gameID), zap.String("path", path))
	return gameID, nil
}

func (e *Engine) handle(gameID string) (*gameHandle, error) {
	e.mu.RLock()
	h, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	return h, nil
}

// Process submits one action to a game. It returns the acceptance flag and
// the report lines produced.
func (e *Engine) Process(gameID string, a actions.Action) (bool, []string, error) {
	h, err := e.handle(gameID)
	if err != nil {
		return false, nil, err
	}
	h.mu.Lock()
	ok := h.sup.Process(a)
	lines := append([]string(nil), h.sup.State().Report.Lines()...)
	over := h.sup.IsGameOver()
	h.mu.Unlock()

	if ok {
		e.emit(Notification{
			Type: "GAME_STATE_CHANGE", GameID: gameID, Timestamp: time.Now(),
			Data: map[string]interface{}{"action": a.String(), "game_over": over},
		})
	}
	return ok, lines, nil
}

// PossibleActions returns a copy of the game's legal-action set.
func (e *Engine) PossibleActions(gameID string) ([]actions.Action, error) {
	h, err := e.handle(gameID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sup.PossibleActions().Clone().Items(), nil
}

// Save writes a game to the given path (or its default when empty).
func (e *Engine) Save(gameID, path string) error {
	h, err := e.handle(gameID)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sup.saveTo(path)
}

// Snapshot captures a game's current save image for external storage.
func (e *Engine) Snapshot(gameID string) (*SavedGame, error) {
	h, err := e.handle(gameID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sup.snapshot(), nil
}

// RestoreGame rebuilds a game from a save image and registers it under its
// saved game ID.
func (e *Engine) RestoreGame(sg *SavedGame) (string, error) {
	sup, err := ReplaySavedGame(sg, e.logger)
	if err != nil {
		return "", err
	}
	gameID := sup.State().GameID

	e.mu.Lock()
	if _, exists := e.games[gameID]; exists {
		e.mu.Unlock()
		return "", fmt.Errorf("game %s is already loaded", gameID)
	}
	if e.saveDir != "" {
		sup.EnableAutosave(filepath.Join(e.saveDir, gameID+".rails"))
	}
	e.games[gameID] = &gameHandle{sup: sup}
	e.mu.Unlock()

	e.logger.Info("game restored", zap.String("game_id", gameID))
	return gameID, nil
}

// IsGameOver reports a game's terminal flag.
func (e *Engine) IsGameOver(gameID string) (bool, error) {
	h, err := e.handle(gameID)
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sup.IsGameOver(), nil
}

// FinalReport returns the ranking lines of a game.
func (e *Engine) FinalReport(gameID string) ([]string, error) {
	h, err := e.handle(gameID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sup.GameReport(), nil
}

// RemoveGame drops a finished game from the engine.
func (e *Engine) RemoveGame(gameID string) {
	e.mu.Lock()
	delete(e.games, gameID)
	e.mu.Unlock()
	e.logger.Info("game removed", zap.String("game_id", gameID))
}

// GameIDs lists the hosted games.
func (e *Engine) GameIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	return ids
}

// --- views ---

// GameView is the complete externally visible state of one game.
type GameView struct {
	GameID     string        `json:"game_id"`
	Definition string        `json:"definition"`
	Round      string        `json:"round"`
	Phase      string        `json:"phase"`
	BankCash   int           `json:"bank_cash"`
	GameOver   bool          `json:"game_over"`
	Players    []PlayerView  `json:"players"`
	Companies  []CompanyView `json:"companies"`
	Privates   []PrivateView `json:"privates"`
	Report     []string      `json:"report"`
	Actions    []ActionView  `json:"actions"`
}

// PlayerView is one player's externally visible state.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cash     int    `json:"cash"`
	Worth    int    `json:"worth"`
	Bankrupt bool   `json:"bankrupt"`
	Priority bool   `json:"priority"`
}

// CompanyView is one public company's externally visible state.
type CompanyView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Cash       int            `json:"cash"`
	President  string         `json:"president"`
	ParPrice   int            `json:"par_price"`
	SharePrice int            `json:"share_price"`
	Floated    bool           `json:"floated"`
	Closed     bool           `json:"closed"`
	Trains     []string       `json:"trains"`
	Holdings   map[string]int `json:"holdings"`
	Loans      int            `json:"loans"`
}

// PrivateView is one private company's externally visible state.
type PrivateView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Revenue int    `json:"revenue"`
	Closed  bool   `json:"closed"`
}

// ActionView is one legal action as presented to clients. Index is the
// position in the published set and is what clients submit back.
type ActionView struct {
	Index       int    `json:"index"`
	Type        string `json:"type"`
	Actor       string `json:"actor"`
	Description string `json:"description"`
}

// View builds the full view of one game.
func (e *Engine) View(gameID string) (GameView, error) {
	h, err := e.handle(gameID)
	if err != nil {
		return GameView{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	g := h.sup.State()
	view := GameView{
		GameID:     g.GameID,
		Definition: h.sup.defName,
		Round:      h.sup.currentRound().RoundName(),
		Phase:      g.Phase.Name(),
		BankCash:   g.BankCash,
		GameOver:   g.GameOver,
		Report:     append([]string(nil), g.Report.Lines()...),
	}
	for _, p := range g.Players {
		view.Players = append(view.Players, PlayerView{
			ID: p.ID, Name: p.Name, Cash: p.Cash,
			Worth: g.Worth(p), Bankrupt: p.Bankrupt, Priority: p.Priority,
		})
	}
	for _, c := range g.Companies {
		cv := CompanyView{
			ID: c.ID, Name: c.Name, Cash: c.Cash, President: c.President,
			ParPrice: c.ParPrice, SharePrice: g.Market.Price(c.PriceIndex),
			Floated: c.Floated, Closed: c.Closed, Loans: c.Loans,
			Holdings: make(map[string]int, len(c.Holdings)),
		}
		for holder, shares := range c.Holdings {
			if shares != 0 {
				cv.Holdings[holder] = shares
			}
		}
		for _, t := range c.Trains {
			cv.Trains = append(cv.Trains, t.Type)
		}
		view.Companies = append(view.Companies, cv)
	}
	for _, pc := range g.Privates {
		view.Privates = append(view.Privates, PrivateView{
			ID: pc.ID, Name: pc.Name, Owner: pc.Owner,
			Revenue: pc.Revenue, Closed: pc.Closed,
		})
	}
	for i, a := range h.sup.PossibleActions().Items() {
		view.Actions = append(view.Actions, ActionView{
			Index: i, Type: a.Type().String(), Actor: a.Actor(), Description: a.String(),
		})
	}
	return view, nil
}
