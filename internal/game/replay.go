package game

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game/actions"
)

// saveFormatVersion guards the gob layout of SavedGame.
const saveFormatVersion = 1

// SavedGame is the persisted form of a game: the applied action log plus the
// metadata needed to rebuild the initial state and verify the replay. The
// state itself is never saved; replaying the log reproduces it.
type SavedGame struct {
	Version    int
	GameID     string
	Definition string
	Players    []string
	SavedAt    time.Time
	// Checksum is the state digest at save time; a reload warns when the
	// replayed state digests differently.
	Checksum string
	Actions  []actions.Action
}

func (s *RoundSupervisor) defaultSavePath() string {
	return s.state.GameID + ".rails"
}

// snapshot captures the current applied log and state digest.
func (s *RoundSupervisor) snapshot() *SavedGame {
	names := make([]string, len(s.state.Players))
	for i, p := range s.state.Players {
		names[i] = p.ID
	}
	return &SavedGame{
		Version:    saveFormatVersion,
		GameID:     s.state.GameID,
		Definition: s.defName,
		Players:    names,
		SavedAt:    time.Now().UTC(),
		Checksum:   StateChecksum(s.state),
		Actions:    s.ledger.Applied(),
	}
}

// saveTo writes the applied action log as a gzipped gob file.
func (s *RoundSupervisor) saveTo(path string) error {
	if path == "" {
		path = s.defaultSavePath()
	}
	return WriteSavedGame(path, s.snapshot())
}

// EncodeSavedGame renders a SavedGame as gzipped gob bytes.
func EncodeSavedGame(sg *SavedGame) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(sg); err != nil {
		zw.Close()
		return nil, fmt.Errorf("encode save: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flush save: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSavedGame parses gzipped gob bytes produced by EncodeSavedGame.
func DecodeSavedGame(data []byte) (*SavedGame, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	defer zr.Close()

	var sg SavedGame
	if err := gob.NewDecoder(zr).Decode(&sg); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	if sg.Version != saveFormatVersion {
		return nil, fmt.Errorf("save version %d, expected %d", sg.Version, saveFormatVersion)
	}
	return &sg, nil
}

// WriteSavedGame encodes a SavedGame as gzipped gob at path.
func WriteSavedGame(path string, sg *SavedGame) error {
	data, err := EncodeSavedGame(sg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create save directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write save file: %w", err)
	}
	return nil
}

// ReadSavedGame decodes a SavedGame from a gzipped gob file.
func ReadSavedGame(path string) (*SavedGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open save file: %w", err)
	}
	return DecodeSavedGame(data)
}

// reloadFrom replays the tail of a save file on top of the running game.
// The applied log must be a prefix of the saved log; the remaining actions
// are replayed through the reload path. Any replay failure aborts with
// diagnostics and returns false.
func (s *RoundSupervisor) reloadFrom(path string) bool {
	g := s.state
	if path == "" {
		path = s.defaultSavePath()
	}
	sg, err := ReadSavedGame(path)
	if err != nil {
		g.Report.Add("Reload failed: %v", err)
		return false
	}
	if sg.Definition != s.defName {
		g.Report.Add("Reload failed: save file is for ruleset %q, this game runs %q",
			sg.Definition, s.defName)
		return false
	}
	if idx, ok := s.ledger.MatchPrefix(sg.Actions); !ok {
		g.Report.Add("Reload failed: the game diverges from the save file at action %d", idx)
		return false
	}
	if len(sg.Actions) <= s.ledger.Size() {
		g.Report.Add("Reload failed: the game is already ahead of %s; nothing to replay", path)
		return false
	}

	start := s.ledger.Size()
	for i := start; i < len(sg.Actions); i++ {
		a := sg.Actions[i]
		if !s.ProcessOnReload(a) {
			s.logger.Error("reload aborted",
				zap.String("game_id", g.GameID),
				zap.Int("action_index", i),
				zap.String("action", a.String()),
				zap.Strings("report", s.state.Report.Lines()),
			)
			s.state.Report.Add("Reload aborted at action %d (%q)", i, a.String())
			return false
		}
	}
	s.verifyChecksum(sg)
	s.state.Report.Add("Reloaded %d action(s) from %s", len(sg.Actions)-start, path)
	s.recomputeLegal()
	return true
}

func (s *RoundSupervisor) verifyChecksum(sg *SavedGame) {
	if sg.Checksum == "" {
		return
	}
	if got := StateChecksum(s.state); got != sg.Checksum {
		s.logger.Warn("state checksum differs from save file",
			zap.String("game_id", s.state.GameID),
			zap.String("saved", sg.Checksum),
			zap.String("replayed", got),
		)
		s.state.Report.Add("Warning: replayed state differs from the saved checksum")
	}
}

// LoadSavedGame rebuilds a complete game from a save file: fresh initial
// state, then a full replay of the action log.
func LoadSavedGame(path string, logger *zap.Logger) (*RoundSupervisor, error) {
	sg, err := ReadSavedGame(path)
	if err != nil {
		return nil, err
	}
	return ReplaySavedGame(sg, logger)
}

// ReplaySavedGame rebuilds a game from an in-memory SavedGame.
func ReplaySavedGame(sg *SavedGame, logger *zap.Logger) (*RoundSupervisor, error) {
	def, err := DefinitionByName(sg.Definition)
	if err != nil {
		return nil, err
	}
	st, err := NewGameState(sg.GameID, def, sg.Players)
	if err != nil {
		return nil, err
	}
	sup := NewRoundSupervisor(st, sg.Definition, logger)
	sup.Start()
	for i, a := range sg.Actions {
		if !sup.ProcessOnReload(a) {
			return nil, fmt.Errorf("replay aborted at action %d (%s): %s",
				i, a.String(), firstLine(sup.State().Report.Lines()))
		}
	}
	sup.verifyChecksum(sg)
	return sup, nil
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return "no report"
	}
	return lines[0]
}

// exportTo writes a human-readable transcript: the action log followed by
// the current standings.
func (s *RoundSupervisor) exportTo(path string) error {
	if path == "" {
		path = s.state.GameID + ".txt"
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	fmt.Fprintf(f, "Game %s (%s)\n\n", s.state.GameID, s.defName)
	for i, a := range s.ledger.Applied() {
		fmt.Fprintf(f, "%4d  %s\n", i, a.String())
	}
	fmt.Fprintf(f, "\nStandings:\n")
	for _, line := range s.GameReport() {
		fmt.Fprintf(f, "  %s\n", line)
	}
	return f.Close()
}

// autosaveIfEnabled saves after every accepted action. Autosave failures
// degrade: one warning, then the game keeps playing without it.
func (s *RoundSupervisor) autosaveIfEnabled() {
	if s.autosavePath == "" {
		return
	}
	if err := s.saveTo(s.autosavePath); err != nil && !s.autosaveWarned {
		s.autosaveWarned = true
		s.logger.Warn("autosave failed; continuing without autosave",
			zap.String("game_id", s.state.GameID),
			zap.String("path", s.autosavePath),
			zap.Error(err),
		)
	}
}
