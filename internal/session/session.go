// Package session holds the per-client view of a room. It is a pure
// projection: commands never feed it, only snapshots arriving on the
// room subscription do, so every client converges on the same observed
// state no matter who issued a write.
package session

import (
	"sync"
	"time"

	"github.com/milyonersgroup/catchthespy/internal/domain/models"
)

// State caches the most recently received room snapshot for one player,
// plus the transient request flags the UI shows.
type State struct {
	mu sync.RWMutex

	playerID string
	room     *models.Room

	isLoading bool
	lastError string
}

func New(playerID string) *State {
	return &State{playerID: playerID}
}

func (s *State) PlayerID() string {
	return s.playerID
}

// ApplySnapshot replaces the cached room wholesale. Passing nil marks
// the room state unknown, as after a terminated subscription.
func (s *State) ApplySnapshot(room *models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = room
}

// Room returns the last received snapshot, nil when unknown.
func (s *State) Room() *models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = loading
}

func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// SetError records a failed command for display. It never retries
// anything; the user re-triggers the action.
func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		s.lastError = ""
		return
	}
	s.lastError = err.Error()
}

func (s *State) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// View is what the player should currently be shown, derived entirely
// from the snapshot.
type View struct {
	Phase     models.GameState `json:"phase"`
	IsHost    bool             `json:"isHost"`
	IsSpy     bool             `json:"isSpy"`
	Word      string           `json:"word"`
	IsReady   bool             `json:"isReady"`
	AllReady  bool             `json:"allReady"`
	Remaining int              `json:"remaining"`

	// AwaitingWord is set while the round has started but this
	// player's word has not propagated yet. The UI must show a waiting
	// indicator instead of rendering stale or default data.
	AwaitingWord bool `json:"awaitingWord"`
}

// View derives the current view at the given instant. A zero View with
// Phase "" means the room is unknown.
func (s *State) View(now time.Time) View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.room == nil {
		return View{}
	}

	v := View{
		Phase:     s.room.GameState,
		IsHost:    s.room.HostID == s.playerID,
		AllReady:  s.room.AllReady(),
		Remaining: s.room.Remaining(now),
	}

	me := s.room.Player(s.playerID)
	if me != nil {
		v.IsSpy = me.IsSpy
		v.Word = me.Word
		v.IsReady = me.IsReady
	}

	// The start-game fan-out is not atomic across writers on every
	// backend; a snapshot can show an in-round phase before this
	// player's assignment lands.
	switch s.room.GameState {
	case models.StateStarting, models.StatePlaying, models.StateGuessing:
		v.AwaitingWord = me == nil || me.Word == ""
	}

	return v
}
