package models

import (
	"sort"
	"time"
)

// Game duration bounds in seconds, fixed at room creation.
const (
	MinGameDuration = 60
	MaxGameDuration = 600
)

// Room is the shared aggregate one group of players plays in. The whole
// document is visible to every member, spy assignment included; keeping
// peers honest is out of scope.
type Room struct {
	RoomCode     string             `json:"roomCode"`
	HostID       string             `json:"hostId"`
	Category     string             `json:"category"`
	GameDuration int                `json:"gameDuration"`
	Players      map[string]*Player `json:"players"`
	GameState    GameState          `json:"gameState"`
	NormalWord   string             `json:"normalWord"`
	SpyWord      string             `json:"spyWord"`
	SpyID        string             `json:"spyId"`

	// GameStartTime is epoch milliseconds of the PLAYING transition,
	// zero while no countdown is active.
	GameStartTime int64 `json:"gameStartTime"`
}

// NewRoom builds a WAITING room containing only the host.
func NewRoom(code, hostID, hostName, category string, duration int) *Room {
	return &Room{
		RoomCode:     code,
		HostID:       hostID,
		Category:     category,
		GameDuration: duration,
		Players: map[string]*Player{
			hostID: {
				ID:     hostID,
				Name:   hostName,
				IsHost: true,
			},
		},
		GameState: StateWaiting,
	}
}

// Player returns the member with the given id, or nil.
func (r *Room) Player(id string) *Player {
	if r == nil {
		return nil
	}
	return r.Players[id]
}

// AllReady reports whether the room is non-empty and every player has
// voted ready.
func (r *Room) AllReady() bool {
	if len(r.Players) == 0 {
		return false
	}

	for _, p := range r.Players {
		if !p.IsReady {
			return false
		}
	}

	return true
}

// PlayerIDs returns the member ids in sorted order.
func (r *Room) PlayerIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remaining derives the round countdown in whole seconds, clamped at
// zero. Nothing ticks server-side; every observer recomputes this from
// the shared start timestamp.
func (r *Room) Remaining(now time.Time) int {
	if r.GameStartTime == 0 {
		return 0
	}

	elapsed := (now.UnixMilli() - r.GameStartTime) / 1000

	remaining := int64(r.GameDuration) - elapsed
	if remaining < 0 {
		return 0
	}

	return int(remaining)
}

// Clone deep-copies the room so snapshot consumers can never mutate the
// stored document.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}

	cp := *r
	cp.Players = make(map[string]*Player, len(r.Players))
	for id, p := range r.Players {
		pc := *p
		cp.Players[id] = &pc
	}

	return &cp
}
