package models

// Player is one participant inside a room.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsHost  bool   `json:"isHost"`
	IsReady bool   `json:"isReady"`
	IsSpy   bool   `json:"isSpy"`
	Word    string `json:"word"`
}
