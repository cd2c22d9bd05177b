package dto

// AnonymousAuthResponse carries a freshly provisioned identity. Token
// is empty when signing is unavailable; the client then presents the
// player id directly.
type AnonymousAuthResponse struct {
	PlayerID string `json:"player_id"`
	Token    string `json:"token,omitempty"`
}

type CreateRoomRequest struct {
	HostName   string `json:"host_name"`
	CategoryID string `json:"category_id"`
	Duration   int    `json:"duration"`
}

type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
}

type ScoreResponse struct {
	PlayerName string `json:"player_name"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}

type SetPlayerNameRequest struct {
	Name string `json:"name"`
}
