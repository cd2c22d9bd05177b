package models

// GameState is the phase of a room. Transitions only ever move forward;
// there is no way back short of deleting the room.
type GameState string

const (
	StateWaiting  GameState = "WAITING"  // lobby, players joining and leaving
	StateStarting GameState = "STARTING" // words drawn, reveal in progress
	StatePlaying  GameState = "PLAYING"  // round timer running
	StateGuessing GameState = "GUESSING" // timer ended, voting on the spy
	StateFinished GameState = "FINISHED" // outcome recorded
)

var stateOrder = map[GameState]int{
	StateWaiting:  0,
	StateStarting: 1,
	StatePlaying:  2,
	StateGuessing: 3,
	StateFinished: 4,
}

func (s GameState) String() string {
	return string(s)
}

// Valid reports whether s is one of the five known phases.
func (s GameState) Valid() bool {
	_, ok := stateOrder[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target follows the
// one-directional phase order. A state never transitions to itself.
func (s GameState) CanTransitionTo(target GameState) bool {
	from, ok := stateOrder[s]
	if !ok {
		return false
	}

	to, ok := stateOrder[target]
	if !ok {
		return false
	}

	return to > from
}
