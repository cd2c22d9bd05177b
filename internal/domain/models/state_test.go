package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_GameState_Valid(t *testing.T) {
	for _, s := range []GameState{StateWaiting, StateStarting, StatePlaying, StateGuessing, StateFinished} {
		require.True(t, s.Valid(), "state %s", s)
	}

	require.False(t, GameState("").Valid())
	require.False(t, GameState("PAUSED").Valid())
}

func Test_GameState_TransitionsOnlyForward(t *testing.T) {
	order := []GameState{StateWaiting, StateStarting, StatePlaying, StateGuessing, StateFinished}

	for i, from := range order {
		for j, to := range order {
			got := from.CanTransitionTo(to)
			require.Equal(t, j > i, got, "%s -> %s", from, to)
		}
	}
}

func Test_GameState_NeverTransitionsToSelf(t *testing.T) {
	for _, s := range []GameState{StateWaiting, StateStarting, StatePlaying, StateGuessing, StateFinished} {
		require.False(t, s.CanTransitionTo(s))
	}
}

func Test_GameState_UnknownStatesNeverTransition(t *testing.T) {
	require.False(t, GameState("LOBBY").CanTransitionTo(StatePlaying))
	require.False(t, StateWaiting.CanTransitionTo(GameState("LOBBY")))
}
