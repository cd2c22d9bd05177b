package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milyonersgroup/catchthespy/internal/domain/models"
	"github.com/milyonersgroup/catchthespy/internal/infra/adapters/memory"
	"github.com/milyonersgroup/catchthespy/internal/store"
)

type fakeLedger struct {
	mu     sync.Mutex
	wins   map[string]int
	losses map[string]int
	fail   bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{wins: make(map[string]int), losses: make(map[string]int)}
}

func (l *fakeLedger) IncrementWins(ctx context.Context, playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("ledger unavailable")
	}
	l.wins[playerID]++
	return nil
}

func (l *fakeLedger) IncrementLosses(ctx context.Context, playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("ledger unavailable")
	}
	l.losses[playerID]++
	return nil
}

func newGameFixture(t *testing.T) (*gameUsecase, store.RoomStore, *fakeLedger) {
	t.Helper()

	roomStore := memory.NewRoomStore()
	ledger := newFakeLedger()
	words := NewStaticWordUsecase(testCategories())

	uc, ok := NewGameUsecase(2, roomStore, words, ledger).(*gameUsecase)
	require.True(t, ok)

	return uc, roomStore, ledger
}

func putWaitingRoom(t *testing.T, roomStore store.RoomStore, code string, playerIDs ...string) {
	t.Helper()

	room := models.NewRoom(code, "host-1", "Ali", "foods", 120)
	for _, id := range playerIDs {
		room.Players[id] = &models.Player{ID: id, Name: id}
	}

	require.NoError(t, roomStore.Put(context.Background(), code, room))
}

func Test_StartGame_HostOnly(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	err := uc.StartGame(ctx, "123456", "p2")
	require.ErrorIs(t, err, ErrPreconditionFailed)

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateWaiting, room.GameState)
}

func Test_StartGame_NeedsMinPlayers(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456")

	err := uc.StartGame(ctx, "123456", "host-1")
	require.ErrorIs(t, err, ErrPreconditionFailed)

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateWaiting, room.GameState)
}

func Test_StartGame_AssignsExactlyOneSpy(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2", "p3", "p4")

	require.NoError(t, uc.StartGame(ctx, "123456", "host-1"))

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateStarting, room.GameState)
	require.NotEmpty(t, room.NormalWord)
	require.NotEmpty(t, room.SpyWord)
	require.NotEqual(t, room.NormalWord, room.SpyWord)
	require.Contains(t, room.Players, room.SpyID)

	spies := 0
	for id, p := range room.Players {
		require.False(t, p.IsReady, "ready flags reset on start")

		if p.IsSpy {
			spies++
			require.Equal(t, room.SpyID, id)
			require.Equal(t, room.SpyWord, p.Word)
		} else {
			require.Equal(t, room.NormalWord, p.Word)
		}
	}
	require.Equal(t, 1, spies)
}

func Test_StartGame_OnlyFromWaiting(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	require.NoError(t, uc.StartGame(ctx, "123456", "host-1"))

	err := uc.StartGame(ctx, "123456", "host-1")
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func Test_StartGame_UnknownRoom(t *testing.T) {
	uc, _, _ := newGameFixture(t)

	err := uc.StartGame(context.Background(), "000000", "host-1")
	require.ErrorIs(t, err, store.ErrRoomNotFound)
}

func Test_ConfirmReveal_StartsCountdown(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	started := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return started }

	require.NoError(t, uc.StartGame(ctx, "123456", "host-1"))

	err := uc.ConfirmReveal(ctx, "123456", "p2")
	require.ErrorIs(t, err, ErrPreconditionFailed, "host only")

	require.NoError(t, uc.ConfirmReveal(ctx, "123456", "host-1"))

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StatePlaying, room.GameState)
	require.Equal(t, started.UnixMilli(), room.GameStartTime)
	require.Equal(t, 120, room.Remaining(started))

	// Confirming again changes nothing.
	require.NoError(t, uc.ConfirmReveal(ctx, "123456", "host-1"))

	again, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, started.UnixMilli(), again.GameStartTime)
}

func Test_ConfirmReveal_OnlyFromStarting(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	// A reveal confirm on a lobby must not begin a round: no words are
	// drawn and no spy is assigned yet.
	err := uc.ConfirmReveal(ctx, "123456", "host-1")
	require.ErrorIs(t, err, ErrPreconditionFailed)

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateWaiting, room.GameState)
	require.Zero(t, room.GameStartTime)
	require.Empty(t, room.NormalWord)

	// The lobby is still playable afterwards.
	require.NoError(t, uc.StartGame(ctx, "123456", "host-1"))
}

func Test_ConfirmReveal_RejectedAfterRoundStarted(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putGuessingRoom(t, roomStore, "123456", "p2")

	err := uc.ConfirmReveal(ctx, "123456", "host-1")
	require.ErrorIs(t, err, ErrPreconditionFailed)

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateGuessing, room.GameState)
}

func Test_GuessingSnapshotsNeverShowCountdown(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	require.NoError(t, uc.StartGame(ctx, "123456", "host-1"))
	require.NoError(t, uc.ConfirmReveal(ctx, "123456", "host-1"))

	sub, err := roomStore.Subscribe(ctx, "123456")
	require.NoError(t, err)
	defer sub.Cancel()

	require.NoError(t, uc.SetReady(ctx, "123456", "host-1", true))
	require.NoError(t, uc.SetReady(ctx, "123456", "p2", true))

	// Every snapshot on the way to GUESSING must already have the
	// countdown cleared by the time the phase shows it.
	deadline := time.After(time.Second)
	for {
		select {
		case snap, ok := <-sub.Updates():
			require.True(t, ok, "stream closed before GUESSING")
			if snap.GameState == models.StateGuessing {
				require.Zero(t, snap.GameStartTime)
				return
			}
		case <-deadline:
			t.Fatal("never observed GUESSING")
		}
	}
}

func Test_SetReady_AdvancesToGuessingWhenAllReady(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	require.NoError(t, uc.StartGame(ctx, "123456", "host-1"))
	require.NoError(t, uc.ConfirmReveal(ctx, "123456", "host-1"))

	require.NoError(t, uc.SetReady(ctx, "123456", "host-1", true))

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StatePlaying, room.GameState, "one vote is not enough")

	require.NoError(t, uc.SetReady(ctx, "123456", "p2", true))

	room, err = roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateGuessing, room.GameState)
	require.Zero(t, room.GameStartTime, "countdown cleared on GUESSING")
}

func Test_SetReady_NoTransitionOutsidePlaying(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	require.NoError(t, uc.SetReady(ctx, "123456", "host-1", true))
	require.NoError(t, uc.SetReady(ctx, "123456", "p2", true))

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateWaiting, room.GameState)
	require.True(t, room.AllReady())
}

func Test_SetReady_Unready(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	require.NoError(t, uc.SetReady(ctx, "123456", "p2", true))
	require.NoError(t, uc.SetReady(ctx, "123456", "p2", false))

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.False(t, room.Player("p2").IsReady)
}

func putGuessingRoom(t *testing.T, roomStore store.RoomStore, code, spyID string) {
	t.Helper()

	room := models.NewRoom(code, "host-1", "Ali", "foods", 120)
	room.Players["p2"] = &models.Player{ID: "p2", Name: "Ayşe"}
	room.GameState = models.StateGuessing
	room.NormalWord = "Pizza"
	room.SpyWord = "Lahmacun"
	room.SpyID = spyID
	for id, p := range room.Players {
		p.IsSpy = id == spyID
		if p.IsSpy {
			p.Word = room.SpyWord
		} else {
			p.Word = room.NormalWord
		}
	}

	require.NoError(t, roomStore.Put(context.Background(), code, room))
}

func Test_SubmitGuess_SpyCaught(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, ledger := newGameFixture(t)
	putGuessingRoom(t, roomStore, "123456", "p2")

	// Group caught the spy: the non-spy caller reports spyWon=false
	// and records a win for themselves.
	require.NoError(t, uc.SubmitGuess(ctx, "123456", "host-1", false))

	require.Equal(t, 1, ledger.wins["host-1"])
	require.Zero(t, ledger.losses["host-1"])

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, room.GameState)
}

func Test_SubmitGuess_SpyEscaped(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, ledger := newGameFixture(t)
	putGuessingRoom(t, roomStore, "123456", "p2")

	// The spy escaped: a non-spy caller reporting spyWon=true takes
	// the loss.
	require.NoError(t, uc.SubmitGuess(ctx, "123456", "host-1", true))

	require.Zero(t, ledger.wins["host-1"])
	require.Equal(t, 1, ledger.losses["host-1"])

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, room.GameState)
}

func Test_SubmitGuess_SpyCallerWinsWhenEscaped(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, ledger := newGameFixture(t)
	putGuessingRoom(t, roomStore, "123456", "host-1")

	require.NoError(t, uc.SubmitGuess(ctx, "123456", "host-1", true))

	require.Equal(t, 1, ledger.wins["host-1"])
	require.Zero(t, ledger.losses["host-1"])
}

func Test_SubmitGuess_SecondCallIsNoop(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, ledger := newGameFixture(t)
	putGuessingRoom(t, roomStore, "123456", "p2")

	require.NoError(t, uc.SubmitGuess(ctx, "123456", "host-1", false))
	require.NoError(t, uc.SubmitGuess(ctx, "123456", "p2", false))

	require.Equal(t, 1, ledger.wins["host-1"])
	require.Zero(t, ledger.wins["p2"])
	require.Zero(t, ledger.losses["p2"])
}

func Test_SubmitGuess_OnlyWhileGuessing(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2")

	err := uc.SubmitGuess(ctx, "123456", "host-1", false)
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func Test_SubmitGuess_StrangerRejected(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, _ := newGameFixture(t)
	putGuessingRoom(t, roomStore, "123456", "p2")

	err := uc.SubmitGuess(ctx, "123456", "stranger", false)
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func Test_SubmitGuess_FinishesDespiteLedgerFailure(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, ledger := newGameFixture(t)
	putGuessingRoom(t, roomStore, "123456", "p2")

	ledger.fail = true

	require.NoError(t, uc.SubmitGuess(ctx, "123456", "host-1", false))

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, room.GameState)
}

func Test_FullRound(t *testing.T) {
	ctx := context.Background()
	uc, roomStore, ledger := newGameFixture(t)
	putWaitingRoom(t, roomStore, "123456", "p2", "p3")

	started := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return started }

	require.NoError(t, uc.StartGame(ctx, "123456", "host-1"))
	require.NoError(t, uc.ConfirmReveal(ctx, "123456", "host-1"))

	for _, id := range []string{"host-1", "p2", "p3"} {
		require.NoError(t, uc.SetReady(ctx, "123456", id, true))
	}

	room, err := roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateGuessing, room.GameState)

	// The spy is caught.
	require.NoError(t, uc.SubmitGuess(ctx, "123456", room.SpyID, false))

	room, err = roomStore.Get(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, models.StateFinished, room.GameState)
	require.Equal(t, 1, ledger.losses[room.SpyID])
}
