package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/milyonersgroup/catchthespy/internal/application/constant"
	"github.com/milyonersgroup/catchthespy/internal/application/metric"
	"github.com/milyonersgroup/catchthespy/internal/domain/models"
	"github.com/milyonersgroup/catchthespy/internal/store"
)

// GameUsecase drives a room through its phases. It is the single
// authority for phase transitions: every host-gated command is checked
// here, and the all-ready PLAYING -> GUESSING transition is decided
// here once per ready change instead of racing on every client.
type GameUsecase interface {
	// StartGame draws the word pair and the spy and moves the room
	// from WAITING to STARTING. Host only, needs at least MinPlayers.
	StartGame(ctx context.Context, code, playerID string) error

	// ConfirmReveal moves STARTING to PLAYING once the host has seen
	// the reveal, starting the countdown.
	ConfirmReveal(ctx context.Context, code, playerID string) error

	// SetReady writes the caller's own ready vote, then advances to
	// GUESSING when everyone in a PLAYING room is ready.
	SetReady(ctx context.Context, code, playerID string, ready bool) error

	// SubmitGuess records the round outcome into the caller's score
	// ledger and finishes the game.
	SubmitGuess(ctx context.Context, code, playerID string, spyWon bool) error
}

// ScoreLedger is the per-device win/loss sink SubmitGuess writes to.
type ScoreLedger interface {
	IncrementWins(ctx context.Context, playerID string) error
	IncrementLosses(ctx context.Context, playerID string) error
}

type gameUsecase struct {
	minPlayers int
	roomStore  store.RoomStore
	words      WordUsecase
	ledger     ScoreLedger
	now        func() time.Time
}

func NewGameUsecase(minPlayers int, roomStore store.RoomStore, words WordUsecase, ledger ScoreLedger) GameUsecase {
	return &gameUsecase{
		minPlayers: minPlayers,
		roomStore:  roomStore,
		words:      words,
		ledger:     ledger,
		now:        time.Now,
	}
}

func (uc *gameUsecase) StartGame(ctx context.Context, code, playerID string) error {
	room, err := uc.roomStore.Get(ctx, code)
	if err != nil {
		return fmt.Errorf("start game in %s: %w", code, err)
	}

	if room.HostID != playerID {
		return fmt.Errorf("%w: only the host starts the game", ErrPreconditionFailed)
	}

	if room.GameState != models.StateWaiting {
		return fmt.Errorf("%w: game already started (state %s)", ErrPreconditionFailed, room.GameState)
	}

	if len(room.Players) < uc.minPlayers {
		return fmt.Errorf("%w: need at least %d players, have %d", ErrPreconditionFailed,
			uc.minPlayers, len(room.Players))
	}

	pair, err := uc.words.RandomPair(room.Category)
	if err != nil {
		return fmt.Errorf("start game in %s: %w", code, err)
	}

	ids := room.PlayerIDs()
	spyID := ids[rand.IntN(len(ids))]

	room.GameState = models.StateStarting
	room.NormalWord = pair.Normal
	room.SpyWord = pair.Spy
	room.SpyID = spyID

	for id, p := range room.Players {
		p.IsReady = false
		p.IsSpy = id == spyID
		if p.IsSpy {
			p.Word = pair.Spy
		} else {
			p.Word = pair.Normal
		}
	}

	// One full replace so no subscriber can observe the new phase with
	// an unassigned word.
	if err := uc.roomStore.Put(ctx, code, room); err != nil {
		return fmt.Errorf("start game in %s: %w", code, err)
	}

	metric.IncrementGamesStarted()

	slog.Info("game started",
		slog.String(constant.RoomCode, code),
		slog.String("category", room.Category),
		slog.Int("players", len(room.Players)),
	)

	return nil
}

func (uc *gameUsecase) ConfirmReveal(ctx context.Context, code, playerID string) error {
	room, err := uc.roomStore.Get(ctx, code)
	if err != nil {
		return fmt.Errorf("confirm reveal in %s: %w", code, err)
	}

	if room.HostID != playerID {
		return fmt.Errorf("%w: only the host advances the game", ErrPreconditionFailed)
	}

	// Re-confirming after the countdown started is harmless.
	if room.GameState == models.StatePlaying {
		return nil
	}

	// Only a STARTING room has its words and spy assigned; confirming
	// from anywhere else would begin a round nobody can play.
	if room.GameState != models.StateStarting {
		return fmt.Errorf("%w: cannot confirm reveal in state %s", ErrPreconditionFailed, room.GameState)
	}

	return uc.updateGameState(ctx, code, models.StatePlaying)
}

func (uc *gameUsecase) SetReady(ctx context.Context, code, playerID string, ready bool) error {
	// Each player only ever writes their own flag; concurrent toggles
	// land on disjoint paths and commute.
	if err := uc.roomStore.Patch(ctx, code, "players/"+playerID+"/isReady", ready); err != nil {
		return fmt.Errorf("set ready in %s: %w", code, err)
	}

	room, err := uc.roomStore.Get(ctx, code)
	if err != nil {
		return fmt.Errorf("set ready in %s: %w", code, err)
	}

	if room.GameState == models.StatePlaying && room.AllReady() {
		return uc.updateGameState(ctx, code, models.StateGuessing)
	}

	return nil
}

func (uc *gameUsecase) SubmitGuess(ctx context.Context, code, playerID string, spyWon bool) error {
	room, err := uc.roomStore.Get(ctx, code)
	if err != nil {
		return fmt.Errorf("submit guess in %s: %w", code, err)
	}

	if room.GameState == models.StateFinished {
		// Someone already recorded the outcome.
		return nil
	}

	if room.GameState != models.StateGuessing {
		return fmt.Errorf("%w: cannot submit a guess in state %s", ErrPreconditionFailed, room.GameState)
	}

	player := room.Player(playerID)
	if player == nil {
		return fmt.Errorf("%w: player not in room", ErrPreconditionFailed)
	}

	// The deciding player's own result: the spy wins when the group
	// guessed wrong.
	won := player.IsSpy == spyWon

	if won {
		err = uc.ledger.IncrementWins(ctx, playerID)
	} else {
		err = uc.ledger.IncrementLosses(ctx, playerID)
	}
	if err != nil {
		slog.Error("record score failed",
			slog.String(constant.PlayerID, playerID),
			slog.Any(constant.Error, err),
		)
	}

	if err := uc.updateGameState(ctx, code, models.StateFinished); err != nil {
		return err
	}

	slog.Info("game finished",
		slog.String(constant.RoomCode, code),
		slog.Bool("spy_won", spyWon),
	)

	return nil
}

// updateGameState applies a forward phase transition. Writing the
// current phase again is a no-op, which makes redundant transition
// attempts harmless.
func (uc *gameUsecase) updateGameState(ctx context.Context, code string, next models.GameState) error {
	room, err := uc.roomStore.Get(ctx, code)
	if err != nil {
		return fmt.Errorf("update game state in %s: %w", code, err)
	}

	if room.GameState == next {
		return nil
	}

	if !room.GameState.CanTransitionTo(next) {
		return fmt.Errorf("%w: no transition %s -> %s", ErrPreconditionFailed, room.GameState, next)
	}

	// The countdown derives from gameStartTime, so settle it before the
	// phase becomes visible: started with PLAYING, already cleared by
	// the time GUESSING lands.
	if next == models.StatePlaying {
		if err := uc.roomStore.Patch(ctx, code, "gameStartTime", uc.now().UnixMilli()); err != nil {
			return fmt.Errorf("update game state in %s: %w", code, err)
		}
	}

	if next == models.StateGuessing {
		if err := uc.roomStore.Patch(ctx, code, "gameStartTime", int64(0)); err != nil {
			return fmt.Errorf("update game state in %s: %w", code, err)
		}
	}

	if err := uc.roomStore.Patch(ctx, code, "gameState", next); err != nil {
		return fmt.Errorf("update game state in %s: %w", code, err)
	}

	slog.Info("game state updated",
		slog.String(constant.RoomCode, code),
		slog.String(constant.Phase, next.String()),
	)

	return nil
}
