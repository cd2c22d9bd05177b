package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/milyonersgroup/catchthespy/internal/application/config"
	"github.com/milyonersgroup/catchthespy/internal/application/constant"
	"github.com/milyonersgroup/catchthespy/internal/application/metric"
	"github.com/milyonersgroup/catchthespy/internal/domain/models"
	"github.com/milyonersgroup/catchthespy/internal/store"
)

// createAttempts bounds the room-code collision retry loop.
const createAttempts = 10

// RoomUsecase is the room lifecycle: create, join, leave, expire.
type RoomUsecase interface {
	CreateRoom(ctx context.Context, hostID, hostName, categoryID string, duration int) (string, error)
	JoinRoom(ctx context.Context, code, playerID, name string) error
	LeaveRoom(ctx context.Context, code, playerID string) error
	Room(ctx context.Context, code string) (*models.Room, error)
	Subscribe(ctx context.Context, code string) (*store.Subscription, error)

	// ExpireStaleRooms deletes every room older than maxAge and, when
	// the presence policy is enabled, reaps players whose connection
	// has been gone longer than the timeout.
	ExpireStaleRooms(ctx context.Context, maxAge time.Duration) (int, error)

	// RunSweeper blocks, sweeping on the configured interval until the
	// context is canceled.
	RunSweeper(ctx context.Context)

	// MarkDisconnected and MarkConnected feed the optional presence
	// policy. A disconnect on its own never mutates the room.
	MarkDisconnected(code, playerID string)
	MarkConnected(code, playerID string)
}

type roomUsecase struct {
	cfg       config.RoomConfig
	roomStore store.RoomStore
	words     WordUsecase

	mu         sync.Mutex
	departures map[string]time.Time // "<code>/<playerID>" -> disconnect time
}

func NewRoomUsecase(cfg config.RoomConfig, roomStore store.RoomStore, words WordUsecase) RoomUsecase {
	return &roomUsecase{
		cfg:        cfg,
		roomStore:  roomStore,
		words:      words,
		departures: make(map[string]time.Time),
	}
}

// GenerateRoomCode draws a 6-digit decimal code.
func GenerateRoomCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

func (uc *roomUsecase) CreateRoom(ctx context.Context, hostID, hostName, categoryID string, duration int) (string, error) {
	if hostName == "" {
		return "", fmt.Errorf("%w: empty host name", ErrPreconditionFailed)
	}

	if duration < models.MinGameDuration || duration > models.MaxGameDuration {
		return "", fmt.Errorf("%w: duration %d outside %d..%d", ErrPreconditionFailed,
			duration, models.MinGameDuration, models.MaxGameDuration)
	}

	if _, ok := uc.words.Category(categoryID); !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrPreconditionFailed, categoryID)
	}

	// Codes are drawn blindly; check the store so two rooms never share
	// one. The collision window is tiny but checking is cheap here.
	for range createAttempts {
		code := GenerateRoomCode()

		if _, err := uc.roomStore.Get(ctx, code); err == nil {
			continue
		}

		room := models.NewRoom(code, hostID, hostName, categoryID, duration)

		if err := uc.roomStore.Put(ctx, code, room); err != nil {
			return "", fmt.Errorf("persist room: %w", err)
		}

		slog.Info("room created",
			slog.String(constant.RoomCode, code),
			slog.String(constant.PlayerID, hostID),
		)

		return code, nil
	}

	return "", fmt.Errorf("%w: could not draw an unused room code", store.ErrStoreUnavailable)
}

func (uc *roomUsecase) JoinRoom(ctx context.Context, code, playerID, name string) error {
	if _, err := uc.roomStore.Get(ctx, code); err != nil {
		return fmt.Errorf("join room %s: %w", code, err)
	}

	player := &models.Player{
		ID:   playerID,
		Name: name,
	}

	if err := uc.roomStore.Patch(ctx, code, "players/"+playerID, player); err != nil {
		return fmt.Errorf("join room %s: %w", code, err)
	}

	slog.Info("player joined",
		slog.String(constant.RoomCode, code),
		slog.String(constant.PlayerID, playerID),
	)

	return nil
}

func (uc *roomUsecase) LeaveRoom(ctx context.Context, code, playerID string) error {
	room, err := uc.roomStore.Get(ctx, code)
	if err != nil {
		return fmt.Errorf("leave room %s: %w", code, err)
	}

	// The host leaving ends the game for everyone; so does the last
	// player walking out.
	if room.HostID == playerID || (len(room.Players) == 1 && room.Player(playerID) != nil) {
		if err := uc.roomStore.Delete(ctx, code); err != nil {
			return fmt.Errorf("delete room %s: %w", code, err)
		}

		slog.Info("room deleted on leave",
			slog.String(constant.RoomCode, code),
			slog.String(constant.PlayerID, playerID),
		)

		return nil
	}

	if err := uc.roomStore.Patch(ctx, code, "players/"+playerID, nil); err != nil {
		return fmt.Errorf("leave room %s: %w", code, err)
	}

	slog.Info("player left",
		slog.String(constant.RoomCode, code),
		slog.String(constant.PlayerID, playerID),
	)

	return nil
}

func (uc *roomUsecase) Room(ctx context.Context, code string) (*models.Room, error) {
	return uc.roomStore.Get(ctx, code)
}

func (uc *roomUsecase) Subscribe(ctx context.Context, code string) (*store.Subscription, error) {
	return uc.roomStore.Subscribe(ctx, code)
}

func (uc *roomUsecase) ExpireStaleRooms(ctx context.Context, maxAge time.Duration) (int, error) {
	codes, err := uc.roomStore.Stale(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("list stale rooms: %w", err)
	}

	deleted := 0
	for _, code := range codes {
		if err := uc.roomStore.Delete(ctx, code); err != nil {
			slog.Warn("expire room failed",
				slog.String(constant.RoomCode, code),
				slog.Any(constant.Error, err),
			)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		metric.AddRoomsExpired(deleted)
		slog.Info("expired stale rooms", slog.Int("count", deleted))
	}

	uc.reapDeparted(ctx)

	return deleted, nil
}

func (uc *roomUsecase) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(uc.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := uc.ExpireStaleRooms(ctx, uc.cfg.MaxAge); err != nil {
				slog.Error("room sweep failed", slog.Any(constant.Error, err))
			}
		}
	}
}

func (uc *roomUsecase) MarkDisconnected(code, playerID string) {
	if uc.cfg.PresenceTimeout <= 0 {
		return
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.departures[code+"/"+playerID] = time.Now()
}

func (uc *roomUsecase) MarkConnected(code, playerID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.departures, code+"/"+playerID)
}

// reapDeparted removes players disconnected longer than the presence
// timeout. Disabled (the default) this is a no-op and a player entry
// survives until the host leaves or the room expires.
func (uc *roomUsecase) reapDeparted(ctx context.Context) {
	if uc.cfg.PresenceTimeout <= 0 {
		return
	}

	cutoff := time.Now().Add(-uc.cfg.PresenceTimeout)

	uc.mu.Lock()
	due := make(map[string]string) // key -> code
	for key, at := range uc.departures {
		if at.Before(cutoff) {
			due[key] = key[:6] // codes are always 6 digits
			delete(uc.departures, key)
		}
	}
	uc.mu.Unlock()

	for key, code := range due {
		playerID := key[len(code)+1:]

		if err := uc.LeaveRoom(ctx, code, playerID); err != nil {
			slog.Warn("reap departed player failed",
				slog.String(constant.RoomCode, code),
				slog.String(constant.PlayerID, playerID),
				slog.Any(constant.Error, err),
			)
		}
	}
}
