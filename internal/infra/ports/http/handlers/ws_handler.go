package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/milyonersgroup/catchthespy/internal/application/config"
	"github.com/milyonersgroup/catchthespy/internal/application/constant"
	"github.com/milyonersgroup/catchthespy/internal/application/metric"
	"github.com/milyonersgroup/catchthespy/internal/domain/events"
	"github.com/milyonersgroup/catchthespy/internal/infra/appctx"
	"github.com/milyonersgroup/catchthespy/internal/session"
	"github.com/milyonersgroup/catchthespy/internal/store"
	"github.com/milyonersgroup/catchthespy/internal/usecase"
)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	roomUsecase usecase.RoomUsecase
	gameUsecase usecase.GameUsecase
}

func NewWebSocketHandler(cfg *config.Config, roomUsecase usecase.RoomUsecase, gameUsecase usecase.GameUsecase) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		roomUsecase: roomUsecase,
		gameUsecase: gameUsecase,
	}
}

// wsClient is one live connection: the socket, the player's session
// projection and the room subscription currently feeding it.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	sess *session.State

	roomCode string
	sub      *store.Subscription
}

func (cl *wsClient) writeJSON(v any) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteJSON(v)
}

func (cl *wsClient) writeEvent(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return cl.writeJSON(events.Message{Type: eventType, Data: data})
}

// writeSnapshot writes a room event unless its subscription was already
// canceled. The check sits under the write lock: once the replacing
// room's events go out, a leftover event from the old stream can no
// longer slip in after them.
func (cl *wsClient) writeSnapshot(sub *store.Subscription, event events.RoomEvent) (bool, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return false, err
	}

	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()

	if sub.Canceled() {
		return false, nil
	}

	return true, cl.conn.WriteJSON(events.Message{Type: events.TypeRoom, Data: data})
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	playerID, ok := appctx.PlayerID(c.Request().Context())
	if !ok {
		return fmt.Errorf("get player id from context")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("WebSocket upgrade error", slog.Any(constant.Error, err))
		return err
	}
	defer ws.Close()

	metric.IncrementWSActiveConnections()
	defer metric.DecrementWSActiveConnections()

	client := &wsClient{
		conn: ws,
		sess: session.New(playerID),
	}

	defer h.detach(client)

	if err := ws.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				client.writeMu.Lock()
				err := ws.WriteMessage(websocket.PingMessage, nil)
				client.writeMu.Unlock()
				if err != nil {
					return
				}
			case <-c.Request().Context().Done():
				return
			}
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			h.logReadError(err, playerID)

			// A dropped connection is not a leave: the player entry
			// stays until an explicit leave, host departure or expiry.
			if client.roomCode != "" {
				h.roomUsecase.MarkDisconnected(client.roomCode, playerID)
			}

			return nil
		}

		message := new(events.Message)
		if err = json.Unmarshal(msg, message); err != nil {
			slog.Warn("unmarshal websocket message", slog.Any(constant.Error, err))
			continue
		}

		if err = h.handleMessage(c.Request().Context(), client, message); err != nil {
			// Commands fail soft: report, keep the stream alive, let
			// the user re-trigger.
			client.sess.SetError(err)

			if werr := client.writeEvent(events.TypeError, events.ErrorEvent{Message: err.Error()}); werr != nil {
				return nil
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, client *wsClient, msg *events.Message) error {
	playerID := client.sess.PlayerID()

	switch msg.Type {
	case events.TypeJoin:
		var join events.JoinEvent
		if err := json.Unmarshal(msg.Data, &join); err != nil {
			return fmt.Errorf("unmarshal join event: %w", err)
		}

		return h.handleJoin(ctx, client, join)

	case events.TypeLeave:
		if client.roomCode == "" {
			return nil
		}

		code := client.roomCode
		h.detach(client)

		return h.roomUsecase.LeaveRoom(ctx, code, playerID)

	case events.TypeSetReady:
		var ready events.SetReadyEvent
		if err := json.Unmarshal(msg.Data, &ready); err != nil {
			return fmt.Errorf("unmarshal set_ready event: %w", err)
		}

		return h.gameUsecase.SetReady(ctx, client.roomCode, playerID, ready.IsReady)

	case events.TypeStartGame:
		return h.gameUsecase.StartGame(ctx, client.roomCode, playerID)

	case events.TypeRevealDone:
		return h.gameUsecase.ConfirmReveal(ctx, client.roomCode, playerID)

	case events.TypeSubmitGuess:
		var guess events.SubmitGuessEvent
		if err := json.Unmarshal(msg.Data, &guess); err != nil {
			return fmt.Errorf("unmarshal submit_guess event: %w", err)
		}

		return h.gameUsecase.SubmitGuess(ctx, client.roomCode, playerID, guess.SpyWon)

	default:
		return errors.New("unknown message type")
	}
}

func (h *WebSocketHandler) handleJoin(ctx context.Context, client *wsClient, join events.JoinEvent) error {
	playerID := client.sess.PlayerID()

	// Re-joining elsewhere drops the previous stream first.
	h.detach(client)

	room, err := h.roomUsecase.Room(ctx, join.RoomCode)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}

	// Only add the player when they are not already a member, so a
	// reconnecting host or mid-game player keeps their assignment.
	if room.Player(playerID) == nil {
		if err := h.roomUsecase.JoinRoom(ctx, join.RoomCode, playerID, join.Name); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}

	sub, err := h.roomUsecase.Subscribe(ctx, join.RoomCode)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	client.roomCode = join.RoomCode
	client.sub = sub
	h.roomUsecase.MarkConnected(join.RoomCode, playerID)

	go h.pumpSnapshots(client, sub)

	return nil
}

// pumpSnapshots forwards every room snapshot to the client until the
// stream ends. The session projection is fed exclusively from here;
// command results never touch it.
func (h *WebSocketHandler) pumpSnapshots(client *wsClient, sub *store.Subscription) {
	for room := range sub.Updates() {
		// Buffered snapshots may outlive a cancel; discard them
		// instead of replaying the old room over the new one.
		if sub.Canceled() {
			return
		}

		client.sess.ApplySnapshot(room)

		event := events.RoomEvent{
			Room: room,
			View: client.sess.View(time.Now()),
		}

		sent, err := client.writeSnapshot(sub, event)
		if err != nil {
			sub.Cancel()
			return
		}
		if !sent {
			return
		}
	}

	// The consumer detached on purpose; nothing to report.
	if sub.Canceled() {
		return
	}

	// Stream over: room deleted, or we were dropped as too slow.
	// Either way the cached room is no longer trustworthy.
	client.sess.ApplySnapshot(nil)

	if err := sub.Err(); err != nil {
		client.sess.SetError(err)
		_ = client.writeEvent(events.TypeError, events.ErrorEvent{Message: "room stream lost, rejoin to resubscribe"})
		return
	}

	_ = client.writeEvent(events.TypeRoomClosed, struct{}{})
}

// detach cancels the active subscription, if any.
func (h *WebSocketHandler) detach(client *wsClient) {
	if client.sub != nil {
		client.sub.Cancel()
		client.sub = nil
	}
	client.roomCode = ""
}

func (h *WebSocketHandler) logReadError(err error, playerID string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			slog.Info("player disconnected from websocket", slog.String(constant.PlayerID, playerID))
		default:
			slog.Error("websocket close error", slog.String(constant.PlayerID, playerID))
		}
	} else {
		slog.Error("websocket read", slog.Any(constant.Error, err))
	}
}
