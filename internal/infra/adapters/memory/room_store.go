package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/milyonersgroup/catchthespy/internal/application/metric"
	"github.com/milyonersgroup/catchthespy/internal/domain/models"
	"github.com/milyonersgroup/catchthespy/internal/store"
)

// subscriberBuffer bounds how far a snapshot consumer may lag before
// the store treats it as gone and terminates its stream.
const subscriberBuffer = 32

// RoomStore keeps every room document in memory. Each room is owned by
// a single goroutine consuming operations from a channel, so every
// operation is applied atomically and no subscriber can ever observe a
// half-applied multi-field update.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*roomActor
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*roomActor),
	}
}

type roomActor struct {
	code      string
	createdAt time.Time

	ops    chan func(*roomState)
	closed chan struct{}
}

// roomState is touched only by the owning goroutine.
type roomState struct {
	room *models.Room
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	ch chan *models.Room

	mu     sync.Mutex
	closed bool
	err    error
}

func (sub *subscriber) close(err error) {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return
	}

	sub.closed = true
	sub.err = err
	close(sub.ch)
}

func (sub *subscriber) errValue() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

// do delivers one operation to the room's owner goroutine and waits for
// it to finish.
func (s *RoomStore) do(ctx context.Context, code string, fn func(*roomState)) error {
	s.mu.RLock()
	a, ok := s.rooms[code]
	s.mu.RUnlock()

	if !ok {
		return store.ErrRoomNotFound
	}

	done := make(chan struct{})
	op := func(st *roomState) {
		fn(st)
		close(done)
	}

	select {
	case a.ops <- op:
	case <-a.closed:
		return store.ErrRoomNotFound
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", store.ErrStoreUnavailable, ctx.Err())
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", store.ErrStoreUnavailable, ctx.Err())
	}
}

func (s *RoomStore) Get(ctx context.Context, code string) (*models.Room, error) {
	var room *models.Room

	err := s.do(ctx, code, func(st *roomState) {
		room = st.room.Clone()
	})
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (s *RoomStore) Put(ctx context.Context, code string, room *models.Room) error {
	s.mu.Lock()
	if _, ok := s.rooms[code]; !ok {
		s.spawnLocked(code, room)
		s.mu.Unlock()
		metric.SetRoomsActive(s.Len(ctx))
		return nil
	}
	s.mu.Unlock()

	return s.do(ctx, code, func(st *roomState) {
		st.room = room.Clone()
		broadcast(st)
	})
}

func (s *RoomStore) Patch(ctx context.Context, code string, path string, value any) error {
	var patchErr error

	err := s.do(ctx, code, func(st *roomState) {
		if patchErr = applyPatch(st.room, path, value); patchErr != nil {
			return
		}
		broadcast(st)
	})
	if err != nil {
		return err
	}

	return patchErr
}

func (s *RoomStore) Delete(ctx context.Context, code string) error {
	err := s.do(ctx, code, func(st *roomState) {
		for id, sub := range st.subs {
			sub.close(nil)
			delete(st.subs, id)
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if a, ok := s.rooms[code]; ok {
		close(a.closed)
		delete(s.rooms, code)
	}
	s.mu.Unlock()

	metric.SetRoomsActive(s.Len(ctx))

	return nil
}

func (s *RoomStore) Subscribe(ctx context.Context, code string) (*store.Subscription, error) {
	sub := &subscriber{ch: make(chan *models.Room, subscriberBuffer)}

	var id int
	err := s.do(ctx, code, func(st *roomState) {
		id = st.next
		st.next++
		st.subs[id] = sub

		// Current document first, before any subsequent change.
		sub.ch <- st.room.Clone()
	})
	if err != nil {
		return nil, err
	}

	cancel := func() {
		// Best effort: the room may already be gone, in which case the
		// channel is closed already.
		_ = s.do(context.Background(), code, func(st *roomState) {
			if _, ok := st.subs[id]; ok {
				delete(st.subs, id)
				sub.close(nil)
			}
		})
	}

	return store.NewSubscription(sub.ch, cancel, sub.errValue), nil
}

func (s *RoomStore) Stale(ctx context.Context, maxAge time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-maxAge)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var codes []string
	for code, a := range s.rooms {
		if a.createdAt.Before(cutoff) {
			codes = append(codes, code)
		}
	}

	return codes, nil
}

func (s *RoomStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// spawnLocked creates the owner goroutine for a new room. Caller holds
// the store lock.
func (s *RoomStore) spawnLocked(code string, room *models.Room) *roomActor {
	a := &roomActor{
		code:      code,
		createdAt: time.Now(),
		ops:       make(chan func(*roomState)),
		closed:    make(chan struct{}),
	}
	s.rooms[code] = a

	st := &roomState{
		room: room.Clone(),
		subs: make(map[int]*subscriber),
	}

	go func() {
		for {
			select {
			case op := <-a.ops:
				op(st)
			case <-a.closed:
				return
			}
		}
	}()

	return a
}

// broadcast fans the current document out to every subscriber. A
// subscriber that cannot keep up is dropped and its stream terminated
// as unavailable rather than silently skipping updates.
func broadcast(st *roomState) {
	for id, sub := range st.subs {
		select {
		case sub.ch <- st.room.Clone():
		default:
			delete(st.subs, id)
			sub.close(store.ErrStoreUnavailable)
		}
	}
}

// applyPatch mutates a single field addressed by path. Mirrors the
// wire document layout: top-level fields, "players/<id>", or
// "players/<id>/<field>".
func applyPatch(room *models.Room, path string, value any) error {
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1:
		return patchRoomField(room, parts[0], value)
	case len(parts) == 2 && parts[0] == "players":
		return patchPlayerEntry(room, parts[1], value)
	case len(parts) == 3 && parts[0] == "players":
		return patchPlayerField(room, parts[1], parts[2], value)
	default:
		return fmt.Errorf("unknown patch path %q", path)
	}
}

func patchRoomField(room *models.Room, field string, value any) error {
	switch field {
	case "gameState":
		switch v := value.(type) {
		case models.GameState:
			room.GameState = v
		case string:
			room.GameState = models.GameState(v)
		default:
			return fmt.Errorf("patch gameState: unsupported value %T", value)
		}
		if !room.GameState.Valid() {
			return fmt.Errorf("patch gameState: unknown state %q", room.GameState)
		}
	case "gameStartTime":
		v, ok := value.(int64)
		if !ok {
			return fmt.Errorf("patch gameStartTime: unsupported value %T", value)
		}
		room.GameStartTime = v
	case "normalWord":
		return patchString(&room.NormalWord, field, value)
	case "spyWord":
		return patchString(&room.SpyWord, field, value)
	case "spyId":
		return patchString(&room.SpyID, field, value)
	case "hostId":
		return patchString(&room.HostID, field, value)
	case "category":
		return patchString(&room.Category, field, value)
	case "gameDuration":
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("patch gameDuration: unsupported value %T", value)
		}
		room.GameDuration = v
	default:
		return fmt.Errorf("unknown room field %q", field)
	}

	return nil
}

func patchPlayerEntry(room *models.Room, id string, value any) error {
	if value == nil {
		delete(room.Players, id)
		return nil
	}

	switch v := value.(type) {
	case *models.Player:
		pc := *v
		room.Players[id] = &pc
	case models.Player:
		room.Players[id] = &v
	default:
		return fmt.Errorf("patch players/%s: unsupported value %T", id, value)
	}

	return nil
}

func patchPlayerField(room *models.Room, id, field string, value any) error {
	p, ok := room.Players[id]
	if !ok {
		return fmt.Errorf("patch players/%s/%s: no such player", id, field)
	}

	switch field {
	case "isReady":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("patch isReady: unsupported value %T", value)
		}
		p.IsReady = v
	case "isSpy":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("patch isSpy: unsupported value %T", value)
		}
		p.IsSpy = v
	case "name":
		return patchString(&p.Name, field, value)
	case "word":
		return patchString(&p.Word, field, value)
	default:
		return fmt.Errorf("unknown player field %q", field)
	}

	return nil
}

func patchString(dst *string, field string, value any) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("patch %s: unsupported value %T", field, value)
	}
	*dst = v
	return nil
}
