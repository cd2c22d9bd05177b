package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/milyonersgroup/catchthespy/internal/domain/models"
)

var (
	// ErrRoomNotFound is returned when an operation targets a room
	// code the store does not hold.
	ErrRoomNotFound = errors.New("room not found")

	// ErrStoreUnavailable is returned when the store cannot serve an
	// operation at all, and terminates subscriptions on transport loss.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Subscription is a live stream of room snapshots. Updates delivers the
// current document immediately, then the full document again after
// every change, the subscriber's own writes included. The channel is
// closed when the room is deleted, the subscription is canceled, or the
// store drops the subscriber; Err distinguishes the last case.
type Subscription struct {
	updates  <-chan *models.Room
	cancel   func()
	err      func() error
	canceled atomic.Bool
}

func NewSubscription(updates <-chan *models.Room, cancel func(), err func() error) *Subscription {
	return &Subscription{updates: updates, cancel: cancel, err: err}
}

// Updates is the snapshot channel.
func (s *Subscription) Updates() <-chan *models.Room {
	return s.updates
}

// Cancel detaches the subscriber. Safe to call more than once. It never
// touches the room itself; leaving is a separate lifecycle call.
func (s *Subscription) Cancel() {
	s.canceled.Store(true)
	s.cancel()
}

// Canceled reports whether the consumer canceled the stream itself.
func (s *Subscription) Canceled() bool {
	return s.canceled.Load()
}

// Err reports why the stream ended, nil for a plain close or cancel.
func (s *Subscription) Err() error {
	return s.err()
}

// RoomStore is the shared mutable document keyed by room code. Writes
// from different callers carry no ordering guarantee beyond last write
// wins per field; each single operation is applied atomically.
type RoomStore interface {
	// Get returns a copy of the current document.
	Get(ctx context.Context, code string) (*models.Room, error)

	// Put replaces the whole document, creating it if absent.
	Put(ctx context.Context, code string, room *models.Room) error

	// Patch updates a single field addressed by a slash path:
	// a top-level field name, "players/<id>" (nil value removes the
	// entry), or "players/<id>/<field>".
	Patch(ctx context.Context, code string, path string, value any) error

	// Delete removes the document and closes its subscriptions.
	Delete(ctx context.Context, code string) error

	// Subscribe opens a snapshot stream for the room.
	Subscribe(ctx context.Context, code string) (*Subscription, error)

	// Stale lists codes of rooms created more than maxAge ago, for the
	// expiry sweep.
	Stale(ctx context.Context, maxAge time.Duration) ([]string, error)

	// Len reports how many rooms the store currently holds.
	Len(ctx context.Context) int
}
