package storage

import (
	"context"
	"errors"
	"time"

	"antrianbot/internal/queue"
)

var (
	ErrNotFound = errors.New("storage: subscription not found")
	ErrClosed   = errors.New("storage: closed")

	// ErrNoChange may be returned by an UpdateFunc to leave the record untouched.
	// Update then returns nil.
	ErrNoChange = errors.New("storage: no change")
)

// Config selects and configures a driver.
//
// Driver values: "file" (default), "sqlite", "redis".
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	Redis       RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string // hash key; default "antrianbot:subscriptions"
}

// UpdateFunc receives the current record (ok=false when none exists) and
// returns the record to store.
type UpdateFunc func(cur queue.Subscription, ok bool) (queue.Subscription, error)

// Store is the persistence API used by the monitor and the chat handlers.
// There is at most one subscription per chat.
type Store interface {
	List(ctx context.Context) ([]queue.Subscription, error)
	Get(ctx context.Context, chatID int64) (queue.Subscription, error)
	Put(ctx context.Context, sub queue.Subscription) error
	Delete(ctx context.Context, chatID int64) error
	// Update applies fn atomically with respect to other writers.
	Update(ctx context.Context, chatID int64, fn UpdateFunc) error
	Close() error
}
