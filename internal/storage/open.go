package storage

import (
	"errors"
	"fmt"
	"strings"

	"antrianbot/internal/queue"
	logx "antrianbot/pkg/logx"
)

const DefaultPath = "subscriptions.json"

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	log = log.With(logx.String("driver", driver))

	switch driver {
	case "", "file", "json":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "redis":
		return openRedis(cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}

// applyUpdate runs fn and normalizes its result. skip reports ErrNoChange.
func applyUpdate(chatID int64, cur queue.Subscription, ok bool, fn UpdateFunc) (next queue.Subscription, skip bool, err error) {
	next, err = fn(cur, ok)
	if errors.Is(err, ErrNoChange) {
		return queue.Subscription{}, true, nil
	}
	if err != nil {
		return queue.Subscription{}, false, err
	}
	next.ChatID = chatID
	return next, false, nil
}
