package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"antrianbot/internal/queue"
	logx "antrianbot/pkg/logx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	chat_id    INTEGER PRIMARY KEY,
	record     TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	// serializes read-modify-write in Update
	mu sync.Mutex
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.HasSuffix(path, ".json") {
		path = strings.TrimSuffix(path, ".json")
		if path == "" {
			path = "subscriptions"
		}
		path += ".db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, pragma := range []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			log.Debug("sqlite pragma failed", logx.String("pragma", pragma), logx.Err(err))
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: sqlite schema: %w", err)
	}
	log.Info("sqlite store opened", logx.String("path", path))
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) List(ctx context.Context) ([]queue.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM subscriptions ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []queue.Subscription
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var sub queue.Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("storage: decode row: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, chatID int64) (queue.Subscription, error) {
	return getRow(ctx, s.db, chatID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getRow(ctx context.Context, q queryRower, chatID int64) (queue.Subscription, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT record FROM subscriptions WHERE chat_id = ?`, chatID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return queue.Subscription{}, ErrNotFound
	}
	if err != nil {
		return queue.Subscription{}, err
	}
	var sub queue.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return queue.Subscription{}, fmt.Errorf("storage: decode row %d: %w", chatID, err)
	}
	return sub, nil
}

func putRow(ctx context.Context, e execer, sub queue.Subscription) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx,
		`INSERT INTO subscriptions(chat_id, record, updated_at) VALUES(?,?,?)
		 ON CONFLICT(chat_id) DO UPDATE SET record=excluded.record, updated_at=excluded.updated_at`,
		sub.ChatID, string(b), time.Now().UnixMilli(),
	)
	return err
}

func (s *sqliteStore) Put(ctx context.Context, sub queue.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putRow(ctx, s.db, sub)
}

func (s *sqliteStore) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ?`, chatID)
	return err
}

func (s *sqliteStore) Update(ctx context.Context, chatID int64, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := getRow(ctx, tx, chatID)
	ok := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next, skip, err := applyUpdate(chatID, cur, ok, fn)
	if err != nil || skip {
		return err
	}
	if err := putRow(ctx, tx, next); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
