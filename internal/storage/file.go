package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"antrianbot/internal/queue"
	logx "antrianbot/pkg/logx"
)

// fileStore keeps every subscription in memory and mirrors it to one JSON
// array file. Each mutation rewrites the file through a temp file + rename,
// and the in-memory copy only changes once the write succeeded.
type fileStore struct {
	path string
	log  logx.Logger

	mu     sync.Mutex
	subs   map[int64]queue.Subscription
	closed bool
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	subs, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	log.Info("subscriptions loaded", logx.String("path", path), logx.Int("count", len(subs)))
	return &fileStore{path: path, log: log, subs: subs}, nil
}

// loadFile reads the whole store. A missing file is an empty store.
func loadFile(path string) (map[int64]queue.Subscription, error) {
	out := map[int64]queue.Subscription{}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return out, nil
	}
	var rows []queue.Subscription
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", path, err)
	}
	for _, r := range rows {
		out[r.ChatID] = r
	}
	return out, nil
}

func (s *fileStore) List(ctx context.Context) ([]queue.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return sortedSubs(s.subs), nil
}

func (s *fileStore) Get(ctx context.Context, chatID int64) (queue.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return queue.Subscription{}, ErrClosed
	}
	sub, ok := s.subs[chatID]
	if !ok {
		return queue.Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (s *fileStore) Put(ctx context.Context, sub queue.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := maps.Clone(s.subs)
	next[sub.ChatID] = sub
	return s.commitLocked(next)
}

func (s *fileStore) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.subs[chatID]; !ok {
		return nil
	}
	next := maps.Clone(s.subs)
	delete(next, chatID)
	return s.commitLocked(next)
}

func (s *fileStore) Update(ctx context.Context, chatID int64, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cur, ok := s.subs[chatID]
	sub, skip, err := applyUpdate(chatID, cur, ok, fn)
	if err != nil || skip {
		return err
	}
	next := maps.Clone(s.subs)
	next[chatID] = sub
	return s.commitLocked(next)
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fileStore) commitLocked(next map[int64]queue.Subscription) error {
	if err := writeFileAtomic(s.path, sortedSubs(next)); err != nil {
		s.log.Error("subscriptions write failed", logx.String("path", s.path), logx.Err(err))
		return err
	}
	s.subs = next
	return nil
}

func writeFileAtomic(path string, rows []queue.Subscription) error {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func sortedSubs(m map[int64]queue.Subscription) []queue.Subscription {
	out := make([]queue.Subscription, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[id])
	}
	return out
}
