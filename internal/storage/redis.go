package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"antrianbot/internal/queue"
	logx "antrianbot/pkg/logx"
)

const (
	defaultRedisKey = "antrianbot:subscriptions"
	// optimistic transaction attempts before Update gives up
	redisTxAttempts = 5
)

// redisStore keeps one hash field per chat id holding the JSON record.
type redisStore struct {
	rdb *redis.Client
	key string
	log logx.Logger
}

func openRedis(cfg Config, log logx.Logger) (Store, error) {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	key := strings.TrimSpace(cfg.Redis.Key)
	if key == "" {
		key = defaultRedisKey
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("storage: redis %s: %w", addr, err)
	}
	log.Info("redis store connected", logx.String("addr", addr), logx.Int("db", cfg.Redis.DB), logx.String("key", key))
	return &redisStore{rdb: rdb, key: key, log: log}, nil
}

func field(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func (s *redisStore) List(ctx context.Context) ([]queue.Subscription, error) {
	all, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]queue.Subscription, 0, len(all))
	for f, raw := range all {
		var sub queue.Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			s.log.Warn("skipping undecodable subscription", logx.String("field", f), logx.Err(err))
			continue
		}
		out = append(out, sub)
	}
	slices.SortFunc(out, func(a, b queue.Subscription) int {
		switch {
		case a.ChatID < b.ChatID:
			return -1
		case a.ChatID > b.ChatID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *redisStore) Get(ctx context.Context, chatID int64) (queue.Subscription, error) {
	return s.get(ctx, s.rdb, chatID)
}

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

func (s *redisStore) get(ctx context.Context, c hashGetter, chatID int64) (queue.Subscription, error) {
	raw, err := c.HGet(ctx, s.key, field(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return queue.Subscription{}, ErrNotFound
	}
	if err != nil {
		return queue.Subscription{}, err
	}
	var sub queue.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return queue.Subscription{}, fmt.Errorf("storage: decode %d: %w", chatID, err)
	}
	return sub, nil
}

func (s *redisStore) Put(ctx context.Context, sub queue.Subscription) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.key, field(sub.ChatID), b).Err()
}

func (s *redisStore) Delete(ctx context.Context, chatID int64) error {
	return s.rdb.HDel(ctx, s.key, field(chatID)).Err()
}

// Update retries on concurrent modification of the hash.
func (s *redisStore) Update(ctx context.Context, chatID int64, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		cur, err := s.get(ctx, tx, chatID)
		ok := err == nil
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		next, skip, err := applyUpdate(chatID, cur, ok, fn)
		if err != nil || skip {
			return err
		}
		b, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, field(chatID), b)
			return nil
		})
		return err
	}

	for range redisTxAttempts {
		err := s.rdb.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("storage: update %d: %w", chatID, redis.TxFailedErr)
}

func (s *redisStore) Close() error { return s.rdb.Close() }
