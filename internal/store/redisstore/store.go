// Package redisstore provides a Redis-backed LedgerPort.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"towerdefense/internal/domain"
	"towerdefense/internal/ports"

	"github.com/go-redis/redis/v8"
)

// Store keeps one JSON value and one version counter per owner, plus a list
// for the history log.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	addr := opts.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(rdb, opts.Prefix), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "td"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) accountKey(ownerID string) string { return s.prefix + ":account:" + ownerID }
func (s *Store) versionKey(ownerID string) string { return s.prefix + ":version:" + ownerID }
func (s *Store) historyKey(ownerID string) string { return s.prefix + ":history:" + ownerID }

// Load reads the account and version in one MGET.
func (s *Store) Load(ctx context.Context, ownerID string) (*domain.Account, string, error) {
	vals, err := s.rdb.MGet(ctx, s.accountKey(ownerID), s.versionKey(ownerID)).Result()
	if err != nil {
		return nil, "", fmt.Errorf("mget account: %w", err)
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, "", ports.ErrAccountNotFound
	}
	version, _ := vals[1].(string)

	var acct domain.Account
	if err := json.Unmarshal([]byte(data), &acct); err != nil {
		return nil, "", fmt.Errorf("decode account: %w", err)
	}
	return &acct, version, nil
}

// Commit writes the account and pushes history entries inside MULTI/EXEC,
// guarded by WATCH on the version and history keys.
func (s *Store) Commit(ctx context.Context, ownerID, expectedVersion string, acct *domain.Account, appended []domain.GameRecord) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	rows := make([]interface{}, 0, len(appended))
	for _, record := range appended {
		b, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		rows = append(rows, string(b))
	}

	accountKey, versionKey, historyKey := s.accountKey(ownerID), s.versionKey(ownerID), s.historyKey(ownerID)
	start := int64(acct.HistoryCount) - int64(len(rows))

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if errors.Is(err, redis.Nil) {
			current = ""
		} else if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		if current != expectedVersion {
			return ports.ErrVersionConflict
		}
		length, err := tx.LLen(ctx, historyKey).Result()
		if err != nil {
			return fmt.Errorf("history length: %w", err)
		}
		if length != start {
			return fmt.Errorf("history position %d, log has %d entries: %w", start, length, ports.ErrVersionConflict)
		}

		next := int64(1)
		if current != "" {
			n, err := strconv.ParseInt(current, 10, 64)
			if err != nil {
				return fmt.Errorf("bad version %q: %w", current, err)
			}
			next = n + 1
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, accountKey, string(data), 0)
			pipe.Set(ctx, versionKey, strconv.FormatInt(next, 10), 0)
			if len(rows) > 0 {
				pipe.RPush(ctx, historyKey, rows...)
			}
			return nil
		})
		return err
	}, versionKey, historyKey)

	if errors.Is(err, redis.TxFailedErr) {
		return ports.ErrVersionConflict
	}
	return err
}

// History returns the full history list.
func (s *Store) History(ctx context.Context, ownerID string) ([]domain.GameRecord, error) {
	vals, err := s.rdb.LRange(ctx, s.historyKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange history: %w", err)
	}
	out := make([]domain.GameRecord, 0, len(vals))
	for _, v := range vals {
		var record domain.GameRecord
		if err := json.Unmarshal([]byte(v), &record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, record)
	}
	return out, nil
}

var _ ports.LedgerPort = (*Store)(nil)
