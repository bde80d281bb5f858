package visits

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
)

// RedisStore keeps tallies in a Redis hash so they survive restarts and are
// shared by every server pointed at the same Redis. The tally hash is keyed by
// normalized room name; a companion hash keeps the first spelling recorded.
type RedisStore struct {
	client  *redis.Client
	key     string
	names   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisStore connects to cfg.RedisURL.
//
// Precondition: cfg.RedisURL must be a redis:// URL.
// Postcondition: Returns a connected RedisStore, or a non-nil error if the URL
// is malformed or the server does not answer a ping.
func NewRedisStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opt)
	s := &RedisStore{
		client:  client,
		key:     cfg.Key,
		names:   cfg.Key + ":names",
		timeout: cfg.Timeout,
		logger:  logger,
	}
	if err := s.Health(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("visit store connected", zap.String("addr", opt.Addr), zap.String("key", cfg.Key))
	return s, nil
}

// Health pings Redis within the configured timeout.
func (s *RedisStore) Health(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Record adds one visit to room. Spellings that normalize alike share a tally.
func (s *RedisStore) Record(ctx context.Context, room string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	field := house.Normalize(room)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, s.names, field, room)
		pipe.HIncrBy(ctx, s.key, field, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording visit to %q: %w", room, err)
	}
	return nil
}

// Counts reads the tally hash, keyed by display name. A field with no
// recorded spelling is shown as stored.
func (s *RedisStore) Counts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var fields, names *redis.MapStringStringCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, s.key)
		names = pipe.HGetAll(ctx, s.names)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading visits: %w", err)
	}

	display := names.Val()
	counts := make(map[string]int64, len(fields.Val()))
	for field, raw := range fields.Val() {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.logger.Warn("skipping malformed visit count",
				zap.String("room", field),
				zap.String("value", raw),
			)
			continue
		}
		room, ok := display[field]
		if !ok {
			room = field
		}
		counts[room] += n
	}
	return counts, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Open returns a RedisStore when cfg names a Redis URL and a MemoryStore
// otherwise.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	if cfg.RedisURL == "" {
		return NewMemoryStore(), nil
	}
	return NewRedisStore(ctx, cfg, logger)
}
