package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/irfndi/timeseries-dashboard/internal/telemetry"
)

// RedisStore keeps session values under session:<sid>:<key> with a sliding TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string

	mu    sync.Mutex
	stats Stats
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: "session:",
		stats:  Stats{Since: time.Now()},
	}
}

func (s *RedisStore) key(sid, key string) string {
	return s.prefix + sid + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrNoSession
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.GetSessionTracer(), "session.get", attribute.String("session.key", key))
	defer span.End()

	k := s.key(sid, key)
	val, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		s.count(func(st *Stats) { st.Misses++ })
		span.SetAttributes(attribute.Bool("session.hit", false))
		return "", false, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return "", false, fmt.Errorf("failed to get session value %s: %w", key, err)
	}
	span.SetAttributes(attribute.Bool("session.hit", true))

	if s.ttl > 0 {
		// Reading keeps the session alive.
		s.client.Expire(ctx, k, s.ttl)
	}
	s.count(func(st *Stats) { st.Hits++ })
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	if sid == "" {
		return ErrNoSession
	}
	ctx, span := telemetry.StartSpan(ctx, telemetry.GetSessionTracer(), "session.set",
		attribute.String("session.key", key),
		attribute.Int("session.value_bytes", len(value)),
	)
	defer span.End()

	if err := s.client.Set(ctx, s.key(sid, key), value, s.ttl).Err(); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to set session value %s: %w", key, err)
	}
	s.count(func(st *Stats) { st.Sets++ })
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, sid, key string) error {
	if sid == "" {
		return ErrNoSession
	}
	if err := s.client.Del(ctx, s.key(sid, key)).Err(); err != nil {
		return fmt.Errorf("failed to remove session value %s: %w", key, err)
	}
	s.count(func(st *Stats) { st.Removes++ })
	return nil
}

// Take reads and deletes a value with a single GETDEL.
func (s *RedisStore) Take(ctx context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrNoSession
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.GetSessionTracer(), "session.take", attribute.String("session.key", key))
	defer span.End()

	val, err := s.client.GetDel(ctx, s.key(sid, key)).Result()
	if errors.Is(err, redis.Nil) {
		s.count(func(st *Stats) { st.Misses++ })
		span.SetAttributes(attribute.Bool("session.hit", false))
		return "", false, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return "", false, fmt.Errorf("failed to take session value %s: %w", key, err)
	}
	span.SetAttributes(attribute.Bool("session.hit", true))
	s.count(func(st *Stats) {
		st.Hits++
		st.Removes++
	})
	return val, true, nil
}

// Stats returns a snapshot of the store counters.
func (s *RedisStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *RedisStore) count(f func(*Stats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}
