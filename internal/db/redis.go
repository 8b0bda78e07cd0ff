package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Feature-local keys the console keeps next to the sessions. They are an
// offline cache and demo seed, never a source of truth.
const (
	ProgressDataKey  = "troy_progress_data"
	SimpleClientsKey = "troy_simple_clients"
	ReadCampaignsKey = "readCampaigns"
)

// RefreshChannel carries list refresh messages after console mutations.
const RefreshChannel = "console-refresh"

// RedisStore wraps a redis client for console state.
type RedisStore struct {
	Client *redis.Client
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

func clientKey(client, key string) string {
	return fmt.Sprintf("console:%s:%s", client, key)
}

// LocalScope is the persistent key/value scope of one console client. It
// satisfies session.Store.
type LocalScope struct {
	store  *RedisStore
	client string
	ttl    time.Duration
}

// Scope returns the local scope of a console client. Values expire after ttl
// of inactivity; zero keeps them indefinitely.
func (r *RedisStore) Scope(client string, ttl time.Duration) *LocalScope {
	return &LocalScope{store: r, client: client, ttl: ttl}
}

func (s *LocalScope) Get(ctx context.Context, key string) (string, error) {
	v, err := s.store.Client.Get(ctx, clientKey(s.client, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *LocalScope) Set(ctx context.Context, key, value string) error {
	return s.store.Client.Set(ctx, clientKey(s.client, key), value, s.ttl).Err()
}

// SaveSnapshot stores the last good payload of a view for offline fallback.
func (r *RedisStore) SaveSnapshot(ctx context.Context, view string, payload []byte, ttl time.Duration) error {
	return r.Client.Set(ctx, "console:snapshot:"+view, payload, ttl).Err()
}

// LoadSnapshot returns the last good payload of a view. ok is false when none
// is stored.
func (r *RedisStore) LoadSnapshot(ctx context.Context, view string) (payload []byte, ok bool, err error) {
	b, err := r.Client.Get(ctx, "console:snapshot:"+view).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// SetProgressOverride records an operator-entered progress percentage for a
// campaign, merged over server data when the progress view is rendered.
func (r *RedisStore) SetProgressOverride(ctx context.Context, campaignID string, pct float64) error {
	return r.Client.HSet(ctx, ProgressDataKey, campaignID, strconv.FormatFloat(pct, 'f', -1, 64)).Err()
}

// ClearProgressOverride drops the override of a campaign.
func (r *RedisStore) ClearProgressOverride(ctx context.Context, campaignID string) error {
	return r.Client.HDel(ctx, ProgressDataKey, campaignID).Err()
}

// ProgressOverrides returns every stored override by campaign id. Entries
// that do not parse are skipped.
func (r *RedisStore) ProgressOverrides(ctx context.Context) (map[string]float64, error) {
	raw, err := r.Client.HGetAll(ctx, ProgressDataKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for id, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out[id] = f
	}
	return out, nil
}

// MarkCampaignRead remembers that a console client opened a campaign.
func (r *RedisStore) MarkCampaignRead(ctx context.Context, client, campaignID string) error {
	return r.Client.SAdd(ctx, clientKey(client, ReadCampaignsKey), campaignID).Err()
}

// ReadCampaigns returns the campaign ids a console client has opened.
func (r *RedisStore) ReadCampaigns(ctx context.Context, client string) (map[string]bool, error) {
	ids, err := r.Client.SMembers(ctx, clientKey(client, ReadCampaignsKey)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// PublishRefresh broadcasts a refresh message to other console instances.
func (r *RedisStore) PublishRefresh(ctx context.Context, payload []byte) error {
	return r.Client.Publish(ctx, RefreshChannel, payload).Err()
}

// SubscribeRefresh delivers refresh messages to fn until ctx is cancelled.
func (r *RedisStore) SubscribeRefresh(ctx context.Context, fn func([]byte)) error {
	sub := r.Client.Subscribe(ctx, RefreshChannel)
	defer func() {
		_ = sub.Close()
	}()
	// wait for the subscription to be confirmed before returning control
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", RefreshChannel, err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn([]byte(msg.Payload))
		}
	}
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
