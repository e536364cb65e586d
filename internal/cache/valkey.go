package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
	EventsTTL    time.Duration
}

type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
	eventsTTL    time.Duration
}

// CachedPrincipal is the auth cache entry: enough to authorize a request
// without touching the database
type CachedPrincipal struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
		eventsTTL:    cfg.EventsTTL,
	}, nil
}

func authCacheKey(email, passwordHash string) string {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	return base64.StdEncoding.EncodeToString([]byte(authString))
}

// GetPrincipalByAuth looks up a cached credential check
func (v *ValkeyClient) GetPrincipalByAuth(ctx context.Context, email, passwordHash string) (CachedPrincipal, error) {
	raw, err := v.client.HGet(ctx, v.usersHashKey, authCacheKey(email, passwordHash)).Result()
	if err != nil {
		if err == redis.Nil {
			return CachedPrincipal{}, fmt.Errorf("user not found in cache")
		}
		return CachedPrincipal{}, fmt.Errorf("cache lookup error: %w", err)
	}

	var principal CachedPrincipal
	if err := json.Unmarshal([]byte(raw), &principal); err != nil {
		return CachedPrincipal{}, fmt.Errorf("invalid principal in cache: %w", err)
	}

	return principal, nil
}

// SetPrincipalAuth caches a verified credential check; best effort
func (v *ValkeyClient) SetPrincipalAuth(ctx context.Context, email, passwordHash string, principal CachedPrincipal) {
	raw, err := json.Marshal(principal)
	if err != nil {
		return
	}

	if err := v.client.HSet(ctx, v.usersHashKey, authCacheKey(email, passwordHash), raw).Err(); err != nil {
		slog.Warn("Failed to cache principal", "error", err)
	}
}

func eventsListKey(page, pageSize int) string {
	return fmt.Sprintf("events:list:%d:%d", page, pageSize)
}

// GetEventsListRaw returns the cached catalog page as raw JSON to avoid an
// unmarshal/marshal round trip on the hot path
func (v *ValkeyClient) GetEventsListRaw(ctx context.Context, page, pageSize int) ([]byte, error) {
	raw, err := v.client.Get(ctx, eventsListKey(page, pageSize)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("events list not in cache")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return raw, nil
}

// SetEventsList caches a catalog page; best effort
func (v *ValkeyClient) SetEventsList(ctx context.Context, page, pageSize int, response interface{}) {
	raw, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := v.client.Set(ctx, eventsListKey(page, pageSize), raw, v.eventsTTL).Err(); err != nil {
		slog.Warn("Failed to cache events list", "error", err)
	}
}

// InvalidateEventsList drops all cached catalog pages after an admin mutation
func (v *ValkeyClient) InvalidateEventsList(ctx context.Context) {
	iter := v.client.Scan(ctx, 0, "events:list:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := v.client.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Warn("Failed to invalidate events list cache", "error", err, "key", iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Failed to scan events list cache keys", "error", err)
	}
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
