package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRefreshLeeway は有効期限のどれだけ前にトークンを更新するか。
const DefaultRefreshLeeway = time.Minute

// DefaultRedisKey はRedisキャッシュで使うキー。
const DefaultRedisKey = "pushrelay:fcm:access_token"

// Cache はアクセストークンの保存先。
// Getはキャッシュが空の場合にnil, nilを返す。
type Cache interface {
	Get(ctx context.Context) (*Token, error)
	Set(ctx context.Context, token *Token) error
}

// MemoryCache はプロセス内でトークンを共有するキャッシュ。
type MemoryCache struct {
	mu    sync.RWMutex
	token *Token
}

// NewMemoryCache は空のMemoryCacheを生成する。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get は保存済みのトークンを返す。
func (c *MemoryCache) Get(_ context.Context) (*Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return nil, nil
	}
	token := *c.token
	return &token, nil
}

// Set はトークンを保存する。
func (c *MemoryCache) Set(_ context.Context, token *Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *token
	c.token = &stored
	return nil
}

// RedisCache は複数のレプリカでトークンを共有するためのRedisキャッシュ。
type RedisCache struct {
	// client はRedisクライアント。
	client *redis.Client
	// key はトークンを保存するキー。
	key string
	// now は現在時刻を返す関数。
	now func() time.Time
}

// NewRedisCache は新しいRedisCacheを生成する。
func NewRedisCache(client *redis.Client, key string) *RedisCache {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCache{client: client, key: key, now: time.Now}
}

// Get はRedisからトークンを読み出す。キーが存在しない場合はnil, nilを返す。
func (c *RedisCache) Get(ctx context.Context) (*Token, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Redisからのトークン取得に失敗: %w", err)
	}

	var token Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("キャッシュ済みトークンのデシリアライズに失敗: %w", err)
	}
	return &token, nil
}

// Set はトークンを有効期限までのTTL付きでRedisに保存する。
// 既に期限切れのトークンは保存しない。
func (c *RedisCache) Set(ctx context.Context, token *Token) error {
	ttl := token.Expiry.Sub(c.now())
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("トークンのシリアライズに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("Redisへのトークン保存に失敗: %w", err)
	}
	return nil
}

// CachedSource はキャッシュ済みのトークンが有効な間はそれを返し、
// 期限が近づいたら元のSourceから取得し直す。
// 同時に呼び出された場合でも、更新はプロセス内で一度に一つだけ行う。
type CachedSource struct {
	// source はトークンの取得元。
	source Source
	// cache はトークンの保存先。
	cache Cache
	// leeway は有効期限前に更新を始める猶予。
	leeway time.Duration
	// logger はキャッシュ障害を記録するロガー。
	logger *zap.Logger
	// now は現在時刻を返す関数。
	now func() time.Time

	mu sync.Mutex
}

// NewCachedSource は新しいCachedSourceを生成する。
func NewCachedSource(source Source, cache Cache, logger *zap.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		leeway: DefaultRefreshLeeway,
		logger: logger,
		now:    time.Now,
	}
}

// Token は有効なアクセストークンを返す。
// キャッシュの読み書きに失敗しても、元のSourceから取得できれば成功とする。
func (s *CachedSource) Token(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("トークンキャッシュの読み出しに失敗", zap.Error(err))
	}
	if cached.ValidAt(s.now(), s.leeway) {
		return cached, nil
	}

	token, err := s.source.Token(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, token); err != nil {
		s.logger.Warn("トークンキャッシュへの保存に失敗", zap.Error(err))
	}
	s.logger.Debug("アクセストークンを更新しました", zap.Time("expiry", token.Expiry))
	return token, nil
}
