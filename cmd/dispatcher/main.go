// ディスパッチャのエントリポイント。
// 送信リクエストを受け取り、サービスアカウントで取得したアクセストークンを使って
// 送信先のデバイスごとにFCMへプッシュ通知を送る。
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nao1215/pushrelay/internal/config"
	"github.com/nao1215/pushrelay/internal/directory"
	"github.com/nao1215/pushrelay/internal/dispatcher"
	"github.com/nao1215/pushrelay/pkg/credential"
	"github.com/nao1215/pushrelay/pkg/fcm"
	"github.com/nao1215/pushrelay/pkg/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// startupTimeout は起動時の接続確認のタイムアウト。
const startupTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	if err := cfg.ValidateDispatcher(); err != nil {
		log.Fatalf("設定が不正です:\n%v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	key, err := credential.LoadSigningKey(cfg.FirebasePrivateKey)
	if err != nil {
		logger.Fatal("サービスアカウントの秘密鍵の読み込みに失敗", zap.Error(err))
	}
	exchanger := credential.NewExchanger(
		credential.ServiceAccount{ClientEmail: cfg.FirebaseClientEmail, PrivateKey: key},
		credential.WithTokenURL(cfg.OAuthTokenURL),
		credential.WithHTTPTimeout(cfg.HTTPTimeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	source, closeSource, err := newTokenSource(ctx, cfg, exchanger, logger)
	if err != nil {
		logger.Fatal("トークンキャッシュの初期化に失敗", zap.Error(err))
	}
	defer func() { _ = closeSource() }()

	dir, closeDir, err := directory.Open(ctx, directory.Options{
		Driver:      cfg.DirectoryDriver,
		SupabaseURL: cfg.SupabaseURL,
		ServiceKey:  cfg.ServiceRoleKey,
		DatabaseURL: cfg.DatabaseURL,
		Timeout:     cfg.HTTPTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("受信者ディレクトリの初期化に失敗", zap.Error(err))
	}
	defer func() { _ = closeDir() }()

	metrics := dispatcher.NewMetrics()
	d := dispatcher.New(dir, source,
		fcm.NewClient(cfg.FCMBaseURL, cfg.FirebaseProjectID, cfg.HTTPTimeout),
		metrics, logger)

	var opts []dispatcher.ServerOption
	if cfg.DispatcherRequireAuth {
		opts = append(opts, dispatcher.WithServiceKeyAuth(cfg.ServiceRoleKey))
	}
	server := dispatcher.NewServer(cfg.Port, d, metrics, logger, opts...)

	logger.Info("ディスパッチャを起動します",
		zap.String("port", cfg.Port),
		zap.String("project_id", cfg.FirebaseProjectID),
		zap.String("directory", string(cfg.DirectoryDriver)),
		zap.String("token_cache", string(cfg.TokenCache)),
		zap.Bool("require_auth", cfg.DispatcherRequireAuth),
	)
	if err := server.Run(); err != nil {
		logger.Fatal("ディスパッチャの起動に失敗", zap.Error(err))
	}
}

// newTokenSource は設定に応じてアクセストークンの取得元を組み立てる。
func newTokenSource(ctx context.Context, cfg *config.Config, exchanger *credential.Exchanger, logger *zap.Logger) (credential.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.TokenCache {
	case config.TokenCacheMemory:
		return credential.NewCachedSource(exchanger, credential.NewMemoryCache(), logger), noop, nil

	case config.TokenCacheRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("REDIS_URLの解析に失敗: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
		}
		return credential.NewCachedSource(exchanger, credential.NewRedisCache(client, ""), logger), client.Close, nil

	default:
		return exchanger, noop, nil
	}
}
