// イベントフォーマッタのエントリポイント。
// 新規の機会を通知するデータベースWebhookを受け取り、
// 通知文を組み立ててディスパッチャにブロードキャストを依頼する。
package main

import (
	"log"

	"github.com/nao1215/pushrelay/internal/config"
	"github.com/nao1215/pushrelay/internal/formatter"
	"github.com/nao1215/pushrelay/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	if err := cfg.ValidateFormatter(); err != nil {
		log.Fatalf("設定が不正です:\n%v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	relay := formatter.NewDispatcherClient(cfg.DispatcherURL, cfg.ServiceRoleKey, cfg.HTTPTimeout)
	server := formatter.NewServer(cfg.Port, relay, logger)

	logger.Info("イベントフォーマッタを起動します",
		zap.String("port", cfg.Port),
		zap.String("dispatcher_url", cfg.DispatcherURL),
	)
	if err := server.Run(); err != nil {
		logger.Fatal("イベントフォーマッタの起動に失敗", zap.Error(err))
	}
}
