package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/pushrelay/internal/dispatcher"
	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/nao1215/pushrelay/pkg/event"
	"github.com/nao1215/pushrelay/pkg/middleware"
	"go.uber.org/zap"
)

// Relay はブロードキャストの送信リクエストをディスパッチャに転送する。
type Relay interface {
	Send(ctx context.Context, req dispatcher.SendRequest) (json.RawMessage, error)
}

// Server はイベントフォーマッタのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// relay はディスパッチャへの転送クライアント。
	relay Relay
	// logger はロガー。
	logger *zap.Logger
}

// NewServer は新しいイベントフォーマッタサーバーを生成する。
func NewServer(port string, relay Relay, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger))

	s := &Server{
		router: router,
		port:   port,
		relay:  relay,
		logger: logger,
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はサーバーのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// Webhookの送信先としてルートでも受け付ける
	s.router.POST("/", s.handleNotify())
	s.router.POST("/api/v1/opportunities/notify", s.handleNotify())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "formatter"})
	})
}

// handleNotify はWebhookを受け取り、整形した通知をブロードキャストするハンドラ。
func (s *Server) handleNotify() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			s.respondError(c, apperror.Wrap(apperror.CodeValidation, "Failed to read request body", err))
			return
		}

		payload, err := event.ParseWebhook(data)
		if errors.Is(err, event.ErrNoRecord) {
			s.respondError(c, apperror.New(apperror.CodeValidation, "No record provided"))
			return
		}
		if errors.Is(err, event.ErrNoType) {
			s.respondError(c, apperror.New(apperror.CodeValidation, "Record type is required"))
			return
		}
		if err != nil {
			s.respondError(c, apperror.Wrap(apperror.CodeValidation, "Invalid request body", err))
			return
		}

		title, body := Format(*payload.Record)
		s.logger.Info("機会の通知を転送します",
			zap.String("webhook_type", payload.Type),
			zap.String("table", payload.Table),
			zap.String("opportunity_type", string(payload.Record.Type)),
			zap.String("title", title),
		)

		result, err := s.relay.Send(c.Request.Context(), dispatcher.SendRequest{
			Broadcast: true,
			Title:     title,
			Body:      body,
		})
		if err != nil {
			s.respondError(c, err)
			return
		}

		c.Data(http.StatusOK, "application/json", result)
	}
}

// respondError はエラーをステータスコードに変換して返す。
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperror.Status(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("通知の転送に失敗しました",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperror.Public(err)})
}
