package dispatcher

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/nao1215/pushrelay/pkg/middleware"
	"go.uber.org/zap"
)

// Server はディスパッチャのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// dispatcher は送信処理の本体。
	dispatcher *Dispatcher
	// metrics はPrometheusメトリクス。
	metrics *Metrics
	// serviceKey は空でなければ送信APIのBearer認証に使うサービスキー。
	serviceKey string
	// logger はロガー。
	logger *zap.Logger
}

// ServerOption はServerの設定を変更する関数。
type ServerOption func(*Server)

// WithServiceKeyAuth は送信APIでサービスキーによるBearer認証を要求する。
func WithServiceKeyAuth(serviceKey string) ServerOption {
	return func(s *Server) {
		s.serviceKey = serviceKey
	}
}

// NewServer は新しいディスパッチャサーバーを生成する。
func NewServer(port string, dispatcher *Dispatcher, metrics *Metrics, logger *zap.Logger, opts ...ServerOption) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(metrics.Middleware())

	s := &Server{
		router:     router,
		port:       port,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
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
	send := s.router.Group("")
	if s.serviceKey != "" {
		send.Use(middleware.ServiceKeyAuth(s.serviceKey))
	}
	{
		// Supabase Edge Functionと同じくルートで受け付ける
		send.POST("/", s.handleSend())
		send.POST("/api/v1/notifications/send", s.handleSend())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dispatcher"})
	})
	// メトリクス
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// handleSend は送信リクエストを受け付けるハンドラ。
func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, apperror.Wrap(apperror.CodeValidation, "Invalid request body", err))
			return
		}

		result, err := s.dispatcher.Dispatch(c.Request.Context(), req)
		if err != nil {
			s.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// respondError はエラーをステータスコードに変換して返す。
// 呼び出し元にはメッセージのみを返し、エラーコードは含めない。
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperror.Status(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("送信処理に失敗しました",
			zap.String("code", string(apperror.CodeOf(err))),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperror.Public(err)})
}
