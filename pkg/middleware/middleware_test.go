package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestServiceKeyAuth はServiceKeyAuthミドルウェアを検証する。
func TestServiceKeyAuth(t *testing.T) {
	t.Parallel()

	const key = "service-role-key"

	tests := []struct {
		name       string
		header     string
		serviceKey string
		wantStatus int
	}{
		{name: "正しいサービスキーで通過できること", header: "Bearer " + key, serviceKey: key, wantStatus: http.StatusOK},
		{name: "ヘッダーがない場合401が返ること", header: "", serviceKey: key, wantStatus: http.StatusUnauthorized},
		{name: "Bearer形式でない場合401が返ること", header: "Basic " + key, serviceKey: key, wantStatus: http.StatusUnauthorized},
		{name: "キーが異なる場合401が返ること", header: "Bearer wrong", serviceKey: key, wantStatus: http.StatusUnauthorized},
		{name: "サービスキー未設定の場合は常に401が返ること", header: "Bearer ", serviceKey: "", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(ServiceKeyAuth(tt.serviceKey))
			router.POST("/", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	newRouter := func(got *string) *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/", func(c *gin.Context) {
			*got = GetRequestID(c)
			c.Status(http.StatusNoContent)
		})
		return router
	}

	t.Run("IDがない場合はUUIDを生成すること", func(t *testing.T) {
		t.Parallel()

		var got string
		w := httptest.NewRecorder()
		newRouter(&got).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("リクエストID %q がUUIDではない: %v", got, err)
		}
		if w.Header().Get(HeaderRequestID) != got {
			t.Errorf("レスポンスヘッダー = %q, want %q", w.Header().Get(HeaderRequestID), got)
		}
	})

	t.Run("受信したIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		var got string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "upstream-id")
		newRouter(&got).ServeHTTP(httptest.NewRecorder(), req)

		if got != "upstream-id" {
			t.Errorf("リクエストID = %q, want %q", got, "upstream-id")
		}
	})
}

// TestRequestLogger はRequestLoggerミドルウェアのログレベルを検証する。
func TestRequestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "2xxはInfoで記録されること", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "4xxはWarnで記録されること", status: http.StatusBadRequest, wantLevel: zapcore.WarnLevel},
		{name: "5xxはErrorで記録されること", status: http.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(RequestID(), RequestLogger(zap.New(core)))
			router.POST("/send", func(c *gin.Context) {
				c.Status(tt.status)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/send", nil))

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("ログ件数 = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("ログレベル = %v, want %v", entries[0].Level, tt.wantLevel)
			}
			ctx := entries[0].ContextMap()
			if ctx["path"] != "/send" {
				t.Errorf("path = %v, want /send", ctx["path"])
			}
			if ctx["request_id"] == "" {
				t.Error("request_idが記録されていない")
			}
		})
	}
}
