// Package config はフォーマッタとディスパッチャの設定を読み込む。
//
// .envファイル（存在する場合）と環境変数から設定を読み込み、
// mainで一度だけ構築したConfigを各コンストラクタに渡す。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/pushrelay/internal/directory"
	"github.com/nao1215/pushrelay/pkg/credential"
	"github.com/nao1215/pushrelay/pkg/fcm"
)

// TokenCache はアクセストークンのキャッシュ方式。
type TokenCache string

const (
	// TokenCacheNone は呼び出しのたびにトークンを交換する。
	TokenCacheNone TokenCache = "none"
	// TokenCacheMemory はプロセス内でトークンを共有する。
	TokenCacheMemory TokenCache = "memory"
	// TokenCacheRedis はRedisで複数のレプリカとトークンを共有する。
	TokenCacheRedis TokenCache = "redis"
)

// dispatcherFunctionPath はSupabase上のディスパッチャ関数のパス。
const dispatcherFunctionPath = "/functions/v1/send-notification"

// Config はサービス全体の設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `mapstructure:"port"`
	// LogLevel はログレベル（debug, info, warn, error）。
	LogLevel string `mapstructure:"log_level"`
	// LogFormat はログ形式（json, console）。
	LogFormat string `mapstructure:"log_format"`
	// HTTPTimeout は外部への通信タイムアウト。
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`

	// SupabaseURL はSupabaseプロジェクトのURL。
	SupabaseURL string `mapstructure:"supabase_url"`
	// ServiceRoleKey はSupabaseのサービスロールキー。ログに出力しない。
	ServiceRoleKey string `mapstructure:"supabase_service_role_key"`

	// DispatcherURL はフォーマッタが呼び出すディスパッチャのURL。
	DispatcherURL string `mapstructure:"dispatcher_url"`
	// DispatcherRequireAuth はディスパッチャでサービスキーを検証するか。
	DispatcherRequireAuth bool `mapstructure:"dispatcher_require_auth"`

	// FirebaseProjectID は送信先のFirebaseプロジェクトID。
	FirebaseProjectID string `mapstructure:"firebase_project_id"`
	// FirebaseClientEmail はサービスアカウントのメールアドレス。
	FirebaseClientEmail string `mapstructure:"firebase_client_email"`
	// FirebasePrivateKey はサービスアカウントの秘密鍵（\nエスケープ可）。ログに出力しない。
	FirebasePrivateKey string `mapstructure:"firebase_private_key"`
	// FCMBaseURL はFCM APIのベースURL。
	FCMBaseURL string `mapstructure:"fcm_base_url"`
	// OAuthTokenURL はOAuth2トークンエンドポイントのURL。
	OAuthTokenURL string `mapstructure:"oauth_token_url"`

	// DirectoryDriver は受信者ディレクトリの接続方式。
	DirectoryDriver directory.Driver `mapstructure:"directory_driver"`
	// DatabaseURL は受信者ディレクトリの接続文字列。
	DatabaseURL string `mapstructure:"database_url"`

	// TokenCache はアクセストークンのキャッシュ方式。
	TokenCache TokenCache `mapstructure:"token_cache"`
	// RedisURL はトークンキャッシュに使うRedisのURL。
	RedisURL string `mapstructure:"redis_url"`
}

// defaults は各設定項目の既定値。空文字列は既定値なしを表す。
var defaults = map[string]any{
	"port":                      "8080",
	"log_level":                 "info",
	"log_format":                "json",
	"http_timeout":              "30s",
	"supabase_url":              "",
	"supabase_service_role_key": "",
	"dispatcher_url":            "",
	"dispatcher_require_auth":   false,
	"firebase_project_id":       "",
	"firebase_client_email":     "",
	"firebase_private_key":      "",
	"fcm_base_url":              fcm.DefaultBaseURL,
	"oauth_token_url":           credential.DefaultTokenURL,
	"directory_driver":          string(directory.DriverREST),
	"database_url":              "",
	"token_cache":               string(TokenCacheNone),
	"redis_url":                 "",
}

// finalize は他の項目から導出される値を補完する。
func (c *Config) finalize() {
	c.SupabaseURL = strings.TrimSuffix(c.SupabaseURL, "/")
	if c.DispatcherURL == "" && c.SupabaseURL != "" {
		c.DispatcherURL = c.SupabaseURL + dispatcherFunctionPath
	}
}

// ValidateFormatter はフォーマッタの起動に必要な設定を検証する。
// 不足している項目をすべてまとめて返す。
func (c *Config) ValidateFormatter() error {
	var errs []error
	if c.DispatcherURL == "" {
		errs = append(errs, errors.New("DISPATCHER_URL または SUPABASE_URL が必要です"))
	}
	if c.ServiceRoleKey == "" {
		errs = append(errs, errors.New("SUPABASE_SERVICE_ROLE_KEY が必要です"))
	}
	return errors.Join(append(errs, c.validateCommon()...)...)
}

// ValidateDispatcher はディスパッチャの起動に必要な設定を検証する。
// 不足している項目をすべてまとめて返す。
func (c *Config) ValidateDispatcher() error {
	var errs []error
	if c.FirebaseProjectID == "" {
		errs = append(errs, errors.New("FIREBASE_PROJECT_ID が必要です"))
	}
	if c.FirebaseClientEmail == "" {
		errs = append(errs, errors.New("FIREBASE_CLIENT_EMAIL が必要です"))
	}
	if c.FirebasePrivateKey == "" {
		errs = append(errs, errors.New("FIREBASE_PRIVATE_KEY が必要です"))
	}

	switch c.DirectoryDriver {
	case directory.DriverREST:
		if c.SupabaseURL == "" {
			errs = append(errs, errors.New("DIRECTORY_DRIVER=rest には SUPABASE_URL が必要です"))
		}
		if c.ServiceRoleKey == "" {
			errs = append(errs, errors.New("DIRECTORY_DRIVER=rest には SUPABASE_SERVICE_ROLE_KEY が必要です"))
		}
	case directory.DriverPostgres, directory.DriverSQLite:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DIRECTORY_DRIVER=%s には DATABASE_URL が必要です", c.DirectoryDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("DIRECTORY_DRIVER が不正です: %q", c.DirectoryDriver))
	}

	switch c.TokenCache {
	case TokenCacheNone, TokenCacheMemory:
	case TokenCacheRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("TOKEN_CACHE=redis には REDIS_URL が必要です"))
		}
	default:
		errs = append(errs, fmt.Errorf("TOKEN_CACHE が不正です: %q", c.TokenCache))
	}

	if c.DispatcherRequireAuth && c.ServiceRoleKey == "" {
		errs = append(errs, errors.New("DISPATCHER_REQUIRE_AUTH には SUPABASE_SERVICE_ROLE_KEY が必要です"))
	}
	return errors.Join(append(errs, c.validateCommon()...)...)
}

// validateCommon は両サービス共通の設定を検証する。
func (c *Config) validateCommon() []error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT が必要です"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT は正の値が必要です: %s", c.HTTPTimeout))
	}
	return errs
}
