package directory

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/nao1215/pushrelay/pkg/migration"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Driver は受信者ディレクトリの接続方式。
type Driver string

const (
	// DriverREST はSupabaseのREST API（PostgREST）経由で問い合わせる。
	DriverREST Driver = "rest"
	// DriverPostgres はPostgreSQLに直接問い合わせる。
	DriverPostgres Driver = "postgres"
	// DriverSQLite は開発用のSQLiteに問い合わせる。
	DriverSQLite Driver = "sqlite"
)

// Directory はデバイストークンを登録済みの受信者を検索する。
type Directory interface {
	// Tokens はNULLと空文字列を除いた全受信者のデバイストークンを返す。
	Tokens(ctx context.Context) ([]string, error)
}

// Options は受信者ディレクトリの接続設定。
type Options struct {
	// Driver は接続方式。
	Driver Driver
	// SupabaseURL はSupabaseプロジェクトのURL。DriverRESTで使う。
	SupabaseURL string
	// ServiceKey はSupabaseのサービスロールキー。DriverRESTで使う。
	ServiceKey string
	// DatabaseURL はデータベースの接続文字列。DriverPostgresとDriverSQLiteで使う。
	DatabaseURL string
	// Timeout はREST APIとの通信タイムアウト。
	Timeout time.Duration
}

// Open は設定に応じた受信者ディレクトリを開く。
// 返されるclose関数は、データベース接続を持つ場合にそれを閉じる。
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Directory, func() error, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case DriverREST, "":
		return NewREST(opts.SupabaseURL, opts.ServiceKey, opts.Timeout), noop, nil

	case DriverPostgres:
		db, err := sql.Open("postgres", opts.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
		}
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("PostgreSQLへの疎通確認に失敗: %w", err)
		}
		return NewSQL(db), db.Close, nil

	case DriverSQLite:
		db, err := sql.Open("sqlite", opts.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("SQLiteへの接続に失敗: %w", err)
		}
		// SQLiteは書き込みが単一接続に限られるため、接続を1本に固定する
		db.SetMaxOpenConns(1)
		if _, err := migration.Run(ctx, db, migrations, "migrations", logger); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
		}
		return NewSQL(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("未対応の受信者ディレクトリ: %q", opts.Driver)
	}
}

// eligible はNULLと空文字列を除いたトークンだけを残す。
func eligible(tokens []*string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != nil && *t != "" {
			out = append(out, *t)
		}
	}
	return out
}
