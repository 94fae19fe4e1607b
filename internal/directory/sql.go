package directory

import (
	"context"
	"database/sql"

	"github.com/nao1215/pushrelay/pkg/apperror"
)

// listTokensQuery はトークン登録済みの受信者を取得するクエリ。
// PostgreSQLとSQLiteの両方で動く構文に限定する。
const listTokensQuery = `SELECT fcm_token FROM profiles WHERE fcm_token IS NOT NULL AND fcm_token <> '' ORDER BY id`

// SQL はdatabase/sql経由で受信者を検索するディレクトリ。
type SQL struct {
	db *sql.DB
}

// NewSQL は新しいSQLディレクトリを生成する。
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// Tokens はprofilesテーブルから登録済みのデバイストークンを取得する。
func (d *SQL) Tokens(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, listTokensQuery)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeDirectoryQuery, "Failed to query recipients", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []*string
	for rows.Next() {
		var token sql.NullString
		if err := rows.Scan(&token); err != nil {
			return nil, apperror.Wrap(apperror.CodeDirectoryQuery, "Failed to read recipients", err)
		}
		if token.Valid {
			tokens = append(tokens, &token.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.CodeDirectoryQuery, "Failed to query recipients", err)
	}
	return eligible(tokens), nil
}
