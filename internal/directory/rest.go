package directory

import (
	"context"
	"time"

	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/nao1215/pushrelay/pkg/httpclient"
)

// profilesTokenPath はfcm_tokenがNULLではないプロフィールを取得するPostgRESTのパス。
const profilesTokenPath = "/rest/v1/profiles?select=fcm_token&fcm_token=not.is.null"

// profileRow はprofilesテーブルの行のうちトークン列のみを表す。
type profileRow struct {
	FCMToken *string `json:"fcm_token"`
}

// REST はSupabaseのREST API経由で受信者を検索するディレクトリ。
type REST struct {
	client *httpclient.Client
}

// NewREST は新しいRESTディレクトリを生成する。
// サービスロールキーはapikeyヘッダーとBearerトークンの両方で送信する。
func NewREST(supabaseURL, serviceKey string, timeout time.Duration) *REST {
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	return &REST{
		client: httpclient.New(supabaseURL,
			httpclient.WithTimeout(timeout),
			httpclient.WithHeader("apikey", serviceKey),
			httpclient.WithHeader("Authorization", "Bearer "+serviceKey),
		),
	}
}

// Tokens はprofilesテーブルから登録済みのデバイストークンを取得する。
func (d *REST) Tokens(ctx context.Context) ([]string, error) {
	var rows []profileRow
	if err := d.client.GetJSON(ctx, profilesTokenPath, &rows); err != nil {
		return nil, apperror.Wrap(apperror.CodeDirectoryQuery, "Failed to query recipients", err)
	}

	tokens := make([]*string, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.FCMToken)
	}
	return eligible(tokens), nil
}
