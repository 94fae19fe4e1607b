package formatter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nao1215/pushrelay/internal/dispatcher"
	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/nao1215/pushrelay/pkg/httpclient"
)

// DispatcherClient はディスパッチャへの送信リクエストを行うクライアント。
type DispatcherClient struct {
	// client はディスパッチャへのHTTPクライアント。
	client *httpclient.Client
	// serviceKey はBearerトークンとして送るサービスキー。
	serviceKey string
}

// NewDispatcherClient は新しいDispatcherClientを生成する。
// dispatcherURLにはディスパッチャの送信エンドポイントのURLを指定する。
func NewDispatcherClient(dispatcherURL, serviceKey string, timeout time.Duration) *DispatcherClient {
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	return &DispatcherClient{
		client:     httpclient.New(dispatcherURL, httpclient.WithTimeout(timeout)),
		serviceKey: serviceKey,
	}
}

// Send は送信リクエストを転送し、ディスパッチャが返したJSONをそのまま返す。
// ディスパッチャのHTTPステータスは解釈しない。通信の失敗とJSONではない応答のみエラーにする。
func (c *DispatcherClient) Send(ctx context.Context, req dispatcher.SendRequest) (json.RawMessage, error) {
	ctx = httpclient.WithBearerToken(ctx, c.serviceKey)

	resp, err := c.client.PostJSONRaw(ctx, "", req)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUpstream, "Failed to call dispatcher", err)
	}
	body, err := resp.JSON()
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUpstream, "Invalid dispatcher response", err)
	}
	return body, nil
}
