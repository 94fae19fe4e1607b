package fcm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/nao1215/pushrelay/pkg/httpclient"
)

// DefaultBaseURL はFCM HTTP v1 APIのベースURL。
const DefaultBaseURL = "https://fcm.googleapis.com"

// Notification は端末に表示される通知の内容。
type Notification struct {
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Body は通知の本文。
	Body string `json:"body"`
}

// Message は1台の端末に送るメッセージ。
type Message struct {
	// Token は送信先のデバイストークン。
	Token string `json:"token"`
	// Notification は通知の内容。
	Notification Notification `json:"notification"`
}

// sendRequest はmessages:sendのリクエストボディ。
type sendRequest struct {
	Message Message `json:"message"`
}

// Client はFCMへのプッシュ送信クライアント。
type Client struct {
	// client はFCMへのHTTPクライアント。
	client *httpclient.Client
	// projectID は送信先のFirebaseプロジェクトID。
	projectID string
}

// NewClient は新しいFCMクライアントを生成する。
// baseURLが空の場合はDefaultBaseURLを使う。
func NewClient(baseURL, projectID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client:    httpclient.New(baseURL, httpclient.WithTimeout(timeout)),
		projectID: projectID,
	}
}

// Send は1件のメッセージを送信し、ゲートウェイが返したJSONをそのまま返す。
// 無効なトークン等のゲートウェイ側のエラーもレスポンスボディとして返し、
// エラーになるのは通信の失敗とJSONではないレスポンスのみ。
func (c *Client) Send(ctx context.Context, accessToken string, msg Message) (json.RawMessage, error) {
	ctx = httpclient.WithBearerToken(ctx, accessToken)
	path := fmt.Sprintf("/v1/projects/%s/messages:send", c.projectID)

	resp, err := c.client.PostJSONRaw(ctx, path, sendRequest{Message: msg})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeGatewaySend, "Failed to send push message", err)
	}

	body, err := resp.JSON()
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeGatewaySend, "Invalid push gateway response", err)
	}
	return body, nil
}
