package dispatcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nao1215/pushrelay/internal/directory"
	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/nao1215/pushrelay/pkg/credential"
	"github.com/nao1215/pushrelay/pkg/fcm"
	"github.com/nao1215/pushrelay/pkg/logging"
	"go.uber.org/zap"
)

// transportErrorStatus は送信の通信失敗をresultsに格納する際のステータス。
const transportErrorStatus = "TRANSPORT_ERROR"

// SendRequest は送信リクエスト。
// Broadcastがfalseの場合はTokenが必須で、trueの場合はTokenを無視する。
type SendRequest struct {
	// Token はユニキャスト送信先のデバイストークン。
	Token string `json:"token,omitempty"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Body は通知の本文。
	Body string `json:"body"`
	// Broadcast はトークン登録済みの全受信者に送信するか。
	Broadcast bool `json:"broadcast"`
}

// Result は送信結果。Resultsは送信先の解決順に並ぶ。
type Result struct {
	// Success は常にtrue。失敗時はResultではなくエラーを返す。
	Success bool `json:"success"`
	// Results はトークンごとのゲートウェイの応答。
	Results []json.RawMessage `json:"results"`
}

// Sender はプッシュゲートウェイへの送信を行う。
type Sender interface {
	Send(ctx context.Context, accessToken string, msg fcm.Message) (json.RawMessage, error)
}

// Dispatcher は送信先の解決から送信結果の集約までを行う。
type Dispatcher struct {
	// directory は受信者ディレクトリ。
	directory directory.Directory
	// credentials はアクセストークンの取得元。
	credentials credential.Source
	// sender はプッシュゲートウェイのクライアント。
	sender Sender
	// metrics は送信件数などのメトリクス。
	metrics *Metrics
	// logger はロガー。
	logger *zap.Logger
}

// New は新しいDispatcherを生成する。
func New(dir directory.Directory, credentials credential.Source, sender Sender, metrics *Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		directory:   dir,
		credentials: credentials,
		sender:      sender,
		metrics:     metrics,
		logger:      logger,
	}
}

// Dispatch は送信リクエストを処理する。
// 受信者の検索とアクセストークンの取得に失敗した場合はバッチ全体を中断してエラーを返す。
// 個々のトークンへの送信失敗はエラーにせず、そのトークンの結果として格納する。
func (d *Dispatcher) Dispatch(ctx context.Context, req SendRequest) (*Result, error) {
	start := time.Now()
	mode := modeOf(req)

	result, err := d.dispatch(ctx, req)
	d.metrics.observeDispatch(mode, err, time.Since(start))
	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req SendRequest) (*Result, error) {
	targets, err := d.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	d.metrics.recipients.Observe(float64(len(targets)))

	// 送信先がない場合はトークン交換も行わない
	if len(targets) == 0 {
		d.logger.Info("送信先がないため送信をスキップしました", zap.String("mode", modeOf(req)))
		return &Result{Success: true, Results: []json.RawMessage{}}, nil
	}

	token, err := d.credentials.Token(ctx)
	if err != nil {
		return nil, err
	}

	msg := fcm.Notification{Title: req.Title, Body: req.Body}
	results := make([]json.RawMessage, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Go(func() {
			results[i] = d.send(ctx, token.AccessToken, fcm.Message{Token: target, Notification: msg})
		})
	}
	wg.Wait()

	d.logger.Info("通知を送信しました",
		zap.String("mode", modeOf(req)),
		zap.Int("recipients", len(targets)),
	)
	return &Result{Success: true, Results: results}, nil
}

// resolve は送信先のデバイストークンを解決する。
// ユニキャストでトークンがない場合は、通信を行う前にエラーを返す。
func (d *Dispatcher) resolve(ctx context.Context, req SendRequest) ([]string, error) {
	if !req.Broadcast {
		if req.Token == "" {
			return nil, apperror.New(apperror.CodeMissingToken, "No token provided")
		}
		return []string{req.Token}, nil
	}

	tokens, err := d.directory.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// send は1件のトークンに送信し、その結果をJSONで返す。
// 通信に失敗した場合はTRANSPORT_ERRORのエラーオブジェクトを返す。
func (d *Dispatcher) send(ctx context.Context, accessToken string, msg fcm.Message) json.RawMessage {
	body, err := d.sender.Send(ctx, accessToken, msg)
	if err != nil {
		d.metrics.sends.WithLabelValues(outcomeTransportError).Inc()
		d.logger.Warn("プッシュ送信に失敗しました",
			zap.String("token", logging.MaskToken(msg.Token)),
			zap.Error(err),
		)
		return transportError(err)
	}

	outcome := classify(body)
	d.metrics.sends.WithLabelValues(outcome).Inc()
	if outcome == outcomeRejected {
		d.logger.Warn("ゲートウェイが送信を拒否しました",
			zap.String("token", logging.MaskToken(msg.Token)),
			zap.ByteString("response", body),
		)
	}
	return body
}

// gatewayResponse はゲートウェイ応答のうち成否の判定に使う部分。
type gatewayResponse struct {
	Error json.RawMessage `json:"error"`
}

// classify はゲートウェイの応答が送信成功かエラーかを判定する。
func classify(body json.RawMessage) string {
	var resp gatewayResponse
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.Error) > 0 && string(resp.Error) != "null" {
		return outcomeRejected
	}
	return outcomeDelivered
}

// transportError は通信失敗をゲートウェイのエラー応答と同じ形のJSONにする。
// 原因の詳細はsendでログに出力済みのため、メッセージには含めない。
func transportError(err error) json.RawMessage {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]string{
			"status":  transportErrorStatus,
			"message": apperror.Public(err),
		},
	})
	return body
}

// modeOf はメトリクスとログに使う送信方式の名前を返す。
func modeOf(req SendRequest) string {
	if req.Broadcast {
		return "broadcast"
	}
	return "unicast"
}
