package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoRecord はペイロードにrecordが含まれていないことを表す。
var ErrNoRecord = errors.New("recordが含まれていない")

// ErrNoType はrecordに機会の種類が含まれていないことを表す。
var ErrNoType = errors.New("recordにtypeが含まれていない")

// ParseWebhook はWebhookのリクエストボディをデシリアライズする。
// recordが欠けている、またはnullの場合はErrNoRecordを返す。
// recordのtypeが空の場合はErrNoTypeを返す。
func ParseWebhook(data []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("Webhookペイロードのデシリアライズに失敗: %w", err)
	}
	if payload.Record == nil {
		return nil, ErrNoRecord
	}
	if payload.Record.Type == "" {
		return nil, ErrNoType
	}
	return &payload, nil
}
