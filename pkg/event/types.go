package event

import "encoding/json"

// OpportunityType は機会（募集情報）の種類を表す。
// 種類は拡張されうるため、未知の値も受け付ける。
type OpportunityType string

const (
	// TypeInternship はインターンシップの募集を表す。
	TypeInternship OpportunityType = "internship"
	// TypeHackathon はハッカソンの募集を表す。
	TypeHackathon OpportunityType = "hackathon"
	// TypeEvent は一般的なイベントを表す。
	TypeEvent OpportunityType = "event"
	// TypeMeetup はミートアップを表す。
	TypeMeetup OpportunityType = "meetup"
	// TypeCompetition はコンペティションを表す。
	TypeCompetition OpportunityType = "competition"
)

// KnownTypes は既知の機会の種類の一覧。
var KnownTypes = []OpportunityType{
	TypeInternship,
	TypeHackathon,
	TypeEvent,
	TypeMeetup,
	TypeCompetition,
}

// Opportunity は新規作成された機会のレコードを表す。
// 上流のイベントソースが生成し、EventFormatterが一度だけ消費する。
type Opportunity struct {
	// Type は機会の種類。
	Type OpportunityType `json:"type"`
	// Title は機会のタイトル。
	Title string `json:"title"`
	// Organization は主催組織。
	Organization string `json:"organization"`
	// Location は開催場所。
	Location string `json:"location"`
	// Deadline は応募締切。日付としては解釈しない。
	Deadline string `json:"deadline"`
}

// WebhookPayload はデータベースWebhookが送信するペイロード。
// 必須なのはRecordのみで、その他のフィールドはログ出力に使う。
type WebhookPayload struct {
	// Type は変更の種類（INSERT, UPDATE等）。
	Type string `json:"type,omitempty"`
	// Table は変更があったテーブル名。
	Table string `json:"table,omitempty"`
	// Schema はテーブルのスキーマ名。
	Schema string `json:"schema,omitempty"`
	// Record は変更後のレコード。
	Record *Opportunity `json:"record"`
	// OldRecord は変更前のレコード。INSERTの場合はnull。
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}
