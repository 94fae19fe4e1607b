// Package event は通知パイプラインが受け取るドメインイベントの型を提供する。
//
// 新しい機会（インターンシップ、ハッカソン等）がデータベースに登録されると、
// データベースWebhookがWebhookPayloadをEventFormatterに送信する。
package event
