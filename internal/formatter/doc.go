// Package formatter はイベントフォーマッタサービスを提供する。
//
// データベースWebhookで受け取った新規の機会（募集情報）から
// 通知のタイトルと本文を組み立て、ブロードキャストの送信リクエストとして
// ディスパッチャに転送する。ディスパッチャの応答はそのまま呼び出し元に返す。
package formatter
