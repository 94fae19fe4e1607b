// Package directory は通知の受信者ディレクトリへの問い合わせを提供する。
//
// ブロードキャスト送信時に、デバイストークンを登録済みの全受信者の
// トークンを取得する。接続先はSupabaseのREST API、PostgreSQL、
// 開発用のSQLiteから設定で選択する。
package directory
