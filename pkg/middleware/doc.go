// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// サービスキーによるBearer認証、リクエストID、zapによるリクエストログ、
// パニックリカバリなど、フォーマッタとディスパッチャで共通して使用する
// ミドルウェアを含む。
package middleware
