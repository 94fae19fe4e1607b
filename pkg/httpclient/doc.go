// Package httpclient は外部APIおよびサービス間のHTTP通信を行うクライアントを提供する。
//
// EventFormatterからDispatcherへの送信依頼、OAuth2トークンエンドポイントへの
// 交換リクエスト、FCMへのプッシュ送信、受信者ディレクトリへの問い合わせなど、
// 外部との通信パターンを統一する。
package httpclient
