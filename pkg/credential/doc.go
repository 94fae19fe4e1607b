// Package credential はサービスアカウントによるOAuth2アクセストークンの取得を提供する。
//
// サービスアカウントの秘密鍵でRS256署名したJWTアサーションを作成し、
// JWT Bearerグラントでトークンエンドポイントと交換する。取得したトークンは
// 必要に応じてメモリまたはRedisにキャッシュできる。
package credential
