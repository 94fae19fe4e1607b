// Package fcm はFirebase Cloud Messaging HTTP v1 APIへの送信クライアントを提供する。
package fcm
