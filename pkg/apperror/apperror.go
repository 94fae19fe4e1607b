// Package apperror は通知パイプライン全体で共有するエラー分類を提供する。
//
// 各エラーはコードを持ち、HTTPハンドラの境界でステータスコードに変換される。
// 呼び出し元に返すのはメッセージ文字列のみで、コードはレスポンスに含めない。
package apperror

import (
	"errors"
	"net/http"
)

// Code はエラーの分類を表す。
type Code string

const (
	// CodeValidation は必須の入力フィールドが欠けていることを表す。
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeMissingToken はユニキャスト送信でトークンが指定されていないことを表す。
	CodeMissingToken Code = "MISSING_TOKEN"
	// CodeUnauthorized はサービスキーによる認証に失敗したことを表す。
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeDirectoryQuery は受信者ディレクトリの検索に失敗したことを表す。
	CodeDirectoryQuery Code = "DIRECTORY_QUERY_FAILED"
	// CodeCredentialExchange はアクセストークンの取得に失敗したことを表す。
	CodeCredentialExchange Code = "CREDENTIAL_EXCHANGE_FAILED"
	// CodeGatewaySend はプッシュゲートウェイへの送信が通信レベルで失敗したことを表す。
	CodeGatewaySend Code = "GATEWAY_SEND_FAILED"
	// CodeUpstream は上流サービス（Dispatcher）の呼び出しに失敗したことを表す。
	CodeUpstream Code = "UPSTREAM_FAILED"
)

// Error はコード付きのアプリケーションエラー。
type Error struct {
	// Code はエラーの分類。
	Code Code
	// Message は呼び出し元に返すメッセージ。
	Message string
	// Err は原因となったエラー。nilの場合もある。
	Err error
}

// Error はエラーメッセージを返す。原因がある場合は連結する。
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// New は原因を持たないエラーを生成する。
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap は原因となったエラーをコード付きで包む。
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf はエラーチェーンからコードを取り出す。
// コード付きエラーが含まれない場合は空文字列を返す。
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is はエラーチェーンに指定コードのエラーが含まれるかを判定する。
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// internalMessage は分類できないエラーの代わりに返すメッセージ。
const internalMessage = "Internal server error"

// Public は呼び出し元に返すメッセージを返す。
// 原因となったエラーの内容は含めず、ログにのみ出力する。
func Public(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return internalMessage
}

// Status はエラーに対応するHTTPステータスコードを返す。
// 分類できないエラーは500として扱う。
func Status(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeMissingToken:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
