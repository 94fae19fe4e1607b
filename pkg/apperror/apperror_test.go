package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestError はErrorのメッセージ生成を検証する。
func TestError(t *testing.T) {
	t.Parallel()

	t.Run("原因がない場合はメッセージのみを返すこと", func(t *testing.T) {
		t.Parallel()

		err := New(CodeValidation, "No record provided")
		if got := err.Error(); got != "No record provided" {
			t.Errorf("Error() = %q, want %q", got, "No record provided")
		}
	})

	t.Run("原因がある場合は連結したメッセージを返すこと", func(t *testing.T) {
		t.Parallel()

		err := Wrap(CodeDirectoryQuery, "受信者の取得に失敗", errors.New("connection refused"))
		want := "受信者の取得に失敗: connection refused"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("メッセージが空の場合は原因のメッセージを返すこと", func(t *testing.T) {
		t.Parallel()

		err := Wrap(CodeUpstream, "", errors.New("dial tcp: timeout"))
		if got := err.Error(); got != "dial tcp: timeout" {
			t.Errorf("Error() = %q, want %q", got, "dial tcp: timeout")
		}
	})

	t.Run("Unwrapで原因を辿れること", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("cause")
		err := Wrap(CodeGatewaySend, "send", cause)
		if !errors.Is(err, cause) {
			t.Error("errors.Is(err, cause) = false, want true")
		}
	})
}

// TestStatus はエラーコードからHTTPステータスへの変換を検証する。
func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "ValidationErrorは400", err: New(CodeValidation, "x"), want: http.StatusBadRequest},
		{name: "MissingTokenは400", err: New(CodeMissingToken, "x"), want: http.StatusBadRequest},
		{name: "Unauthorizedは401", err: New(CodeUnauthorized, "x"), want: http.StatusUnauthorized},
		{name: "DirectoryQueryは500", err: New(CodeDirectoryQuery, "x"), want: http.StatusInternalServerError},
		{name: "CredentialExchangeは500", err: New(CodeCredentialExchange, "x"), want: http.StatusInternalServerError},
		{name: "分類できないエラーは500", err: errors.New("plain"), want: http.StatusInternalServerError},
		{
			name: "ラップされたコード付きエラーも判定できること",
			err:  fmt.Errorf("外側: %w", New(CodeMissingToken, "No token provided")),
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestIs はコード判定を検証する。
func TestIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", New(CodeCredentialExchange, "x"))
	if !Is(err, CodeCredentialExchange) {
		t.Error("Is(err, CodeCredentialExchange) = false, want true")
	}
	if Is(err, CodeValidation) {
		t.Error("Is(err, CodeValidation) = true, want false")
	}
	if Is(nil, CodeValidation) {
		t.Error("Is(nil, CodeValidation) = true, want false")
	}
}

// TestPublic は呼び出し元に返すメッセージに原因が含まれないことを検証する。
func TestPublic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "原因を包んだエラーはメッセージのみを返すこと",
			err:  Wrap(CodeValidation, "Invalid request body", errors.New("Webhookペイロードのデシリアライズに失敗")),
			want: "Invalid request body",
		},
		{
			name: "原因を持たないエラーはメッセージをそのまま返すこと",
			err:  New(CodeCredentialExchange, `Failed to get access token: {"error":"invalid_grant"}`),
			want: `Failed to get access token: {"error":"invalid_grant"}`,
		},
		{
			name: "さらに包まれていても最も外側のメッセージを返すこと",
			err:  fmt.Errorf("送信に失敗: %w", Wrap(CodeGatewaySend, "Failed to send push message", errors.New("接続がリセットされた"))),
			want: "Failed to send push message",
		},
		{
			name: "分類できないエラーは内部エラーとして返すこと",
			err:  errors.New("データベース接続に失敗"),
			want: "Internal server error",
		},
		{
			name: "メッセージが空の場合は内部エラーとして返すこと",
			err:  Wrap(CodeDirectoryQuery, "", errors.New("タイムアウト")),
			want: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Public(tt.err); got != tt.want {
				t.Errorf("Public() = %q, want %q", got, tt.want)
			}
		})
	}
}
