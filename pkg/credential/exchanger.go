package credential

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/nao1215/pushrelay/pkg/httpclient"
)

const (
	// DefaultTokenURL はGoogleのOAuth2トークンエンドポイント。
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	// MessagingScope はFCM送信に必要なスコープ。
	MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	// GrantTypeJWTBearer はJWT Bearerグラントのグラント種別。
	GrantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	// assertionLifetime はJWTアサーションの有効期間。
	assertionLifetime = time.Hour
)

// ServiceAccount はトークン交換に使うサービスアカウント。
// プロセス起動時に一度だけ読み込み、以後変更しない。
type ServiceAccount struct {
	// ClientEmail はサービスアカウントのメールアドレス。発行者と主体に使う。
	ClientEmail string
	// PrivateKey はアサーションの署名鍵。
	PrivateKey *rsa.PrivateKey
}

// Token はトークンエンドポイントから取得したアクセストークン。
type Token struct {
	// AccessToken はBearerトークンの値。
	AccessToken string `json:"access_token"`
	// Expiry はトークンの有効期限。
	Expiry time.Time `json:"expiry"`
}

// ValidAt は指定時刻からleewayの間、トークンが有効であるかを判定する。
func (t *Token) ValidAt(now time.Time, leeway time.Duration) bool {
	return t != nil && t.AccessToken != "" && now.Add(leeway).Before(t.Expiry)
}

// Source はアクセストークンの取得元。
type Source interface {
	Token(ctx context.Context) (*Token, error)
}

// tokenResponse はトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Exchanger は署名済みJWTアサーションをアクセストークンと交換する。
// 状態を持たず、呼び出しのたびにアサーションを作り直す。
type Exchanger struct {
	// account は署名に使うサービスアカウント。
	account ServiceAccount
	// tokenURL はトークンエンドポイントのURL。アサーションのaudにも使う。
	tokenURL string
	// scope は要求するスコープ。
	scope string
	// client はトークンエンドポイントへのHTTPクライアント。
	client *httpclient.Client
	// timeout はトークンエンドポイントとの通信タイムアウト。
	timeout time.Duration
	// now は現在時刻を返す関数。テストで差し替える。
	now func() time.Time
}

// ExchangerOption はExchangerの設定を変更する関数。
type ExchangerOption func(*Exchanger)

// WithTokenURL はトークンエンドポイントのURLを変更する。
func WithTokenURL(tokenURL string) ExchangerOption {
	return func(e *Exchanger) {
		e.tokenURL = tokenURL
	}
}

// WithClock は現在時刻の取得方法を変更する。
func WithClock(now func() time.Time) ExchangerOption {
	return func(e *Exchanger) {
		e.now = now
	}
}

// WithHTTPTimeout はトークンエンドポイントとの通信タイムアウトを変更する。
func WithHTTPTimeout(timeout time.Duration) ExchangerOption {
	return func(e *Exchanger) {
		e.timeout = timeout
	}
}

// NewExchanger は新しいExchangerを生成する。
func NewExchanger(account ServiceAccount, opts ...ExchangerOption) *Exchanger {
	e := &Exchanger{
		account:  account,
		tokenURL: DefaultTokenURL,
		scope:    MessagingScope,
		timeout:  httpclient.DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.client = httpclient.New(e.tokenURL, httpclient.WithTimeout(e.timeout))
	return e
}

// Assertion はサービスアカウントの秘密鍵でRS256署名したJWTアサーションを作成する。
func (e *Exchanger) Assertion() (string, error) {
	iat := e.now().Unix()
	claims := jwt.MapClaims{
		"iss":   e.account.ClientEmail,
		"sub":   e.account.ClientEmail,
		"aud":   e.tokenURL,
		"iat":   iat,
		"exp":   iat + int64(assertionLifetime/time.Second),
		"scope": e.scope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(e.account.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("JWTアサーションの署名に失敗: %w", err)
	}
	return signed, nil
}

// Token はアサーションをトークンエンドポイントに送信し、アクセストークンを取得する。
// レスポンスにaccess_tokenが含まれない場合は、生のレスポンスを含むエラーを返す。
// 一時的な失敗でもリトライしない。
func (e *Exchanger) Token(ctx context.Context) (*Token, error) {
	assertion, err := e.Assertion()
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeCredentialExchange, "Failed to sign assertion", err)
	}

	resp, err := e.client.PostFormRaw(ctx, "", url.Values{
		"grant_type": {GrantTypeJWTBearer},
		"assertion":  {assertion},
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeCredentialExchange, "Failed to get access token", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil || tr.AccessToken == "" {
		return nil, apperror.New(apperror.CodeCredentialExchange,
			fmt.Sprintf("Failed to get access token: %s", string(resp.Body)))
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = assertionLifetime
	}
	return &Token{
		AccessToken: tr.AccessToken,
		Expiry:      e.now().Add(lifetime),
	}, nil
}
