package credential

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/pushrelay/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenEndpoint はテスト用のトークンエンドポイント。受け取ったアサーションを記録する。
type tokenEndpoint struct {
	mu         sync.Mutex
	assertions []string
	grantTypes []string
}

func (e *tokenEndpoint) server(t *testing.T, response string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		e.mu.Lock()
		e.assertions = append(e.assertions, r.PostForm.Get("assertion"))
		e.grantTypes = append(e.grantTypes, r.PostForm.Get("grant_type"))
		e.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestExchanger_Assertion(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	issuedAt := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	e := NewExchanger(
		ServiceAccount{ClientEmail: "relay@example.iam.gserviceaccount.com", PrivateKey: key},
		WithClock(fixedClock(issuedAt)),
	)

	signed, err := e.Assertion()
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(_ *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "JWT", token.Header["typ"])
	assert.Equal(t, "relay@example.iam.gserviceaccount.com", claims["iss"])
	assert.Equal(t, "relay@example.iam.gserviceaccount.com", claims["sub"])
	assert.Equal(t, DefaultTokenURL, claims["aud"])
	assert.Equal(t, MessagingScope, claims["scope"])
	assert.EqualValues(t, issuedAt.Unix(), claims["iat"])
	assert.EqualValues(t, issuedAt.Unix()+3600, claims["exp"])
}

func TestExchanger_Token(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	account := ServiceAccount{ClientEmail: "relay@example.iam.gserviceaccount.com", PrivateKey: key}
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("アサーションをアクセストークンと交換できること", func(t *testing.T) {
		t.Parallel()

		endpoint := &tokenEndpoint{}
		ts := endpoint.server(t, `{"access_token":"ya29.access","expires_in":3599,"token_type":"Bearer"}`)
		e := NewExchanger(account, WithTokenURL(ts.URL), WithClock(fixedClock(now)))

		token, err := e.Token(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "ya29.access", token.AccessToken)
		assert.Equal(t, now.Add(3599*time.Second), token.Expiry)
		require.Len(t, endpoint.grantTypes, 1)
		assert.Equal(t, GrantTypeJWTBearer, endpoint.grantTypes[0])
		assert.NotEmpty(t, endpoint.assertions[0])
	})

	t.Run("expires_inがない場合は1時間の有効期限とすること", func(t *testing.T) {
		t.Parallel()

		endpoint := &tokenEndpoint{}
		ts := endpoint.server(t, `{"access_token":"ya29.access"}`)
		e := NewExchanger(account, WithTokenURL(ts.URL), WithClock(fixedClock(now)))

		token, err := e.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, now.Add(time.Hour), token.Expiry)
	})

	t.Run("access_tokenがない場合は生のレスポンスを含むエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		raw := `{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`
		endpoint := &tokenEndpoint{}
		ts := endpoint.server(t, raw)
		e := NewExchanger(account, WithTokenURL(ts.URL))

		_, err := e.Token(context.Background())
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.CodeCredentialExchange))
		assert.Contains(t, err.Error(), raw)
	})

	t.Run("JSONではないレスポンスもCredentialExchangeErrorになること", func(t *testing.T) {
		t.Parallel()

		endpoint := &tokenEndpoint{}
		ts := endpoint.server(t, "<html>Service Unavailable</html>")
		e := NewExchanger(account, WithTokenURL(ts.URL))

		_, err := e.Token(context.Background())
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.CodeCredentialExchange))
		assert.Contains(t, err.Error(), "Service Unavailable")
	})

	t.Run("接続できない場合はリトライせずにエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		e := NewExchanger(account, WithTokenURL("http://127.0.0.1:1/token"))

		_, err := e.Token(context.Background())
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.CodeCredentialExchange))
	})

	t.Run("発行時刻が異なれば別のアサーションになり、どちらも交換できること", func(t *testing.T) {
		t.Parallel()

		endpoint := &tokenEndpoint{}
		ts := endpoint.server(t, `{"access_token":"ya29.access","expires_in":3600}`)

		first := NewExchanger(account, WithTokenURL(ts.URL), WithClock(fixedClock(now)))
		second := NewExchanger(account, WithTokenURL(ts.URL), WithClock(fixedClock(now.Add(time.Second))))

		_, err := first.Token(context.Background())
		require.NoError(t, err)
		_, err = second.Token(context.Background())
		require.NoError(t, err)

		require.Len(t, endpoint.assertions, 2)
		assert.NotEqual(t, endpoint.assertions[0], endpoint.assertions[1])
		for _, assertion := range endpoint.assertions {
			_, err := jwt.Parse(assertion, func(_ *jwt.Token) (any, error) {
				return &key.PublicKey, nil
			}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation())
			assert.NoError(t, err)
		}
	})
}

func TestToken_ValidAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	var nilToken *Token
	assert.False(t, nilToken.ValidAt(now, 0))
	assert.False(t, (&Token{Expiry: now.Add(time.Hour)}).ValidAt(now, 0))
	assert.True(t, (&Token{AccessToken: "a", Expiry: now.Add(time.Hour)}).ValidAt(now, time.Minute))
	assert.False(t, (&Token{AccessToken: "a", Expiry: now.Add(30 * time.Second)}).ValidAt(now, time.Minute))
}
