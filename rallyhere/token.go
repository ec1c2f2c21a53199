package rallyhere

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	tokenPath = "/users/v2/oauth/token"
	// defaultTokenLifetime applies when the token response has no usable expires_in
	defaultTokenLifetime = 3600 * time.Second
	// tokenLifetimeFraction of the advertised lifetime is used before refreshing
	tokenLifetimeFraction = 0.9
)

// AccessToken is a bearer token and the time it stops being handed out.
type AccessToken struct {
	Value  string
	Expiry time.Time
}

// Valid reports whether the token can be used at now.
func (t AccessToken) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.Expiry)
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   float64 `json:"expires_in"`
}

// TokenManager obtains client-credentials tokens and caches the current one
// until shortly before it expires.
type TokenManager struct {
	baseURL      string
	clientID     string
	clientSecret string
	transport    *Transport
	now          func() time.Time
	logger       zerolog.Logger

	mu      sync.RWMutex
	current *AccessToken
}

// NewTokenManager creates a token manager. Tokens are requested through
// transport.
func NewTokenManager(baseURL, clientID, clientSecret string, transport *Transport, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		transport:    transport,
		now:          transport.now,
		logger:       logger.With().Str("component", "token").Logger(),
	}
}

// Token returns a valid access token, requesting a new one when the cached
// token is missing or expired. Concurrent callers share a single refresh.
func (m *TokenManager) Token(ctx context.Context) (AccessToken, error) {
	m.mu.RLock()
	cur := m.current
	m.mu.RUnlock()
	if cur != nil && cur.Valid(m.now()) {
		return *cur, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// another caller may have refreshed while we waited
	if m.current != nil && m.current.Valid(m.now()) {
		return *m.current, nil
	}

	tok, err := m.fetch(ctx)
	if err != nil {
		return AccessToken{}, err
	}
	m.current = &tok
	return tok, nil
}

// Invalidate drops the cached token so the next Token call refreshes it.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

func (m *TokenManager) fetch(ctx context.Context) (AccessToken, error) {
	if m.clientID == "" {
		return AccessToken{}, &ConfigurationError{Field: "client_id", Reason: "is required"}
	}
	if m.clientSecret == "" {
		return AccessToken{}, &ConfigurationError{Field: "client_secret", Reason: "is required"}
	}

	creds := base64.StdEncoding.EncodeToString([]byte(m.clientID + ":" + m.clientSecret))
	header := http.Header{}
	header.Set("Authorization", "Basic "+creds)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	resp, err := m.transport.Execute(ctx, Request{
		Method: http.MethodPost,
		URL:    m.baseURL + tokenPath,
		Header: header,
		Body:   []byte(`{"grant_type":"client_credentials"}`),
	})
	if err != nil {
		if isCanceled(err) {
			return AccessToken{}, err
		}
		authErr := &AuthenticationError{Err: err}
		var te *TransportError
		if errors.As(err, &te) {
			authErr.StatusCode = te.StatusCode
		}
		return AccessToken{}, authErr
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return AccessToken{}, &AuthenticationError{StatusCode: resp.StatusCode, Err: err}
	}
	if tr.AccessToken == "" {
		return AccessToken{}, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Err:        errors.New("token response has no access_token"),
		}
	}

	lifetime := defaultTokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn * float64(time.Second))
	}
	tok := AccessToken{
		Value:  tr.AccessToken,
		Expiry: m.now().Add(time.Duration(float64(lifetime) * tokenLifetimeFraction)),
	}

	m.logger.Info().
		Time("expiry", tok.Expiry).
		Msg("Obtained access token")

	return tok, nil
}
