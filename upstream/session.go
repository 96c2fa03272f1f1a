package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/relaykit/relayd/errors"
)

// assertionLifetime bounds the validity of a JWT-bearer login assertion.
const assertionLifetime = 5 * time.Minute

// Session is an authenticated capability against the upstream provider.
type Session struct {
	// AccessToken authorizes subscribe requests.
	AccessToken string
	// Endpoint is the instance URL the provider directed us to, falling
	// back to the configured endpoint.
	Endpoint string
	// ExpiresAt is when the token stops being accepted; zero if unknown.
	ExpiresAt time.Time
}

// Expired reports whether the session token is past (or within a minute
// of) its expiry. Unknown expiry counts as not expired; the provider's
// 401 is then the authority.
func (s *Session) Expired() bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt.Add(-time.Minute))
}

// tokenResponse is the provider's login reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login exchanges the configured credentials for a Session. With a
// private key it uses the JWT-bearer grant; with a client secret it uses
// client credentials.
func Login(ctx context.Context, cfg Config, client *http.Client) (*Session, error) {
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{}
	if cfg.PrivateKey != "" {
		assertion, err := signAssertion(cfg)
		if err != nil {
			return nil, err
		}
		form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
		form.Set("assertion", assertion)
	} else {
		form.Set("grant_type", "client_credentials")
		form.Set("client_id", cfg.ClientID)
		form.Set("client_secret", cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.UpstreamUnavailable(cfg.TokenURL).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.UpstreamUnavailable(cfg.TokenURL).WithCause(err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Unauthorized(fmt.Sprintf("login rejected: %s", strings.TrimSpace(string(body))))
	default:
		return nil, errors.UpstreamUnavailable(cfg.TokenURL).
			WithDetail("status", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.Unauthorized("login response carried no access token")
	}

	session := &Session{
		AccessToken: tok.AccessToken,
		Endpoint:    tok.InstanceURL,
	}
	if session.Endpoint == "" {
		session.Endpoint = cfg.Endpoint
	}
	if tok.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return session, nil
}

// signAssertion builds the RS256-signed JWT-bearer login assertion.
func signAssertion(cfg Config) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKey))
	if err != nil {
		return "", errors.InvalidConfig("upstream.private_key is not a valid RSA PEM key").WithCause(err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.ClientID,
		Subject:   cfg.ClientID,
		Audience:  jwt.ClaimStrings{cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing login assertion: %w", err)
	}
	return signed, nil
}
