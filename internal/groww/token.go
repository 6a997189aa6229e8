package groww

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
)

// DefaultTokenURL is the token-issuance endpoint.
const DefaultTokenURL = "https://groww-access-token-generator.onrender.com"

// TokenFetcher obtains a fresh bearer token from the issuer.
type TokenFetcher func(ctx context.Context) (string, error)

// CredentialCache holds one cached bearer token for the upstream API.
//
// There is no expiry timer: invalidation is purely reactive, driven by the
// client observing a 401. The fetch path is guarded by the cache mutex, so
// concurrent cold-start callers share a single fetch instead of stampeding
// the issuer.
type CredentialCache struct {
	mu    sync.Mutex
	token string
	fetch TokenFetcher
	log   *slog.Logger
}

// NewCredentialCache creates a cache around the given fetcher.
func NewCredentialCache(fetch TokenFetcher, log *slog.Logger) *CredentialCache {
	if log == nil {
		log = slog.Default()
	}
	return &CredentialCache{fetch: fetch, log: log}
}

// Token returns the cached token, fetching one if the cache is empty.
func (c *CredentialCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		c.log.Debug("using cached access token")
		return c.token, nil
	}

	c.log.Debug("fetching access token")
	tok, err := c.fetch(ctx)
	if err != nil {
		return "", &CredentialError{Err: err}
	}
	c.token = tok
	c.log.Debug("access token cached")
	return tok, nil
}

// Invalidate clears the cache unconditionally. The next Token call
// performs a fresh fetch.
func (c *CredentialCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.log.Debug("access token cache invalidated")
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// NewAPIKeyFetcher returns a TokenFetcher that POSTs the API key and
// secret to the issuer.
func NewAPIKeyFetcher(client *http.Client, tokenURL, apiKey, apiSecret string) TokenFetcher {
	return func(ctx context.Context) (string, error) {
		return fetchToken(ctx, client, tokenURL, map[string]string{
			"api_key":    apiKey,
			"api_secret": apiSecret,
		})
	}
}

// NewTOTPFetcher returns a TokenFetcher for the issuer's TOTP flow: a
// six-digit code generated from the shared secret replaces the API secret.
func NewTOTPFetcher(client *http.Client, tokenURL, apiKey, totpSecret string) TokenFetcher {
	return func(ctx context.Context) (string, error) {
		code, err := totp.GenerateCode(totpSecret, time.Now())
		if err != nil {
			return "", fmt.Errorf("generate totp: %w", err)
		}
		return fetchToken(ctx, client, tokenURL, map[string]string{
			"api_key": apiKey,
			"totp":    code,
		})
	}
}

func fetchToken(ctx context.Context, client *http.Client, tokenURL string, body map[string]string) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}
	return tr.AccessToken, nil
}
