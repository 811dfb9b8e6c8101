package pid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	tokenCacheKey = "bearer"
	// expiry margin so we never present a token about to lapse mid-call
	tokenExpiryMargin = 30 * time.Second
)

// tokenSource fetches bearer tokens from the registry's token endpoint
// with the client-credentials grant and caches them until shortly before
// they expire.
type tokenSource struct {
	endpoint     string
	clientID     string
	clientSecret string
	http         *http.Client
	cache        *gocache.Cache
}

func newTokenSource(httpc *http.Client, endpoint, clientID, clientSecret string) *tokenSource {
	return &tokenSource{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpc,
		cache:        gocache.New(gocache.NoExpiration, 5*time.Minute),
	}
}

func (t *tokenSource) Token(ctx context.Context) (string, error) {
	if v, ok := t.cache.Get(tokenCacheKey); ok {
		return v.(string), nil
	}

	log.Printf("fetching a fresh bearer token from the token endpoint...")

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close token response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned status %d", ErrUnauthorized, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: token endpoint returned an empty token", ErrUnauthorized)
	}

	ttl := time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryMargin
	if ttl > 0 {
		t.cache.Set(tokenCacheKey, payload.AccessToken, ttl)
	}
	return payload.AccessToken, nil
}

func (t *tokenSource) invalidate() {
	t.cache.Delete(tokenCacheKey)
}
