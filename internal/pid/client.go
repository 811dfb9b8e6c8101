package pid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
)

var (
	// ErrUnauthorized means the registry refused our credentials. Distinct
	// from a plain rejection so callers can tell a config problem from a
	// bad payload.
	ErrUnauthorized = errors.New("pid: unauthorized")
	// ErrBadRequest means the registry rejected the payload (4xx). Not retried.
	ErrBadRequest = errors.New("pid: registry rejected the request")
	// ErrUnavailable means the registry could not be reached or kept
	// answering 5xx through the whole retry budget.
	ErrUnavailable = errors.New("pid: registry unavailable")
)

const (
	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

// Client is a pure gateway to the handle registry: none of its calls
// mutate local state, so retrying with the same payload is always safe.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *tokenSource

	// delay between attempts, overridable in tests
	delay time.Duration
}

// compile-time check: *Client must satisfy port.PidClient
var _ port.PidClient = (*Client)(nil)

func NewClient(apiURL, tokenURL, clientID, clientSecret string) *Client {
	httpc := &http.Client{Timeout: 30 * time.Second}
	return &Client{
		baseURL: strings.TrimRight(apiURL, "/"),
		http:    httpc,
		tokens:  newTokenSource(httpc, tokenURL, clientID, clientSecret),
		delay:   retryDelay,
	}
}

// document is the registry's record shape: a handle plus the
// identifier-relevant attributes, which double as the correlation key
// when minting.
type document struct {
	ID         string     `json:"id,omitempty"`
	Attributes attributes `json:"attributes"`
}

type attributes struct {
	SpecimenID     string `json:"digital_specimen_id"`
	MediaURL       string `json:"media_url"`
	Type           string `json:"type"`
	License        string `json:"license,omitempty"`
	OrganisationID string `json:"organisation_id,omitempty"`
}

func attributesOf(w model.MediaWrapper) attributes {
	return attributes{
		SpecimenID:     w.SpecimenID,
		MediaURL:       w.Attributes.AccessURI,
		Type:           w.Type,
		License:        w.Attributes.License,
		OrganisationID: w.Attributes.OrganisationID,
	}
}

func (a attributes) key() model.IdentityKey {
	return model.IdentityKey{SpecimenID: a.SpecimenID, MediaURL: a.MediaURL}
}

func (c *Client) Mint(ctx context.Context, events []model.MediaEvent) (map[model.IdentityKey]string, error) {
	if len(events) == 0 {
		return map[model.IdentityKey]string{}, nil
	}
	log.Printf("minting %d handles...", len(events))

	body := make([]document, len(events))
	for i, ev := range events {
		body[i] = document{Attributes: attributesOf(ev.Wrapper)}
	}

	respBody, err := c.send(ctx, http.MethodPost, "/batch", body)
	if err != nil {
		return nil, fmt.Errorf("mint %d handles: %w", len(events), err)
	}

	var minted []document
	if err := json.Unmarshal(respBody, &minted); err != nil {
		return nil, fmt.Errorf("mint response: %w", err)
	}

	ids := make(map[model.IdentityKey]string, len(minted))
	for _, doc := range minted {
		ids[doc.Attributes.key()] = doc.ID
	}
	return ids, nil
}

func (c *Client) UpdateBatch(ctx context.Context, records []model.MediaRecord) error {
	if len(records) == 0 {
		return nil
	}
	log.Printf("updating identifier metadata for %d handles...", len(records))

	body := make([]document, len(records))
	for i, rec := range records {
		body[i] = document{ID: rec.ID, Attributes: attributesOf(rec.Wrapper)}
	}
	if _, err := c.send(ctx, http.MethodPatch, "/", body); err != nil {
		return fmt.Errorf("update %d handles: %w", len(records), err)
	}
	return nil
}

func (c *Client) RollbackCreate(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	log.Printf("rolling back creation of handles %v...", ids)

	if _, err := c.send(ctx, http.MethodDelete, "/rollback/create", idsBody{IDs: ids}); err != nil {
		log.Printf("handle creation rollback FAILED, manual reconciliation needed for %v: %v", ids, err)
		return fmt.Errorf("rollback create: %w", err)
	}
	return nil
}

func (c *Client) RollbackUpdate(ctx context.Context, records []model.MediaRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	body := make([]document, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		body[i] = document{ID: rec.ID, Attributes: attributesOf(rec.Wrapper)}
	}
	log.Printf("rolling back identifier metadata for handles %v...", ids)

	if _, err := c.send(ctx, http.MethodDelete, "/rollback/update", body); err != nil {
		log.Printf("handle update rollback FAILED, manual reconciliation needed for %v: %v", ids, err)
		return fmt.Errorf("rollback update: %w", err)
	}
	return nil
}

func (c *Client) Activate(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	log.Printf("activating handles %v...", ids)

	if _, err := c.send(ctx, http.MethodPost, "/activate", idsBody{IDs: ids}); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	return nil
}

type idsBody struct {
	IDs []string `json:"ids"`
}

// send runs one registry call with the bounded retry budget: up to
// maxAttempts, fixed delay, retrying only on transport errors and 5xx.
// A 401 invalidates the cached token and is re-attempted once with a
// fresh one before escalating.
func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	refreshed := false
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		respBody, status, err := c.doOnce(ctx, method, path, data)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		case status == http.StatusUnauthorized:
			if !refreshed {
				refreshed = true
				c.tokens.invalidate()
				attempt-- // the refresh retry doesn't consume the budget
				continue
			}
			return nil, ErrUnauthorized
		case status >= 500:
			lastErr = fmt.Errorf("%w: status %d", ErrUnavailable, status)
		case status >= 400:
			return nil, fmt.Errorf("%w: status %d: %s", ErrBadRequest, status, respBody)
		default:
			return respBody, nil
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, data []byte) ([]byte, int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return respBody, resp.StatusCode, nil
}
