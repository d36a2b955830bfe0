// Package hosted is a JSON client for a hosted checkout provider: POST the
// session request, read back {id, url}.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/payment"
)

// Client implements payment.Gateway.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Client for the provider at baseURL.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("payment api url is empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("payment api key is empty")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, sr payment.SessionRequest) (payment.Session, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return payment.Session{}, fmt.Errorf("failed to encode session request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return payment.Session{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", sr.Reference)

	resp, err := c.http.Do(req)
	if err != nil {
		return payment.Session{}, fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return payment.Session{}, fmt.Errorf("payment api error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var s payment.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return payment.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.ID == "" || s.URL == "" {
		return payment.Session{}, fmt.Errorf("payment api returned an incomplete session: %s", strings.TrimSpace(string(raw)))
	}
	return s, nil
}
