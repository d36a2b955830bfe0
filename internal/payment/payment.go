// Package payment hands a priced order to a hosted checkout provider and
// gets back a redirect URL. The provider's webhooks are not consumed here.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// LineItem is one priced row shown on the provider's checkout page.
type LineItem struct {
	Label      string `json:"label"`
	UnitAmount int64  `json:"unit_amount"` // minor units
	Quantity   int    `json:"quantity"`
}

// SessionRequest describes a checkout session to create.
type SessionRequest struct {
	Reference  string     `json:"reference"` // order id
	Currency   string     `json:"currency"`
	Items      []LineItem `json:"line_items"`
	SuccessURL string     `json:"success_url"`
	CancelURL  string     `json:"cancel_url"`
}

// Session is a created checkout session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Gateway creates hosted checkout sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}

// FakeGateway accepts every request and redirects straight to the success URL.
// It backs DEV_MODE and tests.
type FakeGateway struct {
	mu       sync.Mutex
	Requests []SessionRequest
	Err      error
}

func (g *FakeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return Session{}, g.Err
	}
	g.Requests = append(g.Requests, req)
	id := fmt.Sprintf("cs_test_%d", len(g.Requests))

	u, err := url.Parse(req.SuccessURL)
	if err != nil {
		return Session{}, fmt.Errorf("invalid success url: %w", err)
	}
	q := u.Query()
	q.Set("session_id", id)
	u.RawQuery = q.Encode()
	return Session{ID: id, URL: u.String()}, nil
}
