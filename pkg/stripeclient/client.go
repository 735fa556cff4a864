/**
 * @description
 * This package provides a client for the parts of the Stripe API the club
 * service uses: issuing refunds against payment intents and managing
 * membership subscriptions. It encapsulates authenticated form-encoded HTTP
 * requests and response parsing.
 *
 * @dependencies
 * - context, encoding/json, net/http, net/url, strconv, time: Standard Go libraries.
 */
package stripeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// Client is a client for the Stripe API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new Stripe API client.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Refund is the subset of Stripe's refund object the service consumes.
type Refund struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PaymentIntent string `json:"payment_intent"`
	Status        string `json:"status"` // 'pending', 'succeeded', 'failed', 'canceled'
	Reason        string `json:"reason"`
}

// Subscription is the subset of Stripe's subscription object the service
// consumes.
type Subscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"` // 'active', 'canceled', 'past_due', ...
	CurrentPeriodStart int64  `json:"current_period_start"` // unix seconds
	CurrentPeriodEnd   int64  `json:"current_period_end"`   // unix seconds
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

// ErrorResponse represents an error returned by the Stripe API.
type ErrorResponse struct {
	Err struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ErrorResponse) Error() string {
	if e.Err.Message != "" {
		return fmt.Sprintf("stripe api error: %s - %s", e.Err.Type, e.Err.Message)
	}
	return "unknown stripe api error"
}

// CreateRefund issues a refund for the given payment intent. Stripe accepts
// 'duplicate', 'fraudulent' or 'requested_by_customer' as reasons; anything
// else is omitted.
func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64, reason string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	switch reason {
	case "duplicate", "fraudulent", "requested_by_customer":
		form.Set("reason", reason)
	}

	var refund Refund
	if err := c.post(ctx, "/refunds", form, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// CreateSubscription creates a recurring subscription for a Stripe customer
// on the club's membership price.
func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("items[0][price]", priceID)

	var sub Subscription
	if err := c.post(ctx, "/subscriptions", form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscriptionAtPeriodEnd flags the subscription to stop renewing at
// the end of the current billing period without cutting access immediately.
func (c *Client) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error) {
	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	var sub Subscription
	if err := c.post(ctx, "/subscriptions/"+subscriptionID, form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscription fetches the current state of a subscription.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to stripe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Err.Message == "" {
			return fmt.Errorf("stripe api returned status %d: %s", resp.StatusCode, string(body))
		}
		return &errResp
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode stripe response: %w", err)
	}
	return nil
}
