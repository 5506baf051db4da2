package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/shopcore/internal/obs"
)

type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the order service.
type Client struct {
	BaseURL string
	HTTP    doer
}

type listEnvelope struct {
	Data       []Order `json:"data"`
	Pagination struct {
		Page    int  `json:"page"`
		Limit   int  `json:"limit"`
		HasMore bool `json:"hasMore"`
	} `json:"pagination"`
}

// List fetches one page of orders. The second return value reports whether
// more pages exist.
func (c *Client) List(ctx context.Context, page, limit int) ([]Order, bool, error) {
	if c == nil || c.HTTP == nil {
		return nil, false, errors.New("order: client not configured")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	endpoint := fmt.Sprintf("%s/orders?%s", c.BaseURL, url.Values{
		"page":  []string{strconv.Itoa(page)},
		"limit": []string{strconv.Itoa(limit)},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("order: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, false, fmt.Errorf("order: list page %d: %w", page, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("order: list page %d: unexpected status %d", page, resp.StatusCode)
	}

	var env listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, false, fmt.Errorf("order: decode list page %d: %w", page, err)
	}
	return env.Data, env.Pagination.HasMore, nil
}

// ListAll walks every page of the order history.
func (c *Client) ListAll(ctx context.Context) ([]Order, error) {
	var all []Order
	for page := 1; ; page++ {
		orders, hasMore, err := c.List(ctx, page, 100)
		if err != nil {
			return nil, err
		}
		all = append(all, orders...)
		if !hasMore {
			return all, nil
		}
	}
}

// Submit posts a new order and returns the created record.
func (c *Client) Submit(ctx context.Context, in NewOrder) (Order, error) {
	if c == nil || c.HTTP == nil {
		return Order{}, errors.New("order: client not configured")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return Order{}, fmt.Errorf("order: encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("order: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		countSubmit("error")
		return Order{}, fmt.Errorf("order: submit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		countSubmit("rejected")
		return Order{}, fmt.Errorf("order: submit: unexpected status %d", resp.StatusCode)
	}

	var created Order
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		countSubmit("error")
		return Order{}, fmt.Errorf("order: decode submission response: %w", err)
	}
	countSubmit("ok")
	return created, nil
}

func countSubmit(result string) {
	if obs.OrderSubmitTotal == nil {
		return
	}
	obs.OrderSubmitTotal.WithLabelValues(result).Inc()
}
