package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/shopcore/internal/obs"
)

// ErrNotFound is returned when the catalog no longer knows a product.
var ErrNotFound = errors.New("catalog: product not found")

type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client fetches product snapshots from the catalog service.
type Client struct {
	BaseURL  string
	HTTP     doer
	Validate *validator.Validate
}

// Fetch retrieves a single product snapshot. A 404 maps to ErrNotFound so
// callers can distinguish a removed product from a transport failure.
func (c *Client) Fetch(ctx context.Context, productID string) (ProductSnapshot, error) {
	if c == nil || c.HTTP == nil {
		return ProductSnapshot{}, errors.New("catalog: client not configured")
	}
	endpoint := fmt.Sprintf("%s/products/%s", c.BaseURL, url.PathEscape(productID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ProductSnapshot{}, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		countFetch("error")
		return ProductSnapshot{}, fmt.Errorf("catalog: fetch product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		countFetch("not_found")
		return ProductSnapshot{}, fmt.Errorf("catalog: product %s: %w", productID, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		countFetch("error")
		return ProductSnapshot{}, fmt.Errorf("catalog: fetch product %s: unexpected status %d", productID, resp.StatusCode)
	}

	var snap ProductSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		countFetch("error")
		return ProductSnapshot{}, fmt.Errorf("catalog: decode product %s: %w", productID, err)
	}
	if c.Validate != nil {
		if err := c.Validate.Struct(snap); err != nil {
			countFetch("invalid")
			return ProductSnapshot{}, fmt.Errorf("catalog: invalid snapshot for %s: %w", productID, err)
		}
	}
	countFetch("ok")
	return snap, nil
}

// Lookup fetches snapshots for the given product ids concurrently. Products
// the catalog no longer knows are absent from the result; any other failure
// aborts the whole lookup so stale data is never priced.
func (c *Client) Lookup(ctx context.Context, productIDs []string) (Lookup, error) {
	seen := make(map[string]struct{}, len(productIDs))
	unique := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	result := make(Lookup, len(unique))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, id := range unique {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			snap, err := c.Fetch(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrNotFound):
				// absent from the result; reconciliation handles it
			case err != nil:
				if firstErr == nil {
					firstErr = err
				}
			default:
				result[id] = snap
			}
		}(id)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func countFetch(result string) {
	if obs.CatalogFetchTotal == nil {
		return
	}
	obs.CatalogFetchTotal.WithLabelValues(result).Inc()
}
