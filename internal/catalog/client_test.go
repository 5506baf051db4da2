package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type passthroughDoer struct {
	client *http.Client
}

func (p passthroughDoer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return p.client.Do(req.WithContext(ctx))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		BaseURL:  srv.URL,
		HTTP:     passthroughDoer{client: srv.Client()},
		Validate: validator.New(),
	}
}

func TestFetchDecodesSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/p1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"productId": "p1",
			"name": "Shirt",
			"basePrice": 8000,
			"discount": {"type": "percentage", "value": 2000, "isActive": true},
			"variants": [{"sku": "p1-red-m", "priceModifier": 500, "stock": 3}]
		}`)
	})

	snap, err := c.Fetch(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "p1", snap.ID)
	require.Equal(t, int64(8000), snap.BasePrice)
	require.NotNil(t, snap.Discount)
	require.Len(t, snap.Variants, 1)
	require.NotNil(t, snap.Variants[0].Stock)
	require.Equal(t, 3, *snap.Variants[0].Stock)
}

func TestFetchNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Fetch(context.Background(), "gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetchRejectsInvalidSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"productId": "", "name": "", "basePrice": 100, "variants": []}`)
	})

	_, err := c.Fetch(context.Background(), "p1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestLookupSkipsMissingProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"productId": %q, "name": "Item", "basePrice": 100, "variants": []}`, r.URL.Path[len("/products/"):])
	})

	lookup, err := c.Lookup(context.Background(), []string{"p1", "gone", "p2", "p1"})
	require.NoError(t, err)
	require.Len(t, lookup, 2)
	require.Contains(t, lookup, "p1")
	require.Contains(t, lookup, "p2")
	require.NotContains(t, lookup, "gone")
}

func TestLookupAbortsOnTransportFailure(t *testing.T) {
	var failingDoer = doerFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	c := &Client{BaseURL: "http://catalog", HTTP: failingDoer}

	_, err := c.Lookup(context.Background(), []string{"p1"})
	require.Error(t, err)
}

type doerFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f doerFunc) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}
