package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

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
	return &Client{BaseURL: srv.URL, HTTP: passthroughDoer{client: srv.Client()}}
}

func TestListParsesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{
			"data": [{"id": "o1", "paymentStatus": "paid", "orderStatus": "delivered", "items": []}],
			"pagination": {"page": 2, "limit": 50, "hasMore": true}
		}`)
	})

	orders, hasMore, err := c.List(context.Background(), 2, 50)
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Len(t, orders, 1)
	require.Equal(t, "o1", orders[0].ID)
	require.True(t, orders[0].Completed())
}

func TestListAllWalksPages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		hasMore := page < 3
		fmt.Fprintf(w, `{
			"data": [{"id": "o%d", "items": []}],
			"pagination": {"page": %d, "limit": 100, "hasMore": %t}
		}`, page, page, hasMore)
	})

	orders, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	require.Equal(t, "o1", orders[0].ID)
	require.Equal(t, "o3", orders[2].ID)
}

func TestSubmitPostsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var in NewOrder
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "cart-1", in.CartID)
		require.Equal(t, int64(17000), in.Total)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "o-new", "items": [], "paymentStatus": "pending", "orderStatus": "created"}`)
	})

	created, err := c.Submit(context.Background(), NewOrder{
		CartID:      "cart-1",
		Subtotal:    15500,
		ShippingFee: 1500,
		Total:       17000,
		Currency:    "EGP",
	})
	require.NoError(t, err)
	require.Equal(t, "o-new", created.ID)
}

func TestSubmitRejectedStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := c.Submit(context.Background(), NewOrder{CartID: "cart-1"})
	require.Error(t, err)
}
