package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopcore/internal/order"
)

type fakeOrders struct {
	orders []order.Order
	calls  int
	err    error
}

func (f *fakeOrders) ListAll(_ context.Context) ([]order.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func newSummaryService(t *testing.T, src *fakeOrders) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{Orders: src, R: rdb, TTL: time.Minute, TopN: 2}
}

func salesFixture() []order.Order {
	return []order.Order{
		completedOrder(
			order.Line{ProductID: "p1", SKU: "A", Qty: 2, PriceAtPurchase: 100, Name: "Shirt"},
			order.Line{ProductID: "p1", SKU: "B", Qty: 3, PriceAtPurchase: 100, Name: "Shirt"},
		),
		{
			ID:            "ignored",
			PaymentStatus: "pending",
			Status:        order.StatusDelivered,
			Items:         []order.Line{{ProductID: "p9", SKU: "x", Qty: 10, PriceAtPurchase: 100}},
		},
	}
}

func TestTopProductsComputesAndCaches(t *testing.T) {
	src := &fakeOrders{orders: salesFixture()}
	svc := newSummaryService(t, src)
	ctx := context.Background()

	top, err := svc.TopProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, "p1", top[0].ProductID)
	require.Equal(t, 5, top[0].TotalQuantity)
	require.Equal(t, int64(500), top[0].TotalRevenue)
	require.Equal(t, "B", top[0].TopVariantSKU)
	require.Equal(t, 1, src.calls)

	// served from cache
	_, err = svc.TopProducts(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
}

func TestTopProductsSizeVariesCacheKey(t *testing.T) {
	src := &fakeOrders{orders: salesFixture()}
	svc := newSummaryService(t, src)
	ctx := context.Background()

	_, err := svc.TopProducts(ctx, 2)
	require.NoError(t, err)
	_, err = svc.TopProducts(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestRefreshRecomputes(t *testing.T) {
	src := &fakeOrders{orders: salesFixture()}
	svc := newSummaryService(t, src)
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))
	require.Equal(t, 1, src.calls)

	// the refreshed cache serves subsequent reads
	_, err := svc.TopProducts(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
}

func TestTopProductsPropagatesSourceError(t *testing.T) {
	src := &fakeOrders{err: errors.New("order service down")}
	svc := newSummaryService(t, src)

	_, err := svc.TopProducts(context.Background(), 2)
	require.Error(t, err)
}
