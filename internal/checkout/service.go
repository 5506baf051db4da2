package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/noah-isme/shopcore/internal/cart"
	"github.com/noah-isme/shopcore/internal/catalog"
	"github.com/noah-isme/shopcore/internal/common"
	"github.com/noah-isme/shopcore/internal/events"
	"github.com/noah-isme/shopcore/internal/obs"
	"github.com/noah-isme/shopcore/internal/order"
	"github.com/noah-isme/shopcore/internal/pricing"
	"github.com/noah-isme/shopcore/internal/reconcile"
)

// Rejection reasons surfaced in metrics and events.
const (
	reasonCartChanged       = "cart_changed"
	reasonInsufficientStock = "insufficient_stock"
)

// Submitter is the slice of the order client checkout needs.
type Submitter interface {
	Submit(ctx context.Context, in order.NewOrder) (order.Order, error)
}

// Service runs the checkout pipeline: reconcile, stock gate, reprice, submit.
type Service struct {
	Store    *cart.Store
	Catalog  cart.Catalog
	Orders   Submitter
	Currency string
	Now      func() time.Time
	Events   *events.Bus
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Input is the checkout request.
type Input struct {
	CartID      string        `json:"cartId" validate:"required"`
	ShippingFee pricing.Money `json:"shippingFee" validate:"gte=0"`
}

// Output is returned after a successful submission.
type Output struct {
	OrderID     string        `json:"orderId"`
	Subtotal    pricing.Money `json:"subtotal"`
	ShippingFee pricing.Money `json:"shippingFee"`
	Total       pricing.Money `json:"total"`
	Currency    string        `json:"currency"`
}

// Create executes checkout for the cart. Lines whose product or variant
// disappeared are removed from the stored cart and the attempt is rejected so
// the shopper sees the updated cart before paying. A stock shortage rejects
// the attempt without touching the cart. Totals are always computed from fresh
// catalog prices, never from prices captured at add time.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Store == nil || s.Catalog == nil || s.Orders == nil {
		return Output{}, errors.New("checkout: service not configured")
	}

	c, err := s.Store.Get(ctx, in.CartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return Output{}, common.NewAppError("CART_NOT_FOUND", "cart not found", http.StatusNotFound, err)
		}
		return Output{}, err
	}
	if len(c.Lines) == 0 {
		return Output{}, common.NewAppError("EMPTY_CART", "cart has no items", http.StatusBadRequest, nil)
	}

	ids := make([]string, 0, len(c.Lines))
	items := make([]reconcile.Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
		items = append(items, reconcile.Item{ProductID: l.ProductID, SKU: l.SKU, Qty: l.Qty})
	}
	lookup, err := s.Catalog.Lookup(ctx, ids)
	if err != nil {
		return Output{}, err
	}

	res := reconcile.Reconcile(items, lookup)
	if len(res.Removed) > 0 {
		if err := s.dropRemoved(ctx, c, res.Removed); err != nil {
			return Output{}, err
		}
		s.reject(ctx, c.ID, reasonCartChanged, res.Removed)
		appErr := common.NewAppError("CART_CHANGED", "some items are no longer available and were removed from the cart", http.StatusConflict, nil)
		appErr.Details = map[string]any{"removedItems": res.Removed}
		return Output{}, appErr
	}

	if err := reconcile.CheckStock(items, lookup); err != nil {
		var stockErr *reconcile.StockError
		if errors.As(err, &stockErr) {
			s.reject(ctx, c.ID, reasonInsufficientStock, stockErr.Shortages)
			appErr := common.NewAppError("INSUFFICIENT_STOCK", "requested quantity exceeds available stock", http.StatusConflict, err)
			appErr.Details = map[string]any{"shortages": stockErr.Shortages}
			return Output{}, appErr
		}
		return Output{}, err
	}

	now := s.now()
	quote, err := cart.PriceLines(c.Lines, lookup, now, s.Currency)
	if err != nil {
		return Output{}, err
	}

	priced := make([]pricing.Item, 0, len(quote.Lines))
	orderLines := make([]order.Line, 0, len(quote.Lines))
	for _, lq := range quote.Lines {
		priced = append(priced, pricing.Item{Qty: lq.Line.Qty, UnitPrice: lq.EffectivePrice})
		orderLines = append(orderLines, order.Line{
			ProductID:       lq.Line.ProductID,
			SKU:             lq.Line.SKU,
			Qty:             lq.Line.Qty,
			PriceAtPurchase: lq.EffectivePrice,
			Name:            lq.Line.Name,
			Image:           lq.Line.Image,
		})
	}
	summary := pricing.Compute(priced, in.ShippingFee)

	created, err := s.Orders.Submit(ctx, order.NewOrder{
		CartID:      c.ID,
		Items:       orderLines,
		Subtotal:    summary.Subtotal,
		ShippingFee: summary.Shipping,
		Total:       summary.Total,
		Currency:    s.Currency,
	})
	if err != nil {
		return Output{}, fmt.Errorf("checkout: submit order: %w", err)
	}

	// the order exists at this point; a failed cart cleanup must not fail checkout
	_ = s.Store.Delete(ctx, c.ID)
	_ = s.Events.Emit(ctx, events.TopicOrderSubmitted, created.ID, map[string]any{
		"orderId": created.ID,
		"cartId":  c.ID,
		"total":   summary.Total,
	})

	return Output{
		OrderID:     created.ID,
		Subtotal:    summary.Subtotal,
		ShippingFee: summary.Shipping,
		Total:       summary.Total,
		Currency:    s.Currency,
	}, nil
}

func (s *Service) dropRemoved(ctx context.Context, c cart.Cart, removed []reconcile.Removal) error {
	gone := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		gone[r.ProductID+"\x00"+catalog.NormalizeSKU(r.SKU)] = struct{}{}
		if obs.CartLinesRemovedTotal != nil {
			obs.CartLinesRemovedTotal.WithLabelValues(r.Reason).Inc()
		}
	}
	kept := make([]cart.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := gone[l.ProductID+"\x00"+catalog.NormalizeSKU(l.SKU)]; ok {
			continue
		}
		kept = append(kept, l)
	}
	_, err := s.Store.Replace(ctx, c.ID, kept)
	return err
}

func (s *Service) reject(ctx context.Context, cartID, reason string, details any) {
	if obs.CheckoutRejectedTotal != nil {
		obs.CheckoutRejectedTotal.WithLabelValues(reason).Inc()
	}
	_ = s.Events.Emit(ctx, events.TopicCheckoutRejected, cartID, map[string]any{
		"cartId":  cartID,
		"reason":  reason,
		"details": details,
	})
}
