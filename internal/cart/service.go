package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/shopcore/internal/catalog"
	"github.com/noah-isme/shopcore/internal/events"
	"github.com/noah-isme/shopcore/internal/obs"
	"github.com/noah-isme/shopcore/internal/pricing"
	"github.com/noah-isme/shopcore/internal/reconcile"
)

// Catalog is the slice of the catalog client the cart service needs.
type Catalog interface {
	Fetch(ctx context.Context, productID string) (catalog.ProductSnapshot, error)
	Lookup(ctx context.Context, productIDs []string) (catalog.Lookup, error)
}

// Service owns cart mutation and quoting.
type Service struct {
	Store    *Store
	Catalog  Catalog
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

// AddItemInput carries the request payload for adding a product to a cart.
type AddItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	SKU       string `json:"sku" validate:"required"`
	Qty       int    `json:"quantity" validate:"gt=0"`
}

// AddItem validates the product and variant against the catalog and appends
// the line with the effective unit price captured at add time.
func (s *Service) AddItem(ctx context.Context, cartID string, in AddItemInput) (Cart, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart: service not configured")
	}
	snap, err := s.Catalog.Fetch(ctx, in.ProductID)
	if err != nil {
		return Cart{}, err
	}
	sku := catalog.NormalizeSKU(in.SKU)
	variant, ok := catalog.Lookup{snap.ID: snap}.Variant(snap.ID, sku)
	if !ok {
		return Cart{}, fmt.Errorf("cart: product %s has no variant %s: %w", in.ProductID, sku, catalog.ErrNotFound)
	}

	now := s.now()
	base := snap.EffectiveBase(sku)
	effective, err := pricing.EffectivePrice(base, snap.Discount, now)
	if err != nil {
		return Cart{}, err
	}

	image := ""
	if len(variant.Images) > 0 {
		image = variant.Images[0]
	}
	line := Line{
		ProductID:       snap.ID,
		SKU:             sku,
		Qty:             in.Qty,
		PriceAtPurchase: effective,
		Name:            snap.Name,
		Image:           image,
		Color:           variant.Color,
		Size:            variant.Size,
	}
	return s.Store.AddLine(ctx, cartID, line)
}

// QuoteResponse is the full repriced view of a cart, including lines removed
// by reconciliation during this request.
type QuoteResponse struct {
	CartID   string              `json:"cartId"`
	Lines    []LineQuote         `json:"lines"`
	Subtotal pricing.Money       `json:"subtotal"`
	Currency string              `json:"currency"`
	Removed  []reconcile.Removal `json:"removedItems,omitempty"`
	Notice   string              `json:"notice,omitempty"`
}

// Quote reprices the cart against fresh catalog data. Lines whose product or
// variant no longer exists are removed from the stored cart and reported once
// in the response; surviving lines are priced with current discounts.
func (s *Service) Quote(ctx context.Context, cartID string) (QuoteResponse, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return QuoteResponse{}, errors.New("cart: service not configured")
	}
	c, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return QuoteResponse{}, err
	}

	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	lookup, err := s.Catalog.Lookup(ctx, ids)
	if err != nil {
		return QuoteResponse{}, err
	}

	items := make([]reconcile.Item, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, reconcile.Item{ProductID: l.ProductID, SKU: l.SKU, Qty: l.Qty})
	}
	res := reconcile.Reconcile(items, lookup)

	if len(res.Removed) > 0 {
		c, err = s.applyRemovals(ctx, c, res.Removed)
		if err != nil {
			return QuoteResponse{}, err
		}
	}

	quote, err := PriceLines(c.Lines, lookup, s.now(), s.Currency)
	if err != nil {
		return QuoteResponse{}, err
	}

	out := QuoteResponse{
		CartID:   c.ID,
		Lines:    quote.Lines,
		Subtotal: quote.Subtotal,
		Currency: s.Currency,
		Removed:  res.Removed,
	}
	if n := len(res.Removed); n > 0 {
		out.Notice = fmt.Sprintf("%d item(s) were removed from your cart because they are no longer available", n)
	}
	return out, nil
}

func (s *Service) applyRemovals(ctx context.Context, c Cart, removed []reconcile.Removal) (Cart, error) {
	gone := make(map[string]string, len(removed))
	for _, r := range removed {
		gone[r.ProductID+"\x00"+catalog.NormalizeSKU(r.SKU)] = r.Reason
		if obs.CartLinesRemovedTotal != nil {
			obs.CartLinesRemovedTotal.WithLabelValues(r.Reason).Inc()
		}
	}
	kept := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := gone[l.ProductID+"\x00"+catalog.NormalizeSKU(l.SKU)]; ok {
			continue
		}
		kept = append(kept, l)
	}
	updated, err := s.Store.Replace(ctx, c.ID, kept)
	if err != nil {
		return Cart{}, err
	}
	// event delivery is best effort for quotes
	_ = s.Events.Emit(ctx, events.TopicCartReconciled, c.ID, map[string]any{
		"cartId":  c.ID,
		"removed": removed,
	})
	return updated, nil
}
