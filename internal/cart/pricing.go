package cart

import (
	"fmt"
	"time"

	"github.com/noah-isme/shopcore/internal/catalog"
	"github.com/noah-isme/shopcore/internal/pricing"
)

// LineQuote is one cart line priced against fresh catalog data.
type LineQuote struct {
	Line           Line          `json:"line"`
	BasePrice      pricing.Money `json:"basePrice"`
	EffectivePrice pricing.Money `json:"effectivePrice"`
	HasDiscount    bool          `json:"hasDiscount"`
	DiscountLabel  *string       `json:"discountLabel,omitempty"`
}

// Quote aggregates the priced lines of a cart.
type Quote struct {
	Lines    []LineQuote   `json:"lines"`
	Subtotal pricing.Money `json:"subtotal"`
}

// PriceLines reprices cart lines from the snapshot lookup at the given
// instant. Lines whose product is absent from the lookup fall back to the
// price captured when the line was added; reconciliation is expected to have
// removed such lines before pricing, so the fallback only covers products that
// vanished mid-request. An unknown discount kind fails the whole quote.
func PriceLines(lines []Line, lookup catalog.Lookup, now time.Time, currency string) (Quote, error) {
	q := Quote{Lines: make([]LineQuote, 0, len(lines))}
	for _, line := range lines {
		lq := LineQuote{Line: line}
		product, ok := lookup[line.ProductID]
		if !ok {
			lq.BasePrice = line.PriceAtPurchase
			lq.EffectivePrice = line.PriceAtPurchase
		} else {
			base := product.EffectiveBase(line.SKU)
			effective, err := pricing.EffectivePrice(base, product.Discount, now)
			if err != nil {
				return Quote{}, fmt.Errorf("price line %s/%s: %w", line.ProductID, line.SKU, err)
			}
			lq.BasePrice = base
			lq.EffectivePrice = effective
			lq.HasDiscount = effective < base
			lq.DiscountLabel = pricing.Label(product.Discount, now, currency)
		}
		q.Lines = append(q.Lines, lq)
		q.Subtotal += pricing.Money(line.Qty) * lq.EffectivePrice
	}
	return q, nil
}
