package pricing

// Item describes a priced line used for order total calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components for an order.
type Summary struct {
	Subtotal Money
	Shipping Money
	Total    Money
}

// Compute calculates order totals from already-discounted line prices plus a
// shipping fee. Lines with a non-positive quantity are ignored.
func Compute(items []Item, shipping Money) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	if shipping < 0 {
		shipping = 0
	}
	return Summary{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}
