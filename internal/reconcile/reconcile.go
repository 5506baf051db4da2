package reconcile

import (
	"fmt"
	"strings"

	"github.com/noah-isme/shopcore/internal/catalog"
)

// Removal reasons reported to the caller. The caller is responsible for
// applying removals to the cart and surfacing one aggregate notification.
const (
	ReasonProductMissing = "product-missing"
	ReasonVariantMissing = "variant-missing"
)

// Item is the slice of a cart line the reconciler needs.
type Item struct {
	ProductID string
	SKU       string
	Qty       int
}

// Removal identifies a cart line that no longer has a backing product or
// variant in the freshly fetched catalog data.
type Removal struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Reason    string `json:"reason"`
}

// Result partitions cart lines into lines to keep and lines to remove.
type Result struct {
	Keep    []Item
	Removed []Removal
}

// Reconcile validates every cart line against the snapshot lookup. A line
// whose product is absent from the lookup is removed with
// ReasonProductMissing; a line whose SKU matches no variant of its product is
// removed with ReasonVariantMissing. SKUs are compared as normalised strings.
// The input is never mutated.
func Reconcile(items []Item, lookup catalog.Lookup) Result {
	res := Result{
		Keep:    make([]Item, 0, len(items)),
		Removed: nil,
	}
	for _, it := range items {
		product, ok := lookup[it.ProductID]
		if !ok {
			res.Removed = append(res.Removed, Removal{ProductID: it.ProductID, SKU: it.SKU, Reason: ReasonProductMissing})
			continue
		}
		if !hasVariant(product, it.SKU) {
			res.Removed = append(res.Removed, Removal{ProductID: it.ProductID, SKU: it.SKU, Reason: ReasonVariantMissing})
			continue
		}
		res.Keep = append(res.Keep, it)
	}
	return res
}

func hasVariant(product catalog.ProductSnapshot, sku string) bool {
	want := catalog.NormalizeSKU(sku)
	for _, v := range product.Variants {
		if catalog.NormalizeSKU(v.SKU) == want {
			return true
		}
	}
	return false
}

// Shortage records a single line whose requested quantity exceeds the
// available stock.
type Shortage struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError aggregates every shortage found during the checkout stock gate.
type StockError struct {
	Shortages []Shortage
}

// Error implements the error interface.
func (e *StockError) Error() string {
	if e == nil || len(e.Shortages) == 0 {
		return "insufficient stock"
	}
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s/%s requested %d available %d", s.ProductID, s.SKU, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// CheckStock runs the checkout-time stock gate over lines that already passed
// Reconcile. Any line requesting more than the tracked stock fails the whole
// attempt with a single aggregate StockError; quantities are never clamped.
// A quantity equal to the available stock passes. Variants without tracked
// stock are skipped.
func CheckStock(items []Item, lookup catalog.Lookup) error {
	var shortages []Shortage
	for _, it := range items {
		variant, ok := lookup.Variant(it.ProductID, it.SKU)
		if !ok || variant.Stock == nil {
			continue
		}
		if it.Qty > *variant.Stock {
			shortages = append(shortages, Shortage{
				ProductID: it.ProductID,
				SKU:       it.SKU,
				Requested: it.Qty,
				Available: *variant.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &StockError{Shortages: shortages}
	}
	return nil
}
