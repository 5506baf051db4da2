package catalog

import (
	"strings"

	"github.com/noah-isme/shopcore/internal/pricing"
)

// ProductSnapshot is a point-in-time view of a catalog product, fetched fresh
// for a single pricing or reconciliation pass and never cached beyond it.
type ProductSnapshot struct {
	ID        string            `json:"productId" validate:"required"`
	Name      string            `json:"name" validate:"required"`
	BasePrice pricing.Money     `json:"basePrice" validate:"gte=0"`
	Discount  *pricing.Discount `json:"discount,omitempty"`
	Variants  []VariantSnapshot `json:"variants" validate:"dive"`
}

// VariantSnapshot describes one sellable variant of a product. Stock is nil
// when the catalog does not track stock for the variant.
type VariantSnapshot struct {
	SKU           string        `json:"sku" validate:"required"`
	PriceModifier pricing.Money `json:"priceModifier"`
	Stock         *int          `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Color         string        `json:"color,omitempty"`
	Size          string        `json:"size,omitempty"`
	Images        []string      `json:"images,omitempty"`
}

// Lookup indexes snapshots by product id. A missing entry means the catalog
// no longer knows the product.
type Lookup map[string]ProductSnapshot

// NormalizeSKU canonicalises a SKU for comparison. SKUs are matched as
// trimmed strings regardless of how the upstream payload encoded them.
func NormalizeSKU(sku string) string {
	return strings.TrimSpace(sku)
}

// Variant finds the variant matching sku on the product identified by
// productID. The second return value reports whether both were found.
func (l Lookup) Variant(productID, sku string) (VariantSnapshot, bool) {
	product, ok := l[productID]
	if !ok {
		return VariantSnapshot{}, false
	}
	want := NormalizeSKU(sku)
	for _, v := range product.Variants {
		if NormalizeSKU(v.SKU) == want {
			return v, true
		}
	}
	return VariantSnapshot{}, false
}

// EffectiveBase returns the undiscounted price for the given variant of the
// product: base price plus the variant's modifier. A variant that cannot be
// matched falls back to the product base price.
func (p ProductSnapshot) EffectiveBase(sku string) pricing.Money {
	want := NormalizeSKU(sku)
	for _, v := range p.Variants {
		if NormalizeSKU(v.SKU) == want {
			return p.BasePrice + v.PriceModifier
		}
	}
	return p.BasePrice
}
