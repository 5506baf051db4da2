package summary

import (
	"sort"
	"strings"

	"github.com/noah-isme/shopcore/internal/order"
	"github.com/noah-isme/shopcore/internal/pricing"
)

// DefaultTopN is the number of products the admin dashboard shows by default.
const DefaultTopN = 2

// ProductSales aggregates completed sales for one product.
type ProductSales struct {
	ProductID          string        `json:"productId"`
	Name               string        `json:"name"`
	Image              string        `json:"image,omitempty"`
	TotalQuantity      int           `json:"totalQuantity"`
	TotalRevenue       pricing.Money `json:"totalRevenue"`
	TopVariantSKU      string        `json:"topVariantSku"`
	TopVariantQuantity int           `json:"topVariantQuantity"`
}

// FilterCompleted keeps only orders that are paid and delivered. The
// projector expects its input to be filtered this way.
func FilterCompleted(orders []order.Order) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if o.Completed() {
			out = append(out, o)
		}
	}
	return out
}

type bucket struct {
	sales    ProductSales
	skuQty   map[string]int
	skuOrder []string
}

// Project rolls up order lines into per-product sales totals, sorted by
// revenue descending and truncated to topN. The top variant of a product is
// the SKU with the highest accumulated quantity; ties keep the SKU
// encountered first in input order. The result is deterministic for a given
// input order: revenue ties preserve first-encounter order as well.
func Project(orders []order.Order, topN int) []ProductSales {
	if topN <= 0 {
		topN = DefaultTopN
	}
	buckets := make(map[string]*bucket)
	var productOrder []string
	for _, o := range orders {
		for _, line := range o.Items {
			b, ok := buckets[line.ProductID]
			if !ok {
				b = &bucket{
					sales:  ProductSales{ProductID: line.ProductID, Name: line.Name, Image: line.Image},
					skuQty: make(map[string]int),
				}
				buckets[line.ProductID] = b
				productOrder = append(productOrder, line.ProductID)
			}
			b.sales.TotalQuantity += line.Qty
			b.sales.TotalRevenue += line.PriceAtPurchase * pricing.Money(line.Qty)
			sku := strings.TrimSpace(line.SKU)
			if _, seen := b.skuQty[sku]; !seen {
				b.skuOrder = append(b.skuOrder, sku)
			}
			b.skuQty[sku] += line.Qty
		}
	}
	out := make([]ProductSales, 0, len(productOrder))
	for _, id := range productOrder {
		b := buckets[id]
		var topSKU string
		var topQty int
		for _, sku := range b.skuOrder {
			if q := b.skuQty[sku]; q > topQty {
				topSKU, topQty = sku, q
			}
		}
		b.sales.TopVariantSKU = topSKU
		b.sales.TopVariantQuantity = topQty
		out = append(out, b.sales)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRevenue > out[j].TotalRevenue
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
