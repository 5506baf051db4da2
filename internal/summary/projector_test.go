package summary

import (
	"testing"
	"time"

	"github.com/noah-isme/shopcore/internal/order"
)

func completedOrder(lines ...order.Line) order.Order {
	return order.Order{
		ID:            "o1",
		Items:         lines,
		PaymentStatus: order.PaymentStatusPaid,
		Status:        order.StatusDelivered,
		CreatedAt:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFilterCompleted(t *testing.T) {
	orders := []order.Order{
		{PaymentStatus: order.PaymentStatusPaid, Status: order.StatusDelivered},
		{PaymentStatus: order.PaymentStatusPaid, Status: "shipped"},
		{PaymentStatus: "pending", Status: order.StatusDelivered},
	}
	got := FilterCompleted(orders)
	if len(got) != 1 {
		t.Fatalf("completed orders = %d, want 1", len(got))
	}
}

func TestProjectAggregatesAcrossVariants(t *testing.T) {
	orders := []order.Order{
		completedOrder(order.Line{ProductID: "p1", SKU: "A", Qty: 2, PriceAtPurchase: 100, Name: "Shirt"}),
		completedOrder(order.Line{ProductID: "p1", SKU: "B", Qty: 3, PriceAtPurchase: 100, Name: "Shirt"}),
	}
	top := Project(orders, 5)
	if len(top) != 1 {
		t.Fatalf("products = %d, want 1", len(top))
	}
	p := top[0]
	if p.TotalQuantity != 5 {
		t.Fatalf("total quantity = %d, want 5", p.TotalQuantity)
	}
	if p.TotalRevenue != 500 {
		t.Fatalf("total revenue = %d, want 500", p.TotalRevenue)
	}
	if p.TopVariantSKU != "B" || p.TopVariantQuantity != 3 {
		t.Fatalf("top variant = %q/%d, want B/3", p.TopVariantSKU, p.TopVariantQuantity)
	}
}

func TestProjectSortsByRevenueAndTruncates(t *testing.T) {
	orders := []order.Order{
		completedOrder(
			order.Line{ProductID: "low", SKU: "l", Qty: 1, PriceAtPurchase: 100, Name: "Low"},
			order.Line{ProductID: "high", SKU: "h", Qty: 1, PriceAtPurchase: 900, Name: "High"},
			order.Line{ProductID: "mid", SKU: "m", Qty: 1, PriceAtPurchase: 500, Name: "Mid"},
		),
	}
	top := Project(orders, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].ProductID != "high" || top[1].ProductID != "mid" {
		t.Fatalf("order = %s, %s", top[0].ProductID, top[1].ProductID)
	}
}

func TestProjectVariantTieKeepsFirstEncountered(t *testing.T) {
	orders := []order.Order{
		completedOrder(
			order.Line{ProductID: "p1", SKU: "B", Qty: 2, PriceAtPurchase: 100, Name: "Shirt"},
			order.Line{ProductID: "p1", SKU: "A", Qty: 2, PriceAtPurchase: 100, Name: "Shirt"},
		),
	}
	top := Project(orders, 1)
	if top[0].TopVariantSKU != "B" {
		t.Fatalf("tie should keep first-encountered SKU, got %q", top[0].TopVariantSKU)
	}
}

func TestProjectRevenueTiePreservesInputOrder(t *testing.T) {
	orders := []order.Order{
		completedOrder(
			order.Line{ProductID: "p2", SKU: "s2", Qty: 1, PriceAtPurchase: 100, Name: "Second"},
			order.Line{ProductID: "p1", SKU: "s1", Qty: 1, PriceAtPurchase: 100, Name: "First"},
		),
	}
	top := Project(orders, 5)
	if top[0].ProductID != "p2" || top[1].ProductID != "p1" {
		t.Fatalf("revenue tie should preserve encounter order, got %s, %s", top[0].ProductID, top[1].ProductID)
	}
}

func TestProjectDefaultsTopN(t *testing.T) {
	orders := []order.Order{
		completedOrder(
			order.Line{ProductID: "p1", SKU: "a", Qty: 1, PriceAtPurchase: 300, Name: "A"},
			order.Line{ProductID: "p2", SKU: "b", Qty: 1, PriceAtPurchase: 200, Name: "B"},
			order.Line{ProductID: "p3", SKU: "c", Qty: 1, PriceAtPurchase: 100, Name: "C"},
		),
	}
	top := Project(orders, 0)
	if len(top) != DefaultTopN {
		t.Fatalf("len = %d, want %d", len(top), DefaultTopN)
	}
}
