package reconcile

import (
	"errors"
	"testing"

	"github.com/noah-isme/shopcore/internal/catalog"
)

func intPtr(v int) *int { return &v }

func testLookup() catalog.Lookup {
	return catalog.Lookup{
		"p1": {
			ID:        "p1",
			Name:      "Shirt",
			BasePrice: 8000,
			Variants: []catalog.VariantSnapshot{
				{SKU: "p1-red-m", Stock: intPtr(3)},
				{SKU: "p1-blue-l", Stock: intPtr(0)},
			},
		},
		"p2": {
			ID:        "p2",
			Name:      "Mug",
			BasePrice: 2000,
			Variants: []catalog.VariantSnapshot{
				{SKU: "p2-std"},
			},
		},
	}
}

func TestReconcilePartitionsLines(t *testing.T) {
	items := []Item{
		{ProductID: "p1", SKU: "p1-red-m", Qty: 1},
		{ProductID: "gone", SKU: "gone-sku", Qty: 2},
		{ProductID: "p1", SKU: "p1-green-s", Qty: 1},
	}
	res := Reconcile(items, testLookup())

	if len(res.Keep) != 1 || res.Keep[0].ProductID != "p1" || res.Keep[0].SKU != "p1-red-m" {
		t.Fatalf("keep = %+v", res.Keep)
	}
	if len(res.Removed) != 2 {
		t.Fatalf("removed = %+v", res.Removed)
	}
	if res.Removed[0].Reason != ReasonProductMissing {
		t.Fatalf("first removal reason = %q, want %q", res.Removed[0].Reason, ReasonProductMissing)
	}
	if res.Removed[1].Reason != ReasonVariantMissing {
		t.Fatalf("second removal reason = %q, want %q", res.Removed[1].Reason, ReasonVariantMissing)
	}
}

func TestReconcileMatchesTrimmedSKUs(t *testing.T) {
	items := []Item{{ProductID: "p1", SKU: "  p1-red-m  ", Qty: 1}}
	res := Reconcile(items, testLookup())
	if len(res.Keep) != 1 {
		t.Fatalf("trimmed SKU should match, removed = %+v", res.Removed)
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	items := []Item{
		{ProductID: "gone", SKU: "x", Qty: 1},
		{ProductID: "p1", SKU: "p1-red-m", Qty: 2},
	}
	_ = Reconcile(items, testLookup())
	if items[0].ProductID != "gone" || items[1].Qty != 2 {
		t.Fatalf("input mutated: %+v", items)
	}
}

func TestCheckStockRejectsShortage(t *testing.T) {
	items := []Item{{ProductID: "p1", SKU: "p1-red-m", Qty: 5}}
	err := CheckStock(items, testLookup())
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if len(stockErr.Shortages) != 1 {
		t.Fatalf("shortages = %+v", stockErr.Shortages)
	}
	s := stockErr.Shortages[0]
	if s.Requested != 5 || s.Available != 3 {
		t.Fatalf("shortage = %+v", s)
	}
}

func TestCheckStockBoundaryQuantityPasses(t *testing.T) {
	items := []Item{{ProductID: "p1", SKU: "p1-red-m", Qty: 3}}
	if err := CheckStock(items, testLookup()); err != nil {
		t.Fatalf("quantity equal to stock should pass, got %v", err)
	}
}

func TestCheckStockSkipsUntrackedVariants(t *testing.T) {
	items := []Item{{ProductID: "p2", SKU: "p2-std", Qty: 1000}}
	if err := CheckStock(items, testLookup()); err != nil {
		t.Fatalf("untracked stock should not gate, got %v", err)
	}
}

func TestCheckStockAggregatesAllShortages(t *testing.T) {
	items := []Item{
		{ProductID: "p1", SKU: "p1-red-m", Qty: 4},
		{ProductID: "p1", SKU: "p1-blue-l", Qty: 1},
	}
	err := CheckStock(items, testLookup())
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if len(stockErr.Shortages) != 2 {
		t.Fatalf("expected both shortages reported, got %+v", stockErr.Shortages)
	}
}
