package pricing

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

func TestEffectivePricePercentage(t *testing.T) {
	d := &Discount{Kind: KindPercentage, Value: 2000, Active: true}
	got, err := EffectivePrice(10000, d, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 8000 {
		t.Fatalf("effective price = %d, want 8000", got)
	}
}

func TestEffectivePriceFixed(t *testing.T) {
	d := &Discount{Kind: KindFixed, Value: 2500, Active: true}
	got, err := EffectivePrice(10000, d, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7500 {
		t.Fatalf("effective price = %d, want 7500", got)
	}
}

func TestEffectivePriceInactiveDiscount(t *testing.T) {
	d := &Discount{Kind: KindPercentage, Value: 5000, Active: false}
	got, err := EffectivePrice(10000, d, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10000 {
		t.Fatalf("inactive discount should leave price unchanged, got %d", got)
	}
}

func TestEffectivePriceNilDiscount(t *testing.T) {
	got, err := EffectivePrice(10000, nil, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10000 {
		t.Fatalf("nil discount should leave price unchanged, got %d", got)
	}
}

func TestEffectivePriceNeverNegative(t *testing.T) {
	cases := []struct {
		name string
		d    *Discount
	}{
		{"fixed larger than base", &Discount{Kind: KindFixed, Value: 99999, Active: true}},
		{"percentage at 100", &Discount{Kind: KindPercentage, Value: 10000, Active: true}},
		{"percentage above 100", &Discount{Kind: KindPercentage, Value: 15000, Active: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EffectivePrice(5000, tc.d, testNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != 0 {
				t.Fatalf("effective price = %d, want 0", got)
			}
		})
	}
}

func TestEffectivePriceUnknownKind(t *testing.T) {
	d := &Discount{Kind: "bogo", Value: 100, Active: true}
	_, err := EffectivePrice(10000, d, testNow)
	if !errors.Is(err, ErrUnknownDiscountKind) {
		t.Fatalf("expected ErrUnknownDiscountKind, got %v", err)
	}
}

func TestValidAtWindowBoundaries(t *testing.T) {
	start := testNow
	end := testNow.Add(24 * time.Hour)
	d := &Discount{Kind: KindPercentage, Value: 1000, Active: true, StartsAt: ptrTime(start), EndsAt: ptrTime(end)}

	if !d.ValidAt(start) {
		t.Fatalf("discount should be valid exactly at start")
	}
	if !d.ValidAt(end) {
		t.Fatalf("discount should be valid exactly at end")
	}
	if d.ValidAt(start.Add(-time.Millisecond)) {
		t.Fatalf("discount should not be valid before start")
	}
	if d.ValidAt(end.Add(time.Millisecond)) {
		t.Fatalf("discount should not be valid after end")
	}
}

func TestEffectivePriceIsPure(t *testing.T) {
	d := &Discount{Kind: KindPercentage, Value: 2000, Active: true}
	first, err := EffectivePrice(10000, d, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := EffectivePrice(10000, d, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("same inputs produced %d then %d", first, second)
	}
}

func TestLabel(t *testing.T) {
	pct := &Discount{Kind: KindPercentage, Value: 2000, Active: true}
	if got := Label(pct, testNow, "EGP"); got == nil || *got != "20% OFF" {
		t.Fatalf("percentage label = %v", got)
	}
	fixed := &Discount{Kind: KindFixed, Value: 5000, Active: true}
	if got := Label(fixed, testNow, "EGP"); got == nil || *got != "50 EGP OFF" {
		t.Fatalf("fixed label = %v", got)
	}
	if got := Label(&Discount{Kind: KindPercentage, Value: 2000}, testNow, "EGP"); got != nil {
		t.Fatalf("inactive discount should have no label, got %q", *got)
	}
	if got := Label(nil, testNow, "EGP"); got != nil {
		t.Fatalf("nil discount should have no label")
	}
}
