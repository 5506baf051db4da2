package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Kind enumerates the supported discount kinds.
type Kind string

const (
	// KindPercentage reduces the price by a fraction expressed in basis points.
	KindPercentage Kind = "percentage"
	// KindFixed reduces the price by an absolute amount in minor units.
	KindFixed Kind = "fixed"
)

// ErrUnknownDiscountKind is returned when a discount carries a kind the
// evaluator does not recognise. Callers must surface it rather than fall back
// to the undiscounted price, so a misconfigured catalog never silently
// charges full price.
var ErrUnknownDiscountKind = errors.New("pricing: unknown discount kind")

// Discount describes a product-level price reduction. Percentage values are
// basis points (2000 == 20%), fixed values are minor units. Value must be
// non-negative.
type Discount struct {
	Kind     Kind       `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Value    int64      `json:"value" validate:"gte=0"`
	Active   bool       `json:"isActive"`
	StartsAt *time.Time `json:"startDate,omitempty"`
	EndsAt   *time.Time `json:"endDate,omitempty"`
}

// ValidAt reports whether the discount applies at the provided instant.
// Both window boundaries are inclusive.
func (d *Discount) ValidAt(now time.Time) bool {
	if d == nil || !d.Active {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}
	return true
}

// EffectivePrice applies the discount to base when valid at now. The result
// never goes below zero regardless of the configured value; a percentage at
// or above 100% yields a zero price.
func EffectivePrice(base Money, d *Discount, now time.Time) (Money, error) {
	if !d.ValidAt(now) {
		return base, nil
	}
	var off Money
	switch d.Kind {
	case KindPercentage:
		off = base * d.Value / 10000
	case KindFixed:
		off = d.Value
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDiscountKind, d.Kind)
	}
	if off < 0 {
		off = 0
	}
	price := base - off
	if price < 0 {
		price = 0
	}
	return price, nil
}

// Label renders a short human-readable badge for a valid discount, e.g.
// "20% OFF" or "50 EGP OFF". It returns nil when the discount does not apply
// at now. The currency code is a presentation concern supplied by the caller.
func Label(d *Discount, now time.Time, currency string) *string {
	if !d.ValidAt(now) {
		return nil
	}
	var label string
	switch d.Kind {
	case KindPercentage:
		label = fmt.Sprintf("%d%% OFF", roundDiv(d.Value, 100))
	case KindFixed:
		label = fmt.Sprintf("%d %s OFF", roundDiv(d.Value, 100), strings.TrimSpace(currency))
	default:
		return nil
	}
	return &label
}

func roundDiv(v, unit int64) int64 {
	if unit <= 0 {
		return v
	}
	return (v + unit/2) / unit
}
