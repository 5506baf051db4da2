package order

import (
	"time"

	"github.com/noah-isme/shopcore/internal/pricing"
)

// Terminal states an order must reach before it counts towards sales
// reporting.
const (
	PaymentStatusPaid = "paid"
	StatusDelivered   = "delivered"
)

// Line is an immutable order line. PriceAtPurchase is the effective unit
// price captured when the order was placed.
type Line struct {
	ProductID       string        `json:"productId"`
	SKU             string        `json:"sku"`
	Qty             int           `json:"quantity"`
	PriceAtPurchase pricing.Money `json:"priceAtPurchase"`
	Name            string        `json:"name"`
	Image           string        `json:"image,omitempty"`
}

// Order is the read model returned by the order service.
type Order struct {
	ID            string    `json:"id"`
	Items         []Line    `json:"items"`
	PaymentStatus string    `json:"paymentStatus"`
	Status        string    `json:"orderStatus"`
	Currency      string    `json:"currency,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Completed reports whether the order is paid and delivered.
func (o Order) Completed() bool {
	return o.PaymentStatus == PaymentStatusPaid && o.Status == StatusDelivered
}

// NewOrder is the submission payload sent to the order service at checkout.
type NewOrder struct {
	CartID      string        `json:"cartId"`
	Items       []Line        `json:"items"`
	Subtotal    pricing.Money `json:"subtotal"`
	ShippingFee pricing.Money `json:"shippingFee"`
	Total       pricing.Money `json:"total"`
	Currency    string        `json:"currency"`
}
