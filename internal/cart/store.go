package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/shopcore/internal/pricing"
)

// ErrNotFound is returned when a cart id does not exist or has expired.
var ErrNotFound = errors.New("cart: not found")

// Line is a single cart entry. PriceAtPurchase is the effective unit price
// snapshotted when the line was added; quotes always reprice against fresh
// catalog data and only fall back to this value when the product vanished
// mid-request.
type Line struct {
	ID              string        `json:"id"`
	ProductID       string        `json:"productId" validate:"required"`
	SKU             string        `json:"sku" validate:"required"`
	Qty             int           `json:"quantity" validate:"gt=0"`
	PriceAtPurchase pricing.Money `json:"priceAtPurchase" validate:"gte=0"`
	Name            string        `json:"name,omitempty"`
	Image           string        `json:"image,omitempty"`
	Color           string        `json:"color,omitempty"`
	Size            string        `json:"size,omitempty"`
}

// Cart is the session-scoped shopping cart persisted in Redis.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists carts as JSON values with a sliding TTL. Carts are sessions,
// not durable records; expiry is the cleanup mechanism.
type Store struct {
	R   *redis.Client
	TTL time.Duration
	Now func() time.Time
}

func (s *Store) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cartKey(id string) string {
	return "cart:" + id
}

// Create allocates an empty cart and persists it.
func (s *Store) Create(ctx context.Context) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart: store not configured")
	}
	now := s.now().UTC()
	c := Cart{
		ID:        uuid.NewString(),
		Lines:     []Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Get loads a cart by id. Missing or expired carts yield ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart: store not configured")
	}
	raw, err := s.R.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cart{}, fmt.Errorf("cart %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Cart{}, fmt.Errorf("cart: load %s: %w", id, err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cart{}, fmt.Errorf("cart: decode %s: %w", id, err)
	}
	return c, nil
}

// AddLine appends a line to the cart, merging quantity into an existing line
// with the same product and SKU.
func (s *Store) AddLine(ctx context.Context, id string, line Line) (Cart, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	merged := false
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID && c.Lines[i].SKU == line.SKU {
			c.Lines[i].Qty += line.Qty
			c.Lines[i].PriceAtPurchase = line.PriceAtPurchase
			merged = true
			break
		}
	}
	if !merged {
		line.ID = uuid.NewString()
		c.Lines = append(c.Lines, line)
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// UpdateQty changes the quantity of a line identified by its line id.
func (s *Store) UpdateQty(ctx context.Context, id, lineID string, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, fmt.Errorf("cart: quantity must be positive, got %d", qty)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	found := false
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].Qty = qty
			found = true
			break
		}
	}
	if !found {
		return Cart{}, fmt.Errorf("cart %s line %s: %w", id, lineID, ErrNotFound)
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// RemoveLine deletes a line identified by its line id.
func (s *Store) RemoveLine(ctx context.Context, id, lineID string) (Cart, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	kept := c.Lines[:0]
	found := false
	for _, l := range c.Lines {
		if l.ID == lineID {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return Cart{}, fmt.Errorf("cart %s line %s: %w", id, lineID, ErrNotFound)
	}
	c.Lines = kept
	c.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Replace overwrites the cart's lines wholesale. Used after reconciliation
// drops unavailable lines.
func (s *Store) Replace(ctx context.Context, id string, lines []Line) (Cart, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	if lines == nil {
		lines = []Line{}
	}
	c.Lines = lines
	c.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Delete removes the cart entirely, typically after a successful checkout.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.R == nil {
		return errors.New("cart: store not configured")
	}
	if err := s.R.Del(ctx, cartKey(id)).Err(); err != nil {
		return fmt.Errorf("cart: delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, c Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode %s: %w", c.ID, err)
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := s.R.Set(ctx, cartKey(c.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cart: persist %s: %w", c.ID, err)
	}
	return nil
}
