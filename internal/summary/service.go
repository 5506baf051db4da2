package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/shopcore/internal/order"
)

// OrderSource is the slice of the order client the projector needs.
type OrderSource interface {
	ListAll(ctx context.Context) ([]order.Order, error)
}

// Service computes and caches the top-products sales summary.
type Service struct {
	Orders OrderSource
	R      *redis.Client
	TTL    time.Duration
	TopN   int
}

func cacheKey(n int) string {
	return fmt.Sprintf("summary:top:%d", n)
}

func (s *Service) topN(n int) int {
	if n > 0 {
		return n
	}
	if s != nil && s.TopN > 0 {
		return s.TopN
	}
	return DefaultTopN
}

// TopProducts returns the top-n products by completed-order revenue, serving
// from the Redis cache when fresh and recomputing from the order history on a
// miss.
func (s *Service) TopProducts(ctx context.Context, n int) ([]ProductSales, error) {
	if s == nil || s.Orders == nil {
		return nil, errors.New("summary: service not configured")
	}
	n = s.topN(n)

	if s.R != nil {
		raw, err := s.R.Get(ctx, cacheKey(n)).Bytes()
		if err == nil {
			var cached []ProductSales
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("summary: read cache: %w", err)
		}
	}
	return s.compute(ctx, n)
}

// Refresh recomputes and caches the summary for the default size. Invoked by
// the background worker on a schedule and on demand.
func (s *Service) Refresh(ctx context.Context) error {
	if s == nil || s.Orders == nil {
		return errors.New("summary: service not configured")
	}
	_, err := s.compute(ctx, s.topN(0))
	return err
}

func (s *Service) compute(ctx context.Context, n int) ([]ProductSales, error) {
	orders, err := s.Orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: load orders: %w", err)
	}
	top := Project(FilterCompleted(orders), n)

	if s.R != nil {
		raw, err := json.Marshal(top)
		if err != nil {
			return nil, fmt.Errorf("summary: encode cache: %w", err)
		}
		ttl := s.TTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		if err := s.R.Set(ctx, cacheKey(n), raw, ttl).Err(); err != nil {
			return nil, fmt.Errorf("summary: write cache: %w", err)
		}
	}
	return top, nil
}
