package storage

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/rl1809/bookstore/internal/metrics"
	"github.com/rl1809/bookstore/internal/port"
)

// BreakerCache decorates a CacheRepository with a circuit breaker. The cache
// is advisory for order placement, so when Redis misbehaves the breaker opens
// and callers fall through to the database instead of stalling on a broken
// connection.
type BreakerCache struct {
	inner port.CacheRepository
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerCache(inner port.CacheRepository) *BreakerCache {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cache",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			state := float64(0)
			switch to {
			case gobreaker.StateOpen:
				state = 1
			case gobreaker.StateHalfOpen:
				state = 2
			}
			metrics.CacheBreakerState.WithLabelValues(name).Set(state)

			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("cache circuit breaker state changed")
		},
	})

	metrics.CacheBreakerState.WithLabelValues("cache").Set(0)

	return &BreakerCache{inner: inner, cb: cb}
}

func (b *BreakerCache) DecrementStock(ctx context.Context, bookID string, quantity int) (port.StockGate, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.DecrementStock(ctx, bookID, quantity)
	})
	if err != nil {
		return port.StockUnknown, err
	}
	return result.(port.StockGate), nil
}

func (b *BreakerCache) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.IncrementStock(ctx, bookID, quantity)
	})
	return err
}

func (b *BreakerCache) SetStock(ctx context.Context, bookID string, quantity int) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.SetStock(ctx, bookID, quantity)
	})
	return err
}

func (b *BreakerCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.SetIdempotency(ctx, key)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}
