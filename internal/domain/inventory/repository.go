package inventory

import (
	"context"
	"time"
)

// Repository describes inventory persistence needs from use cases.
type Repository interface {
	AddPendingEffect(ctx context.Context, e PendingEffect) error
	// GetUnconsumedEffect returns the oldest unconsumed effect of the kind.
	GetUnconsumedEffect(ctx context.Context, userID, kind string) (PendingEffect, bool, error)
	ConsumeEffect(ctx context.Context, effectID string, at time.Time) error

	// AddStock increments the item's count, creating the stack at delta
	// when absent.
	AddStock(ctx context.Context, userID, item string, delta int) error
	GetStock(ctx context.Context, userID, item string) (ConsumableStock, bool, error)
	ListStock(ctx context.Context, userID string) ([]ConsumableStock, error)
}
