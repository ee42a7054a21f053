package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mygleague/inhouse/internal/domain/inventory"
)

type InventoryRepository struct {
	mu      sync.RWMutex
	effects []inventory.PendingEffect
	stock   map[string]inventory.ConsumableStock
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{stock: make(map[string]inventory.ConsumableStock)}
}

func (r *InventoryRepository) AddPendingEffect(_ context.Context, e inventory.PendingEffect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.effects = append(r.effects, e)
	return nil
}

func (r *InventoryRepository) GetUnconsumedEffect(_ context.Context, userID, kind string) (inventory.PendingEffect, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.effects {
		if e.UserID == userID && e.Kind == kind && e.ConsumedAt == nil {
			return e, true, nil
		}
	}
	return inventory.PendingEffect{}, false, nil
}

func (r *InventoryRepository) ConsumeEffect(_ context.Context, effectID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.effects {
		if e.ID == effectID && e.ConsumedAt == nil {
			stamped := at
			r.effects[i].ConsumedAt = &stamped
			return nil
		}
	}
	return nil
}

func (r *InventoryRepository) AddStock(_ context.Context, userID, item string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := userID + "::" + item
	s, ok := r.stock[key]
	if !ok {
		s = inventory.ConsumableStock{UserID: userID, Item: item}
	}
	s.Count += delta
	s.UpdatedAt = time.Now().UTC()
	r.stock[key] = s
	return nil
}

func (r *InventoryRepository) GetStock(_ context.Context, userID, item string) (inventory.ConsumableStock, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stock[userID+"::"+item]
	if !ok {
		return inventory.ConsumableStock{}, false, nil
	}
	return s, true, nil
}

func (r *InventoryRepository) ListStock(_ context.Context, userID string) ([]inventory.ConsumableStock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]inventory.ConsumableStock, 0)
	for _, s := range r.stock {
		if s.UserID == userID && s.Count != 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Item < out[j].Item
	})
	return out, nil
}
