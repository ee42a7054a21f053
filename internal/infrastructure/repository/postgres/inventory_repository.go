package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/inventory"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type InventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) AddPendingEffect(ctx context.Context, e inventory.PendingEffect) error {
	model := pendingEffectTableModel{
		ID:         e.ID,
		UserID:     e.UserID,
		Kind:       e.Kind,
		ConsumedAt: e.ConsumedAt,
		CreatedAt:  e.CreatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("pending_effects", model, "")
	if err != nil {
		return fmt.Errorf("build insert pending effect query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pending effect: %w", err)
	}
	return nil
}

func (r *InventoryRepository) GetUnconsumedEffect(ctx context.Context, userID, kind string) (inventory.PendingEffect, bool, error) {
	query, args, err := qb.Select("*").From("pending_effects").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("kind", kind),
			qb.IsNull("consumed_at"),
		).
		OrderBy("created_at", "id").
		Limit(1).
		ToSQL()
	if err != nil {
		return inventory.PendingEffect{}, false, fmt.Errorf("build get pending effect query: %w", err)
	}

	var row pendingEffectTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return inventory.PendingEffect{}, false, nil
		}
		return inventory.PendingEffect{}, false, fmt.Errorf("get pending effect: %w", err)
	}
	return pendingEffectFromRow(row), true, nil
}

func (r *InventoryRepository) ConsumeEffect(ctx context.Context, effectID string, at time.Time) error {
	query, args, err := qb.Update("pending_effects").
		Set("consumed_at", at.UTC()).
		Where(qb.Eq("id", effectID), qb.IsNull("consumed_at")).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build consume effect query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("consume effect: %w", err)
	}
	return nil
}

func (r *InventoryRepository) AddStock(ctx context.Context, userID, item string, delta int) error {
	query, args, err := qb.InsertInto("consumable_stock").
		Columns("user_id", "item", "count", "updated_at").
		Values(userID, item, delta, time.Now().UTC()).
		Suffix(`ON CONFLICT (user_id, item)
DO UPDATE SET count = consumable_stock.count + EXCLUDED.count, updated_at = EXCLUDED.updated_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build add stock query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add stock: %w", err)
	}
	return nil
}

func (r *InventoryRepository) GetStock(ctx context.Context, userID, item string) (inventory.ConsumableStock, bool, error) {
	query, args, err := qb.Select("*").From("consumable_stock").
		Where(qb.Eq("user_id", userID), qb.Eq("item", item)).
		Limit(1).
		ToSQL()
	if err != nil {
		return inventory.ConsumableStock{}, false, fmt.Errorf("build get stock query: %w", err)
	}

	var row stockTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return inventory.ConsumableStock{}, false, nil
		}
		return inventory.ConsumableStock{}, false, fmt.Errorf("get stock: %w", err)
	}
	return stockFromRow(row), true, nil
}

func (r *InventoryRepository) ListStock(ctx context.Context, userID string) ([]inventory.ConsumableStock, error) {
	query, args, err := qb.Select("*").From("consumable_stock").
		Where(qb.Eq("user_id", userID), qb.Expr("count <> 0")).
		OrderBy("item").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list stock query: %w", err)
	}

	var rows []stockTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}

	out := make([]inventory.ConsumableStock, 0, len(rows))
	for _, row := range rows {
		out = append(out, stockFromRow(row))
	}
	return out, nil
}
