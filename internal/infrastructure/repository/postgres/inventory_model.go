package postgres

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/inventory"
)

type pendingEffectTableModel struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	Kind       string     `db:"kind"`
	ConsumedAt *time.Time `db:"consumed_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

type stockTableModel struct {
	UserID    string    `db:"user_id"`
	Item      string    `db:"item"`
	Count     int       `db:"count"`
	UpdatedAt time.Time `db:"updated_at"`
}

func pendingEffectFromRow(row pendingEffectTableModel) inventory.PendingEffect {
	return inventory.PendingEffect{
		ID:         row.ID,
		UserID:     row.UserID,
		Kind:       row.Kind,
		ConsumedAt: row.ConsumedAt,
		CreatedAt:  row.CreatedAt,
	}
}

func stockFromRow(row stockTableModel) inventory.ConsumableStock {
	return inventory.ConsumableStock{
		UserID:    row.UserID,
		Item:      row.Item,
		Count:     row.Count,
		UpdatedAt: row.UpdatedAt,
	}
}
