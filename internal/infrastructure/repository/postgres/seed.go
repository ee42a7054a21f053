package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the fixed faction roster when the table is empty.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM factions`); err != nil {
		return fmt.Errorf("count factions for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, f := range memory.SeedFactionRoster() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO factions (id, key, name)
VALUES (:id, :key, :name)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":   f.ID,
			"key":  f.Key,
			"name": f.Name,
		})
		if err != nil {
			return fmt.Errorf("bind seed faction %s query: %w", f.Key, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed faction %s: %w", f.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	return nil
}
