package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/points"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type PointsRepository struct {
	db *sqlx.DB
}

func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

func (r *PointsRepository) Append(ctx context.Context, e points.Entry) error {
	query, args, err := qb.InsertModel("points_entries", entryInsertModel(e), "")
	if err != nil {
		return fmt.Errorf("build insert points entry query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert points entry: %w", err)
	}
	return nil
}

func (r *PointsRepository) AppendBatch(ctx context.Context, entries []points.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	insert := qb.InsertInto("points_entries").
		Columns("id", "user_id", "amount", "reason", "lobby_id", "created_at")
	for _, e := range entries {
		insert.Values(e.ID, e.UserID, e.Amount, e.Reason, e.LobbyID, e.CreatedAt.UTC())
	}

	query, args, err := insert.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert points entries query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin points batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert points entries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit points batch tx: %w", err)
	}
	return nil
}

func (r *PointsRepository) Balance(ctx context.Context, userID string) (int, error) {
	query, args, err := qb.Select("COALESCE(SUM(amount), 0)").From("points_entries").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build balance query: %w", err)
	}

	var balance int
	if err := r.db.GetContext(ctx, &balance, query, args...); err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}
	return balance, nil
}

func (r *PointsRepository) Leaderboard(ctx context.Context, limit int) ([]points.LeaderboardRow, error) {
	query, args, err := qb.Select("user_id", "SUM(amount) AS total").From("points_entries").
		Where(qb.Expr("user_id <> ''")).
		GroupBy("user_id").
		OrderBy("total DESC", "user_id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard query: %w", err)
	}

	var rows []struct {
		UserID string `db:"user_id"`
		Total  int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}

	out := make([]points.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, points.LeaderboardRow{UserID: row.UserID, Total: row.Total})
	}
	return out, nil
}

func (r *PointsRepository) CountByReasonSince(ctx context.Context, userID, reason string, since time.Time) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("points_entries").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("reason", reason),
			qb.Expr("created_at >= ?", since.UTC()),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count entries by reason query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count entries by reason: %w", err)
	}
	return count, nil
}

func (r *PointsRepository) ExistsReason(ctx context.Context, reason string) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").From("points_entries").
		Where(qb.Eq("reason", reason)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build exists reason query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check reason exists: %w", err)
	}
	return count > 0, nil
}

func (r *PointsRepository) ListByUser(ctx context.Context, userID string, limit int) ([]points.Entry, error) {
	return r.listEntries(ctx,
		[]qb.Condition{qb.Eq("user_id", userID)},
		[]string{"created_at DESC", "id DESC"}, limit)
}

func (r *PointsRepository) ListByLobby(ctx context.Context, lobbyID string) ([]points.Entry, error) {
	return r.listEntries(ctx,
		[]qb.Condition{qb.Eq("lobby_id", lobbyID)},
		[]string{"created_at", "id"}, 0)
}

func (r *PointsRepository) listEntries(ctx context.Context, where []qb.Condition, orderBy []string, limit int) ([]points.Entry, error) {
	query, args, err := qb.Select("*").From("points_entries").
		Where(where...).
		OrderBy(orderBy...).
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list points entries query: %w", err)
	}

	var rows []pointsEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list points entries: %w", err)
	}

	out := make([]points.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, pointsEntryFromRow(row))
	}
	return out, nil
}

func entryInsertModel(e points.Entry) pointsEntryTableModel {
	return pointsEntryTableModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Amount:    e.Amount,
		Reason:    e.Reason,
		LobbyID:   e.LobbyID,
		CreatedAt: e.CreatedAt.UTC(),
	}
}
