package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/battle"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type BattleRepository struct {
	db *sqlx.DB
}

func NewBattleRepository(db *sqlx.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

func (r *BattleRepository) CreateBatch(ctx context.Context, matches []battle.Match) error {
	if len(matches) == 0 {
		return nil
	}

	insert := qb.InsertInto("battle_matches").
		Columns("id", "lobby_id", "round", "user_a", "user_b", "winner_user_id",
			"status", "voice_channel_id", "best_of", "created_at", "updated_at")
	for _, m := range matches {
		insert.Values(m.ID, m.LobbyID, m.Round, m.UserA, m.UserB, m.WinnerUserID,
			string(m.Status), m.VoiceChannelID, m.BestOf, m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	}

	query, args, err := insert.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert battle matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert battle matches: %w", err)
	}
	return nil
}

func (r *BattleRepository) GetByID(ctx context.Context, matchID string) (battle.Match, bool, error) {
	query, args, err := qb.Select("*").From("battle_matches").
		Where(qb.Eq("id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return battle.Match{}, false, fmt.Errorf("build get battle match query: %w", err)
	}

	var row battleMatchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return battle.Match{}, false, nil
		}
		return battle.Match{}, false, fmt.Errorf("get battle match: %w", err)
	}
	return battleMatchFromRow(row), true, nil
}

func (r *BattleRepository) ListByLobby(ctx context.Context, lobbyID string) ([]battle.Match, error) {
	return r.listMatches(ctx, qb.Eq("lobby_id", lobbyID))
}

func (r *BattleRepository) ListByRound(ctx context.Context, lobbyID string, round int) ([]battle.Match, error) {
	return r.listMatches(ctx, qb.Eq("lobby_id", lobbyID), qb.Eq("round", round))
}

func (r *BattleRepository) MarkRunning(ctx context.Context, matchID, voiceChannelID string) error {
	query, args, err := qb.Update("battle_matches").
		Set("status", string(battle.StatusRunning)).
		Set("voice_channel_id", voiceChannelID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark battle match running query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark battle match running: %w", err)
	}
	return nil
}

func (r *BattleRepository) Finish(ctx context.Context, matchID, winnerUserID string) error {
	query, args, err := qb.Update("battle_matches").
		Set("status", string(battle.StatusFinished)).
		Set("winner_user_id", winnerUserID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID), qb.Expr("status <> ?", string(battle.StatusFinished))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish battle match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish battle match: %w", err)
	}
	return nil
}

func (r *BattleRepository) listMatches(ctx context.Context, where ...qb.Condition) ([]battle.Match, error) {
	query, args, err := qb.Select("*").From("battle_matches").
		Where(where...).
		OrderBy("round", "created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list battle matches query: %w", err)
	}

	var rows []battleMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list battle matches: %w", err)
	}

	out := make([]battle.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, battleMatchFromRow(row))
	}
	return out, nil
}
