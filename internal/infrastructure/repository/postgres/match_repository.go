package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/match"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) CreateBatch(ctx context.Context, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}

	insert := qb.InsertInto("matches").
		Columns("id", "lobby_id", "round", "blue_team_id", "red_team_id", "status",
			"room_id", "blue_url", "red_url", "spectate_url", "stream_url",
			"board_message_id", "winner_team_id", "created_at", "updated_at")
	for _, m := range matches {
		insert.Values(m.ID, m.LobbyID, m.Round, m.BlueTeamID, m.RedTeamID, string(m.Status),
			m.RoomID, m.BlueURL, m.RedURL, m.SpectateURL, m.StreamURL,
			m.BoardMessageID, m.WinnerTeamID, m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	}

	query, args, err := insert.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert matches query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert matches: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) ListByLobby(ctx context.Context, lobbyID string) ([]match.Match, error) {
	return r.listMatches(ctx,
		[]qb.Condition{qb.Eq("lobby_id", lobbyID)},
		[]string{"round", "created_at", "id"}, 0)
}

func (r *MatchRepository) ListPending(ctx context.Context, lobbyID string, round int) ([]match.Match, error) {
	return r.listMatches(ctx,
		[]qb.Condition{
			qb.Eq("lobby_id", lobbyID),
			qb.Eq("round", round),
			qb.Eq("status", string(match.StatusPending)),
		},
		[]string{"created_at", "id"}, 0)
}

func (r *MatchRepository) CountRunning(ctx context.Context, lobbyID string, round int) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("matches").
		Where(
			qb.Eq("lobby_id", lobbyID),
			qb.Eq("round", round),
			qb.Eq("status", string(match.StatusRunning)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count running matches query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count running matches: %w", err)
	}
	return count, nil
}

func (r *MatchRepository) MarkRunning(ctx context.Context, matchID, roomID, blueURL, redURL, spectateURL, streamURL string) error {
	query, args, err := qb.Update("matches").
		Set("status", string(match.StatusRunning)).
		Set("room_id", roomID).
		Set("blue_url", blueURL).
		Set("red_url", redURL).
		Set("spectate_url", spectateURL).
		Set("stream_url", streamURL).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark match running query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark match running: %w", err)
	}
	return nil
}

func (r *MatchRepository) Finish(ctx context.Context, matchID, winnerTeamID string) error {
	query, args, err := qb.Update("matches").
		Set("status", string(match.StatusFinished)).
		Set("winner_team_id", winnerTeamID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID), qb.Expr("status <> ?", string(match.StatusFinished))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	return nil
}

func (r *MatchRepository) SetBoardMessage(ctx context.Context, matchID, messageID string) (bool, error) {
	query, args, err := qb.Update("matches").
		Set("board_message_id", messageID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID), qb.Eq("board_message_id", "")).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build set board message query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set board message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set board message rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchRepository) ClearBoardMessage(ctx context.Context, matchID string) error {
	query, args, err := qb.Update("matches").
		Set("board_message_id", "").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear board message query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear board message: %w", err)
	}
	return nil
}

func (r *MatchRepository) SaveResult(ctx context.Context, result match.Result) error {
	model := matchResultTableModel{
		ID:           result.ID,
		LobbyID:      result.LobbyID,
		MatchID:      result.MatchID,
		WinnerTeamID: result.WinnerTeamID,
		CreatedAt:    result.CreatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("match_results", model, "ON CONFLICT (match_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert match result query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

func (r *MatchRepository) ListResults(ctx context.Context, lobbyID string) ([]match.Result, error) {
	query, args, err := qb.Select("*").From("match_results").
		Where(qb.Eq("lobby_id", lobbyID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match results query: %w", err)
	}

	var rows []matchResultTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match results: %w", err)
	}

	out := make([]match.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.Result{
			ID:           row.ID,
			LobbyID:      row.LobbyID,
			MatchID:      row.MatchID,
			WinnerTeamID: row.WinnerTeamID,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}

func (r *MatchRepository) UpsertMvpVote(ctx context.Context, v match.MvpVote) error {
	model := mvpVoteTableModel{
		ID:          v.ID,
		LobbyID:     v.LobbyID,
		MatchID:     v.MatchID,
		TeamID:      v.TeamID,
		VoterUserID: v.VoterUserID,
		VotedUserID: v.VotedUserID,
		CreatedAt:   v.CreatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("mvp_votes", model, `ON CONFLICT (match_id, team_id, voter_user_id)
DO UPDATE SET voted_user_id = EXCLUDED.voted_user_id, created_at = EXCLUDED.created_at`)
	if err != nil {
		return fmt.Errorf("build upsert mvp vote query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert mvp vote: %w", err)
	}
	return nil
}

func (r *MatchRepository) ListMvpVotes(ctx context.Context, lobbyID string) ([]match.MvpVote, error) {
	query, args, err := qb.Select("*").From("mvp_votes").
		Where(qb.Eq("lobby_id", lobbyID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list mvp votes query: %w", err)
	}

	var rows []mvpVoteTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list mvp votes: %w", err)
	}

	out := make([]match.MvpVote, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.MvpVote{
			ID:          row.ID,
			LobbyID:     row.LobbyID,
			MatchID:     row.MatchID,
			TeamID:      row.TeamID,
			VoterUserID: row.VoterUserID,
			VotedUserID: row.VotedUserID,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *MatchRepository) ListLive(ctx context.Context, limit int) ([]match.Match, error) {
	return r.listMatches(ctx,
		[]qb.Condition{qb.Eq("status", string(match.StatusRunning))},
		[]string{"updated_at DESC"}, limit)
}

func (r *MatchRepository) ListRecentFinished(ctx context.Context, limit int) ([]match.Match, error) {
	return r.listMatches(ctx,
		[]qb.Condition{qb.Eq("status", string(match.StatusFinished))},
		[]string{"updated_at DESC"}, limit)
}

func (r *MatchRepository) listMatches(ctx context.Context, where []qb.Condition, orderBy []string, limit int) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(where...).
		OrderBy(orderBy...).
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}
