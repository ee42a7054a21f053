package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type LobbyRepository struct {
	db *sqlx.DB
}

func NewLobbyRepository(db *sqlx.DB) *LobbyRepository {
	return &LobbyRepository{db: db}
}

func (r *LobbyRepository) Create(ctx context.Context, l lobby.Lobby) error {
	model := lobbyInsertModel{
		ID:        l.ID,
		GuildID:   l.GuildID,
		ChannelID: l.ChannelID,
		Name:      l.Name,
		Mode:      string(l.Mode),
		TeamCount: l.TeamCount,
		Status:    string(l.Status),
		Format:    l.Format,
		CreatedBy: l.CreatedBy,
		CreatedAt: l.CreatedAt.UTC(),
		UpdatedAt: l.UpdatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("lobbies", model, "")
	if err != nil {
		return fmt.Errorf("build insert lobby query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert lobby: %w", err)
	}
	return nil
}

func (r *LobbyRepository) GetByID(ctx context.Context, lobbyID string) (lobby.Lobby, bool, error) {
	query, args, err := qb.Select("*").From("lobbies").
		Where(qb.Eq("id", lobbyID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return lobby.Lobby{}, false, fmt.Errorf("build get lobby query: %w", err)
	}

	var row lobbyTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return lobby.Lobby{}, false, nil
		}
		return lobby.Lobby{}, false, fmt.Errorf("get lobby: %w", err)
	}
	return lobbyFromRow(row), true, nil
}

func (r *LobbyRepository) UpdateStatus(ctx context.Context, lobbyID string, status lobby.Status) error {
	query, args, err := qb.Update("lobbies").
		Set("status", string(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", lobbyID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update lobby status query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update lobby status: %w", err)
	}
	return nil
}

func (r *LobbyRepository) SetFormat(ctx context.Context, lobbyID, format string) error {
	query, args, err := qb.Update("lobbies").
		Set("format", format).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", lobbyID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set lobby format query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set lobby format: %w", err)
	}
	return nil
}

func (r *LobbyRepository) ListRecent(ctx context.Context, limit int) ([]lobby.Lobby, error) {
	query, args, err := qb.Select("*").From("lobbies").
		OrderBy("created_at DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list recent lobbies query: %w", err)
	}

	var rows []lobbyTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list recent lobbies: %w", err)
	}

	out := make([]lobby.Lobby, 0, len(rows))
	for _, row := range rows {
		out = append(out, lobbyFromRow(row))
	}
	return out, nil
}

func (r *LobbyRepository) MarkResultsPanelPosted(ctx context.Context, lobbyID string, at time.Time) (bool, error) {
	return r.markOnce(ctx, lobbyID, "results_panel_posted_at", at)
}

func (r *LobbyRepository) MarkSettled(ctx context.Context, lobbyID string, at time.Time) (bool, error) {
	return r.markOnce(ctx, lobbyID, "settled_at", at)
}

func (r *LobbyRepository) MarkMvpLocked(ctx context.Context, lobbyID string, at time.Time) (bool, error) {
	return r.markOnce(ctx, lobbyID, "mvp_locked_at", at)
}

// markOnce sets the marker column only when still NULL. The swap winner is
// whoever flips the row.
func (r *LobbyRepository) markOnce(ctx context.Context, lobbyID, column string, at time.Time) (bool, error) {
	query, args, err := qb.Update("lobbies").
		Set(column, at.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", lobbyID), qb.IsNull(column)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build mark %s query: %w", column, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark %s rows affected: %w", column, err)
	}
	return affected > 0, nil
}

func (r *LobbyRepository) ClearSettled(ctx context.Context, lobbyID string) error {
	return r.clearMark(ctx, lobbyID, "settled_at")
}

func (r *LobbyRepository) ClearMvpLocked(ctx context.Context, lobbyID string) error {
	return r.clearMark(ctx, lobbyID, "mvp_locked_at")
}

func (r *LobbyRepository) clearMark(ctx context.Context, lobbyID, column string) error {
	query, args, err := qb.Update("lobbies").
		SetExpr(column, "NULL").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", lobbyID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear %s query: %w", column, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear %s: %w", column, err)
	}
	return nil
}

func (r *LobbyRepository) AddParticipant(ctx context.Context, p lobby.Participant) error {
	model := participantTableModel{
		ID:        p.ID,
		LobbyID:   p.LobbyID,
		UserID:    p.UserID,
		Display:   p.Display,
		Role:      string(p.Role),
		IsFake:    p.IsFake,
		CreatedAt: p.CreatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("lobby_participants", model, "")
	if err != nil {
		return fmt.Errorf("build insert participant query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *LobbyRepository) RemoveParticipant(ctx context.Context, lobbyID, participantID string) error {
	query, args, err := qb.DeleteFrom("lobby_participants").
		Where(qb.Eq("lobby_id", lobbyID), qb.Eq("id", participantID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build remove participant query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func (r *LobbyRepository) RemoveParticipantsByUser(ctx context.Context, lobbyID, userID string) error {
	query, args, err := qb.DeleteFrom("lobby_participants").
		Where(qb.Eq("lobby_id", lobbyID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build remove participants by user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove participants by user: %w", err)
	}
	return nil
}

func (r *LobbyRepository) GetParticipantByUser(ctx context.Context, lobbyID, userID string) (lobby.Participant, bool, error) {
	query, args, err := qb.Select("*").From("lobby_participants").
		Where(qb.Eq("lobby_id", lobbyID), qb.Eq("user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return lobby.Participant{}, false, fmt.Errorf("build get participant query: %w", err)
	}

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return lobby.Participant{}, false, nil
		}
		return lobby.Participant{}, false, fmt.Errorf("get participant: %w", err)
	}
	return participantFromRow(row), true, nil
}

func (r *LobbyRepository) ListParticipants(ctx context.Context, lobbyID string) ([]lobby.Participant, error) {
	query, args, err := qb.Select("*").From("lobby_participants").
		Where(qb.Eq("lobby_id", lobbyID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make([]lobby.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, participantFromRow(row))
	}
	return out, nil
}

func (r *LobbyRepository) CountByRole(ctx context.Context, lobbyID string, role lobby.Role) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("lobby_participants").
		Where(qb.Eq("lobby_id", lobbyID), qb.Eq("role", string(role))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count participants by role query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count participants by role: %w", err)
	}
	return count, nil
}
