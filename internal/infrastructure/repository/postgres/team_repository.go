package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/team"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) CreateBatch(ctx context.Context, teams []team.Team) error {
	if len(teams) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teams tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	teamInsert := qb.InsertInto("teams").
		Columns("id", "lobby_id", "number", "name", "captain_participant_id",
			"category_id", "text_channel_id", "voice_channel_id", "created_at", "updated_at")
	slotInsert := qb.InsertInto("team_slots").
		Columns("team_id", "lobby_id", "role", "participant_id")

	for _, t := range teams {
		teamInsert.Values(t.ID, t.LobbyID, t.Number, t.Name, t.CaptainID,
			t.CategoryID, t.TextChannelID, t.VoiceChannelID, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
		for _, role := range lobby.CoreRoles() {
			slotInsert.Values(t.ID, t.LobbyID, string(role), t.Slots[role])
		}
	}

	query, args, err := teamInsert.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert teams query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert teams: %w", err)
	}

	query, args, err = slotInsert.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert team slots query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team slots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create teams tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", teamID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	slots, err := r.listSlots(ctx, qb.Eq("team_id", teamID))
	if err != nil {
		return team.Team{}, false, err
	}
	return teamFromRow(row, slots), true, nil
}

func (r *TeamRepository) ListByLobby(ctx context.Context, lobbyID string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("lobby_id", lobbyID)).
		OrderBy("number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	slots, err := r.listSlots(ctx, qb.Eq("lobby_id", lobbyID))
	if err != nil {
		return nil, err
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row, slots))
	}
	return out, nil
}

func (r *TeamRepository) Rename(ctx context.Context, teamID, name string) error {
	return r.updateTeam(ctx, teamID, "name", name)
}

func (r *TeamRepository) SetCaptain(ctx context.Context, teamID, participantID string) error {
	return r.updateTeam(ctx, teamID, "captain_participant_id", participantID)
}

func (r *TeamRepository) SetChannels(ctx context.Context, teamID, categoryID, textChannelID, voiceChannelID string) error {
	query, args, err := qb.Update("teams").
		Set("category_id", categoryID).
		Set("text_channel_id", textChannelID).
		Set("voice_channel_id", voiceChannelID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set team channels query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set team channels: %w", err)
	}
	return nil
}

func (r *TeamRepository) DeleteAboveNumber(ctx context.Context, lobbyID string, keep int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trim teams tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	slotQuery := `DELETE FROM team_slots WHERE lobby_id = $1 AND team_id IN (SELECT id FROM teams WHERE lobby_id = $1 AND number > $2)`
	if _, err := tx.ExecContext(ctx, slotQuery, lobbyID, keep); err != nil {
		return fmt.Errorf("trim team slots: %w", err)
	}

	teamQuery, args, err := qb.DeleteFrom("teams").
		Where(qb.Eq("lobby_id", lobbyID), qb.Expr("number > ?", keep)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build trim teams query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, teamQuery, args...); err != nil {
		return fmt.Errorf("trim teams: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trim teams tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) AssignExclusive(ctx context.Context, lobbyID, teamID string, role lobby.Role, participantID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearSlot, args, err := qb.Update("team_slots").
		Set("participant_id", "").
		Where(qb.Eq("lobby_id", lobbyID), qb.Eq("participant_id", participantID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear seats query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearSlot, args...); err != nil {
		return fmt.Errorf("clear seats: %w", err)
	}

	clearCaptain, args, err := qb.Update("teams").
		Set("captain_participant_id", "").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("lobby_id", lobbyID), qb.Eq("captain_participant_id", participantID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear captaincy query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearCaptain, args...); err != nil {
		return fmt.Errorf("clear captaincy: %w", err)
	}

	seat, args, err := qb.Update("team_slots").
		Set("participant_id", participantID).
		Where(qb.Eq("lobby_id", lobbyID), qb.Eq("team_id", teamID), qb.Eq("role", string(role))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build assign seat query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, seat, args...); err != nil {
		return fmt.Errorf("assign seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) updateTeam(ctx context.Context, teamID, column string, value any) error {
	query, args, err := qb.Update("teams").
		Set(column, value).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team %s query: %w", column, err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update team %s: %w", column, err)
	}
	return nil
}

func (r *TeamRepository) listSlots(ctx context.Context, where qb.Condition) ([]teamSlotTableModel, error) {
	query, args, err := qb.Select("*").From("team_slots").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team slots query: %w", err)
	}

	var rows []teamSlotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list team slots: %w", err)
	}
	return rows, nil
}
