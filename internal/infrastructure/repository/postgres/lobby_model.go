package postgres

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/lobby"
)

type lobbyTableModel struct {
	ID                   string     `db:"id"`
	GuildID              string     `db:"guild_id"`
	ChannelID            string     `db:"channel_id"`
	Name                 string     `db:"name"`
	Mode                 string     `db:"mode"`
	TeamCount            int        `db:"team_count"`
	Status               string     `db:"status"`
	Format               string     `db:"format"`
	CreatedBy            string     `db:"created_by"`
	ResultsPanelPostedAt *time.Time `db:"results_panel_posted_at"`
	SettledAt            *time.Time `db:"settled_at"`
	MvpLockedAt          *time.Time `db:"mvp_locked_at"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

type lobbyInsertModel struct {
	ID        string    `db:"id"`
	GuildID   string    `db:"guild_id"`
	ChannelID string    `db:"channel_id"`
	Name      string    `db:"name"`
	Mode      string    `db:"mode"`
	TeamCount int       `db:"team_count"`
	Status    string    `db:"status"`
	Format    string    `db:"format"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type participantTableModel struct {
	ID        string    `db:"id"`
	LobbyID   string    `db:"lobby_id"`
	UserID    string    `db:"user_id"`
	Display   string    `db:"display"`
	Role      string    `db:"role"`
	IsFake    bool      `db:"is_fake"`
	CreatedAt time.Time `db:"created_at"`
}

func lobbyFromRow(row lobbyTableModel) lobby.Lobby {
	return lobby.Lobby{
		ID:                   row.ID,
		GuildID:              row.GuildID,
		ChannelID:            row.ChannelID,
		Name:                 row.Name,
		Mode:                 lobby.Mode(row.Mode),
		TeamCount:            row.TeamCount,
		Status:               lobby.Status(row.Status),
		Format:               row.Format,
		CreatedBy:            row.CreatedBy,
		ResultsPanelPostedAt: row.ResultsPanelPostedAt,
		SettledAt:            row.SettledAt,
		MvpLockedAt:          row.MvpLockedAt,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func participantFromRow(row participantTableModel) lobby.Participant {
	return lobby.Participant{
		ID:        row.ID,
		LobbyID:   row.LobbyID,
		UserID:    row.UserID,
		Display:   row.Display,
		Role:      lobby.Role(row.Role),
		IsFake:    row.IsFake,
		CreatedAt: row.CreatedAt,
	}
}
