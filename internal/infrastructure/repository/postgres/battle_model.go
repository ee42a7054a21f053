package postgres

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/battle"
)

type battleMatchTableModel struct {
	ID             string    `db:"id"`
	LobbyID        string    `db:"lobby_id"`
	Round          int       `db:"round"`
	UserA          string    `db:"user_a"`
	UserB          string    `db:"user_b"`
	WinnerUserID   string    `db:"winner_user_id"`
	Status         string    `db:"status"`
	VoiceChannelID string    `db:"voice_channel_id"`
	BestOf         int       `db:"best_of"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func battleMatchFromRow(row battleMatchTableModel) battle.Match {
	return battle.Match{
		ID:             row.ID,
		LobbyID:        row.LobbyID,
		Round:          row.Round,
		UserA:          row.UserA,
		UserB:          row.UserB,
		WinnerUserID:   row.WinnerUserID,
		Status:         battle.Status(row.Status),
		VoiceChannelID: row.VoiceChannelID,
		BestOf:         row.BestOf,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
