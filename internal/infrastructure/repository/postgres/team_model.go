package postgres

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/team"
)

type teamTableModel struct {
	ID             string    `db:"id"`
	LobbyID        string    `db:"lobby_id"`
	Number         int       `db:"number"`
	Name           string    `db:"name"`
	CaptainID      string    `db:"captain_participant_id"`
	CategoryID     string    `db:"category_id"`
	TextChannelID  string    `db:"text_channel_id"`
	VoiceChannelID string    `db:"voice_channel_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type teamSlotTableModel struct {
	TeamID        string `db:"team_id"`
	LobbyID       string `db:"lobby_id"`
	Role          string `db:"role"`
	ParticipantID string `db:"participant_id"`
}

func teamFromRow(row teamTableModel, slots []teamSlotTableModel) team.Team {
	t := team.Team{
		ID:             row.ID,
		LobbyID:        row.LobbyID,
		Number:         row.Number,
		Name:           row.Name,
		CaptainID:      row.CaptainID,
		Slots:          team.EmptySlots(),
		CategoryID:     row.CategoryID,
		TextChannelID:  row.TextChannelID,
		VoiceChannelID: row.VoiceChannelID,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	for _, s := range slots {
		if s.TeamID == row.ID {
			t.Slots[lobby.Role(s.Role)] = s.ParticipantID
		}
	}
	return t
}
