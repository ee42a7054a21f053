package postgres

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/match"
)

type matchTableModel struct {
	ID             string    `db:"id"`
	LobbyID        string    `db:"lobby_id"`
	Round          int       `db:"round"`
	BlueTeamID     string    `db:"blue_team_id"`
	RedTeamID      string    `db:"red_team_id"`
	Status         string    `db:"status"`
	RoomID         string    `db:"room_id"`
	BlueURL        string    `db:"blue_url"`
	RedURL         string    `db:"red_url"`
	SpectateURL    string    `db:"spectate_url"`
	StreamURL      string    `db:"stream_url"`
	BoardMessageID string    `db:"board_message_id"`
	WinnerTeamID   string    `db:"winner_team_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type matchResultTableModel struct {
	ID           string    `db:"id"`
	LobbyID      string    `db:"lobby_id"`
	MatchID      string    `db:"match_id"`
	WinnerTeamID string    `db:"winner_team_id"`
	CreatedAt    time.Time `db:"created_at"`
}

type mvpVoteTableModel struct {
	ID          string    `db:"id"`
	LobbyID     string    `db:"lobby_id"`
	MatchID     string    `db:"match_id"`
	TeamID      string    `db:"team_id"`
	VoterUserID string    `db:"voter_user_id"`
	VotedUserID string    `db:"voted_user_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:             row.ID,
		LobbyID:        row.LobbyID,
		Round:          row.Round,
		BlueTeamID:     row.BlueTeamID,
		RedTeamID:      row.RedTeamID,
		Status:         match.Status(row.Status),
		RoomID:         row.RoomID,
		BlueURL:        row.BlueURL,
		RedURL:         row.RedURL,
		SpectateURL:    row.SpectateURL,
		StreamURL:      row.StreamURL,
		BoardMessageID: row.BoardMessageID,
		WinnerTeamID:   row.WinnerTeamID,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
