package postgres

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/points"
)

type pointsEntryTableModel struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Amount    int       `db:"amount"`
	Reason    string    `db:"reason"`
	LobbyID   string    `db:"lobby_id"`
	CreatedAt time.Time `db:"created_at"`
}

func pointsEntryFromRow(row pointsEntryTableModel) points.Entry {
	return points.Entry{
		ID:        row.ID,
		UserID:    row.UserID,
		Amount:    row.Amount,
		Reason:    row.Reason,
		LobbyID:   row.LobbyID,
		CreatedAt: row.CreatedAt,
	}
}
