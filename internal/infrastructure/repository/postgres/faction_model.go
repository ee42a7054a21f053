package postgres

import (
	"time"

	"github.com/mygleague/inhouse/internal/domain/faction"
)

type factionTableModel struct {
	ID        int       `db:"id"`
	Key       string    `db:"key"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type factionStateTableModel struct {
	FactionID       int       `db:"faction_id"`
	Level           int       `db:"level"`
	Progress        int       `db:"progress"`
	ChampionTickets int       `db:"champion_tickets"`
	DuelTickets     int       `db:"duel_tickets"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type transferOfferTableModel struct {
	ID            string     `db:"id"`
	FromUserID    string     `db:"from_user_id"`
	TargetUserID  string     `db:"target_user_id"`
	FromFactionID int        `db:"from_faction_id"`
	ToFactionID   int        `db:"to_faction_id"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	ExpiresAt     time.Time  `db:"expires_at"`
	DecidedAt     *time.Time `db:"decided_at"`
}

func transferOfferFromRow(row transferOfferTableModel) faction.TransferOffer {
	return faction.TransferOffer{
		ID:            row.ID,
		FromUserID:    row.FromUserID,
		TargetUserID:  row.TargetUserID,
		FromFactionID: row.FromFactionID,
		ToFactionID:   row.ToFactionID,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
		ExpiresAt:     row.ExpiresAt,
		DecidedAt:     row.DecidedAt,
	}
}

func factionFromRow(row factionTableModel) faction.Faction {
	return faction.Faction{
		ID:        row.ID,
		Key:       row.Key,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
}
