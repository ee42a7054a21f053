package postgres

import (
	"database/sql"
	"time"

	"github.com/mygleague/inhouse/internal/domain/profile"
)

type profileTableModel struct {
	UserID      string        `db:"user_id"`
	DisplayName string        `db:"display_name"`
	OpggURL     string        `db:"opgg_url"`
	Title       string        `db:"title"`
	FactionID   sql.NullInt64 `db:"faction_id"`
	DiscountPct int           `db:"discount_pct"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

func profileFromRow(row profileTableModel) profile.UserProfile {
	p := profile.UserProfile{
		UserID:      row.UserID,
		DisplayName: row.DisplayName,
		OpggURL:     row.OpggURL,
		Title:       row.Title,
		DiscountPct: row.DiscountPct,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.FactionID.Valid {
		id := int(row.FactionID.Int64)
		p.FactionID = &id
	}
	return p
}

func profileInsertModel(p profile.UserProfile) profileTableModel {
	row := profileTableModel{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		OpggURL:     p.OpggURL,
		Title:       p.Title,
		DiscountPct: p.DiscountPct,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
	if p.FactionID != nil {
		row.FactionID = sql.NullInt64{Int64: int64(*p.FactionID), Valid: true}
	}
	return row
}
