package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/profile"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Upsert(ctx context.Context, p profile.UserProfile) error {
	query, args, err := qb.InsertModel("user_profiles", profileInsertModel(p), `ON CONFLICT (user_id)
DO UPDATE SET
    display_name = EXCLUDED.display_name,
    opgg_url = EXCLUDED.opgg_url,
    title = EXCLUDED.title,
    faction_id = EXCLUDED.faction_id,
    discount_pct = EXCLUDED.discount_pct,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert profile query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (profile.UserProfile, bool, error) {
	query, args, err := qb.Select("*").From("user_profiles").
		Where(qb.Eq("user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return profile.UserProfile{}, false, fmt.Errorf("build get profile query: %w", err)
	}

	var row profileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.UserProfile{}, false, nil
		}
		return profile.UserProfile{}, false, fmt.Errorf("get profile: %w", err)
	}
	return profileFromRow(row), true, nil
}

func (r *ProfileRepository) SetTitle(ctx context.Context, userID, title string) error {
	query, args, err := qb.Update("user_profiles").
		Set("title", title).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set title query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

func (r *ProfileRepository) SetFaction(ctx context.Context, userID string, factionID int) error {
	query, args, err := qb.Update("user_profiles").
		Set("faction_id", factionID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set faction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set faction: %w", err)
	}
	return nil
}

func (r *ProfileRepository) RaiseDiscount(ctx context.Context, userID string, delta int) error {
	query, args, err := qb.Update("user_profiles").
		SetExpr("discount_pct", "LEAST(discount_pct + ?, ?)", delta, profile.MaxDiscountPct).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build raise discount query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("raise discount: %w", err)
	}
	return nil
}

func (r *ProfileRepository) ListByFaction(ctx context.Context, factionID int) ([]profile.UserProfile, error) {
	query, args, err := qb.Select("*").From("user_profiles").
		Where(qb.Eq("faction_id", factionID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list profiles by faction query: %w", err)
	}

	var rows []profileTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list profiles by faction: %w", err)
	}

	out := make([]profile.UserProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, profileFromRow(row))
	}
	return out, nil
}
