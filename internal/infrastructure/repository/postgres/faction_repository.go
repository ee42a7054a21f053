package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mygleague/inhouse/internal/domain/faction"
	qb "github.com/mygleague/inhouse/internal/platform/querybuilder"
)

type FactionRepository struct {
	db *sqlx.DB
}

func NewFactionRepository(db *sqlx.DB) *FactionRepository {
	return &FactionRepository{db: db}
}

func (r *FactionRepository) List(ctx context.Context) ([]faction.Faction, error) {
	query, args, err := qb.Select("*").From("factions").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list factions query: %w", err)
	}

	var rows []factionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list factions: %w", err)
	}

	out := make([]faction.Faction, 0, len(rows))
	for _, row := range rows {
		out = append(out, factionFromRow(row))
	}
	return out, nil
}

func (r *FactionRepository) GetByID(ctx context.Context, factionID int) (faction.Faction, bool, error) {
	return r.getFaction(ctx, qb.Eq("id", factionID))
}

func (r *FactionRepository) GetByKey(ctx context.Context, key string) (faction.Faction, bool, error) {
	return r.getFaction(ctx, qb.Eq("key", key))
}

func (r *FactionRepository) getFaction(ctx context.Context, where qb.Condition) (faction.Faction, bool, error) {
	query, args, err := qb.Select("*").From("factions").
		Where(where).
		Limit(1).
		ToSQL()
	if err != nil {
		return faction.Faction{}, false, fmt.Errorf("build get faction query: %w", err)
	}

	var row factionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return faction.Faction{}, false, nil
		}
		return faction.Faction{}, false, fmt.Errorf("get faction: %w", err)
	}
	return factionFromRow(row), true, nil
}

func (r *FactionRepository) GetState(ctx context.Context, factionID int) (faction.State, bool, error) {
	query, args, err := qb.Select("*").From("faction_states").
		Where(qb.Eq("faction_id", factionID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return faction.State{}, false, fmt.Errorf("build get faction state query: %w", err)
	}

	var row factionStateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return faction.State{}, false, nil
		}
		return faction.State{}, false, fmt.Errorf("get faction state: %w", err)
	}
	return faction.State{
		FactionID:       row.FactionID,
		Level:           row.Level,
		Progress:        row.Progress,
		ChampionTickets: row.ChampionTickets,
		DuelTickets:     row.DuelTickets,
		UpdatedAt:       row.UpdatedAt,
	}, true, nil
}

func (r *FactionRepository) SaveState(ctx context.Context, s faction.State) error {
	model := factionStateTableModel{
		FactionID:       s.FactionID,
		Level:           s.Level,
		Progress:        s.Progress,
		ChampionTickets: s.ChampionTickets,
		DuelTickets:     s.DuelTickets,
		UpdatedAt:       s.UpdatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("faction_states", model, `ON CONFLICT (faction_id)
DO UPDATE SET
    level = EXCLUDED.level,
    progress = EXCLUDED.progress,
    champion_tickets = EXCLUDED.champion_tickets,
    duel_tickets = EXCLUDED.duel_tickets,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build save faction state query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save faction state: %w", err)
	}
	return nil
}

func (r *FactionRepository) CreateTransferOffer(ctx context.Context, o faction.TransferOffer) error {
	model := transferOfferTableModel{
		ID:            o.ID,
		FromUserID:    o.FromUserID,
		TargetUserID:  o.TargetUserID,
		FromFactionID: o.FromFactionID,
		ToFactionID:   o.ToFactionID,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt.UTC(),
		ExpiresAt:     o.ExpiresAt.UTC(),
		DecidedAt:     o.DecidedAt,
	}

	query, args, err := qb.InsertModel("faction_transfer_offers", model, "")
	if err != nil {
		return fmt.Errorf("build insert transfer offer query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert transfer offer: %w", err)
	}
	return nil
}

func (r *FactionRepository) GetTransferOffer(ctx context.Context, offerID string) (faction.TransferOffer, bool, error) {
	query, args, err := qb.Select("*").From("faction_transfer_offers").
		Where(qb.Eq("id", offerID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return faction.TransferOffer{}, false, fmt.Errorf("build get transfer offer query: %w", err)
	}

	var row transferOfferTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return faction.TransferOffer{}, false, nil
		}
		return faction.TransferOffer{}, false, fmt.Errorf("get transfer offer: %w", err)
	}
	return transferOfferFromRow(row), true, nil
}

func (r *FactionRepository) SaveTransferOffer(ctx context.Context, o faction.TransferOffer) error {
	builder := qb.Update("faction_transfer_offers").
		Set("status", o.Status).
		Where(qb.Eq("id", o.ID))
	if o.DecidedAt != nil {
		builder = builder.Set("decided_at", o.DecidedAt.UTC())
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build save transfer offer query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save transfer offer: %w", err)
	}
	return nil
}

func (r *FactionRepository) ListMemberUserIDs(ctx context.Context, factionID int) ([]string, error) {
	query, args, err := qb.Select("user_id").From("user_profiles").
		Where(qb.Eq("faction_id", factionID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list faction members query: %w", err)
	}

	var userIDs []string
	if err := r.db.SelectContext(ctx, &userIDs, query, args...); err != nil {
		return nil, fmt.Errorf("list faction members: %w", err)
	}
	return userIDs, nil
}
