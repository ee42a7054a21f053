package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mygleague/inhouse/internal/domain/faction"
)

// FactionRepository derives membership from the profile repository so both
// views stay consistent in memory mode.
type FactionRepository struct {
	mu       sync.RWMutex
	items    map[int]faction.Faction
	states   map[int]faction.State
	offers   map[string]faction.TransferOffer
	profiles *ProfileRepository
}

func NewFactionRepository(profiles *ProfileRepository) *FactionRepository {
	return &FactionRepository{
		items:    make(map[int]faction.Faction),
		states:   make(map[int]faction.State),
		offers:   make(map[string]faction.TransferOffer),
		profiles: profiles,
	}
}

func (r *FactionRepository) Seed(factions []faction.Faction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range factions {
		r.items[f.ID] = f
	}
}

func (r *FactionRepository) List(_ context.Context) ([]faction.Faction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]faction.Faction, 0, len(r.items))
	for _, f := range r.items {
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *FactionRepository) GetByID(_ context.Context, factionID int) (faction.Faction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.items[factionID]
	if !ok {
		return faction.Faction{}, false, nil
	}
	return f, true, nil
}

func (r *FactionRepository) GetByKey(_ context.Context, key string) (faction.Faction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.items {
		if f.Key == key {
			return f, true, nil
		}
	}
	return faction.Faction{}, false, nil
}

func (r *FactionRepository) GetState(_ context.Context, factionID int) (faction.State, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[factionID]
	if !ok {
		return faction.State{}, false, nil
	}
	return state, true, nil
}

func (r *FactionRepository) SaveState(_ context.Context, s faction.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[s.FactionID] = s
	return nil
}

func (r *FactionRepository) CreateTransferOffer(_ context.Context, o faction.TransferOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.offers[o.ID] = cloneOffer(o)
	return nil
}

func (r *FactionRepository) GetTransferOffer(_ context.Context, offerID string) (faction.TransferOffer, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.offers[offerID]
	if !ok {
		return faction.TransferOffer{}, false, nil
	}
	return cloneOffer(o), true, nil
}

func (r *FactionRepository) SaveTransferOffer(_ context.Context, o faction.TransferOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.offers[o.ID] = cloneOffer(o)
	return nil
}

func cloneOffer(o faction.TransferOffer) faction.TransferOffer {
	if o.DecidedAt != nil {
		decided := *o.DecidedAt
		o.DecidedAt = &decided
	}
	return o
}

func (r *FactionRepository) ListMemberUserIDs(ctx context.Context, factionID int) ([]string, error) {
	if r.profiles == nil {
		return nil, nil
	}
	members, err := r.profiles.ListByFaction(ctx, factionID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(members))
	for _, p := range members {
		out = append(out, p.UserID)
	}
	sort.Strings(out)
	return out, nil
}
