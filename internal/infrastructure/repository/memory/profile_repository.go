package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mygleague/inhouse/internal/domain/profile"
)

type ProfileRepository struct {
	mu    sync.RWMutex
	items map[string]profile.UserProfile
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{items: make(map[string]profile.UserProfile)}
}

func (r *ProfileRepository) Upsert(_ context.Context, p profile.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.UserID] = cloneProfile(p)
	return nil
}

func (r *ProfileRepository) GetByUserID(_ context.Context, userID string) (profile.UserProfile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[userID]
	if !ok {
		return profile.UserProfile{}, false, nil
	}
	return cloneProfile(p), true, nil
}

func (r *ProfileRepository) SetTitle(_ context.Context, userID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[userID]
	if !ok {
		return nil
	}
	p.Title = title
	p.UpdatedAt = time.Now().UTC()
	r.items[userID] = p
	return nil
}

func (r *ProfileRepository) SetFaction(_ context.Context, userID string, factionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[userID]
	if !ok {
		return nil
	}
	p.FactionID = &factionID
	p.UpdatedAt = time.Now().UTC()
	r.items[userID] = p
	return nil
}

func (r *ProfileRepository) RaiseDiscount(_ context.Context, userID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[userID]
	if !ok {
		return nil
	}
	p.DiscountPct += delta
	if p.DiscountPct > profile.MaxDiscountPct {
		p.DiscountPct = profile.MaxDiscountPct
	}
	p.UpdatedAt = time.Now().UTC()
	r.items[userID] = p
	return nil
}

func (r *ProfileRepository) ListByFaction(_ context.Context, factionID int) ([]profile.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profile.UserProfile, 0)
	for _, p := range r.items {
		if p.FactionID != nil && *p.FactionID == factionID {
			out = append(out, cloneProfile(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func cloneProfile(p profile.UserProfile) profile.UserProfile {
	copied := p
	if p.FactionID != nil {
		factionID := *p.FactionID
		copied.FactionID = &factionID
	}
	return copied
}
