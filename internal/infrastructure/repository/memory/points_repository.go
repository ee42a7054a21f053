package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mygleague/inhouse/internal/domain/points"
)

type PointsRepository struct {
	mu      sync.RWMutex
	entries []points.Entry
}

func NewPointsRepository() *PointsRepository {
	return &PointsRepository{}
}

func (r *PointsRepository) Append(_ context.Context, e points.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
	return nil
}

func (r *PointsRepository) AppendBatch(_ context.Context, entries []points.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entries...)
	return nil
}

func (r *PointsRepository) Balance(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, e := range r.entries {
		if e.UserID == userID {
			total += e.Amount
		}
	}
	return total, nil
}

func (r *PointsRepository) Leaderboard(_ context.Context, limit int) ([]points.LeaderboardRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := make(map[string]int)
	for _, e := range r.entries {
		totals[e.UserID] += e.Amount
	}

	out := make([]points.LeaderboardRow, 0, len(totals))
	for userID, total := range totals {
		out = append(out, points.LeaderboardRow{UserID: userID, Total: total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *PointsRepository) CountByReasonSince(_ context.Context, userID, reason string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.entries {
		if e.UserID == userID && e.Reason == reason && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *PointsRepository) ExistsReason(_ context.Context, reason string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.Reason == reason {
			return true, nil
		}
	}
	return false, nil
}

func (r *PointsRepository) ListByUser(_ context.Context, userID string, limit int) ([]points.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]points.Entry, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *PointsRepository) ListByLobby(_ context.Context, lobbyID string) ([]points.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]points.Entry, 0)
	for _, e := range r.entries {
		if e.LobbyID == lobbyID {
			out = append(out, e)
		}
	}
	return out, nil
}
