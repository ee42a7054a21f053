package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mygleague/inhouse/internal/domain/match"
)

type MatchRepository struct {
	mu      sync.RWMutex
	items   map[string]match.Match
	order   []string
	results map[string]match.Result
	votes   map[string]match.MvpVote
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items:   make(map[string]match.Match),
		results: make(map[string]match.Result),
		votes:   make(map[string]match.MvpVote),
	}
}

func (r *MatchRepository) CreateBatch(_ context.Context, matches []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range matches {
		r.items[m.ID] = m
		r.order = append(r.order, m.ID)
	}
	return nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return m, true, nil
}

func (r *MatchRepository) ListByLobby(_ context.Context, lobbyID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.order {
		if m, ok := r.items[id]; ok && m.LobbyID == lobbyID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Round < out[j].Round
	})
	return out, nil
}

func (r *MatchRepository) ListPending(_ context.Context, lobbyID string, round int) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.order {
		m, ok := r.items[id]
		if ok && m.LobbyID == lobbyID && m.Round == round && m.Status == match.StatusPending {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MatchRepository) CountRunning(_ context.Context, lobbyID string, round int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, m := range r.items {
		if m.LobbyID == lobbyID && m.Round == round && m.Status == match.StatusRunning {
			count++
		}
	}
	return count, nil
}

func (r *MatchRepository) MarkRunning(_ context.Context, matchID, roomID, blueURL, redURL, spectateURL, streamURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return nil
	}
	m.Status = match.StatusRunning
	m.RoomID = roomID
	m.BlueURL = blueURL
	m.RedURL = redURL
	m.SpectateURL = spectateURL
	m.StreamURL = streamURL
	m.UpdatedAt = time.Now().UTC()
	r.items[matchID] = m
	return nil
}

func (r *MatchRepository) Finish(_ context.Context, matchID, winnerTeamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return nil
	}
	m.Status = match.StatusFinished
	m.WinnerTeamID = winnerTeamID
	m.UpdatedAt = time.Now().UTC()
	r.items[matchID] = m
	return nil
}

func (r *MatchRepository) SetBoardMessage(_ context.Context, matchID, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return false, nil
	}
	if m.BoardMessageID != "" {
		return false, nil
	}
	m.BoardMessageID = messageID
	m.UpdatedAt = time.Now().UTC()
	r.items[matchID] = m
	return true, nil
}

func (r *MatchRepository) ClearBoardMessage(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return nil
	}
	m.BoardMessageID = ""
	m.UpdatedAt = time.Now().UTC()
	r.items[matchID] = m
	return nil
}

func (r *MatchRepository) SaveResult(_ context.Context, result match.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.results[result.MatchID]; exists {
		return nil
	}
	r.results[result.MatchID] = result
	return nil
}

func (r *MatchRepository) ListResults(_ context.Context, lobbyID string) ([]match.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Result, 0)
	for _, result := range r.results {
		if result.LobbyID == lobbyID {
			out = append(out, result)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MatchRepository) UpsertMvpVote(_ context.Context, v match.MvpVote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := v.MatchID + "::" + v.TeamID + "::" + v.VoterUserID
	if existing, ok := r.votes[key]; ok {
		v.ID = existing.ID
		v.CreatedAt = existing.CreatedAt
	}
	r.votes[key] = v
	return nil
}

func (r *MatchRepository) ListMvpVotes(_ context.Context, lobbyID string) ([]match.MvpVote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.MvpVote, 0)
	for _, v := range r.votes {
		if v.LobbyID == lobbyID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MatchRepository) ListLive(_ context.Context, limit int) ([]match.Match, error) {
	return r.listByStatus(match.StatusRunning, limit)
}

func (r *MatchRepository) ListRecentFinished(_ context.Context, limit int) ([]match.Match, error) {
	return r.listByStatus(match.StatusFinished, limit)
}

func (r *MatchRepository) listByStatus(status match.Status, limit int) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, m := range r.items {
		if m.Status == status {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
