package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mygleague/inhouse/internal/domain/battle"
)

type BattleRepository struct {
	mu    sync.RWMutex
	items map[string]battle.Match
	order []string
}

func NewBattleRepository() *BattleRepository {
	return &BattleRepository{items: make(map[string]battle.Match)}
}

func (r *BattleRepository) CreateBatch(_ context.Context, matches []battle.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range matches {
		r.items[m.ID] = m
		r.order = append(r.order, m.ID)
	}
	return nil
}

func (r *BattleRepository) GetByID(_ context.Context, matchID string) (battle.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchID]
	if !ok {
		return battle.Match{}, false, nil
	}
	return m, true, nil
}

func (r *BattleRepository) ListByLobby(_ context.Context, lobbyID string) ([]battle.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]battle.Match, 0)
	for _, id := range r.order {
		if m, ok := r.items[id]; ok && m.LobbyID == lobbyID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *BattleRepository) ListByRound(_ context.Context, lobbyID string, round int) ([]battle.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]battle.Match, 0)
	for _, id := range r.order {
		if m, ok := r.items[id]; ok && m.LobbyID == lobbyID && m.Round == round {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *BattleRepository) MarkRunning(_ context.Context, matchID, voiceChannelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return nil
	}
	m.Status = battle.StatusRunning
	m.VoiceChannelID = voiceChannelID
	m.UpdatedAt = time.Now().UTC()
	r.items[matchID] = m
	return nil
}

func (r *BattleRepository) Finish(_ context.Context, matchID, winnerUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return nil
	}
	m.Status = battle.StatusFinished
	m.WinnerUserID = winnerUserID
	m.UpdatedAt = time.Now().UTC()
	r.items[matchID] = m
	return nil
}
