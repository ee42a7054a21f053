package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mygleague/inhouse/internal/domain/lobby"
)

type LobbyRepository struct {
	mu           sync.RWMutex
	items        map[string]lobby.Lobby
	participants map[string][]lobby.Participant
}

func NewLobbyRepository() *LobbyRepository {
	return &LobbyRepository{
		items:        make(map[string]lobby.Lobby),
		participants: make(map[string][]lobby.Participant),
	}
}

func (r *LobbyRepository) Create(_ context.Context, item lobby.Lobby) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = cloneLobby(item)
	return nil
}

func (r *LobbyRepository) GetByID(_ context.Context, lobbyID string) (lobby.Lobby, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[lobbyID]
	if !ok {
		return lobby.Lobby{}, false, nil
	}
	return cloneLobby(item), true, nil
}

func (r *LobbyRepository) UpdateStatus(_ context.Context, lobbyID string, status lobby.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[lobbyID]
	if !ok {
		return nil
	}
	item.Status = status
	item.UpdatedAt = time.Now().UTC()
	r.items[lobbyID] = item
	return nil
}

func (r *LobbyRepository) SetFormat(_ context.Context, lobbyID, format string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[lobbyID]
	if !ok {
		return nil
	}
	item.Format = format
	item.UpdatedAt = time.Now().UTC()
	r.items[lobbyID] = item
	return nil
}

func (r *LobbyRepository) ListRecent(_ context.Context, limit int) ([]lobby.Lobby, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lobby.Lobby, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneLobby(item))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *LobbyRepository) MarkResultsPanelPosted(_ context.Context, lobbyID string, at time.Time) (bool, error) {
	return r.markOnce(lobbyID, at, func(item *lobby.Lobby) **time.Time {
		return &item.ResultsPanelPostedAt
	})
}

func (r *LobbyRepository) MarkSettled(_ context.Context, lobbyID string, at time.Time) (bool, error) {
	return r.markOnce(lobbyID, at, func(item *lobby.Lobby) **time.Time {
		return &item.SettledAt
	})
}

func (r *LobbyRepository) MarkMvpLocked(_ context.Context, lobbyID string, at time.Time) (bool, error) {
	return r.markOnce(lobbyID, at, func(item *lobby.Lobby) **time.Time {
		return &item.MvpLockedAt
	})
}

func (r *LobbyRepository) markOnce(lobbyID string, at time.Time, field func(*lobby.Lobby) **time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[lobbyID]
	if !ok {
		return false, nil
	}
	slot := field(&item)
	if *slot != nil {
		return false, nil
	}
	stamped := at
	*slot = &stamped
	item.UpdatedAt = at
	r.items[lobbyID] = item
	return true, nil
}

func (r *LobbyRepository) ClearSettled(_ context.Context, lobbyID string) error {
	return r.clearMark(lobbyID, func(item *lobby.Lobby) **time.Time {
		return &item.SettledAt
	})
}

func (r *LobbyRepository) ClearMvpLocked(_ context.Context, lobbyID string) error {
	return r.clearMark(lobbyID, func(item *lobby.Lobby) **time.Time {
		return &item.MvpLockedAt
	})
}

func (r *LobbyRepository) clearMark(lobbyID string, field func(*lobby.Lobby) **time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[lobbyID]
	if !ok {
		return nil
	}
	*field(&item) = nil
	r.items[lobbyID] = item
	return nil
}

func (r *LobbyRepository) AddParticipant(_ context.Context, p lobby.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.participants[p.LobbyID] = append(r.participants[p.LobbyID], p)
	return nil
}

func (r *LobbyRepository) RemoveParticipant(_ context.Context, lobbyID, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.participants[lobbyID][:0]
	for _, p := range r.participants[lobbyID] {
		if p.ID != participantID {
			kept = append(kept, p)
		}
	}
	r.participants[lobbyID] = kept
	return nil
}

func (r *LobbyRepository) RemoveParticipantsByUser(_ context.Context, lobbyID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.participants[lobbyID][:0]
	for _, p := range r.participants[lobbyID] {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	r.participants[lobbyID] = kept
	return nil
}

func (r *LobbyRepository) GetParticipantByUser(_ context.Context, lobbyID, userID string) (lobby.Participant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.participants[lobbyID] {
		if p.UserID == userID && userID != "" {
			return p, true, nil
		}
	}
	return lobby.Participant{}, false, nil
}

func (r *LobbyRepository) ListParticipants(_ context.Context, lobbyID string) ([]lobby.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lobby.Participant, len(r.participants[lobbyID]))
	copy(out, r.participants[lobbyID])
	return out, nil
}

func (r *LobbyRepository) CountByRole(_ context.Context, lobbyID string, role lobby.Role) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, p := range r.participants[lobbyID] {
		if p.Role == role {
			count++
		}
	}
	return count, nil
}

func cloneLobby(item lobby.Lobby) lobby.Lobby {
	copied := item
	copied.ResultsPanelPostedAt = cloneTime(item.ResultsPanelPostedAt)
	copied.SettledAt = cloneTime(item.SettledAt)
	copied.MvpLockedAt = cloneTime(item.MvpLockedAt)
	return copied
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
