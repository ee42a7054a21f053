package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	items map[string]team.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{items: make(map[string]team.Team)}
}

func (r *TeamRepository) CreateBatch(_ context.Context, teams []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range teams {
		r.items[t.ID] = cloneTeam(t)
	}
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}
	return cloneTeam(t), true, nil
}

func (r *TeamRepository) ListByLobby(_ context.Context, lobbyID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0)
	for _, t := range r.items {
		if t.LobbyID == lobbyID {
			out = append(out, cloneTeam(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (r *TeamRepository) Rename(_ context.Context, teamID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[teamID]
	if !ok {
		return nil
	}
	t.Name = name
	t.UpdatedAt = time.Now().UTC()
	r.items[teamID] = t
	return nil
}

func (r *TeamRepository) SetCaptain(_ context.Context, teamID, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[teamID]
	if !ok {
		return nil
	}
	t.CaptainID = participantID
	t.UpdatedAt = time.Now().UTC()
	r.items[teamID] = t
	return nil
}

func (r *TeamRepository) SetChannels(_ context.Context, teamID, categoryID, textChannelID, voiceChannelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[teamID]
	if !ok {
		return nil
	}
	t.CategoryID = categoryID
	t.TextChannelID = textChannelID
	t.VoiceChannelID = voiceChannelID
	t.UpdatedAt = time.Now().UTC()
	r.items[teamID] = t
	return nil
}

func (r *TeamRepository) DeleteAboveNumber(_ context.Context, lobbyID string, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.items {
		if t.LobbyID == lobbyID && t.Number > keep {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *TeamRepository) AssignExclusive(_ context.Context, lobbyID, teamID string, role lobby.Role, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for id, t := range r.items {
		if t.LobbyID != lobbyID {
			continue
		}
		changed := false
		for slotRole, occupant := range t.Slots {
			if occupant == participantID {
				t.Slots = cloneSlots(t.Slots)
				t.Slots[slotRole] = ""
				changed = true
			}
		}
		if t.CaptainID == participantID {
			t.CaptainID = ""
			changed = true
		}
		if changed {
			t.UpdatedAt = now
			r.items[id] = t
		}
	}

	t, ok := r.items[teamID]
	if !ok || t.LobbyID != lobbyID {
		return nil
	}
	t.Slots = cloneSlots(t.Slots)
	t.Slots[role] = participantID
	t.UpdatedAt = now
	r.items[teamID] = t
	return nil
}

func cloneTeam(t team.Team) team.Team {
	copied := t
	copied.Slots = cloneSlots(t.Slots)
	return copied
}

func cloneSlots(slots map[lobby.Role]string) map[lobby.Role]string {
	out := make(map[lobby.Role]string, len(slots))
	for role, id := range slots {
		out[role] = id
	}
	return out
}
