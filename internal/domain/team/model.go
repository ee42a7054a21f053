package team

import (
	"fmt"
	"time"

	"github.com/mygleague/inhouse/internal/domain/lobby"
)

const (
	MinNameLength = 3
	MaxNameLength = 40
)

// Team is one of a lobby's fixed team slots. Slots maps each core role to the
// assigned participant id, or "" when the seat is open. CaptainID, when set,
// must reference a participant currently occupying one of the slots.
type Team struct {
	ID        string
	LobbyID   string
	Number    int
	Name      string
	CaptainID string
	Slots     map[lobby.Role]string

	CategoryID     string
	TextChannelID  string
	VoiceChannelID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(lobbyID, id string, number int) Team {
	return Team{
		ID:      id,
		LobbyID: lobbyID,
		Number:  number,
		Name:    fmt.Sprintf("Team %d", number),
		Slots:   EmptySlots(),
	}
}

func EmptySlots() map[lobby.Role]string {
	slots := make(map[lobby.Role]string, len(lobby.CoreRoles()))
	for _, r := range lobby.CoreRoles() {
		slots[r] = ""
	}
	return slots
}

// Complete reports whether every core role seat is filled.
func (t Team) Complete() bool {
	for _, r := range lobby.CoreRoles() {
		if t.Slots[r] == "" {
			return false
		}
	}
	return true
}

// Holds reports whether the participant occupies any of the team's seats.
func (t Team) Holds(participantID string) bool {
	if participantID == "" {
		return false
	}
	for _, id := range t.Slots {
		if id == participantID {
			return true
		}
	}
	return false
}

func ValidateName(name string) error {
	if len(name) < MinNameLength || len(name) > MaxNameLength {
		return fmt.Errorf("team name must be %d-%d characters, got %d", MinNameLength, MaxNameLength, len(name))
	}
	return nil
}
