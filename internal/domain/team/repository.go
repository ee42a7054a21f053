package team

import (
	"context"

	"github.com/mygleague/inhouse/internal/domain/lobby"
)

// Repository describes team persistence needs from use cases.
type Repository interface {
	CreateBatch(ctx context.Context, teams []Team) error
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	ListByLobby(ctx context.Context, lobbyID string) ([]Team, error)
	Rename(ctx context.Context, teamID, name string) error
	SetCaptain(ctx context.Context, teamID, participantID string) error
	SetChannels(ctx context.Context, teamID, categoryID, textChannelID, voiceChannelID string) error
	// DeleteAboveNumber drops surplus teams (and their assignments) when a
	// lobby's team count shrinks.
	DeleteAboveNumber(ctx context.Context, lobbyID string, keep int) error

	// AssignExclusive atomically places the participant into the target
	// seat: it clears the participant from any other seat in the lobby
	// (and any captaincy it backed) before writing the new assignment.
	// The previous occupant of the target seat is displaced back into the
	// unassigned pool, which is derived rather than stored.
	AssignExclusive(ctx context.Context, lobbyID, teamID string, role lobby.Role, participantID string) error
}
