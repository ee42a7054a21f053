package lobby

import (
	"context"
	"time"
)

// Repository describes lobby and participant persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, l Lobby) error
	GetByID(ctx context.Context, lobbyID string) (Lobby, bool, error)
	UpdateStatus(ctx context.Context, lobbyID string, status Status) error
	SetFormat(ctx context.Context, lobbyID, format string) error
	ListRecent(ctx context.Context, limit int) ([]Lobby, error)

	// MarkResultsPanelPosted, MarkSettled and MarkMvpLocked are
	// compare-and-swap markers: they set the timestamp only when it is
	// still unset and report whether this call won the swap.
	MarkResultsPanelPosted(ctx context.Context, lobbyID string, at time.Time) (bool, error)
	MarkSettled(ctx context.Context, lobbyID string, at time.Time) (bool, error)
	MarkMvpLocked(ctx context.Context, lobbyID string, at time.Time) (bool, error)

	// ClearSettled and ClearMvpLocked release a won marker so the caller
	// can retry after its side effects failed to commit.
	ClearSettled(ctx context.Context, lobbyID string) error
	ClearMvpLocked(ctx context.Context, lobbyID string) error

	AddParticipant(ctx context.Context, p Participant) error
	RemoveParticipant(ctx context.Context, lobbyID, participantID string) error
	RemoveParticipantsByUser(ctx context.Context, lobbyID, userID string) error
	GetParticipantByUser(ctx context.Context, lobbyID, userID string) (Participant, bool, error)
	ListParticipants(ctx context.Context, lobbyID string) ([]Participant, error)
	CountByRole(ctx context.Context, lobbyID string, role Role) (int, error)
}
