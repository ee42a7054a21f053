package battle

import (
	"context"
)

// Repository describes battle royale persistence needs from use cases.
type Repository interface {
	CreateBatch(ctx context.Context, matches []Match) error
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ListByLobby(ctx context.Context, lobbyID string) ([]Match, error)
	ListByRound(ctx context.Context, lobbyID string, round int) ([]Match, error)
	MarkRunning(ctx context.Context, matchID, voiceChannelID string) error
	Finish(ctx context.Context, matchID, winnerUserID string) error
}
