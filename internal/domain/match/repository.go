package match

import (
	"context"
)

// Repository describes match, result and MVP vote persistence needs from use
// cases.
type Repository interface {
	CreateBatch(ctx context.Context, matches []Match) error
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	// ListByLobby returns matches ordered by round, then creation order.
	ListByLobby(ctx context.Context, lobbyID string) ([]Match, error)
	ListPending(ctx context.Context, lobbyID string, round int) ([]Match, error)
	CountRunning(ctx context.Context, lobbyID string, round int) (int, error)

	MarkRunning(ctx context.Context, matchID, roomID, blueURL, redURL, spectateURL, streamURL string) error
	// Finish is terminal. An empty winner id records a skipped match.
	Finish(ctx context.Context, matchID, winnerTeamID string) error

	// SetBoardMessage records the board card id only when none is set and
	// reports whether this call won the swap.
	SetBoardMessage(ctx context.Context, matchID, messageID string) (bool, error)
	ClearBoardMessage(ctx context.Context, matchID string) error

	// SaveResult is duplicate-tolerant: a second result for the same match
	// is a no-op.
	SaveResult(ctx context.Context, r Result) error
	ListResults(ctx context.Context, lobbyID string) ([]Result, error)

	UpsertMvpVote(ctx context.Context, v MvpVote) error
	// ListMvpVotes returns a lobby's votes ordered by creation time.
	ListMvpVotes(ctx context.Context, lobbyID string) ([]MvpVote, error)

	ListLive(ctx context.Context, limit int) ([]Match, error)
	ListRecentFinished(ctx context.Context, limit int) ([]Match, error)
}
