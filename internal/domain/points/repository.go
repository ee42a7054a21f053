package points

import (
	"context"
	"time"
)

// Repository describes points ledger persistence needs from use cases.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	// AppendBatch writes all entries or none of them.
	AppendBatch(ctx context.Context, entries []Entry) error
	Balance(ctx context.Context, userID string) (int, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
	// CountByReasonSince counts a user's entries with the exact reason at
	// or after the cutoff. Used for purchase quota windows.
	CountByReasonSince(ctx context.Context, userID, reason string, since time.Time) (int, error)
	// ExistsReason reports whether any entry with the exact reason exists,
	// regardless of user. Used for settlement markers.
	ExistsReason(ctx context.Context, reason string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
	ListByLobby(ctx context.Context, lobbyID string) ([]Entry, error)
}
