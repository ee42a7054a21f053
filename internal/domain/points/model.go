package points

import (
	"time"
)

// Ledger entry reasons. Marker reasons carry zero points and exist only so
// repeated settlement attempts can detect prior work.
const (
	ReasonMatchWin        = "match_win"
	ReasonMatchLoss       = "match_loss"
	ReasonShopPurchase    = "shop_purchase"
	ReasonFactionDonation = "faction_donation"
	ReasonRecount         = "recount_adjustment"
	ReasonAdminGrant      = "admin_grant"
	ReasonBattleChampion  = "battle_royale_champion"
)

// MvpRankReason names the credit reason for the nth MVP placement (1-based).
func MvpRankReason(rank int) string {
	switch rank {
	case 1:
		return "mvp_rank_1"
	case 2:
		return "mvp_rank_2"
	case 3:
		return "mvp_rank_3"
	}
	return "mvp_rank_other"
}

// DoublePointsMarker is the zero-point marker reason recorded when a lobby's
// settlement consumed a double points token.
func DoublePointsMarker(lobbyID string) string {
	return "double_points_applied:" + lobbyID
}

// QuotaMarker is the zero-point marker reason recorded when a quota-limited
// shop item is purchased.
func QuotaMarker(quota string) string {
	return "[QUOTA:" + quota + "]"
}

// Entry is one immutable row of the points ledger. Balances are always sums
// over entries, never stored.
type Entry struct {
	ID        string
	UserID    string
	Amount    int
	Reason    string
	LobbyID   string
	CreatedAt time.Time
}

// LeaderboardRow is a user's aggregate standing.
type LeaderboardRow struct {
	UserID  string
	Display string
	Total   int
}
