package inventory

import (
	"time"
)

// Pending effect kinds. A pending effect sits in a user's inventory until a
// later operation consumes it.
const (
	EffectDoublePoints = "DOUBLE_POINTS_TOKEN"
)

// Consumable stock item kinds granted by faction level rewards and shop
// purchases.
const (
	ItemFactionChest     = "FACTION_CHEST_I"
	ItemTitleTokenCommon = "TITLE_TOKEN_COMMON"
	ItemTitleTokenRare   = "TITLE_TOKEN_RARE"
	ItemTitleTokenEpic   = "TITLE_TOKEN_EPIC"
	ItemFactionTransfer  = "FACTION_TRANSFER"
)

// PendingEffect is an unconsumed one-shot effect owned by a user.
type PendingEffect struct {
	ID         string
	UserID     string
	Kind       string
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// ConsumableStock is a counted item stack in a user's inventory.
type ConsumableStock struct {
	UserID    string
	Item      string
	Count     int
	UpdatedAt time.Time
}
