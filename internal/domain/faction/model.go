package faction

import (
	"fmt"
	"time"
)

const MaxLevel = 30

const (
	MinDonation = 1
	MaxDonation = 20
)

// Keys enumerates the playable factions in display order.
func Keys() []string {
	return []string{"DEMACIA", "NOXUS", "IONIA", "FRELJORD", "PILTOVER", "SHURIMA", "ZAUN"}
}

func ValidKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// levelCosts[i] is the donation total needed to advance from level i+1 to
// level i+2. Level 1 is free; level 30 is terminal.
var levelCosts = [MaxLevel - 1]int{
	80, 82, 83, 85, 87, 88, 90, 92, 93, 95,
	97, 98, 100, 102, 103, 105, 107, 108, 110, 112,
	114, 115, 117, 119, 120, 122, 124, 125, 127,
}

// CostForNextLevel returns the points needed to advance past the given level.
func CostForNextLevel(level int) (int, error) {
	if level < 1 || level >= MaxLevel {
		return 0, fmt.Errorf("no next level cost for level %d", level)
	}
	return levelCosts[level-1], nil
}

func IsMaxLevel(level int) bool {
	return level >= MaxLevel
}

// Faction is one of the fixed playable houses.
type Faction struct {
	ID        int
	Key       string
	Name      string
	CreatedAt time.Time
}

// State is a faction's mutable progression. Progress is the donation total
// accumulated toward the next level and resets on level up. Tickets are a
// shared pool earned on ladder milestones and spent by the faction leader.
type State struct {
	FactionID       int
	Level           int
	Progress        int
	ChampionTickets int
	DuelTickets     int
	UpdatedAt       time.Time
}

// Transfer offer lifecycle. An offer moves the target into the initiator's
// faction once accepted.
const (
	TransferPending  = "PENDING"
	TransferAccepted = "ACCEPTED"
	TransferDeclined = "DECLINED"
	TransferExpired  = "EXPIRED"
)

// TransferOfferTTL is how long the target has to decide.
const TransferOfferTTL = 24 * time.Hour

// TransferOffer is a pending buyout of another faction's member. The
// initiator's transfer consumable is only spent when the target accepts.
type TransferOffer struct {
	ID            string
	FromUserID    string
	TargetUserID  string
	FromFactionID int
	ToFactionID   int
	Status        string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	DecidedAt     *time.Time
}

func (o TransferOffer) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
