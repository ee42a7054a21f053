package profile

import (
	"fmt"
	"strings"
	"time"
)

// UserProfile is the per-user record backing the dashboard and the faction
// allegiance. FactionID is nil until the user pledges.
type UserProfile struct {
	UserID      string
	DisplayName string
	OpggURL     string
	Title       string
	FactionID   *int
	// DiscountPct is the user's shop discount in whole percent, raised by
	// faction level rewards and capped at MaxDiscountPct.
	DiscountPct int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const MaxDiscountPct = 15

func (p UserProfile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("profile user id is required")
	}
	if p.OpggURL != "" && !strings.HasPrefix(p.OpggURL, "https://") {
		return fmt.Errorf("profile op.gg url must be https")
	}
	if p.DiscountPct < 0 || p.DiscountPct > MaxDiscountPct {
		return fmt.Errorf("profile discount must be 0-%d, got %d", MaxDiscountPct, p.DiscountPct)
	}
	return nil
}
