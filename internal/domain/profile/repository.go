package profile

import (
	"context"
)

// Repository describes user profile persistence needs from use cases.
type Repository interface {
	Upsert(ctx context.Context, p UserProfile) error
	GetByUserID(ctx context.Context, userID string) (UserProfile, bool, error)
	SetTitle(ctx context.Context, userID, title string) error
	SetFaction(ctx context.Context, userID string, factionID int) error
	// RaiseDiscount bumps the user's discount by delta percent, clamped at
	// MaxDiscountPct.
	RaiseDiscount(ctx context.Context, userID string, delta int) error
	ListByFaction(ctx context.Context, factionID int) ([]UserProfile, error)
}
