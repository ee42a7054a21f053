package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/profile"
)

// ProfileService maintains user profiles and title redemption.
type ProfileService struct {
	profileRepo   profile.Repository
	inventoryRepo inventory.Repository
	logger        *slog.Logger
	now           func() time.Time
}

func NewProfileService(profileRepo profile.Repository, inventoryRepo inventory.Repository, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		profileRepo:   profileRepo,
		inventoryRepo: inventoryRepo,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ProfileService) Upsert(ctx context.Context, userID, displayName, opggURL string) (profile.UserProfile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.Upsert")
	defer span.End()

	userID = strings.TrimSpace(userID)
	displayName = strings.TrimSpace(displayName)
	opggURL = strings.TrimSpace(opggURL)

	existing, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return profile.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}

	now := s.now().UTC()
	item := existing
	if !exists {
		item = profile.UserProfile{UserID: userID, CreatedAt: now}
	}
	if displayName != "" {
		item.DisplayName = displayName
	}
	if opggURL != "" {
		item.OpggURL = opggURL
	}
	item.UpdatedAt = now

	if err := item.Validate(); err != nil {
		return profile.UserProfile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.profileRepo.Upsert(ctx, item); err != nil {
		return profile.UserProfile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return item, nil
}

// RedeemTitle spends one title token from the user's inventory to set a
// custom profile title.
func (s *ProfileService) RedeemTitle(ctx context.Context, userID, tokenItem, title string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileService.RedeemTitle")
	defer span.End()

	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	if userID == "" || title == "" {
		return fmt.Errorf("%w: user_id and title are required", ErrInvalidInput)
	}
	switch tokenItem {
	case inventory.ItemTitleTokenCommon, inventory.ItemTitleTokenRare, inventory.ItemTitleTokenEpic:
	default:
		return fmt.Errorf("%w: %q is not a title token", ErrInvalidInput, tokenItem)
	}

	stock, exists, err := s.inventoryRepo.GetStock(ctx, userID, tokenItem)
	if err != nil {
		return fmt.Errorf("get stock: %w", err)
	}
	if !exists || stock.Count < 1 {
		return fmt.Errorf("%w: user %s holds no %s", ErrConflict, userID, tokenItem)
	}

	if err := s.inventoryRepo.AddStock(ctx, userID, tokenItem, -1); err != nil {
		return fmt.Errorf("spend title token: %w", err)
	}
	if err := s.profileRepo.SetTitle(ctx, userID, title); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}
