package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/profile"
	inventorymock "github.com/mygleague/inhouse/internal/mocks/domain/inventory"
	profilemock "github.com/mygleague/inhouse/internal/mocks/domain/profile"
	"github.com/stretchr/testify/mock"
)

func TestProfileService_RedeemTitle_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profileRepo := profilemock.NewRepository(t)
	inventoryRepo := inventorymock.NewRepository(t)

	service := NewProfileService(profileRepo, inventoryRepo, nil)
	userID := "user-1"

	inventoryRepo.
		On("GetStock", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID, inventory.ItemTitleTokenRare).
		Return(inventory.ConsumableStock{UserID: userID, Item: inventory.ItemTitleTokenRare, Count: 2}, true, nil).
		Once()
	inventoryRepo.
		On("AddStock", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID, inventory.ItemTitleTokenRare, -1).
		Return(nil).
		Once()
	profileRepo.
		On("SetTitle", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID, "Rift Tyrant").
		Return(nil).
		Once()

	if err := service.RedeemTitle(ctx, userID, inventory.ItemTitleTokenRare, "Rift Tyrant"); err != nil {
		t.Fatalf("redeem title: %v", err)
	}
}

func TestProfileService_RedeemTitle_NoTokenUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profileRepo := profilemock.NewRepository(t)
	inventoryRepo := inventorymock.NewRepository(t)

	service := NewProfileService(profileRepo, inventoryRepo, nil)
	userID := "user-2"

	inventoryRepo.
		On("GetStock", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID, inventory.ItemTitleTokenCommon).
		Return(inventory.ConsumableStock{}, false, nil).
		Once()

	err := service.RedeemTitle(ctx, userID, inventory.ItemTitleTokenCommon, "Peasant King")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestProfileService_Upsert_CreatesProfileUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profileRepo := profilemock.NewRepository(t)
	inventoryRepo := inventorymock.NewRepository(t)

	service := NewProfileService(profileRepo, inventoryRepo, nil)
	userID := "user-3"

	profileRepo.
		On("GetByUserID", mock.MatchedBy(func(v context.Context) bool { return v != nil }), userID).
		Return(profile.UserProfile{}, false, nil).
		Once()
	profileRepo.
		On("Upsert", mock.MatchedBy(func(v context.Context) bool { return v != nil }), mock.MatchedBy(func(p profile.UserProfile) bool {
			return p.UserID == userID && p.DisplayName == "Faker" && !p.CreatedAt.IsZero()
		})).
		Return(nil).
		Once()

	got, err := service.Upsert(ctx, userID, "Faker", "https://op.gg/summoners/kr/faker")
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	if got.DisplayName != "Faker" {
		t.Fatalf("unexpected display name: got=%s", got.DisplayName)
	}
	if got.UpdatedAt.After(time.Now().UTC().Add(time.Minute)) {
		t.Fatalf("updated_at in the future: %v", got.UpdatedAt)
	}
}
