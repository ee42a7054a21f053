package usecase

import (
	"errors"
	"testing"

	"github.com/mygleague/inhouse/internal/domain/inventory"
)

func TestProfileService_Upsert_MergesFields(t *testing.T) {
	f := newLeagueFixture(t)

	first, err := f.profiles.Upsert(t.Context(), "u1", "Faker", "")
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if first.DisplayName != "Faker" || first.OpggURL != "" {
		t.Fatalf("unexpected profile: %+v", first)
	}

	second, err := f.profiles.Upsert(t.Context(), "u1", "", "https://op.gg/summoners/euw/Faker")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.DisplayName != "Faker" {
		t.Fatalf("expected display name to survive a partial update, got %q", second.DisplayName)
	}
	if second.OpggURL != "https://op.gg/summoners/euw/Faker" {
		t.Fatalf("unexpected op.gg url: %q", second.OpggURL)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected creation time to be stable")
	}
}

func TestProfileService_Upsert_RejectsPlainHTTPOpgg(t *testing.T) {
	f := newLeagueFixture(t)

	_, err := f.profiles.Upsert(t.Context(), "u1", "Faker", "http://op.gg/summoners/euw/Faker")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProfileService_RedeemTitle(t *testing.T) {
	f := newLeagueFixture(t)
	if _, err := f.profiles.Upsert(t.Context(), "u1", "Faker", ""); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := f.profiles.RedeemTitle(t.Context(), "u1", inventory.ItemFactionChest, "Shotcaller"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected non-token item to be invalid, got %v", err)
	}
	if err := f.profiles.RedeemTitle(t.Context(), "u1", inventory.ItemTitleTokenCommon, "Shotcaller"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected empty stock to conflict, got %v", err)
	}

	if err := f.inventoryRepo.AddStock(t.Context(), "u1", inventory.ItemTitleTokenCommon, 1); err != nil {
		t.Fatalf("seed stock failed: %v", err)
	}
	if err := f.profiles.RedeemTitle(t.Context(), "u1", inventory.ItemTitleTokenCommon, "Shotcaller"); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	prof, exists, err := f.profileRepo.GetByUserID(t.Context(), "u1")
	if err != nil || !exists {
		t.Fatalf("expected profile after redemption: exists=%v err=%v", exists, err)
	}
	if prof.Title != "Shotcaller" {
		t.Fatalf("expected title set, got %q", prof.Title)
	}

	stock, exists, err := f.inventoryRepo.GetStock(t.Context(), "u1", inventory.ItemTitleTokenCommon)
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if exists && stock.Count != 0 {
		t.Fatalf("expected the token to be spent, got %d left", stock.Count)
	}
}
