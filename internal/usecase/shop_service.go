package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/profile"
	"github.com/mygleague/inhouse/internal/platform/id"
)

const (
	QuotaWindowWeekly  = "weekly"
	QuotaWindowMonthly = "monthly"
)

// ShopItem is one purchasable catalog row. Exactly one of Effect and Stock is
// set: Effect grants a pending one-shot effect, Stock a counted consumable.
type ShopItem struct {
	Key    string
	Name   string
	Price  int
	Effect string
	Stock  string
	Quota  *PurchaseQuota
}

type PurchaseQuota struct {
	Window string
	Limit  int
}

// Catalog is fixed at build time. Prices are in league points.
func Catalog() []ShopItem {
	return []ShopItem{
		{
			Key:    "double_points",
			Name:   "Double Points Token",
			Price:  10,
			Effect: inventory.EffectDoublePoints,
			Quota:  &PurchaseQuota{Window: QuotaWindowWeekly, Limit: 1},
		},
		{
			Key:   "faction_chest",
			Name:  "Faction Chest I",
			Price: 8,
			Stock: inventory.ItemFactionChest,
			Quota: &PurchaseQuota{Window: QuotaWindowWeekly, Limit: 3},
		},
		{
			Key:   "title_common",
			Name:  "Common Title Token",
			Price: 15,
			Stock: inventory.ItemTitleTokenCommon,
			Quota: &PurchaseQuota{Window: QuotaWindowMonthly, Limit: 2},
		},
		{
			Key:   "faction_transfer",
			Name:  "Faction Transfer",
			Price: 150,
			Stock: inventory.ItemFactionTransfer,
			Quota: &PurchaseQuota{Window: QuotaWindowMonthly, Limit: 1},
		},
	}
}

// ShopService sells catalog items against the points ledger. A purchase is a
// negative ledger row plus the granted item; quota limited items also write a
// zero point marker row counted inside the quota window.
type ShopService struct {
	pointsRepo    points.Repository
	inventoryRepo inventory.Repository
	profileRepo   profile.Repository
	idGen         id.Generator
	logger        *slog.Logger
	now           func() time.Time
}

func NewShopService(
	pointsRepo points.Repository,
	inventoryRepo inventory.Repository,
	profileRepo profile.Repository,
	idGen id.Generator,
	logger *slog.Logger,
) *ShopService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShopService{
		pointsRepo:    pointsRepo,
		inventoryRepo: inventoryRepo,
		profileRepo:   profileRepo,
		idGen:         idGen,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ShopService) Balance(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	balance, err := s.pointsRepo.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sum ledger balance: %w", err)
	}
	return balance, nil
}

func (s *ShopService) Inventory(ctx context.Context, userID string) ([]inventory.ConsumableStock, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	stock, err := s.inventoryRepo.ListStock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return stock, nil
}

// Purchase charges the discounted price and grants the item. The charge is
// rejected before any grant when the ledger balance cannot cover it.
func (s *ShopService) Purchase(ctx context.Context, userID, itemKey string) (paid int, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.Purchase")
	defer span.End()

	userID = strings.TrimSpace(userID)
	itemKey = strings.TrimSpace(itemKey)
	if userID == "" || itemKey == "" {
		return 0, fmt.Errorf("%w: user_id and item are required", ErrInvalidInput)
	}

	var item ShopItem
	found := false
	for _, candidate := range Catalog() {
		if candidate.Key == itemKey {
			item = candidate
			found = true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("%w: shop item=%s", ErrNotFound, itemKey)
	}

	now := s.now().UTC()
	if item.Quota != nil {
		since := quotaWindowStart(item.Quota.Window, now)
		bought, err := s.pointsRepo.CountByReasonSince(ctx, userID, points.QuotaMarker(item.Key), since)
		if err != nil {
			return 0, fmt.Errorf("count quota markers: %w", err)
		}
		if bought >= item.Quota.Limit {
			return 0, fmt.Errorf("%w: %s quota of %d per %s window reached",
				ErrCapacityExceeded, item.Key, item.Quota.Limit, item.Quota.Window)
		}
	}

	price := item.Price
	if prof, exists, err := s.profileRepo.GetByUserID(ctx, userID); err != nil {
		return 0, fmt.Errorf("get profile: %w", err)
	} else if exists && prof.DiscountPct > 0 {
		price -= price * prof.DiscountPct / 100
	}

	balance, err := s.pointsRepo.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sum ledger balance: %w", err)
	}
	if balance < price {
		return 0, fmt.Errorf("%w: balance %d cannot cover %d", ErrInsufficientPoints, balance, price)
	}

	entries := make([]points.Entry, 0, 2)
	chargeID, err := s.idGen.NewID()
	if err != nil {
		return 0, fmt.Errorf("generate ledger id: %w", err)
	}
	entries = append(entries, points.Entry{
		ID:        chargeID,
		UserID:    userID,
		Amount:    -price,
		Reason:    points.ReasonShopPurchase,
		CreatedAt: now,
	})
	if item.Quota != nil {
		markerID, err := s.idGen.NewID()
		if err != nil {
			return 0, fmt.Errorf("generate ledger id: %w", err)
		}
		entries = append(entries, points.Entry{
			ID:        markerID,
			UserID:    userID,
			Amount:    0,
			Reason:    points.QuotaMarker(item.Key),
			CreatedAt: now,
		})
	}
	if err := s.pointsRepo.AppendBatch(ctx, entries); err != nil {
		return 0, fmt.Errorf("append purchase entries: %w", err)
	}

	switch {
	case item.Effect != "":
		effectID, err := s.idGen.NewID()
		if err != nil {
			return 0, fmt.Errorf("generate effect id: %w", err)
		}
		if err := s.inventoryRepo.AddPendingEffect(ctx, inventory.PendingEffect{
			ID:        effectID,
			UserID:    userID,
			Kind:      item.Effect,
			CreatedAt: now,
		}); err != nil {
			return 0, fmt.Errorf("grant pending effect: %w", err)
		}
	case item.Stock != "":
		if err := s.inventoryRepo.AddStock(ctx, userID, item.Stock, 1); err != nil {
			return 0, fmt.Errorf("grant stock: %w", err)
		}
	}

	return price, nil
}

// Grant appends an admin adjustment to the ledger and returns the new
// balance. Negative amounts take points away.
func (s *ShopService) Grant(ctx context.Context, userID string, amount int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.Grant")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must not be zero", ErrInvalidInput)
	}

	entryID, err := s.idGen.NewID()
	if err != nil {
		return 0, fmt.Errorf("generate ledger id: %w", err)
	}
	if err := s.pointsRepo.Append(ctx, points.Entry{
		ID:        entryID,
		UserID:    userID,
		Amount:    amount,
		Reason:    points.ReasonAdminGrant,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return 0, fmt.Errorf("append grant entry: %w", err)
	}

	balance, err := s.pointsRepo.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sum ledger balance: %w", err)
	}
	return balance, nil
}

// quotaWindowStart anchors weekly quotas to Monday 00:00 UTC and monthly
// quotas to the first of the month.
func quotaWindowStart(window string, now time.Time) time.Time {
	switch window {
	case QuotaWindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -(weekday - 1))
	}
}
