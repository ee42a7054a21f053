package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mygleague/inhouse/internal/domain/faction"
	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/profile"
	"github.com/mygleague/inhouse/internal/platform/id"
)

// FactionOverview is one faction's public progression row.
type FactionOverview struct {
	Faction  faction.Faction
	Level    int
	Progress int
	// NextCost is zero at max level.
	NextCost int
	Members  int
}

// FactionService runs the server-wide faction meta game: pledges, donations
// and the level reward ladder.
type FactionService struct {
	factionRepo   faction.Repository
	profileRepo   profile.Repository
	pointsRepo    points.Repository
	inventoryRepo inventory.Repository
	idGen         id.Generator
	logger        *slog.Logger
	now           func() time.Time
}

func NewFactionService(
	factionRepo faction.Repository,
	profileRepo profile.Repository,
	pointsRepo points.Repository,
	inventoryRepo inventory.Repository,
	idGen id.Generator,
	logger *slog.Logger,
) *FactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FactionService{
		factionRepo:   factionRepo,
		profileRepo:   profileRepo,
		pointsRepo:    pointsRepo,
		inventoryRepo: inventoryRepo,
		idGen:         idGen,
		logger:        logger,
		now:           time.Now,
	}
}

// Pledge binds the user to a faction. Allegiance is permanent: switching
// factions is rejected.
func (s *FactionService) Pledge(ctx context.Context, userID, factionKey string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FactionService.Pledge")
	defer span.End()

	userID = strings.TrimSpace(userID)
	factionKey = strings.ToUpper(strings.TrimSpace(factionKey))
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if !faction.ValidKey(factionKey) {
		return fmt.Errorf("%w: unknown faction %q", ErrInvalidInput, factionKey)
	}

	f, exists, err := s.factionRepo.GetByKey(ctx, factionKey)
	if err != nil {
		return fmt.Errorf("get faction by key: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: faction=%s", ErrNotFound, factionKey)
	}

	prof, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if exists && prof.FactionID != nil {
		return fmt.Errorf("%w: user %s already pledged a faction", ErrConflict, userID)
	}
	if !exists {
		now := s.now().UTC()
		if err := s.profileRepo.Upsert(ctx, profile.UserProfile{
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
	}

	if err := s.profileRepo.SetFaction(ctx, userID, f.ID); err != nil {
		return fmt.Errorf("set profile faction: %w", err)
	}
	return nil
}

// Donate spends the user's points on faction progression. Donations are
// capped per call, limited to one per UTC day and rejected once the faction
// is at max level.
func (s *FactionService) Donate(ctx context.Context, userID string, amount int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FactionService.Donate")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if amount < faction.MinDonation || amount > faction.MaxDonation {
		return fmt.Errorf("%w: donation must be %d-%d points", ErrInvalidInput, faction.MinDonation, faction.MaxDonation)
	}

	f, state, err := s.requirePledgedFaction(ctx, userID)
	if err != nil {
		return err
	}
	if faction.IsMaxLevel(state.Level) {
		return fmt.Errorf("%w: %s is already at max level", ErrConflict, f.Name)
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	donated, err := s.pointsRepo.CountByReasonSince(ctx, userID, points.ReasonFactionDonation, dayStart)
	if err != nil {
		return fmt.Errorf("count donations today: %w", err)
	}
	if donated >= 1 {
		return fmt.Errorf("%w: one donation per day", ErrCapacityExceeded)
	}

	balance, err := s.pointsRepo.Balance(ctx, userID)
	if err != nil {
		return fmt.Errorf("sum ledger balance: %w", err)
	}
	if balance < amount {
		return fmt.Errorf("%w: balance %d cannot cover donation of %d", ErrInsufficientPoints, balance, amount)
	}

	entryID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate ledger id: %w", err)
	}
	if err := s.pointsRepo.Append(ctx, points.Entry{
		ID:        entryID,
		UserID:    userID,
		Amount:    -amount,
		Reason:    points.ReasonFactionDonation,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("append donation entry: %w", err)
	}

	return s.progress(ctx, f, state, amount)
}

// ApplyContribution feeds settled match points into the contributor's
// faction. Users without a pledge contribute nothing.
func (s *FactionService) ApplyContribution(ctx context.Context, userID string, amount int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FactionService.ApplyContribution")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" || amount <= 0 {
		return nil
	}

	prof, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if !exists || prof.FactionID == nil {
		return nil
	}

	f, exists, err := s.factionRepo.GetByID(ctx, *prof.FactionID)
	if err != nil {
		return fmt.Errorf("get faction by id: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: faction=%d", ErrNotFound, *prof.FactionID)
	}

	state, err := s.stateOf(ctx, f)
	if err != nil {
		return err
	}
	if faction.IsMaxLevel(state.Level) {
		return nil
	}

	return s.progress(ctx, f, state, amount)
}

func (s *FactionService) Overview(ctx context.Context) ([]FactionOverview, error) {
	factions, err := s.factionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list factions: %w", err)
	}

	out := make([]FactionOverview, 0, len(factions))
	for _, f := range factions {
		state, err := s.stateOf(ctx, f)
		if err != nil {
			return nil, err
		}
		members, err := s.factionRepo.ListMemberUserIDs(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("list faction members: %w", err)
		}
		nextCost := 0
		if !faction.IsMaxLevel(state.Level) {
			nextCost, _ = faction.CostForNextLevel(state.Level)
		}
		out = append(out, FactionOverview{
			Faction:  f,
			Level:    state.Level,
			Progress: state.Progress,
			NextCost: nextCost,
			Members:  len(members),
		})
	}
	return out, nil
}

// ProposeTransfer opens a buyout offer that would move the target into the
// initiator's faction. The initiator must hold a transfer consumable, but it
// is only spent when the target accepts.
func (s *FactionService) ProposeTransfer(ctx context.Context, fromUserID, targetUserID string) (faction.TransferOffer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FactionService.ProposeTransfer")
	defer span.End()

	fromUserID = strings.TrimSpace(fromUserID)
	targetUserID = strings.TrimSpace(targetUserID)
	if fromUserID == "" || targetUserID == "" {
		return faction.TransferOffer{}, fmt.Errorf("%w: user_id and target_user_id are required", ErrInvalidInput)
	}
	if fromUserID == targetUserID {
		return faction.TransferOffer{}, fmt.Errorf("%w: cannot transfer yourself", ErrInvalidInput)
	}

	fromFaction, _, err := s.requirePledgedFaction(ctx, fromUserID)
	if err != nil {
		return faction.TransferOffer{}, err
	}
	targetFaction, _, err := s.requirePledgedFaction(ctx, targetUserID)
	if err != nil {
		return faction.TransferOffer{}, err
	}
	if fromFaction.ID == targetFaction.ID {
		return faction.TransferOffer{}, fmt.Errorf("%w: both users already serve %s", ErrConflict, fromFaction.Name)
	}

	stock, exists, err := s.inventoryRepo.GetStock(ctx, fromUserID, inventory.ItemFactionTransfer)
	if err != nil {
		return faction.TransferOffer{}, fmt.Errorf("get transfer stock: %w", err)
	}
	if !exists || stock.Count <= 0 {
		return faction.TransferOffer{}, fmt.Errorf("%w: user %s holds no faction transfer", ErrConflict, fromUserID)
	}

	offerID, err := s.idGen.NewID()
	if err != nil {
		return faction.TransferOffer{}, fmt.Errorf("generate offer id: %w", err)
	}
	now := s.now().UTC()
	offer := faction.TransferOffer{
		ID:            offerID,
		FromUserID:    fromUserID,
		TargetUserID:  targetUserID,
		FromFactionID: targetFaction.ID,
		ToFactionID:   fromFaction.ID,
		Status:        faction.TransferPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(faction.TransferOfferTTL),
	}
	if err := s.factionRepo.CreateTransferOffer(ctx, offer); err != nil {
		return faction.TransferOffer{}, fmt.Errorf("create transfer offer: %w", err)
	}
	return offer, nil
}

// AcceptTransfer resolves a pending offer: the initiator's consumable is
// spent and the target changes allegiance. Only the targeted user can accept.
func (s *FactionService) AcceptTransfer(ctx context.Context, offerID, actorUserID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FactionService.AcceptTransfer")
	defer span.End()

	offer, err := s.requirePendingOffer(ctx, offerID, actorUserID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if offer.Expired(now) {
		offer.Status = faction.TransferExpired
		offer.DecidedAt = &now
		if err := s.factionRepo.SaveTransferOffer(ctx, offer); err != nil {
			return fmt.Errorf("save transfer offer: %w", err)
		}
		return fmt.Errorf("%w: offer %s expired", ErrConflict, offer.ID)
	}

	stock, exists, err := s.inventoryRepo.GetStock(ctx, offer.FromUserID, inventory.ItemFactionTransfer)
	if err != nil {
		return fmt.Errorf("get transfer stock: %w", err)
	}
	if !exists || stock.Count <= 0 {
		return fmt.Errorf("%w: initiator no longer holds a faction transfer", ErrConflict)
	}
	if err := s.inventoryRepo.AddStock(ctx, offer.FromUserID, inventory.ItemFactionTransfer, -1); err != nil {
		return fmt.Errorf("spend faction transfer: %w", err)
	}
	if err := s.profileRepo.SetFaction(ctx, offer.TargetUserID, offer.ToFactionID); err != nil {
		return fmt.Errorf("set profile faction: %w", err)
	}

	offer.Status = faction.TransferAccepted
	offer.DecidedAt = &now
	if err := s.factionRepo.SaveTransferOffer(ctx, offer); err != nil {
		return fmt.Errorf("save transfer offer: %w", err)
	}
	return nil
}

// DeclineTransfer marks a pending offer declined without spending anything.
func (s *FactionService) DeclineTransfer(ctx context.Context, offerID, actorUserID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FactionService.DeclineTransfer")
	defer span.End()

	offer, err := s.requirePendingOffer(ctx, offerID, actorUserID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	offer.Status = faction.TransferDeclined
	offer.DecidedAt = &now
	if err := s.factionRepo.SaveTransferOffer(ctx, offer); err != nil {
		return fmt.Errorf("save transfer offer: %w", err)
	}
	return nil
}

func (s *FactionService) requirePendingOffer(ctx context.Context, offerID, actorUserID string) (faction.TransferOffer, error) {
	offerID = strings.TrimSpace(offerID)
	actorUserID = strings.TrimSpace(actorUserID)
	if offerID == "" || actorUserID == "" {
		return faction.TransferOffer{}, fmt.Errorf("%w: offer_id and user_id are required", ErrInvalidInput)
	}

	offer, exists, err := s.factionRepo.GetTransferOffer(ctx, offerID)
	if err != nil {
		return faction.TransferOffer{}, fmt.Errorf("get transfer offer: %w", err)
	}
	if !exists {
		return faction.TransferOffer{}, fmt.Errorf("%w: offer=%s", ErrNotFound, offerID)
	}
	if offer.TargetUserID != actorUserID {
		return faction.TransferOffer{}, fmt.Errorf("%w: only the targeted user can decide", ErrUnauthorized)
	}
	if offer.Status != faction.TransferPending {
		return faction.TransferOffer{}, fmt.Errorf("%w: offer %s is already %s", ErrConflict, offer.ID, offer.Status)
	}
	return offer, nil
}

// Ticket kinds spendable from the shared faction pool.
const (
	TicketChampion = "champion"
	TicketDuel     = "duel"
)

// SpendTicket burns one ticket from the faction pool. Only the faction
// leader, the member with the highest ledger total, can spend.
func (s *FactionService) SpendTicket(ctx context.Context, userID, ticket string) (remaining int, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FactionService.SpendTicket")
	defer span.End()

	userID = strings.TrimSpace(userID)
	ticket = strings.ToLower(strings.TrimSpace(ticket))
	if userID == "" {
		return 0, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if ticket != TicketChampion && ticket != TicketDuel {
		return 0, fmt.Errorf("%w: unknown ticket %q", ErrInvalidInput, ticket)
	}

	f, state, err := s.requirePledgedFaction(ctx, userID)
	if err != nil {
		return 0, err
	}

	leader, err := s.leaderOf(ctx, f)
	if err != nil {
		return 0, err
	}
	if leader != userID {
		return 0, fmt.Errorf("%w: only the faction leader can spend tickets", ErrUnauthorized)
	}

	switch ticket {
	case TicketChampion:
		if state.ChampionTickets <= 0 {
			return 0, fmt.Errorf("%w: %s has no champion tickets", ErrConflict, f.Name)
		}
		state.ChampionTickets--
		remaining = state.ChampionTickets
	case TicketDuel:
		if state.DuelTickets <= 0 {
			return 0, fmt.Errorf("%w: %s has no duel tickets", ErrConflict, f.Name)
		}
		state.DuelTickets--
		remaining = state.DuelTickets
	}

	state.UpdatedAt = s.now().UTC()
	if err := s.factionRepo.SaveState(ctx, state); err != nil {
		return 0, fmt.Errorf("save faction state: %w", err)
	}
	return remaining, nil
}

// leaderOf resolves the member with the highest ledger total. Ties fall to
// the lexically first user id.
func (s *FactionService) leaderOf(ctx context.Context, f faction.Faction) (string, error) {
	members, err := s.factionRepo.ListMemberUserIDs(ctx, f.ID)
	if err != nil {
		return "", fmt.Errorf("list faction members: %w", err)
	}

	leader := ""
	best := 0
	for _, userID := range members {
		total, err := s.pointsRepo.Balance(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("sum ledger balance: %w", err)
		}
		if leader == "" || total > best {
			leader = userID
			best = total
		}
	}
	return leader, nil
}

// progress accumulates donated points and walks the level ladder, applying
// each reached level's reward before the state is saved.
func (s *FactionService) progress(ctx context.Context, f faction.Faction, state faction.State, amount int) error {
	state.Progress += amount
	for !faction.IsMaxLevel(state.Level) {
		cost, err := faction.CostForNextLevel(state.Level)
		if err != nil {
			return fmt.Errorf("resolve level cost: %w", err)
		}
		if state.Progress < cost {
			break
		}
		state.Progress -= cost
		state.Level++
		if err := s.applyLevelReward(ctx, f, &state); err != nil {
			return err
		}
	}
	if faction.IsMaxLevel(state.Level) {
		state.Progress = 0
	}

	state.UpdatedAt = s.now().UTC()
	if err := s.factionRepo.SaveState(ctx, state); err != nil {
		return fmt.Errorf("save faction state: %w", err)
	}
	return nil
}

// applyLevelReward grants the ladder reward for the level just reached.
// Chests and title tokens land in each member's inventory, discounts on each
// member's profile; tickets accrue on the shared faction state.
func (s *FactionService) applyLevelReward(ctx context.Context, f faction.Faction, state *faction.State) error {
	members, err := s.factionRepo.ListMemberUserIDs(ctx, f.ID)
	if err != nil {
		return fmt.Errorf("list faction members: %w", err)
	}

	grantStock := func(item string, count int) error {
		for _, userID := range members {
			if err := s.inventoryRepo.AddStock(ctx, userID, item, count); err != nil {
				return fmt.Errorf("grant %s to member %s: %w", item, userID, err)
			}
		}
		return nil
	}
	raiseDiscount := func() error {
		for _, userID := range members {
			if err := s.profileRepo.RaiseDiscount(ctx, userID, 1); err != nil {
				return fmt.Errorf("raise discount for member %s: %w", userID, err)
			}
		}
		return nil
	}

	switch level := state.Level; {
	case level <= 3:
		return grantStock(inventory.ItemFactionChest, 1)
	case level <= 5:
		return raiseDiscount()
	case level <= 9:
		return grantStock(inventory.ItemFactionChest, 1)
	case level == 10:
		state.ChampionTickets++
		return nil
	case level <= 13:
		return raiseDiscount()
	case level == 14:
		return grantStock(inventory.ItemTitleTokenRare, 1)
	case level == 15:
		state.DuelTickets++
		return nil
	case level <= 19:
		return grantStock(inventory.ItemFactionChest, 2)
	case level == 20:
		state.ChampionTickets++
		return nil
	case level <= 22:
		return grantStock(inventory.ItemFactionChest, 2)
	case level == 23:
		return raiseDiscount()
	case level == 24:
		return grantStock(inventory.ItemTitleTokenEpic, 1)
	case level == 25:
		state.DuelTickets++
		return nil
	case level == 26:
		return grantStock(inventory.ItemTitleTokenEpic, 1)
	case level <= 28:
		return raiseDiscount()
	case level == 29:
		return grantStock(inventory.ItemFactionChest, 3)
	default:
		state.ChampionTickets++
		return nil
	}
}

func (s *FactionService) requirePledgedFaction(ctx context.Context, userID string) (faction.Faction, faction.State, error) {
	prof, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return faction.Faction{}, faction.State{}, fmt.Errorf("get profile: %w", err)
	}
	if !exists || prof.FactionID == nil {
		return faction.Faction{}, faction.State{}, fmt.Errorf("%w: user %s has not pledged a faction", ErrConflict, userID)
	}

	f, exists, err := s.factionRepo.GetByID(ctx, *prof.FactionID)
	if err != nil {
		return faction.Faction{}, faction.State{}, fmt.Errorf("get faction by id: %w", err)
	}
	if !exists {
		return faction.Faction{}, faction.State{}, fmt.Errorf("%w: faction=%d", ErrNotFound, *prof.FactionID)
	}

	state, err := s.stateOf(ctx, f)
	if err != nil {
		return faction.Faction{}, faction.State{}, err
	}
	return f, state, nil
}

func (s *FactionService) stateOf(ctx context.Context, f faction.Faction) (faction.State, error) {
	state, exists, err := s.factionRepo.GetState(ctx, f.ID)
	if err != nil {
		return faction.State{}, fmt.Errorf("get faction state: %w", err)
	}
	if !exists {
		state = faction.State{FactionID: f.ID, Level: 1}
	}
	return state, nil
}
