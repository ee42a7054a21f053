package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	chatmem "github.com/mygleague/inhouse/internal/infrastructure/chat/memory"
	"github.com/mygleague/inhouse/internal/infrastructure/repository/memory"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/team"
)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n), nil
}

var fixtureNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

const organizerRoleID = "role-respo"

// leagueFixture wires every service against the memory infrastructure, the
// way cmd/api does in memory mode.
type leagueFixture struct {
	lobbyRepo     *memory.LobbyRepository
	teamRepo      *memory.TeamRepository
	matchRepo     *memory.MatchRepository
	pointsRepo    *memory.PointsRepository
	inventoryRepo *memory.InventoryRepository
	profileRepo   *memory.ProfileRepository
	factionRepo   *memory.FactionRepository
	battleRepo    *memory.BattleRepository
	gateway       *chatmem.Gateway
	idGen         *seqIDGenerator

	registration *RegistrationService
	builder      *BuilderService
	series       *SeriesService
	settlement   *SettlementService
	shop         *ShopService
	factions     *FactionService
	battle       *BattleService
	profiles     *ProfileService
	recount      *RecountService
	dashboard    *DashboardService
}

func newLeagueFixture(t *testing.T) *leagueFixture {
	t.Helper()

	f := &leagueFixture{
		lobbyRepo:     memory.NewLobbyRepository(),
		teamRepo:      memory.NewTeamRepository(),
		matchRepo:     memory.NewMatchRepository(),
		pointsRepo:    memory.NewPointsRepository(),
		inventoryRepo: memory.NewInventoryRepository(),
		profileRepo:   memory.NewProfileRepository(),
		battleRepo:    memory.NewBattleRepository(),
		gateway:       chatmem.NewGateway(),
		idGen:         &seqIDGenerator{},
	}
	f.factionRepo = memory.NewFactionRepository(f.profileRepo)
	memory.SeedFactions(f.factionRepo)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixedNow := func() time.Time { return fixtureNow }

	f.registration = NewRegistrationService(f.lobbyRepo, f.gateway, f.idGen, organizerRoleID, logger)
	f.registration.now = fixedNow

	f.builder = NewBuilderService(f.lobbyRepo, f.teamRepo, f.matchRepo, f.gateway, f.idGen, organizerRoleID, logger)
	f.builder.now = fixedNow

	f.series = NewSeriesService(f.lobbyRepo, f.teamRepo, f.matchRepo, f.gateway, "", organizerRoleID, logger)
	f.series.now = fixedNow
	f.series.coin = func() bool { return false }
	f.builder.SetRoundStarter(f.series)

	f.settlement = NewSettlementService(
		f.lobbyRepo, f.teamRepo, f.matchRepo, f.pointsRepo, f.inventoryRepo,
		f.gateway, f.idGen, organizerRoleID, logger,
	)
	f.settlement.now = fixedNow

	f.shop = NewShopService(f.pointsRepo, f.inventoryRepo, f.profileRepo, f.idGen, logger)
	f.shop.now = fixedNow

	f.factions = NewFactionService(f.factionRepo, f.profileRepo, f.pointsRepo, f.inventoryRepo, f.idGen, logger)
	f.factions.now = fixedNow
	f.settlement.SetContributionApplier(f.factions)

	f.battle = NewBattleService(f.lobbyRepo, f.battleRepo, f.pointsRepo, f.gateway, f.idGen, organizerRoleID, logger)
	f.battle.now = fixedNow

	f.profiles = NewProfileService(f.profileRepo, f.inventoryRepo, logger)
	f.profiles.now = fixedNow

	f.recount = NewRecountService(f.lobbyRepo, f.teamRepo, f.matchRepo, f.pointsRepo, f.idGen, logger)
	f.recount.now = fixedNow

	f.dashboard = NewDashboardService(f.lobbyRepo, f.matchRepo, f.pointsRepo, f.profileRepo, nil)

	return f
}

// createWaitingLobby opens a standard two-team lobby created by "organizer".
func (f *leagueFixture) createWaitingLobby(t *testing.T, teamCount int) lobby.Lobby {
	t.Helper()
	item, err := f.registration.CreateLobby(t.Context(), CreateLobbyInput{
		GuildID:   "guild-1",
		ChannelID: "chan-lobby",
		Name:      "Monday Inhouse",
		Mode:      lobby.ModeNormal,
		TeamCount: teamCount,
		CreatedBy: "organizer",
	})
	if err != nil {
		t.Fatalf("create lobby failed: %v", err)
	}
	return item
}

// fillLobby registers teamCount users per core role, named "<role>-<n>".
func (f *leagueFixture) fillLobby(t *testing.T, item lobby.Lobby) {
	t.Helper()
	for _, role := range lobby.CoreRoles() {
		for n := 1; n <= item.TeamCount; n++ {
			userID := fmt.Sprintf("%s-%d", role, n)
			joined, err := f.registration.Join(t.Context(), JoinLobbyInput{
				LobbyID: item.ID,
				UserID:  userID,
				Display: userID,
				Role:    role,
			})
			if err != nil {
				t.Fatalf("join %s failed: %v", userID, err)
			}
			if !joined {
				t.Fatalf("expected %s to join", userID)
			}
		}
	}
}

// buildTeams freezes the lobby, seats every participant and returns the teams
// ordered by number. Participant "<role>-<n>" lands on team n.
func (f *leagueFixture) buildTeams(t *testing.T, item lobby.Lobby) []team.Team {
	t.Helper()
	ctx := t.Context()

	if err := f.registration.Freeze(ctx, item.ID, "organizer"); err != nil {
		t.Fatalf("freeze lobby failed: %v", err)
	}
	teams, err := f.builder.EnsureTeams(ctx, item.ID)
	if err != nil {
		t.Fatalf("ensure teams failed: %v", err)
	}
	if len(teams) != item.TeamCount {
		t.Fatalf("expected %d teams, got %d", item.TeamCount, len(teams))
	}

	_, participants, err := f.registration.GetLobby(ctx, item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	byUser := make(map[string]lobby.Participant, len(participants))
	for _, p := range participants {
		byUser[p.UserID] = p
	}

	for _, role := range lobby.CoreRoles() {
		for n := 1; n <= item.TeamCount; n++ {
			p, ok := byUser[fmt.Sprintf("%s-%d", role, n)]
			if !ok {
				t.Fatalf("participant %s-%d not registered", role, n)
			}
			if err := f.builder.AssignPlayer(ctx, AssignPlayerInput{
				LobbyID:       item.ID,
				ActorID:       "organizer",
				TeamID:        teams[n-1].ID,
				Role:          role,
				ParticipantID: p.ID,
			}); err != nil {
				t.Fatalf("assign %s to team %d failed: %v", p.UserID, n, err)
			}
		}
	}

	teams, err = f.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		t.Fatalf("list teams failed: %v", err)
	}
	return teams
}

// startSeries picks the format and validates the teams, which schedules the
// matches and starts round one.
func (f *leagueFixture) startSeries(t *testing.T, item lobby.Lobby, format string) []team.Team {
	t.Helper()
	f.buildTeams(t, item)
	if err := f.builder.SetFormat(t.Context(), item.ID, "organizer", format); err != nil {
		t.Fatalf("set format failed: %v", err)
	}
	if _, err := f.builder.ValidateTeams(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("validate teams failed: %v", err)
	}
	teams, err := f.teamRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list teams failed: %v", err)
	}
	return teams
}

func (f *leagueFixture) grantPoints(t *testing.T, userID string, amount int) {
	t.Helper()
	entryID, err := f.idGen.NewID()
	if err != nil {
		t.Fatalf("generate id failed: %v", err)
	}
	if err := f.pointsRepo.Append(t.Context(), pointsEntry(entryID, userID, amount)); err != nil {
		t.Fatalf("grant points failed: %v", err)
	}
}

func pointsEntry(id, userID string, amount int) points.Entry {
	return points.Entry{
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		Reason:    points.ReasonAdminGrant,
		CreatedAt: fixtureNow,
	}
}

func (f *leagueFixture) balance(t *testing.T, userID string) int {
	t.Helper()
	total, err := f.pointsRepo.Balance(t.Context(), userID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	return total
}
