package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/mygleague/inhouse/internal/domain/profile"
	"github.com/mygleague/inhouse/internal/platform/cache"
)

func TestDashboardService_Leaderboard_BackfillsDisplayNames(t *testing.T) {
	f := newLeagueFixture(t)
	f.grantPoints(t, "u1", 10)
	f.grantPoints(t, "u2", 7)

	if err := f.profileRepo.Upsert(t.Context(), profile.UserProfile{
		UserID:      "u1",
		DisplayName: "Faker",
		CreatedAt:   fixtureNow,
		UpdatedAt:   fixtureNow,
	}); err != nil {
		t.Fatalf("seed profile failed: %v", err)
	}

	rows, err := f.dashboard.Leaderboard(t.Context(), 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].UserID != "u1" || rows[0].Display != "Faker" || rows[0].Total != 10 {
		t.Fatalf("unexpected top row: %+v", rows[0])
	}
	if rows[1].Display != "u2" {
		t.Fatalf("expected user id fallback display, got %q", rows[1].Display)
	}
}

func TestDashboardService_Leaderboard_CachesResult(t *testing.T) {
	f := newLeagueFixture(t)
	f.dashboard = NewDashboardService(f.lobbyRepo, f.matchRepo, f.pointsRepo, f.profileRepo, cache.NewStore(time.Minute))
	f.grantPoints(t, "u1", 10)

	first, err := f.dashboard.Leaderboard(t.Context(), 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}

	f.grantPoints(t, "u1", 5)

	second, err := f.dashboard.Leaderboard(t.Context(), 10)
	if err != nil {
		t.Fatalf("cached leaderboard failed: %v", err)
	}
	if second[0].Total != first[0].Total {
		t.Fatalf("expected cached total %d, got %d", first[0].Total, second[0].Total)
	}
}

func TestDashboardService_LiveAndRecentFeeds(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO3")

	live, err := f.dashboard.LiveMatches(t.Context())
	if err != nil {
		t.Fatalf("live matches failed: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("expected one live match, got %d", len(live))
	}

	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.BlueTeamID); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	recent, err := f.dashboard.RecentResults(t.Context())
	if err != nil {
		t.Fatalf("recent results failed: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != first.ID {
		t.Fatalf("unexpected recent results: %+v", recent)
	}

	lobbies, err := f.dashboard.RecentLobbies(t.Context())
	if err != nil {
		t.Fatalf("recent lobbies failed: %v", err)
	}
	if len(lobbies) != 1 || lobbies[0].ID != item.ID {
		t.Fatalf("unexpected recent lobbies: %+v", lobbies)
	}
}

func TestDashboardService_Profile(t *testing.T) {
	f := newLeagueFixture(t)

	if _, _, err := f.dashboard.Profile(t.Context(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := f.profileRepo.Upsert(t.Context(), profile.UserProfile{
		UserID:      "u1",
		DisplayName: "Chovy",
		CreatedAt:   fixtureNow,
		UpdatedAt:   fixtureNow,
	}); err != nil {
		t.Fatalf("seed profile failed: %v", err)
	}
	f.grantPoints(t, "u1", 4)

	prof, history, err := f.dashboard.Profile(t.Context(), "u1")
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if prof.DisplayName != "Chovy" {
		t.Fatalf("unexpected profile: %+v", prof)
	}
	if len(history) != 1 || history[0].Amount != 4 {
		t.Fatalf("unexpected history: %+v", history)
	}
}
