package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/profile"
	"github.com/mygleague/inhouse/internal/platform/cache"
)

const (
	dashboardLeaderboardLimit = 50
	dashboardFeedLimit        = 20
)

// DashboardService serves the read-only web dashboard. Every query is cached
// briefly because the dashboard polls far more often than the league mutates.
type DashboardService struct {
	lobbyRepo   lobby.Repository
	matchRepo   match.Repository
	pointsRepo  points.Repository
	profileRepo profile.Repository
	store       *cache.Store
}

func NewDashboardService(
	lobbyRepo lobby.Repository,
	matchRepo match.Repository,
	pointsRepo points.Repository,
	profileRepo profile.Repository,
	store *cache.Store,
) *DashboardService {
	return &DashboardService{
		lobbyRepo:   lobbyRepo,
		matchRepo:   matchRepo,
		pointsRepo:  pointsRepo,
		profileRepo: profileRepo,
		store:       store,
	}
}

func (s *DashboardService) Leaderboard(ctx context.Context, limit int) ([]points.LeaderboardRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Leaderboard")
	defer span.End()

	if limit <= 0 || limit > dashboardLeaderboardLimit {
		limit = dashboardLeaderboardLimit
	}

	value, err := s.cached(ctx, fmt.Sprintf("dashboard:leaderboard:%d", limit), func(ctx context.Context) (any, error) {
		rows, err := s.pointsRepo.Leaderboard(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("query leaderboard: %w", err)
		}
		for i := range rows {
			if rows[i].Display != "" {
				continue
			}
			if prof, exists, err := s.profileRepo.GetByUserID(ctx, rows[i].UserID); err == nil && exists && prof.DisplayName != "" {
				rows[i].Display = prof.DisplayName
			} else {
				rows[i].Display = rows[i].UserID
			}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]points.LeaderboardRow), nil
}

func (s *DashboardService) LiveMatches(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.LiveMatches")
	defer span.End()

	value, err := s.cached(ctx, "dashboard:live", func(ctx context.Context) (any, error) {
		rows, err := s.matchRepo.ListLive(ctx, dashboardFeedLimit)
		if err != nil {
			return nil, fmt.Errorf("query live matches: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]match.Match), nil
}

func (s *DashboardService) RecentResults(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.RecentResults")
	defer span.End()

	value, err := s.cached(ctx, "dashboard:recent_results", func(ctx context.Context) (any, error) {
		rows, err := s.matchRepo.ListRecentFinished(ctx, dashboardFeedLimit)
		if err != nil {
			return nil, fmt.Errorf("query recent finished matches: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]match.Match), nil
}

func (s *DashboardService) RecentLobbies(ctx context.Context) ([]lobby.Lobby, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.RecentLobbies")
	defer span.End()

	value, err := s.cached(ctx, "dashboard:recent_lobbies", func(ctx context.Context) (any, error) {
		rows, err := s.lobbyRepo.ListRecent(ctx, dashboardFeedLimit)
		if err != nil {
			return nil, fmt.Errorf("query recent lobbies: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]lobby.Lobby), nil
}

func (s *DashboardService) Profile(ctx context.Context, userID string) (profile.UserProfile, []points.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Profile")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return profile.UserProfile{}, nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	prof, exists, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return profile.UserProfile{}, nil, fmt.Errorf("get profile: %w", err)
	}
	if !exists {
		return profile.UserProfile{}, nil, fmt.Errorf("%w: profile=%s", ErrNotFound, userID)
	}

	history, err := s.pointsRepo.ListByUser(ctx, userID, dashboardFeedLimit)
	if err != nil {
		return profile.UserProfile{}, nil, fmt.Errorf("list ledger history: %w", err)
	}
	return prof, history, nil
}

func (s *DashboardService) cached(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if s.store == nil {
		return loader(ctx)
	}
	return s.store.GetOrLoad(ctx, key, loader)
}
