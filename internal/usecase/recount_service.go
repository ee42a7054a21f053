package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/team"
	"github.com/mygleague/inhouse/internal/platform/id"
)

const recountLobbyScanLimit = 200

type RecountInput struct {
	// LobbyID narrows the audit to one lobby; empty audits every settled
	// lobby in the recent window.
	LobbyID    string
	MaxWorkers int
	// Apply posts correcting ledger entries for each mismatch. Without it
	// the audit only reports.
	Apply bool
}

type RecountResult struct {
	LobbyCount    int                `json:"lobby_count"`
	MismatchCount int                `json:"mismatch_count"`
	AppliedCount  int                `json:"applied_count"`
	WorkerCount   int                `json:"worker_count"`
	Rows          []RecountRowResult `json:"rows"`
}

type RecountRowResult struct {
	LobbyID    string `json:"lobby_id"`
	UserID     string `json:"user_id"`
	Expected   int    `json:"expected"`
	Recorded   int    `json:"recorded"`
	Delta      int    `json:"delta"`
	Applied    bool   `json:"applied"`
	DurationMs int64  `json:"duration_ms"`
}

// RecountService audits settled lobbies: it recomputes what each user should
// have earned from the recorded results and compares it with the ledger.
type RecountService struct {
	lobbyRepo  lobby.Repository
	teamRepo   team.Repository
	matchRepo  match.Repository
	pointsRepo points.Repository
	idGen      id.Generator
	logger     *slog.Logger
	now        func() time.Time
}

func NewRecountService(
	lobbyRepo lobby.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	pointsRepo points.Repository,
	idGen id.Generator,
	logger *slog.Logger,
) *RecountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecountService{
		lobbyRepo:  lobbyRepo,
		teamRepo:   teamRepo,
		matchRepo:  matchRepo,
		pointsRepo: pointsRepo,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *RecountService) Recount(ctx context.Context, input RecountInput) (RecountResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecountService.Recount")
	defer span.End()

	targets, err := s.resolveTargets(ctx, strings.TrimSpace(input.LobbyID))
	if err != nil {
		return RecountResult{}, err
	}

	workerCount := normalizeRecountWorkerCount(input.MaxWorkers, len(targets))
	result := RecountResult{
		LobbyCount:  len(targets),
		WorkerCount: workerCount,
		Rows:        make([]RecountRowResult, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	rows := make(chan []RecountRowResult, len(targets))
	var mismatchCount atomic.Int32
	var appliedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RecountResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, target := range targets {
		target := target
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			lobbyRows, err := s.auditLobby(ctx, target, input.Apply)
			if err != nil {
				s.logger.WarnContext(ctx, "recount lobby failed", "lobby_id", target.ID, "error", err)
				return
			}
			elapsed := time.Since(start).Milliseconds()
			for i := range lobbyRows {
				lobbyRows[i].DurationMs = elapsed
				mismatchCount.Add(1)
				if lobbyRows[i].Applied {
					appliedCount.Add(1)
				}
			}
			rows <- lobbyRows
		}); err != nil {
			workers.Done()
			return RecountResult{}, fmt.Errorf("submit recount task: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for lobbyRows := range rows {
		result.Rows = append(result.Rows, lobbyRows...)
	}
	sort.SliceStable(result.Rows, func(i, j int) bool {
		if result.Rows[i].LobbyID != result.Rows[j].LobbyID {
			return result.Rows[i].LobbyID < result.Rows[j].LobbyID
		}
		return result.Rows[i].UserID < result.Rows[j].UserID
	})

	result.MismatchCount = int(mismatchCount.Load())
	result.AppliedCount = int(appliedCount.Load())
	return result, nil
}

// auditLobby returns one row per user whose recorded win/loss credit differs
// from what the match results imply.
func (s *RecountService) auditLobby(ctx context.Context, item lobby.Lobby, apply bool) ([]RecountRowResult, error) {
	matches, err := s.matchRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches by lobby: %w", err)
	}
	teams, err := s.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams by lobby: %w", err)
	}
	participants, err := s.lobbyRepo.ListParticipants(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	entries, err := s.pointsRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by lobby: %w", err)
	}

	userByParticipant := make(map[string]string, len(participants))
	for _, p := range participants {
		if p.IsFake || p.UserID == "" {
			continue
		}
		userByParticipant[p.ID] = p.UserID
	}
	memberUsers := make(map[string][]string, len(teams))
	for _, t := range teams {
		for _, role := range lobby.CoreRoles() {
			if userID, ok := userByParticipant[t.Slots[role]]; ok {
				memberUsers[t.ID] = append(memberUsers[t.ID], userID)
			}
		}
	}

	doubled := make(map[string]bool)
	recorded := make(map[string]int)
	for _, e := range entries {
		switch e.Reason {
		case points.ReasonMatchWin, points.ReasonMatchLoss, points.ReasonRecount:
			recorded[e.UserID] += e.Amount
		case points.DoublePointsMarker(item.ID):
			doubled[e.UserID] = true
		}
	}

	expected := make(map[string]int)
	for _, m := range matches {
		if m.WinnerTeamID == "" {
			continue
		}
		loserTeamID := m.BlueTeamID
		if loserTeamID == m.WinnerTeamID {
			loserTeamID = m.RedTeamID
		}
		for _, userID := range memberUsers[m.WinnerTeamID] {
			expected[userID] += winPoints
		}
		for _, userID := range memberUsers[loserTeamID] {
			expected[userID] += lossPoints
		}
	}
	for userID := range expected {
		if doubled[userID] {
			expected[userID] *= 2
		}
	}

	userIDs := make([]string, 0, len(expected))
	for userID := range expected {
		userIDs = append(userIDs, userID)
	}
	for userID := range recorded {
		if _, ok := expected[userID]; !ok {
			userIDs = append(userIDs, userID)
		}
	}
	sort.Strings(userIDs)

	rows := make([]RecountRowResult, 0)
	for _, userID := range userIDs {
		delta := expected[userID] - recorded[userID]
		if delta == 0 {
			continue
		}
		row := RecountRowResult{
			LobbyID:  item.ID,
			UserID:   userID,
			Expected: expected[userID],
			Recorded: recorded[userID],
			Delta:    delta,
		}
		if apply {
			entryID, err := s.idGen.NewID()
			if err != nil {
				return nil, fmt.Errorf("generate ledger id: %w", err)
			}
			if err := s.pointsRepo.Append(ctx, points.Entry{
				ID:        entryID,
				UserID:    userID,
				Amount:    delta,
				Reason:    points.ReasonRecount,
				LobbyID:   item.ID,
				CreatedAt: s.now().UTC(),
			}); err != nil {
				return nil, fmt.Errorf("append recount entry: %w", err)
			}
			row.Applied = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *RecountService) resolveTargets(ctx context.Context, lobbyID string) ([]lobby.Lobby, error) {
	if lobbyID != "" {
		item, exists, err := s.lobbyRepo.GetByID(ctx, lobbyID)
		if err != nil {
			return nil, fmt.Errorf("get lobby by id: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: lobby=%s", ErrNotFound, lobbyID)
		}
		if item.SettledAt == nil {
			return nil, fmt.Errorf("%w: lobby %s is not settled", ErrConflict, item.ID)
		}
		return []lobby.Lobby{item}, nil
	}

	recent, err := s.lobbyRepo.ListRecent(ctx, recountLobbyScanLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent lobbies: %w", err)
	}
	out := make([]lobby.Lobby, 0, len(recent))
	for _, item := range recent {
		if item.SettledAt != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func normalizeRecountWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > 4 {
		value = 4
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
