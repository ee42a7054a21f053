package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/team"
	"github.com/mygleague/inhouse/internal/platform/id"
)

const (
	winPoints  = 3
	lossPoints = 1
)

// mvpPoints[i] is the credit for MVP rank i+1.
var mvpPoints = []int{5, 3, 2}

// MvpWinner is one ranked MVP standing after votes lock. Placements are per
// team; Points carries the credited amount after any doubling.
type MvpWinner struct {
	UserID   string
	Display  string
	TeamID   string
	TeamName string
	Rank     int
	Votes    int
	Points   int
}

// contributionApplier feeds settled points into faction progression.
type contributionApplier interface {
	ApplyContribution(ctx context.Context, userID string, amount int) error
}

// SettlementService turns a concluded series into ledger entries and runs the
// MVP vote. Both settlement and the vote lock are guarded by per-lobby
// compare-and-swap markers so retries cannot double-credit.
type SettlementService struct {
	lobbyRepo     lobby.Repository
	teamRepo      team.Repository
	matchRepo     match.Repository
	pointsRepo    points.Repository
	inventoryRepo inventory.Repository
	gateway       chat.Gateway
	idGen         id.Generator
	contributions contributionApplier
	respoRoleID   string
	logger        *slog.Logger
	now           func() time.Time
}

func NewSettlementService(
	lobbyRepo lobby.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	pointsRepo points.Repository,
	inventoryRepo inventory.Repository,
	gateway chat.Gateway,
	idGen id.Generator,
	respoRoleID string,
	logger *slog.Logger,
) *SettlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementService{
		lobbyRepo:     lobbyRepo,
		teamRepo:      teamRepo,
		matchRepo:     matchRepo,
		pointsRepo:    pointsRepo,
		inventoryRepo: inventoryRepo,
		gateway:       gateway,
		idGen:         idGen,
		respoRoleID:   respoRoleID,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *SettlementService) SetContributionApplier(applier contributionApplier) {
	s.contributions = applier
}

// FinalizeResults credits win and loss points for every decided match of the
// lobby. Users holding an unconsumed double points token have their credits
// doubled; the token is consumed and a zero point marker row records it.
func (s *SettlementService) FinalizeResults(ctx context.Context, lobbyID, actorID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.FinalizeResults")
	defer span.End()

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	matches, err := s.matchRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list matches by lobby: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: lobby %s has no matches", ErrConflict, item.ID)
	}
	for _, m := range matches {
		if m.Status != match.StatusFinished {
			return fmt.Errorf("%w: match %s is not finished", ErrConflict, m.ID)
		}
	}

	now := s.now().UTC()
	won, err := s.lobbyRepo.MarkSettled(ctx, item.ID, now)
	if err != nil {
		return fmt.Errorf("mark lobby settled: %w", err)
	}
	if !won {
		return fmt.Errorf("%w: lobby %s is already settled", ErrConflict, item.ID)
	}

	// Nothing irreversible happens before the batch commits: the marker is
	// released on failure and tokens burn only afterwards, so a failed
	// attempt can be retried without losing credits or tokens.
	entries, effectIDs, err := s.buildSettlementEntries(ctx, item, matches, now)
	if err != nil {
		s.releaseSettled(ctx, item.ID)
		return err
	}
	if err := s.pointsRepo.AppendBatch(ctx, entries); err != nil {
		s.releaseSettled(ctx, item.ID)
		return fmt.Errorf("append settlement entries: %w", err)
	}
	s.consumeEffects(ctx, effectIDs, now)
	s.applyContributions(ctx, entries)

	return nil
}

// buildSettlementEntries assembles the full ledger batch for a settled
// series: win and loss credits plus a zero point marker row per consumed
// double points token. Token effect ids are returned for consumption once
// the batch commits.
func (s *SettlementService) buildSettlementEntries(ctx context.Context, item lobby.Lobby, matches []match.Match, now time.Time) ([]points.Entry, []string, error) {
	userByParticipant, err := s.userByParticipant(ctx, item.ID)
	if err != nil {
		return nil, nil, err
	}
	memberUsers, err := s.teamMemberUsers(ctx, item.ID, userByParticipant)
	if err != nil {
		return nil, nil, err
	}

	credited := make(map[string]bool)
	for _, m := range matches {
		if m.WinnerTeamID == "" {
			continue
		}
		for _, teamID := range []string{m.BlueTeamID, m.RedTeamID} {
			for _, userID := range memberUsers[teamID] {
				credited[userID] = true
			}
		}
	}
	userIDs := make([]string, 0, len(credited))
	for userID := range credited {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	entries := make([]points.Entry, 0, len(userIDs)*len(matches))
	effectIDs := make([]string, 0)
	multiplier := make(map[string]int, len(userIDs))
	for _, userID := range userIDs {
		multiplier[userID] = 1
		effect, hasToken, err := s.inventoryRepo.GetUnconsumedEffect(ctx, userID, inventory.EffectDoublePoints)
		if err != nil {
			return nil, nil, fmt.Errorf("check double points token: %w", err)
		}
		if !hasToken {
			continue
		}
		multiplier[userID] = 2
		effectIDs = append(effectIDs, effect.ID)
		markerID, err := s.idGen.NewID()
		if err != nil {
			return nil, nil, fmt.Errorf("generate ledger id: %w", err)
		}
		entries = append(entries, points.Entry{
			ID:        markerID,
			UserID:    userID,
			Amount:    0,
			Reason:    points.DoublePointsMarker(item.ID),
			LobbyID:   item.ID,
			CreatedAt: now,
		})
	}

	for _, m := range matches {
		if m.WinnerTeamID == "" {
			continue
		}
		loserTeamID := m.BlueTeamID
		if loserTeamID == m.WinnerTeamID {
			loserTeamID = m.RedTeamID
		}
		for _, side := range []struct {
			teamID string
			amount int
			reason string
		}{
			{m.WinnerTeamID, winPoints, points.ReasonMatchWin},
			{loserTeamID, lossPoints, points.ReasonMatchLoss},
		} {
			for _, userID := range memberUsers[side.teamID] {
				entryID, err := s.idGen.NewID()
				if err != nil {
					return nil, nil, fmt.Errorf("generate ledger id: %w", err)
				}
				entries = append(entries, points.Entry{
					ID:        entryID,
					UserID:    userID,
					Amount:    side.amount * multiplier[userID],
					Reason:    side.reason,
					LobbyID:   item.ID,
					CreatedAt: now,
				})
			}
		}
	}

	return entries, effectIDs, nil
}

// releaseSettled frees the settlement marker after a failed attempt so the
// organizer can retry.
func (s *SettlementService) releaseSettled(ctx context.Context, lobbyID string) {
	if err := s.lobbyRepo.ClearSettled(ctx, lobbyID); err != nil {
		s.logger.ErrorContext(ctx, "release settlement marker failed", "lobby_id", lobbyID, "error", err)
	}
}

func (s *SettlementService) releaseMvpLock(ctx context.Context, lobbyID string) {
	if err := s.lobbyRepo.ClearMvpLocked(ctx, lobbyID); err != nil {
		s.logger.ErrorContext(ctx, "release mvp lock failed", "lobby_id", lobbyID, "error", err)
	}
}

// consumeEffects burns double points tokens after their marker rows are in
// the ledger. A consumption error is logged, not returned: the credits are
// already committed.
func (s *SettlementService) consumeEffects(ctx context.Context, effectIDs []string, now time.Time) {
	for _, effectID := range effectIDs {
		if err := s.inventoryRepo.ConsumeEffect(ctx, effectID, now); err != nil {
			s.logger.WarnContext(ctx, "consume double points token failed",
				"effect_id", effectID, "error", err)
		}
	}
}

// applyContributions mirrors positive credits into faction progression. A
// progression error must not undo the ledger, so it only logs.
func (s *SettlementService) applyContributions(ctx context.Context, entries []points.Entry) {
	if s.contributions == nil {
		return
	}
	for _, e := range entries {
		if e.Amount <= 0 {
			continue
		}
		if err := s.contributions.ApplyContribution(ctx, e.UserID, e.Amount); err != nil {
			s.logger.WarnContext(ctx, "apply faction contribution failed",
				"user_id", e.UserID, "error", err)
		}
	}
}

// CastMvpVote records or replaces the voter's MVP pick for a finished match.
// Only participants of the match's teams may vote, and only for a teammate.
func (s *SettlementService) CastMvpVote(ctx context.Context, lobbyID, matchID, voterUserID, votedUserID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.CastMvpVote")
	defer span.End()

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if item.MvpLockedAt != nil {
		return fmt.Errorf("%w: MVP votes for lobby %s are locked", ErrConflict, item.ID)
	}

	voterUserID = strings.TrimSpace(voterUserID)
	votedUserID = strings.TrimSpace(votedUserID)
	if voterUserID == "" || votedUserID == "" {
		return fmt.Errorf("%w: voter and voted user ids are required", ErrInvalidInput)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, strings.TrimSpace(matchID))
	if err != nil {
		return fmt.Errorf("get match by id: %w", err)
	}
	if !exists || m.LobbyID != item.ID {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if m.Status != match.StatusFinished {
		return fmt.Errorf("%w: match %s is not finished", ErrConflict, m.ID)
	}

	userByParticipant, err := s.userByParticipant(ctx, item.ID)
	if err != nil {
		return err
	}
	memberUsers, err := s.teamMemberUsers(ctx, item.ID, userByParticipant)
	if err != nil {
		return err
	}

	voterTeamID := ""
	for _, teamID := range []string{m.BlueTeamID, m.RedTeamID} {
		for _, userID := range memberUsers[teamID] {
			if userID == voterUserID {
				voterTeamID = teamID
			}
		}
	}
	if voterTeamID == "" {
		return fmt.Errorf("%w: only match participants can vote", ErrUnauthorized)
	}

	votedOnTeam := false
	for _, userID := range memberUsers[voterTeamID] {
		if userID == votedUserID {
			votedOnTeam = true
			break
		}
	}
	if !votedOnTeam {
		return fmt.Errorf("%w: MVP vote must pick a teammate", ErrInvalidInput)
	}

	voteID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate vote id: %w", err)
	}
	if err := s.matchRepo.UpsertMvpVote(ctx, match.MvpVote{
		ID:          voteID,
		LobbyID:     item.ID,
		MatchID:     m.ID,
		TeamID:      voterTeamID,
		VoterUserID: voterUserID,
		VotedUserID: votedUserID,
		CreatedAt:   s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("upsert mvp vote: %w", err)
	}

	return nil
}

// LockMvpVotes tallies the lobby's votes once, team by team, credits each
// team's top placements and publishes the standings. Placement credits double
// for double points holders, the same way settlement credits do, and feed
// faction progression.
func (s *SettlementService) LockMvpVotes(ctx context.Context, lobbyID, actorID string) ([]MvpWinner, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.LockMvpVotes")
	defer span.End()

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	won, err := s.lobbyRepo.MarkMvpLocked(ctx, item.ID, now)
	if err != nil {
		return nil, fmt.Errorf("mark mvp locked: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: MVP votes for lobby %s are already locked", ErrConflict, item.ID)
	}

	winners, entries, effectIDs, err := s.buildMvpEntries(ctx, item, now)
	if err != nil {
		s.releaseMvpLock(ctx, item.ID)
		return nil, err
	}
	if err := s.pointsRepo.AppendBatch(ctx, entries); err != nil {
		s.releaseMvpLock(ctx, item.ID)
		return nil, fmt.Errorf("append mvp entries: %w", err)
	}
	s.consumeEffects(ctx, effectIDs, now)
	s.applyContributions(ctx, entries)

	if _, err := s.gateway.SendMessage(ctx, item.ChannelID, renderMvpStandings(item, winners)); err != nil {
		s.logger.WarnContext(ctx, "post mvp standings failed", "lobby_id", item.ID, "error", err)
	}

	return winners, nil
}

// buildMvpEntries ranks each team's voted users and assembles the placement
// credits. Doubling covers users whose token was already consumed at
// settlement, recognized by their marker row, and users still holding an
// unconsumed token, which is returned for consumption after the batch.
func (s *SettlementService) buildMvpEntries(ctx context.Context, item lobby.Lobby, now time.Time) ([]MvpWinner, []points.Entry, []string, error) {
	votes, err := s.matchRepo.ListMvpVotes(ctx, item.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list mvp votes: %w", err)
	}
	teams, err := s.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list teams by lobby: %w", err)
	}
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Number < teams[j].Number
	})

	tally := make(map[string]map[string]int, len(teams))
	firstVoteAt := make(map[string]map[string]time.Time, len(teams))
	for _, v := range votes {
		if tally[v.TeamID] == nil {
			tally[v.TeamID] = make(map[string]int)
			firstVoteAt[v.TeamID] = make(map[string]time.Time)
		}
		tally[v.TeamID][v.VotedUserID]++
		if _, seen := firstVoteAt[v.TeamID][v.VotedUserID]; !seen {
			firstVoteAt[v.TeamID][v.VotedUserID] = v.CreatedAt
		}
	}

	doubled, err := s.doubledAtSettlement(ctx, item.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	winners := make([]MvpWinner, 0, len(teams)*len(mvpPoints))
	entries := make([]points.Entry, 0, len(teams)*len(mvpPoints))
	effectIDs := make([]string, 0)
	for _, t := range teams {
		byUser := tally[t.ID]
		ranked := make([]string, 0, len(byUser))
		for userID := range byUser {
			ranked = append(ranked, userID)
		}
		sort.Slice(ranked, func(i, j int) bool {
			if byUser[ranked[i]] != byUser[ranked[j]] {
				return byUser[ranked[i]] > byUser[ranked[j]]
			}
			return firstVoteAt[t.ID][ranked[i]].Before(firstVoteAt[t.ID][ranked[j]])
		})
		if len(ranked) > len(mvpPoints) {
			ranked = ranked[:len(mvpPoints)]
		}

		for i, userID := range ranked {
			rank := i + 1
			factor := 1
			if doubled[userID] {
				factor = 2
			} else {
				effect, hasToken, err := s.inventoryRepo.GetUnconsumedEffect(ctx, userID, inventory.EffectDoublePoints)
				if err != nil {
					return nil, nil, nil, fmt.Errorf("check double points token: %w", err)
				}
				if hasToken {
					factor = 2
					doubled[userID] = true
					effectIDs = append(effectIDs, effect.ID)
					markerID, err := s.idGen.NewID()
					if err != nil {
						return nil, nil, nil, fmt.Errorf("generate ledger id: %w", err)
					}
					entries = append(entries, points.Entry{
						ID:        markerID,
						UserID:    userID,
						Amount:    0,
						Reason:    points.DoublePointsMarker(item.ID),
						LobbyID:   item.ID,
						CreatedAt: now,
					})
				}
			}

			display := userID
			if user, found, err := s.gateway.FetchUser(ctx, userID); err == nil && found {
				display = user.Display
			}

			entryID, err := s.idGen.NewID()
			if err != nil {
				return nil, nil, nil, fmt.Errorf("generate ledger id: %w", err)
			}
			entries = append(entries, points.Entry{
				ID:        entryID,
				UserID:    userID,
				Amount:    mvpPoints[i] * factor,
				Reason:    points.MvpRankReason(rank),
				LobbyID:   item.ID,
				CreatedAt: now,
			})
			winners = append(winners, MvpWinner{
				UserID:   userID,
				Display:  display,
				TeamID:   t.ID,
				TeamName: t.Name,
				Rank:     rank,
				Votes:    byUser[userID],
				Points:   mvpPoints[i] * factor,
			})
		}
	}

	return winners, entries, effectIDs, nil
}

// doubledAtSettlement collects users whose double points token was consumed
// when the series settled, identified by their zero point marker row.
func (s *SettlementService) doubledAtSettlement(ctx context.Context, lobbyID string) (map[string]bool, error) {
	ledger, err := s.pointsRepo.ListByLobby(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("list lobby ledger: %w", err)
	}
	doubled := make(map[string]bool)
	marker := points.DoublePointsMarker(lobbyID)
	for _, e := range ledger {
		if e.Reason == marker {
			doubled[e.UserID] = true
		}
	}
	return doubled, nil
}

// userByParticipant maps seatable participants to real user ids. Synthetic
// test-fill participants have no user and earn nothing.
func (s *SettlementService) userByParticipant(ctx context.Context, lobbyID string) (map[string]string, error) {
	participants, err := s.lobbyRepo.ListParticipants(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	out := make(map[string]string, len(participants))
	for _, p := range participants {
		if p.IsFake || p.UserID == "" {
			continue
		}
		out[p.ID] = p.UserID
	}
	return out, nil
}

func (s *SettlementService) teamMemberUsers(ctx context.Context, lobbyID string, userByParticipant map[string]string) (map[string][]string, error) {
	teams, err := s.teamRepo.ListByLobby(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("list teams by lobby: %w", err)
	}
	out := make(map[string][]string, len(teams))
	for _, t := range teams {
		for _, role := range lobby.CoreRoles() {
			participantID := t.Slots[role]
			if participantID == "" {
				continue
			}
			if userID, ok := userByParticipant[participantID]; ok {
				out[t.ID] = append(out[t.ID], userID)
			}
		}
	}
	return out, nil
}

func (s *SettlementService) requireLobby(ctx context.Context, lobbyID string) (lobby.Lobby, error) {
	lobbyID = strings.TrimSpace(lobbyID)
	if lobbyID == "" {
		return lobby.Lobby{}, fmt.Errorf("%w: lobby_id is required", ErrInvalidInput)
	}
	item, exists, err := s.lobbyRepo.GetByID(ctx, lobbyID)
	if err != nil {
		return lobby.Lobby{}, fmt.Errorf("get lobby by id: %w", err)
	}
	if !exists {
		return lobby.Lobby{}, fmt.Errorf("%w: lobby=%s", ErrNotFound, lobbyID)
	}
	return item, nil
}
