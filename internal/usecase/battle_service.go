package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mygleague/inhouse/internal/domain/battle"
	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/platform/id"
)

const battleChampionPoints = 5

// BattleService runs the 1v1 battle royale mode: winners of each round are
// paired again until one player remains, and the final is a best of three.
type BattleService struct {
	lobbyRepo   lobby.Repository
	battleRepo  battle.Repository
	pointsRepo  points.Repository
	gateway     chat.Gateway
	idGen       id.Generator
	respoRoleID string
	logger      *slog.Logger
	now         func() time.Time
}

func NewBattleService(
	lobbyRepo lobby.Repository,
	battleRepo battle.Repository,
	pointsRepo points.Repository,
	gateway chat.Gateway,
	idGen id.Generator,
	respoRoleID string,
	logger *slog.Logger,
) *BattleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BattleService{
		lobbyRepo:   lobbyRepo,
		battleRepo:  battleRepo,
		pointsRepo:  pointsRepo,
		gateway:     gateway,
		idGen:       idGen,
		respoRoleID: respoRoleID,
		logger:      logger,
		now:         time.Now,
	}
}

// StartBracket pairs the registered players into round one. An odd player out
// gets a bye straight into round two.
func (s *BattleService) StartBracket(ctx context.Context, lobbyID, actorID string) ([]battle.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BattleService.StartBracket")
	defer span.End()

	item, err := s.requireBattleLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return nil, err
	}

	existing, err := s.battleRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list battle matches: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: lobby %s already has a bracket", ErrConflict, item.ID)
	}

	participants, err := s.lobbyRepo.ListParticipants(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	players := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.IsFake || p.UserID == "" {
			continue
		}
		players = append(players, p.UserID)
	}
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: battle royale needs at least two players", ErrConflict)
	}

	return s.pairRound(ctx, item, 1, players)
}

// ReportWin finishes a battle match and, once the round empties, pairs the
// winners into the next round or crowns the champion.
func (s *BattleService) ReportWin(ctx context.Context, lobbyID, battleMatchID, actorID, winnerUserID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.BattleService.ReportWin")
	defer span.End()

	item, err := s.requireBattleLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	m, exists, err := s.battleRepo.GetByID(ctx, strings.TrimSpace(battleMatchID))
	if err != nil {
		return fmt.Errorf("get battle match: %w", err)
	}
	if !exists || m.LobbyID != item.ID {
		return fmt.Errorf("%w: battle match=%s", ErrNotFound, battleMatchID)
	}
	if m.Status == battle.StatusFinished {
		return fmt.Errorf("%w: battle match %s is already finished", ErrConflict, m.ID)
	}

	winnerUserID = strings.TrimSpace(winnerUserID)
	if winnerUserID != m.UserA && winnerUserID != m.UserB {
		return fmt.Errorf("%w: winner must be one of the duelists", ErrInvalidInput)
	}

	if err := s.battleRepo.Finish(ctx, m.ID, winnerUserID); err != nil {
		return fmt.Errorf("finish battle match: %w", err)
	}
	if m.VoiceChannelID != "" {
		if err := s.gateway.DeleteChannel(ctx, m.VoiceChannelID); err != nil {
			s.logger.WarnContext(ctx, "delete duel voice channel failed",
				"battle_match_id", m.ID, "error", err)
		}
	}

	roundMatches, err := s.battleRepo.ListByRound(ctx, item.ID, m.Round)
	if err != nil {
		return fmt.Errorf("list battle round: %w", err)
	}
	winners := make([]string, 0, len(roundMatches))
	for _, rm := range roundMatches {
		if rm.ID == m.ID {
			rm.WinnerUserID = winnerUserID
			rm.Status = battle.StatusFinished
		}
		if rm.Status != battle.StatusFinished {
			return nil
		}
		if rm.WinnerUserID != "" {
			winners = append(winners, rm.WinnerUserID)
		}
	}

	if len(winners) == 1 {
		return s.crownChampion(ctx, item, winners[0])
	}

	_, err = s.pairRound(ctx, item, m.Round+1, winners)
	return err
}

// pairRound creates the round's duels with temporary voice channels. The
// final pairing of the bracket runs as a best of three.
func (s *BattleService) pairRound(ctx context.Context, item lobby.Lobby, round int, players []string) ([]battle.Match, error) {
	now := s.now().UTC()
	matches := make([]battle.Match, 0, len(players)/2)
	for i := 0; i+1 < len(players); i += 2 {
		matchID, err := s.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate battle match id: %w", err)
		}
		bestOf := 1
		if len(players) == 2 {
			bestOf = 3
		}
		matches = append(matches, battle.Match{
			ID:        matchID,
			LobbyID:   item.ID,
			Round:     round,
			UserA:     players[i],
			UserB:     players[i+1],
			Status:    battle.StatusPending,
			BestOf:    bestOf,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(players)%2 == 1 {
		// The odd player out advances unopposed.
		byeID, err := s.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate battle match id: %w", err)
		}
		matches = append(matches, battle.Match{
			ID:           byeID,
			LobbyID:      item.ID,
			Round:        round,
			UserA:        players[len(players)-1],
			WinnerUserID: players[len(players)-1],
			Status:       battle.StatusFinished,
			BestOf:       1,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.battleRepo.CreateBatch(ctx, matches); err != nil {
		return nil, fmt.Errorf("create battle matches: %w", err)
	}

	for i, m := range matches {
		if m.Status != battle.StatusPending {
			continue
		}
		voice, err := s.gateway.CreateVoiceChannel(ctx, item.GuildID, "", fmt.Sprintf("duel-r%d-%d", round, i+1))
		if err != nil {
			s.logger.WarnContext(ctx, "create duel voice channel failed",
				"battle_match_id", m.ID, "error", err)
			continue
		}
		if err := s.battleRepo.MarkRunning(ctx, m.ID, voice.ID); err != nil {
			return nil, fmt.Errorf("mark battle match running: %w", err)
		}
		matches[i].Status = battle.StatusRunning
		matches[i].VoiceChannelID = voice.ID
	}

	return matches, nil
}

func (s *BattleService) crownChampion(ctx context.Context, item lobby.Lobby, winnerUserID string) error {
	entryID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate ledger id: %w", err)
	}
	if err := s.pointsRepo.Append(ctx, points.Entry{
		ID:        entryID,
		UserID:    winnerUserID,
		Amount:    battleChampionPoints,
		Reason:    points.ReasonBattleChampion,
		LobbyID:   item.ID,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("append champion entry: %w", err)
	}

	if err := s.lobbyRepo.UpdateStatus(ctx, item.ID, lobby.StatusClosed); err != nil {
		return fmt.Errorf("close lobby: %w", err)
	}

	content := fmt.Sprintf("**%s** - battle royale champion: <@%s> (+%d pts)", item.Name, winnerUserID, battleChampionPoints)
	if _, err := s.gateway.SendMessage(ctx, item.ChannelID, content); err != nil {
		s.logger.WarnContext(ctx, "announce champion failed", "lobby_id", item.ID, "error", err)
	}

	return nil
}

func (s *BattleService) requireBattleLobby(ctx context.Context, lobbyID string) (lobby.Lobby, error) {
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
	if item.Mode != lobby.ModeBattleRoyale {
		return lobby.Lobby{}, fmt.Errorf("%w: lobby %s is not a battle royale", ErrConflict, item.ID)
	}
	return item, nil
}
