package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/team"
	"github.com/mygleague/inhouse/internal/platform/draft"
)

// SeriesService drives matches through PENDING, RUNNING and FINISHED, and
// concludes the series once every match is terminal.
type SeriesService struct {
	lobbyRepo    lobby.Repository
	teamRepo     team.Repository
	matchRepo    match.Repository
	gateway      chat.Gateway
	draftBaseURL string
	respoRoleID  string
	logger       *slog.Logger
	now          func() time.Time
	coin         func() bool
}

func NewSeriesService(
	lobbyRepo lobby.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	gateway chat.Gateway,
	draftBaseURL string,
	respoRoleID string,
	logger *slog.Logger,
) *SeriesService {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(draftBaseURL) == "" {
		draftBaseURL = draft.DefaultBaseURL
	}
	return &SeriesService{
		lobbyRepo:    lobbyRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		gateway:      gateway,
		draftBaseURL: draftBaseURL,
		respoRoleID:  respoRoleID,
		logger:       logger,
		now:          time.Now,
		coin:         func() bool { return rand.Intn(2) == 0 },
	}
}

// StartRound moves every pending match of the round to RUNNING with fresh
// draft rooms. It is a no-op while any match of the round is already running,
// so repeated triggers cannot double-start a round.
func (s *SeriesService) StartRound(ctx context.Context, lobbyID string, round int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeriesService.StartRound")
	defer span.End()

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if round < 1 {
		return fmt.Errorf("%w: round must be positive", ErrInvalidInput)
	}

	running, err := s.matchRepo.CountRunning(ctx, item.ID, round)
	if err != nil {
		return fmt.Errorf("count running matches: %w", err)
	}
	if running > 0 {
		return nil
	}

	pending, err := s.matchRepo.ListPending(ctx, item.ID, round)
	if err != nil {
		return fmt.Errorf("list pending matches: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	teamsByID, err := s.teamsByID(ctx, item.ID)
	if err != nil {
		return err
	}

	// Two-team series alternate sides every round; four-team round robins
	// flip a coin per match.
	for _, m := range pending {
		swapped := item.TeamCount == 2 && round%2 == 0
		if item.TeamCount == 4 {
			swapped = s.coin()
		}

		blueName := teamsByID[m.BlueTeamID].Name
		redName := teamsByID[m.RedTeamID].Name
		if swapped {
			blueName, redName = redName, blueName
		}

		roomID, err := draft.NewRoomID()
		if err != nil {
			return fmt.Errorf("generate draft room id: %w", err)
		}
		links := draft.Build(s.draftBaseURL, roomID, blueName, redName)

		if err := s.matchRepo.MarkRunning(ctx, m.ID, roomID, links.Blue, links.Red, links.Spectate, links.Stream); err != nil {
			return fmt.Errorf("mark match running: %w", err)
		}
		m.Status = match.StatusRunning
		m.BlueURL = links.Blue
		m.RedURL = links.Red
		m.SpectateURL = links.Spectate
		m.StreamURL = links.Stream

		s.postBoardCard(ctx, item, m, blueName, redName)
		s.notifyTeams(ctx, teamsByID[m.BlueTeamID], teamsByID[m.RedTeamID], links, swapped)
	}

	return nil
}

// ValidateMatch records the winner of a running match and advances the series
// when its round completes.
func (s *SeriesService) ValidateMatch(ctx context.Context, lobbyID, matchID, actorID, winnerTeamID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeriesService.ValidateMatch")
	defer span.End()

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	m, err := s.requireMatch(ctx, item.ID, matchID)
	if err != nil {
		return err
	}
	if m.Status != match.StatusRunning {
		return fmt.Errorf("%w: match %s is not running", ErrConflict, m.ID)
	}

	winnerTeamID = strings.TrimSpace(winnerTeamID)
	if winnerTeamID != m.BlueTeamID && winnerTeamID != m.RedTeamID {
		return fmt.Errorf("%w: winner must be one of the match teams", ErrInvalidInput)
	}

	if err := s.matchRepo.Finish(ctx, m.ID, winnerTeamID); err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	if err := s.matchRepo.SaveResult(ctx, match.Result{
		ID:           m.ID,
		LobbyID:      item.ID,
		MatchID:      m.ID,
		WinnerTeamID: winnerTeamID,
		CreatedAt:    s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("save match result: %w", err)
	}

	s.removeBoardCard(ctx, item, m)

	return s.advance(ctx, item, m.Round)
}

// SkipMatch force-finishes a stuck match without a winner. It is the manual
// recovery path for an abandoned game.
func (s *SeriesService) SkipMatch(ctx context.Context, lobbyID, matchID, actorID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeriesService.SkipMatch")
	defer span.End()

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	m, err := s.requireMatch(ctx, item.ID, matchID)
	if err != nil {
		return err
	}
	if m.Status == match.StatusFinished {
		return fmt.Errorf("%w: match %s is already finished", ErrConflict, m.ID)
	}

	if err := s.matchRepo.Finish(ctx, m.ID, ""); err != nil {
		return fmt.Errorf("finish match: %w", err)
	}

	s.removeBoardCard(ctx, item, m)

	return s.advance(ctx, item, m.Round)
}

// RepostMatch replaces a lost or deleted board card for a running match.
func (s *SeriesService) RepostMatch(ctx context.Context, lobbyID, matchID, actorID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeriesService.RepostMatch")
	defer span.End()

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	m, err := s.requireMatch(ctx, item.ID, matchID)
	if err != nil {
		return err
	}
	if m.Status != match.StatusRunning {
		return fmt.Errorf("%w: match %s is not running", ErrConflict, m.ID)
	}

	s.removeBoardCard(ctx, item, m)
	m.BoardMessageID = ""

	teamsByID, err := s.teamsByID(ctx, item.ID)
	if err != nil {
		return err
	}
	s.postBoardCard(ctx, item, m, teamsByID[m.BlueTeamID].Name, teamsByID[m.RedTeamID].Name)

	return nil
}

// advance re-checks the round after a terminal transition and either starts
// the next round or concludes the series.
func (s *SeriesService) advance(ctx context.Context, item lobby.Lobby, round int) error {
	matches, err := s.matchRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list matches by lobby: %w", err)
	}

	roundDone := true
	seriesDone := true
	nextRound := 0
	for _, m := range matches {
		if m.Status != match.StatusFinished {
			seriesDone = false
			if m.Round == round {
				roundDone = false
			}
			if m.Round > round && (nextRound == 0 || m.Round < nextRound) {
				nextRound = m.Round
			}
		}
	}

	if !roundDone {
		return nil
	}
	if !seriesDone {
		if nextRound > 0 {
			return s.StartRound(ctx, item.ID, nextRound)
		}
		return nil
	}

	return s.concludeSeries(ctx, item, matches)
}

// concludeSeries publishes the results panel once and tears the team
// channels down. The panel CAS makes concurrent final validations safe.
func (s *SeriesService) concludeSeries(ctx context.Context, item lobby.Lobby, matches []match.Match) error {
	won, err := s.lobbyRepo.MarkResultsPanelPosted(ctx, item.ID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("mark results panel posted: %w", err)
	}
	if !won {
		return nil
	}

	teams, err := s.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list teams by lobby: %w", err)
	}
	teamNames := make(map[string]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	if _, err := s.gateway.SendMessage(ctx, item.ChannelID, renderResultsPanel(item, matches, teamNames)); err != nil {
		s.logger.WarnContext(ctx, "post results panel failed", "lobby_id", item.ID, "error", err)
	}

	s.teardownChannels(ctx, teams)

	if err := s.lobbyRepo.UpdateStatus(ctx, item.ID, lobby.StatusClosed); err != nil {
		return fmt.Errorf("close lobby: %w", err)
	}

	return nil
}

// teardownChannels deletes every team channel in parallel. Deletions are best
// effort: a missing channel must not block series conclusion.
func (s *SeriesService) teardownChannels(ctx context.Context, teams []team.Team) {
	p := pool.New().WithContext(ctx)
	for i := range teams {
		t := teams[i]
		p.Go(func(ctx context.Context) error {
			for _, channelID := range []string{t.TextChannelID, t.VoiceChannelID, t.CategoryID} {
				if channelID == "" {
					continue
				}
				if err := s.gateway.DeleteChannel(ctx, channelID); err != nil {
					s.logger.WarnContext(ctx, "delete team channel failed",
						"team_id", t.ID, "channel_id", channelID, "error", err)
				}
			}
			return nil
		})
	}
	_ = p.Wait()
}

// postBoardCard publishes the match card and records its id with a
// compare-and-swap. Losing the swap means another start already posted a
// card, so the duplicate is deleted.
func (s *SeriesService) postBoardCard(ctx context.Context, item lobby.Lobby, m match.Match, blueName, redName string) {
	msg, err := s.gateway.SendMessage(ctx, item.ChannelID, renderMatchCard(m, blueName, redName))
	if err != nil {
		s.logger.WarnContext(ctx, "post match card failed", "match_id", m.ID, "error", err)
		return
	}
	won, err := s.matchRepo.SetBoardMessage(ctx, m.ID, msg.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "record match card failed", "match_id", m.ID, "error", err)
		return
	}
	if !won {
		if err := s.gateway.DeleteMessage(ctx, item.ChannelID, msg.ID); err != nil {
			s.logger.WarnContext(ctx, "delete duplicate match card failed", "match_id", m.ID, "error", err)
		}
	}
}

func (s *SeriesService) removeBoardCard(ctx context.Context, item lobby.Lobby, m match.Match) {
	if m.BoardMessageID == "" {
		return
	}
	if err := s.gateway.DeleteMessage(ctx, item.ChannelID, m.BoardMessageID); err != nil {
		s.logger.WarnContext(ctx, "delete match card failed", "match_id", m.ID, "error", err)
	}
	if err := s.matchRepo.ClearBoardMessage(ctx, m.ID); err != nil {
		s.logger.WarnContext(ctx, "clear match card reference failed", "match_id", m.ID, "error", err)
	}
}

// notifyTeams drops each side's draft link into its team text channel.
func (s *SeriesService) notifyTeams(ctx context.Context, blue, red team.Team, links draft.Links, swapped bool) {
	blueURL, redURL := links.Blue, links.Red
	if swapped {
		blueURL, redURL = redURL, blueURL
	}

	p := pool.New().WithContext(ctx)
	targets := []struct {
		t   team.Team
		url string
	}{
		{blue, blueURL},
		{red, redURL},
	}
	for _, target := range targets {
		target := target
		if target.t.TextChannelID == "" {
			continue
		}
		p.Go(func(ctx context.Context) error {
			content := fmt.Sprintf("Your draft is ready: %s\nSpectate: %s", target.url, links.Spectate)
			if _, err := s.gateway.SendMessage(ctx, target.t.TextChannelID, content); err != nil {
				s.logger.WarnContext(ctx, "notify team failed", "team_id", target.t.ID, "error", err)
			}
			return nil
		})
	}
	_ = p.Wait()
}

func (s *SeriesService) teamsByID(ctx context.Context, lobbyID string) (map[string]team.Team, error) {
	teams, err := s.teamRepo.ListByLobby(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("list teams by lobby: %w", err)
	}
	out := make(map[string]team.Team, len(teams))
	for _, t := range teams {
		out[t.ID] = t
	}
	return out, nil
}

func (s *SeriesService) requireLobby(ctx context.Context, lobbyID string) (lobby.Lobby, error) {
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

func (s *SeriesService) requireMatch(ctx context.Context, lobbyID, matchID string) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}
	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	if !exists || m.LobbyID != lobbyID {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return m, nil
}
