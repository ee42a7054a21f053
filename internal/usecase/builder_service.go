package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/team"
	"github.com/mygleague/inhouse/internal/platform/id"
)

type AssignPlayerInput struct {
	LobbyID       string
	ActorID       string
	TeamID        string
	Role          lobby.Role
	ParticipantID string
}

// roundStarter lets the builder kick off the first round after validation
// without importing the series service directly.
type roundStarter interface {
	StartRound(ctx context.Context, lobbyID string, round int) error
}

// BuilderService owns the team composition phase between registration freeze
// and the first match.
type BuilderService struct {
	lobbyRepo   lobby.Repository
	teamRepo    team.Repository
	matchRepo   match.Repository
	gateway     chat.Gateway
	idGen       id.Generator
	starter     roundStarter
	respoRoleID string
	logger      *slog.Logger
	now         func() time.Time
}

func NewBuilderService(
	lobbyRepo lobby.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	gateway chat.Gateway,
	idGen id.Generator,
	respoRoleID string,
	logger *slog.Logger,
) *BuilderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BuilderService{
		lobbyRepo:   lobbyRepo,
		teamRepo:    teamRepo,
		matchRepo:   matchRepo,
		gateway:     gateway,
		idGen:       idGen,
		respoRoleID: respoRoleID,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *BuilderService) SetRoundStarter(starter roundStarter) {
	s.starter = starter
}

// EnsureTeams creates the lobby's team slots up to its team count and drops
// any surplus left over from an earlier configuration.
func (s *BuilderService) EnsureTeams(ctx context.Context, lobbyID string) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BuilderService.EnsureTeams")
	defer span.End()

	item, err := s.requireBuilderLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	existing, err := s.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams by lobby: %w", err)
	}

	have := make(map[int]bool, len(existing))
	for _, t := range existing {
		have[t.Number] = true
	}

	created := make([]team.Team, 0, item.TeamCount)
	now := s.now().UTC()
	for number := 1; number <= item.TeamCount; number++ {
		if have[number] {
			continue
		}
		teamID, err := s.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate team id: %w", err)
		}
		t := team.New(item.ID, teamID, number)
		t.CreatedAt = now
		t.UpdatedAt = now
		created = append(created, t)
	}
	if len(created) > 0 {
		if err := s.teamRepo.CreateBatch(ctx, created); err != nil {
			return nil, fmt.Errorf("create teams: %w", err)
		}
	}
	if err := s.teamRepo.DeleteAboveNumber(ctx, item.ID, item.TeamCount); err != nil {
		return nil, fmt.Errorf("delete surplus teams: %w", err)
	}

	teams, err := s.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams by lobby: %w", err)
	}
	return teams, nil
}

// AssignPlayer seats a participant. The participant is removed from any other
// seat first, and a displaced occupant falls back to the unassigned pool.
func (s *BuilderService) AssignPlayer(ctx context.Context, input AssignPlayerInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.BuilderService.AssignPlayer")
	defer span.End()

	item, err := s.requireBuilderLobby(ctx, input.LobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, input.ActorID); err != nil {
		return err
	}

	input.TeamID = strings.TrimSpace(input.TeamID)
	input.ParticipantID = strings.TrimSpace(input.ParticipantID)
	if input.TeamID == "" || input.ParticipantID == "" {
		return fmt.Errorf("%w: team_id and participant_id are required", ErrInvalidInput)
	}
	isCore := false
	for _, role := range lobby.CoreRoles() {
		if role == input.Role {
			isCore = true
			break
		}
	}
	if !isCore {
		return fmt.Errorf("%w: %s is not an assignable seat", ErrInvalidInput, input.Role)
	}

	t, exists, err := s.teamRepo.GetByID(ctx, input.TeamID)
	if err != nil {
		return fmt.Errorf("get team by id: %w", err)
	}
	if !exists || t.LobbyID != item.ID {
		return fmt.Errorf("%w: team=%s", ErrNotFound, input.TeamID)
	}

	participants, err := s.lobbyRepo.ListParticipants(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	found := false
	for _, p := range participants {
		if p.ID == input.ParticipantID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: participant=%s", ErrNotFound, input.ParticipantID)
	}

	if err := s.teamRepo.AssignExclusive(ctx, item.ID, input.TeamID, input.Role, input.ParticipantID); err != nil {
		return fmt.Errorf("assign participant: %w", err)
	}

	return nil
}

func (s *BuilderService) SetCaptain(ctx context.Context, lobbyID, actorID, teamID, participantID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.BuilderService.SetCaptain")
	defer span.End()

	item, err := s.requireBuilderLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	t, exists, err := s.teamRepo.GetByID(ctx, strings.TrimSpace(teamID))
	if err != nil {
		return fmt.Errorf("get team by id: %w", err)
	}
	if !exists || t.LobbyID != item.ID {
		return fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	if !t.Holds(strings.TrimSpace(participantID)) {
		return fmt.Errorf("%w: captain must hold a seat on the team", ErrInvalidInput)
	}

	if err := s.teamRepo.SetCaptain(ctx, t.ID, strings.TrimSpace(participantID)); err != nil {
		return fmt.Errorf("set captain: %w", err)
	}
	return nil
}

func (s *BuilderService) RenameTeam(ctx context.Context, lobbyID, actorID, teamID, name string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.BuilderService.RenameTeam")
	defer span.End()

	item, err := s.requireBuilderLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if err := team.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	t, exists, err := s.teamRepo.GetByID(ctx, strings.TrimSpace(teamID))
	if err != nil {
		return fmt.Errorf("get team by id: %w", err)
	}
	if !exists || t.LobbyID != item.ID {
		return fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	if err := s.teamRepo.Rename(ctx, t.ID, name); err != nil {
		return fmt.Errorf("rename team: %w", err)
	}
	return nil
}

func (s *BuilderService) SetFormat(ctx context.Context, lobbyID, actorID, format string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.BuilderService.SetFormat")
	defer span.End()

	item, err := s.requireBuilderLobby(ctx, lobbyID)
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}

	format = strings.ToUpper(strings.TrimSpace(format))
	if !ValidFormat(item.TeamCount, format) {
		return fmt.Errorf("%w: format %q is not valid for %d teams", ErrInvalidInput, format, item.TeamCount)
	}

	if err := s.lobbyRepo.SetFormat(ctx, item.ID, format); err != nil {
		return fmt.Errorf("set lobby format: %w", err)
	}
	return nil
}

// ValidateTeams checks every seat is filled, provisions the per-team channel
// trio, expands the format into match rows and starts round one.
func (s *BuilderService) ValidateTeams(ctx context.Context, lobbyID, actorID string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BuilderService.ValidateTeams")
	defer span.End()

	item, err := s.requireBuilderLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return nil, err
	}
	if item.Format == "" {
		return nil, fmt.Errorf("%w: series format is not chosen", ErrConflict)
	}

	existing, err := s.matchRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list matches by lobby: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: lobby %s already has a schedule", ErrConflict, item.ID)
	}

	teams, err := s.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams by lobby: %w", err)
	}
	if len(teams) != item.TeamCount {
		return nil, fmt.Errorf("%w: expected %d teams, found %d", ErrConflict, item.TeamCount, len(teams))
	}
	teamIDs := make([]string, 0, len(teams))
	for _, t := range teams {
		if !t.Complete() {
			return nil, fmt.Errorf("%w: team %s has open seats", ErrConflict, t.Name)
		}
		teamIDs = append(teamIDs, t.ID)
	}

	if err := s.provisionChannels(ctx, item, teams); err != nil {
		return nil, err
	}

	pairings, err := BuildSchedule(item.Format, teamIDs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	matches := make([]match.Match, 0, len(pairings))
	for _, p := range pairings {
		matchID, err := s.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate match id: %w", err)
		}
		matches = append(matches, match.Match{
			ID:         matchID,
			LobbyID:    item.ID,
			Round:      p.Round,
			BlueTeamID: p.BlueTeamID,
			RedTeamID:  p.RedTeamID,
			Status:     match.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if err := s.matchRepo.CreateBatch(ctx, matches); err != nil {
		return nil, fmt.Errorf("create matches: %w", err)
	}

	if s.starter != nil {
		if err := s.starter.StartRound(ctx, item.ID, 1); err != nil {
			return nil, fmt.Errorf("start first round: %w", err)
		}
	}

	return matches, nil
}

// provisionChannels creates each team's category with a text and voice
// channel under it. Teams are provisioned in parallel.
func (s *BuilderService) provisionChannels(ctx context.Context, item lobby.Lobby, teams []team.Team) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i := range teams {
		t := teams[i]
		if t.CategoryID != "" {
			continue
		}
		p.Go(func(ctx context.Context) error {
			category, err := s.gateway.CreateCategory(ctx, item.GuildID, t.Name)
			if err != nil {
				return fmt.Errorf("create category for team %s: %w", t.ID, err)
			}
			text, err := s.gateway.CreateTextChannel(ctx, item.GuildID, category.ID, t.Name)
			if err != nil {
				return fmt.Errorf("create text channel for team %s: %w", t.ID, err)
			}
			voice, err := s.gateway.CreateVoiceChannel(ctx, item.GuildID, category.ID, t.Name)
			if err != nil {
				return fmt.Errorf("create voice channel for team %s: %w", t.ID, err)
			}
			if err := s.teamRepo.SetChannels(ctx, t.ID, category.ID, text.ID, voice.ID); err != nil {
				return fmt.Errorf("save team channels: %w", err)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return fmt.Errorf("provision team channels: %w", err)
	}
	return nil
}

func (s *BuilderService) LineupBoard(ctx context.Context, lobbyID string) (string, error) {
	item, exists, err := s.lobbyRepo.GetByID(ctx, strings.TrimSpace(lobbyID))
	if err != nil {
		return "", fmt.Errorf("get lobby by id: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: lobby=%s", ErrNotFound, lobbyID)
	}
	teams, err := s.teamRepo.ListByLobby(ctx, item.ID)
	if err != nil {
		return "", fmt.Errorf("list teams by lobby: %w", err)
	}
	participants, err := s.lobbyRepo.ListParticipants(ctx, item.ID)
	if err != nil {
		return "", fmt.Errorf("list participants: %w", err)
	}
	return renderLineupBoard(item, teams, participants), nil
}

func (s *BuilderService) requireBuilderLobby(ctx context.Context, lobbyID string) (lobby.Lobby, error) {
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
	if item.Status != lobby.StatusBuilder {
		return lobby.Lobby{}, fmt.Errorf("%w: lobby %s is not in the builder phase", ErrConflict, item.ID)
	}
	return item, nil
}
