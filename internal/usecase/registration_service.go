package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/platform/id"
)

type CreateLobbyInput struct {
	GuildID   string
	ChannelID string
	Name      string
	Mode      lobby.Mode
	TeamCount int
	CreatedBy string
}

type JoinLobbyInput struct {
	LobbyID string
	UserID  string
	Display string
	Role    lobby.Role
}

// RegistrationService owns the waiting room phase: opening lobbies, role
// sign-ups and the transition into the team builder.
type RegistrationService struct {
	lobbyRepo   lobby.Repository
	gateway     chat.Gateway
	idGen       id.Generator
	respoRoleID string
	logger      *slog.Logger
	now         func() time.Time
}

func NewRegistrationService(
	lobbyRepo lobby.Repository,
	gateway chat.Gateway,
	idGen id.Generator,
	respoRoleID string,
	logger *slog.Logger,
) *RegistrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistrationService{
		lobbyRepo:   lobbyRepo,
		gateway:     gateway,
		idGen:       idGen,
		respoRoleID: respoRoleID,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *RegistrationService) CreateLobby(ctx context.Context, input CreateLobbyInput) (lobby.Lobby, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.CreateLobby")
	defer span.End()

	input.GuildID = strings.TrimSpace(input.GuildID)
	input.ChannelID = strings.TrimSpace(input.ChannelID)
	input.Name = strings.TrimSpace(input.Name)
	input.CreatedBy = strings.TrimSpace(input.CreatedBy)

	lobbyID, err := s.idGen.NewID()
	if err != nil {
		return lobby.Lobby{}, fmt.Errorf("generate lobby id: %w", err)
	}

	now := s.now().UTC()
	item := lobby.Lobby{
		ID:        lobbyID,
		GuildID:   input.GuildID,
		ChannelID: input.ChannelID,
		Name:      input.Name,
		Mode:      input.Mode,
		TeamCount: input.TeamCount,
		Status:    lobby.StatusWaiting,
		CreatedBy: input.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return lobby.Lobby{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.lobbyRepo.Create(ctx, item); err != nil {
		return lobby.Lobby{}, fmt.Errorf("create lobby: %w", err)
	}

	// The announcement is best effort: a chat outage must not lose the lobby.
	if _, err := s.gateway.SendMessage(ctx, item.ChannelID, renderRegistrationPanel(item)); err != nil {
		s.logger.WarnContext(ctx, "post registration panel failed", "lobby_id", item.ID, "error", err)
	}

	return item, nil
}

// Join registers the user under a role. Clicking the same role again leaves
// the lobby; picking a different role while registered is rejected so a user
// never holds two seats.
func (s *RegistrationService) Join(ctx context.Context, input JoinLobbyInput) (joined bool, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Join")
	defer span.End()

	input.LobbyID = strings.TrimSpace(input.LobbyID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.Display = strings.TrimSpace(input.Display)
	if input.LobbyID == "" || input.UserID == "" {
		return false, fmt.Errorf("%w: lobby_id and user_id are required", ErrInvalidInput)
	}
	if !lobby.ValidRole(input.Role) {
		return false, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}

	item, err := s.requireLobby(ctx, input.LobbyID)
	if err != nil {
		return false, err
	}
	if item.Status != lobby.StatusWaiting {
		return false, fmt.Errorf("%w: lobby %s is not accepting registrations", ErrConflict, item.ID)
	}

	existing, exists, err := s.lobbyRepo.GetParticipantByUser(ctx, item.ID, input.UserID)
	if err != nil {
		return false, fmt.Errorf("get participant by user: %w", err)
	}
	if exists {
		if existing.Role == input.Role {
			if err := s.lobbyRepo.RemoveParticipant(ctx, item.ID, existing.ID); err != nil {
				return false, fmt.Errorf("remove participant: %w", err)
			}
			return false, nil
		}
		return false, fmt.Errorf("%w: already registered as %s, leave first", ErrConflict, existing.Role)
	}

	if cap, capped := lobby.RoleCap(item.TeamCount, input.Role); capped {
		count, err := s.lobbyRepo.CountByRole(ctx, item.ID, input.Role)
		if err != nil {
			return false, fmt.Errorf("count participants by role: %w", err)
		}
		if count >= cap {
			return false, fmt.Errorf("%w: role %s is full (%d/%d)", ErrCapacityExceeded, input.Role, count, cap)
		}
	}

	participantID, err := s.idGen.NewID()
	if err != nil {
		return false, fmt.Errorf("generate participant id: %w", err)
	}

	if err := s.lobbyRepo.AddParticipant(ctx, lobby.Participant{
		ID:        participantID,
		LobbyID:   item.ID,
		UserID:    input.UserID,
		Display:   input.Display,
		Role:      input.Role,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return false, fmt.Errorf("add participant: %w", err)
	}

	return true, nil
}

func (s *RegistrationService) Quit(ctx context.Context, lobbyID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Quit")
	defer span.End()

	lobbyID = strings.TrimSpace(lobbyID)
	userID = strings.TrimSpace(userID)
	if lobbyID == "" || userID == "" {
		return fmt.Errorf("%w: lobby_id and user_id are required", ErrInvalidInput)
	}

	item, err := s.requireLobby(ctx, lobbyID)
	if err != nil {
		return err
	}

	_, exists, err := s.lobbyRepo.GetParticipantByUser(ctx, item.ID, userID)
	if err != nil {
		return fmt.Errorf("get participant by user: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: user %s is not registered in lobby %s", ErrNotFound, userID, lobbyID)
	}

	if err := s.lobbyRepo.RemoveParticipantsByUser(ctx, item.ID, userID); err != nil {
		return fmt.Errorf("remove participants by user: %w", err)
	}

	return nil
}

// TestFill tops up every core role to its cap with synthetic participants so
// staff can rehearse the builder and series flow without a full house.
func (s *RegistrationService) TestFill(ctx context.Context, lobbyID, actorID string) (added int, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.TestFill")
	defer span.End()

	item, err := s.requireLobby(ctx, strings.TrimSpace(lobbyID))
	if err != nil {
		return 0, err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return 0, err
	}
	if item.Status != lobby.StatusWaiting {
		return 0, fmt.Errorf("%w: lobby %s is not in registration", ErrConflict, item.ID)
	}

	for _, role := range lobby.CoreRoles() {
		cap, _ := lobby.RoleCap(item.TeamCount, role)
		count, err := s.lobbyRepo.CountByRole(ctx, item.ID, role)
		if err != nil {
			return added, fmt.Errorf("count participants by role: %w", err)
		}
		for i := count; i < cap; i++ {
			participantID, err := s.idGen.NewID()
			if err != nil {
				return added, fmt.Errorf("generate participant id: %w", err)
			}
			if err := s.lobbyRepo.AddParticipant(ctx, lobby.Participant{
				ID:        participantID,
				LobbyID:   item.ID,
				Display:   fmt.Sprintf("Fake %s %d", role, i+1),
				Role:      role,
				IsFake:    true,
				CreatedAt: s.now().UTC(),
			}); err != nil {
				return added, fmt.Errorf("add fake participant: %w", err)
			}
			added++
		}
	}

	return added, nil
}

// Freeze closes registration and moves the lobby into the team builder.
func (s *RegistrationService) Freeze(ctx context.Context, lobbyID, actorID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Freeze")
	defer span.End()

	item, err := s.requireLobby(ctx, strings.TrimSpace(lobbyID))
	if err != nil {
		return err
	}
	if err := requireOrganizer(ctx, s.gateway, s.respoRoleID, item, actorID); err != nil {
		return err
	}
	if item.Status != lobby.StatusWaiting {
		return fmt.Errorf("%w: lobby %s is not in registration", ErrConflict, item.ID)
	}

	if err := s.lobbyRepo.UpdateStatus(ctx, item.ID, lobby.StatusBuilder); err != nil {
		return fmt.Errorf("update lobby status: %w", err)
	}

	return nil
}

func (s *RegistrationService) GetLobby(ctx context.Context, lobbyID string) (lobby.Lobby, []lobby.Participant, error) {
	item, err := s.requireLobby(ctx, strings.TrimSpace(lobbyID))
	if err != nil {
		return lobby.Lobby{}, nil, err
	}
	participants, err := s.lobbyRepo.ListParticipants(ctx, item.ID)
	if err != nil {
		return lobby.Lobby{}, nil, fmt.Errorf("list participants: %w", err)
	}
	return item, participants, nil
}

func (s *RegistrationService) requireLobby(ctx context.Context, lobbyID string) (lobby.Lobby, error) {
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
