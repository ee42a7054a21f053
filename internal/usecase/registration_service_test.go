package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mygleague/inhouse/internal/domain/lobby"
)

func TestRegistrationService_CreateLobby_PostsPanel(t *testing.T) {
	f := newLeagueFixture(t)

	item := f.createWaitingLobby(t, 2)
	if item.Status != lobby.StatusWaiting {
		t.Fatalf("expected WAITING lobby, got %s", item.Status)
	}

	msgs := f.gateway.MessagesIn("chan-lobby")
	if len(msgs) != 1 {
		t.Fatalf("expected one registration panel, got %d", len(msgs))
	}
}

func TestRegistrationService_CreateLobby_SurvivesChatOutage(t *testing.T) {
	f := newLeagueFixture(t)
	f.gateway.FailSends(true)

	item := f.createWaitingLobby(t, 2)

	stored, exists, err := f.lobbyRepo.GetByID(t.Context(), item.ID)
	if err != nil || !exists {
		t.Fatalf("expected lobby persisted despite chat outage: exists=%v err=%v", exists, err)
	}
	if stored.Status != lobby.StatusWaiting {
		t.Fatalf("unexpected status: %s", stored.Status)
	}
}

func TestRegistrationService_CreateLobby_RejectsBadTeamCount(t *testing.T) {
	f := newLeagueFixture(t)

	_, err := f.registration.CreateLobby(t.Context(), CreateLobbyInput{
		GuildID:   "guild-1",
		ChannelID: "chan-lobby",
		Name:      "Odd One",
		Mode:      lobby.ModeNormal,
		TeamCount: 3,
		CreatedBy: "organizer",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegistrationService_Join_SameRoleTogglesLeave(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	joined, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "u1", Display: "u1", Role: lobby.RoleMid,
	})
	if err != nil || !joined {
		t.Fatalf("first join: joined=%v err=%v", joined, err)
	}

	joined, err = f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "u1", Display: "u1", Role: lobby.RoleMid,
	})
	if err != nil {
		t.Fatalf("toggle join failed: %v", err)
	}
	if joined {
		t.Fatal("expected second click on same role to leave")
	}

	_, participants, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	if len(participants) != 0 {
		t.Fatalf("expected empty lobby after toggle, got %d participants", len(participants))
	}
}

func TestRegistrationService_Join_DifferentRoleWhileRegistered(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "u1", Display: "u1", Role: lobby.RoleMid,
	}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	_, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "u1", Display: "u1", Role: lobby.RoleTop,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second role, got %v", err)
	}
}

func TestRegistrationService_Join_RoleCapacity(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	for n := 1; n <= 2; n++ {
		if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
			LobbyID: item.ID,
			UserID:  fmt.Sprintf("jgl-%d", n),
			Display: fmt.Sprintf("jgl-%d", n),
			Role:    lobby.RoleJungle,
		}); err != nil {
			t.Fatalf("join jgl-%d failed: %v", n, err)
		}
	}

	_, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "jgl-3", Display: "jgl-3", Role: lobby.RoleJungle,
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestRegistrationService_Join_SubIsUncapped(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	for n := 1; n <= 7; n++ {
		if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
			LobbyID: item.ID,
			UserID:  fmt.Sprintf("sub-%d", n),
			Display: fmt.Sprintf("sub-%d", n),
			Role:    lobby.RoleSub,
		}); err != nil {
			t.Fatalf("join sub-%d failed: %v", n, err)
		}
	}
}

func TestRegistrationService_Quit(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "u1", Display: "u1", Role: lobby.RoleADC,
	}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if err := f.registration.Quit(t.Context(), item.ID, "u1"); err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	if err := f.registration.Quit(t.Context(), item.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for repeated quit, got %v", err)
	}
}

func TestRegistrationService_TestFill_TopsUpCoreRoles(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "real-mid", Display: "real-mid", Role: lobby.RoleMid,
	}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	added, err := f.registration.TestFill(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("test fill failed: %v", err)
	}
	if added != 9 {
		t.Fatalf("expected 9 synthetic participants, got %d", added)
	}

	_, participants, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	fakes := 0
	for _, p := range participants {
		if p.IsFake {
			fakes++
			if p.UserID != "" {
				t.Fatalf("synthetic participant %s must not carry a user id", p.ID)
			}
		}
	}
	if fakes != 9 {
		t.Fatalf("expected 9 fakes, got %d", fakes)
	}
}

func TestRegistrationService_TestFill_RequiresOrganizer(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	_, err := f.registration.TestFill(t.Context(), item.ID, "random-user")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	f.gateway.GrantRole("guild-1", "staff-user", organizerRoleID)
	if _, err := f.registration.TestFill(t.Context(), item.ID, "staff-user"); err != nil {
		t.Fatalf("expected organizer role to pass, got %v", err)
	}
}

func TestRegistrationService_Freeze_MovesToBuilder(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)

	if err := f.registration.Freeze(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("freeze failed: %v", err)
	}

	frozen, _, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	if frozen.Status != lobby.StatusBuilder {
		t.Fatalf("expected BUILDER, got %s", frozen.Status)
	}

	if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "late", Display: "late", Role: lobby.RoleTop,
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected join after freeze to conflict, got %v", err)
	}
	if err := f.registration.Freeze(t.Context(), item.ID, "organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected repeated freeze to conflict, got %v", err)
	}
}
