package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
)

func TestBuilderService_EnsureTeams_CreatesAndTrims(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)

	if err := f.registration.Freeze(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("freeze failed: %v", err)
	}

	teams, err := f.builder.EnsureTeams(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("ensure teams failed: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	if teams[0].Name != "Team 1" || teams[1].Name != "Team 2" {
		t.Fatalf("unexpected default names: %q %q", teams[0].Name, teams[1].Name)
	}

	// Idempotent on a second call.
	again, err := f.builder.EnsureTeams(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("second ensure teams failed: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("expected 2 teams after second call, got %d", len(again))
	}
}

func TestBuilderService_AssignPlayer_EvictsPreviousSeat(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	teams := f.buildTeams(t, item)

	_, participants, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	var mid1 lobby.Participant
	for _, p := range participants {
		if p.UserID == "MID-1" {
			mid1 = p
		}
	}

	// Move MID-1 from team 1 to team 2. The displaced occupant returns to the
	// pool and the old seat opens.
	if err := f.builder.AssignPlayer(t.Context(), AssignPlayerInput{
		LobbyID:       item.ID,
		ActorID:       "organizer",
		TeamID:        teams[1].ID,
		Role:          lobby.RoleMid,
		ParticipantID: mid1.ID,
	}); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}

	refreshed, err := f.teamRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list teams failed: %v", err)
	}
	if refreshed[0].Slots[lobby.RoleMid] != "" {
		t.Fatalf("expected team 1 mid seat to open, got %s", refreshed[0].Slots[lobby.RoleMid])
	}
	if refreshed[1].Slots[lobby.RoleMid] != mid1.ID {
		t.Fatalf("expected MID-1 on team 2, got %s", refreshed[1].Slots[lobby.RoleMid])
	}
}

func TestBuilderService_AssignPlayer_RejectsSubSeat(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	teams := f.buildTeams(t, item)

	_, participants, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}

	err = f.builder.AssignPlayer(t.Context(), AssignPlayerInput{
		LobbyID:       item.ID,
		ActorID:       "organizer",
		TeamID:        teams[0].ID,
		Role:          lobby.RoleSub,
		ParticipantID: participants[0].ID,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for SUB seat, got %v", err)
	}
}

func TestBuilderService_SetCaptain_RequiresSeat(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	teams := f.buildTeams(t, item)

	team1Mid := teams[0].Slots[lobby.RoleMid]
	if err := f.builder.SetCaptain(t.Context(), item.ID, "organizer", teams[0].ID, team1Mid); err != nil {
		t.Fatalf("set captain failed: %v", err)
	}

	team2Mid := teams[1].Slots[lobby.RoleMid]
	if err := f.builder.SetCaptain(t.Context(), item.ID, "organizer", teams[0].ID, team2Mid); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected captain off the roster to be rejected, got %v", err)
	}
}

func TestBuilderService_RenameTeam_Validates(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	teams := f.buildTeams(t, item)

	if err := f.builder.RenameTeam(t.Context(), item.ID, "organizer", teams[0].ID, "Blue Buff Enjoyers"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if err := f.builder.RenameTeam(t.Context(), item.ID, "organizer", teams[0].ID, "ab"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected short name to be rejected, got %v", err)
	}
}

func TestBuilderService_SetFormat_PerTeamCount(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.buildTeams(t, item)

	if err := f.builder.SetFormat(t.Context(), item.ID, "organizer", "bo3"); err != nil {
		t.Fatalf("set format failed: %v", err)
	}
	if err := f.builder.SetFormat(t.Context(), item.ID, "organizer", "RR1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected RR1 to be invalid for 2 teams, got %v", err)
	}
}

func TestBuilderService_ValidateTeams_SchedulesAndStartsRoundOne(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.buildTeams(t, item)
	if err := f.builder.SetFormat(t.Context(), item.ID, "organizer", "BO3"); err != nil {
		t.Fatalf("set format failed: %v", err)
	}

	matches, err := f.builder.ValidateTeams(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("validate teams failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches for BO3, got %d", len(matches))
	}

	stored, err := f.matchRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	running := 0
	for _, m := range stored {
		if m.Status == match.StatusRunning {
			running++
			if m.Round != 1 {
				t.Fatalf("expected only round 1 running, got round %d", m.Round)
			}
			if m.BlueURL == "" || m.RedURL == "" || m.SpectateURL == "" {
				t.Fatalf("expected draft links on running match %s", m.ID)
			}
		}
	}
	if running != 1 {
		t.Fatalf("expected 1 running match, got %d", running)
	}

	teams, err := f.teamRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list teams failed: %v", err)
	}
	for _, tm := range teams {
		if tm.CategoryID == "" || tm.TextChannelID == "" || tm.VoiceChannelID == "" {
			t.Fatalf("expected channels provisioned for team %s", tm.Name)
		}
	}
}

func TestBuilderService_ValidateTeams_OpenSeatBlocks(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)

	if err := f.registration.Freeze(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("freeze failed: %v", err)
	}
	if _, err := f.builder.EnsureTeams(t.Context(), item.ID); err != nil {
		t.Fatalf("ensure teams failed: %v", err)
	}
	if err := f.builder.SetFormat(t.Context(), item.ID, "organizer", "BO1"); err != nil {
		t.Fatalf("set format failed: %v", err)
	}

	_, err := f.builder.ValidateTeams(t.Context(), item.ID, "organizer")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected open seats to conflict, got %v", err)
	}
}

func TestBuilderService_ValidateTeams_RejectsSecondSchedule(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO1")

	_, err := f.builder.ValidateTeams(t.Context(), item.ID, "organizer")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected existing schedule to conflict, got %v", err)
	}
}

func TestBuilderService_LineupBoard_ListsTeamsAndPool(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)

	// One sub stays in the pool.
	if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
		LobbyID: item.ID, UserID: "bench-1", Display: "bench-1", Role: lobby.RoleSub,
	}); err != nil {
		t.Fatalf("join sub failed: %v", err)
	}
	f.buildTeams(t, item)

	board, err := f.builder.LineupBoard(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("lineup board failed: %v", err)
	}
	for _, want := range []string{"Team 1", "Team 2", "bench-1"} {
		if !strings.Contains(board, want) {
			t.Fatalf("expected board to mention %q:\n%s", want, board)
		}
	}
}
