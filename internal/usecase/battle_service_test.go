package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/mygleague/inhouse/internal/domain/battle"
	"github.com/mygleague/inhouse/internal/domain/lobby"
)

func (f *leagueFixture) createBattleLobby(t *testing.T, players []string) lobby.Lobby {
	t.Helper()
	item, err := f.registration.CreateLobby(t.Context(), CreateLobbyInput{
		GuildID:   "guild-1",
		ChannelID: "chan-lobby",
		Name:      "Friday Royale",
		Mode:      lobby.ModeBattleRoyale,
		TeamCount: 2,
		CreatedBy: "organizer",
	})
	if err != nil {
		t.Fatalf("create battle lobby failed: %v", err)
	}

	roles := lobby.CoreRoles()
	for i, userID := range players {
		role := roles[i%len(roles)]
		if i >= len(roles)*item.TeamCount {
			role = lobby.RoleSub
		}
		if _, err := f.registration.Join(t.Context(), JoinLobbyInput{
			LobbyID: item.ID, UserID: userID, Display: userID, Role: role,
		}); err != nil {
			t.Fatalf("join %s failed: %v", userID, err)
		}
	}
	return item
}

func battleRound(t *testing.T, f *leagueFixture, lobbyID string, round int) []battle.Match {
	t.Helper()
	matches, err := f.battleRepo.ListByRound(t.Context(), lobbyID, round)
	if err != nil {
		t.Fatalf("list battle round failed: %v", err)
	}
	return matches
}

func TestBattleService_StartBracket_PairsPlayers(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createBattleLobby(t, []string{"p1", "p2", "p3", "p4"})

	matches, err := f.battle.StartBracket(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("start bracket failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 duels, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Status != battle.StatusRunning {
			t.Fatalf("expected running duel, got %s", m.Status)
		}
		if m.VoiceChannelID == "" {
			t.Fatalf("expected a duel voice channel for %s", m.ID)
		}
		if m.BestOf != 1 {
			t.Fatalf("expected BO1 before the final, got BO%d", m.BestOf)
		}
	}

	if _, err := f.battle.StartBracket(t.Context(), item.ID, "organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected second bracket to conflict, got %v", err)
	}
}

func TestBattleService_StartBracket_OddPlayerGetsBye(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createBattleLobby(t, []string{"p1", "p2", "p3"})

	matches, err := f.battle.StartBracket(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("start bracket failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected a duel plus a bye, got %d entries", len(matches))
	}

	byes := 0
	for _, m := range matches {
		if m.Status == battle.StatusFinished {
			byes++
			if m.WinnerUserID != "p3" {
				t.Fatalf("expected the odd player out to advance, got %s", m.WinnerUserID)
			}
		}
	}
	if byes != 1 {
		t.Fatalf("expected exactly one bye, got %d", byes)
	}
}

func TestBattleService_StartBracket_Guards(t *testing.T) {
	f := newLeagueFixture(t)

	normal := f.createWaitingLobby(t, 2)
	if _, err := f.battle.StartBracket(t.Context(), normal.ID, "organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected non-royale lobby to conflict, got %v", err)
	}

	small := f.createBattleLobby(t, []string{"p1"})
	if _, err := f.battle.StartBracket(t.Context(), small.ID, "organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected undersized bracket to conflict, got %v", err)
	}
}

func TestBattleService_ReportWin_RunsBracketToChampion(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createBattleLobby(t, []string{"p1", "p2", "p3", "p4"})

	if _, err := f.battle.StartBracket(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("start bracket failed: %v", err)
	}

	for _, m := range battleRound(t, f, item.ID, 1) {
		if err := f.battle.ReportWin(t.Context(), item.ID, m.ID, "organizer", m.UserA); err != nil {
			t.Fatalf("report win failed: %v", err)
		}
		if !f.gateway.ChannelDeleted(m.VoiceChannelID) {
			t.Fatalf("expected duel voice channel %s to be deleted", m.VoiceChannelID)
		}
	}

	final := battleRound(t, f, item.ID, 2)
	if len(final) != 1 {
		t.Fatalf("expected one final, got %d", len(final))
	}
	if final[0].BestOf != 3 {
		t.Fatalf("expected the final to be BO3, got BO%d", final[0].BestOf)
	}

	if err := f.battle.ReportWin(t.Context(), item.ID, final[0].ID, "organizer", final[0].UserB); err != nil {
		t.Fatalf("report final win failed: %v", err)
	}

	champion := final[0].UserB
	if got := f.balance(t, champion); got != battleChampionPoints {
		t.Fatalf("expected champion credit %d, got %d", battleChampionPoints, got)
	}

	closed, _, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	if closed.Status != lobby.StatusClosed {
		t.Fatalf("expected CLOSED lobby, got %s", closed.Status)
	}

	announced := false
	for _, msg := range f.gateway.MessagesIn("chan-lobby") {
		if strings.Contains(msg, "champion") && strings.Contains(msg, champion) {
			announced = true
		}
	}
	if !announced {
		t.Fatal("expected a champion announcement")
	}
}

func TestBattleService_ReportWin_Guards(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createBattleLobby(t, []string{"p1", "p2"})

	matches, err := f.battle.StartBracket(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("start bracket failed: %v", err)
	}
	duel := matches[0]

	if err := f.battle.ReportWin(t.Context(), item.ID, duel.ID, "organizer", "outsider"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected outsider winner to be invalid, got %v", err)
	}
	if err := f.battle.ReportWin(t.Context(), item.ID, duel.ID, "rando", duel.UserA); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected non-organizer to be unauthorized, got %v", err)
	}

	if err := f.battle.ReportWin(t.Context(), item.ID, duel.ID, "organizer", duel.UserA); err != nil {
		t.Fatalf("report win failed: %v", err)
	}
	if err := f.battle.ReportWin(t.Context(), item.ID, duel.ID, "organizer", duel.UserA); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected finished duel to conflict, got %v", err)
	}
}
