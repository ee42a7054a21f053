package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
)

func runningMatches(t *testing.T, f *leagueFixture, lobbyID string) []match.Match {
	t.Helper()
	stored, err := f.matchRepo.ListByLobby(t.Context(), lobbyID)
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	out := make([]match.Match, 0)
	for _, m := range stored {
		if m.Status == match.StatusRunning {
			out = append(out, m)
		}
	}
	return out
}

func TestSeriesService_StartRound_IsIdempotentWhileRunning(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO3")

	before := len(f.gateway.MessagesIn("chan-lobby"))

	if err := f.series.StartRound(t.Context(), item.ID, 1); err != nil {
		t.Fatalf("repeated start round failed: %v", err)
	}

	after := len(f.gateway.MessagesIn("chan-lobby"))
	if after != before {
		t.Fatalf("expected no extra match cards, got %d new", after-before)
	}
	if got := len(runningMatches(t, f, item.ID)); got != 1 {
		t.Fatalf("expected exactly one running match, got %d", got)
	}
}

func TestSeriesService_ValidateMatch_AdvancesToNextRound(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO3")

	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.BlueTeamID); err != nil {
		t.Fatalf("validate match failed: %v", err)
	}

	running := runningMatches(t, f, item.ID)
	if len(running) != 1 {
		t.Fatalf("expected round 2 to auto-start, got %d running", len(running))
	}
	if running[0].Round != 2 {
		t.Fatalf("expected round 2, got %d", running[0].Round)
	}
	if running[0].RoomID == first.RoomID {
		t.Fatal("expected a fresh draft room per round")
	}

	results, err := f.matchRepo.ListResults(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list results failed: %v", err)
	}
	if len(results) != 1 || results[0].WinnerTeamID != first.BlueTeamID {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSeriesService_ValidateMatch_WinnerMustBeASide(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO1")

	first := runningMatches(t, f, item.ID)[0]
	err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", "team-elsewhere")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSeriesService_ValidateMatch_RequiresRunning(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO3")

	stored, err := f.matchRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	var pending match.Match
	for _, m := range stored {
		if m.Status == match.StatusPending {
			pending = m
			break
		}
	}

	if err := f.series.ValidateMatch(t.Context(), item.ID, pending.ID, "organizer", pending.BlueTeamID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected pending match validation to conflict, got %v", err)
	}
}

func TestSeriesService_ConcludeSeries_ClosesAndTearsDown(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	teams := f.startSeries(t, item, "BO1")

	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.RedTeamID); err != nil {
		t.Fatalf("validate match failed: %v", err)
	}

	closed, _, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	if closed.Status != lobby.StatusClosed {
		t.Fatalf("expected CLOSED lobby, got %s", closed.Status)
	}
	if closed.ResultsPanelPostedAt == nil {
		t.Fatal("expected results panel marker to be set")
	}

	for _, tm := range teams {
		refreshed, _, err := f.teamRepo.GetByID(t.Context(), tm.ID)
		if err != nil {
			t.Fatalf("get team failed: %v", err)
		}
		for _, channelID := range []string{refreshed.CategoryID, refreshed.TextChannelID, refreshed.VoiceChannelID} {
			if channelID != "" && !f.gateway.ChannelDeleted(channelID) {
				t.Fatalf("expected channel %s of team %s to be deleted", channelID, tm.Name)
			}
		}
	}

	panels := 0
	for _, msg := range f.gateway.MessagesIn("chan-lobby") {
		if strings.Contains(msg, "- results") {
			panels++
		}
	}
	if panels != 1 {
		t.Fatalf("expected exactly one results panel, got %d", panels)
	}
}

func TestSeriesService_SkipMatch_FinishesWithoutWinner(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO1")

	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.SkipMatch(t.Context(), item.ID, first.ID, "organizer"); err != nil {
		t.Fatalf("skip match failed: %v", err)
	}

	m, _, err := f.matchRepo.GetByID(t.Context(), first.ID)
	if err != nil {
		t.Fatalf("get match failed: %v", err)
	}
	if m.Status != match.StatusFinished || m.WinnerTeamID != "" {
		t.Fatalf("expected skipped match FINISHED without winner, got status=%s winner=%q", m.Status, m.WinnerTeamID)
	}

	if err := f.series.SkipMatch(t.Context(), item.ID, first.ID, "organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected repeated skip to conflict, got %v", err)
	}

	closed, _, err := f.registration.GetLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	if closed.Status != lobby.StatusClosed {
		t.Fatalf("expected skipping the last match to conclude the series, got %s", closed.Status)
	}
}

func TestSeriesService_RepostMatch_ReplacesBoardCard(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO1")

	first := runningMatches(t, f, item.ID)[0]
	if first.BoardMessageID == "" {
		t.Fatal("expected a board card after round start")
	}

	if err := f.series.RepostMatch(t.Context(), item.ID, first.ID, "organizer"); err != nil {
		t.Fatalf("repost failed: %v", err)
	}

	refreshed, _, err := f.matchRepo.GetByID(t.Context(), first.ID)
	if err != nil {
		t.Fatalf("get match failed: %v", err)
	}
	if refreshed.BoardMessageID == "" || refreshed.BoardMessageID == first.BoardMessageID {
		t.Fatalf("expected a fresh board card, got %q", refreshed.BoardMessageID)
	}
}

func TestSeriesService_StartRound_FourTeamsRunsPairsConcurrently(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 4)
	f.fillLobby(t, item)
	f.startSeries(t, item, "RR1")

	running := runningMatches(t, f, item.ID)
	if len(running) != 2 {
		t.Fatalf("expected both round robin pairs running, got %d", len(running))
	}
	seen := make(map[string]bool)
	for _, m := range running {
		for _, teamID := range []string{m.BlueTeamID, m.RedTeamID} {
			if seen[teamID] {
				t.Fatalf("team %s appears in two matches of the same round", teamID)
			}
			seen[teamID] = true
		}
	}
}

func TestSeriesService_ValidateMatch_WaitsForSiblingBeforeNextRound(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 4)
	f.fillLobby(t, item)
	f.startSeries(t, item, "RR1")

	firstRound := runningMatches(t, f, item.ID)
	if len(firstRound) != 2 {
		t.Fatalf("expected two round 1 matches, got %d", len(firstRound))
	}

	// Finishing one pair must not open round 2 while its sibling runs.
	if err := f.series.ValidateMatch(t.Context(), item.ID, firstRound[0].ID, "organizer", firstRound[0].BlueTeamID); err != nil {
		t.Fatalf("validate first pair failed: %v", err)
	}
	running := runningMatches(t, f, item.ID)
	if len(running) != 1 {
		t.Fatalf("expected only the sibling still running, got %d", len(running))
	}
	if running[0].ID != firstRound[1].ID || running[0].Round != 1 {
		t.Fatalf("expected the round 1 sibling, got round %d match %s", running[0].Round, running[0].ID)
	}

	// The sibling's result completes the round and starts the next one
	// exactly once.
	if err := f.series.ValidateMatch(t.Context(), item.ID, firstRound[1].ID, "organizer", firstRound[1].RedTeamID); err != nil {
		t.Fatalf("validate sibling failed: %v", err)
	}
	running = runningMatches(t, f, item.ID)
	if len(running) != 2 {
		t.Fatalf("expected both round 2 matches running, got %d", len(running))
	}
	for _, m := range running {
		if m.Round != 2 {
			t.Fatalf("expected round 2 matches only, got round %d", m.Round)
		}
	}
}

func TestSeriesService_NotifyTeams_SendsDraftLinks(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	teams := f.startSeries(t, item, "BO1")

	for _, tm := range teams {
		msgs := f.gateway.MessagesIn(tm.TextChannelID)
		if len(msgs) != 1 {
			t.Fatalf("expected one draft notification for %s, got %d", tm.Name, len(msgs))
		}
		if !strings.Contains(msgs[0], "lolprodraft.com") {
			t.Fatalf("expected a draft link in the notification: %s", msgs[0])
		}
	}
}
