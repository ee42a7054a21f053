package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/infrastructure/repository/memory"
)

// settleBO1 drives a two-team BO1 to a red side win and returns the lobby.
// Team 1 holds the "<ROLE>-1" users, team 2 the "<ROLE>-2" users.
func settleBO1(t *testing.T, f *leagueFixture) lobby.Lobby {
	t.Helper()
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO1")

	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.RedTeamID); err != nil {
		t.Fatalf("validate match failed: %v", err)
	}
	return item
}

func TestSettlementService_FinalizeResults_CreditsWinAndLoss(t *testing.T) {
	f := newLeagueFixture(t)
	item := settleBO1(t, f)

	if err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if got := f.balance(t, "MID-2"); got != 3 {
		t.Fatalf("expected winner credit 3, got %d", got)
	}
	if got := f.balance(t, "MID-1"); got != 1 {
		t.Fatalf("expected loser credit 1, got %d", got)
	}

	entries, err := f.pointsRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list ledger failed: %v", err)
	}
	wins, losses := 0, 0
	for _, e := range entries {
		switch e.Reason {
		case points.ReasonMatchWin:
			wins++
		case points.ReasonMatchLoss:
			losses++
		}
	}
	if wins != 5 || losses != 5 {
		t.Fatalf("expected 5 win and 5 loss rows, got %d/%d", wins, losses)
	}
}

func TestSettlementService_FinalizeResults_SecondCallConflicts(t *testing.T) {
	f := newLeagueFixture(t)
	item := settleBO1(t, f)

	if err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected second finalize to conflict, got %v", err)
	}

	if got := f.balance(t, "MID-2"); got != 3 {
		t.Fatalf("expected no double credit, got %d", got)
	}
}

func TestSettlementService_FinalizeResults_RequiresFinishedMatches(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO3")

	err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected unfinished series to conflict, got %v", err)
	}
}

func TestSettlementService_FinalizeResults_DoublePointsToken(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)

	if err := f.inventoryRepo.AddPendingEffect(t.Context(), inventory.PendingEffect{
		ID:        "effect-1",
		UserID:    "MID-1",
		Kind:      inventory.EffectDoublePoints,
		CreatedAt: fixtureNow,
	}); err != nil {
		t.Fatalf("seed effect failed: %v", err)
	}

	f.startSeries(t, item, "BO1")
	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.RedTeamID); err != nil {
		t.Fatalf("validate match failed: %v", err)
	}
	if err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if got := f.balance(t, "MID-1"); got != 2 {
		t.Fatalf("expected doubled loss credit 2, got %d", got)
	}
	if got := f.balance(t, "MID-2"); got != 3 {
		t.Fatalf("expected undoubled winner credit 3, got %d", got)
	}

	_, hasToken, err := f.inventoryRepo.GetUnconsumedEffect(t.Context(), "MID-1", inventory.EffectDoublePoints)
	if err != nil {
		t.Fatalf("get effect failed: %v", err)
	}
	if hasToken {
		t.Fatal("expected the token to be consumed at settlement")
	}

	marked, err := f.pointsRepo.ExistsReason(t.Context(), points.DoublePointsMarker(item.ID))
	if err != nil {
		t.Fatalf("exists reason failed: %v", err)
	}
	if !marked {
		t.Fatal("expected a zero point marker row for the consumed token")
	}
}

func TestSettlementService_FinalizeResults_SkippedMatchCreditsNothing(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)
	f.startSeries(t, item, "BO1")

	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.SkipMatch(t.Context(), item.ID, first.ID, "organizer"); err != nil {
		t.Fatalf("skip failed: %v", err)
	}
	if err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if got := f.balance(t, "MID-1"); got != 0 {
		t.Fatalf("expected no credit for a skipped match, got %d", got)
	}
}

func TestSettlementService_FinalizeResults_FeedsFactionProgress(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)

	if err := f.factions.Pledge(t.Context(), "MID-2", "DEMACIA"); err != nil {
		t.Fatalf("pledge failed: %v", err)
	}

	f.startSeries(t, item, "BO1")
	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.RedTeamID); err != nil {
		t.Fatalf("validate match failed: %v", err)
	}
	if err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	demacia, _, err := f.factionRepo.GetByKey(t.Context(), "DEMACIA")
	if err != nil {
		t.Fatalf("get faction failed: %v", err)
	}
	state, exists, err := f.factionRepo.GetState(t.Context(), demacia.ID)
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if !exists || state.Progress != 3 {
		t.Fatalf("expected 3 contributed points, got exists=%v progress=%d", exists, state.Progress)
	}
}

func TestSettlementService_CastMvpVote_Rules(t *testing.T) {
	f := newLeagueFixture(t)
	item := settleBO1(t, f)

	first, err := f.matchRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	matchID := first[0].ID

	if err := f.settlement.CastMvpVote(t.Context(), item.ID, matchID, "MID-2", "ADC-2"); err != nil {
		t.Fatalf("teammate vote failed: %v", err)
	}
	if err := f.settlement.CastMvpVote(t.Context(), item.ID, matchID, "MID-2", "TOP-2"); err != nil {
		t.Fatalf("replacing own vote failed: %v", err)
	}
	if err := f.settlement.CastMvpVote(t.Context(), item.ID, matchID, "MID-1", "ADC-2"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected cross-team vote to be rejected, got %v", err)
	}
	if err := f.settlement.CastMvpVote(t.Context(), item.ID, matchID, "stranger", "ADC-2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected non-participant vote to be rejected, got %v", err)
	}

	votes, err := f.matchRepo.ListMvpVotes(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list votes failed: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("expected replace semantics to keep one vote, got %d", len(votes))
	}
	if votes[0].VotedUserID != "TOP-2" {
		t.Fatalf("expected latest pick to win, got %s", votes[0].VotedUserID)
	}
}

func TestSettlementService_LockMvpVotes_CreditsPlacements(t *testing.T) {
	f := newLeagueFixture(t)
	item := settleBO1(t, f)

	matches, err := f.matchRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	matchID := matches[0].ID

	for _, vote := range []struct{ voter, voted string }{
		{"MID-2", "ADC-2"},
		{"TOP-2", "ADC-2"},
		{"JGL-2", "ADC-2"},
		{"ADC-2", "SUPP-2"},
		{"SUPP-2", "SUPP-2"},
		{"MID-1", "TOP-1"},
	} {
		if err := f.settlement.CastMvpVote(t.Context(), item.ID, matchID, vote.voter, vote.voted); err != nil {
			t.Fatalf("vote %s -> %s failed: %v", vote.voter, vote.voted, err)
		}
	}

	winners, err := f.settlement.LockMvpVotes(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	// Placements are per team: TOP-1 tops team 1 on a single vote while
	// ADC-2 and SUPP-2 place first and second on team 2.
	if len(winners) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(winners))
	}
	if winners[0].UserID != "TOP-1" || winners[0].Rank != 1 || winners[0].Points != 5 {
		t.Fatalf("unexpected team 1 rank 1: %+v", winners[0])
	}
	if winners[1].UserID != "ADC-2" || winners[1].Rank != 1 || winners[1].Points != 5 {
		t.Fatalf("unexpected team 2 rank 1: %+v", winners[1])
	}
	if winners[2].UserID != "SUPP-2" || winners[2].Rank != 2 || winners[2].Points != 3 {
		t.Fatalf("unexpected team 2 rank 2: %+v", winners[2])
	}
	if winners[0].TeamID == winners[1].TeamID {
		t.Fatal("expected rank 1 placements on different teams")
	}

	if got := f.balance(t, "TOP-1"); got != 5 {
		t.Fatalf("expected team 1 rank 1 credit 5, got %d", got)
	}
	if got := f.balance(t, "ADC-2"); got != 5 {
		t.Fatalf("expected team 2 rank 1 credit 5, got %d", got)
	}
	if got := f.balance(t, "SUPP-2"); got != 3 {
		t.Fatalf("expected team 2 rank 2 credit 3, got %d", got)
	}

	if err := f.settlement.CastMvpVote(t.Context(), item.ID, matchID, "MID-2", "ADC-2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected votes after lock to conflict, got %v", err)
	}
	if _, err := f.settlement.LockMvpVotes(t.Context(), item.ID, "organizer"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected second lock to conflict, got %v", err)
	}
}

func TestSettlementService_LockMvpVotes_DoublesForTokenHolders(t *testing.T) {
	f := newLeagueFixture(t)
	item := settleBO1(t, f)

	matches, err := f.matchRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	if err := f.settlement.CastMvpVote(t.Context(), item.ID, matches[0].ID, "MID-1", "TOP-1"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if err := f.inventoryRepo.AddPendingEffect(t.Context(), inventory.PendingEffect{
		ID:        "effect-1",
		UserID:    "TOP-1",
		Kind:      inventory.EffectDoublePoints,
		CreatedAt: fixtureNow,
	}); err != nil {
		t.Fatalf("seed effect failed: %v", err)
	}

	winners, err := f.settlement.LockMvpVotes(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if len(winners) != 1 {
		t.Fatalf("expected one placement, got %d", len(winners))
	}
	if winners[0].UserID != "TOP-1" || winners[0].Points != 10 {
		t.Fatalf("expected doubled rank 1 credit 10, got %+v", winners[0])
	}
	if got := f.balance(t, "TOP-1"); got != 10 {
		t.Fatalf("expected balance 10, got %d", got)
	}

	_, hasToken, err := f.inventoryRepo.GetUnconsumedEffect(t.Context(), "TOP-1", inventory.EffectDoublePoints)
	if err != nil {
		t.Fatalf("get effect failed: %v", err)
	}
	if hasToken {
		t.Fatal("expected the token to be consumed at the vote lock")
	}
	marked, err := f.pointsRepo.ExistsReason(t.Context(), points.DoublePointsMarker(item.ID))
	if err != nil {
		t.Fatalf("exists reason failed: %v", err)
	}
	if !marked {
		t.Fatal("expected a zero point marker row for the consumed token")
	}
}

func TestSettlementService_LockMvpVotes_DoublesForSettledTokenHolders(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)

	if err := f.inventoryRepo.AddPendingEffect(t.Context(), inventory.PendingEffect{
		ID:        "effect-1",
		UserID:    "MID-1",
		Kind:      inventory.EffectDoublePoints,
		CreatedAt: fixtureNow,
	}); err != nil {
		t.Fatalf("seed effect failed: %v", err)
	}

	f.startSeries(t, item, "BO1")
	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.RedTeamID); err != nil {
		t.Fatalf("validate match failed: %v", err)
	}
	if err := f.settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	// The token burned at settlement; its marker row still doubles the
	// holder's MVP placement.
	if err := f.settlement.CastMvpVote(t.Context(), item.ID, first.ID, "TOP-1", "MID-1"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	winners, err := f.settlement.LockMvpVotes(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if len(winners) != 1 || winners[0].UserID != "MID-1" || winners[0].Points != 10 {
		t.Fatalf("expected doubled MVP credit 10 for MID-1, got %+v", winners)
	}
	if got := f.balance(t, "MID-1"); got != 12 {
		t.Fatalf("expected balance 12 (doubled loss plus doubled MVP), got %d", got)
	}
}

func TestSettlementService_LockMvpVotes_FeedsFactionProgress(t *testing.T) {
	f := newLeagueFixture(t)
	item := settleBO1(t, f)

	if err := f.factions.Pledge(t.Context(), "TOP-1", "FRELJORD"); err != nil {
		t.Fatalf("pledge failed: %v", err)
	}

	matches, err := f.matchRepo.ListByLobby(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("list matches failed: %v", err)
	}
	if err := f.settlement.CastMvpVote(t.Context(), item.ID, matches[0].ID, "MID-1", "TOP-1"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := f.settlement.LockMvpVotes(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	freljord, _, err := f.factionRepo.GetByKey(t.Context(), "FRELJORD")
	if err != nil {
		t.Fatalf("get faction failed: %v", err)
	}
	state, exists, err := f.factionRepo.GetState(t.Context(), freljord.ID)
	if err != nil {
		t.Fatalf("get state failed: %v", err)
	}
	if !exists || state.Progress != 5 {
		t.Fatalf("expected MVP credit contributed to the faction, got exists=%v progress=%d", exists, state.Progress)
	}
}

// flakyPointsRepo fails batch appends on demand to exercise retry paths.
type flakyPointsRepo struct {
	*memory.PointsRepository
	failBatch bool
}

func (r *flakyPointsRepo) AppendBatch(ctx context.Context, entries []points.Entry) error {
	if r.failBatch {
		return errors.New("ledger unavailable")
	}
	return r.PointsRepository.AppendBatch(ctx, entries)
}

func TestSettlementService_FinalizeResults_RetriesAfterLedgerFailure(t *testing.T) {
	f := newLeagueFixture(t)
	item := f.createWaitingLobby(t, 2)
	f.fillLobby(t, item)

	if err := f.inventoryRepo.AddPendingEffect(t.Context(), inventory.PendingEffect{
		ID:        "effect-1",
		UserID:    "MID-1",
		Kind:      inventory.EffectDoublePoints,
		CreatedAt: fixtureNow,
	}); err != nil {
		t.Fatalf("seed effect failed: %v", err)
	}

	f.startSeries(t, item, "BO1")
	first := runningMatches(t, f, item.ID)[0]
	if err := f.series.ValidateMatch(t.Context(), item.ID, first.ID, "organizer", first.RedTeamID); err != nil {
		t.Fatalf("validate match failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flaky := &flakyPointsRepo{PointsRepository: f.pointsRepo, failBatch: true}
	settlement := NewSettlementService(
		f.lobbyRepo, f.teamRepo, f.matchRepo, flaky, f.inventoryRepo,
		f.gateway, f.idGen, organizerRoleID, logger,
	)
	settlement.now = func() time.Time { return fixtureNow }

	if err := settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err == nil {
		t.Fatal("expected finalize to fail while the ledger is down")
	}

	// A failed attempt leaves nothing behind: the marker is released, the
	// token is intact and no credits landed.
	saved, _, err := f.lobbyRepo.GetByID(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	if saved.SettledAt != nil {
		t.Fatal("expected the settlement marker released after the failure")
	}
	_, hasToken, err := f.inventoryRepo.GetUnconsumedEffect(t.Context(), "MID-1", inventory.EffectDoublePoints)
	if err != nil {
		t.Fatalf("get effect failed: %v", err)
	}
	if !hasToken {
		t.Fatal("expected the token untouched after the failure")
	}
	if got := f.balance(t, "MID-2"); got != 0 {
		t.Fatalf("expected no credits after the failure, got %d", got)
	}

	flaky.failBatch = false
	if err := settlement.FinalizeResults(t.Context(), item.ID, "organizer"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := f.balance(t, "MID-1"); got != 2 {
		t.Fatalf("expected doubled loss credit 2 on retry, got %d", got)
	}
	_, hasToken, err = f.inventoryRepo.GetUnconsumedEffect(t.Context(), "MID-1", inventory.EffectDoublePoints)
	if err != nil {
		t.Fatalf("get effect failed: %v", err)
	}
	if hasToken {
		t.Fatal("expected the token consumed once the retry committed")
	}

	// The vote lock releases its marker the same way.
	if err := settlement.CastMvpVote(t.Context(), item.ID, first.ID, "MID-1", "TOP-1"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	flaky.failBatch = true
	if _, err := settlement.LockMvpVotes(t.Context(), item.ID, "organizer"); err == nil {
		t.Fatal("expected lock to fail while the ledger is down")
	}
	saved, _, err = f.lobbyRepo.GetByID(t.Context(), item.ID)
	if err != nil {
		t.Fatalf("get lobby failed: %v", err)
	}
	if saved.MvpLockedAt != nil {
		t.Fatal("expected the vote lock released after the failure")
	}
	flaky.failBatch = false
	winners, err := settlement.LockMvpVotes(t.Context(), item.ID, "organizer")
	if err != nil {
		t.Fatalf("lock retry failed: %v", err)
	}
	if len(winners) != 1 || winners[0].UserID != "TOP-1" {
		t.Fatalf("expected TOP-1 placement on retry, got %+v", winners)
	}
}
