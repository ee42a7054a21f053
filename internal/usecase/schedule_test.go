package usecase

import (
	"errors"
	"testing"
)

func TestBuildScheduleTwoTeams(t *testing.T) {
	teams := []string{"team-a", "team-b"}

	pairings, err := BuildSchedule("BO3", teams)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(pairings) != 3 {
		t.Fatalf("expected 3 pairings, got %d", len(pairings))
	}
	for i, p := range pairings {
		if p.Round != i+1 {
			t.Fatalf("pairing %d round = %d, want %d", i, p.Round, i+1)
		}
		if p.BlueTeamID != "team-a" || p.RedTeamID != "team-b" {
			t.Fatalf("pairing %d teams = %s vs %s", i, p.BlueTeamID, p.RedTeamID)
		}
	}
}

func TestBuildScheduleFourTeamsRoundRobin(t *testing.T) {
	teams := []string{"t1", "t2", "t3", "t4"}

	pairings, err := BuildSchedule("RR3", teams)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	want := []Pairing{
		{Round: 1, BlueTeamID: "t1", RedTeamID: "t2"},
		{Round: 1, BlueTeamID: "t3", RedTeamID: "t4"},
		{Round: 2, BlueTeamID: "t1", RedTeamID: "t3"},
		{Round: 2, BlueTeamID: "t2", RedTeamID: "t4"},
		{Round: 3, BlueTeamID: "t1", RedTeamID: "t4"},
		{Round: 3, BlueTeamID: "t2", RedTeamID: "t3"},
	}
	if len(pairings) != len(want) {
		t.Fatalf("expected %d pairings, got %d", len(want), len(pairings))
	}
	for i := range want {
		if pairings[i] != want[i] {
			t.Fatalf("pairing %d = %+v, want %+v", i, pairings[i], want[i])
		}
	}
}

func TestBuildScheduleRejectsMismatchedFormat(t *testing.T) {
	if _, err := BuildSchedule("RR2", []string{"a", "b"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for RR format on 2 teams, got %v", err)
	}
	if _, err := BuildSchedule("BO5", []string{"a", "b", "c", "d"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for BO format on 4 teams, got %v", err)
	}
}

func TestBuildScheduleRejectsOddTeamCounts(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5} {
		teams := make([]string, n)
		for i := range teams {
			teams[i] = "t"
		}
		if _, err := BuildSchedule("BO1", teams); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %d teams, got %v", n, err)
		}
	}
}

func TestBuildScheduleRejectsUnknownFormat(t *testing.T) {
	if _, err := BuildSchedule("BO2", []string{"a", "b"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
