package usecase

import (
	"fmt"
	"strings"
)

// Pairing is one scheduled game between two team positions.
type Pairing struct {
	Round      int
	BlueTeamID string
	RedTeamID  string
}

// Two-team series formats map to a fixed number of rounds of the same pair.
// Four-team round robin formats add pair sets round by round.
var seriesRounds = map[string]int{
	"BO1": 1,
	"BO3": 3,
	"BO5": 5,
	"RR1": 1,
	"RR2": 2,
	"RR3": 3,
}

func ValidFormat(teamCount int, format string) bool {
	switch teamCount {
	case 2:
		return format == "BO1" || format == "BO3" || format == "BO5"
	case 4:
		return format == "RR1" || format == "RR2" || format == "RR3"
	}
	return false
}

// BuildSchedule expands a format into concrete round pairings over the
// lobby's teams, ordered by team number. Only 2 and 4 team lobbies have
// defined schedules.
func BuildSchedule(format string, teamIDs []string) ([]Pairing, error) {
	format = strings.ToUpper(strings.TrimSpace(format))
	rounds, ok := seriesRounds[format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown series format %q", ErrInvalidInput, format)
	}

	switch len(teamIDs) {
	case 2:
		if !ValidFormat(2, format) {
			return nil, fmt.Errorf("%w: format %s needs four teams", ErrInvalidInput, format)
		}
		out := make([]Pairing, 0, rounds)
		for round := 1; round <= rounds; round++ {
			out = append(out, Pairing{Round: round, BlueTeamID: teamIDs[0], RedTeamID: teamIDs[1]})
		}
		return out, nil
	case 4:
		if !ValidFormat(4, format) {
			return nil, fmt.Errorf("%w: format %s needs two teams", ErrInvalidInput, format)
		}
		sets := [][][2]int{
			{{0, 1}, {2, 3}},
			{{0, 2}, {1, 3}},
			{{0, 3}, {1, 2}},
		}
		out := make([]Pairing, 0, rounds*2)
		for round := 1; round <= rounds; round++ {
			for _, pair := range sets[round-1] {
				out = append(out, Pairing{
					Round:      round,
					BlueTeamID: teamIDs[pair[0]],
					RedTeamID:  teamIDs[pair[1]],
				})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: schedule requires 2 or 4 teams, got %d", ErrInvalidInput, len(teamIDs))
	}
}
