package match

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

// Match is one scheduled game between two teams of a lobby. Round numbering
// starts at 1; matches of the same round may run concurrently.
type Match struct {
	ID         string
	LobbyID    string
	Round      int
	BlueTeamID string
	RedTeamID  string
	Status     Status

	// Draft room state, populated when the match starts.
	RoomID      string
	BlueURL     string
	RedURL      string
	SpectateURL string
	StreamURL   string

	// BoardMessageID is the posted match card in the board channel. It is
	// set via compare-and-swap so reposts cannot duplicate the card.
	BoardMessageID string

	WinnerTeamID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Result is the settled outcome of a finished match, written once per
// (lobby, match) during finalization.
type Result struct {
	ID           string
	LobbyID      string
	MatchID      string
	WinnerTeamID string
	CreatedAt    time.Time
}

// MvpVote is one participant's vote for a teammate within a finished match.
// A voter holds at most one vote per (match, team); revoting replaces it.
type MvpVote struct {
	ID          string
	LobbyID     string
	MatchID     string
	TeamID      string
	VoterUserID string
	VotedUserID string
	CreatedAt   time.Time
}
