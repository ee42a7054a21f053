package battle

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

// Match is one pairing in a battle royale bracket. Winners of round N are
// paired again in round N+1 until a single winner remains; the final round
// is a best of three.
type Match struct {
	ID             string
	LobbyID        string
	Round          int
	UserA          string
	UserB          string
	WinnerUserID   string
	Status         Status
	VoiceChannelID string
	BestOf         int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
