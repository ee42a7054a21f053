package lobby

import (
	"fmt"
	"time"
)

type Mode string

const (
	ModeNormal       Mode = "NORMAL"
	ModeSurprise     Mode = "SURPRISE"
	ModeBattleRoyale Mode = "BATTLE_ROYALE"
)

type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusBuilder Status = "BUILDER"
	StatusClosed  Status = "CLOSED"
)

type Role string

const (
	RoleTop     Role = "TOP"
	RoleJungle  Role = "JGL"
	RoleMid     Role = "MID"
	RoleADC     Role = "ADC"
	RoleSupport Role = "SUPP"
	RoleSub     Role = "SUB"
)

// CoreRoles are the roles every team must fill. SUB is the uncapped bench.
func CoreRoles() []Role {
	return []Role{RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport}
}

func ValidRole(r Role) bool {
	switch r {
	case RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport, RoleSub:
		return true
	}
	return false
}

// RoleCap returns the registration capacity for a role given the lobby's team
// count. The second return is false for uncapped roles (SUB).
func RoleCap(teamCount int, role Role) (int, bool) {
	if role == RoleSub {
		return 0, false
	}
	return teamCount, true
}

// Lobby is one registration/competition session, from waiting room to series
// completion. The three marker timestamps are persisted idempotency guards:
// each is set at most once via a compare-and-swap in the repository.
type Lobby struct {
	ID        string
	GuildID   string
	ChannelID string
	Name      string
	Mode      Mode
	TeamCount int
	Status    Status
	Format    string
	CreatedBy string

	ResultsPanelPostedAt *time.Time
	SettledAt            *time.Time
	MvpLockedAt          *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l Lobby) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("lobby id is required")
	}
	if l.GuildID == "" {
		return fmt.Errorf("lobby guild id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("lobby name is required")
	}
	switch l.Mode {
	case ModeNormal, ModeSurprise, ModeBattleRoyale:
	default:
		return fmt.Errorf("lobby mode %q is invalid", l.Mode)
	}
	if l.TeamCount != 2 && l.TeamCount != 4 {
		return fmt.Errorf("lobby team count must be 2 or 4, got %d", l.TeamCount)
	}
	return nil
}

// Participant is one registration under one role within a lobby. UserID is
// empty for synthetic test-fill entries (IsFake).
type Participant struct {
	ID        string
	LobbyID   string
	UserID    string
	Display   string
	Role      Role
	IsFake    bool
	CreatedAt time.Time
}
