package usecase

import (
	"fmt"
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/team"
)

// Chat message bodies are rebuilt on every lobby mutation, so the render
// helpers share pooled buffers instead of allocating per call.

func renderRegistrationPanel(item lobby.Lobby) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("**")
	buf.WriteString(item.Name)
	buf.WriteString("**\n")
	buf.WriteString("Mode: ")
	buf.WriteString(string(item.Mode))
	buf.WriteString(" | Teams: ")
	buf.WriteString(strconv.Itoa(item.TeamCount))
	buf.WriteString("\nPick a role to register. Pick it again to leave.\n")
	for _, role := range lobby.CoreRoles() {
		cap, _ := lobby.RoleCap(item.TeamCount, role)
		fmt.Fprintf(buf, "%s (0/%d)  ", role, cap)
	}
	buf.WriteString(string(lobby.RoleSub))
	buf.WriteString(" (open)")

	return buf.String()
}

func renderLineupBoard(item lobby.Lobby, teams []team.Team, participants []lobby.Participant) string {
	byID := make(map[string]lobby.Participant, len(participants))
	assigned := make(map[string]bool, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("**")
	buf.WriteString(item.Name)
	buf.WriteString(" - lineups**\n")
	for _, t := range teams {
		buf.WriteString("\n__")
		buf.WriteString(t.Name)
		buf.WriteString("__\n")
		for _, role := range lobby.CoreRoles() {
			buf.WriteString(string(role))
			buf.WriteString(": ")
			if pid := t.Slots[role]; pid != "" {
				assigned[pid] = true
				name := byID[pid].Display
				buf.WriteString(name)
				if t.CaptainID == pid {
					buf.WriteString(" (C)")
				}
			} else {
				buf.WriteString("-")
			}
			buf.WriteString("\n")
		}
	}

	buf.WriteString("\n__Pool__\n")
	pooled := 0
	for _, p := range participants {
		if assigned[p.ID] {
			continue
		}
		if pooled > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(buf, "%s (%s)", p.Display, p.Role)
		pooled++
	}
	if pooled == 0 {
		buf.WriteString("empty")
	}

	return buf.String()
}

func renderMatchCard(m match.Match, blueName, redName string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "**Round %d: %s vs %s**\n", m.Round, blueName, redName)
	switch m.Status {
	case match.StatusRunning:
		fmt.Fprintf(buf, "Blue draft: %s\n", m.BlueURL)
		fmt.Fprintf(buf, "Red draft: %s\n", m.RedURL)
		fmt.Fprintf(buf, "Spectate: %s\n", m.SpectateURL)
		fmt.Fprintf(buf, "Stream: %s", m.StreamURL)
	case match.StatusFinished:
		buf.WriteString("Finished.")
	default:
		buf.WriteString("Waiting for the round to start.")
	}

	return buf.String()
}

func renderResultsPanel(item lobby.Lobby, matches []match.Match, teamNames map[string]string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("**")
	buf.WriteString(item.Name)
	buf.WriteString(" - results**\n")
	for _, m := range matches {
		fmt.Fprintf(buf, "Round %d: %s vs %s - ", m.Round, teamNames[m.BlueTeamID], teamNames[m.RedTeamID])
		switch {
		case m.WinnerTeamID != "":
			fmt.Fprintf(buf, "%s wins", teamNames[m.WinnerTeamID])
		case m.Status == match.StatusFinished:
			buf.WriteString("skipped")
		default:
			buf.WriteString("pending")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("Vote for your team's MVP below.")

	return buf.String()
}

func renderMvpStandings(item lobby.Lobby, winners []MvpWinner) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("**")
	buf.WriteString(item.Name)
	buf.WriteString(" - MVP**\n")
	if len(winners) == 0 {
		buf.WriteString("No votes were cast.")
		return buf.String()
	}
	lastTeam := ""
	for _, w := range winners {
		if w.TeamID != lastTeam {
			fmt.Fprintf(buf, "%s\n", w.TeamName)
			lastTeam = w.TeamID
		}
		fmt.Fprintf(buf, "%d. %s (%d votes, +%d pts)\n", w.Rank, w.Display, w.Votes, w.Points)
	}

	return buf.String()
}
