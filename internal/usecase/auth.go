package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/domain/lobby"
)

// requireOrganizer accepts the lobby creator or anyone holding the organizer
// role in the guild.
func requireOrganizer(ctx context.Context, gateway chat.Gateway, organizerRoleID string, item lobby.Lobby, actorID string) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	if actorID == item.CreatedBy {
		return nil
	}
	if organizerRoleID == "" || gateway == nil {
		return fmt.Errorf("%w: user %s cannot manage lobby %s", ErrUnauthorized, actorID, item.ID)
	}
	ok, err := gateway.HasRole(ctx, item.GuildID, actorID, organizerRoleID)
	if err != nil {
		return fmt.Errorf("check organizer role: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s cannot manage lobby %s", ErrUnauthorized, actorID, item.ID)
	}
	return nil
}
