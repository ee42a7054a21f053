package faction

import (
	"context"
)

// Repository describes faction persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Faction, error)
	GetByID(ctx context.Context, factionID int) (Faction, bool, error)
	GetByKey(ctx context.Context, key string) (Faction, bool, error)
	GetState(ctx context.Context, factionID int) (State, bool, error)
	SaveState(ctx context.Context, s State) error
	// ListMemberUserIDs returns ids of users whose profile names the
	// faction as their allegiance.
	ListMemberUserIDs(ctx context.Context, factionID int) ([]string, error)

	CreateTransferOffer(ctx context.Context, o TransferOffer) error
	GetTransferOffer(ctx context.Context, offerID string) (TransferOffer, bool, error)
	// SaveTransferOffer persists a status change on an existing offer.
	SaveTransferOffer(ctx context.Context, o TransferOffer) error
}
