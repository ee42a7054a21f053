// Package chat abstracts the community chat platform the league runs on.
// Use cases talk to a Gateway; transport details live in infrastructure.
package chat

import (
	"context"
)

// Message is a posted chat message reference.
type Message struct {
	ID        string
	ChannelID string
}

// Channel is a created channel reference.
type Channel struct {
	ID       string
	ParentID string
	Name     string
}

// User is the minimal member view use cases need.
type User struct {
	ID      string
	Display string
}

// Gateway is the outbound chat surface. Send/Create calls return errors the
// caller must handle; Delete calls are best-effort and callers log rather
// than fail on them.
type Gateway interface {
	SendMessage(ctx context.Context, channelID, content string) (Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	CreateCategory(ctx context.Context, guildID, name string) (Channel, error)
	CreateTextChannel(ctx context.Context, guildID, parentID, name string) (Channel, error)
	CreateVoiceChannel(ctx context.Context, guildID, parentID, name string) (Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error

	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
	FetchUser(ctx context.Context, userID string) (User, bool, error)
}
