// Package memory provides an in-process chat.Gateway. It records every call
// so tests can assert on posted content, and it backs local runs where no
// chat platform is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mygleague/inhouse/internal/domain/chat"
)

type sentMessage struct {
	ID        string
	ChannelID string
	Content   string
	Deleted   bool
}

type Gateway struct {
	mu       sync.Mutex
	seq      int
	messages []sentMessage
	channels map[string]chat.Channel
	deleted  map[string]bool
	roles    map[string]bool
	users    map[string]chat.User

	failSends bool
}

func NewGateway() *Gateway {
	return &Gateway{
		channels: make(map[string]chat.Channel),
		deleted:  make(map[string]bool),
		roles:    make(map[string]bool),
		users:    make(map[string]chat.User),
	}
}

// GrantRole marks the user as holding the role for HasRole lookups.
func (g *Gateway) GrantRole(guildID, userID, roleID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[guildID+"::"+userID+"::"+roleID] = true
}

// PutUser registers a member for FetchUser lookups.
func (g *Gateway) PutUser(u chat.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[u.ID] = u
}

// FailSends makes subsequent SendMessage calls return an error.
func (g *Gateway) FailSends(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failSends = fail
}

func (g *Gateway) SendMessage(_ context.Context, channelID, content string) (chat.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failSends {
		return chat.Message{}, fmt.Errorf("chat send unavailable")
	}
	g.seq++
	msg := sentMessage{
		ID:        fmt.Sprintf("msg-%d", g.seq),
		ChannelID: channelID,
		Content:   content,
	}
	g.messages = append(g.messages, msg)
	return chat.Message{ID: msg.ID, ChannelID: channelID}, nil
}

func (g *Gateway) EditMessage(_ context.Context, channelID, messageID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, m := range g.messages {
		if m.ID == messageID && m.ChannelID == channelID {
			g.messages[i].Content = content
			return nil
		}
	}
	return fmt.Errorf("message %s not found", messageID)
}

func (g *Gateway) DeleteMessage(_ context.Context, channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, m := range g.messages {
		if m.ID == messageID && m.ChannelID == channelID {
			g.messages[i].Deleted = true
			return nil
		}
	}
	return nil
}

func (g *Gateway) CreateCategory(_ context.Context, _ string, name string) (chat.Channel, error) {
	return g.createChannel("", name), nil
}

func (g *Gateway) CreateTextChannel(_ context.Context, _ string, parentID, name string) (chat.Channel, error) {
	return g.createChannel(parentID, name), nil
}

func (g *Gateway) CreateVoiceChannel(_ context.Context, _ string, parentID, name string) (chat.Channel, error) {
	return g.createChannel(parentID, name), nil
}

func (g *Gateway) createChannel(parentID, name string) chat.Channel {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	ch := chat.Channel{
		ID:       fmt.Sprintf("chan-%d", g.seq),
		ParentID: parentID,
		Name:     name,
	}
	g.channels[ch.ID] = ch
	return ch
}

func (g *Gateway) DeleteChannel(_ context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.deleted[channelID] = true
	return nil
}

func (g *Gateway) HasRole(_ context.Context, guildID, userID, roleID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.roles[guildID+"::"+userID+"::"+roleID], nil
}

func (g *Gateway) FetchUser(_ context.Context, userID string) (chat.User, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[userID]
	if !ok {
		return chat.User{}, false, nil
	}
	return u, true, nil
}

// MessagesIn returns the non-deleted message contents posted to a channel.
func (g *Gateway) MessagesIn(channelID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0)
	for _, m := range g.messages {
		if m.ChannelID == channelID && !m.Deleted {
			out = append(out, m.Content)
		}
	}
	return out
}

// AllMessages returns every non-deleted message content in send order.
func (g *Gateway) AllMessages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.messages))
	for _, m := range g.messages {
		if !m.Deleted {
			out = append(out, m.Content)
		}
	}
	return out
}

// ChannelDeleted reports whether DeleteChannel was called for the id.
func (g *Gateway) ChannelDeleted(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.deleted[channelID]
}

// ChannelByName finds a created channel by its name.
func (g *Gateway) ChannelByName(name string) (chat.Channel, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, ch := range g.channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return chat.Channel{}, false
}
