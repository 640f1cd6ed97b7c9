// Package slackx adapts the slack-go client to the bridge's chat-service
// surface: RTM event fan-in plus the lookup and posting calls the relay
// needs. Lookups are cached; the channel directory and user names change
// rarely compared to message volume.
package slackx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slack-go/slack"

	"github.com/onnwee/slack-irc-bridge/bridge"
)

// Client wraps one Slack API client and its RTM connection.
type Client struct {
	api   *slack.Client
	rtm   *slack.RTM
	sink  func(bridge.ChatEvent)
	owner string

	mu         sync.Mutex
	selfID     string
	userNames  map[string]string // user id -> name
	channelIDs map[string]string // channel name -> id
	ownerDM    string
}

// New builds a client delivering events into sink. owner is the workspace
// handle of the human the bridge acts for. Connect with Start.
func New(token, owner string, sink func(bridge.ChatEvent)) *Client {
	api := slack.New(token)
	return &Client{
		api:        api,
		rtm:        api.NewRTM(),
		sink:       sink,
		owner:      owner,
		userNames:  make(map[string]string),
		channelIDs: make(map[string]string),
	}
}

// Start runs the RTM connection and event loop until ctx is cancelled.
func (c *Client) Start(ctx context.Context) {
	go c.rtm.ManageConnection()
	go c.loop(ctx)
}

func (c *Client) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if err := c.rtm.Disconnect(); err != nil {
				slog.Debug("slack disconnect", slog.Any("err", err))
			}
			return
		case msg, ok := <-c.rtm.IncomingEvents:
			if !ok {
				return
			}
			c.dispatch(msg)
		}
	}
}

func (c *Client) dispatch(msg slack.RTMEvent) {
	switch ev := msg.Data.(type) {
	case *slack.ConnectedEvent:
		c.mu.Lock()
		if ev.Info != nil && ev.Info.User != nil {
			c.selfID = ev.Info.User.ID
		}
		c.mu.Unlock()
		c.sink(bridge.ChatEvent{Kind: bridge.ChatOpen})
	case *slack.MessageEvent:
		if ev.User != "" && ev.User == c.self() {
			return // never echo our own messages
		}
		c.sink(bridge.ChatEvent{Kind: bridge.ChatMessageEvent, Message: bridge.ChatMessage{
			ChannelID: ev.Channel,
			UserID:    ev.User,
			Username:  ev.Username,
			Text:      ev.Text,
			SubType:   ev.SubType,
		}})
	case *slack.PresenceChangeEvent:
		c.sink(bridge.ChatEvent{Kind: bridge.ChatPresenceChange})
	case *slack.RTMError:
		c.sink(bridge.ChatEvent{Kind: bridge.ChatError, Err: ev})
	case *slack.InvalidAuthEvent:
		c.sink(bridge.ChatEvent{Kind: bridge.ChatError, Err: errors.New("slack: invalid auth")})
	}
}

func (c *Client) self() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfID
}

// UserByID resolves a Slack user id to its name, caching the result.
func (c *Client) UserByID(id string) (bridge.Member, error) {
	c.mu.Lock()
	name, ok := c.userNames[id]
	c.mu.Unlock()
	if ok {
		return bridge.Member{ID: id, Name: name}, nil
	}
	u, err := c.api.GetUserInfo(id)
	if err != nil {
		return bridge.Member{}, fmt.Errorf("slack user %s: %w", id, err)
	}
	c.mu.Lock()
	c.userNames[u.ID] = u.Name
	c.mu.Unlock()
	return bridge.Member{ID: u.ID, Name: u.Name}, nil
}

// ChannelByID resolves a channel, group, or DM id.
func (c *Client) ChannelByID(id string) (bridge.ChatChannel, error) {
	info, err := c.api.GetConversationInfo(&slack.GetConversationInfoInput{ChannelID: id})
	if err != nil {
		return bridge.ChatChannel{}, fmt.Errorf("slack conversation %s: %w", id, err)
	}
	return bridge.ChatChannel{ID: info.ID, Name: info.Name, IsDM: info.IsIM}, nil
}

// ChannelByName finds a channel or group by name, paging through the
// conversation directory on a cache miss.
func (c *Client) ChannelByName(name string) (bridge.ChatChannel, error) {
	c.mu.Lock()
	id, ok := c.channelIDs[name]
	c.mu.Unlock()
	if ok {
		return bridge.ChatChannel{ID: id, Name: name}, nil
	}
	params := &slack.GetConversationsParameters{
		Types: []string{"public_channel", "private_channel"},
		Limit: 200,
	}
	for {
		channels, cursor, err := c.api.GetConversations(params)
		if err != nil {
			return bridge.ChatChannel{}, fmt.Errorf("slack conversations: %w", err)
		}
		for _, ch := range channels {
			c.mu.Lock()
			c.channelIDs[ch.Name] = ch.ID
			c.mu.Unlock()
			if ch.Name == name {
				return bridge.ChatChannel{ID: ch.ID, Name: ch.Name}, nil
			}
		}
		if cursor == "" {
			return bridge.ChatChannel{}, fmt.Errorf("slack channel %q not found", name)
		}
		params.Cursor = cursor
	}
}

// Members lists the resolvable members of a conversation.
func (c *Client) Members(channelID string) ([]bridge.Member, error) {
	var out []bridge.Member
	params := &slack.GetUsersInConversationParameters{ChannelID: channelID, Limit: 200}
	for {
		ids, cursor, err := c.api.GetUsersInConversation(params)
		if err != nil {
			return nil, fmt.Errorf("slack members of %s: %w", channelID, err)
		}
		for _, id := range ids {
			m, err := c.UserByID(id)
			if err != nil {
				slog.Debug("skipping unresolvable member", slog.String("user_id", id), slog.Any("err", err))
				continue
			}
			out = append(out, m)
		}
		if cursor == "" {
			return out, nil
		}
		params.Cursor = cursor
	}
}

// Post publishes a message under an impersonated identity.
func (c *Client) Post(channelID string, msg bridge.ChatPost) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionAsUser(false),
	}
	if msg.Username != "" {
		opts = append(opts, slack.MsgOptionUsername(msg.Username))
	}
	if msg.IconURL != "" {
		opts = append(opts, slack.MsgOptionIconURL(msg.IconURL))
	}
	_, _, err := c.api.PostMessage(channelID, opts...)
	return err
}

// Send delivers plain text over RTM as the bridge itself; used for local
// notices back to a sender.
func (c *Client) Send(channelID, text string) error {
	c.rtm.SendMessage(c.rtm.NewOutgoingMessage(text, channelID))
	return nil
}

// OwnerDM opens (once) and returns the DM channel with the configured owner.
func (c *Client) OwnerDM() (string, error) {
	c.mu.Lock()
	cached := c.ownerDM
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}
	uid, err := c.userIDByName(c.owner)
	if err != nil {
		return "", err
	}
	ch, _, _, err := c.api.OpenConversation(&slack.OpenConversationParameters{Users: []string{uid}})
	if err != nil {
		return "", fmt.Errorf("open DM with %s: %w", c.owner, err)
	}
	c.mu.Lock()
	c.ownerDM = ch.ID
	c.mu.Unlock()
	return ch.ID, nil
}

func (c *Client) userIDByName(name string) (string, error) {
	users, err := c.api.GetUsers()
	if err != nil {
		return "", fmt.Errorf("slack users: %w", err)
	}
	for _, u := range users {
		if u.Name == name {
			c.mu.Lock()
			c.userNames[u.ID] = u.Name
			c.mu.Unlock()
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("slack user %q not found", name)
}
