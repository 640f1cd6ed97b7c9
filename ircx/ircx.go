// Package ircx adapts the go-ircevent client to the bridge's event model.
//
// Beyond translating callbacks into bridge.IRCEvent values, it keeps a small
// membership table (channel -> nicks) fed by JOIN/PART/KICK/QUIT/NICK and
// NAMES replies, so quit, kill, and nick-change events can be fanned out to
// every channel the nick was visible in. It also assembles the WHOIS numeric
// replies into a single whois event.
package ircx

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	irc "github.com/thoj/go-ircevent"

	"github.com/onnwee/slack-irc-bridge/bridge"
)

// Numeric replies treated as user-visible errors and relayed as one notice.
var errorNumerics = []string{
	"401", "402", "403", "404", "405", "421", "432", "433",
	"437", "442", "461", "470", "471", "473", "474", "475", "482",
}

// Options configures the IRC connection.
type Options struct {
	Server         string
	Port           int
	TLS            bool
	ServerPassword string
	Nickname       string
	Username       string
	Debug          bool
}

// Client wraps one go-ircevent connection.
type Client struct {
	conn *irc.Connection
	addr string
	sink func(bridge.IRCEvent)

	// go-ircevent may dispatch callbacks concurrently; membership and
	// whois state take the lock.
	mu      sync.Mutex
	members map[string]map[string]struct{}
	whois   map[string]*bridge.WhoisInfo
}

// New builds a client delivering events into sink. Connect with Start.
func New(opts Options, sink func(bridge.IRCEvent)) *Client {
	username := opts.Username
	if username == "" {
		username = opts.Nickname
	}
	conn := irc.IRC(opts.Nickname, username)
	conn.Password = opts.ServerPassword
	conn.QuitMessage = "bridge shutting down"
	conn.Debug = opts.Debug
	if opts.TLS {
		conn.UseTLS = true
		conn.TLSConfig = &tls.Config{ServerName: opts.Server}
	}
	c := &Client{
		conn:    conn,
		addr:    fmt.Sprintf("%s:%d", opts.Server, opts.Port),
		sink:    sink,
		members: make(map[string]map[string]struct{}),
		whois:   make(map[string]*bridge.WhoisInfo),
	}
	c.register()
	return c
}

// Start connects and runs the read loop in the background. The connection is
// closed when ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	if err := c.conn.Connect(c.addr); err != nil {
		return fmt.Errorf("irc connect %s: %w", c.addr, err)
	}
	slog.Info("irc connected", slog.String("addr", c.addr))
	go func() {
		<-ctx.Done()
		c.conn.Quit()
	}()
	go c.conn.Loop()
	return nil
}

// Say sends a PRIVMSG.
func (c *Client) Say(target, text string) { c.conn.Privmsg(target, text) }

// Action sends a CTCP ACTION.
func (c *Client) Action(target, text string) { c.conn.Action(target, text) }

// Join joins a channel; the spec may carry a password ("#chan key").
func (c *Client) Join(channel string) { c.conn.Join(channel) }

// SendRaw forwards a raw protocol command.
func (c *Client) SendRaw(args ...string) {
	if len(args) == 0 {
		return
	}
	c.conn.SendRaw(strings.Join(args, " "))
}

func (c *Client) emit(ev bridge.IRCEvent) { c.sink(ev) }

func (c *Client) register() {
	conn := c.conn
	conn.AddCallback("001", func(*irc.Event) {
		c.mu.Lock()
		c.members = make(map[string]map[string]struct{})
		c.mu.Unlock()
		c.emit(bridge.IRCEvent{Kind: bridge.IRCRegistered})
	})
	conn.AddCallback("353", c.onNames)
	conn.AddCallback("PRIVMSG", func(e *irc.Event) {
		c.emit(bridge.IRCEvent{Kind: bridge.IRCMessage, Nick: e.Nick, Target: targetOf(e), Text: e.Message()})
	})
	conn.AddCallback("NOTICE", func(e *irc.Event) {
		if e.Nick == "" || e.Nick == "*" {
			return // server notice, not chat
		}
		c.emit(bridge.IRCEvent{Kind: bridge.IRCNotice, Nick: e.Nick, Target: targetOf(e), Text: e.Message()})
	})
	conn.AddCallback("CTCP_ACTION", func(e *irc.Event) {
		c.emit(bridge.IRCEvent{Kind: bridge.IRCAction, Nick: e.Nick, Target: targetOf(e), Text: e.Message()})
	})
	conn.AddCallback("JOIN", c.onJoin)
	conn.AddCallback("PART", c.onPart)
	conn.AddCallback("QUIT", c.onQuit)
	conn.AddCallback("KICK", c.onKick)
	conn.AddCallback("KILL", c.onKill)
	conn.AddCallback("NICK", c.onNick)
	conn.AddCallback("MODE", c.onMode)
	conn.AddCallback("TOPIC", c.onTopic)
	conn.AddCallback("INVITE", c.onInvite)
	conn.AddCallback("ERROR", func(e *irc.Event) {
		c.emit(bridge.IRCEvent{Kind: bridge.IRCError, Text: e.Message()})
	})
	for _, code := range errorNumerics {
		conn.AddCallback(code, c.onErrorNumeric)
	}
	for _, code := range []string{"301", "311", "312", "317", "318", "319", "330"} {
		conn.AddCallback(code, c.onWhoisNumeric)
	}
}

// targetOf returns the lowercased first parameter: the channel, or our own
// nick for private messages.
func targetOf(e *irc.Event) string {
	if len(e.Arguments) == 0 {
		return ""
	}
	return strings.ToLower(e.Arguments[0])
}

func (c *Client) onNames(e *irc.Event) {
	// RPL_NAMREPLY: <me> <symbol> <channel> :nick1 nick2 ...
	if len(e.Arguments) < 4 {
		return
	}
	channel := strings.ToLower(e.Arguments[2])
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, nick := range strings.Fields(e.Message()) {
		c.addMemberLocked(channel, strings.TrimLeft(nick, "@+%&~"))
	}
}

func (c *Client) onJoin(e *irc.Event) {
	channel := targetOf(e)
	c.mu.Lock()
	c.addMemberLocked(channel, e.Nick)
	c.mu.Unlock()
	c.emit(bridge.IRCEvent{Kind: bridge.IRCJoin, Nick: e.Nick, Target: channel})
}

func (c *Client) onPart(e *irc.Event) {
	channel := targetOf(e)
	c.mu.Lock()
	c.removeMemberLocked(channel, e.Nick)
	c.mu.Unlock()
	reason := ""
	if len(e.Arguments) > 1 {
		reason = e.Message()
	}
	c.emit(bridge.IRCEvent{Kind: bridge.IRCPart, Nick: e.Nick, Target: channel, Text: reason})
}

func (c *Client) onQuit(e *irc.Event) {
	channels := c.dropNick(e.Nick)
	c.emit(bridge.IRCEvent{Kind: bridge.IRCQuit, Nick: e.Nick, Text: e.Message(), Channels: channels})
}

func (c *Client) onKick(e *irc.Event) {
	// KICK <channel> <nick> [:reason]
	if len(e.Arguments) < 2 {
		return
	}
	channel := strings.ToLower(e.Arguments[0])
	kicked := e.Arguments[1]
	reason := ""
	if len(e.Arguments) > 2 {
		reason = e.Message()
	}
	c.mu.Lock()
	c.removeMemberLocked(channel, kicked)
	c.mu.Unlock()
	c.emit(bridge.IRCEvent{Kind: bridge.IRCKick, Nick: kicked, By: e.Nick, Target: channel, Text: reason})
}

func (c *Client) onKill(e *irc.Event) {
	// KILL <nick> [:reason]
	if len(e.Arguments) == 0 {
		return
	}
	nick := e.Arguments[0]
	reason := ""
	if len(e.Arguments) > 1 {
		reason = e.Message()
	}
	channels := c.dropNick(nick)
	c.emit(bridge.IRCEvent{Kind: bridge.IRCKill, Nick: nick, Text: reason, Channels: channels})
}

func (c *Client) onNick(e *irc.Event) {
	newNick := e.Message()
	c.mu.Lock()
	var channels []string
	for channel, nicks := range c.members {
		if _, ok := nicks[e.Nick]; ok {
			delete(nicks, e.Nick)
			nicks[newNick] = struct{}{}
			channels = append(channels, channel)
		}
	}
	c.mu.Unlock()
	sort.Strings(channels)
	c.emit(bridge.IRCEvent{Kind: bridge.IRCNickChange, Nick: e.Nick, NewNick: newNick, Channels: channels})
}

// Channel modes that consume an argument when set. +l only takes one when
// adding; ban-like list modes always do.
func modeTakesArg(mode byte, adding bool) bool {
	switch mode {
	case 'o', 'v', 'h', 'b', 'e', 'I', 'k':
		return true
	case 'l':
		return adding
	}
	return false
}

// isChannelName reports whether name starts with one of the RFC 2811 channel
// type prefixes.
func isChannelName(name string) bool {
	return name != "" && strings.ContainsAny(name[:1], "#&+!")
}

func (c *Client) onMode(e *irc.Event) {
	// MODE <target> <modes> [args...]; only channel modes are relayed.
	if len(e.Arguments) < 2 || !isChannelName(e.Arguments[0]) {
		return
	}
	channel := strings.ToLower(e.Arguments[0])
	modes := e.Arguments[1]
	args := e.Arguments[2:]
	adding := true
	argIdx := 0
	for i := 0; i < len(modes); i++ {
		switch modes[i] {
		case '+':
			adding = true
		case '-':
			adding = false
		default:
			arg := ""
			if modeTakesArg(modes[i], adding) && argIdx < len(args) {
				arg = args[argIdx]
				argIdx++
			}
			sign := "+"
			if !adding {
				sign = "-"
			}
			c.emit(bridge.IRCEvent{
				Kind:    bridge.IRCMode,
				Target:  channel,
				By:      e.Nick,
				Mode:    sign + string(modes[i]),
				ModeArg: arg,
			})
		}
	}
}

func (c *Client) onTopic(e *irc.Event) {
	c.emit(bridge.IRCEvent{Kind: bridge.IRCTopic, Nick: e.Nick, Target: targetOf(e), Text: e.Message()})
}

func (c *Client) onInvite(e *irc.Event) {
	// INVITE <me> <channel>
	if len(e.Arguments) < 2 {
		return
	}
	c.emit(bridge.IRCEvent{Kind: bridge.IRCInvite, Nick: e.Nick, Target: strings.ToLower(e.Arguments[1])})
}

func (c *Client) onErrorNumeric(e *irc.Event) {
	// Drop the leading target (our nick); the rest is the useful text.
	text := strings.Join(e.Arguments, " ")
	if len(e.Arguments) > 1 {
		text = strings.Join(e.Arguments[1:], " ")
	}
	c.emit(bridge.IRCEvent{Kind: bridge.IRCError, Text: text})
}

func (c *Client) onWhoisNumeric(e *irc.Event) {
	if len(e.Arguments) < 2 {
		return
	}
	nick := e.Arguments[1]
	c.mu.Lock()
	w, ok := c.whois[nick]
	if !ok {
		w = &bridge.WhoisInfo{Nick: nick}
		c.whois[nick] = w
	}
	switch e.Code {
	case "311": // <me> <nick> <user> <host> * :realname
		if len(e.Arguments) >= 4 {
			w.User = e.Arguments[2]
			w.Host = e.Arguments[3]
			w.Realname = e.Message()
		}
	case "301": // <me> <nick> :away message
		w.Away = e.Message()
	case "312": // <me> <nick> <server> :server info
		if len(e.Arguments) >= 3 {
			w.Server = e.Arguments[2]
		}
	case "317": // <me> <nick> <idle seconds> [<signon>] :seconds idle
		if len(e.Arguments) >= 3 {
			if secs, err := strconv.Atoi(e.Arguments[2]); err == nil {
				w.IdleSeconds = secs
			}
		}
	case "319": // <me> <nick> :#chan1 #chan2
		w.Channels = strings.Fields(e.Message())
	case "330": // <me> <nick> <account> :is logged in as
		if len(e.Arguments) >= 3 {
			w.Account = e.Arguments[2]
		}
	case "318": // end of WHOIS
		delete(c.whois, nick)
		c.mu.Unlock()
		c.emit(bridge.IRCEvent{Kind: bridge.IRCWhois, Nick: nick, Whois: w})
		return
	}
	c.mu.Unlock()
}

// dropNick removes a nick from every channel and returns the channels it was
// in, sorted for stable fan-out order.
func (c *Client) dropNick(nick string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var channels []string
	for channel, nicks := range c.members {
		if _, ok := nicks[nick]; ok {
			delete(nicks, nick)
			channels = append(channels, channel)
		}
	}
	sort.Strings(channels)
	return channels
}

func (c *Client) addMemberLocked(channel, nick string) {
	if channel == "" || nick == "" {
		return
	}
	nicks, ok := c.members[channel]
	if !ok {
		nicks = make(map[string]struct{})
		c.members[channel] = nicks
	}
	nicks[nick] = struct{}{}
}

func (c *Client) removeMemberLocked(channel, nick string) {
	if nicks, ok := c.members[channel]; ok {
		delete(nicks, nick)
	}
}
