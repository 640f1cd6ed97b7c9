package bridge

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/onnwee/slack-irc-bridge/telemetry"
)

// Options configures the relay.
type Options struct {
	// Nickname is the bridge's own IRC nick.
	Nickname string
	// Flags gates the optional status notices.
	Flags NoticeFlags
	// RecipientTTL bounds the DM recipient memory; zero means the default.
	RecipientTTL time.Duration
	// AutoSendCommands are raw IRC commands issued once after registration.
	AutoSendCommands [][]string
	// AllowRawCommands lists the IRC verbs Slack users may pass through
	// verbatim. An empty list disables the pass-through entirely.
	AllowRawCommands []string
	// IconURLFormat renders an avatar URL from a nick for impersonated
	// posts; empty disables icons.
	IconURLFormat string
}

// Relay owns the event wiring between the two collaborators. It registers
// its handlers in explicit per-kind subscription tables at construction and
// dispatches synchronously within each collaborator's event loop; the only
// mutable state it touches per message is the DM recipient memory, which is
// confined to the Slack loop.
type Relay struct {
	irc     IRCConn
	chat    ChatConn
	mapping *ChannelMapping
	tr      *Transformer
	dm      *DMRouter
	notices *NoticeTranslator

	nickname   string
	autoSend   [][]string
	allowRaw   map[string]struct{}
	iconFormat string

	ircUp   atomic.Bool
	slackUp atomic.Bool

	ircHandlers  map[IRCEventKind][]func(IRCEvent)
	chatHandlers map[ChatEventKind][]func(ChatEvent)
}

// NewRelay wires the translation components around the two collaborators.
func NewRelay(irc IRCConn, chat ChatConn, mapping *ChannelMapping, opts Options) *Relay {
	r := &Relay{
		irc:        irc,
		chat:       chat,
		mapping:    mapping,
		nickname:   opts.Nickname,
		autoSend:   opts.AutoSendCommands,
		allowRaw:   make(map[string]struct{}, len(opts.AllowRawCommands)),
		iconFormat: opts.IconURLFormat,
	}
	for _, verb := range opts.AllowRawCommands {
		r.allowRaw[strings.ToUpper(verb)] = struct{}{}
	}
	r.tr = NewTransformer(
		func(id string) (string, bool) {
			ch, err := chat.ChannelByID(id)
			if err != nil {
				return "", false
			}
			return ch.Name, true
		},
		func(id string) (string, bool) {
			u, err := chat.UserByID(id)
			if err != nil {
				return "", false
			}
			return u.Name, true
		},
	)
	r.dm = NewDMRouter(opts.RecipientTTL)
	r.notices = NewNoticeTranslator(opts.Flags, opts.Nickname)
	r.wire()
	return r
}

// wire builds the subscription tables. The relay is the sole owner of
// handler registration for both collaborators.
func (r *Relay) wire() {
	r.ircHandlers = map[IRCEventKind][]func(IRCEvent){
		IRCRegistered: {r.onIRCRegistered},
		IRCMessage:    {r.onIRCMessage},
		IRCNotice:     {r.onIRCNotice},
		IRCAction:     {r.onIRCAction},
		IRCInvite:     {r.onIRCInvite},
		IRCJoin:       {r.onIRCStatusEvent},
		IRCPart:       {r.onIRCStatusEvent},
		IRCQuit:       {r.onIRCStatusEvent},
		IRCKick:       {r.onIRCStatusEvent},
		IRCKill:       {r.onIRCStatusEvent},
		IRCNickChange: {r.onIRCStatusEvent},
		IRCMode:       {r.onIRCStatusEvent},
		IRCTopic:      {r.onIRCStatusEvent},
		IRCError:      {r.onIRCStatusEvent},
		IRCWhois:      {r.onIRCStatusEvent},
	}
	r.chatHandlers = map[ChatEventKind][]func(ChatEvent){
		ChatOpen:           {r.onChatOpen},
		ChatError:          {r.onChatError},
		ChatPresenceChange: {r.onChatPresence},
		ChatMessageEvent:   {r.onChatMessage},
	}
}

// HandleIRCEvent dispatches one IRC event to its registered handlers. It is
// the sink the IRC adapter delivers into.
func (r *Relay) HandleIRCEvent(ev IRCEvent) {
	for _, h := range r.ircHandlers[ev.Kind] {
		h(ev)
	}
}

// HandleChatEvent dispatches one Slack event to its registered handlers.
func (r *Relay) HandleChatEvent(ev ChatEvent) {
	for _, h := range r.chatHandlers[ev.Kind] {
		h(ev)
	}
}

// IRCReady reports whether the IRC side has completed registration.
func (r *Relay) IRCReady() bool { return r.ircUp.Load() }

// SlackReady reports whether the Slack RTM connection is open.
func (r *Relay) SlackReady() bool { return r.slackUp.Load() }

func (r *Relay) onIRCRegistered(IRCEvent) {
	r.ircUp.Store(true)
	telemetry.SetIRCConnected(true)
	slog.Info("irc registered", slog.String("nick", r.nickname))
	for _, cmd := range r.autoSend {
		if len(cmd) > 0 {
			r.irc.SendRaw(cmd...)
		}
	}
	for _, spec := range r.mapping.JoinSpecs() {
		r.irc.Join(spec)
	}
}

func (r *Relay) onIRCMessage(ev IRCEvent) { r.relayIRCText(ev, ev.Text) }
func (r *Relay) onIRCNotice(ev IRCEvent)  { r.relayIRCText(ev, NoticeText(ev.Text)) }
func (r *Relay) onIRCAction(ev IRCEvent)  { r.relayIRCText(ev, ActionText(ev.Text)) }

func (r *Relay) relayIRCText(ev IRCEvent, text string) {
	if strings.EqualFold(ev.Target, r.nickname) {
		// Private message to the bridge: forward to the owner's Slack DM.
		dm, err := r.chat.OwnerDM()
		if err != nil {
			slog.Warn("owner DM unavailable", slog.Any("err", err))
			telemetry.CountDropped("resolution_miss")
			return
		}
		r.postImpersonated(dm, ev.Nick, text)
		return
	}
	slackName, ok := r.mapping.ToSlack(ev.Target)
	if !ok {
		telemetry.CountDropped("unmapped")
		return
	}
	ch, err := r.chat.ChannelByName(slackName)
	if err != nil {
		slog.Warn("slack channel lookup failed",
			slog.String("channel", slackName), slog.Any("err", err))
		telemetry.CountDropped("resolution_miss")
		return
	}
	if members, err := r.chat.Members(ch.ID); err == nil {
		text = Highlight(members, text)
	} else {
		slog.Debug("member lookup failed", slog.String("channel", slackName), slog.Any("err", err))
	}
	r.postImpersonated(ch.ID, ev.Nick, text)
}

func (r *Relay) postImpersonated(channelID, nick, text string) {
	post := ChatPost{Text: text, Username: nick}
	if r.iconFormat != "" {
		post.IconURL = fmt.Sprintf(r.iconFormat, nick)
	}
	if err := r.chat.Post(channelID, post); err != nil {
		// Slack API errors are logged only; IRC users have no channel
		// for bridge diagnostics.
		slog.Error("slack post failed", slog.String("channel_id", channelID), slog.Any("err", err))
		telemetry.CountDropped("post_failed")
		return
	}
	telemetry.CountRelayed("irc_to_slack")
}

func (r *Relay) onIRCInvite(ev IRCEvent) {
	if _, ok := r.mapping.ToSlack(ev.Target); !ok {
		slog.Info("ignoring invite to unmapped channel", slog.String("channel", ev.Target))
		return
	}
	slog.Info("joining on invite", slog.String("channel", ev.Target), slog.String("by", ev.Nick))
	r.irc.Join(ev.Target)
}

func (r *Relay) onIRCStatusEvent(ev IRCEvent) {
	for _, notice := range r.notices.Translate(ev) {
		r.deliverNotice(ev.Kind, notice)
	}
}

func (r *Relay) deliverNotice(kind IRCEventKind, notice Notice) {
	channelID := ""
	if notice.ToOwner {
		dm, err := r.chat.OwnerDM()
		if err != nil {
			slog.Warn("owner DM unavailable", slog.Any("err", err))
			return
		}
		channelID = dm
	} else {
		slackName, ok := r.mapping.ToSlack(notice.IRCChannel)
		if !ok {
			return
		}
		ch, err := r.chat.ChannelByName(slackName)
		if err != nil {
			slog.Warn("slack channel lookup failed",
				slog.String("channel", slackName), slog.Any("err", err))
			return
		}
		channelID = ch.ID
	}
	if err := r.chat.Send(channelID, notice.Text); err != nil {
		slog.Warn("notice send failed", slog.String("channel_id", channelID), slog.Any("err", err))
		return
	}
	telemetry.CountNotice(string(kind))
}

func (r *Relay) onChatOpen(ChatEvent) {
	r.slackUp.Store(true)
	telemetry.SetSlackConnected(true)
	slog.Info("slack connection opened")
}

func (r *Relay) onChatError(ev ChatEvent) {
	slog.Error("slack error", slog.Any("err", ev.Err))
}

func (r *Relay) onChatPresence(ChatEvent) {
	slog.Debug("slack presence change")
}

func (r *Relay) onChatMessage(ev ChatEvent) {
	msg := ev.Message
	if msg.SubType == "bot_message" || strings.EqualFold(msg.Username, "slackbot") {
		// Bot posts include the bridge's own impersonated messages;
		// relaying them back would loop.
		return
	}
	ch, err := r.chat.ChannelByID(msg.ChannelID)
	if err != nil {
		slog.Warn("slack channel lookup failed",
			slog.String("channel_id", msg.ChannelID), slog.Any("err", err))
		telemetry.CountDropped("resolution_miss")
		return
	}
	if ch.IsDM {
		r.routeDM(ch, msg)
		return
	}
	if fields, ok := r.rawCommand(msg.Text); ok {
		r.irc.SendRaw(fields...)
		telemetry.CountRawCommand()
		return
	}
	ircChannel, ok := r.mapping.ToIRC(ch.Name)
	if !ok {
		slog.Debug("slack channel not mapped", slog.String("channel", ch.Name))
		telemetry.CountDropped("unmapped")
		return
	}
	text := r.tr.ToIRC(msg.Text)
	if msg.SubType == "me_message" {
		r.irc.Action(ircChannel, text)
	} else {
		r.irc.Say(ircChannel, text)
	}
	telemetry.CountRelayed("slack_to_irc")
}

func (r *Relay) routeDM(ch ChatChannel, msg ChatMessage) {
	if fields, ok := r.rawCommand(msg.Text); ok {
		r.irc.SendRaw(fields...)
		telemetry.CountRawCommand()
		r.localNotice(ch.ID, "Sent raw command: `"+strings.Join(fields, " ")+"`")
		return
	}
	res := r.dm.Resolve(msg.Text)
	switch res.Outcome {
	case DMDispatch:
		r.irc.Say(res.Nick, r.tr.ToIRC(res.Text))
		telemetry.CountRelayed("slack_to_irc")
	case DMStale:
		telemetry.CountDropped("stale_recipient")
		r.localNotice(ch.ID, fmt.Sprintf(
			"I haven't messaged *%s* in a while, so that wasn't sent. Address your message as `nick: message` to pick a recipient.", res.Nick))
	case DMNoRecipient:
		telemetry.CountDropped("no_recipient")
		r.localNotice(ch.ID, "I don't know who that's for. Address your message as `nick: message`.")
	}
}

// rawCommand reports whether text should be forwarded verbatim as a raw IRC
// command. The shape check alone is not enough: the leading verb must also
// be on the configured allow-list, and an empty allow-list disables the
// pass-through.
func (r *Relay) rawCommand(text string) ([]string, bool) {
	if len(r.allowRaw) == 0 || !IsRawCommand(text) {
		return nil, false
	}
	fields := strings.Fields(text)
	if _, ok := r.allowRaw[fields[0]]; !ok {
		return nil, false
	}
	return fields, true
}

func (r *Relay) localNotice(channelID, text string) {
	if err := r.chat.Send(channelID, text); err != nil {
		slog.Warn("local notice failed", slog.String("channel_id", channelID), slog.Any("err", err))
	}
}
