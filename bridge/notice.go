package bridge

import (
	"fmt"
	"strings"
	"time"
)

// NoticeFlags selects which optional protocol events are surfaced as Slack
// notices. Kick, kill, topic, error, and whois notices are always on.
type NoticeFlags struct {
	Join       bool
	Leave      bool
	ChangeNick bool
	Modes      bool
}

// Notice is one formatted line destined for the Slack side. ToOwner notices
// go to the configured owner's DM instead of a mapped channel.
type Notice struct {
	IRCChannel string
	ToOwner    bool
	Text       string
}

type noticeFormatter func(ev IRCEvent) []Notice

// NoticeTranslator maps IRC protocol events to Slack notice lines. A
// formatter is only registered when its flag is enabled, so disabled events
// translate to nothing at all.
type NoticeTranslator struct {
	formatters map[IRCEventKind]noticeFormatter
	selfNick   string
	now        func() time.Time
}

// NewNoticeTranslator builds the formatter registry for the given flags.
// selfNick is the bridge's own IRC nick, used to suppress echoing its own
// joins.
func NewNoticeTranslator(flags NoticeFlags, selfNick string) *NoticeTranslator {
	n := &NoticeTranslator{
		formatters: make(map[IRCEventKind]noticeFormatter),
		selfNick:   selfNick,
		now:        time.Now,
	}
	if flags.Join {
		n.formatters[IRCJoin] = n.joinNotice
	}
	if flags.Leave {
		n.formatters[IRCPart] = n.partNotice
		n.formatters[IRCQuit] = n.quitNotice
	}
	if flags.ChangeNick {
		n.formatters[IRCNickChange] = n.nickNotice
	}
	if flags.Modes {
		n.formatters[IRCMode] = n.modeNotice
	}
	n.formatters[IRCKick] = n.kickNotice
	n.formatters[IRCKill] = n.killNotice
	n.formatters[IRCTopic] = n.topicNotice
	n.formatters[IRCError] = n.errorNotice
	n.formatters[IRCWhois] = n.whoisNotice
	return n
}

// Translate maps one protocol event to zero or more notices. Events without
// a registered formatter produce nothing.
func (n *NoticeTranslator) Translate(ev IRCEvent) []Notice {
	if f, ok := n.formatters[ev.Kind]; ok {
		return f(ev)
	}
	return nil
}

func (n *NoticeTranslator) joinNotice(ev IRCEvent) []Notice {
	if ev.Nick == n.selfNick {
		return nil
	}
	return channelNotice(ev.Target, fmt.Sprintf("*%s* has joined the IRC channel", ev.Nick))
}

func (n *NoticeTranslator) partNotice(ev IRCEvent) []Notice {
	return channelNotice(ev.Target, fmt.Sprintf("*%s* has left the IRC channel", ev.Nick))
}

func (n *NoticeTranslator) quitNotice(ev IRCEvent) []Notice {
	return fanOut(ev.Channels, fmt.Sprintf("*%s* has quit the IRC channel", ev.Nick))
}

func (n *NoticeTranslator) kickNotice(ev IRCEvent) []Notice {
	text := fmt.Sprintf("*%s* has been kicked from the IRC channel by *%s*", ev.Nick, ev.By)
	if ev.Text != "" {
		text += " (" + ev.Text + ")"
	}
	return channelNotice(ev.Target, text)
}

func (n *NoticeTranslator) killNotice(ev IRCEvent) []Notice {
	text := fmt.Sprintf("*%s* has been killed from the IRC server", ev.Nick)
	if ev.Text != "" {
		text += " (" + ev.Text + ")"
	}
	return fanOut(ev.Channels, text)
}

func (n *NoticeTranslator) nickNotice(ev IRCEvent) []Notice {
	return fanOut(ev.Channels, fmt.Sprintf("*%s* is now known as *%s*", ev.Nick, ev.NewNick))
}

func (n *NoticeTranslator) modeNotice(ev IRCEvent) []Notice {
	text := fmt.Sprintf("*%s* sets mode *%s*", ev.By, ev.Mode)
	if ev.ModeArg != "" {
		text += fmt.Sprintf(" on _%s_", ev.ModeArg)
	}
	return channelNotice(ev.Target, text)
}

func (n *NoticeTranslator) topicNotice(ev IRCEvent) []Notice {
	return channelNotice(ev.Target, fmt.Sprintf("*%s* has changed the topic to: %s", ev.Nick, ev.Text))
}

func (n *NoticeTranslator) errorNotice(ev IRCEvent) []Notice {
	return []Notice{{ToOwner: true, Text: "*IRC error:* " + ev.Text}}
}

// whoisNotice composes a multi-line block. Optional fields only appear when
// the server sent them, each on its own line; idle time is rendered as the
// absolute instant the nick went idle.
func (n *NoticeTranslator) whoisNotice(ev IRCEvent) []Notice {
	w := ev.Whois
	if w == nil {
		return nil
	}
	lines := []string{fmt.Sprintf("*%s* (%s@%s): %s", w.Nick, w.User, w.Host, w.Realname)}
	if w.Account != "" {
		lines = append(lines, "logged in as: "+w.Account)
	}
	if w.Away != "" {
		lines = append(lines, "away: "+w.Away)
	}
	if w.IdleSeconds > 0 {
		idleSince := n.now().Add(-time.Duration(w.IdleSeconds) * time.Second)
		lines = append(lines, "idle since: "+idleSince.Format(time.RFC1123))
	}
	if len(w.Channels) > 0 {
		lines = append(lines, "channels: "+strings.Join(w.Channels, " "))
	}
	if w.Server != "" {
		lines = append(lines, "server: "+w.Server)
	}
	return []Notice{{ToOwner: true, Text: strings.Join(lines, "\n")}}
}

func channelNotice(channel, text string) []Notice {
	return []Notice{{IRCChannel: channel, Text: text}}
}

func fanOut(channels []string, text string) []Notice {
	out := make([]Notice, 0, len(channels))
	for _, ch := range channels {
		out = append(out, Notice{IRCChannel: ch, Text: text})
	}
	return out
}
