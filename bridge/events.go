package bridge

// IRCEventKind identifies a protocol event delivered by the IRC collaborator.
type IRCEventKind string

const (
	IRCRegistered IRCEventKind = "registered"
	IRCError      IRCEventKind = "error"
	IRCMessage    IRCEventKind = "message"
	IRCNotice     IRCEventKind = "notice"
	IRCAction     IRCEventKind = "action"
	IRCTopic      IRCEventKind = "topic"
	IRCKick       IRCEventKind = "kick"
	IRCKill       IRCEventKind = "kill"
	IRCInvite     IRCEventKind = "invite"
	IRCWhois      IRCEventKind = "whois"
	IRCJoin       IRCEventKind = "join"
	IRCPart       IRCEventKind = "part"
	IRCQuit       IRCEventKind = "quit"
	IRCNickChange IRCEventKind = "nick"
	IRCMode       IRCEventKind = "mode"
)

// IRCEvent is a single protocol event from the IRC side. Fields are
// populated per kind; unused fields stay zero.
type IRCEvent struct {
	Kind    IRCEventKind
	Nick    string // originating (or affected) nick
	Target  string // channel or nick the event addresses, lowercased for channels
	Text    string // message body, part/quit/kick reason, topic, or error text
	NewNick string // nick change: the new nick
	By      string // kick/mode: who performed the action
	Mode    string // mode: signed mode, e.g. "+o"
	ModeArg string // mode: argument, e.g. the affected nick

	// Channels carries the channels a nick was visible in for events that
	// are not addressed to a single channel (quit, kill, nick change).
	Channels []string

	Whois *WhoisInfo
}

// WhoisInfo is an assembled WHOIS response. Optional fields are empty (or
// zero for IdleSeconds) when the server did not include them.
type WhoisInfo struct {
	Nick        string
	User        string
	Host        string
	Realname    string
	Server      string
	Account     string
	Away        string
	IdleSeconds int
	Channels    []string
}

// ChatEventKind identifies an event delivered by the Slack collaborator.
type ChatEventKind string

const (
	ChatOpen           ChatEventKind = "open"
	ChatError          ChatEventKind = "error"
	ChatPresenceChange ChatEventKind = "presence_change"
	ChatMessageEvent   ChatEventKind = "message"
)

// ChatEvent is a single event from the Slack side.
type ChatEvent struct {
	Kind    ChatEventKind
	Err     error
	Message ChatMessage
}

// ChatMessage is an inbound Slack message.
type ChatMessage struct {
	ChannelID string
	UserID    string
	Username  string
	Text      string
	SubType   string
}

// ChatChannel is a resolved Slack channel, group, or DM.
type ChatChannel struct {
	ID   string
	Name string
	IsDM bool
}

// Member is a Slack user known to a destination channel.
type Member struct {
	ID   string
	Name string
}

// ChatPost is a message posted to Slack under an impersonated identity.
type ChatPost struct {
	Text     string
	Username string
	IconURL  string
}

// IRCConn is the command surface of the IRC collaborator consumed by the
// relay. Implementations must be safe to call from the Slack event loop.
type IRCConn interface {
	Say(target, text string)
	Action(target, text string)
	Join(channel string)
	SendRaw(args ...string)
}

// ChatConn is the lookup and posting surface of the Slack collaborator
// consumed by the relay.
type ChatConn interface {
	UserByID(id string) (Member, error)
	ChannelByID(id string) (ChatChannel, error)
	ChannelByName(name string) (ChatChannel, error)
	Members(channelID string) ([]Member, error)
	Post(channelID string, msg ChatPost) error
	Send(channelID, text string) error
	OwnerDM() (string, error)
}
