package bridge

import (
	"regexp"
	"strings"
)

// Precompiled patterns for the Slack -> IRC rewrite pipeline.
var (
	reNewlines   = regexp.MustCompile(`\r\n|\r|\n`)
	reChannelRef = regexp.MustCompile(`<#(\w+)(?:\|([^>]*))?>`)
	reUserRef    = regexp.MustCompile(`<@(\w+)(?:\|([^>]*))?>`)
	reBareLink   = regexp.MustCompile(`<([a-z][\w+.-]*:[^<>\s]+)>`)
	reCommandRef = regexp.MustCompile(`<!(\w+)(?:\|([^>]*))?>`)
	reEmoji      = regexp.MustCompile(`:([\w+-]+):`)

	// All-caps leading token followed by content, e.g. "WHOIS edmund".
	// Messages of this shape are candidates for raw command pass-through.
	reRawCommand = regexp.MustCompile(`^[A-Z]+\s\S`)
)

// Transformer rewrites Slack markup into plain IRC text. Each call runs a
// fixed ordered rule list; ordering matters because later rules operate on
// the output of earlier ones (entity unescaping in particular must run
// before any rule that looks at angle brackets).
//
// Channel and user references that the resolvers cannot answer fail open:
// the raw ID is rendered instead of dropping the message.
type Transformer struct {
	lookupChannel func(id string) (string, bool)
	lookupUser    func(id string) (string, bool)
	emoji         map[string]string
	rules         []func(string) string
}

// NewTransformer builds a transformer using the given name resolvers. Either
// resolver may be nil, in which case lookups always miss.
func NewTransformer(lookupChannel, lookupUser func(string) (string, bool)) *Transformer {
	miss := func(string) (string, bool) { return "", false }
	if lookupChannel == nil {
		lookupChannel = miss
	}
	if lookupUser == nil {
		lookupUser = miss
	}
	t := &Transformer{
		lookupChannel: lookupChannel,
		lookupUser:    lookupUser,
		emoji:         emojiTable(),
	}
	t.rules = []func(string) string{
		t.collapseNewlines,
		t.unescapeEntities,
		t.expandBroadcasts,
		t.resolveChannelRefs,
		t.resolveUserRefs,
		t.unwrapLinks,
		t.rewriteCommandRefs,
		t.replaceEmoji,
	}
	return t
}

// ToIRC runs the full Slack -> IRC rewrite pipeline over text.
func (t *Transformer) ToIRC(text string) string {
	for _, rule := range t.rules {
		text = rule(text)
	}
	return text
}

// IRC lines are single-line; any line break becomes a space.
func (t *Transformer) collapseNewlines(s string) string {
	return reNewlines.ReplaceAllString(s, " ")
}

// Slack escapes &, < and > in message text. Decode in gt, lt, amp order so
// "&amp;" never produces a token a later pass would re-decode.
func (t *Transformer) unescapeEntities(s string) string {
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}

func (t *Transformer) expandBroadcasts(s string) string {
	s = strings.ReplaceAll(s, "<!channel>", "@channel")
	s = strings.ReplaceAll(s, "<!group>", "@group")
	s = strings.ReplaceAll(s, "<!everyone>", "@everyone")
	return s
}

func (t *Transformer) resolveChannelRefs(s string) string {
	return reChannelRef.ReplaceAllStringFunc(s, func(match string) string {
		sub := reChannelRef.FindStringSubmatch(match)
		id, label := sub[1], sub[2]
		if label != "" {
			return label
		}
		if name, ok := t.lookupChannel(id); ok {
			return "#" + name
		}
		return "#" + id
	})
}

func (t *Transformer) resolveUserRefs(s string) string {
	return reUserRef.ReplaceAllStringFunc(s, func(match string) string {
		sub := reUserRef.FindStringSubmatch(match)
		id, label := sub[1], sub[2]
		if label != "" {
			return label
		}
		if name, ok := t.lookupUser(id); ok {
			return "@" + name
		}
		return "@" + id
	})
}

// unwrapLinks strips the angle brackets Slack puts around URLs. Labeled
// links keep only the URL part. Only scheme-shaped content is unwrapped, so
// literal angle-bracket text that arrived entity-escaped survives verbatim.
func (t *Transformer) unwrapLinks(s string) string {
	return reBareLink.ReplaceAllStringFunc(s, func(match string) string {
		inner := match[1 : len(match)-1]
		if url, _, found := strings.Cut(inner, "|"); found {
			return url
		}
		return inner
	})
}

// Remaining <!command|label> placeholders render as <label>, falling back to
// <command> when Slack sent no label.
func (t *Transformer) rewriteCommandRefs(s string) string {
	return reCommandRef.ReplaceAllStringFunc(s, func(match string) string {
		sub := reCommandRef.FindStringSubmatch(match)
		command, label := sub[1], sub[2]
		if label != "" {
			return "<" + label + ">"
		}
		return "<" + command + ">"
	})
}

func (t *Transformer) replaceEmoji(s string) string {
	return reEmoji.ReplaceAllStringFunc(s, func(match string) string {
		if glyph, ok := t.emoji[strings.Trim(match, ":")]; ok {
			return glyph
		}
		return match
	})
}

// NoticeText formats an IRC notice for Slack.
func NoticeText(text string) string {
	return "*" + text + "*"
}

// ActionText formats a CTCP ACTION payload for Slack.
func ActionText(text string) string {
	return "_" + text + "_"
}

// IsRawCommand reports whether outbound text looks like a raw IRC protocol
// command rather than chat text. Callers decide whether the pass-through is
// actually permitted; see Relay and its raw-command allow-list.
func IsRawCommand(text string) bool {
	return reRawCommand.MatchString(text)
}
