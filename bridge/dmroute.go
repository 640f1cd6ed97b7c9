package bridge

import (
	"regexp"
	"time"
)

// "nick: message" — an explicit recipient at the start of a direct message.
var reExplicitTarget = regexp.MustCompile(`^([^:\s]+):\s+(.+)$`)

// DefaultRecipientTTL is how long a remembered DM recipient stays usable for
// implicit routing when the configuration does not say otherwise.
const DefaultRecipientTTL = 10 * time.Minute

// DMOutcome is the result of resolving a direct message.
type DMOutcome int

const (
	// DMDispatch: send Text to Nick.
	DMDispatch DMOutcome = iota
	// DMStale: the remembered recipient expired; tell the sender locally
	// and drop the message.
	DMStale
	// DMNoRecipient: no recipient was ever remembered; tell the sender
	// locally and drop the message.
	DMNoRecipient
)

// DMResolution is what the relay should do with a direct message.
type DMResolution struct {
	Outcome DMOutcome
	Nick    string
	Text    string
}

// DMRouter resolves ambiguous direct messages to an IRC nickname using a
// single remembered recipient with a sliding TTL. It is not safe for
// concurrent use; the relay only touches it from the Slack event loop.
type DMRouter struct {
	ttl time.Duration
	now func() time.Time

	lastNick string
	lastSeen time.Time
}

// NewDMRouter returns a router with empty memory. A non-positive ttl falls
// back to DefaultRecipientTTL.
func NewDMRouter(ttl time.Duration) *DMRouter {
	if ttl <= 0 {
		ttl = DefaultRecipientTTL
	}
	return &DMRouter{ttl: ttl, now: time.Now}
}

// Resolve evaluates the three resolution branches in order:
//
//  1. Explicit "nick: message" always wins and updates memory.
//  2. Otherwise, a remembered recipient within the TTL gets the full text;
//     the expiry slides forward on each dispatch.
//  3. Otherwise the message is dropped with a stale or no-recipient outcome;
//     memory is left untouched so the sender's next explicit message decides.
func (r *DMRouter) Resolve(text string) DMResolution {
	if m := reExplicitTarget.FindStringSubmatch(text); m != nil {
		r.lastNick, r.lastSeen = m[1], r.now()
		return DMResolution{Outcome: DMDispatch, Nick: m[1], Text: m[2]}
	}
	if r.lastNick == "" {
		return DMResolution{Outcome: DMNoRecipient}
	}
	if r.now().Sub(r.lastSeen) >= r.ttl {
		return DMResolution{Outcome: DMStale, Nick: r.lastNick}
	}
	r.lastSeen = r.now()
	return DMResolution{Outcome: DMDispatch, Nick: r.lastNick, Text: text}
}
