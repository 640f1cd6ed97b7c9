package bridge

import (
	"regexp"
	"sync"
)

// Compiled member-name patterns, keyed by name. Highlight runs on every
// relayed channel message, so patterns are compiled once and reused.
var highlightPatterns sync.Map

// Highlight rewrites bare occurrences of member names in text into Slack
// mention syntax (<@ID>). Only members of the destination channel are
// candidates, which keeps unrelated users from being pinged by accident.
//
// Rules are applied as a left fold over the member list: each member's
// replacement sees the previous member's output, so overlapping names are
// rewritten deterministically in list order.
func Highlight(members []Member, text string) string {
	for _, m := range members {
		if m.Name == "" || m.ID == "" {
			continue
		}
		text = highlightPattern(m.Name).ReplaceAllString(text, "<@"+m.ID+">")
	}
	return text
}

// highlightPattern returns the compiled pattern for a member name. \b only
// asserts at word-character edges, so it is dropped on the sides where the
// name itself ends in a non-word character (nicks like "[bob]" or "{alice}"
// would otherwise never match).
func highlightPattern(name string) *regexp.Regexp {
	if cached, ok := highlightPatterns.Load(name); ok {
		return cached.(*regexp.Regexp)
	}
	left, right := "", ""
	if isWordByte(name[0]) {
		left = `\b`
	}
	if isWordByte(name[len(name)-1]) {
		right = `\b`
	}
	re := regexp.MustCompile(left + regexp.QuoteMeta(name) + right)
	highlightPatterns.Store(name, re)
	return re
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}
