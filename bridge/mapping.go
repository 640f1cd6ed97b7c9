package bridge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyMapping is returned when the configured channel mapping has no
// entries; the bridge has nothing to relay and refuses to start.
var ErrEmptyMapping = errors.New("channel mapping is empty")

// ChannelMapping is the configured bijection between Slack channel names and
// IRC channel names. IRC names are compared case-insensitively and stored
// without any trailing password token ("#chan key" keeps only "#chan").
// The mapping is built once at startup and never mutated afterwards.
type ChannelMapping struct {
	slackToIRC map[string]string
	ircToSlack map[string]string
	joinSpecs  []string // original IRC channel strings, password token intact
}

// NewChannelMapping validates and indexes the slack->irc mapping. It fails
// on an empty map and on two Slack channels resolving to the same normalized
// IRC channel, since that would break the inverse lookup.
func NewChannelMapping(pairs map[string]string) (*ChannelMapping, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyMapping
	}
	m := &ChannelMapping{
		slackToIRC: make(map[string]string, len(pairs)),
		ircToSlack: make(map[string]string, len(pairs)),
	}
	for slackName, ircName := range pairs {
		normalized := NormalizeIRCChannel(ircName)
		if normalized == "" {
			return nil, fmt.Errorf("invalid IRC channel name %q for %q", ircName, slackName)
		}
		if prev, ok := m.ircToSlack[normalized]; ok {
			return nil, fmt.Errorf("IRC channel %q mapped to both %q and %q", normalized, prev, slackName)
		}
		m.slackToIRC[slackName] = normalized
		m.ircToSlack[normalized] = slackName
		m.joinSpecs = append(m.joinSpecs, strings.TrimSpace(ircName))
	}
	sort.Strings(m.joinSpecs)
	return m, nil
}

// NormalizeIRCChannel lowercases an IRC channel name and drops a trailing
// password token, returning "" for blank input.
func NormalizeIRCChannel(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// ToIRC returns the IRC channel mapped to a Slack channel name. Slack names
// are matched case-sensitively; they are ID-like and already canonical.
func (m *ChannelMapping) ToIRC(slackChannel string) (string, bool) {
	irc, ok := m.slackToIRC[slackChannel]
	return irc, ok
}

// ToSlack returns the Slack channel mapped to an IRC channel name,
// case-insensitively.
func (m *ChannelMapping) ToSlack(ircChannel string) (string, bool) {
	slack, ok := m.ircToSlack[NormalizeIRCChannel(ircChannel)]
	return slack, ok
}

// JoinSpecs returns the configured IRC channel strings in stable order,
// including any password token needed for the JOIN command.
func (m *ChannelMapping) JoinSpecs() []string {
	return m.joinSpecs
}

// Len reports the number of mapped channel pairs.
func (m *ChannelMapping) Len() int {
	return len(m.slackToIRC)
}
