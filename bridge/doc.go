// Package bridge contains the message translation and routing engine that
// relays conversation between an IRC network and a Slack workspace.
//
// The engine is built from small, independently testable parts:
//   - ChannelMapping: the configured bijection between Slack channel names
//     and IRC channel names.
//   - Transformer: the ordered rewrite pipeline that turns Slack markup into
//     plain IRC text, plus the per-event formatting for the other direction.
//   - Highlight: rewrites bare nicknames into Slack mention syntax so
//     channel members get pinged when addressed from IRC.
//   - DMRouter: resolves ambiguous direct messages to an IRC nickname using
//     a single remembered recipient with a sliding TTL.
//   - NoticeTranslator: formats IRC protocol events (join/part/kick/mode/
//     whois/...) into Slack notice lines, gated by configuration flags.
//   - Relay: wires event subscriptions from both sides and performs the
//     actual dispatch calls.
//
// The wire clients live in the ircx and slackx packages; the relay only sees
// them through the IRCConn and ChatConn interfaces, which keeps every relay
// path exercisable with in-memory fakes.
package bridge
