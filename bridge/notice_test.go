package bridge

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func allFlags() NoticeFlags {
	return NoticeFlags{Join: true, Leave: true, ChangeNick: true, Modes: true}
}

func TestNoticeFlagGating(t *testing.T) {
	off := NewNoticeTranslator(NoticeFlags{}, "bridgebot")
	for _, ev := range []IRCEvent{
		{Kind: IRCJoin, Nick: "alice", Target: "#general"},
		{Kind: IRCPart, Nick: "alice", Target: "#general"},
		{Kind: IRCQuit, Nick: "alice", Channels: []string{"#general"}},
		{Kind: IRCNickChange, Nick: "alice", NewNick: "alice2", Channels: []string{"#general"}},
		{Kind: IRCMode, By: "op", Target: "#general", Mode: "+o", ModeArg: "bob"},
	} {
		if got := off.Translate(ev); got != nil {
			t.Errorf("Translate(%s) with flags off = %v, want nil", ev.Kind, got)
		}
	}

	// Kick, kill, topic, and error stay on regardless of flags.
	for _, ev := range []IRCEvent{
		{Kind: IRCKick, Nick: "bob", By: "op", Target: "#general"},
		{Kind: IRCKill, Nick: "bob", Channels: []string{"#general"}},
		{Kind: IRCTopic, Nick: "alice", Target: "#general", Text: "welcome"},
		{Kind: IRCError, Text: "nick in use"},
	} {
		if got := off.Translate(ev); len(got) == 0 {
			t.Errorf("Translate(%s) with flags off = nil, want notices", ev.Kind)
		}
	}
}

func TestNoticeTexts(t *testing.T) {
	n := NewNoticeTranslator(allFlags(), "bridgebot")
	cases := []struct {
		name string
		ev   IRCEvent
		want []Notice
	}{
		{
			"join",
			IRCEvent{Kind: IRCJoin, Nick: "alice", Target: "#general"},
			[]Notice{{IRCChannel: "#general", Text: "*alice* has joined the IRC channel"}},
		},
		{
			"part",
			IRCEvent{Kind: IRCPart, Nick: "alice", Target: "#general"},
			[]Notice{{IRCChannel: "#general", Text: "*alice* has left the IRC channel"}},
		},
		{
			"quit fans out",
			IRCEvent{Kind: IRCQuit, Nick: "alice", Channels: []string{"#general", "#ops"}},
			[]Notice{
				{IRCChannel: "#general", Text: "*alice* has quit the IRC channel"},
				{IRCChannel: "#ops", Text: "*alice* has quit the IRC channel"},
			},
		},
		{
			"kick with reason",
			IRCEvent{Kind: IRCKick, Nick: "bob", By: "op", Target: "#general", Text: "spamming"},
			[]Notice{{IRCChannel: "#general", Text: "*bob* has been kicked from the IRC channel by *op* (spamming)"}},
		},
		{
			"kick without reason",
			IRCEvent{Kind: IRCKick, Nick: "bob", By: "op", Target: "#general"},
			[]Notice{{IRCChannel: "#general", Text: "*bob* has been kicked from the IRC channel by *op*"}},
		},
		{
			"kill fans out",
			IRCEvent{Kind: IRCKill, Nick: "bob", Channels: []string{"#general", "#ops"}},
			[]Notice{
				{IRCChannel: "#general", Text: "*bob* has been killed from the IRC server"},
				{IRCChannel: "#ops", Text: "*bob* has been killed from the IRC server"},
			},
		},
		{
			"nick change",
			IRCEvent{Kind: IRCNickChange, Nick: "alice", NewNick: "alice2", Channels: []string{"#general"}},
			[]Notice{{IRCChannel: "#general", Text: "*alice* is now known as *alice2*"}},
		},
		{
			"mode with arg",
			IRCEvent{Kind: IRCMode, By: "op", Target: "#general", Mode: "+o", ModeArg: "bob"},
			[]Notice{{IRCChannel: "#general", Text: "*op* sets mode *+o* on _bob_"}},
		},
		{
			"mode without arg",
			IRCEvent{Kind: IRCMode, By: "op", Target: "#general", Mode: "+m"},
			[]Notice{{IRCChannel: "#general", Text: "*op* sets mode *+m*"}},
		},
		{
			"topic",
			IRCEvent{Kind: IRCTopic, Nick: "alice", Target: "#general", Text: "release day"},
			[]Notice{{IRCChannel: "#general", Text: "*alice* has changed the topic to: release day"}},
		},
		{
			"error to owner",
			IRCEvent{Kind: IRCError, Text: "closing link"},
			[]Notice{{ToOwner: true, Text: "*IRC error:* closing link"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Translate(tc.ev); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Translate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNoticeSelfJoinSuppressed(t *testing.T) {
	n := NewNoticeTranslator(allFlags(), "bridgebot")
	if got := n.Translate(IRCEvent{Kind: IRCJoin, Nick: "bridgebot", Target: "#general"}); got != nil {
		t.Fatalf("self join = %v, want nil", got)
	}
}

func TestNoticeUnknownKindIgnored(t *testing.T) {
	n := NewNoticeTranslator(allFlags(), "bridgebot")
	if got := n.Translate(IRCEvent{Kind: IRCMessage, Nick: "alice", Text: "hi"}); got != nil {
		t.Fatalf("message event = %v, want nil", got)
	}
}

func TestWhoisNoticeFull(t *testing.T) {
	n := NewNoticeTranslator(NoticeFlags{}, "bridgebot")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return base }

	got := n.Translate(IRCEvent{Kind: IRCWhois, Whois: &WhoisInfo{
		Nick:        "alice",
		User:        "al",
		Host:        "host.example",
		Realname:    "Alice A",
		Server:      "irc.example.net",
		Account:     "alice_acct",
		Away:        "lunch",
		IdleSeconds: 600,
		Channels:    []string{"#general", "#ops"},
	}})
	if len(got) != 1 || !got[0].ToOwner {
		t.Fatalf("Translate = %+v, want one owner notice", got)
	}
	want := strings.Join([]string{
		"*alice* (al@host.example): Alice A",
		"logged in as: alice_acct",
		"away: lunch",
		"idle since: " + base.Add(-10*time.Minute).Format(time.RFC1123),
		"channels: #general #ops",
		"server: irc.example.net",
	}, "\n")
	if got[0].Text != want {
		t.Errorf("whois text = %q, want %q", got[0].Text, want)
	}
}

func TestWhoisNoticeMinimal(t *testing.T) {
	n := NewNoticeTranslator(NoticeFlags{}, "bridgebot")
	got := n.Translate(IRCEvent{Kind: IRCWhois, Whois: &WhoisInfo{
		Nick: "alice", User: "al", Host: "host.example", Realname: "Alice A",
	}})
	if len(got) != 1 {
		t.Fatalf("Translate = %+v", got)
	}
	if got[0].Text != "*alice* (al@host.example): Alice A" {
		t.Errorf("whois text = %q", got[0].Text)
	}
}

func TestWhoisNoticeNilInfo(t *testing.T) {
	n := NewNoticeTranslator(NoticeFlags{}, "bridgebot")
	if got := n.Translate(IRCEvent{Kind: IRCWhois}); got != nil {
		t.Fatalf("Translate = %+v, want nil", got)
	}
}
