package bridge

import "testing"

func testTransformer() *Transformer {
	channels := map[string]string{"C123": "general"}
	users := map[string]string{"U9": "bob", "U42": "alice"}
	return NewTransformer(
		func(id string) (string, bool) { name, ok := channels[id]; return name, ok },
		func(id string) (string, bool) { name, ok := users[id]; return name, ok },
	)
}

func TestToIRCPlainTextIsIdentity(t *testing.T) {
	tr := testTransformer()
	for _, text := range []string{
		"hello world",
		"2 < 3 is fine once decoded",
		"just some chat with :unknownz: in it",
	} {
		if got := tr.ToIRC(text); got != text {
			t.Errorf("ToIRC(%q) = %q, want unchanged", text, got)
		}
	}
}

func TestToIRCRules(t *testing.T) {
	tr := testTransformer()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"newlines collapse", "one\ntwo\r\nthree\rfour", "one two three four"},
		{"html entities", "a &amp;&amp; b &lt;ok&gt;", "a && b <ok>"},
		{"broadcast channel", "hey <!channel> wake up", "hey @channel wake up"},
		{"broadcast group", "<!group> meeting", "@group meeting"},
		{"broadcast everyone", "<!everyone> hi", "@everyone hi"},
		{"channel ref with label", "see <#C123|general> please", "see general please"},
		{"channel ref resolved", "see <#C123> please", "see #general please"},
		{"channel ref unresolved", "see <#C999> please", "see #C999 please"},
		{"user ref with label", "ping <@U9|bob> now", "ping bob now"},
		{"user ref resolved", "ping <@U9> now", "ping @bob now"},
		{"user ref unresolved", "ping <@U777> now", "ping @U777 now"},
		{"bare link", "read <https://example.com/a> now", "read https://example.com/a now"},
		{"labeled link keeps url", "read <https://example.com/a|this> now", "read https://example.com/a now"},
		{"mailto link", "write <mailto:ops@example.com> now", "write mailto:ops@example.com now"},
		{"escaped brackets survive", "type &lt;enter&gt; twice", "type <enter> twice"},
		{"link beside literal brackets", "read <https://x.test/p> or press &lt;esc&gt;", "read https://x.test/p or press <esc>"},
		{"command with label", "run <!subteam|@devs> cmd", "run <@devs> cmd"},
		{"command without label", "run <!here> cmd", "run <here> cmd"},
		{"known emoji", "nice :smile: work", "nice 😄 work"},
		{"unknown emoji verbatim", "nice :unknownz: work", "nice :unknownz: work"},
		{"emoji plus alias", "ok :+1:", "ok 👍"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tr.ToIRC(tc.in); got != tc.want {
				t.Errorf("ToIRC(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestToIRCRuleOrdering(t *testing.T) {
	tr := testTransformer()
	// The user ref must be consumed before the bare-link rule gets a look
	// at the remaining angle brackets.
	in := "check <@U42> and <https://x.test/page>"
	want := "check @alice and https://x.test/page"
	if got := tr.ToIRC(in); got != want {
		t.Errorf("ToIRC(%q) = %q, want %q", in, got, want)
	}
}

func TestNilResolversFailOpen(t *testing.T) {
	tr := NewTransformer(nil, nil)
	if got := tr.ToIRC("see <#C1> and <@U1>"); got != "see #C1 and @U1" {
		t.Errorf("got %q", got)
	}
}

func TestIRCToSlackFormatting(t *testing.T) {
	if got := NoticeText("server going down"); got != "*server going down*" {
		t.Errorf("NoticeText = %q", got)
	}
	if got := ActionText("waves"); got != "_waves_" {
		t.Errorf("ActionText = %q", got)
	}
}

func TestIsRawCommand(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"WHOIS edmund", true},
		{"MODE #general +o bob", true},
		{"hello there", false},
		{"Whois edmund", false},
		{"WHOIS", false},
		{"WHOIS ", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsRawCommand(tc.in); got != tc.want {
			t.Errorf("IsRawCommand(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
