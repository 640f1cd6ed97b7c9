package bridge

import "testing"

func TestHighlightRewritesMemberNames(t *testing.T) {
	members := []Member{
		{ID: "U1", Name: "alice"},
		{ID: "U2", Name: "bob"},
	}
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"single mention", "alice: check this out", "<@U1>: check this out"},
		{"multiple members", "alice and bob should see this", "<@U1> and <@U2> should see this"},
		{"word boundary only", "alicespring is not alice", "alicespring is not <@U1>"},
		{"no members mentioned", "nothing to see here", "nothing to see here"},
		{"repeated name", "bob bob bob", "<@U2> <@U2> <@U2>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Highlight(members, tc.in); got != tc.want {
				t.Errorf("Highlight(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHighlightSkipsIncompleteMembers(t *testing.T) {
	members := []Member{
		{ID: "U1", Name: ""},
		{ID: "", Name: "ghost"},
	}
	in := "ghost says hi"
	if got := Highlight(members, in); got != in {
		t.Errorf("Highlight(%q) = %q, want unchanged", in, got)
	}
}

func TestHighlightBracketedNicks(t *testing.T) {
	members := []Member{
		{ID: "U3", Name: "[bob]"},
		{ID: "U4", Name: "{alice}"},
	}
	cases := []struct {
		in   string
		want string
	}{
		{"[bob] around?", "<@U3> around?"},
		{"ping {alice} too", "ping <@U4> too"},
		{"both [bob] and {alice}", "both <@U3> and <@U4>"},
	}
	for _, tc := range cases {
		if got := Highlight(members, tc.in); got != tc.want {
			t.Errorf("Highlight(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHighlightSpecialCharsInName(t *testing.T) {
	members := []Member{{ID: "U7", Name: "c.j"}}
	if got := Highlight(members, "ping c.j please"); got != "ping <@U7> please" {
		t.Errorf("got %q", got)
	}
	// The dot must be literal, not a regexp wildcard.
	if got := Highlight(members, "ping cxj please"); got != "ping cxj please" {
		t.Errorf("got %q, want unchanged", got)
	}
}
