package bridge

import (
	"errors"
	"testing"
)

func TestChannelMappingBijection(t *testing.T) {
	m, err := NewChannelMapping(map[string]string{
		"general": "#General",
		"ops":     "#ops password",
		"random":  "#random",
	})
	if err != nil {
		t.Fatalf("NewChannelMapping: %v", err)
	}

	// toSlack(toIRC(x)) == x for every Slack-side key, and vice versa.
	for _, slackName := range []string{"general", "ops", "random"} {
		ircName, ok := m.ToIRC(slackName)
		if !ok {
			t.Fatalf("ToIRC(%q) missing", slackName)
		}
		back, ok := m.ToSlack(ircName)
		if !ok || back != slackName {
			t.Errorf("round trip %q -> %q -> %q", slackName, ircName, back)
		}
	}
}

func TestChannelMappingNormalization(t *testing.T) {
	m, err := NewChannelMapping(map[string]string{"ops": "#OPS secretkey"})
	if err != nil {
		t.Fatalf("NewChannelMapping: %v", err)
	}
	if irc, _ := m.ToIRC("ops"); irc != "#ops" {
		t.Errorf("ToIRC(ops) = %q, want password stripped and lowercased", irc)
	}
	// Lookups from IRC are case-insensitive.
	for _, name := range []string{"#ops", "#OPS", "#Ops"} {
		if slack, ok := m.ToSlack(name); !ok || slack != "ops" {
			t.Errorf("ToSlack(%q) = %q, %v", name, slack, ok)
		}
	}
	// The join spec keeps the password.
	if specs := m.JoinSpecs(); len(specs) != 1 || specs[0] != "#OPS secretkey" {
		t.Errorf("JoinSpecs = %v", specs)
	}
}

func TestChannelMappingCaseSensitiveSlackSide(t *testing.T) {
	m, err := NewChannelMapping(map[string]string{"General": "#general"})
	if err != nil {
		t.Fatalf("NewChannelMapping: %v", err)
	}
	if _, ok := m.ToIRC("general"); ok {
		t.Error("Slack-side lookup should be case-sensitive")
	}
}

func TestChannelMappingRejectsEmpty(t *testing.T) {
	if _, err := NewChannelMapping(nil); !errors.Is(err, ErrEmptyMapping) {
		t.Fatalf("err = %v, want ErrEmptyMapping", err)
	}
}

func TestChannelMappingRejectsDuplicateIRCNames(t *testing.T) {
	_, err := NewChannelMapping(map[string]string{
		"general":  "#general",
		"general2": "#GENERAL key",
	})
	if err == nil {
		t.Fatal("expected error for duplicate normalized IRC names")
	}
}

func TestChannelMappingRejectsBlankIRCName(t *testing.T) {
	if _, err := NewChannelMapping(map[string]string{"general": "  "}); err == nil {
		t.Fatal("expected error for blank IRC channel name")
	}
}
