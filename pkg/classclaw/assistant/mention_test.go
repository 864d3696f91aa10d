package assistant

import (
	"testing"
)

func TestAddressed(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"full handle", "hey @classclaw_bot what's up", true},
		{"handle without suffix", "@classclaw save us", true},
		{"uppercase", "@CLASSCLAW_BOT list assignments", true},
		{"mid-sentence", "someone ask @classclaw_bot please", true},
		{"no mention", "did anyone finish the homework?", false},
		{"name without at-sign", "classclaw is useless", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Addressed(tt.text, "classclaw_bot", "_bot")
			if got != tt.want {
				t.Errorf("Addressed(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStripInvocation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"handle plus incantation",
			"@classclaw_bot save us add math quiz due Friday",
			"add math quiz due Friday",
		},
		{
			"short handle plus incantation",
			"@classclaw save us list assignments",
			"list assignments",
		},
		{
			"handle plus name plus incantation",
			"@classclaw_bot ClassClaw save us list events",
			"list events",
		},
		{
			"bare name incantation",
			"ClassClaw save us what's due",
			"what's due",
		},
		{
			"lowercase casing",
			"@classclaw_bot classclaw save us add essay due 2024-06-10",
			"add essay due 2024-06-10",
		},
		{
			"bare mention only",
			"@classclaw_bot add physics midterm due 2026-03-15",
			"add physics midterm due 2026-03-15",
		},
		{
			"mention alone leaves empty payload",
			"@classclaw_bot save us",
			"",
		},
		{
			"strips only once",
			"@classclaw_bot save us say save us back",
			"say save us back",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripInvocation(tt.text, "ClassClaw", "classclaw_bot", "_bot", "save us")
			if got != tt.want {
				t.Errorf("StripInvocation(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
