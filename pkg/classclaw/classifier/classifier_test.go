package classifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// fakeCompleter returns a canned completion and records the prompt.
type fakeCompleter struct {
	response  string
	err       error
	gotPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	f.gotPrompt = prompt
	return f.response, f.err
}

func newTestClassifier(llm Completer) *LLMClassifier {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLLMClassifier(llm, "ClassClaw", 5*time.Second, logger)
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Intent
	}{
		{
			"plain json",
			`{"action": "add_assignment", "task": "math quiz", "due": "2024-06-07"}`,
			Intent{Action: ActionAddAssignment, Task: "math quiz", Due: "2024-06-07"},
		},
		{
			"fenced json",
			"```json\n{\"action\": \"list_assignments\"}\n```",
			Intent{Action: ActionListAssignments},
		},
		{
			"bare fences",
			"```\n{\"action\": \"list_events\"}\n```",
			Intent{Action: ActionListEvents},
		},
		{
			"event with optional fields",
			`{"action": "add_event", "type": "exam", "title": "DS", "date": "2024-06-10", "notes": ""}`,
			Intent{Action: ActionAddEvent, Type: "exam", Title: "DS", Date: "2024-06-10"},
		},
		{
			"unlisted action folds to unknown",
			`{"action": "delete_everything", "task": "x"}`,
			Intent{Action: ActionUnknown},
		},
		{
			"explicit unknown",
			`{"action": "unknown"}`,
			Intent{Action: ActionUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.raw)
			if err != nil {
				t.Fatalf("ParseIntent failed: %v", err)
			}
			if *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParseIntentRejectsNonJSON(t *testing.T) {
	for _, raw := range []string{"", "sure, here you go!", "{broken"} {
		if _, err := ParseIntent(raw); err == nil {
			t.Errorf("ParseIntent(%q) accepted non-JSON input", raw)
		}
	}
}

func TestClassifyEmbedsDateInPrompt(t *testing.T) {
	fake := &fakeCompleter{response: `{"action": "unknown"}`}
	c := newTestClassifier(fake)

	today := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	if _, err := c.Classify(context.Background(), "what's up", today); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !strings.Contains(fake.gotPrompt, "Today is 2024-06-03") {
		t.Error("prompt does not anchor today's date")
	}
	if !strings.Contains(fake.gotPrompt, "what's up") {
		t.Error("prompt does not carry the payload")
	}
	if !strings.Contains(fake.gotPrompt, "You are ClassClaw") {
		t.Error("prompt does not carry the bot name")
	}
}

func TestClassifyFailureConditions(t *testing.T) {
	today := time.Now()

	tests := []struct {
		name string
		fake *fakeCompleter
	}{
		{"completion error", &fakeCompleter{err: errors.New("boom")}},
		{"empty response", &fakeCompleter{response: "   \n"}},
		{"unparseable response", &fakeCompleter{response: "I cannot help with that."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(tt.fake)
			_, err := c.Classify(context.Background(), "add something", today)
			if err == nil {
				t.Fatal("expected an error")
			}
			var ce *ClassificationError
			if !errors.As(err, &ce) {
				t.Errorf("expected *ClassificationError, got %T", err)
			}
		})
	}
}

func TestClassifySuccess(t *testing.T) {
	fake := &fakeCompleter{response: "```json\n{\"action\": \"add_timetable\", \"day\": \"Monday\", \"schedule\": \"OOP 9AM\"}\n```"}
	c := newTestClassifier(fake)

	intent, err := c.Classify(context.Background(), "timetable Monday OOP 9AM", time.Now())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if intent.Action != ActionAddTimetable || intent.Day != "Monday" || intent.Schedule != "OOP 9AM" {
		t.Errorf("unexpected intent: %+v", intent)
	}
}
