package assistant

import (
	"strings"
	"testing"

	"github.com/jholhewres/classclaw/pkg/classclaw/store"
)

func TestRelativeTag(t *testing.T) {
	tests := []struct {
		daysLeft int
		want     string
	}{
		{0, "TODAY"},
		{1, "Tomorrow"},
		{2, "In 2 days"},
		{7, "In 7 days"},
	}
	for _, tt := range tests {
		if got := relativeTag(tt.daysLeft); got != tt.want {
			t.Errorf("relativeTag(%d) = %q, want %q", tt.daysLeft, got, tt.want)
		}
	}
}

func TestOnDemandDigestEmpty(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeClassifier{})

	got, err := a.OnDemandDigest(testToday)
	if err != nil {
		t.Fatalf("OnDemandDigest failed: %v", err)
	}
	if !strings.Contains(got, "All is calm") {
		t.Errorf("empty store should produce the all-clear, got %q", got)
	}
}

func TestOnDemandDigestWindowBounds(t *testing.T) {
	a, st := newTestAssistant(t, &fakeClassifier{})

	// Default windows: assignments 7 days, events 14 days, both inclusive.
	st.InsertAssignment("inside window", "2024-06-10")
	st.InsertAssignment("outside window", "2024-06-11")
	st.InsertEvent(store.Event{Title: "career fair", Date: "2024-06-17"})
	st.InsertEvent(store.Event{Title: "far away", Date: "2024-06-18"})

	got, err := a.OnDemandDigest(testToday)
	if err != nil {
		t.Fatalf("OnDemandDigest failed: %v", err)
	}
	if !strings.Contains(got, "Assignment In 7 days: inside window") {
		t.Errorf("missing day-7 assignment line in %q", got)
	}
	if strings.Contains(got, "outside window") {
		t.Errorf("day-8 assignment leaked into %q", got)
	}
	if !strings.Contains(got, "career fair") {
		t.Errorf("missing day-14 event in %q", got)
	}
	if strings.Contains(got, "far away") {
		t.Errorf("day-15 event leaked into %q", got)
	}
	if !strings.HasPrefix(got, "These deadlines approach:") {
		t.Errorf("missing digest header in %q", got)
	}
}

func TestOnDemandDigestDueTodayAndTomorrow(t *testing.T) {
	a, st := newTestAssistant(t, &fakeClassifier{})

	st.InsertAssignment("lab report", "2024-06-03")
	st.InsertAssignment("essay draft", "2024-06-04")

	got, err := a.OnDemandDigest(testToday)
	if err != nil {
		t.Fatalf("OnDemandDigest failed: %v", err)
	}
	if !strings.Contains(got, "Assignment TODAY: lab report") {
		t.Errorf("missing TODAY tag in %q", got)
	}
	if !strings.Contains(got, "Assignment Tomorrow: essay draft") {
		t.Errorf("missing Tomorrow tag in %q", got)
	}
}

func TestOnDemandDigestTomorrowTimetable(t *testing.T) {
	a, st := newTestAssistant(t, &fakeClassifier{})

	// testToday is a Monday: only Tuesday's schedule belongs in the digest.
	st.UpsertTimetable("Monday", "OOP 9AM")
	st.UpsertTimetable("Tuesday", "Databases 10AM")

	got, err := a.OnDemandDigest(testToday)
	if err != nil {
		t.Fatalf("OnDemandDigest failed: %v", err)
	}
	if !strings.Contains(got, "Tomorrow's classes: Databases 10AM") {
		t.Errorf("missing tomorrow's timetable in %q", got)
	}
	if strings.Contains(got, "OOP 9AM") {
		t.Errorf("today's timetable leaked into %q", got)
	}
}

func TestOnDemandDigestEventsDisabled(t *testing.T) {
	a, st := newTestAssistant(t, &fakeClassifier{})
	a.cfg.Digest.EventsWindowDays = 0

	st.InsertAssignment("quiz", "2024-06-05")
	st.InsertEvent(store.Event{Title: "hackathon", Date: "2024-06-05"})

	got, err := a.OnDemandDigest(testToday)
	if err != nil {
		t.Fatalf("OnDemandDigest failed: %v", err)
	}
	if strings.Contains(got, "hackathon") {
		t.Errorf("events disabled but still listed in %q", got)
	}
	if !strings.Contains(got, "quiz") {
		t.Errorf("assignment missing from %q", got)
	}
}

func TestScheduledDigest(t *testing.T) {
	a, st := newTestAssistant(t, &fakeClassifier{})

	st.InsertAssignment("lab report", "2024-06-03")
	st.InsertAssignment("essay draft", "2024-06-04")
	st.InsertAssignment("far off", "2024-06-20")
	st.InsertEvent(store.Event{Type: "exam", Title: "Data Structures", Date: "2024-06-03", Notes: "Room 204"})
	st.UpsertTimetable("Monday", "OOP 9AM, Stats 11AM")

	msg, ok, err := a.ScheduledDigest(testToday)
	if err != nil {
		t.Fatalf("ScheduledDigest failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a broadcast")
	}
	for _, want := range []string{
		"ClassClaw wakes with today's tidings!",
		"Due today: lab report",
		"Due tomorrow: essay draft",
		"Today: [EXAM] Data Structures",
		"Room 204",
		"Today's classes: OOP 9AM, Stats 11AM",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("broadcast missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "far off") {
		t.Errorf("assignment outside today/tomorrow leaked into %q", msg)
	}
}

func TestScheduledDigestEmptyStaysSilent(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeClassifier{})

	msg, ok, err := a.ScheduledDigest(testToday)
	if err != nil {
		t.Fatalf("ScheduledDigest failed: %v", err)
	}
	if ok || msg != "" {
		t.Errorf("expected silence on an empty day, got ok=%v msg=%q", ok, msg)
	}
}

func TestScheduledDigestTomorrowDisabled(t *testing.T) {
	a, st := newTestAssistant(t, &fakeClassifier{})
	a.cfg.Digest.IncludeTomorrowDue = false

	st.InsertAssignment("due today", "2024-06-03")
	st.InsertAssignment("due tomorrow", "2024-06-04")

	msg, ok, err := a.ScheduledDigest(testToday)
	if err != nil || !ok {
		t.Fatalf("ScheduledDigest failed: ok=%v err=%v", ok, err)
	}
	if strings.Contains(msg, "due tomorrow") {
		t.Errorf("tomorrow's item listed despite config: %q", msg)
	}
}
