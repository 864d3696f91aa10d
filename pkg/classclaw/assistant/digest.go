package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/jholhewres/classclaw/pkg/classclaw/store"
)

// relativeTag renders the distance from today to a due/event date.
func relativeTag(daysLeft int) string {
	switch daysLeft {
	case 0:
		return "TODAY"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("In %d days", daysLeft)
	}
}

// daysUntil counts whole calendar days between today and an ISO date.
func daysUntil(today time.Time, date string) int {
	d, err := time.Parse(store.DateLayout, date)
	if err != nil {
		return 0
	}
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(t).Hours() / 24)
}

// OnDemandDigest derives the "what's coming up" summary: assignments within
// the assignments window, events within the events window (if enabled),
// and tomorrow's timetable. Both window bounds are inclusive. Always
// produces a reply body; when nothing is pending it says so explicitly.
func (a *Assistant) OnDemandDigest(today time.Time) (string, error) {
	todayStr := today.Format(store.DateLayout)
	var lines []string

	end := today.AddDate(0, 0, a.cfg.Digest.AssignmentsWindowDays).Format(store.DateLayout)
	assignments, err := a.store.AssignmentsInWindow(todayStr, end)
	if err != nil {
		return "", fmt.Errorf("digest assignments: %w", err)
	}
	for _, as := range assignments {
		lines = append(lines, fmt.Sprintf("Assignment %s: %s", relativeTag(daysUntil(today, as.Due)), as.Task))
	}

	if a.cfg.Digest.EventsWindowDays > 0 {
		evEnd := today.AddDate(0, 0, a.cfg.Digest.EventsWindowDays).Format(store.DateLayout)
		events, err := a.store.EventsInWindow(todayStr, evEnd)
		if err != nil {
			return "", fmt.Errorf("digest events: %w", err)
		}
		for _, ev := range events {
			typeStr := ""
			if ev.Type != "" {
				typeStr = fmt.Sprintf("[%s] ", strings.ToUpper(ev.Type))
			}
			notesStr := ""
			if ev.Notes != "" {
				notesStr = " – " + ev.Notes
			}
			lines = append(lines, fmt.Sprintf("Event %s%s: %s%s",
				typeStr, relativeTag(daysUntil(today, ev.Date)), ev.Title, notesStr))
		}
	}

	tomorrow := today.AddDate(0, 0, 1).Weekday().String()
	entry, ok, err := a.store.TimetableByDay(tomorrow)
	if err != nil {
		return "", fmt.Errorf("digest timetable: %w", err)
	}
	if ok {
		lines = append(lines, "Tomorrow's classes: "+entry.Schedule)
	}

	if len(lines) == 0 {
		return "All is calm — nothing pending in the days ahead.", nil
	}
	return "These deadlines approach:\n" + strings.Join(lines, "\n"), nil
}

// ScheduledDigest derives the daily broadcast: assignments due exactly today
// (and tomorrow, when configured), events dated today, and today's
// timetable. Returns ok=false when there is nothing to announce — the
// scheduled path stays silent instead of broadcasting an all-clear.
func (a *Assistant) ScheduledDigest(today time.Time) (msg string, ok bool, err error) {
	todayStr := today.Format(store.DateLayout)
	var lines []string

	dueToday, err := a.store.AssignmentsDueOn(todayStr)
	if err != nil {
		return "", false, fmt.Errorf("daily digest assignments: %w", err)
	}
	for _, as := range dueToday {
		lines = append(lines, "Due today: "+as.Task)
	}

	if a.cfg.Digest.IncludeTomorrowDue {
		tomorrowStr := today.AddDate(0, 0, 1).Format(store.DateLayout)
		dueTomorrow, err := a.store.AssignmentsDueOn(tomorrowStr)
		if err != nil {
			return "", false, fmt.Errorf("daily digest assignments: %w", err)
		}
		for _, as := range dueTomorrow {
			lines = append(lines, "Due tomorrow: "+as.Task)
		}
	}

	if a.cfg.Digest.EventsWindowDays > 0 {
		events, err := a.store.EventsOn(todayStr)
		if err != nil {
			return "", false, fmt.Errorf("daily digest events: %w", err)
		}
		for _, ev := range events {
			typeStr := ""
			if ev.Type != "" {
				typeStr = fmt.Sprintf("[%s] ", strings.ToUpper(ev.Type))
			}
			notesStr := ""
			if ev.Notes != "" {
				notesStr = " – " + ev.Notes
			}
			lines = append(lines, fmt.Sprintf("Today: %s%s%s", typeStr, ev.Title, notesStr))
		}
	}

	entry, found, err := a.store.TimetableByDay(today.Weekday().String())
	if err != nil {
		return "", false, fmt.Errorf("daily digest timetable: %w", err)
	}
	if found {
		lines = append(lines, "Today's classes: "+entry.Schedule)
	}

	if len(lines) == 0 {
		return "", false, nil
	}
	header := fmt.Sprintf("%s wakes with today's tidings! ✨\n", a.cfg.Name)
	return header + strings.Join(lines, "\n"), true, nil
}
