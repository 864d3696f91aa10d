package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/jholhewres/classclaw/pkg/classclaw/classifier"
	"github.com/jholhewres/classclaw/pkg/classclaw/store"
)

// storeFailureReply is the generic user-facing text for store failures.
// Internal diagnostics stay in the logs.
const storeFailureReply = "Something went wrong with my records — please try again in a moment."

// dispatch executes a classified intent against the store and renders the
// reply text. handled=false means the intent was unknown or malformed and
// control should fall through to the on-demand digest. Every intent is
// validated before any store write; a validation failure never writes
// partial data.
func (a *Assistant) dispatch(intent *classifier.Intent, today time.Time) (reply string, handled bool) {
	switch intent.Action {
	case classifier.ActionAddAssignment:
		return a.addAssignment(intent)
	case classifier.ActionAddTimetable:
		return a.addTimetable(intent)
	case classifier.ActionListAssignments:
		return a.listAssignments()
	case classifier.ActionAddEvent:
		return a.addEvent(intent)
	case classifier.ActionListEvents:
		return a.listEvents(today)
	default:
		return "", false
	}
}

func (a *Assistant) addAssignment(intent *classifier.Intent) (string, bool) {
	task := strings.TrimSpace(intent.Task)
	due, err := store.NormalizeDate(intent.Due)
	if task == "" || err != nil {
		a.logger.Warn("malformed add_assignment intent", "task_empty", task == "", "due", intent.Due)
		return "", false
	}

	if err := a.store.InsertAssignment(task, due); err != nil {
		a.logger.Error("insert assignment failed", "error", err)
		return storeFailureReply, true
	}
	return fmt.Sprintf("Assignment sealed: %s due %s", task, due), true
}

func (a *Assistant) addTimetable(intent *classifier.Intent) (string, bool) {
	day, err := store.NormalizeDay(intent.Day)
	schedule := strings.TrimSpace(intent.Schedule)
	if err != nil || schedule == "" {
		a.logger.Warn("malformed add_timetable intent", "day", intent.Day, "schedule_empty", schedule == "")
		return "", false
	}

	if err := a.store.UpsertTimetable(day, schedule); err != nil {
		a.logger.Error("upsert timetable failed", "error", err)
		return storeFailureReply, true
	}
	return fmt.Sprintf("Timetable inscribed for %s", day), true
}

func (a *Assistant) listAssignments() (string, bool) {
	assignments, err := a.store.Assignments()
	if err != nil {
		a.logger.Error("list assignments failed", "error", err)
		return storeFailureReply, true
	}
	if len(assignments) == 0 {
		return "No assignments recorded yet.", true
	}

	var b strings.Builder
	b.WriteString("Assignments:")
	for _, as := range assignments {
		fmt.Fprintf(&b, "\n- %s (due %s)", as.Task, as.Due)
	}
	return b.String(), true
}

func (a *Assistant) addEvent(intent *classifier.Intent) (string, bool) {
	title := strings.TrimSpace(intent.Title)
	date, err := store.NormalizeDate(intent.Date)
	if title == "" || err != nil {
		a.logger.Warn("malformed add_event intent", "title_empty", title == "", "date", intent.Date)
		return "", false
	}

	ev := store.Event{
		Type:  strings.TrimSpace(intent.Type),
		Title: title,
		Date:  date,
		Notes: strings.TrimSpace(intent.Notes),
	}
	if err := a.store.InsertEvent(ev); err != nil {
		a.logger.Error("insert event failed", "error", err)
		return storeFailureReply, true
	}

	typeStr := ""
	if ev.Type != "" {
		typeStr = fmt.Sprintf(" (%s)", ev.Type)
	}
	notesStr := ""
	if ev.Notes != "" {
		notesStr = " – " + ev.Notes
	}
	return fmt.Sprintf("Event%s added: %s on %s%s", typeStr, ev.Title, ev.Date, notesStr), true
}

// listEventsLimit caps the "list events" reply.
const listEventsLimit = 10

func (a *Assistant) listEvents(today time.Time) (string, bool) {
	events, err := a.store.EventsFrom(today.Format(store.DateLayout), listEventsLimit)
	if err != nil {
		a.logger.Error("list events failed", "error", err)
		return storeFailureReply, true
	}
	if len(events) == 0 {
		return "No upcoming events recorded.", true
	}

	var b strings.Builder
	b.WriteString("Upcoming events:")
	for _, ev := range events {
		typeStr := ""
		if ev.Type != "" {
			typeStr = fmt.Sprintf("[%s] ", ev.Type)
		}
		notesStr := ""
		if ev.Notes != "" {
			notesStr = " – " + ev.Notes
		}
		fmt.Fprintf(&b, "\n- %s%s (%s)%s", typeStr, ev.Title, ev.Date, notesStr)
	}
	return b.String(), true
}
