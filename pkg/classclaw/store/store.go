// Package store implements the ClassClaw record store on SQLite.
// Three tables: assignments, timetable (one row per weekday) and events.
// All dates are exchanged as ISO calendar-date strings (YYYY-MM-DD) and
// validated at this boundary so nothing malformed is ever persisted.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DateLayout is the canonical calendar-date form used everywhere.
const DateLayout = "2006-01-02"

// Assignment is a task with a due date. Duplicates are allowed.
type Assignment struct {
	ID   int64
	Task string
	Due  string
}

// TimetableEntry is the class schedule for one weekday. The weekday name is
// a unique key: writing an entry for an existing day replaces the prior one.
type TimetableEntry struct {
	ID       int64
	Day      string
	Schedule string
}

// Event is a dated occurrence (exam, test, meeting...). Type and Notes are
// optional; empty strings are stored as NULL.
type Event struct {
	ID    int64
	Type  string
	Title string
	Date  string
	Notes string
}

// Config holds store configuration.
type Config struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout in milliseconds.
	BusyTimeout int `yaml:"busy_timeout"`
}

// Store is the shared record store. A single mutex serializes all access:
// both the message handler and the daily digest job go through it, so their
// units of work never overlap.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the SQLite database and ensures the schema exists.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/classclaw.db"
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5000
	}

	// Ensure parent directory exists.
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, cfg.BusyTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", cfg.Path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS assignments (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			task TEXT NOT NULL,
			due  DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS timetable (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			day      TEXT NOT NULL UNIQUE,
			schedule TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			type  TEXT,
			title TEXT NOT NULL,
			date  DATE NOT NULL,
			notes TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// NormalizeDate validates an ISO calendar-date string and returns it in
// canonical form.
func NormalizeDate(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.Format(DateLayout), nil
}

// NormalizeDay validates a weekday name ("Monday".."Sunday") and returns it
// in canonical casing.
func NormalizeDay(day string) (string, error) {
	day = strings.TrimSpace(day)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(day, d.String()) {
			return d.String(), nil
		}
	}
	return "", fmt.Errorf("invalid weekday %q", day)
}

// ---------- Writes ----------

// InsertAssignment inserts a new assignment. Duplicates are never merged.
func (s *Store) InsertAssignment(task, due string) error {
	if task == "" {
		return fmt.Errorf("assignment task is required")
	}
	due, err := NormalizeDate(due)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec("INSERT INTO assignments (task, due) VALUES (?, ?)", task, due)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// UpsertTimetable writes the schedule for a weekday, replacing any prior
// entry for that day atomically.
func (s *Store) UpsertTimetable(day, schedule string) error {
	day, err := NormalizeDay(day)
	if err != nil {
		return err
	}
	if schedule == "" {
		return fmt.Errorf("timetable schedule is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec("INSERT OR REPLACE INTO timetable (day, schedule) VALUES (?, ?)", day, schedule)
	if err != nil {
		return fmt.Errorf("upsert timetable: %w", err)
	}
	return nil
}

// InsertEvent inserts a new event. Empty type/notes are stored as NULL.
func (s *Store) InsertEvent(ev Event) error {
	if ev.Title == "" {
		return fmt.Errorf("event title is required")
	}
	date, err := NormalizeDate(ev.Date)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT INTO events (type, title, date, notes) VALUES (?, ?, ?, ?)",
		nullable(ev.Type), ev.Title, date, nullable(ev.Notes),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ---------- Reads ----------

// Assignments returns all assignments ordered by ascending due date.
func (s *Store) Assignments() ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanAssignments("SELECT id, task, due FROM assignments ORDER BY due")
}

// AssignmentsInWindow returns assignments with start <= due <= end,
// ordered by ascending due date. Both bounds are inclusive.
func (s *Store) AssignmentsInWindow(start, end string) ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanAssignments(
		"SELECT id, task, due FROM assignments WHERE due >= ? AND due <= ? ORDER BY due",
		start, end,
	)
}

// AssignmentsDueOn returns assignments due exactly on the given date.
func (s *Store) AssignmentsDueOn(date string) ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanAssignments("SELECT id, task, due FROM assignments WHERE due = ?", date)
}

func (s *Store) scanAssignments(query string, args ...any) ([]Assignment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.Task, &a.Due); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// EventsFrom returns events dated on or after the given date, ascending,
// capped at limit (0 means no cap).
func (s *Store) EventsFrom(date string, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := "SELECT id, type, title, date, notes FROM events WHERE date >= ? ORDER BY date"
	args := []any{date}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.scanEvents(query, args...)
}

// EventsInWindow returns events with start <= date <= end, ascending.
// Both bounds are inclusive.
func (s *Store) EventsInWindow(start, end string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanEvents(
		"SELECT id, type, title, date, notes FROM events WHERE date >= ? AND date <= ? ORDER BY date",
		start, end,
	)
}

// EventsOn returns events dated exactly on the given date.
func (s *Store) EventsOn(date string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanEvents("SELECT id, type, title, date, notes FROM events WHERE date = ?", date)
}

func (s *Store) scanEvents(query string, args ...any) ([]Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var typ, notes sql.NullString
		if err := rows.Scan(&ev.ID, &typ, &ev.Title, &ev.Date, &notes); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = typ.String
		ev.Notes = notes.String
		out = append(out, ev)
	}
	return out, rows.Err()
}

// TimetableByDay returns the schedule for a weekday, or ok=false if none.
func (s *Store) TimetableByDay(day string) (TimetableEntry, bool, error) {
	day, err := NormalizeDay(day)
	if err != nil {
		return TimetableEntry{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var entry TimetableEntry
	err = s.db.QueryRow("SELECT id, day, schedule FROM timetable WHERE day = ?", day).
		Scan(&entry.ID, &entry.Day, &entry.Schedule)
	if err == sql.ErrNoRows {
		return TimetableEntry{}, false, nil
	}
	if err != nil {
		return TimetableEntry{}, false, fmt.Errorf("query timetable: %w", err)
	}
	return entry, true, nil
}

// CountAssignments returns the total number of assignment rows.
func (s *Store) CountAssignments() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM assignments").Scan(&n); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return n, nil
}
