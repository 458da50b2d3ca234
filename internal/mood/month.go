package mood

import (
	"fmt"
	"strings"
	"time"
)

// NoteLimit is the longest note a single day may hold, in characters.
const NoteLimit = 3000

// NoteTooLongError reports a rejected note save. The aggregate is left
// untouched when it is returned.
type NoteTooLongError struct {
	Length int
}

func (e *NoteTooLongError) Error() string {
	return fmt.Sprintf("mood: note of %d chars exceeds limit of %d", e.Length, NoteLimit)
}

// Month is the per-user calendar grid of one month: a mood value and an
// optional note per day. Days are 1-indexed by day of month; both slices
// always have exactly as many entries as the month has days.
type Month struct {
	UserID int64
	Year   int
	Month  time.Month
	Days   []Value
	Notes  []string
}

// NewMonth returns a fresh all-Unset month grid.
func NewMonth(userID int64, year int, month time.Month) *Month {
	n := DaysIn(year, month)
	return &Month{
		UserID: userID,
		Year:   year,
		Month:  month,
		Days:   make([]Value, n),
		Notes:  make([]string, n),
	}
}

func (m *Month) check(day int) {
	if day < 1 || day > len(m.Days) {
		panic(fmt.Sprintf("mood: day %d out of range for %d-%02d", day, m.Year, m.Month))
	}
}

func (m *Month) Mood(day int) Value {
	m.check(day)
	return m.Days[day-1]
}

// SetMood records v for the day. Setting the value the day already holds
// clears it back to Unset, so a double tap on the same button undoes it.
func (m *Month) SetMood(day int, v Value) {
	m.check(day)
	if !v.Valid() {
		panic(fmt.Sprintf("mood: invalid value %d", int(v)))
	}
	if m.Days[day-1] == v {
		v = Unset
	}
	m.Days[day-1] = v
}

func (m *Month) Note(day int) string {
	m.check(day)
	return m.Notes[day-1]
}

// SetNote replaces the day's note. Over-limit text is rejected before any
// mutation.
func (m *Month) SetNote(day int, text string) error {
	m.check(day)
	text = strings.TrimSpace(text)
	if len([]rune(text)) > NoteLimit {
		return &NoteTooLongError{Length: len([]rune(text))}
	}
	m.Notes[day-1] = text
	return nil
}

// AppendNote extends the existing note with a blank-line-separated
// continuation. The combined text is still subject to the limit.
func (m *Month) AppendNote(day int, text string) error {
	m.check(day)
	combined := m.Notes[day-1]
	if combined != "" {
		combined += "\n\n"
	}
	combined += text
	return m.SetNote(day, combined)
}

func (m *Month) DeleteNote(day int) {
	m.check(day)
	m.Notes[day-1] = ""
}

// Empty reports whether nothing is recorded: every day Unset, every note
// blank. Empty months are removed from storage on merge.
func (m *Month) Empty() bool {
	for _, v := range m.Days {
		if v != Unset {
			return false
		}
	}
	for _, n := range m.Notes {
		if n != "" {
			return false
		}
	}
	return true
}

// Date returns the given day of this month as a civil date.
func (m *Month) Date(day int) time.Time {
	m.check(day)
	return time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC)
}
