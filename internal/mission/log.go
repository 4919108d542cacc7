package mission

import (
	"fmt"
	"strings"
	"time"
)

// LogCapacity is how many lines the mission log keeps.
const LogCapacity = 200

// Category is the bracketed tag at the front of a log line.
type Category string

const (
	Critical Category = "CRITICAL"
	System   Category = "SYSTEM"
	Mission  Category = "MISSION"
	Auth     Category = "AUTH"
	Error    Category = "ERROR"
)

// Entry is one line of the mission log.
type Entry struct {
	At       time.Time
	Category Category
	Message  string
}

// String formats the entry as the console shows it.
//
//	14:03:12 [CRITICAL] Robot 4 hardware failure!
func (e Entry) String() string {
	return fmt.Sprintf("%s [%s] %s", e.At.Format("15:04:05"), e.Category, e.Message)
}

// Log is a ring buffer of mission log entries. It is not safe for
// concurrent use.
type Log struct {
	entries   []Entry
	head      int
	count     int
	now       func() time.Time
	listeners []func(Entry)
}

// NewLog returns an empty log stamped by now (time.Now when nil).
func NewLog(now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{
		entries: make([]Entry, LogCapacity),
		now:     now,
	}
}

// Listen registers fn to be called with every new entry.
func (l *Log) Listen(fn func(Entry)) {
	l.listeners = append(l.listeners, fn)
}

// Add appends a line, dropping the oldest once full.
func (l *Log) Add(cat Category, format string, args ...any) Entry {
	e := Entry{At: l.now(), Category: cat, Message: fmt.Sprintf(format, args...)}
	l.entries[l.head] = e
	l.head = (l.head + 1) % LogCapacity
	if l.count < LogCapacity {
		l.count++
	}
	for _, fn := range l.listeners {
		fn(e)
	}
	return e
}

// Len returns how many entries are held.
func (l *Log) Len() int { return l.count }

// Recent returns held entries oldest first.
func (l *Log) Recent() []Entry {
	out := make([]Entry, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.entries[(l.head-l.count+i+LogCapacity)%LogCapacity]
	}
	return out
}

// Lines returns formatted entries newest first, as the log panel shows them.
func (l *Log) Lines() []string {
	recent := l.Recent()
	out := make([]string, len(recent))
	for i, e := range recent {
		out[len(recent)-1-i] = e.String()
	}
	return out
}

// Text joins Lines for copying to the clipboard.
func (l *Log) Text() string {
	return strings.Join(l.Lines(), "\n")
}

// Filter returns held entries in cat, oldest first.
func (l *Log) Filter(cat Category) []Entry {
	var out []Entry
	for _, e := range l.Recent() {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many held entries are in cat.
func (l *Log) Count(cat Category) int {
	return len(l.Filter(cat))
}

// Last returns the newest entry, if any.
func (l *Log) Last() (Entry, bool) {
	if l.count == 0 {
		return Entry{}, false
	}
	return l.entries[(l.head-1+LogCapacity)%LogCapacity], true
}
