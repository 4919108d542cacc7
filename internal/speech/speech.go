// Package speech carries mission announcements to the operator. Every
// implementation is best effort: when the host cannot speak or notify, an
// announcement is silently dropped.
package speech

import "sync"

// Announcer delivers one announcement. Implementations must not block the
// caller on audio or desktop I/O.
type Announcer interface {
	Announce(text string)
}

// Nop discards every announcement.
type Nop struct{}

func (Nop) Announce(string) {}

// Multi fans an announcement out to several announcers.
type Multi []Announcer

func (m Multi) Announce(text string) {
	for _, a := range m {
		if a != nil {
			a.Announce(text)
		}
	}
}

// Recorder keeps every announcement in memory. It is used by tests and the
// headless watcher.
type Recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *Recorder) Announce(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

// Texts returns what has been announced so far.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}
