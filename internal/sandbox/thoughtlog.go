package sandbox

import "github.com/Garsondee/Companion-Sense/internal/companion"

const thoughtLogSize = 60

// ThoughtEntry is a single line in the thought log.
type ThoughtEntry struct {
	Tick    int
	Label   string // e.g. "C1"
	State   companion.State
	Message string
}

// ThoughtLog is a fixed-size ring buffer of companion decisions, drawn by the
// viewer's side panel.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

// NewThoughtLog creates a thought log with a fixed capacity.
func NewThoughtLog() *ThoughtLog {
	return &ThoughtLog{
		entries: make([]ThoughtEntry, thoughtLogSize),
	}
}

// Add appends an entry, evicting the oldest when full.
func (tl *ThoughtLog) Add(tick int, label string, state companion.State, msg string) {
	tl.entries[tl.head] = ThoughtEntry{
		Tick:    tick,
		Label:   label,
		State:   state,
		Message: msg,
	}
	tl.head = (tl.head + 1) % thoughtLogSize
	if tl.count < thoughtLogSize {
		tl.count++
	}
}

// Len returns the number of stored entries.
func (tl *ThoughtLog) Len() int { return tl.count }

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + thoughtLogSize) % thoughtLogSize
		result[i] = tl.entries[idx]
	}
	return result
}
