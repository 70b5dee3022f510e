package sandbox

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

// SimLogEntry is one recorded event during a headless simulation.
type SimLogEntry struct {
	Tick      int
	Companion string  // label e.g. "C1", or "--" for world events
	Category  string  // state, command, combat, trust, world, move
	Key       string  // specific event name within the category
	Value     string  // human-readable detail
	NumVal    float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] C1   state     change           follow → combat (hostile spotted)
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Companion, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a simulation. Unlike ThoughtLog
// (viewer ring buffer), SimLog is unbounded and machine-readable.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick position and
// speed entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, label, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:      tick,
		Companion: label,
		Category:  category,
		Key:       key,
		Value:     value,
		NumVal:    numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, label, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, label, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Count returns how many entries match label, category and key. An empty
// field matches anything.
func (sl *SimLog) Count(label, category, key string) int {
	n := 0
	for _, e := range sl.entries {
		if label != "" && e.Companion != label {
			continue
		}
		if matches(e, category, key, "") {
			n++
		}
	}
	return n
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return sl.Count("", category, key)
}

// FirstTick returns the tick of the first entry matching category, key and
// value substring, or -1.
func (sl *SimLog) FirstTick(category, key, valueSubstr string) int {
	for _, e := range sl.entries {
		if matches(e, category, key, valueSubstr) {
			return e.Tick
		}
	}
	return -1
}

// HasEntry returns true if at least one entry matches category, key, and
// value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	return sl.FirstTick(category, key, valueSubstr) >= 0
}

func matches(e SimLogEntry, category, key, valueSubstr string) bool {
	if category != "" && e.Category != category {
		return false
	}
	if key != "" && e.Key != key {
		return false
	}
	return valueSubstr == "" || strings.Contains(e.Value, valueSubstr)
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the simulation state.
func (sl *SimLog) Summary(tick int, companions []*Companion, world *World, player *Player) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	states := map[companion.State]int{}
	for _, c := range companions {
		states[c.Agent.State()]++
	}
	sb.WriteString("States: ")
	for s := companion.StateIdle; s <= companion.StateSupport; s++ {
		if n := states[s]; n > 0 {
			fmt.Fprintf(&sb, "%s=%d  ", s, n)
		}
	}
	sb.WriteByte('\n')

	for _, c := range companions {
		fmt.Fprintf(&sb, "%s trust=%d tier=%d role=%s", c.Label, c.Record.Trust(), c.Record.Tier(), c.Record.Role())
		if id, ok := c.Agent.Target(); ok {
			fmt.Fprintf(&sb, " target=H%d", id)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Hostiles alive: %d/%d\n", world.Alive(), len(world.Hostiles()))
	fmt.Fprintf(&sb, "Protectee health: %.0f%%\n", player.HealthFraction()*100)
	return sb.String()
}
