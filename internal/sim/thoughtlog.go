package sim

const thoughtLogSize = 40

// ThoughtEntry is a single line in the thought log.
type ThoughtEntry struct {
	Tick    int
	State   BehaviorState // bot state after the tick
	Message string
}

// ThoughtLog is a ring buffer of the bot's recent thoughts, shown in the HUD.
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

// Add appends an entry, overwriting the oldest once full.
func (tl *ThoughtLog) Add(tick int, state BehaviorState, msg string) {
	tl.entries[tl.head] = ThoughtEntry{
		Tick:    tick,
		State:   state,
		Message: msg,
	}
	tl.head = (tl.head + 1) % len(tl.entries)
	if tl.count < len(tl.entries) {
		tl.count++
	}
}

// Len returns the number of stored entries.
func (tl *ThoughtLog) Len() int { return tl.count }

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	size := len(tl.entries)
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + size) % size
		result[i] = tl.entries[idx]
	}
	return result
}
