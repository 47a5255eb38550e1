package cue

import "sort"

// Set is an immutable, ordered snapshot of a timeline's cues. Order is a
// stable sort by (TriggerTime, insertion index), so cues sharing a trigger
// time keep the order they were authored in.
type Set struct {
	cues []Cue
}

// NewSet builds a snapshot from the given cues. The input slice is copied;
// callers may keep mutating their own copy.
func NewSet(cues []Cue) Set {
	sorted := make([]Cue, len(cues))
	copy(sorted, cues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TriggerTime < sorted[j].TriggerTime
	})
	return Set{cues: sorted}
}

// All returns the cues in trigger order. The returned slice is shared;
// callers must not modify it.
func (s Set) All() []Cue {
	return s.cues
}

// Len returns the number of cues in the snapshot.
func (s Set) Len() int {
	return len(s.cues)
}

// ByID returns the cue with the given id, if present.
func (s Set) ByID(id string) (Cue, bool) {
	for _, c := range s.cues {
		if c.ID == id {
			return c, true
		}
	}
	return Cue{}, false
}
