// Package conflict reports overlaps between a proposed meeting interval and
// an identity's existing schedule entries.
package conflict

import (
	"sort"
	"time"
)

// Entry is one confirmed schedule entry in the calendar under inspection.
// Callers pre-filter by status; declined and done entries never reach this
// package.
type Entry struct {
	MeetingID string
	Title     string
	Start     time.Time
	Minutes   int
}

func (e Entry) end() time.Time {
	return e.Start.Add(time.Duration(e.Minutes) * time.Minute)
}

// Overlaps reports half-open interval intersection: [s1, s1+d1) and
// [s2, s2+d2) conflict iff s1 < s2+d2 && s2 < s1+d1. Back-to-back meetings
// therefore do not conflict.
func Overlaps(aStart time.Time, aMinutes int, bStart time.Time, bMinutes int) bool {
	aEnd := aStart.Add(time.Duration(aMinutes) * time.Minute)
	bEnd := bStart.Add(time.Duration(bMinutes) * time.Minute)
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Detect returns every existing entry whose interval intersects the
// proposed one, ordered by start time.
func Detect(existing []Entry, start time.Time, minutes int) []Entry {
	var collisions []Entry
	for _, entry := range existing {
		if Overlaps(start, minutes, entry.Start, entry.Minutes) {
			collisions = append(collisions, entry)
		}
	}
	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].Start.Before(collisions[j].Start)
	})
	return collisions
}

// EarliestSlot finds the first instant at or after from where a meeting of
// the given length fits between existing entries.
func EarliestSlot(existing []Entry, from time.Time, minutes int) time.Time {
	ordered := make([]Entry, len(existing))
	copy(ordered, existing)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	candidate := from
	for _, entry := range ordered {
		if !Overlaps(candidate, minutes, entry.Start, entry.Minutes) {
			continue
		}
		candidate = entry.end()
	}
	return candidate
}
