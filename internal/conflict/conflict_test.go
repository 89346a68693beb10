package conflict

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 6, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps_HalfOpenIntervals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		aStart time.Time
		aMin   int
		bStart time.Time
		bMin   int
		want   bool
	}{
		{"partial overlap", at(9, 0), 60, at(9, 30), 60, true},
		{"contained", at(9, 0), 120, at(9, 30), 30, true},
		{"identical", at(9, 0), 60, at(9, 0), 60, true},
		{"back to back", at(9, 0), 60, at(10, 0), 60, false},
		{"disjoint", at(9, 0), 60, at(11, 0), 60, false},
		{"reversed back to back", at(10, 0), 60, at(9, 0), 60, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Overlaps(tc.aStart, tc.aMin, tc.bStart, tc.bMin); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			// Symmetric.
			if got := Overlaps(tc.bStart, tc.bMin, tc.aStart, tc.aMin); got != tc.want {
				t.Fatalf("Overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetect_ReturnsSortedCollisions(t *testing.T) {
	t.Parallel()

	existing := []Entry{
		{MeetingID: "m-late", Start: at(10, 30), Minutes: 60},
		{MeetingID: "m-early", Start: at(9, 30), Minutes: 60},
		{MeetingID: "m-clear", Start: at(13, 0), Minutes: 60},
	}

	collisions := Detect(existing, at(10, 0), 60)
	if len(collisions) != 2 {
		t.Fatalf("expected 2 collisions, got %v", collisions)
	}
	if collisions[0].MeetingID != "m-early" || collisions[1].MeetingID != "m-late" {
		t.Fatalf("collisions out of order: %v", collisions)
	}

	if got := Detect(existing, at(11, 30), 60); len(got) != 0 {
		t.Fatalf("expected no collisions, got %v", got)
	}
}

func TestEarliestSlot(t *testing.T) {
	t.Parallel()

	existing := []Entry{
		{MeetingID: "m-1", Start: at(9, 0), Minutes: 60},
		{MeetingID: "m-2", Start: at(10, 0), Minutes: 30},
	}

	// 09:00 is busy through 10:30; the first free hour starts there.
	slot := EarliestSlot(existing, at(9, 0), 60)
	if !slot.Equal(at(10, 30)) {
		t.Fatalf("slot = %v, want %v", slot, at(10, 30))
	}

	// An empty calendar yields the requested instant itself.
	slot = EarliestSlot(nil, at(9, 0), 60)
	if !slot.Equal(at(9, 0)) {
		t.Fatalf("slot = %v, want %v", slot, at(9, 0))
	}

	// A gap long enough between entries is used.
	spread := []Entry{
		{MeetingID: "m-1", Start: at(9, 0), Minutes: 30},
		{MeetingID: "m-2", Start: at(11, 0), Minutes: 60},
	}
	slot = EarliestSlot(spread, at(9, 0), 60)
	if !slot.Equal(at(9, 30)) {
		t.Fatalf("slot = %v, want %v", slot, at(9, 30))
	}
}
