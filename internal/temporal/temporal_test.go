package temporal

import (
	"testing"
	"time"
)

// reference is a Wednesday at 10:00 local time.
func reference(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
}

func TestParseStart_RecognizedForms(t *testing.T) {
	t.Parallel()

	now := reference(t)

	cases := []struct {
		name string
		text string
		want time.Time
	}{
		{"iso date with clock", "on 2026-09-04 at 14:00", time.Date(2026, 9, 4, 14, 0, 0, 0, time.UTC)},
		{"month name with meridiem", "september 4 at 2pm", time.Date(2026, 9, 4, 14, 0, 0, 0, time.UTC)},
		{"month name with ordinal", "march 9th at 9:30am", time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC)},
		{"past month-day rolls a year", "january 5 at noon", time.Date(2027, 1, 5, 12, 0, 0, 0, time.UTC)},
		{"tomorrow", "tomorrow at 2pm", time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)},
		{"today", "today at 4:15pm", time.Date(2026, 3, 4, 16, 15, 0, 0, time.UTC)},
		{"day after tomorrow", "day after tomorrow at 11am", time.Date(2026, 3, 6, 11, 0, 0, 0, time.UTC)},
		{"plain weekday is soonest future", "friday at 2pm", time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)},
		{"plain weekday matching today moves a week", "wednesday at 2pm", time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC)},
		{"next weekday adds a week", "next friday at 2pm", time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC)},
		{"bare afternoon hour", "friday at 2", time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)},
		{"24h clock", "friday at 14:30", time.Date(2026, 3, 6, 14, 30, 0, 0, time.UTC)},
		{"midnight", "tomorrow at midnight", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"noon pm boundary", "friday 12pm", time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)},
		{"twelve am", "friday 12am", time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)},
		{"time only resolves forward", "at 9am", time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)},
		{"time only later today", "at 3pm", time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)},
		{"date only defaults to morning", "next friday", time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)},
		{"tonight defaults to evening", "tonight", time.Date(2026, 3, 4, 19, 0, 0, 0, time.UTC)},
		{"tonight with clock keeps the clock", "tonight at 8pm", time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseStart(tc.text, now)
			if !ok {
				t.Fatalf("ParseStart(%q) reported no match", tc.text)
			}
			if !got.At.Equal(tc.want) {
				t.Fatalf("ParseStart(%q) = %v, want %v", tc.text, got.At, tc.want)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Fatalf("confidence %v out of range", got.Confidence)
			}
			if len(got.Fragments) == 0 {
				t.Fatalf("expected consumed fragments for %q", tc.text)
			}
		})
	}
}

func TestParseStart_NoMatch(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"",
		"schedule a meeting with everyone",
		"let's talk about budgets",
		"at 99",
	} {
		if _, ok := ParseStart(text, reference(t)); ok {
			t.Fatalf("ParseStart(%q) unexpectedly matched", text)
		}
	}
}

func TestParseStart_IsPure(t *testing.T) {
	t.Parallel()

	now := reference(t)
	first, ok := ParseStart("next friday at 2pm", now)
	if !ok {
		t.Fatal("expected match")
	}
	second, _ := ParseStart("next friday at 2pm", now)
	if !first.At.Equal(second.At) || first.Confidence != second.Confidence {
		t.Fatalf("identical input produced different results: %+v vs %+v", first, second)
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"for 30 minutes", 30, true},
		{"a 30 minute sync", 30, true},
		{"for 2 hours", 120, true},
		{"for 1.5 hours", 90, true},
		{"for 45 mins", 45, true},
		{"for 1 hr", 60, true},
		{"half an hour", 30, true},
		{"an hour", 60, true},
		{"an hour and a half", 90, true},
		{"with everyone tomorrow", 0, false},
		{"for friday", 0, false},
	}

	for _, tc := range cases {
		minutes, fragment, ok := ParseDuration(tc.text)
		if ok != tc.ok {
			t.Fatalf("ParseDuration(%q) ok = %v, want %v", tc.text, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if minutes != tc.want {
			t.Fatalf("ParseDuration(%q) = %d, want %d", tc.text, minutes, tc.want)
		}
		if fragment == "" {
			t.Fatalf("ParseDuration(%q) returned empty fragment", tc.text)
		}
	}
}

func TestEarliestDirective(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"schedule a sync asap",
		"meet at the earliest available time",
		"grab the first available slot",
		"as soon as possible please",
	} {
		if _, ok := EarliestDirective(text); !ok {
			t.Fatalf("expected directive in %q", text)
		}
	}

	if _, ok := EarliestDirective("tomorrow at 2pm"); ok {
		t.Fatal("unexpected directive match")
	}
}
