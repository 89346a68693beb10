// Package temporal converts free-text date, time, and duration fragments
// into concrete instants and minute counts. Parsing is pure: the only time
// source is the reference instant supplied by the caller, and unrecognized
// input is reported as a non-match rather than an error.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is a recognized start instant together with a confidence score and
// the literal input fragments that produced it. Callers that need to strip
// temporal expressions from the surrounding text remove the fragments.
type Result struct {
	At         time.Time
	Confidence float64
	Fragments  []string
}

const (
	confidenceExact    = 1.0
	confidenceStrong   = 0.9
	confidenceWeekday  = 0.8
	confidenceBareHour = 0.6

	// defaultHour is assumed when a date is given without a clock time;
	// eveningHour stands in for "tonight".
	defaultHour = 9
	eveningHour = 19
)

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayPattern  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	relativePattern  = regexp.MustCompile(`\b(day after tomorrow|tomorrow|today|tonight)\b`)
	weekdayPattern   = regexp.MustCompile(`\b(next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)\b`)
	clockPattern     = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm|a\.m\.|p\.m\.)?\b`)
	hourMeridiemPat  = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm|a\.m\.|p\.m\.)\b`)
	bareHourPattern  = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)
	noonPattern      = regexp.MustCompile(`\b(noon|midday|midnight)\b`)
	durationPattern  = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:-\s*)?(minutes|minute|mins|min|hours|hour|hrs|hr)\b`)
	wordDurationPat  = regexp.MustCompile(`\b(an hour and a half|half an hour|an hour|one hour)\b`)
	earliestPatterns = regexp.MustCompile(`\b(as soon as possible|asap|earliest available|earliest open|first available|earliest slot|first open slot)\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

type dateMatch struct {
	year        int
	month       time.Month
	day         int
	impliedHour int
	confidence  float64
	fragment    string
}

type clockMatch struct {
	hour       int
	minute     int
	confidence float64
	fragment   string
}

// ParseStart recognizes at most one start instant in text relative to now.
// A date without a clock time defaults to 09:00 at reduced confidence; a
// clock time without a date resolves to the next occurrence of that time.
func ParseStart(text string, now time.Time) (Result, bool) {
	lowered := strings.ToLower(text)

	date, dateOK := findDate(lowered, now)
	clock, clockOK := findClock(lowered)

	switch {
	case dateOK && clockOK:
		at := time.Date(date.year, date.month, date.day, clock.hour, clock.minute, 0, 0, now.Location())
		return Result{
			At:         at,
			Confidence: minFloat(date.confidence, clock.confidence),
			Fragments:  []string{date.fragment, clock.fragment},
		}, true
	case dateOK:
		hour := defaultHour
		if date.impliedHour != 0 {
			hour = date.impliedHour
		}
		at := time.Date(date.year, date.month, date.day, hour, 0, 0, 0, now.Location())
		return Result{
			At:         at,
			Confidence: date.confidence * 0.8,
			Fragments:  []string{date.fragment},
		}, true
	case clockOK:
		at := time.Date(now.Year(), now.Month(), now.Day(), clock.hour, clock.minute, 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return Result{
			At:         at,
			Confidence: clock.confidence * 0.9,
			Fragments:  []string{clock.fragment},
		}, true
	}

	return Result{}, false
}

// ParseDuration recognizes a duration phrase and returns it in whole
// minutes together with the literal fragment consumed. Callers default to
// 60 when nothing matches.
func ParseDuration(text string) (int, string, bool) {
	lowered := strings.ToLower(text)

	if m := wordDurationPat.FindString(lowered); m != "" {
		switch m {
		case "half an hour":
			return 30, m, true
		case "an hour and a half":
			return 90, m, true
		default:
			return 60, m, true
		}
	}

	groups := durationPattern.FindStringSubmatch(lowered)
	if groups == nil {
		return 0, "", false
	}

	amount, err := strconv.ParseFloat(groups[1], 64)
	if err != nil || amount <= 0 {
		return 0, "", false
	}

	minutes := amount
	if strings.HasPrefix(groups[2], "h") {
		minutes = amount * 60
	}
	if minutes < 1 {
		return 0, "", false
	}
	return int(minutes + 0.5), groups[0], true
}

// EarliestDirective reports whether text asks for the earliest available
// slot, deferring instant resolution to conflict detection.
func EarliestDirective(text string) (string, bool) {
	m := earliestPatterns.FindString(strings.ToLower(text))
	return m, m != ""
}

func findDate(lowered string, now time.Time) (dateMatch, bool) {
	if groups := isoDatePattern.FindStringSubmatch(lowered); groups != nil {
		year, _ := strconv.Atoi(groups[1])
		month, _ := strconv.Atoi(groups[2])
		day, _ := strconv.Atoi(groups[3])
		if month >= 1 && month <= 12 && validDay(year, time.Month(month), day) {
			return dateMatch{
				year:       year,
				month:      time.Month(month),
				day:        day,
				confidence: confidenceExact,
				fragment:   groups[0],
			}, true
		}
	}

	if groups := monthDayPattern.FindStringSubmatch(lowered); groups != nil {
		month := monthsByName[strings.TrimSuffix(groups[1], ".")]
		day, _ := strconv.Atoi(groups[2])
		year := now.Year()
		explicitYear := false
		if groups[3] != "" {
			year, _ = strconv.Atoi(groups[3])
			explicitYear = true
		}
		if validDay(year, month, day) {
			// A month-day already past rolls into next year unless the year
			// was spelled out.
			candidate := time.Date(year, month, day, 23, 59, 59, 0, now.Location())
			if !explicitYear && candidate.Before(now) {
				year++
			}
			return dateMatch{
				year:       year,
				month:      month,
				day:        day,
				confidence: confidenceStrong,
				fragment:   groups[0],
			}, true
		}
	}

	if groups := relativePattern.FindStringSubmatch(lowered); groups != nil {
		offset := 0
		impliedHour := 0
		switch groups[1] {
		case "tomorrow":
			offset = 1
		case "day after tomorrow":
			offset = 2
		case "tonight":
			impliedHour = eveningHour
		}
		target := now.AddDate(0, 0, offset)
		return dateMatch{
			year:        target.Year(),
			month:       target.Month(),
			day:         target.Day(),
			impliedHour: impliedHour,
			confidence:  confidenceStrong,
			fragment:    groups[0],
		}, true
	}

	if groups := weekdayPattern.FindStringSubmatch(lowered); groups != nil {
		weekday := weekdaysByName[groups[2]]
		ahead := (int(weekday) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		if groups[1] != "" {
			ahead += 7
		}
		target := now.AddDate(0, 0, ahead)
		return dateMatch{
			year:       target.Year(),
			month:      target.Month(),
			day:        target.Day(),
			confidence: confidenceWeekday,
			fragment:   strings.TrimSpace(groups[0]),
		}, true
	}

	return dateMatch{}, false
}

func findClock(lowered string) (clockMatch, bool) {
	if groups := clockPattern.FindStringSubmatch(lowered); groups != nil {
		hour, _ := strconv.Atoi(groups[1])
		minute, _ := strconv.Atoi(groups[2])
		hour, ok := applyMeridiem(hour, groups[3])
		if ok && minute >= 0 && minute <= 59 {
			return clockMatch{
				hour:       hour,
				minute:     minute,
				confidence: confidenceExact,
				fragment:   strings.TrimSpace(groups[0]),
			}, true
		}
	}

	if groups := hourMeridiemPat.FindStringSubmatch(lowered); groups != nil {
		hour, _ := strconv.Atoi(groups[1])
		if hour, ok := applyMeridiem(hour, groups[2]); ok {
			return clockMatch{
				hour:       hour,
				confidence: confidenceExact,
				fragment:   strings.TrimSpace(groups[0]),
			}, true
		}
	}

	if groups := noonPattern.FindStringSubmatch(lowered); groups != nil {
		hour := 12
		if groups[1] == "midnight" {
			hour = 0
		}
		return clockMatch{hour: hour, confidence: confidenceStrong, fragment: groups[0]}, true
	}

	if groups := bareHourPattern.FindStringSubmatch(lowered); groups != nil {
		hour, _ := strconv.Atoi(groups[1])
		if hour >= 0 && hour <= 23 {
			// Bare "at 3" without a meridiem assumes working hours: small
			// hours read as afternoon.
			if hour >= 1 && hour <= 7 {
				hour += 12
			}
			return clockMatch{
				hour:       hour,
				confidence: confidenceBareHour,
				fragment:   groups[0],
			}, true
		}
	}

	return clockMatch{}, false
}

func applyMeridiem(hour int, meridiem string) (int, bool) {
	meridiem = strings.ReplaceAll(meridiem, ".", "")
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
		return hour, true
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
		return hour, true
	default:
		if hour < 0 || hour > 23 {
			return 0, false
		}
		return hour, true
	}
}

func validDay(year int, month time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	constructed := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return constructed.Month() == month && constructed.Day() == day
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
