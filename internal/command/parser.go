package command

import (
	"regexp"
	"strings"
	"time"

	"github.com/example/meeting-coordinator/internal/temporal"
)

const defaultDurationMinutes = 60

var (
	quotedTitlePattern = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
	namedTitlePattern  = regexp.MustCompile(`\b(?:titled|called|about)\s+(.+)$`)
	leadVerbPattern    = regexp.MustCompile(`^\s*(?:please\s+)?(?:schedule|set\s+up|book|arrange|plan)\s*(?:a|an)?\s*(?:meeting|sync|call|session|chat)?\s*`)
	everyonePattern    = regexp.MustCompile(`\b(everyone|everybody|the\s+whole\s+team|the\s+team|all\s+of\s+us)\b`)
	splitPattern       = regexp.MustCompile(`\s*(?:,|\band\b|&)\s*`)
	namePattern        = regexp.MustCompile(`^[\p{L}][\p{L} .'-]{0,39}$`)
)

// stopwords are fragments left behind by preposition anchors and filler
// that must never be mistaken for a name.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "me": {}, "us": {}, "meeting": {},
	"with": {}, "for": {}, "at": {}, "on": {}, "in": {}, "to": {},
	"next": {}, "this": {}, "please": {}, "schedule": {}, "sync": {},
	"call": {}, "session": {}, "chat": {}, "team": {},
}

// Parse converts a raw scheduling command into a ParsedCommand relative to
// now. It is pure: same text and now always produce the same result, and
// no store or clock is consulted. Past start times are not rejected here;
// that is validation's job.
func Parse(text string, now time.Time) (ParsedCommand, error) {
	remaining := strings.TrimSpace(text)
	if remaining == "" {
		return ParsedCommand{}, &ParseError{Reason: "the command is empty"}
	}
	remaining = leadVerbPattern.ReplaceAllString(remaining, "")

	parsed := ParsedCommand{DurationMinutes: defaultDurationMinutes}

	// Duration and start time first: they are anchored by "for"/"at" and
	// their fragments must not leak into participant extraction.
	if minutes, fragment, ok := temporal.ParseDuration(remaining); ok {
		parsed.DurationMinutes = minutes
		remaining = removeFragment(remaining, "for "+fragment)
		remaining = removeFragment(remaining, fragment)
	}

	if fragment, ok := temporal.EarliestDirective(remaining); ok {
		parsed.Earliest = true
		remaining = removeFragment(remaining, fragment)
	}

	if result, ok := temporal.ParseStart(remaining, now); ok {
		at := result.At
		parsed.Start = &at
		parsed.StartConfidence = result.Confidence
		for _, fragment := range result.Fragments {
			remaining = removeFragment(remaining, "for "+fragment)
			remaining = removeFragment(remaining, "on "+fragment)
			remaining = removeFragment(remaining, "at "+fragment)
			remaining = removeFragment(remaining, fragment)
		}
	}

	if parsed.Start == nil && !parsed.Earliest {
		return ParsedCommand{}, &ParseError{
			Reason: "no meeting time found; say when to meet, like \"tomorrow at 2pm\", or ask for the earliest available slot",
		}
	}

	parsed.Title, remaining = extractTitle(remaining)

	parsed.Specs = extractSpecs(remaining)
	if len(parsed.Specs) == 0 {
		return ParsedCommand{}, &ParseError{
			Reason: "no participants found; name people, a role like \"the designers\", or say \"everyone\"",
		}
	}

	return parsed, nil
}

func extractTitle(text string) (string, string) {
	if groups := quotedTitlePattern.FindStringSubmatch(text); groups != nil {
		title := groups[1]
		if title == "" {
			title = groups[2]
		}
		return strings.TrimSpace(title), strings.Replace(text, groups[0], " ", 1)
	}

	if groups := namedTitlePattern.FindStringSubmatch(text); groups != nil {
		title := groups[1]
		// The title runs to the end of the command unless a participant
		// segment follows it.
		if cut := strings.Index(strings.ToLower(title), " with "); cut >= 0 {
			title = title[:cut]
		}
		title = strings.TrimSpace(title)
		if title != "" {
			return title, strings.Replace(text, groups[0][:len(groups[0])-len(groups[1])]+title, " ", 1)
		}
	}

	return "", text
}

// extractSpecs runs the three participant extractors in precedence order,
// unioning every match: the everyone literal, role-alias mentions, then
// comma/"and"-delimited name fragments.
func extractSpecs(text string) []ParticipantSpec {
	var specs []ParticipantSpec
	lowered := strings.ToLower(text)

	if m := everyonePattern.FindString(lowered); m != "" {
		specs = append(specs, ParticipantSpec{Kind: SpecEveryone})
		lowered = removeFragment(lowered, m)
		text = removeFragment(text, m)
	}

	seenRoles := make(map[Role]struct{})
	for _, candidate := range roleMentions(lowered) {
		role, ok := CanonicalRole(candidate.mention)
		if !ok {
			continue
		}
		if _, dup := seenRoles[role]; dup {
			continue
		}
		seenRoles[role] = struct{}{}
		specs = append(specs, ParticipantSpec{Kind: SpecByRole, Role: role})
		text = removeFragment(text, candidate.literal)
	}

	for _, name := range nameFragments(text) {
		specs = append(specs, ParticipantSpec{Kind: SpecByName, Name: name})
	}

	return specs
}

type roleMention struct {
	mention string
	literal string
}

// roleMentions yields token unigrams and bigrams so multi-word aliases
// like "product manager" resolve alongside single words.
func roleMentions(lowered string) []roleMention {
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	})

	var mentions []roleMention
	for i, word := range words {
		if i+1 < len(words) {
			bigram := word + " " + words[i+1]
			mentions = append(mentions, roleMention{mention: bigram, literal: bigram})
		}
		mentions = append(mentions, roleMention{mention: word, literal: word})
	}
	return mentions
}

func nameFragments(text string) []string {
	segment := withSegment(text)
	if segment == "" {
		return nil
	}

	var names []string
	for _, piece := range splitPattern.Split(segment, -1) {
		candidate := strings.TrimSpace(piece)
		for _, article := range []string{"the ", "a ", "an "} {
			candidate = strings.TrimPrefix(candidate, article)
		}
		candidate = strings.Trim(candidate, " .,!?")
		if candidate == "" {
			continue
		}
		if _, stop := stopwords[strings.ToLower(candidate)]; stop {
			continue
		}
		if _, isRole := CanonicalRole(candidate); isRole {
			continue
		}
		if !namePattern.MatchString(candidate) {
			continue
		}
		names = append(names, candidate)
	}
	return names
}

// withSegment isolates the text that follows the first "with", where name
// lists live. Without the anchor there is nothing to treat as a name.
func withSegment(text string) string {
	lowered := strings.ToLower(text)
	idx := strings.Index(lowered, "with ")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+len("with "):])
}

// removeFragment deletes the first case-insensitive occurrence of fragment,
// replacing it with a single space so word boundaries survive.
func removeFragment(text, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return text
	}
	lowered := strings.ToLower(text)
	idx := strings.Index(lowered, strings.ToLower(fragment))
	if idx < 0 {
		return text
	}
	return text[:idx] + " " + text[idx+len(fragment):]
}
