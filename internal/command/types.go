// Package command turns a raw scheduling command string into a structured
// request: who to invite, when to meet, for how long, and under what title.
// It also resolves participant specifiers against a conversation roster.
package command

import "time"

// SpecKind discriminates the participant specifier variants.
type SpecKind string

const (
	// SpecEveryone selects the whole conversation roster.
	SpecEveryone SpecKind = "everyone"
	// SpecByRole selects members carrying a canonical role.
	SpecByRole SpecKind = "by_role"
	// SpecByName selects members whose display name contains a fragment.
	SpecByName SpecKind = "by_name"
)

// ParticipantSpec is one participant selector extracted from a command.
// Multiple specs union together; they never intersect.
type ParticipantSpec struct {
	Kind SpecKind
	Role Role
	Name string
}

// ParsedCommand is the immutable result of parsing one scheduling command.
type ParsedCommand struct {
	Specs           []ParticipantSpec
	Start           *time.Time
	StartConfidence float64
	DurationMinutes int
	Title           string
	Earliest        bool
}

// ParseError reports an unrecognizable command shape. The reason is
// user-facing guidance: the input must change, retrying cannot help.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	if e == nil || e.Reason == "" {
		return "command could not be understood"
	}
	return e.Reason
}

// ResolutionError reports a participant spec that matched nobody in the
// roster.
type ResolutionError struct {
	Spec string
}

func (e *ResolutionError) Error() string {
	if e == nil || e.Spec == "" {
		return "no participants matched"
	}
	return "no participants matched " + e.Spec
}
