package command

import (
	"sort"
	"strings"
)

// RosterMember is one conversation member as seen by the resolver.
type RosterMember struct {
	UserID      string
	DisplayName string
	Role        Role
}

// Resolve expands participant specs against the conversation roster into a
// deduplicated, sorted set of member identities. The caller is always part
// of the result: every participant must compute the identical set from the
// same meeting record, so the organizer is never special-cased downstream.
//
// Name matching is case-insensitive substring containment against display
// names; role matching is exact equality after alias canonicalization,
// which Parse has already applied.
func Resolve(specs []ParticipantSpec, roster []RosterMember, callerID string) ([]string, error) {
	if len(specs) == 0 {
		return nil, &ResolutionError{Spec: "any participant specifier"}
	}

	selected := map[string]struct{}{}
	if callerID != "" {
		selected[callerID] = struct{}{}
	}

	for _, spec := range specs {
		matched := false
		for _, member := range roster {
			if !matchesSpec(spec, member) {
				continue
			}
			matched = true
			selected[member.UserID] = struct{}{}
		}
		if !matched {
			return nil, &ResolutionError{Spec: describeSpec(spec)}
		}
	}

	ids := make([]string, 0, len(selected))
	for id := range selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func matchesSpec(spec ParticipantSpec, member RosterMember) bool {
	switch spec.Kind {
	case SpecEveryone:
		return true
	case SpecByRole:
		return member.Role == spec.Role
	case SpecByName:
		name := strings.ToLower(member.DisplayName)
		return name != "" && strings.Contains(name, strings.ToLower(spec.Name))
	default:
		return false
	}
}

func describeSpec(spec ParticipantSpec) string {
	switch spec.Kind {
	case SpecEveryone:
		return "everyone"
	case SpecByRole:
		return "role " + string(spec.Role)
	case SpecByName:
		return `"` + spec.Name + `"`
	default:
		return "the participant specifier"
	}
}
