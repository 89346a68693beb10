package sqlite

import (
	"fmt"
	"time"
)

// Times are stored as RFC 3339 strings in UTC so that lexical ordering in
// SQL matches chronological ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return t.UTC(), nil
}
