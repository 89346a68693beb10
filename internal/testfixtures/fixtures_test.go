package testfixtures

import (
	"testing"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	reset := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	clock.Set(reset)
	if !clock.Now().Equal(reset) {
		t.Fatalf("expected %v after set, got %v", reset, clock.Now())
	}
}

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("meeting")
	if got := gen.Next(); got != "meeting-1" {
		t.Fatalf("expected meeting-1, got %q", got)
	}
	if got := gen.Next(); got != "meeting-2" {
		t.Fatalf("expected meeting-2, got %q", got)
	}

	next := gen.NextFunc()
	if got := next(); got != "meeting-3" {
		t.Fatalf("expected meeting-3, got %q", got)
	}
}

func TestUserFixtureOverrides(t *testing.T) {
	fixture := NewUserFixture(WithUserID("user-admin"), WithUserAdmin(true), WithUserDisplayName("Olivia Chen"))

	user := fixture.Application()
	if user.ID != "user-admin" || !user.IsAdmin || user.DisplayName != "Olivia Chen" {
		t.Fatalf("unexpected user: %+v", user)
	}

	principal := fixture.Principal()
	if principal.UserID != "user-admin" || !principal.IsAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	stored := fixture.Persistence()
	if stored.ID != "user-admin" || stored.PasswordHash == "" {
		t.Fatalf("unexpected persistence user: %+v", stored)
	}
}

func TestEntryFixtureDefaults(t *testing.T) {
	fixture := NewEntryFixture(WithEntryStatus(application.StatusPending))

	entry := fixture.Application()
	if entry.Status != application.StatusPending {
		t.Fatalf("expected pending, got %q", entry.Status)
	}
	if entry.OrganizerID != entry.OwnerID {
		t.Fatalf("expected owner to organize by default, got %+v", entry)
	}
	if len(entry.ParticipantIDs) != 1 || entry.ParticipantIDs[0] != entry.OwnerID {
		t.Fatalf("expected owner as sole participant, got %v", entry.ParticipantIDs)
	}

	stored := fixture.Persistence()
	if stored.Status != "pending" {
		t.Fatalf("expected pending status string, got %q", stored.Status)
	}
}
