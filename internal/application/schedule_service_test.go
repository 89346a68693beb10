package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

var scheduleTestNow = time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

func scheduleClock() time.Time { return scheduleTestNow }

func seedScheduleEntries(t *testing.T, store *memEntryStore) {
	t.Helper()

	ctx := context.Background()
	base := scheduleTestNow
	seed := []ScheduleEntry{
		{OwnerID: "user-a", MeetingID: "m-1", ConversationID: "conv1", Title: "Kickoff", Start: base.Add(9 * time.Hour), DurationMinutes: 60, Status: StatusDone},
		{OwnerID: "user-a", MeetingID: "m-2", ConversationID: "conv1", Title: "Standup", Start: base.Add(26 * time.Hour), DurationMinutes: 15, Status: StatusAccepted},
		{OwnerID: "user-a", MeetingID: "m-3", ConversationID: "conv1", Title: "Review", Start: base.Add(30 * time.Hour), DurationMinutes: 30, Status: StatusPending},
		{OwnerID: "user-a", MeetingID: "m-4", ConversationID: "conv1", Title: "Old retro", Start: base.Add(-24 * time.Hour), DurationMinutes: 60, Status: StatusDone},
		{OwnerID: "user-a", MeetingID: "m-5", ConversationID: "conv2", Title: "Other group", Start: base.Add(28 * time.Hour), DurationMinutes: 30, Status: StatusPending},
		{OwnerID: "user-a", MeetingID: "m-6", ConversationID: "conv1", Title: "Missed sync", Start: base.Add(-2 * time.Hour), DurationMinutes: 30, Status: StatusPending},
		{OwnerID: "user-b", MeetingID: "m-2", ConversationID: "conv1", Title: "Standup", Start: base.Add(26 * time.Hour), DurationMinutes: 15, Status: StatusPending},
	}
	for _, entry := range seed {
		entry.ParticipantIDs = []string{entry.OwnerID}
		entry.OrganizerID = entry.OwnerID
		if _, err := store.CreateMeetingEntries(ctx, []ScheduleEntry{entry}, entry.OwnerID, ""); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func TestScheduleService_ListSchedule_Upcoming(t *testing.T) {
	store := newMemEntryStore()
	seedScheduleEntries(t, store)
	svc := NewScheduleService(store, nil, scheduleClock)

	entries, err := svc.ListSchedule(context.Background(), ListScheduleParams{
		Principal:      Principal{UserID: "user-a"},
		ConversationID: "conv1",
	})
	if err != nil {
		t.Fatalf("ListSchedule failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 upcoming entries, got %d", len(entries))
	}
	if entries[0].MeetingID != "m-2" || entries[1].MeetingID != "m-3" {
		t.Errorf("expected soonest first [m-2 m-3], got [%s %s]", entries[0].MeetingID, entries[1].MeetingID)
	}
}

func TestScheduleService_ListSchedule_UpcomingExcludesPastEntries(t *testing.T) {
	store := newMemEntryStore()
	seedScheduleEntries(t, store)
	svc := NewScheduleService(store, nil, scheduleClock)

	entries, err := svc.ListSchedule(context.Background(), ListScheduleParams{
		Principal:      Principal{UserID: "user-a"},
		ConversationID: "conv1",
		View:           ViewUpcoming,
	})
	if err != nil {
		t.Fatalf("ListSchedule failed: %v", err)
	}
	for _, entry := range entries {
		if entry.MeetingID == "m-6" {
			t.Errorf("upcoming view returned past entry %q starting %v", entry.MeetingID, entry.Start)
		}
		if entry.Start.Before(scheduleTestNow) {
			t.Errorf("entry %q starts before now: %v", entry.MeetingID, entry.Start)
		}
	}
}

func TestScheduleService_ListSchedule_Done(t *testing.T) {
	store := newMemEntryStore()
	seedScheduleEntries(t, store)
	svc := NewScheduleService(store, nil, scheduleClock)

	entries, err := svc.ListSchedule(context.Background(), ListScheduleParams{
		Principal:      Principal{UserID: "user-a"},
		ConversationID: "conv1",
		View:           ViewDone,
	})
	if err != nil {
		t.Fatalf("ListSchedule failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 done entries, got %d", len(entries))
	}
	if entries[0].MeetingID != "m-1" || entries[1].MeetingID != "m-4" {
		t.Errorf("expected most recent first [m-1 m-4], got [%s %s]", entries[0].MeetingID, entries[1].MeetingID)
	}
}

func TestScheduleService_ListSchedule_ScopedToOwnerAndConversation(t *testing.T) {
	store := newMemEntryStore()
	seedScheduleEntries(t, store)
	svc := NewScheduleService(store, nil, scheduleClock)

	entries, err := svc.ListSchedule(context.Background(), ListScheduleParams{
		Principal:      Principal{UserID: "user-b"},
		ConversationID: "conv1",
	})
	if err != nil {
		t.Fatalf("ListSchedule failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != StatusPending {
		t.Errorf("expected only user-b's own pending entry, got %+v", entries)
	}
}

func TestScheduleService_ListSchedule_UnknownView(t *testing.T) {
	svc := NewScheduleService(newMemEntryStore(), nil, scheduleClock)

	_, err := svc.ListSchedule(context.Background(), ListScheduleParams{
		Principal: Principal{UserID: "user-a"},
		View:      "archived",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestScheduleService_Watch(t *testing.T) {
	hub := NewWatchHub()
	svc := NewScheduleService(newMemEntryStore(), hub, scheduleClock)

	signals, cancel, err := svc.Watch("user-a")
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	hub.Notify("user-a")
	select {
	case <-signals:
	default:
		t.Fatal("expected a change signal")
	}

	cancel()
	if hub.SubscriberCount("user-a") != 0 {
		t.Error("expected subscription to be released")
	}
}
