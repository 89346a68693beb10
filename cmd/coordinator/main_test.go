package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
	"github.com/example/meeting-coordinator/internal/command"
	"github.com/example/meeting-coordinator/internal/config"
	"github.com/example/meeting-coordinator/internal/persistence/sqlite"
	"github.com/example/meeting-coordinator/internal/testfixtures"
)

type coordinatorHarness struct {
	clock         *testfixtures.Clock
	users         *userRepositoryAdapter
	conversations *application.ConversationService
	coordination  *application.CoordinationService
	schedules     *application.ScheduleService
}

func newCoordinatorHarness(t *testing.T) *coordinatorHarness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "coordinator.db")
	storage, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if cerr := storage.Close(); cerr != nil {
			t.Errorf("Close() error = %v", cerr)
		}
	})
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("id")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := newUserRepositoryAdapter(sqlite.NewUserRepository(storage))
	conversations := newConversationRepositoryAdapter(sqlite.NewConversationRepository(storage))
	entries := newEntryStoreAdapter(sqlite.NewEntryRepository(storage))
	hub := application.NewWatchHub()

	return &coordinatorHarness{
		clock:         clock,
		users:         users,
		conversations: application.NewConversationServiceWithLogger(conversations, ids.NextFunc(), clock.NowFunc(), logger),
		coordination:  application.NewCoordinationServiceWithLogger(entries, conversations, hub, nil, ids.NextFunc(), clock.NowFunc(), logger),
		schedules:     application.NewScheduleServiceWithLogger(entries, hub, clock.NowFunc(), logger),
	}
}

func (h *coordinatorHarness) seedUser(t *testing.T, fixture testfixtures.UserFixture) application.User {
	t.Helper()
	user, err := h.users.CreateUser(context.Background(), fixture.Application(), fixture.PasswordHash)
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", fixture.ID, err)
	}
	return user
}

func TestMeetingLifecycleAgainstSQLite(t *testing.T) {
	h := newCoordinatorHarness(t)
	ctx := context.Background()

	alice := testfixtures.NewUserFixture(testfixtures.WithUserID("alice"))
	bob := testfixtures.NewUserFixture(testfixtures.WithUserID("bob"))
	carol := testfixtures.NewUserFixture(testfixtures.WithUserID("carol"))
	for _, fixture := range []testfixtures.UserFixture{alice, bob, carol} {
		h.seedUser(t, fixture)
	}

	conversation, err := h.conversations.CreateConversation(ctx, application.CreateConversationParams{
		Principal: alice.Principal(),
		Title:     "Launch planning",
		Role:      command.RoleDesign,
	})
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	for _, fixture := range []testfixtures.UserFixture{bob, carol} {
		err := h.conversations.AddMember(ctx, application.AddMemberParams{
			Principal:      alice.Principal(),
			ConversationID: conversation.ID,
			UserID:         fixture.ID,
			Role:           command.RoleEngineering,
		})
		if err != nil {
			t.Fatalf("AddMember(%s) error = %v", fixture.ID, err)
		}
	}

	start := h.clock.Now().Add(2 * time.Hour)
	created, err := h.coordination.CreateMeeting(ctx, application.CreateMeetingParams{
		Principal:       alice.Principal(),
		ConversationID:  conversation.ID,
		Title:           "Design review",
		Start:           start,
		DurationMinutes: 45,
		ParticipantIDs:  []string{bob.ID},
		IdempotencyKey:  "cmd-001",
	})
	if err != nil {
		t.Fatalf("CreateMeeting() error = %v", err)
	}
	if created.Deduplicated {
		t.Error("CreateMeeting() Deduplicated = true, want false")
	}
	if created.Entry.Status != application.StatusAccepted {
		t.Errorf("organizer entry status = %s, want %s", created.Entry.Status, application.StatusAccepted)
	}
	if len(created.Entry.ParticipantIDs) != 2 {
		t.Fatalf("participants = %v, want organizer and one invitee", created.Entry.ParticipantIDs)
	}

	bobEntries, err := h.schedules.ListSchedule(ctx, application.ListScheduleParams{
		Principal:      bob.Principal(),
		ConversationID: conversation.ID,
		View:           application.ViewUpcoming,
	})
	if err != nil {
		t.Fatalf("ListSchedule(bob) error = %v", err)
	}
	if len(bobEntries) != 1 {
		t.Fatalf("ListSchedule(bob) returned %d entries, want 1", len(bobEntries))
	}
	if bobEntries[0].Status != application.StatusPending {
		t.Errorf("invitee entry status = %s, want %s", bobEntries[0].Status, application.StatusPending)
	}
	if !bobEntries[0].Start.Equal(start) {
		t.Errorf("invitee entry start = %v, want %v", bobEntries[0].Start, start)
	}

	carolEntries, err := h.schedules.ListSchedule(ctx, application.ListScheduleParams{
		Principal:      carol.Principal(),
		ConversationID: conversation.ID,
		View:           application.ViewUpcoming,
	})
	if err != nil {
		t.Fatalf("ListSchedule(carol) error = %v", err)
	}
	if len(carolEntries) != 0 {
		t.Errorf("ListSchedule(carol) returned %d entries, want 0", len(carolEntries))
	}

	updated, err := h.coordination.UpdateStatus(ctx, application.UpdateStatusParams{
		Principal: bob.Principal(),
		MeetingID: created.Entry.MeetingID,
		Status:    application.StatusAccepted,
	})
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != application.StatusAccepted {
		t.Errorf("UpdateStatus() status = %s, want %s", updated.Status, application.StatusAccepted)
	}

	retried, err := h.coordination.CreateMeeting(ctx, application.CreateMeetingParams{
		Principal:       alice.Principal(),
		ConversationID:  conversation.ID,
		Title:           "Design review",
		Start:           start,
		DurationMinutes: 45,
		ParticipantIDs:  []string{bob.ID},
		IdempotencyKey:  "cmd-001",
	})
	if err != nil {
		t.Fatalf("CreateMeeting() retry error = %v", err)
	}
	if !retried.Deduplicated {
		t.Error("CreateMeeting() retry Deduplicated = false, want true")
	}
	if retried.Entry.MeetingID != created.Entry.MeetingID {
		t.Errorf("retry resolved to meeting %s, want %s", retried.Entry.MeetingID, created.Entry.MeetingID)
	}

	if err := h.coordination.DeleteMeeting(ctx, alice.Principal(), created.Entry.MeetingID); err != nil {
		t.Fatalf("DeleteMeeting() error = %v", err)
	}
	for _, fixture := range []testfixtures.UserFixture{alice, bob} {
		entries, err := h.schedules.ListSchedule(ctx, application.ListScheduleParams{
			Principal:      fixture.Principal(),
			ConversationID: conversation.ID,
			View:           application.ViewUpcoming,
		})
		if err != nil {
			t.Fatalf("ListSchedule(%s) error = %v", fixture.ID, err)
		}
		if len(entries) != 0 {
			t.Errorf("ListSchedule(%s) returned %d entries after delete, want 0", fixture.ID, len(entries))
		}
	}
}

func TestSeedAdmin(t *testing.T) {
	h := newCoordinatorHarness(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Config{
		AdminEmail:    "admin@example.com",
		AdminPassword: "initial-secret",
	}

	if err := seedAdmin(ctx, cfg, h.users, logger); err != nil {
		t.Fatalf("seedAdmin() error = %v", err)
	}
	seeded, err := h.users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(seeded) != 1 {
		t.Fatalf("ListUsers() returned %d users, want 1", len(seeded))
	}
	if !seeded[0].IsAdmin {
		t.Error("seeded user IsAdmin = false, want true")
	}
	if seeded[0].Email != cfg.AdminEmail {
		t.Errorf("seeded email = %s, want %s", seeded[0].Email, cfg.AdminEmail)
	}

	// A second run must not create another account.
	if err := seedAdmin(ctx, cfg, h.users, logger); err != nil {
		t.Fatalf("seedAdmin() second run error = %v", err)
	}
	after, err := h.users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(after) != 1 {
		t.Errorf("ListUsers() returned %d users after reseed, want 1", len(after))
	}
}

func TestSeedAdminSkipsWithoutCredentials(t *testing.T) {
	h := newCoordinatorHarness(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := seedAdmin(ctx, config.Config{}, h.users, logger); err != nil {
		t.Fatalf("seedAdmin() error = %v", err)
	}
	users, err := h.users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("ListUsers() returned %d users, want 0", len(users))
	}
}
