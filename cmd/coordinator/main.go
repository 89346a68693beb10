package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/meeting-coordinator/internal/application"
	"github.com/example/meeting-coordinator/internal/command"
	"github.com/example/meeting-coordinator/internal/config"
	"github.com/example/meeting-coordinator/internal/events"
	httptransport "github.com/example/meeting-coordinator/internal/http"
	"github.com/example/meeting-coordinator/internal/persistence"
	"github.com/example/meeting-coordinator/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := func() string { return randomHex(16) }
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := sqlite.NewUserRepository(storage)
	sessionRepo := sqlite.NewSessionRepository(storage)
	conversationRepo := sqlite.NewConversationRepository(storage)
	entryRepo := sqlite.NewEntryRepository(storage)

	users := newUserRepositoryAdapter(userRepo)
	credentials := newCredentialStoreAdapter(userRepo)
	sessions := newSessionRepositoryAdapter(sessionRepo)
	conversations := newConversationRepositoryAdapter(conversationRepo)
	entries := newEntryStoreAdapter(entryRepo)

	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Error("failed to connect event publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
	}
	sink := events.NewSink(publisher)

	hub := application.NewWatchHub()

	authService := application.NewAuthServiceWithLogger(credentials, sessions, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	userService := application.NewUserService(users, nil, idGenerator, now)
	conversationService := application.NewConversationServiceWithLogger(conversations, idGenerator, now, logger)
	coordinationService := application.NewCoordinationServiceWithLogger(entries, conversations, hub, sink, idGenerator, now, logger)
	commandService := application.NewCommandServiceWithLogger(coordinationService, conversations, now, logger)
	scheduleService := application.NewScheduleServiceWithLogger(entries, hub, now, logger)

	if err := seedAdmin(ctx, cfg, users, logger); err != nil {
		logger.Error("failed to seed administrator account", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Conversations: httptransport.NewConversationHandler(conversationService, logger),
		Commands:      httptransport.NewCommandHandler(commandService, logger),
		Meetings:      httptransport.NewMeetingHandler(coordinationService, logger),
		Schedules:     httptransport.NewScheduleHandler(scheduleService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})
	handler = httptransport.RateLimit(cfg.RateLimit, cfg.RateBurst, logger)(handler)
	handler = httptransport.RequestLogger(logger)(handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("coordinator API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the configured administrator account when the user
// table is empty, so a fresh deployment can log in.
func seedAdmin(ctx context.Context, cfg config.Config, users *userRepositoryAdapter, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	existing, err := users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := application.CreatePasswordHash(cfg.AdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := application.User{
		ID:          randomHex(16),
		Email:       cfg.AdminEmail,
		DisplayName: "Administrator",
		IsAdmin:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := users.CreateUser(ctx, admin, hash); err != nil {
		return err
	}

	logger.Info("seeded administrator account", "email", cfg.AdminEmail)
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

type conversationRepositoryAdapter struct {
	repo persistence.ConversationRepository
}

func newConversationRepositoryAdapter(repo persistence.ConversationRepository) *conversationRepositoryAdapter {
	return &conversationRepositoryAdapter{repo: repo}
}

func (a *conversationRepositoryAdapter) CreateConversation(ctx context.Context, conversation application.Conversation) (application.Conversation, error) {
	if err := a.repo.CreateConversation(ctx, persistence.Conversation{
		ID:        conversation.ID,
		Title:     conversation.Title,
		CreatedBy: conversation.CreatedBy,
		CreatedAt: conversation.CreatedAt,
	}); err != nil {
		return application.Conversation{}, err
	}
	return a.GetConversation(ctx, conversation.ID)
}

func (a *conversationRepositoryAdapter) GetConversation(ctx context.Context, id string) (application.Conversation, error) {
	stored, err := a.repo.GetConversation(ctx, id)
	if err != nil {
		return application.Conversation{}, err
	}
	return application.Conversation{
		ID:        stored.ID,
		Title:     stored.Title,
		CreatedBy: stored.CreatedBy,
		CreatedAt: stored.CreatedAt,
	}, nil
}

func (a *conversationRepositoryAdapter) AddMember(ctx context.Context, conversationID, userID string, role command.Role, joinedAt time.Time) error {
	return a.repo.AddMember(ctx, conversationID, userID, string(role), joinedAt)
}

func (a *conversationRepositoryAdapter) SetMemberRole(ctx context.Context, conversationID, userID string, role command.Role) error {
	return a.repo.SetMemberRole(ctx, conversationID, userID, string(role))
}

func (a *conversationRepositoryAdapter) ListMembers(ctx context.Context, conversationID string) ([]application.Member, error) {
	models, err := a.repo.ListMembers(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	members := make([]application.Member, 0, len(models))
	for _, model := range models {
		members = append(members, application.Member{
			ConversationID: model.ConversationID,
			UserID:         model.UserID,
			DisplayName:    model.DisplayName,
			Role:           command.Role(model.Role),
			JoinedAt:       model.JoinedAt,
		})
	}
	return members, nil
}

type entryStoreAdapter struct {
	repo persistence.ScheduleEntryRepository
}

func newEntryStoreAdapter(repo persistence.ScheduleEntryRepository) *entryStoreAdapter {
	return &entryStoreAdapter{repo: repo}
}

func (a *entryStoreAdapter) CreateMeetingEntries(ctx context.Context, entries []application.ScheduleEntry, organizerID, idempotencyKey string) (application.CreateOutcome, error) {
	models := make([]persistence.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		models = append(models, toPersistenceEntry(entry))
	}
	result, err := a.repo.CreateMeetingEntries(ctx, models, persistence.IdempotencyClaim{
		OrganizerID: organizerID,
		Key:         idempotencyKey,
	})
	if err != nil {
		return application.CreateOutcome{}, err
	}
	return application.CreateOutcome{
		MeetingID:    result.MeetingID,
		Deduplicated: result.Deduplicated,
	}, nil
}

func (a *entryStoreAdapter) GetEntry(ctx context.Context, ownerID, meetingID string) (application.ScheduleEntry, error) {
	stored, err := a.repo.GetEntry(ctx, ownerID, meetingID)
	if err != nil {
		return application.ScheduleEntry{}, err
	}
	return toApplicationEntry(stored), nil
}

func (a *entryStoreAdapter) ListEntries(ctx context.Context, filter application.EntryFilter) ([]application.ScheduleEntry, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}
	models, err := a.repo.ListEntries(ctx, persistence.EntryFilter{
		OwnerID:        filter.OwnerID,
		ConversationID: filter.ConversationID,
		Statuses:       statuses,
		StartsAfter:    filter.StartsAfter,
		StartsBefore:   filter.StartsBefore,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	entries := make([]application.ScheduleEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationEntry(model))
	}
	return entries, nil
}

func (a *entryStoreAdapter) UpdateEntryStatus(ctx context.Context, ownerID, meetingID string, status application.Status, updatedAt time.Time) error {
	return a.repo.UpdateEntryStatus(ctx, ownerID, meetingID, string(status), updatedAt)
}

func (a *entryStoreAdapter) DeleteMeetingEntries(ctx context.Context, meetingID string, ownerIDs []string) error {
	return a.repo.DeleteMeetingEntries(ctx, meetingID, ownerIDs)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func toApplicationEntry(model persistence.ScheduleEntry) application.ScheduleEntry {
	return application.ScheduleEntry{
		OwnerID:         model.OwnerID,
		MeetingID:       model.MeetingID,
		ConversationID:  model.ConversationID,
		Title:           model.Title,
		Start:           model.Start,
		DurationMinutes: model.DurationMinutes,
		ParticipantIDs:  append([]string(nil), model.ParticipantIDs...),
		OrganizerID:     model.OrganizerID,
		Status:          application.Status(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistenceEntry(entry application.ScheduleEntry) persistence.ScheduleEntry {
	return persistence.ScheduleEntry{
		OwnerID:         entry.OwnerID,
		MeetingID:       entry.MeetingID,
		ConversationID:  entry.ConversationID,
		Title:           entry.Title,
		Start:           entry.Start,
		DurationMinutes: entry.DurationMinutes,
		ParticipantIDs:  append([]string(nil), entry.ParticipantIDs...),
		OrganizerID:     entry.OrganizerID,
		Status:          string(entry.Status),
		CreatedAt:       entry.CreatedAt,
		UpdatedAt:       entry.UpdatedAt,
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
