package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// ScheduleService reads per-owner schedule slices and hands out live view
// subscriptions.
type ScheduleService struct {
	entries EntryStore
	hub     *WatchHub
	now     func() time.Time
	logger  *slog.Logger
}

// NewScheduleService wires dependencies for the schedule view service.
func NewScheduleService(entries EntryStore, hub *WatchHub, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(entries, hub, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies with a specified logger.
func NewScheduleServiceWithLogger(entries EntryStore, hub *WatchHub, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{entries: entries, hub: hub, now: now, logger: defaultLogger(logger)}
}

// ListSchedule returns the caller's own entries in a conversation. The
// upcoming view lists entries not yet done that start at or after now,
// soonest first; the done view lists completed meetings, most recent first.
func (s *ScheduleService) ListSchedule(ctx context.Context, params ListScheduleParams) ([]ScheduleEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.entries == nil {
		return nil, fmt.Errorf("entry store not configured")
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	view := params.View
	if view == "" {
		view = ViewUpcoming
	}

	filter := EntryFilter{
		OwnerID:        params.Principal.UserID,
		ConversationID: params.ConversationID,
	}
	switch view {
	case ViewUpcoming:
		filter.Statuses = []Status{StatusPending, StatusAccepted, StatusDeclined}
		reference := s.now()
		filter.StartsAfter = &reference
	case ViewDone:
		filter.Statuses = []Status{StatusDone}
	default:
		vErr := &ValidationError{}
		vErr.add("view", "unknown view")
		return nil, vErr
	}

	entries, err := s.entries.ListEntries(ctx, filter)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if view == ViewDone {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Start.Equal(entries[j].Start) {
				return entries[i].MeetingID > entries[j].MeetingID
			}
			return entries[i].Start.After(entries[j].Start)
		})
	}
	return entries, nil
}

// Watch subscribes the caller to live change signals for their schedule.
// The current snapshot is read through ListSchedule; each signal means the
// subscriber should re-read.
func (s *ScheduleService) Watch(ownerID string) (<-chan struct{}, func(), error) {
	if s == nil {
		return nil, nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.hub == nil {
		return nil, nil, fmt.Errorf("watch hub not configured")
	}
	if ownerID == "" {
		return nil, nil, ErrUnauthorized
	}
	ch, cancel := s.hub.Subscribe(ownerID)
	return ch, cancel, nil
}
