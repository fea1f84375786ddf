package application

import (
	"context"
	"fmt"
	"time"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

// NotificationService exposes the user-facing side of the notification
// pipeline: the in-app inbox and per-user delivery preferences.
type NotificationService struct {
	records notification.RecordStore
	prefs   notification.PreferenceStore
	logger  *logging.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	records notification.RecordStore,
	prefs notification.PreferenceStore,
	logger *logging.Logger,
) *NotificationService {
	return &NotificationService{
		records: records,
		prefs:   prefs,
		logger:  logger.WithComponent("notification-service"),
	}
}

// Inbox returns the user's delivery records, newest first
func (s *NotificationService) Inbox(ctx context.Context, userID string, limit int) ([]*NotificationDTO, error) {
	records, err := s.records.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]*NotificationDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, ToNotificationDTO(record))
	}
	return dtos, nil
}

// UnreadCount returns how many of the user's notifications are unread
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.records.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as seen. Users can only touch their own.
func (s *NotificationService) MarkRead(ctx context.Context, recordID, userID string) (*NotificationDTO, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	if record == nil {
		return nil, errors.ErrNotFoundWithID("notification", recordID)
	}
	if record.UserID != userID {
		return nil, errors.ErrForbidden("notification belongs to another user")
	}

	record.MarkRead()
	if err := s.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return ToNotificationDTO(record), nil
}

// GetPreferences returns the user's stored preferences, or the defaults when
// the user never configured any
func (s *NotificationService) GetPreferences(ctx context.Context, userID string) (*PreferencesDTO, error) {
	prefs, err := s.prefs.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs == nil {
		prefs = notification.DefaultPreferences(userID)
	}
	return ToPreferencesDTO(prefs), nil
}

// UpdatePreferences replaces the user's notification settings
func (s *NotificationService) UpdatePreferences(ctx context.Context, cmd UpdatePreferencesCommand) (*PreferencesDTO, error) {
	if cmd.Timezone != "" {
		if _, err := time.LoadLocation(cmd.Timezone); err != nil {
			return nil, errors.ErrValidation(fmt.Sprintf("invalid timezone %q", cmd.Timezone))
		}
	}
	for _, clock := range []string{cmd.QuietStart, cmd.QuietEnd} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse("15:04", clock); err != nil {
			return nil, errors.ErrValidation(fmt.Sprintf("invalid clock value %q, expected HH:MM", clock))
		}
	}

	prefs, err := s.prefs.Find(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs == nil {
		prefs = notification.DefaultPreferences(cmd.UserID)
	}

	prefs.TenantID = tenant.GetTenantID(ctx)
	if cmd.Timezone != "" {
		prefs.Timezone = cmd.Timezone
	}
	prefs.QuietHoursEnabled = cmd.QuietHoursEnabled
	if cmd.QuietStart != "" {
		prefs.QuietStart = cmd.QuietStart
	}
	if cmd.QuietEnd != "" {
		prefs.QuietEnd = cmd.QuietEnd
	}
	prefs.BatchingEnabled = cmd.BatchingEnabled
	prefs.DisabledTypes = toTypes(cmd.DisabledTypes)
	if cmd.Channels != nil {
		prefs.Channels = toChannelMap(cmd.Channels)
	}
	if cmd.Contact != nil {
		prefs.Contact = *cmd.Contact
	}
	prefs.UpdatedAt = time.Now().UTC()

	if err := s.prefs.Save(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	s.logger.WithContext(ctx).Info("Updated notification preferences",
		"userId", cmd.UserID,
		"quietHoursEnabled", prefs.QuietHoursEnabled,
		"disabledTypes", len(prefs.DisabledTypes))
	return ToPreferencesDTO(prefs), nil
}

func toTypes(values []string) []notification.Type {
	if len(values) == 0 {
		return nil
	}
	types := make([]notification.Type, 0, len(values))
	for _, v := range values {
		types = append(types, notification.Type(v))
	}
	return types
}

func toChannelMap(values map[string][]string) map[notification.Type][]notification.ChannelKind {
	channels := make(map[notification.Type][]notification.ChannelKind, len(values))
	for t, kinds := range values {
		mapped := make([]notification.ChannelKind, 0, len(kinds))
		for _, k := range kinds {
			mapped = append(mapped, notification.ChannelKind(k))
		}
		channels[notification.Type(t)] = mapped
	}
	return channels
}
