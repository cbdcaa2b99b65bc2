package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tazhate/valenbot/config"
	"github.com/tazhate/valenbot/internal/clients/caldav"
	"github.com/tazhate/valenbot/internal/domain"
)

// ErrNotSubscribed reports an operation on a user who never subscribed (or
// whose subscription is off where it matters). Callers treat it as a prompt
// to /start, never as a fault.
var ErrNotSubscribed = errors.New("user is not subscribed")

// Store is the storage surface the subscription flows mutate.
type Store interface {
	UpsertSubscribe(userID int64, morning, evening string) error
	Unsubscribe(userID int64) error
	RecordInteraction(userID int64, day time.Time) error
	SetReminderTime(userID int64, slot domain.Slot, hhmm string) error
	Get(userID int64) (*domain.UserRecord, error)
}

// Reconciler keeps live reminder jobs in sync with stored state.
type Reconciler interface {
	ScheduleReminders(userID int64) error
	CancelJobs(userID int64)
}

// Publisher mirrors a user's reminder schedule to an external calendar.
// All publishing is best-effort.
type Publisher interface {
	IsConfigured() bool
	PublishSchedule(rec *domain.UserRecord) error
	RemoveSchedule(userID int64) error
}

// SubscriptionService orchestrates every inbound subscription event:
// storage mutation first, then job reconciliation, then the optional
// calendar mirror.
type SubscriptionService struct {
	cfg       *config.Config
	store     Store
	sched     Reconciler
	publisher Publisher
	log       *zap.Logger
}

func NewSubscriptionService(cfg *config.Config, store Store, sched Reconciler, publisher Publisher, log *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		cfg:       cfg,
		store:     store,
		sched:     sched,
		publisher: publisher,
		log:       log,
	}
}

// Subscribe registers or reactivates a user with the default reminder times
// and installs their jobs. Re-subscribing resets previously customized
// times to the defaults.
func (s *SubscriptionService) Subscribe(userID int64) (*domain.UserRecord, error) {
	if err := s.store.UpsertSubscribe(userID, s.cfg.MorningTime, s.cfg.EveningTime); err != nil {
		return nil, fmt.Errorf("upsert subscribe: %w", err)
	}
	if err := s.sched.ScheduleReminders(userID); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}

	user, err := s.store.Get(userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	s.publish(user)
	s.log.Info("user subscribed", zap.Int64("user_id", userID))
	return user, nil
}

// Unsubscribe turns reminders off and cancels the user's jobs. The record
// is kept. Unknown user ids are a no-op.
func (s *SubscriptionService) Unsubscribe(userID int64) error {
	if err := s.store.Unsubscribe(userID); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	s.sched.CancelJobs(userID)

	if s.publisher != nil && s.publisher.IsConfigured() {
		if err := s.publisher.RemoveSchedule(userID); err != nil {
			s.log.Warn("remove published schedule",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	s.log.Info("user unsubscribed", zap.Int64("user_id", userID))
	return nil
}

// SetReminderTime parses raw user time text, stores the canonical form for
// one slot and reconciles the user's jobs. The other slot is untouched.
// Returns the canonical "HH:MM". domain.ErrInvalidTimeFormat reports
// unusable input; ErrNotSubscribed reports an unknown user.
func (s *SubscriptionService) SetReminderTime(userID int64, slot domain.Slot, raw string) (string, error) {
	canonical, err := domain.ParseTimeSpec(raw)
	if err != nil {
		return "", err
	}

	user, err := s.store.Get(userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return "", ErrNotSubscribed
	}

	if err := s.store.SetReminderTime(userID, slot, canonical); err != nil {
		return "", fmt.Errorf("set reminder time: %w", err)
	}
	if err := s.sched.ScheduleReminders(userID); err != nil {
		return "", fmt.Errorf("schedule reminders: %w", err)
	}

	updated, err := s.store.Get(userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	s.publish(updated)
	s.log.Info("reminder time set",
		zap.Int64("user_id", userID),
		zap.String("slot", string(slot)),
		zap.String("time", canonical))
	return canonical, nil
}

// RecordInteraction marks today as the user's last interaction. Messages
// from users who never started the bot, or who unsubscribed, are ignored.
func (s *SubscriptionService) RecordInteraction(userID int64) error {
	user, err := s.store.Get(userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.Subscribed {
		return nil
	}

	today := time.Now().In(s.cfg.Timezone)
	if err := s.store.RecordInteraction(userID, today); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	s.log.Debug("interaction recorded", zap.Int64("user_id", userID))
	return nil
}

// Status returns the user's record, or nil when unknown.
func (s *SubscriptionService) Status(userID int64) (*domain.UserRecord, error) {
	return s.store.Get(userID)
}

// ExportCalendar renders the user's reminder schedule as ICS text.
func (s *SubscriptionService) ExportCalendar(userID int64) (string, error) {
	user, err := s.store.Get(userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.Subscribed {
		return "", ErrNotSubscribed
	}

	cal, err := caldav.BuildScheduleCalendar(user, s.cfg.Timezone)
	if err != nil {
		return "", fmt.Errorf("build calendar: %w", err)
	}
	return caldav.Serialize(cal)
}

func (s *SubscriptionService) publish(user *domain.UserRecord) {
	if user == nil || s.publisher == nil || !s.publisher.IsConfigured() {
		return
	}
	if err := s.publisher.PublishSchedule(user); err != nil {
		s.log.Warn("publish schedule",
			zap.Int64("user_id", user.UserID), zap.Error(err))
	}
}
