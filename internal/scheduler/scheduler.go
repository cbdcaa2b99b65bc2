package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tazhate/valenbot/config"
	"github.com/tazhate/valenbot/internal/domain"
)

const reminderText = "Don't forget to log your thoughts in Valen today! " +
	"You can reply to this message with your check-in or an emoji."

// Sender is the minimal outbound surface the scheduler needs.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// UserStore is the subset of storage the scheduler reads and repairs.
type UserStore interface {
	Get(userID int64) (*domain.UserRecord, error)
	ListActive() ([]*domain.UserRecord, error)
	Unsubscribe(userID int64) error
	RecordInteraction(userID int64, day time.Time) error
}

type jobPair struct {
	morning cron.EntryID
	evening cron.EntryID
}

// Scheduler owns the live per-user reminder jobs and the daily inactivity
// sweep. The handle table is process-local and rebuilt from storage at
// startup; a user has entries in it iff they are subscribed.
type Scheduler struct {
	cron  *cron.Cron
	cfg   *config.Config
	store UserStore
	log   *zap.Logger

	sender Sender

	mu   sync.Mutex
	jobs map[int64]jobPair
}

func New(cfg *config.Config, store UserStore, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(cfg.Timezone)),
		cfg:   cfg,
		store: store,
		log:   log,
		jobs:  make(map[int64]jobPair),
	}
}

func (s *Scheduler) SetSender(sender Sender) {
	s.sender = sender
}

// Start installs the daily inactivity sweep, rebuilds the reminder job table
// from storage and starts the cron engine. It must complete before the bot
// begins consuming updates, otherwise existing subscribers silently stop
// receiving reminders until their next reschedule.
func (s *Scheduler) Start() error {
	sweepSpec, err := dailySpec(s.cfg.InactivityCheckTime)
	if err != nil {
		return fmt.Errorf("inactivity check time: %w", err)
	}
	if _, err := s.cron.AddFunc(sweepSpec, s.checkInactivity); err != nil {
		return fmt.Errorf("add inactivity check: %w", err)
	}

	if err := s.Rebuild(); err != nil {
		return fmt.Errorf("rebuild jobs: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("timezone", s.cfg.Timezone.String()),
		zap.String("inactivity_check", s.cfg.InactivityCheckTime))
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// Rebuild installs reminder jobs for every active subscriber. Per-user
// failures are logged and skipped so one bad record cannot keep the rest of
// the user set unscheduled.
func (s *Scheduler) Rebuild() error {
	users, err := s.store.ListActive()
	if err != nil {
		return fmt.Errorf("list active: %w", err)
	}
	for _, u := range users {
		if err := s.ScheduleReminders(u.UserID); err != nil {
			s.log.Warn("schedule on rebuild failed",
				zap.Int64("user_id", u.UserID), zap.Error(err))
		}
	}
	return nil
}

// ScheduleReminders reconciles the job pair for one user: existing handles
// are always cancelled first, then two fresh daily entries are installed
// from the stored times. Missing or unsubscribed users end up with no jobs.
// The cancel-then-install runs under one lock, so it is safe to call any
// number of times without leaking duplicate triggers.
func (s *Scheduler) ScheduleReminders(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(userID)

	user, err := s.store.Get(userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.Subscribed {
		return nil
	}

	morningSpec, err := dailySpec(user.MorningTime)
	if err != nil {
		return fmt.Errorf("morning time: %w", err)
	}
	eveningSpec, err := dailySpec(user.EveningTime)
	if err != nil {
		return fmt.Errorf("evening time: %w", err)
	}

	// Equal times still get two independent entries; both fire.
	morningID, err := s.cron.AddFunc(morningSpec, func() { s.sendReminder(userID) })
	if err != nil {
		return fmt.Errorf("add morning job: %w", err)
	}
	eveningID, err := s.cron.AddFunc(eveningSpec, func() { s.sendReminder(userID) })
	if err != nil {
		s.cron.Remove(morningID)
		return fmt.Errorf("add evening job: %w", err)
	}

	s.jobs[userID] = jobPair{morning: morningID, evening: eveningID}
	s.log.Info("reminders scheduled",
		zap.Int64("user_id", userID),
		zap.String("morning", user.MorningTime),
		zap.String("evening", user.EveningTime))
	return nil
}

// CancelJobs removes both reminder entries for a user. Cancelling a user
// with no jobs is a silent no-op. A job already mid-execution is not
// aborted; only future recurrences are prevented.
func (s *Scheduler) CancelJobs(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(userID)
}

func (s *Scheduler) removeLocked(userID int64) {
	pair, ok := s.jobs[userID]
	if !ok {
		return
	}
	s.cron.Remove(pair.morning)
	s.cron.Remove(pair.evening)
	delete(s.jobs, userID)
	s.log.Info("reminder jobs cancelled", zap.Int64("user_id", userID))
}

// JobCount reports how many live entries a user has (0 or 2).
func (s *Scheduler) JobCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[userID]; ok {
		return 2
	}
	return 0
}

// sendReminder delivers one scheduled reminder. A failed send is treated as
// permanent (blocked bot, deleted account): the user's jobs are cancelled
// and the subscription is dropped.
func (s *Scheduler) sendReminder(userID int64) {
	if s.sender == nil {
		return
	}
	if err := s.sender.SendMessage(userID, reminderText); err != nil {
		s.log.Warn("reminder send failed, unsubscribing",
			zap.Int64("user_id", userID), zap.Error(err))
		s.CancelJobs(userID)
		if err := s.store.Unsubscribe(userID); err != nil {
			s.log.Error("unsubscribe after send failure",
				zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}

// dailySpec converts a canonical "HH:MM" into a five-field cron expression
// firing once a day.
func dailySpec(hhmm string) (string, error) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format: %s", hhmm)
	}
	return fmt.Sprintf("%s %s * * *", parts[1], parts[0]), nil
}
