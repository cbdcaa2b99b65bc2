package scheduler

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tazhate/valenbot/internal/domain"
)

const reengagementText = "Hey, haven't seen your check-ins lately. Everything okay? " +
	"Remember, journaling helps reflect and grow."

// checkInactivity is the single recurring daily sweep over all active
// subscribers.
func (s *Scheduler) checkInactivity() {
	s.runInactivityCheck(time.Now().In(s.cfg.Timezone))
}

func (s *Scheduler) runInactivityCheck(today time.Time) {
	users, err := s.store.ListActive()
	if err != nil {
		s.log.Error("inactivity check: list active", zap.Error(err))
		return
	}

	s.log.Info("inactivity check started", zap.Int("active_users", len(users)))
	for _, u := range users {
		// Each user is processed independently; a failure on one must
		// not abort the rest of the sweep.
		s.checkUserInactivity(u, today)
	}
}

func (s *Scheduler) checkUserInactivity(u *domain.UserRecord, today time.Time) {
	days, corrupt := domain.Inactivity(u, today)
	if corrupt {
		// Unreadable stored date: repair to today and skip this cycle.
		s.log.Warn("repairing corrupt interaction date",
			zap.Int64("user_id", u.UserID),
			zap.String("value", u.LastInteractionDate))
		if err := s.store.RecordInteraction(u.UserID, today); err != nil {
			s.log.Error("repair interaction date",
				zap.Int64("user_id", u.UserID), zap.Error(err))
		}
		return
	}

	if days < s.cfg.InactivityThresholdDays {
		return
	}
	if s.sender == nil {
		return
	}

	// Re-engagement sends are lower stakes than reminders: failures are
	// logged only, the subscription stays intact.
	if err := s.sender.SendMessage(u.UserID, reengagementText); err != nil {
		s.log.Warn("re-engagement send failed",
			zap.Int64("user_id", u.UserID), zap.Error(err))
	}

	if s.cfg.AdminConfigured() {
		alert := fmt.Sprintf("User %d has been inactive for %d days.", u.UserID, days)
		if err := s.sender.SendMessage(s.cfg.AdminID, alert); err != nil {
			s.log.Warn("admin alert send failed",
				zap.Int64("user_id", u.UserID), zap.Error(err))
		}
	}
}
