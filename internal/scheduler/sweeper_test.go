package scheduler

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tazhate/valenbot/internal/domain"
)

const testAdminID int64 = 9000

func TestInactivitySweep(t *testing.T) {
	today := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	store := &fakeStore{users: map[int64]*domain.UserRecord{
		// Exactly at the threshold: inactive (boundary is inclusive).
		100: {UserID: 100, Subscribed: true, LastInteractionDate: "2025-06-07"},
		// One day short of the threshold: active.
		200: {UserID: 200, Subscribed: true, LastInteractionDate: "2025-06-08"},
		// Never interacted: inactive on the first sweep.
		300: {UserID: 300, Subscribed: true},
		// Corrupt stored date: repaired, no message this cycle.
		400: {UserID: 400, Subscribed: true, LastInteractionDate: "junk"},
		// Unsubscribed users are not swept at all.
		500: {UserID: 500, Subscribed: false, LastInteractionDate: "2025-01-01"},
	}}

	cfg := testConfig()
	cfg.AdminID = testAdminID
	s := New(cfg, store, zap.NewNop())
	sender := &fakeSender{}
	s.SetSender(sender)

	s.runInactivityCheck(today)

	if got := len(sender.sentTo(100)); got != 1 {
		t.Errorf("user 100 got %d messages, want 1 re-engagement", got)
	}
	if got := len(sender.sentTo(200)); got != 0 {
		t.Errorf("user 200 got %d messages, want 0", got)
	}
	if got := len(sender.sentTo(300)); got != 1 {
		t.Errorf("user 300 got %d messages, want 1 re-engagement", got)
	}
	if got := len(sender.sentTo(400)); got != 0 {
		t.Errorf("user 400 got %d messages, want 0 (repair cycle)", got)
	}
	if got := len(sender.sentTo(500)); got != 0 {
		t.Errorf("user 500 got %d messages, want 0 (unsubscribed)", got)
	}

	repaired, _ := store.Get(400)
	if repaired.LastInteractionDate != "2025-06-10" {
		t.Errorf("corrupt date repaired to %q, want 2025-06-10", repaired.LastInteractionDate)
	}

	alerts := sender.sentTo(testAdminID)
	if len(alerts) != 2 {
		t.Fatalf("admin got %d alerts, want 2", len(alerts))
	}
	joined := strings.Join(alerts, "\n")
	if !strings.Contains(joined, "100") || !strings.Contains(joined, "3 days") {
		t.Errorf("admin alerts missing user/day detail: %q", joined)
	}
}

func TestSweepWithoutAdminSkipsAlerts(t *testing.T) {
	today := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{users: map[int64]*domain.UserRecord{
		100: {UserID: 100, Subscribed: true, LastInteractionDate: "2025-06-01"},
	}}
	s, sender := newTestScheduler(store)

	s.runInactivityCheck(today)

	if got := len(sender.sentTo(100)); got != 1 {
		t.Errorf("user 100 got %d messages, want 1", got)
	}
	if got := len(sender.sent); got != 1 {
		t.Errorf("messages went to %d recipients, want only the user", got)
	}
}

func TestSweepSendFailureKeepsSubscription(t *testing.T) {
	today := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{users: map[int64]*domain.UserRecord{
		100: {UserID: 100, Subscribed: true, LastInteractionDate: "2025-06-01"},
		101: {UserID: 101, Subscribed: true, LastInteractionDate: "2025-06-01"},
	}}
	s, sender := newTestScheduler(store)
	sender.failFor = map[int64]bool{100: true}

	if err := s.ScheduleReminders(100); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	s.runInactivityCheck(today)

	// Re-engagement sends are best-effort: no unsubscribe, no job changes,
	// and the failure must not abort the rest of the sweep.
	u, _ := store.Get(100)
	if !u.Subscribed {
		t.Error("sweep send failure must not unsubscribe")
	}
	if got := s.JobCount(100); got != 2 {
		t.Errorf("JobCount = %d, want 2", got)
	}
	if got := len(sender.sentTo(101)); got != 1 {
		t.Errorf("user 101 got %d messages, want 1 despite earlier failure", got)
	}
}
