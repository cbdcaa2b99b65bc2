package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tazhate/valenbot/internal/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "valen.db"))
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertSubscribeAndGet(t *testing.T) {
	s := newTestStorage(t)

	if err := s.UpsertSubscribe(42, "10:00", "22:00"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	u, err := s.Get(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u == nil {
		t.Fatal("user not found after subscribe")
	}
	if !u.Subscribed {
		t.Error("want subscribed")
	}
	if u.MorningTime != "10:00" || u.EveningTime != "22:00" {
		t.Errorf("times = %s/%s, want 10:00/22:00", u.MorningTime, u.EveningTime)
	}
	if u.LastInteractionDate != "" {
		t.Errorf("new user has interaction date %q", u.LastInteractionDate)
	}
}

func TestGetMissingUser(t *testing.T) {
	s := newTestStorage(t)

	u, err := s.Get(999)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u != nil {
		t.Fatal("want nil record for unknown user")
	}
}

func TestResubscribeResetsTimesKeepsHistory(t *testing.T) {
	s := newTestStorage(t)

	if err := s.UpsertSubscribe(7, "10:00", "22:00"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SetReminderTime(7, domain.SlotMorning, "07:15"); err != nil {
		t.Fatalf("set time: %v", err)
	}
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	if err := s.RecordInteraction(7, day); err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	if err := s.Unsubscribe(7); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	// Re-subscribing reactivates the same row and resets both times.
	if err := s.UpsertSubscribe(7, "10:00", "22:00"); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	u, err := s.Get(7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !u.Subscribed {
		t.Error("want subscribed after resubscribe")
	}
	if u.MorningTime != "10:00" {
		t.Errorf("morning = %s, want reset to 10:00", u.MorningTime)
	}
	if u.LastInteractionDate != "2025-06-01" {
		t.Errorf("interaction date erased: %q", u.LastInteractionDate)
	}
}

func TestSetReminderTimeUpdatesOneSlot(t *testing.T) {
	s := newTestStorage(t)

	if err := s.UpsertSubscribe(42, "10:00", "22:00"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SetReminderTime(42, domain.SlotMorning, "07:15"); err != nil {
		t.Fatalf("set time: %v", err)
	}

	u, err := s.Get(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.MorningTime != "07:15" {
		t.Errorf("morning = %s, want 07:15", u.MorningTime)
	}
	if u.EveningTime != "22:00" {
		t.Errorf("evening = %s, want unchanged 22:00", u.EveningTime)
	}
}

func TestListActiveExcludesUnsubscribed(t *testing.T) {
	s := newTestStorage(t)

	for _, id := range []int64{1, 2, 3} {
		if err := s.UpsertSubscribe(id, "10:00", "22:00"); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}
	if err := s.Unsubscribe(2); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	active, err := s.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}
	for _, u := range active {
		if u.UserID == 2 {
			t.Error("unsubscribed user 2 still listed active")
		}
	}
}

func TestMutationsOnMissingUserAreNoops(t *testing.T) {
	s := newTestStorage(t)

	if err := s.Unsubscribe(123); err != nil {
		t.Errorf("unsubscribe missing: %v", err)
	}
	if err := s.RecordInteraction(123, time.Now()); err != nil {
		t.Errorf("record interaction missing: %v", err)
	}
	if err := s.SetReminderTime(123, domain.SlotEvening, "20:00"); err != nil {
		t.Errorf("set time missing: %v", err)
	}
}
