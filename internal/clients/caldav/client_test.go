package caldav

import (
	"strings"
	"testing"
	"time"

	"github.com/tazhate/valenbot/internal/domain"
)

func TestBuildScheduleCalendar(t *testing.T) {
	rec := &domain.UserRecord{
		UserID:      42,
		Subscribed:  true,
		MorningTime: "07:15",
		EveningTime: "22:00",
	}

	cal, err := BuildScheduleCalendar(rec, time.UTC)
	if err != nil {
		t.Fatalf("build calendar: %v", err)
	}

	ics, err := Serialize(cal)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"valen-42-morning@valenbot",
		"valen-42-evening@valenbot",
		"RRULE:FREQ=DAILY",
	} {
		if !strings.Contains(ics, want) {
			t.Errorf("ICS output missing %q:\n%s", want, ics)
		}
	}

	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("ICS has %d events, want 2", got)
	}
}

func TestBuildScheduleCalendarRejectsBadTime(t *testing.T) {
	rec := &domain.UserRecord{UserID: 42, MorningTime: "junk", EveningTime: "22:00"}
	if _, err := BuildScheduleCalendar(rec, time.UTC); err == nil {
		t.Fatal("expected error for unparseable stored time")
	}
}

func TestIsConfigured(t *testing.T) {
	if NewClient("", "", "", "", time.UTC).IsConfigured() {
		t.Error("empty client reports configured")
	}
	c := NewClient("https://dav.example.com", "user", "pass", "/calendars/u/reminders/", time.UTC)
	if !c.IsConfigured() {
		t.Error("full client reports unconfigured")
	}
}

func TestObjectPath(t *testing.T) {
	c := NewClient("https://dav.example.com", "u", "p", "/calendars/u/reminders", time.UTC)
	if got := c.objectPath(7); got != "/calendars/u/reminders/valen-7.ics" {
		t.Fatalf("objectPath = %q", got)
	}
}
