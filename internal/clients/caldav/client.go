package caldav

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/tazhate/valenbot/internal/domain"
)

// Client mirrors reminder schedules to a CalDAV collection: one ICS object
// per subscriber, replaced wholesale on every change. All publishing is
// best-effort; the bot never depends on it.
type Client struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	timezone     *time.Location
	client       *caldav.Client
}

func NewClient(baseURL, username, password, calendarPath string, tz *time.Location) *Client {
	return &Client{
		baseURL:      baseURL,
		username:     username,
		password:     password,
		calendarPath: calendarPath,
		timezone:     tz,
	}
}

// IsConfigured returns true if the client has a server and credentials.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.username != "" && c.calendarPath != ""
}

// connect establishes the CalDAV connection lazily.
func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests.
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// PublishSchedule uploads the user's reminder calendar, replacing any
// previously published version.
func (c *Client) PublishSchedule(rec *domain.UserRecord) error {
	client, err := c.connect()
	if err != nil {
		return err
	}

	cal, err := BuildScheduleCalendar(rec, c.timezone)
	if err != nil {
		return fmt.Errorf("build calendar: %w", err)
	}

	if _, err := client.PutCalendarObject(context.Background(), c.objectPath(rec.UserID), cal); err != nil {
		return fmt.Errorf("put calendar object: %w", err)
	}
	return nil
}

// RemoveSchedule deletes the user's published calendar, if any.
func (c *Client) RemoveSchedule(userID int64) error {
	client, err := c.connect()
	if err != nil {
		return err
	}

	if err := client.RemoveAll(context.Background(), c.objectPath(userID)); err != nil {
		return fmt.Errorf("remove calendar object: %w", err)
	}
	return nil
}

func (c *Client) objectPath(userID int64) string {
	path := c.calendarPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + fmt.Sprintf("valen-%d.ics", userID)
}

// BuildScheduleCalendar renders a user's two daily reminders as an
// iCalendar document with daily recurrence rules. Also backs /export.
func BuildScheduleCalendar(rec *domain.UserRecord, tz *time.Location) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Valen//ReminderBot//EN")

	for _, slot := range []domain.Slot{domain.SlotMorning, domain.SlotEvening} {
		event, err := reminderEvent(rec.UserID, slot, rec.TimeFor(slot), tz)
		if err != nil {
			return nil, err
		}
		cal.Children = append(cal.Children, event)
	}
	return cal, nil
}

func reminderEvent(userID int64, slot domain.Slot, hhmm string, tz *time.Location) (*ical.Component, error) {
	hour, minute, err := domain.SplitClock(hhmm)
	if err != nil {
		return nil, fmt.Errorf("%s time: %w", slot, err)
	}

	now := time.Now().In(tz)
	start := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, tz)
	if !start.After(now) {
		start = start.AddDate(0, 0, 1)
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("valen-%d-%s@valenbot", userID, slot))
	event.Props.SetText(ical.PropSummary, fmt.Sprintf("Valen %s check-in", slot))
	event.Props.SetText(ical.PropDescription, "Time to write in your Valen journal.")
	// Times go out in UTC; iCalendar uses the Z suffix.
	event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(15*time.Minute).UTC())
	event.Props.SetText(ical.PropRecurrenceRule, "FREQ=DAILY")
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	return event.Component, nil
}

// Serialize renders the calendar as ICS text.
func Serialize(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}
	return buf.String(), nil
}
