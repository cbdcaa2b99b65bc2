package domain

import (
	"math"
	"time"
)

// DateLayout is the stored form of last_interaction_date.
const DateLayout = "2006-01-02"

// NeverInteractedDays is the assumed age of the last interaction for a
// subscriber who has never written anything, old enough to classify them
// inactive on the very first sweep.
const NeverInteractedDays = 4

type Slot string

const (
	SlotMorning Slot = "morning"
	SlotEvening Slot = "evening"
)

// UserRecord is one subscriber row. Unsubscribing keeps the row and clears
// only the subscribed flag. LastInteractionDate holds the raw stored value
// ("YYYY-MM-DD", empty = never) so the inactivity sweep can repair a corrupt
// value instead of failing the read.
type UserRecord struct {
	UserID              int64
	Subscribed          bool
	MorningTime         string // canonical "HH:MM"
	EveningTime         string // canonical "HH:MM"
	LastInteractionDate string
	CreatedAt           time.Time
}

// TimeFor returns the reminder time stored for the given slot.
func (u *UserRecord) TimeFor(slot Slot) string {
	if slot == SlotEvening {
		return u.EveningTime
	}
	return u.MorningTime
}

// Inactivity reports how many whole days a subscriber has been quiet as of
// today. corrupt is true when the stored date exists but cannot be parsed;
// the caller is expected to repair it and skip the user for this cycle.
func Inactivity(u *UserRecord, today time.Time) (days int, corrupt bool) {
	if u.LastInteractionDate == "" {
		return NeverInteractedDays, false
	}
	last, err := time.ParseInLocation(DateLayout, u.LastInteractionDate, today.Location())
	if err != nil {
		return 0, true
	}
	return DaysBetween(last, today), false
}

// DaysBetween counts whole calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, a.Location())
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, b.Location())
	// Round absorbs DST-shortened or -lengthened days.
	return int(math.Round(b.Sub(a).Hours() / 24))
}
