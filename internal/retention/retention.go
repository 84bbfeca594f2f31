// Package retention computes the edit-lock and deletion windows of an event.
//
// Events stay editable for one month after the event date and become eligible
// for deletion 14 days after it. The deletion window is shorter than the edit
// window; the sweep that acts on eligibility runs elsewhere.
package retention

import "time"

const (
	// DeletionDelayDays is how long media is kept after the event date.
	DeletionDelayDays = 14
	// WarningThresholdDays drives the non-blocking "about to be deleted" advisory.
	WarningThresholdDays = 7
)

// Window is the result of Compute. When Determined is false the event has no
// date yet and none of the other fields are actionable.
type Window struct {
	Determined        bool
	DeletionDate      time.Time
	DaysUntilDeletion int
	ShouldDelete      bool
	Editable          bool
	Warning           bool
}

// Compute is a pure function of the event date and the clock. Callers that
// reject an edit because Editable is false must persist the lock (the flag on
// the event record) rather than recompute it later; the lock is one-way.
func Compute(eventDate *time.Time, now time.Time) Window {
	if eventDate == nil || eventDate.IsZero() {
		return Window{}
	}

	deletionDate := eventDate.AddDate(0, 0, DeletionDelayDays)
	days := ceilDays(deletionDate.Sub(now))

	return Window{
		Determined:        true,
		DeletionDate:      deletionDate,
		DaysUntilDeletion: days,
		ShouldDelete:      days <= 0,
		Editable:          !now.After(eventDate.AddDate(0, 1, 0)),
		Warning:           days <= WarningThresholdDays,
	}
}

func ceilDays(d time.Duration) int {
	const day = 24 * time.Hour
	n := d / day
	if d%day > 0 {
		n++
	}
	return int(n)
}
