// Package changes diffs two event snapshots over the fixed set of tracked
// fields and renders the result for the notification channels.
package changes

import (
	"fmt"
	"strconv"
	"time"

	"gala/internal/model"
)

// Change is one tracked field whose formatted display value differs between
// the two snapshots. From and To are display strings, not raw values.
type Change struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// ChangeSet is ordered by the tracked-field table and discarded after dispatch.
type ChangeSet []Change

func (cs ChangeSet) Empty() bool { return len(cs) == 0 }

// trackedField couples the wire name of a field with its two human labels and
// the display formatter. Keeping all four in one table is what stops the
// owner-facing and internal field lists drifting apart.
type trackedField struct {
	name          string
	ownerLabel    string
	internalLabel string
	format        func(*model.Event) string
}

var eventTypeLabels = map[string]string{
	model.EventTypeWedding:  "Wedding",
	model.EventTypeBirthday: "Birthday",
	model.EventTypeBarMitz:  "Bar Mitzvah",
	model.EventTypeBrit:     "Brit",
	model.EventTypeCorp:     "Corporate event",
	model.EventTypeOther:    "Other",
}

var paymentStatusLabels = map[string]string{
	model.PaymentPendingCreation: "Awaiting payment link",
	model.PaymentPendingPayment:  "Awaiting payment",
	model.PaymentPaid:            "Paid",
	model.PaymentFailed:          "Payment failed",
}

var tracked = []trackedField{
	{"name", "Event name", "name", func(e *model.Event) string { return e.Name }},
	{"event_type", "Event type", "type", func(e *model.Event) string { return label(eventTypeLabels, e.EventType) }},
	{"event_date", "Date", "event date", func(e *model.Event) string { return formatDate(e.EventDate) }},
	{"start_time", "Start time", "start time", func(e *model.Event) string { return e.StartTime }},
	{"location", "Location", "location", func(e *model.Event) string { return e.Location }},
	{"bracelets_count", "Bracelet count", "bracelets", func(e *model.Event) string { return formatInt(e.BraceletsCount) }},
	{"guest_count_estimate", "Estimated guests", "guest estimate", func(e *model.Event) string { return formatInt(e.GuestCountEstimate) }},
	{"organizer_phone", "Contact phone", "organizer phone", func(e *model.Event) string { return e.OrganizerPhone }},
	{"welcome_message", "Welcome message", "welcome text", func(e *model.Event) string { return e.WelcomeMessage }},
	{"thanks_message", "Guest thank-you message", "thank-you text", func(e *model.Event) string { return e.ThanksMessage }},
	{"cover_image_url", "Cover image", "cover image", func(e *model.Event) string { return e.CoverImageURL }},
	{"access_code", "Access code", "access code", func(e *model.Event) string { return e.AccessCode }},
	{"total_deal_amount", "Total amount", "deal amount", func(e *model.Event) string { return formatFloat(e.TotalDealAmount) }},
	{"advance_payment_amount", "Advance payment", "advance amount", func(e *model.Event) string { return formatFloat(e.AdvancePaymentAmount) }},
	{"advance_payment_status", "Payment status", "advance status", func(e *model.Event) string { return label(paymentStatusLabels, e.AdvancePaymentStatus) }},
}

// Diff compares the two snapshots field by field. A record is emitted only
// when the formatted display strings differ, so raw encodings that render the
// same (an absent count vs an empty one) never produce a spurious change.
// Diff never fails: formatters fall back to raw strings for unknown values.
func Diff(original, updated *model.Event) ChangeSet {
	var cs ChangeSet
	for _, f := range tracked {
		from := f.format(original)
		to := f.format(updated)
		if from != to {
			cs = append(cs, Change{Field: f.name, From: from, To: to})
		}
	}
	return cs
}

// OwnerLines renders the set with the owner-facing labels.
func (cs ChangeSet) OwnerLines() []string {
	return cs.render(func(f trackedField) string { return f.ownerLabel })
}

// InternalLines renders the set with the internal audit labels.
func (cs ChangeSet) InternalLines() []string {
	return cs.render(func(f trackedField) string { return f.internalLabel })
}

// SummaryLines renders short "field: from → to" strings for the persisted
// admin notification record.
func (cs ChangeSet) SummaryLines() []string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		lines = append(lines, fmt.Sprintf("%s: %s → %s", c.Field, orEmpty(c.From), orEmpty(c.To)))
	}
	return lines
}

func (cs ChangeSet) render(labelOf func(trackedField) string) []string {
	byName := make(map[string]trackedField, len(tracked))
	for _, f := range tracked {
		byName[f.name] = f
	}
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		f, ok := byName[c.Field]
		name := c.Field
		if ok {
			name = labelOf(f)
		}
		lines = append(lines, fmt.Sprintf("%s: %s → %s", name, orEmpty(c.From), orEmpty(c.To)))
	}
	return lines
}

func label(table map[string]string, code string) string {
	if l, ok := table[code]; ok {
		return l
	}
	return code
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orEmpty(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// dateLayouts are the accepted wire formats for event dates. Parsing happens
// once at the request boundary; snapshots always carry typed dates.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04", "2006-01-02 15:04:05"}

// ParseDate parses a wire date. The second return is false for values that
// match no known layout; callers keep the original raw string in that case
// instead of failing the operation.
func ParseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
