package changes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gala/internal/model"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func datep(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func baseEvent() *model.Event {
	return &model.Event{
		ID:                   7,
		Name:                 "Dana & Omer",
		EventType:            model.EventTypeWedding,
		EventDate:            datep("2026-06-15"),
		StartTime:            "19:30",
		Location:             "Garden Hall",
		BraceletsCount:       intp(100),
		OrganizerPhone:       "050-1234567",
		AccessCode:           "x1y2z3ab",
		TotalDealAmount:      floatp(4200),
		AdvancePaymentStatus: model.PaymentPendingPayment,
	}
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	e := baseEvent()
	other := *e
	assert.True(t, Diff(e, &other).Empty())
}

func TestDiffSingleNumericChange(t *testing.T) {
	before := baseEvent()
	after := *before
	after.BraceletsCount = intp(150)

	cs := Diff(before, &after)
	require.Len(t, cs, 1)
	assert.Equal(t, "bracelets_count", cs[0].Field)
	assert.Equal(t, "100", cs[0].From)
	assert.Equal(t, "150", cs[0].To)
}

func TestDiffAbsentVsAbsentNumeric(t *testing.T) {
	// A count that was never set and stays unset must not show up, no matter
	// how the wire encoded the absence.
	before := baseEvent()
	before.GuestCountEstimate = nil
	after := *before
	after.GuestCountEstimate = nil

	assert.True(t, Diff(before, &after).Empty())
}

func TestDiffSameValueDifferentEncoding(t *testing.T) {
	// 4200 vs 4200.0 format to the same display string.
	before := baseEvent()
	after := *before
	after.TotalDealAmount = floatp(4200.0)

	assert.True(t, Diff(before, &after).Empty())
}

func TestDiffDateFormatting(t *testing.T) {
	before := baseEvent()
	after := *before
	after.EventDate = datep("2026-07-01")

	cs := Diff(before, &after)
	require.Len(t, cs, 1)
	assert.Equal(t, "event_date", cs[0].Field)
	assert.Equal(t, "2026-06-15", cs[0].From)
	assert.Equal(t, "2026-07-01", cs[0].To)
}

func TestDiffEnumUsesLabels(t *testing.T) {
	before := baseEvent()
	after := *before
	after.AdvancePaymentStatus = model.PaymentPaid

	cs := Diff(before, &after)
	require.Len(t, cs, 1)
	assert.Equal(t, "Awaiting payment", cs[0].From)
	assert.Equal(t, "Paid", cs[0].To)
}

func TestDiffUnknownEnumFallsBackToRaw(t *testing.T) {
	before := baseEvent()
	after := *before
	after.EventType = "circus"

	cs := Diff(before, &after)
	require.Len(t, cs, 1)
	assert.Equal(t, "Wedding", cs[0].From)
	assert.Equal(t, "circus", cs[0].To)
}

func TestDiffPreservesTrackedFieldOrder(t *testing.T) {
	before := baseEvent()
	after := *before
	after.TotalDealAmount = floatp(5000)
	after.Name = "Dana & Omer — the wedding"
	after.Location = "Beach Club"

	cs := Diff(before, &after)
	require.Len(t, cs, 3)
	assert.Equal(t, "name", cs[0].Field)
	assert.Equal(t, "location", cs[1].Field)
	assert.Equal(t, "total_deal_amount", cs[2].Field)
}

func TestRenderingsShareOneComparison(t *testing.T) {
	before := baseEvent()
	after := *before
	after.BraceletsCount = intp(150)
	after.StartTime = "20:00"

	cs := Diff(before, &after)
	require.Len(t, cs, 2)

	owner := cs.OwnerLines()
	internal := cs.InternalLines()
	summary := cs.SummaryLines()
	require.Len(t, owner, 2)
	require.Len(t, internal, 2)
	require.Len(t, summary, 2)

	assert.Equal(t, "Start time: 19:30 → 20:00", owner[0])
	assert.Equal(t, "start time: 19:30 → 20:00", internal[0])
	assert.Equal(t, "start_time: 19:30 → 20:00", summary[0])
	assert.Equal(t, "Bracelet count: 100 → 150", owner[1])
	assert.Equal(t, "bracelets: 100 → 150", internal[1])
}

func TestSummaryShowsPlaceholderForEmpty(t *testing.T) {
	before := baseEvent()
	after := *before
	after.Location = ""

	cs := Diff(before, &after)
	require.Len(t, cs, 1)
	assert.Equal(t, "location: Garden Hall → —", cs.SummaryLines()[0])
}

func TestParseDateLayouts(t *testing.T) {
	for _, raw := range []string{"2026-06-15", "2026-06-15T19:30:00Z", "2026-06-15 19:30"} {
		got, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, 2026, got.Year())
	}

	_, ok := ParseDate("15/06/2026")
	assert.False(t, ok)
}
