package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"

	"gala/internal/model"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockdb.Close() })

	log := zerolog.Nop()
	r, err := NewRepository(&dbpg.DB{Master: mockdb}, &log)
	require.NoError(t, err)
	return r, mock
}

func eventRow(id int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "event_type", "event_date", "start_time", "location",
		"bracelets_count", "guest_count_estimate", "organizer_phone", "welcome_message",
		"thanks_message", "cover_image_url", "access_code", "created_by", "total_deal_amount",
		"advance_payment_amount", "advance_payment_status", "edit_locked", "created_at", "updated_at",
	}).AddRow(
		id, "Dana & Omer", model.EventTypeWedding, nil, "19:30", "Garden Hall",
		100, nil, "050-1234567", "", "", "", "x1y2z3ab", "user-42", 4200.0,
		nil, model.PaymentPendingPayment, false, now, now,
	)
}

func TestGetEventByID(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(eventRow(7))

	e, err := r.GetEventByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Dana & Omer", e.Name)
	require.NotNil(t, e.BraceletsCount)
	assert.Equal(t, 100, *e.BraceletsCount)
	assert.Nil(t, e.GuestCountEstimate)
	assert.Nil(t, e.EventDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventByIDNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := r.GetEventByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestLockEventEdits(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE events SET edit_locked = TRUE, updated_at = NOW() WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.LockEventEdits(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockEventEditsNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE events SET edit_locked`).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.LockEventEdits(context.Background(), 404), ErrEventNotFound)
}

func TestUpdateMediaStatusNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE media_items SET status`).
		WithArgs(model.MediaApproved, int64(99), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.UpdateMediaStatus(context.Background(), 7, 99, model.MediaApproved), ErrMediaNotFound)
}

func TestMediaMutationsScopedToOwningEvent(t *testing.T) {
	r, mock := newMockRepo(t)

	// Item 55 belongs to another event: the scoped WHERE matches no row and
	// the caller gets not found instead of a cross-event mutation.
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE media_items SET status = $1, updated_at = NOW() WHERE id = $2 AND event_id = $3`)).
		WithArgs(model.MediaApproved, int64(55), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.UpdateMediaStatus(context.Background(), 1, 55, model.MediaApproved)
	assert.ErrorIs(t, err, ErrMediaNotFound)

	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM media_items WHERE id = $1 AND event_id = $2`)).
		WithArgs(int64(55), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.DeleteMediaItem(context.Background(), 1, 55), ErrMediaNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMediaItemNullStatusReadsAsPending(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "event_id", "file_url", "file_type", "uploader", "caption",
		"category_id", "status", "created_at", "updated_at",
	}).AddRow(3, 7, "https://cdn/x.jpg", "image", "anna@example.com", "", nil, nil, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM media_items WHERE id = \$1 AND event_id = \$2`).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(rows)

	m, err := r.GetMediaItem(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, model.MediaPending, m.Status)
	assert.False(t, m.Approved())
	assert.Nil(t, m.CategoryID)
}

func TestDeleteAllMediaReturnsCount(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM media_items WHERE event_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := r.DeleteAllMedia(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestClearCategoryRefs(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE media_items SET category_id = NULL`).
		WithArgs(int64(9), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, r.ClearCategoryRefs(context.Background(), 7, 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM highlight_categories WHERE id = $1 AND event_id = $2`)).
		WithArgs(int64(9), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.DeleteCategory(context.Background(), 7, 9), ErrCategoryNotFound)
}

func TestCreateAdminNotificationJoinsSummary(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO admin_notifications`).
		WithArgs(int64(7), "Dana & Omer", "user-42", "location: A → B\nstart_time: 19:30 → 20:00").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	id, err := r.CreateAdminNotification(context.Background(), &model.AdminNotification{
		EventID:   7,
		EventName: "Dana & Omer",
		ActorID:   "user-42",
		Summary:   []string{"location: A → B", "start_time: 19:30 → 20:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWishApprovedNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE guest_wishes SET approved`).
		WithArgs(true, int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, r.UpdateWishApproved(context.Background(), 7, 5, true), ErrWishNotFound)
}
