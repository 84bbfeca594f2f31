package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"gala/internal/model"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrMediaNotFound    = errors.New("media item not found")
	ErrCategoryNotFound = errors.New("highlight category not found")
	ErrWishNotFound     = errors.New("guest wish not found")
)

type Repository interface {
	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	ListEvents(ctx context.Context, createdBy string) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e *model.Event) error
	LockEventEdits(ctx context.Context, id int64) error
	DeleteEvent(ctx context.Context, id int64) error

	GetMediaItem(ctx context.Context, eventID, id int64) (*model.MediaItem, error)
	ListMediaByEvent(ctx context.Context, eventID int64) ([]model.MediaItem, error)
	UpdateMediaStatus(ctx context.Context, eventID, id int64, status string) error
	DeleteMediaItem(ctx context.Context, eventID, id int64) error
	DeleteAllMedia(ctx context.Context, eventID int64) (int64, error)
	ClearCategoryRefs(ctx context.Context, eventID, categoryID int64) error

	CreateCategory(ctx context.Context, c *model.HighlightCategory) (int64, error)
	GetCategory(ctx context.Context, eventID, id int64) (*model.HighlightCategory, error)
	DeleteCategory(ctx context.Context, eventID, id int64) error

	GetWish(ctx context.Context, eventID, id int64) (*model.GuestWish, error)
	ListWishesByEvent(ctx context.Context, eventID int64) ([]model.GuestWish, error)
	UpdateWishApproved(ctx context.Context, eventID, id int64, approved bool) error
	DeleteWish(ctx context.Context, eventID, id int64) error

	CreateAdminNotification(ctx context.Context, n *model.AdminNotification) (int64, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	return r.applyGlob(migrationsDir, "*.up.sql")
}

func (r *repository) MigrateDown(migrationsDir string) error {
	return r.applyGlob(migrationsDir, "*.down.sql")
}

func (r *repository) applyGlob(dir, pattern string) error {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}
	r.log.Info().Msgf("Migrations applied from %s (%s)", dir, pattern)
	return nil
}

const eventColumns = `id, name, event_type, event_date, start_time, location,
	bracelets_count, guest_count_estimate, organizer_phone, welcome_message,
	thanks_message, cover_image_url, access_code, created_by, total_deal_amount,
	advance_payment_amount, advance_payment_status, edit_locked, created_at, updated_at`

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (name, event_type, event_date, start_time, location,
			bracelets_count, guest_count_estimate, organizer_phone, welcome_message,
			thanks_message, cover_image_url, access_code, created_by,
			total_deal_amount, advance_payment_amount, advance_payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	row := r.db.QueryRowContext(ctx, query,
		e.Name, e.EventType, nullTime(e.EventDate), e.StartTime, e.Location,
		nullInt(e.BraceletsCount), nullInt(e.GuestCountEstimate), e.OrganizerPhone,
		e.WelcomeMessage, e.ThanksMessage, e.CoverImageURL, e.AccessCode, e.CreatedBy,
		nullFloat(e.TotalDealAmount), nullFloat(e.AdvancePaymentAmount), e.AdvancePaymentStatus,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *repository) ListEvents(ctx context.Context, createdBy string) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE created_by = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events
		SET name = $1, event_type = $2, event_date = $3, start_time = $4,
			location = $5, bracelets_count = $6, guest_count_estimate = $7,
			organizer_phone = $8, welcome_message = $9, thanks_message = $10,
			cover_image_url = $11, access_code = $12, total_deal_amount = $13,
			advance_payment_amount = $14, advance_payment_status = $15,
			updated_at = NOW()
		WHERE id = $16
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		e.Name, e.EventType, nullTime(e.EventDate), e.StartTime, e.Location,
		nullInt(e.BraceletsCount), nullInt(e.GuestCountEstimate), e.OrganizerPhone,
		e.WelcomeMessage, e.ThanksMessage, e.CoverImageURL, e.AccessCode,
		nullFloat(e.TotalDealAmount), nullFloat(e.AdvancePaymentAmount),
		e.AdvancePaymentStatus, e.ID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// LockEventEdits persists the one-way edit lock. The flag is never cleared.
func (r *repository) LockEventEdits(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET edit_locked = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to lock event edits: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes the event; media, categories, and wishes go with it via
// the FK cascade in the schema.
func (r *repository) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

const mediaColumns = `id, event_id, file_url, file_type, uploader, caption,
	category_id, status, created_at, updated_at`

// Media, category, and wish lookups and mutations are scoped to the owning
// event: a row that exists under a different event reads as not found, so a
// caller can never reach past the event it was authorized for.
func (r *repository) GetMediaItem(ctx context.Context, eventID, id int64) (*model.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE id = $1 AND event_id = $2`
	m, err := scanMedia(r.db.QueryRowContext(ctx, query, id, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to get media item: %w", err)
	}
	return m, nil
}

func (r *repository) ListMediaByEvent(ctx context.Context, eventID int64) ([]model.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE event_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var items []model.MediaItem
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media item: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (r *repository) UpdateMediaStatus(ctx context.Context, eventID, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE media_items SET status = $1, updated_at = NOW() WHERE id = $2 AND event_id = $3`,
		status, id, eventID)
	if err != nil {
		return fmt.Errorf("failed to update media status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMediaNotFound
	}
	return nil
}

func (r *repository) DeleteMediaItem(ctx context.Context, eventID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM media_items WHERE id = $1 AND event_id = $2`, id, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete media item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMediaNotFound
	}
	return nil
}

func (r *repository) DeleteAllMedia(ctx context.Context, eventID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_items WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete event media: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ClearCategoryRefs detaches every media item from the category. Items stay;
// only the reference is nulled. Runs before the category row is deleted.
func (r *repository) ClearCategoryRefs(ctx context.Context, eventID, categoryID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE media_items SET category_id = NULL, updated_at = NOW() WHERE category_id = $1 AND event_id = $2`,
		categoryID, eventID)
	if err != nil {
		return fmt.Errorf("failed to clear category references: %w", err)
	}
	return nil
}

func (r *repository) CreateCategory(ctx context.Context, c *model.HighlightCategory) (int64, error) {
	query := `
		INSERT INTO highlight_categories (event_id, name, icon, display_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, c.EventID, c.Name, c.Icon, c.DisplayOrder).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}
	return id, nil
}

func (r *repository) GetCategory(ctx context.Context, eventID, id int64) (*model.HighlightCategory, error) {
	query := `SELECT id, event_id, name, icon, display_order, created_at
		FROM highlight_categories WHERE id = $1 AND event_id = $2`
	var c model.HighlightCategory
	err := r.db.QueryRowContext(ctx, query, id, eventID).Scan(
		&c.ID, &c.EventID, &c.Name, &c.Icon, &c.DisplayOrder, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *repository) DeleteCategory(ctx context.Context, eventID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM highlight_categories WHERE id = $1 AND event_id = $2`, id, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *repository) GetWish(ctx context.Context, eventID, id int64) (*model.GuestWish, error) {
	query := `SELECT id, event_id, guest_name, wish_text, approved, created_at
		FROM guest_wishes WHERE id = $1 AND event_id = $2`
	var w model.GuestWish
	err := r.db.QueryRowContext(ctx, query, id, eventID).Scan(
		&w.ID, &w.EventID, &w.GuestName, &w.WishText, &w.Approved, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWishNotFound
		}
		return nil, fmt.Errorf("failed to get wish: %w", err)
	}
	return &w, nil
}

func (r *repository) ListWishesByEvent(ctx context.Context, eventID int64) ([]model.GuestWish, error) {
	query := `SELECT id, event_id, guest_name, wish_text, approved, created_at
		FROM guest_wishes WHERE event_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishes: %w", err)
	}
	defer rows.Close()

	var wishes []model.GuestWish
	for rows.Next() {
		var w model.GuestWish
		if err := rows.Scan(&w.ID, &w.EventID, &w.GuestName, &w.WishText, &w.Approved, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wish: %w", err)
		}
		wishes = append(wishes, w)
	}
	return wishes, rows.Err()
}

func (r *repository) UpdateWishApproved(ctx context.Context, eventID, id int64, approved bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE guest_wishes SET approved = $1 WHERE id = $2 AND event_id = $3`, approved, id, eventID)
	if err != nil {
		return fmt.Errorf("failed to update wish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWishNotFound
	}
	return nil
}

func (r *repository) DeleteWish(ctx context.Context, eventID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM guest_wishes WHERE id = $1 AND event_id = $2`, id, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete wish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWishNotFound
	}
	return nil
}

func (r *repository) CreateAdminNotification(ctx context.Context, n *model.AdminNotification) (int64, error) {
	query := `
		INSERT INTO admin_notifications (event_id, event_name, actor_id, summary)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		n.EventID, n.EventName, n.ActorID, strings.Join(n.Summary, "\n"),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert admin notification: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e         model.Event
		eventDate sql.NullTime
		bracelets sql.NullInt64
		guests    sql.NullInt64
		deal      sql.NullFloat64
		advance   sql.NullFloat64
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.EventType, &eventDate, &e.StartTime, &e.Location,
		&bracelets, &guests, &e.OrganizerPhone, &e.WelcomeMessage, &e.ThanksMessage,
		&e.CoverImageURL, &e.AccessCode, &e.CreatedBy, &deal, &advance,
		&e.AdvancePaymentStatus, &e.EditLocked, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if eventDate.Valid {
		t := eventDate.Time
		e.EventDate = &t
	}
	if bracelets.Valid {
		v := int(bracelets.Int64)
		e.BraceletsCount = &v
	}
	if guests.Valid {
		v := int(guests.Int64)
		e.GuestCountEstimate = &v
	}
	if deal.Valid {
		v := deal.Float64
		e.TotalDealAmount = &v
	}
	if advance.Valid {
		v := advance.Float64
		e.AdvancePaymentAmount = &v
	}
	return &e, nil
}

func scanMedia(row rowScanner) (*model.MediaItem, error) {
	var (
		m        model.MediaItem
		category sql.NullInt64
		status   sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.EventID, &m.FileURL, &m.FileType, &m.Uploader, &m.Caption,
		&category, &status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if category.Valid {
		v := category.Int64
		m.CategoryID = &v
	}
	// NULL status is legacy data from before moderation existed: pending.
	if status.Valid && status.String != "" {
		m.Status = status.String
	} else {
		m.Status = model.MediaPending
	}
	return &m, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
