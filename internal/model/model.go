package model

import "time"

const (
	EventTypeWedding  = "wedding"
	EventTypeBirthday = "birthday"
	EventTypeBarMitz  = "bar_mitzvah"
	EventTypeBrit     = "brit"
	EventTypeCorp     = "corporate"
	EventTypeOther    = "other"
)

const (
	PaymentPendingCreation = "pending_creation"
	PaymentPendingPayment  = "pending_payment"
	PaymentPaid            = "paid"
	PaymentFailed          = "failed"
)

const (
	MediaPending  = "pending"
	MediaApproved = "approved"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Event struct {
	ID                   int64      `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	EventType            string     `db:"event_type" json:"event_type"`
	EventDate            *time.Time `db:"event_date,omitempty" json:"event_date,omitempty"`
	StartTime            string     `db:"start_time,omitempty" json:"start_time,omitempty"`
	Location             string     `db:"location,omitempty" json:"location,omitempty"`
	BraceletsCount       *int       `db:"bracelets_count" json:"bracelets_count,omitempty"`
	GuestCountEstimate   *int       `db:"guest_count_estimate" json:"guest_count_estimate,omitempty"`
	OrganizerPhone       string     `db:"organizer_phone,omitempty" json:"organizer_phone,omitempty"`
	WelcomeMessage       string     `db:"welcome_message,omitempty" json:"welcome_message,omitempty"`
	ThanksMessage        string     `db:"thanks_message,omitempty" json:"thanks_message,omitempty"`
	CoverImageURL        string     `db:"cover_image_url,omitempty" json:"cover_image_url,omitempty"`
	AccessCode           string     `db:"access_code" json:"access_code"`
	CreatedBy            string     `db:"created_by" json:"created_by"` // identity id, or e-mail on legacy records
	TotalDealAmount      *float64   `db:"total_deal_amount" json:"total_deal_amount,omitempty"`
	AdvancePaymentAmount *float64   `db:"advance_payment_amount" json:"advance_payment_amount,omitempty"`
	AdvancePaymentStatus string     `db:"advance_payment_status" json:"advance_payment_status"`
	EditLocked           bool       `db:"edit_locked" json:"edit_locked"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

type MediaItem struct {
	ID         int64     `db:"id" json:"id"`
	EventID    int64     `db:"event_id" json:"event_id"`
	FileURL    string    `db:"file_url" json:"file_url"`
	FileType   string    `db:"file_type" json:"file_type"` // image | video
	Uploader   string    `db:"uploader" json:"uploader"`   // guest name or address
	Caption    string    `db:"caption,omitempty" json:"caption,omitempty"`
	CategoryID *int64    `db:"category_id" json:"category_id,omitempty"`
	Status     string    `db:"status" json:"status"` // empty is treated as pending
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Approved reports moderation state; an absent status counts as pending.
func (m *MediaItem) Approved() bool {
	return m.Status == MediaApproved
}

type HighlightCategory struct {
	ID           int64     `db:"id" json:"id"`
	EventID      int64     `db:"event_id" json:"event_id"`
	Name         string    `db:"name" json:"name"`
	Icon         string    `db:"icon,omitempty" json:"icon,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type GuestWish struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	GuestName string    `db:"guest_name" json:"guest_name"`
	WishText  string    `db:"wish_text" json:"wish_text"`
	Approved  bool      `db:"approved" json:"approved"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type AdminNotification struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	EventName string    `db:"event_name" json:"event_name"`
	ActorID   string    `db:"actor_id" json:"actor_id"`
	Summary   []string  `db:"summary" json:"summary"` // "field: from → to" lines
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Identity is the acting user as resolved by the auth middleware.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
