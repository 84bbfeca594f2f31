package dto

import (
	"encoding/json"
	"strconv"
	"strings"

	"gala/internal/changes"
	"gala/internal/model"
)

// EventPayload is the wire shape for event create/update. Counts and amounts
// arrive as strings from the form layer on some clients and as numbers on
// others, so they bind as json.Number and are parsed exactly once here,
// before the store or the change detector ever see them.
type EventPayload struct {
	Name                 string      `json:"name" validate:"required,max=255"`
	EventType            string      `json:"event_type" validate:"required"`
	EventDate            string      `json:"event_date"`
	StartTime            string      `json:"start_time"`
	Location             string      `json:"location"`
	BraceletsCount       json.Number `json:"bracelets_count"`
	GuestCountEstimate   json.Number `json:"guest_count_estimate"`
	OrganizerPhone       string      `json:"organizer_phone"`
	WelcomeMessage       string      `json:"welcome_message"`
	ThanksMessage        string      `json:"thanks_message"`
	CoverImageURL        string      `json:"cover_image_url"`
	TotalDealAmount      json.Number `json:"total_deal_amount"`
	AdvancePaymentAmount json.Number `json:"advance_payment_amount"`
	AdvancePaymentStatus string      `json:"advance_payment_status"`
}

// FieldError is a validation rejection tied to one payload field.
type FieldError struct {
	Field string
	Desc  string
}

var validEventTypes = map[string]bool{
	model.EventTypeWedding: true, model.EventTypeBirthday: true,
	model.EventTypeBarMitz: true, model.EventTypeBrit: true,
	model.EventTypeCorp: true, model.EventTypeOther: true,
}

var validPaymentStatuses = map[string]bool{
	model.PaymentPendingCreation: true, model.PaymentPendingPayment: true,
	model.PaymentPaid: true, model.PaymentFailed: true,
}

// Apply lays the payload over a copy of base and returns the candidate
// record. Nothing is mutated on validation failure. The advance payment
// status is only taken from the payload for elevated actors; for everyone
// else the stored value is kept no matter what the payload says.
func (p *EventPayload) Apply(base *model.Event, elevated bool) (*model.Event, *FieldError) {
	e := *base

	e.Name = strings.TrimSpace(p.Name)
	if !validEventTypes[p.EventType] {
		return nil, &FieldError{Field: "event_type", Desc: "unknown event type"}
	}
	e.EventType = p.EventType
	e.StartTime = p.StartTime
	e.Location = p.Location
	e.OrganizerPhone = p.OrganizerPhone
	e.WelcomeMessage = p.WelcomeMessage
	e.ThanksMessage = p.ThanksMessage
	e.CoverImageURL = p.CoverImageURL

	if p.EventDate == "" {
		e.EventDate = nil
	} else {
		t, ok := changes.ParseDate(p.EventDate)
		if !ok {
			return nil, &FieldError{Field: "event_date", Desc: "use RFC3339 or YYYY-MM-DD"}
		}
		e.EventDate = &t
	}

	bracelets, err := parseCount(p.BraceletsCount)
	if err != nil {
		return nil, &FieldError{Field: "bracelets_count", Desc: "must be a whole number"}
	}
	if bracelets != nil && *bracelets <= 0 {
		return nil, &FieldError{Field: "bracelets_count", Desc: "must be positive"}
	}
	e.BraceletsCount = bracelets

	guests, err := parseCount(p.GuestCountEstimate)
	if err != nil {
		return nil, &FieldError{Field: "guest_count_estimate", Desc: "must be a whole number"}
	}
	if guests != nil && *guests < 0 {
		return nil, &FieldError{Field: "guest_count_estimate", Desc: "must not be negative"}
	}
	e.GuestCountEstimate = guests

	deal, err := parseAmount(p.TotalDealAmount)
	if err != nil {
		return nil, &FieldError{Field: "total_deal_amount", Desc: "must be a number"}
	}
	if deal != nil && *deal <= 0 {
		return nil, &FieldError{Field: "total_deal_amount", Desc: "must be positive"}
	}
	e.TotalDealAmount = deal

	advance, err := parseAmount(p.AdvancePaymentAmount)
	if err != nil {
		return nil, &FieldError{Field: "advance_payment_amount", Desc: "must be a number"}
	}
	e.AdvancePaymentAmount = advance

	if elevated && p.AdvancePaymentStatus != "" {
		if !validPaymentStatuses[p.AdvancePaymentStatus] {
			return nil, &FieldError{Field: "advance_payment_status", Desc: "unknown payment status"}
		}
		e.AdvancePaymentStatus = p.AdvancePaymentStatus
	}

	return &e, nil
}

func parseCount(n json.Number) (*int, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseAmount(n json.Number) (*float64, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type BatchIDsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

type AddCategoryRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}
