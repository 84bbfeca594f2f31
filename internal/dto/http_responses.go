package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"

	"gala/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound    = "EVENT_NOT_FOUND"
	MediaNotFound    = "MEDIA_NOT_FOUND"
	CategoryNotFound = "CATEGORY_NOT_FOUND"
	WishNotFound     = "WISH_NOT_FOUND"
	PermissionDenied = "PERMISSION_DENIED"
	EditLocked       = "EDIT_LOCKED"
	PartialBatch     = "PARTIAL_BATCH"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

type EventResponse struct {
	Event *model.Event `json:"event"`
	// Non-blocking retention advisory for the console.
	DaysUntilDeletion *int `json:"days_until_deletion,omitempty"`
	DeletionWarning   bool `json:"deletion_warning,omitempty"`
	Editable          bool `json:"editable"`
}

type UpdateEventResponse struct {
	Event          *model.Event `json:"event"`
	Changes        []string     `json:"changes,omitempty"`
	FailedChannels []string     `json:"failed_notification_channels,omitempty"`
}

type MediaListResponse struct {
	Items         []model.MediaItem `json:"items"`
	Total         int               `json:"total"`
	TotalPending  int               `json:"total_pending"`
	TotalApproved int               `json:"total_approved"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
}

type BatchResponse struct {
	Processed []int64 `json:"processed"`
	FailedID  int64   `json:"failed_id,omitempty"`
}

// RetentionSweepMessage rides the delayed queue until the deletion date.
type RetentionSweepMessage struct {
	EventID int64     `json:"event_id"`
	DueAt   time.Time `json:"due_at"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: desc},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error:  &Error{Code: ServiceUnavailable, Desc: InternalError},
	})
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: desc},
	})
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func PermissionDeniedError(c *ginext.Context) {
	c.JSON(403, Response{
		Status: "error",
		Error:  &Error{Code: PermissionDenied, Desc: "You are not allowed to modify this event"},
	})
}

func EditLockedError(c *ginext.Context) {
	c.JSON(409, Response{
		Status: "error",
		Error:  &Error{Code: EditLocked, Desc: "The editing window for this event has closed"},
	})
}

// PartialBatchResponse reports a halted batch: everything in Processed was
// mutated, the failing id and the rest were not.
func PartialBatchResponse(c *ginext.Context, processed []int64, failedID int64) {
	c.JSON(207, Response{
		Status: "partial",
		Error:  &Error{Code: PartialBatch, Desc: "Batch stopped at the first failing item; inspect current state"},
		Data:   BatchResponse{Processed: processed, FailedID: failedID},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{Status: "ok", Data: data})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{Status: "ok", Data: data})
}
